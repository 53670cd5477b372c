// Package circuit holds the gnark circuits behind every proof class the engine
// verifies, along with the tooling to generate development keys and produce
// proofs for them.
//
// Public inputs are declared in the order of the engine's signal vectors, so
// the public witness of a proof is exactly its zk.PublicSignals.
package circuit

import (
	"github.com/consensys/gnark/frontend"
)

// Dealer proves that the dealer button is the parity of the sum of two
// committed seeds.
type Dealer struct {
	Session     frontend.Variable `gnark:",public"`
	SeedCommit1 frontend.Variable `gnark:",public"`
	SeedCommit2 frontend.Variable `gnark:",public"`
	Button      frontend.Variable `gnark:",public"`

	Seed1 frontend.Variable
	Salt1 frontend.Variable
	Seed2 frontend.Variable
	Salt2 frontend.Variable
}

func (c *Dealer) Define(api frontend.API) error {
	bind(api, c.Session)
	if err := assertCommitment(api, c.SeedCommit1, c.Seed1, c.Salt1); err != nil {
		return err
	}
	if err := assertCommitment(api, c.SeedCommit2, c.Seed2, c.Salt2); err != nil {
		return err
	}
	assertNonNegative(api, c.Seed1, 64)
	assertNonNegative(api, c.Seed2, 64)
	bits := api.ToBinary(api.Add(c.Seed1, c.Seed2), 65)
	api.AssertIsEqual(c.Button, bits[0])
	return nil
}

// Shuffle proves that the committed deck is a permutation of the 52 cards.
type Shuffle struct {
	Session    frontend.Variable `gnark:",public"`
	Player     frontend.Variable `gnark:",public"`
	DeckCommit frontend.Variable `gnark:",public"`

	Perm [52]frontend.Variable
	Salt frontend.Variable
}

func (c *Shuffle) Define(api frontend.API) error {
	bind(api, c.Session)
	api.AssertIsEqual(api.Mul(api.Sub(c.Player, 1), api.Sub(c.Player, 2)), 0)

	for i := range c.Perm {
		assertNonNegative(api, c.Perm[i], 6)
		assertNonNegative(api, api.Sub(51, c.Perm[i]), 6)
	}
	prod := frontend.Variable(1)
	for i := 0; i < len(c.Perm); i++ {
		for j := i + 1; j < len(c.Perm); j++ {
			prod = api.Mul(prod, api.Sub(c.Perm[i], c.Perm[j]))
		}
	}
	api.AssertIsDifferent(prod, 0)

	return assertCommitment(api, c.DeckCommit, pack(api, c.Perm[:26]), pack(api, c.Perm[26:]), c.Salt)
}

// Deal proves that the hole and community commitments hold the cards found
// at the dealt positions of the deck obtained by composing both shuffles.
type Deal struct {
	Session         frontend.Variable `gnark:",public"`
	DeckCommit1     frontend.Variable `gnark:",public"`
	DeckCommit2     frontend.Variable `gnark:",public"`
	HoleCommit1     frontend.Variable `gnark:",public"`
	HoleCommit2     frontend.Variable `gnark:",public"`
	CommunityCommit frontend.Variable `gnark:",public"`
	DealStart       frontend.Variable `gnark:",public"`
	DealCount       frontend.Variable `gnark:",public"`

	Perm1         [52]frontend.Variable
	Perm2         [52]frontend.Variable
	DeckSalt1     frontend.Variable
	DeckSalt2     frontend.Variable
	HoleSalt1     frontend.Variable
	HoleSalt2     frontend.Variable
	CommunitySalt frontend.Variable
}

func (c *Deal) Define(api frontend.API) error {
	bind(api, c.Session)
	if err := assertCommitment(api, c.DeckCommit1, pack(api, c.Perm1[:26]), pack(api, c.Perm1[26:]), c.DeckSalt1); err != nil {
		return err
	}
	if err := assertCommitment(api, c.DeckCommit2, pack(api, c.Perm2[:26]), pack(api, c.Perm2[26:]), c.DeckSalt2); err != nil {
		return err
	}
	api.AssertIsEqual(c.DealCount, 9)

	var dealt [9]frontend.Variable
	for k := range dealt {
		pos := selectAt(api, c.Perm2[:], api.Add(c.DealStart, k))
		dealt[k] = selectAt(api, c.Perm1[:], pos)
	}
	if err := assertCommitment(api, c.HoleCommit1, dealt[0], dealt[2], c.HoleSalt1); err != nil {
		return err
	}
	if err := assertCommitment(api, c.HoleCommit2, dealt[1], dealt[3], c.HoleSalt2); err != nil {
		return err
	}
	return assertCommitment(api, c.CommunityCommit,
		dealt[4], dealt[5], dealt[6], dealt[7], dealt[8], c.CommunitySalt)
}

// Action codes shared by the bet circuit and the engine.
const (
	codeBet   = 4
	codeRaise = 5
	codeAllIn = 6
)

// Bet proves that a wager is affordable and sized according to the betting
// rules. Every input is public; the proof binds the wager to the session and
// seat.
type Bet struct {
	Session     frontend.Variable `gnark:",public"`
	Player      frontend.Variable `gnark:",public"`
	Action      frontend.Variable `gnark:",public"`
	Amount      frontend.Variable `gnark:",public"`
	Stack       frontend.Variable `gnark:",public"`
	OwnBet      frontend.Variable `gnark:",public"`
	OpponentBet frontend.Variable `gnark:",public"`
	MinBet      frontend.Variable `gnark:",public"`
}

func (c *Bet) Define(api frontend.API) error {
	bind(api, c.Session, c.MinBet)
	api.AssertIsEqual(api.Mul(api.Sub(c.Player, 1), api.Sub(c.Player, 2)), 0)

	isBet := api.IsZero(api.Sub(c.Action, codeBet))
	isRaise := api.IsZero(api.Sub(c.Action, codeRaise))
	isAllIn := api.IsZero(api.Sub(c.Action, codeAllIn))
	api.AssertIsEqual(api.Add(isBet, isRaise, isAllIn), 1)

	sized := api.Add(isBet, isRaise)
	put := api.Sub(c.Amount, c.OwnBet)
	assertNonNegativeWhen(api, sized, put)
	assertNonNegativeWhen(api, sized, api.Sub(api.Sub(c.Stack, put), 1))

	api.AssertIsEqual(api.Mul(isBet, c.OpponentBet), 0)
	assertNonNegativeWhen(api, isBet, api.Sub(c.Amount, c.MinBet))

	assertNonNegativeWhen(api, isRaise, api.Sub(c.OpponentBet, 1))
	assertNonNegativeWhen(api, isRaise, api.Sub(c.Amount, api.Mul(c.OpponentBet, 2)))

	api.AssertIsEqual(api.Mul(isAllIn, api.Sub(c.Amount, c.Stack)), 0)
	assertNonNegativeWhen(api, isAllIn, api.Sub(c.Stack, 1))
	return nil
}

// Reveal proves that the revealed cards are the committed community cards of
// one street and names the burned deck position.
type Reveal struct {
	Session         frontend.Variable    `gnark:",public"`
	CommunityCommit frontend.Variable    `gnark:",public"`
	Offset          frontend.Variable    `gnark:",public"`
	Count           frontend.Variable    `gnark:",public"`
	Cards           [3]frontend.Variable `gnark:",public"`
	BurnPosition    frontend.Variable    `gnark:",public"`

	Community [5]frontend.Variable
	Salt      frontend.Variable
}

func (c *Reveal) Define(api frontend.API) error {
	bind(api, c.Session)
	if err := assertCommitment(api, c.CommunityCommit,
		c.Community[0], c.Community[1], c.Community[2], c.Community[3], c.Community[4], c.Salt); err != nil {
		return err
	}

	isFlop := api.IsZero(c.Offset)
	isTurn := api.IsZero(api.Sub(c.Offset, 3))
	isRiver := api.IsZero(api.Sub(c.Offset, 4))
	api.AssertIsEqual(api.Add(isFlop, isTurn, isRiver), 1)
	api.AssertIsEqual(c.Count, api.Add(1, api.Mul(isFlop, 2)))
	api.AssertIsEqual(c.BurnPosition, api.Add(api.Mul(isFlop, 9), api.Mul(isTurn, 10), api.Mul(isRiver, 11)))

	api.AssertIsEqual(c.Cards[0], selectAt(api, c.Community[:], c.Offset))
	api.AssertIsEqual(c.Cards[1], api.Select(isFlop, c.Community[1], noCard))
	api.AssertIsEqual(c.Cards[2], api.Select(isFlop, c.Community[2], noCard))
	return nil
}

const noCard = 52

// Showdown proves the rankings and the winner of the hand against the stored
// hole and community commitments. Each seat's score is the best of its 21
// five-card hands, packed as in poker.HandValue.Score.
type Showdown struct {
	HoleCommit1     frontend.Variable `gnark:",public"`
	HoleCommit2     frontend.Variable `gnark:",public"`
	CommunityCommit frontend.Variable `gnark:",public"`
	Ranking1        frontend.Variable `gnark:",public"`
	Ranking2        frontend.Variable `gnark:",public"`
	Winner          frontend.Variable `gnark:",public"`

	Hole1         [2]frontend.Variable
	HoleSalt1     frontend.Variable
	Hole2         [2]frontend.Variable
	HoleSalt2     frontend.Variable
	Community     [5]frontend.Variable
	CommunitySalt frontend.Variable
}

func (c *Showdown) Define(api frontend.API) error {
	if err := assertCommitment(api, c.HoleCommit1, c.Hole1[0], c.Hole1[1], c.HoleSalt1); err != nil {
		return err
	}
	if err := assertCommitment(api, c.HoleCommit2, c.Hole2[0], c.Hole2[1], c.HoleSalt2); err != nil {
		return err
	}
	if err := assertCommitment(api, c.CommunityCommit,
		c.Community[0], c.Community[1], c.Community[2], c.Community[3], c.Community[4], c.CommunitySalt); err != nil {
		return err
	}

	ids := []frontend.Variable{c.Hole1[0], c.Hole1[1], c.Hole2[0], c.Hole2[1]}
	ids = append(ids, c.Community[:]...)
	assertDistinct(api, ids)
	var board [5]*cardBits
	for i, id := range c.Community {
		board[i] = decomposeCard(api, id)
	}
	var scores [2]frontend.Variable
	for seat, hole := range [2][2]frontend.Variable{c.Hole1, c.Hole2} {
		seven := [7]*cardBits{decomposeCard(api, hole[0]), decomposeCard(api, hole[1])}
		copy(seven[2:], board[:])
		scores[seat] = bestOfSeven(api, seven)
	}
	api.AssertIsEqual(c.Ranking1, rankingOf(api, scores[0]))
	api.AssertIsEqual(c.Ranking2, rankingOf(api, scores[1]))

	first := api.Sub(1, atLeast(api, scores[1], scores[0]))
	second := api.Sub(1, atLeast(api, scores[0], scores[1]))
	api.AssertIsEqual(c.Winner, api.Add(first, api.Mul(second, 2)))
	return nil
}
