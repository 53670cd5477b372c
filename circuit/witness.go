package circuit

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/luca-patrignani/zkpoker/commitment"
	"github.com/luca-patrignani/zkpoker/domain/deck"
	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/luca-patrignani/zkpoker/field"
)

func fe(e field.Element) *big.Int { return field.ElementToBigInt(e) }

func cm(c commitment.Commitment) *big.Int { return fe(c.Element()) }

func cards(values []uint8) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = big.NewInt(int64(v))
	}
	return out
}

// DealerWitness is what both players contribute to dealer selection.
type DealerWitness struct {
	Session uint32
	Seeds   [2]uint64
	Salts   [2]field.Element
}

// Commitments returns the seed commitments each player publishes at start.
func (w DealerWitness) Commitments() ([2]commitment.Commitment, error) {
	var out [2]commitment.Commitment
	for i := range out {
		c, err := commitment.Seed.CommitUint64([]uint64{w.Seeds[i]}, w.Salts[i])
		if err != nil {
			return out, err
		}
		out[i] = c
	}
	return out, nil
}

// Button returns 0 when player 1 holds the button and 1 otherwise.
func (w DealerWitness) Button() uint64 {
	return (w.Seeds[0] ^ w.Seeds[1]) & 1
}

func (w DealerWitness) Assignment() (*Dealer, error) {
	commits, err := w.Commitments()
	if err != nil {
		return nil, err
	}
	return &Dealer{
		Session:     uint64(w.Session),
		SeedCommit1: cm(commits[0]),
		SeedCommit2: cm(commits[1]),
		Button:      w.Button(),
		Seed1:       w.Seeds[0],
		Salt1:       fe(w.Salts[0]),
		Seed2:       w.Seeds[1],
		Salt2:       fe(w.Salts[1]),
	}, nil
}

// ShuffleWitness is one player's secret shuffle.
type ShuffleWitness struct {
	Session uint32
	Player  uint64
	Perm    deck.Permutation
	Salt    field.Element
}

func (w ShuffleWitness) Commitment() (commitment.Commitment, error) {
	return deck.Commit(w.Perm, w.Salt)
}

func (w ShuffleWitness) Assignment() (*Shuffle, error) {
	c, err := w.Commitment()
	if err != nil {
		return nil, err
	}
	a := &Shuffle{Session: uint64(w.Session), Player: w.Player, DeckCommit: cm(c), Salt: fe(w.Salt)}
	for i, v := range cards(w.Perm[:]) {
		a.Perm[i] = v
	}
	return a, nil
}

// DealWitness combines both shuffles with the salts of the dealt
// commitments.
type DealWitness struct {
	Session       uint32
	Shuffles      [2]ShuffleWitness
	HoleSalts     [2]field.Element
	CommunitySalt field.Element
}

// Deck returns the final deck order.
func (w DealWitness) Deck() deck.Permutation {
	return deck.Compose(w.Shuffles[0].Perm, w.Shuffles[1].Perm)
}

// DealtCommitments returns the hole commitments of both seats and the
// community commitment.
func (w DealWitness) DealtCommitments() (hole [2]commitment.Commitment, community commitment.Commitment, err error) {
	holeCards, board := w.Deck().Deal()
	for i := range hole {
		hole[i], err = commitment.HoleCards.CommitUint64(
			[]uint64{uint64(holeCards[i][0]), uint64(holeCards[i][1])}, w.HoleSalts[i])
		if err != nil {
			return hole, community, err
		}
	}
	values := make([]uint64, len(board))
	for i, c := range board {
		values[i] = uint64(c)
	}
	community, err = commitment.CommunityCards.CommitUint64(values, w.CommunitySalt)
	return hole, community, err
}

func (w DealWitness) Assignment() (*Deal, error) {
	var decks [2]commitment.Commitment
	for i, s := range w.Shuffles {
		c, err := s.Commitment()
		if err != nil {
			return nil, err
		}
		decks[i] = c
	}
	hole, community, err := w.DealtCommitments()
	if err != nil {
		return nil, err
	}
	a := &Deal{
		Session:         uint64(w.Session),
		DeckCommit1:     cm(decks[0]),
		DeckCommit2:     cm(decks[1]),
		HoleCommit1:     cm(hole[0]),
		HoleCommit2:     cm(hole[1]),
		CommunityCommit: cm(community),
		DealStart:       deck.DealStart,
		DealCount:       deck.DealCount,
		DeckSalt1:       fe(w.Shuffles[0].Salt),
		DeckSalt2:       fe(w.Shuffles[1].Salt),
		HoleSalt1:       fe(w.HoleSalts[0]),
		HoleSalt2:       fe(w.HoleSalts[1]),
		CommunitySalt:   fe(w.CommunitySalt),
	}
	for i, v := range cards(w.Shuffles[0].Perm[:]) {
		a.Perm1[i] = v
	}
	for i, v := range cards(w.Shuffles[1].Perm[:]) {
		a.Perm2[i] = v
	}
	return a, nil
}

// BetWitness mirrors the bet signal vector.
type BetWitness struct {
	Session     uint32
	Player      uint64
	Action      uint64
	Amount      int64
	Stack       int64
	OwnBet      int64
	OpponentBet int64
	MinBet      int64
}

func (w BetWitness) Assignment() *Bet {
	return &Bet{
		Session:     uint64(w.Session),
		Player:      w.Player,
		Action:      w.Action,
		Amount:      w.Amount,
		Stack:       w.Stack,
		OwnBet:      w.OwnBet,
		OpponentBet: w.OpponentBet,
		MinBet:      w.MinBet,
	}
}

// RevealWitness opens one street of the committed board.
type RevealWitness struct {
	Session uint32
	Board   [5]uint8
	Salt    field.Element
	Street  int
}

// Cards returns the three card slots of the street, padded with the no-card
// sentinel.
func (w RevealWitness) Cards() [3]uint64 {
	s, _ := deck.StreetAt(w.Street)
	out := [3]uint64{deck.NoCard, deck.NoCard, deck.NoCard}
	for i := 0; i < s.Count; i++ {
		out[i] = uint64(w.Board[s.Offset+i])
	}
	return out
}

func (w RevealWitness) Assignment() (*Reveal, error) {
	values := make([]uint64, len(w.Board))
	for i, c := range w.Board {
		values[i] = uint64(c)
	}
	c, err := commitment.CommunityCards.CommitUint64(values, w.Salt)
	if err != nil {
		return nil, err
	}
	s, _ := deck.StreetAt(w.Street)
	slots := w.Cards()
	a := &Reveal{
		Session:         uint64(w.Session),
		CommunityCommit: cm(c),
		Offset:          s.Offset,
		Count:           s.Count,
		BurnPosition:    deck.BurnPosition(w.Street),
		Salt:            fe(w.Salt),
	}
	for i := range slots {
		a.Cards[i] = slots[i]
	}
	for i, v := range cards(w.Board[:]) {
		a.Community[i] = v
	}
	return a, nil
}

// ShowdownWitness opens both hands and the board.
type ShowdownWitness struct {
	Holes         [2][2]uint8
	HoleSalts     [2]field.Element
	Board         [5]uint8
	CommunitySalt field.Element
}

// Values evaluates both hands against the board.
func (w ShowdownWitness) Values() ([2]poker.HandValue, error) {
	var out [2]poker.HandValue
	var board [5]poker.Card
	for i, id := range w.Board {
		c, err := poker.CardFromID(id)
		if err != nil {
			return out, err
		}
		board[i] = c
	}
	for seat, hole := range w.Holes {
		var cards [2]poker.Card
		for i, id := range hole {
			c, err := poker.CardFromID(id)
			if err != nil {
				return out, err
			}
			cards[i] = c
		}
		v, err := poker.EvaluateHand(cards, board)
		if err != nil {
			return out, err
		}
		out[seat] = v
	}
	return out, nil
}

// winnerSignal returns 0 for a tie, 1 or 2 for the seat with the better hand.
func winnerSignal(values [2]poker.HandValue) uint64 {
	switch poker.Compare(values[0], values[1]) {
	case 1:
		return 1
	case -1:
		return 2
	}
	return 0
}

func (w ShowdownWitness) Assignment() (*Showdown, error) {
	values, err := w.Values()
	if err != nil {
		return nil, err
	}
	var hole [2]commitment.Commitment
	for i := range hole {
		c, err := commitment.HoleCards.CommitUint64(
			[]uint64{uint64(w.Holes[i][0]), uint64(w.Holes[i][1])}, w.HoleSalts[i])
		if err != nil {
			return nil, err
		}
		hole[i] = c
	}
	board := make([]uint64, len(w.Board))
	for i, c := range w.Board {
		board[i] = uint64(c)
	}
	community, err := commitment.CommunityCards.CommitUint64(board, w.CommunitySalt)
	if err != nil {
		return nil, err
	}
	a := &Showdown{
		HoleCommit1:     cm(hole[0]),
		HoleCommit2:     cm(hole[1]),
		CommunityCommit: cm(community),
		Ranking1:        uint64(values[0].Ranking),
		Ranking2:        uint64(values[1].Ranking),
		Winner:          winnerSignal(values),
		Hole1:           [2]frontend.Variable{uint64(w.Holes[0][0]), uint64(w.Holes[0][1])},
		HoleSalt1:       fe(w.HoleSalts[0]),
		Hole2:           [2]frontend.Variable{uint64(w.Holes[1][0]), uint64(w.Holes[1][1])},
		HoleSalt2:       fe(w.HoleSalts[1]),
		CommunitySalt:   fe(w.CommunitySalt),
	}
	for i, v := range cards(w.Board[:]) {
		a.Community[i] = v
	}
	return a, nil
}
