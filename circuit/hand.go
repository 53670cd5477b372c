package circuit

import (
	"github.com/consensys/gnark/frontend"
	"github.com/luca-patrignani/zkpoker/commitment"
	"github.com/luca-patrignani/zkpoker/domain/deck"
	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/luca-patrignani/zkpoker/field"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pkg/errors"
)

// Hand holds the secrets of both players of one hand and proves every step
// with the keys of a Suite. It backs the demo command and the end-to-end
// tests; real players each keep their own half.
type Hand struct {
	suite  Suite
	dealer DealerWitness
	deal   DealWitness
}

// NewHand draws fresh shuffles and salts for session.
func NewHand(s Suite, session uint32, seeds [2]uint64) (*Hand, error) {
	salts := make([]field.Element, 7)
	for i := range salts {
		salt, err := commitment.RandomSalt()
		if err != nil {
			return nil, err
		}
		salts[i] = salt
	}
	return &Hand{
		suite:  s,
		dealer: DealerWitness{Session: session, Seeds: seeds, Salts: [2]field.Element{salts[0], salts[1]}},
		deal: DealWitness{
			Session: session,
			Shuffles: [2]ShuffleWitness{
				{Session: session, Player: 1, Perm: deck.Shuffle(), Salt: salts[2]},
				{Session: session, Player: 2, Perm: deck.Shuffle(), Salt: salts[3]},
			},
			HoleSalts:     [2]field.Element{salts[4], salts[5]},
			CommunitySalt: salts[6],
		},
	}, nil
}

func (h *Hand) prove(id zk.CircuitID, assignment frontend.Circuit) (poker.ProofBundle, error) {
	k, ok := h.suite[id]
	if !ok {
		return poker.ProofBundle{}, errors.Errorf("circuit: no keys for %s", id)
	}
	proof, signals, err := k.Prove(assignment)
	return poker.ProofBundle{Proof: proof, Signals: signals}, err
}

// Button is the seat the dealer proof hands the button to.
func (h *Hand) Button() uint8 { return uint8(h.dealer.Button()) }

func (h *Hand) SeedCommitments() ([2]commitment.Commitment, error) {
	return h.dealer.Commitments()
}

// Start builds the start request, dealer proof included.
func (h *Hand) Start(players [2]string, buyIns [2]int64) (poker.StartRequest, error) {
	seeds, err := h.SeedCommitments()
	if err != nil {
		return poker.StartRequest{}, err
	}
	a, err := h.dealer.Assignment()
	if err != nil {
		return poker.StartRequest{}, err
	}
	b, err := h.prove(zk.CircuitDealer, a)
	if err != nil {
		return poker.StartRequest{}, err
	}
	return poker.StartRequest{
		Session:         poker.SessionID(h.dealer.Session),
		Players:         players,
		BuyIns:          buyIns,
		SeedCommitments: seeds,
		Dealer:          b,
	}, nil
}

func (h *Hand) ShuffleProof(seat int) (poker.ProofBundle, error) {
	a, err := h.deal.Shuffles[seat].Assignment()
	if err != nil {
		return poker.ProofBundle{}, err
	}
	return h.prove(zk.CircuitShuffle, a)
}

func (h *Hand) DealProof() (poker.ProofBundle, error) {
	a, err := h.deal.Assignment()
	if err != nil {
		return poker.ProofBundle{}, err
	}
	return h.prove(zk.CircuitDeal, a)
}

// BetProof proves a wager by seat against the current state of g.
func (h *Hand) BetProof(g *poker.GameState, rules poker.Rules, seat int, a poker.Action) (poker.ProofBundle, error) {
	own, opp := g.Seats[seat], g.Seats[1-seat]
	w := BetWitness{
		Session:     uint32(g.Session),
		Player:      uint64(seat + 1),
		Action:      a.Type.Code(),
		Amount:      a.Amount,
		Stack:       own.Stack,
		OwnBet:      own.Bet,
		OpponentBet: opp.Bet,
		MinBet:      rules.BigBlind(),
	}
	return h.prove(zk.CircuitBet, w.Assignment())
}

// RevealProof opens street 0 (flop), 1 (turn) or 2 (river).
func (h *Hand) RevealProof(street int) (poker.ProofBundle, error) {
	if _, ok := deck.StreetAt(street); !ok {
		return poker.ProofBundle{}, errors.Errorf("circuit: no street %d", street)
	}
	_, board := h.deal.Deck().Deal()
	w := RevealWitness{Session: h.deal.Session, Board: board, Salt: h.deal.CommunitySalt, Street: street}
	a, err := w.Assignment()
	if err != nil {
		return poker.ProofBundle{}, err
	}
	return h.prove(zk.CircuitReveal, a)
}

// Holes returns the hole cards of both seats.
func (h *Hand) Holes() [2][2]uint8 {
	hole, _ := h.deal.Deck().Deal()
	return hole
}

func (h *Hand) Board() [5]uint8 {
	_, board := h.deal.Deck().Deal()
	return board
}

// Values evaluates both hands against the full board.
func (h *Hand) Values() ([2]poker.HandValue, error) {
	return h.showdown().Values()
}

func (h *Hand) showdown() ShowdownWitness {
	return ShowdownWitness{
		Holes:         h.Holes(),
		HoleSalts:     h.deal.HoleSalts,
		Board:         h.Board(),
		CommunitySalt: h.deal.CommunitySalt,
	}
}

// ShowdownProof opens both hands and proves the winner.
func (h *Hand) ShowdownProof() (poker.ProofBundle, error) {
	a, err := h.showdown().Assignment()
	if err != nil {
		return poker.ProofBundle{}, err
	}
	return h.prove(zk.CircuitShowdown, a)
}
