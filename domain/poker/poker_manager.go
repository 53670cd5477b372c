package poker

import (
	"time"

	"github.com/luca-patrignani/zkpoker/commitment"
	"github.com/luca-patrignani/zkpoker/common"
	"github.com/luca-patrignani/zkpoker/domain/deck"
	"github.com/luca-patrignani/zkpoker/field"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pkg/errors"
)

// signalCount is the public signal count of every circuit the manager
// consumes.
var signalCount = map[zk.CircuitID]int{
	zk.CircuitDealer:   4,
	zk.CircuitShuffle:  3,
	zk.CircuitDeal:     8,
	zk.CircuitBet:      8,
	zk.CircuitReveal:   8,
	zk.CircuitShowdown: 6,
}

// Manager applies the game transitions. It holds no per-game state: every
// transition takes the current GameState and returns the next one, leaving
// its input untouched when it fails.
type Manager struct {
	Rules  Rules
	Proofs ProofChecker
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewManager creates a Manager verifying proofs with proofs.
func NewManager(rules Rules, proofs ProofChecker) *Manager {
	return &Manager{Rules: rules, Proofs: proofs, Now: time.Now}
}

func (m *Manager) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *Manager) deadline() time.Time {
	timeout := m.Rules.TurnTimeout
	if timeout <= 0 {
		timeout = DefaultTurnTimeout
	}
	return m.now().Add(timeout)
}

// StartRequest opens a game. The dealer proof selects the button from both
// committed seeds.
type StartRequest struct {
	Session         SessionID
	Players         [2]string
	BuyIns          [2]int64
	SeedCommitments [2]commitment.Commitment
	Dealer          ProofBundle
}

// Start creates the game in Setup and runs the dealer selection, so a
// rejected proof creates nothing. The returned game waits for the blinds.
func (m *Manager) Start(req StartRequest) (*GameState, error) {
	if req.Players[0] == "" || req.Players[1] == "" {
		return nil, errors.Wrap(common.ErrNotParticipant, "empty player address")
	}
	if req.Players[0] == req.Players[1] {
		return nil, errors.Wrapf(common.ErrSelfPlay, "address %s", req.Players[0])
	}
	for i, b := range req.BuyIns {
		if b < m.Rules.BigBlind() {
			return nil, errors.Wrapf(common.ErrInvalidBuyIn, "player %d buys in for %d, minimum %d", i+1, b, m.Rules.BigBlind())
		}
	}
	now := m.now()
	g := &GameState{
		Session:      req.Session,
		Phase:        PhaseSetup,
		CurrentActor: NoActor,
		CreatedAt:    now,
	}
	for i := range g.Seats {
		if req.SeedCommitments[i].IsZero() {
			return nil, errors.Wrapf(common.ErrMissingCommitment, "seed of player %d", i+1)
		}
		g.Seats[i] = Seat{
			Address:        req.Players[i],
			BuyIn:          req.BuyIns[i],
			Stack:          req.BuyIns[i],
			SeedCommitment: req.SeedCommitments[i],
		}
	}
	return m.apply(g, func(g *GameState) error {
		s := req.Dealer.Signals
		if err := checkShape(zk.CircuitDealer, s); err != nil {
			return err
		}
		if err := checkSession(g, s); err != nil {
			return err
		}
		for i := range g.Seats {
			if err := checkCommitment(g.Seats[i].SeedCommitment, s[1+i], "seed"); err != nil {
				return err
			}
		}
		button, err := s.Uint64(3)
		if err != nil || button > 1 {
			return errors.Wrapf(common.ErrInvalidSignal, "dealer button %s", s[3].String())
		}
		if err := m.verify(zk.CircuitDealer, req.Dealer); err != nil {
			return err
		}
		g.DealerButton = uint8(button)
		g.Phase = PhaseBlinds
		return nil
	})
}

// PostBlinds takes the small blind from the button and the big blind from
// the other seat.
func (m *Manager) PostBlinds(g *GameState, caller string) (*GameState, error) {
	return m.apply(g, func(g *GameState) error {
		if err := expectPhase(g, PhaseBlinds); err != nil {
			return err
		}
		if _, err := g.SeatOf(caller); err != nil {
			return err
		}
		if err := g.commit(g.SmallBlindSeat(), m.Rules.SmallBlind); err != nil {
			return errors.Wrap(err, "small blind")
		}
		if err := g.commit(g.BigBlindSeat(), m.Rules.BigBlind()); err != nil {
			return errors.Wrap(err, "big blind")
		}
		g.LastRaise = m.Rules.BigBlind()
		g.Phase = PhaseShuffle
		return nil
	})
}

// CommitShuffle records a player's shuffle proof. The game moves to Deal
// once both players committed their permutation.
func (m *Manager) CommitShuffle(g *GameState, caller string, b ProofBundle) (*GameState, error) {
	return m.apply(g, func(g *GameState) error {
		if err := expectPhase(g, PhaseShuffle); err != nil {
			return err
		}
		seat, err := g.SeatOf(caller)
		if err != nil {
			return err
		}
		if !g.Seats[seat].DeckCommitment.IsZero() {
			return errors.Wrapf(common.ErrAlreadyCommitted, "shuffle of player %d", seat+1)
		}
		s := b.Signals
		if err := checkShape(zk.CircuitShuffle, s); err != nil {
			return err
		}
		if err := checkSession(g, s); err != nil {
			return err
		}
		if p, err := s.Uint64(1); err != nil || p != uint64(seat+1) {
			return errors.Wrapf(common.ErrInvalidSignal, "shuffle player %s from seat %d", s[1].String(), seat+1)
		}
		c := commitment.FromElement(s[2])
		if c.IsZero() {
			return errors.Wrap(common.ErrMissingCommitment, "deck commitment")
		}
		if err := m.verify(zk.CircuitShuffle, b); err != nil {
			return err
		}
		g.Seats[seat].DeckCommitment = c
		g.ShuffleOrder = append(g.ShuffleOrder, uint8(seat))
		if len(g.ShuffleOrder) == len(g.Seats) {
			g.Phase = PhaseDeal
		}
		return nil
	})
}

// Deal stores the hole and community commitments proven to come from the
// composed deck. The button acts first preflop.
func (m *Manager) Deal(g *GameState, caller string, b ProofBundle) (*GameState, error) {
	return m.apply(g, func(g *GameState) error {
		if err := expectPhase(g, PhaseDeal); err != nil {
			return err
		}
		if _, err := g.SeatOf(caller); err != nil {
			return err
		}
		s := b.Signals
		if err := checkShape(zk.CircuitDeal, s); err != nil {
			return err
		}
		if err := checkSession(g, s); err != nil {
			return err
		}
		for i := range g.Seats {
			if g.Seats[i].DeckCommitment.IsZero() {
				return errors.Wrapf(common.ErrMissingCommitment, "shuffle of player %d", i+1)
			}
			if err := checkCommitment(g.Seats[i].DeckCommitment, s[1+i], "deck"); err != nil {
				return err
			}
		}
		start, err := s.Uint64(6)
		if err != nil {
			return errors.Wrap(common.ErrDealPositions, err.Error())
		}
		count, err := s.Uint64(7)
		if err != nil {
			return errors.Wrap(common.ErrDealPositions, err.Error())
		}
		if err := deck.CheckDealWindow(start, count); err != nil {
			return err
		}
		for i := 3; i <= 5; i++ {
			if commitment.FromElement(s[i]).IsZero() {
				return errors.Wrapf(common.ErrMissingCommitment, "deal signal %d", i)
			}
		}
		if err := m.verify(zk.CircuitDeal, b); err != nil {
			return err
		}
		g.Seats[0].HoleCommitment = commitment.FromElement(s[3])
		g.Seats[1].HoleCommitment = commitment.FromElement(s[4])
		g.CommunityCommitment = commitment.FromElement(s[5])
		g.Phase = PhasePreflop
		g.setTurn(g.SmallBlindSeat(), m.deadline())
		return nil
	})
}

// Act applies a player's action. Bet, Raise and AllIn need a bet proof whose
// signals match the game exactly.
func (m *Manager) Act(g *GameState, caller string, a Action, b *ProofBundle) (*GameState, error) {
	return m.apply(g, func(g *GameState) error {
		if !g.Phase.IsBetting() {
			return expectPhase(g)
		}
		if g.revealPending() {
			return errors.Wrapf(common.ErrRevealPending, "%s cards not revealed", g.Phase)
		}
		seat, err := g.SeatOf(caller)
		if err != nil {
			return err
		}
		if seat != g.CurrentActor {
			return errors.Wrapf(common.ErrNotYourTurn, "player %d", seat+1)
		}
		put, err := m.Rules.checkAction(g, seat, a)
		if err != nil {
			return err
		}
		if a.Type.Wagers() {
			if b == nil {
				return errors.Wrapf(common.ErrMalformedProof, "%s needs a bet proof", a.Type)
			}
			if err := checkShape(zk.CircuitBet, b.Signals); err != nil {
				return err
			}
			if err := checkSession(g, b.Signals); err != nil {
				return err
			}
			if !b.Signals.Equal(m.Rules.betSignals(g, seat, a)) {
				return errors.Wrapf(common.ErrInvalidSignal, "bet proof does not match %s %d", a.Type, a.Amount)
			}
			if err := m.verify(zk.CircuitBet, *b); err != nil {
				return err
			}
		}

		g.LastAction = a
		if a.Type == ActionFold {
			g.Seats[seat].Folded = true
			g.finish(outcomeFor(1-seat), EndFold, m.now())
			return nil
		}

		own, opp := &g.Seats[seat], &g.Seats[1-seat]
		before := opp.Bet
		if err := g.commit(seat, put); err != nil {
			return err
		}
		own.Acted = true
		if own.Bet > before {
			g.LastRaise = own.Bet - before
			opp.Acted = false
		}
		m.advance(g, seat)
		return nil
	})
}

// advance closes the round when it is complete or passes the turn.
func (m *Manager) advance(g *GameState, seat int) {
	if !g.roundComplete() {
		g.setTurn(1-seat, m.deadline())
		return
	}
	g.closeRound()
}

// Timeout folds the player holding an expired turn.
func (m *Manager) Timeout(g *GameState) (*GameState, error) {
	return m.apply(g, func(g *GameState) error {
		if !g.Phase.IsBetting() {
			return expectPhase(g)
		}
		if g.CurrentActor == NoActor {
			return errors.Wrap(common.ErrWrongPhase, "nobody holds the turn")
		}
		now := m.now()
		if now.Before(g.TurnDeadline) {
			return errors.Wrapf(common.ErrWrongPhase, "turn expires at %s", g.TurnDeadline.Format(time.RFC3339))
		}
		seat := g.CurrentActor
		g.Seats[seat].Folded = true
		g.LastAction = Fold()
		g.finish(outcomeFor(1-seat), EndTimeout, now)
		return nil
	})
}

// Expired reports whether the turn deadline of g has passed.
func (m *Manager) Expired(g *GameState) bool {
	return g.Phase.IsBetting() && g.CurrentActor != NoActor && !m.now().Before(g.TurnDeadline)
}

// RevealCommunity opens the cards of the current street. Without a player
// able to bet, the street closes as soon as its cards are out.
func (m *Manager) RevealCommunity(g *GameState, caller string, b ProofBundle) (*GameState, error) {
	return m.apply(g, func(g *GameState) error {
		if !g.revealPending() {
			return expectPhase(g)
		}
		if _, err := g.SeatOf(caller); err != nil {
			return err
		}
		s := b.Signals
		if err := checkShape(zk.CircuitReveal, s); err != nil {
			return err
		}
		if err := checkSession(g, s); err != nil {
			return err
		}
		if err := checkCommitment(g.CommunityCommitment, s[1], "community"); err != nil {
			return err
		}
		street := g.Phase.street()
		want, _ := deck.StreetAt(street)
		offset, err1 := s.Uint64(2)
		count, err2 := s.Uint64(3)
		if err1 != nil || err2 != nil || offset != uint64(want.Offset) || count != uint64(want.Count) {
			return errors.Wrapf(common.ErrInvalidSignal, "reveal window %s+%s, want %d+%d",
				s[2].String(), s[3].String(), want.Offset, want.Count)
		}
		if burn, err := s.Uint64(7); err != nil || burn != uint64(deck.BurnPosition(street)) {
			return errors.Wrapf(common.ErrDealPositions, "burn position %s", s[7].String())
		}
		cards := make([]Card, 0, want.Count)
		ids := make([]uint8, 0, len(g.Community)+want.Count)
		for _, c := range g.Community {
			ids = append(ids, c.ID())
		}
		for i := 0; i < 3; i++ {
			v, err := s.Uint64(4 + i)
			if err != nil {
				return errors.Wrapf(common.ErrCardOutOfRange, "reveal card %d", i)
			}
			if i >= want.Count {
				if v != deck.NoCard {
					return errors.Wrapf(common.ErrInvalidSignal, "unused card slot %d holds %d", i, v)
				}
				continue
			}
			card, err := CardFromID(uint8(min(v, deck.Size)))
			if err != nil {
				return err
			}
			cards = append(cards, card)
			ids = append(ids, card.ID())
		}
		if err := deck.CheckDistinct(ids...); err != nil {
			return err
		}
		if err := m.verify(zk.CircuitReveal, b); err != nil {
			return err
		}
		g.Community = append(g.Community, cards...)
		g.BurnPositions = append(g.BurnPositions, uint8(deck.BurnPosition(street)))
		g.openStreet(m)
		return nil
	})
}

// RevealWinner settles the showdown. The commitments in the signals are
// compared with the stored ones before the rankings and winner are trusted.
func (m *Manager) RevealWinner(g *GameState, caller string, b ProofBundle) (*GameState, error) {
	return m.apply(g, func(g *GameState) error {
		if err := expectPhase(g, PhaseShowdown); err != nil {
			return err
		}
		if _, err := g.SeatOf(caller); err != nil {
			return err
		}
		s := b.Signals
		if err := checkShape(zk.CircuitShowdown, s); err != nil {
			return err
		}
		for i := range g.Seats {
			if err := checkCommitment(g.Seats[i].HoleCommitment, s[i], "hole"); err != nil {
				return err
			}
		}
		if err := checkCommitment(g.CommunityCommitment, s[2], "community"); err != nil {
			return err
		}
		var rankings [2]HandRanking
		for i := range rankings {
			v, err := s.Uint64(3 + i)
			if err != nil || !HandRanking(min(v, 255)).Valid() {
				return errors.Wrapf(common.ErrInvalidSignal, "ranking of player %d: %s", i+1, s[3+i].String())
			}
			rankings[i] = HandRanking(v)
		}
		w, err := s.Uint64(5)
		if err != nil {
			return errors.Wrapf(common.ErrInvalidSignal, "winner %s", s[5].String())
		}
		winner, err := OutcomeFromSignal(w)
		if err != nil {
			return err
		}
		if err := m.verify(zk.CircuitShowdown, b); err != nil {
			return err
		}
		for i := range g.Seats {
			r := rankings[i]
			g.Seats[i].Ranking = &r
		}
		g.finish(winner, EndShowdown, m.now())
		return nil
	})
}

// ClaimPot withdraws a player's final stack once the game is complete. It is
// the only transition allowed on a completed game and touches nothing but the
// claiming seat's Stack and Claimed fields, so the settled hand stays as it
// was.
func (m *Manager) ClaimPot(g *GameState, caller string) (*GameState, int64, error) {
	var amount int64
	next, err := m.apply(g, func(g *GameState) error {
		if !g.Done() {
			return errors.Wrapf(common.ErrWrongPhase, "claim in %s", g.Phase)
		}
		seat, err := g.SeatOf(caller)
		if err != nil {
			return err
		}
		s := &g.Seats[seat]
		if s.Claimed {
			return errors.Wrapf(common.ErrAlreadyClaimed, "player %d", seat+1)
		}
		amount = s.Stack
		s.Stack = 0
		s.Claimed = true
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return next, amount, nil
}

// apply runs fn on a copy of g and returns the copy when fn succeeds.
func (m *Manager) apply(g *GameState, fn func(*GameState) error) (*GameState, error) {
	next := g.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Version++
	next.UpdatedAt = m.now()
	return next, nil
}

func (m *Manager) verify(id zk.CircuitID, b ProofBundle) error {
	if m.Proofs == nil {
		return errors.Wrapf(common.ErrUnknownCircuit, "no verifier for %s", id)
	}
	return m.Proofs.Check(id, b.Proof, b.Signals)
}

// expectPhase fails unless g is in one of want. A finished game reports
// ErrSessionEnded.
func expectPhase(g *GameState, want ...Phase) error {
	for _, p := range want {
		if g.Phase == p {
			return nil
		}
	}
	if g.Done() {
		return errors.Wrapf(common.ErrSessionEnded, "session %d", g.Session)
	}
	return errors.Wrapf(common.ErrWrongPhase, "game is in %s", g.Phase)
}

func checkShape(id zk.CircuitID, s zk.PublicSignals) error {
	if want := signalCount[id]; len(s) != want {
		return errors.Wrapf(common.ErrSignalShape, "%s carries %d signals, want %d", id, len(s), want)
	}
	return nil
}

// checkSession binds a proof to its game through signal 0.
func checkSession(g *GameState, s zk.PublicSignals) error {
	v, err := s.Uint64(0)
	if err != nil || v != uint64(g.Session) {
		return errors.Wrapf(common.ErrInvalidSignal, "proof for session %s, want %d", s[0].String(), g.Session)
	}
	return nil
}

func checkCommitment(stored commitment.Commitment, signal field.Element, what string) error {
	if stored.IsZero() {
		return errors.Wrapf(common.ErrMissingCommitment, "%s commitment", what)
	}
	if commitment.FromElement(signal) != stored {
		return errors.Wrapf(common.ErrCommitmentMismatch, "%s commitment %s", what, stored)
	}
	return nil
}
