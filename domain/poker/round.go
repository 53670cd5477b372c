package poker

import (
	"math"

	"github.com/luca-patrignani/zkpoker/common"
	"github.com/pkg/errors"
)

type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhaseBlinds   Phase = "blinds"
	PhaseShuffle  Phase = "shuffle"
	PhaseDeal     Phase = "deal"
	PhasePreflop  Phase = "preflop"
	PhaseFlop     Phase = "flop"
	PhaseTurn     Phase = "turn"
	PhaseRiver    Phase = "river"
	PhaseShowdown Phase = "showdown"
	PhaseComplete Phase = "complete"
)

var phases = []Phase{
	PhaseSetup, PhaseBlinds, PhaseShuffle, PhaseDeal, PhasePreflop,
	PhaseFlop, PhaseTurn, PhaseRiver, PhaseShowdown, PhaseComplete,
}

// next returns the phase that follows p. Complete is terminal.
func (p Phase) next() Phase {
	for i, q := range phases {
		if q == p && i < len(phases)-1 {
			return phases[i+1]
		}
	}
	return PhaseComplete
}

// IsBetting reports whether players act during p.
func (p Phase) IsBetting() bool {
	switch p {
	case PhasePreflop, PhaseFlop, PhaseTurn, PhaseRiver:
		return true
	}
	return false
}

// street returns the community reveal index of p (0 flop, 1 turn, 2 river)
// or -1 when p reveals nothing.
func (p Phase) street() int {
	switch p {
	case PhaseFlop:
		return 0
	case PhaseTurn:
		return 1
	case PhaseRiver:
		return 2
	}
	return -1
}

// boardSize is the number of community cards visible once p's reveal is
// done.
func (p Phase) boardSize() int {
	switch p {
	case PhaseFlop:
		return 3
	case PhaseTurn:
		return 4
	case PhaseRiver, PhaseShowdown, PhaseComplete:
		return 5
	}
	return 0
}

// revealPending reports whether the street of the current phase still waits
// for its community cards.
func (g *GameState) revealPending() bool {
	return g.Phase.street() >= 0 && len(g.Community) < g.Phase.boardSize()
}

// roundComplete reports whether both players have acted and either matched
// bets or the lower bettor has nothing left to call with. A seat with an
// empty stack cannot act and counts as having acted.
func (g *GameState) roundComplete() bool {
	for i := range g.Seats {
		if !g.Seats[i].Acted && g.Seats[i].Stack > 0 {
			return false
		}
	}
	a, b := &g.Seats[0], &g.Seats[1]
	if a.Bet == b.Bet {
		return true
	}
	low := a
	if b.Bet < a.Bet {
		low = b
	}
	return low.Stack == 0
}

// returnUncalledExcess refunds the part of the higher bet the other seat
// could not match.
func (g *GameState) returnUncalledExcess() {
	a, b := &g.Seats[0], &g.Seats[1]
	high, low := a, b
	if b.Bet > a.Bet {
		high, low = b, a
	}
	excess := high.Bet - low.Bet
	if excess <= 0 {
		return
	}
	high.Bet -= excess
	high.Contributed -= excess
	high.Stack += excess
	g.Pot -= excess
}

// closeRound ends the current betting round and advances the phase.
func (g *GameState) closeRound() {
	g.returnUncalledExcess()
	for i := range g.Seats {
		g.Seats[i].Bet = 0
		g.Seats[i].Acted = false
	}
	g.LastRaise = 0
	if g.Seats[0].Stack == 0 || g.Seats[1].Stack == 0 {
		g.BettingClosed = true
	}
	g.Phase = g.Phase.next()
	g.clearTurn()
}

// openStreet hands the turn to the first actor of a postflop street, or
// closes the street at once when nobody can bet any more.
func (g *GameState) openStreet(m *Manager) {
	if g.BettingClosed {
		g.closeRound()
		return
	}
	g.setTurn(g.BigBlindSeat(), m.deadline())
}

// commit moves put chips from a seat's stack into its bet and the pot.
func (g *GameState) commit(seat int, put int64) error {
	s := &g.Seats[seat]
	if put < 0 || put > s.Stack {
		return errors.Wrapf(common.ErrInsufficientFunds, "seat %d puts %d with stack %d", seat, put, s.Stack)
	}
	pot, err := addChecked(g.Pot, put)
	if err != nil {
		return err
	}
	bet, err := addChecked(s.Bet, put)
	if err != nil {
		return err
	}
	contributed, err := addChecked(s.Contributed, put)
	if err != nil {
		return err
	}
	s.Stack -= put
	s.Bet, s.Contributed, g.Pot = bet, contributed, pot
	return nil
}

func addChecked(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, errors.Wrapf(common.ErrAmountOverflow, "%d + %d", a, b)
	}
	return a + b, nil
}

func mulChecked(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	r := a * b
	if r/b != a {
		return 0, errors.Wrapf(common.ErrAmountOverflow, "%d * %d", a, b)
	}
	return r, nil
}
