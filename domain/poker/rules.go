package poker

import (
	"time"

	"github.com/luca-patrignani/zkpoker/common"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pkg/errors"
)

const (
	// DefaultSmallBlind is 0.1 in seven-decimal base units.
	DefaultSmallBlind int64 = 1_000_000
	// DefaultTurnTimeout is how long a player may hold the turn.
	DefaultTurnTimeout = 5 * time.Minute
)

// Rules are the table parameters shared by every game of a Manager.
type Rules struct {
	SmallBlind  int64
	TurnTimeout time.Duration
}

// DefaultRules returns the standard table parameters.
func DefaultRules() Rules {
	return Rules{SmallBlind: DefaultSmallBlind, TurnTimeout: DefaultTurnTimeout}
}

// BigBlind is twice the small blind and the minimum opening bet.
func (r Rules) BigBlind() int64 {
	return 2 * r.SmallBlind
}

// checkAction validates a for the seat holding the turn and returns the
// number of chips it moves from the stack into the pot.
func (r Rules) checkAction(g *GameState, seat int, a Action) (int64, error) {
	own, opp := &g.Seats[seat], &g.Seats[1-seat]
	switch a.Type {
	case ActionFold:
		return 0, nil

	case ActionCheck:
		if own.Bet != opp.Bet {
			return 0, errors.Wrapf(common.ErrIllegalAction, "check facing %d", opp.Bet-own.Bet)
		}
		return 0, nil

	case ActionCall:
		toCall := opp.Bet - own.Bet
		if toCall <= 0 {
			return 0, errors.Wrap(common.ErrIllegalAction, "nothing to call")
		}
		if toCall > own.Stack {
			return 0, errors.Wrapf(common.ErrInsufficientFunds, "call %d with stack %d", toCall, own.Stack)
		}
		return toCall, nil

	case ActionBet:
		if own.Bet != 0 || opp.Bet != 0 {
			return 0, errors.Wrap(common.ErrIllegalAction, "bet with chips already in the round")
		}
		if a.Amount < r.BigBlind() {
			return 0, errors.Wrapf(common.ErrBetBelowMinimum, "bet %d below %d", a.Amount, r.BigBlind())
		}
		return sized(own, a.Amount)

	case ActionRaise:
		if opp.Bet == 0 {
			return 0, errors.Wrap(common.ErrIllegalAction, "raise with no bet to raise")
		}
		if opp.Stack == 0 {
			return 0, errors.Wrap(common.ErrIllegalAction, "raise against an all-in")
		}
		minRaise, err := mulChecked(opp.Bet, 2)
		if err != nil {
			return 0, err
		}
		if a.Amount < minRaise {
			return 0, errors.Wrapf(common.ErrRaiseTooSmall, "raise to %d, minimum %d", a.Amount, minRaise)
		}
		return sized(own, a.Amount)

	case ActionAllIn:
		if own.Stack == 0 {
			return 0, errors.Wrap(common.ErrIllegalAction, "empty stack")
		}
		if a.Amount != own.Stack {
			return 0, errors.Wrapf(common.ErrAllInAmount, "all-in %d with stack %d", a.Amount, own.Stack)
		}
		return own.Stack, nil
	}
	return 0, errors.Wrapf(common.ErrIllegalAction, "action %q", a.Type)
}

// sized returns the chips a bet or raise to total puts in. Exactly the whole
// stack must be declared as all-in.
func sized(own *Seat, total int64) (int64, error) {
	put := total - own.Bet
	switch {
	case put <= 0:
		return 0, errors.Wrapf(common.ErrIllegalAction, "bet to %d with %d already in", total, own.Bet)
	case put > own.Stack:
		return 0, errors.Wrapf(common.ErrInsufficientFunds, "put %d with stack %d", put, own.Stack)
	case put == own.Stack:
		return 0, errors.Wrapf(common.ErrAllInRequired, "put %d is the whole stack", put)
	}
	return put, nil
}

// betSignals is the public signal vector a bet proof for a must carry.
func (r Rules) betSignals(g *GameState, seat int, a Action) zk.PublicSignals {
	own, opp := g.Seats[seat], g.Seats[1-seat]
	return zk.SignalsFromUint64(
		uint64(g.Session),
		uint64(seat+1),
		a.Type.Code(),
		uint64(a.Amount),
		uint64(own.Stack),
		uint64(own.Bet),
		uint64(opp.Bet),
		uint64(r.BigBlind()),
	)
}
