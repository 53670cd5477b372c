package poker

import (
	"github.com/luca-patrignani/zkpoker/common"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pkg/errors"
)

// SessionID identifies a game.
type SessionID uint32

type ActionType string

const (
	ActionNone  ActionType = "none"
	ActionFold  ActionType = "fold"
	ActionCheck ActionType = "check"
	ActionCall  ActionType = "call"
	ActionBet   ActionType = "bet"
	ActionRaise ActionType = "raise"
	ActionAllIn ActionType = "allin"
)

var actionCodes = []ActionType{ActionNone, ActionFold, ActionCheck, ActionCall, ActionBet, ActionRaise, ActionAllIn}

// Code is the numeric form of the action carried by bet proofs.
func (a ActionType) Code() uint64 {
	for i, t := range actionCodes {
		if t == a {
			return uint64(i)
		}
	}
	return 0
}

// ActionTypeFromCode is the inverse of Code.
func ActionTypeFromCode(code uint64) (ActionType, error) {
	if code >= uint64(len(actionCodes)) {
		return ActionNone, errors.Wrapf(common.ErrInvalidSignal, "action code %d", code)
	}
	return actionCodes[code], nil
}

// Wagers reports whether the action puts a chosen amount of chips in and
// therefore needs a bet proof.
func (a ActionType) Wagers() bool {
	return a == ActionBet || a == ActionRaise || a == ActionAllIn
}

// Action is a player's move. For Bet and Raise, Amount is the player's total
// bet for the round after the action; for AllIn it is the remaining stack.
type Action struct {
	Type   ActionType `json:"type"`
	Amount int64      `json:"amount,omitempty"`
}

func Fold() Action { return Action{Type: ActionFold} }
func Check() Action { return Action{Type: ActionCheck} }
func Call() Action { return Action{Type: ActionCall} }
func Bet(amount int64) Action { return Action{Type: ActionBet, Amount: amount} }
func Raise(amount int64) Action { return Action{Type: ActionRaise, Amount: amount} }
func AllIn(amount int64) Action { return Action{Type: ActionAllIn, Amount: amount} }

// ProofBundle is a proof with the public signals it was produced for.
type ProofBundle struct {
	Proof   zk.Proof
	Signals zk.PublicSignals
}

// ProofChecker verifies a proof against the key of its circuit.
type ProofChecker interface {
	Check(id zk.CircuitID, proof zk.Proof, signals zk.PublicSignals) error
}

// Outcome is the result of a hand. The numeric values of the decided
// outcomes differ from the showdown signal encoding; use OutcomeFromSignal.
type Outcome uint8

const (
	OutcomePending Outcome = iota
	OutcomePlayer1
	OutcomePlayer2
	OutcomeTie
)

// OutcomeFromSignal decodes the showdown winner signal: 0 tie, 1 or 2 for a
// seat.
func OutcomeFromSignal(v uint64) (Outcome, error) {
	switch v {
	case 0:
		return OutcomeTie, nil
	case 1:
		return OutcomePlayer1, nil
	case 2:
		return OutcomePlayer2, nil
	}
	return OutcomePending, errors.Wrapf(common.ErrInvalidSignal, "winner %d", v)
}

func outcomeFor(seat int) Outcome {
	if seat == 0 {
		return OutcomePlayer1
	}
	return OutcomePlayer2
}

func (o Outcome) String() string {
	switch o {
	case OutcomePlayer1:
		return "player1"
	case OutcomePlayer2:
		return "player2"
	case OutcomeTie:
		return "tie"
	}
	return "pending"
}

// EndReason records how a game reached Complete.
type EndReason string

const (
	EndFold     EndReason = "fold"
	EndTimeout  EndReason = "timeout"
	EndShowdown EndReason = "showdown"
)
