package common

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind groups engine errors by the layer that rejected a request.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindState
	KindAuthorization
	KindCommitment
	KindBetting
	KindProof
	KindDeck
)

func (k Kind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindAuthorization:
		return "authorization"
	case KindCommitment:
		return "commitment"
	case KindBetting:
		return "betting"
	case KindProof:
		return "proof"
	case KindDeck:
		return "deck"
	default:
		return "unknown"
	}
}

// Error is a registered engine error. Sentinels are compared by identity, so
// callers wrap them with errors.Wrap and test with errors.Is or KindOf.
type Error struct {
	Kind Kind
	Code uint32
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Kind, e.Code, e.Msg)
}

func register(kind Kind, code uint32, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// State errors.
var (
	ErrSessionNotFound = register(KindState, 1, "session not found")
	ErrSessionExists   = register(KindState, 2, "session already exists")
	ErrSessionEnded    = register(KindState, 3, "session already complete")
	ErrWrongPhase      = register(KindState, 4, "operation not allowed in current phase")
	ErrRevealPending   = register(KindState, 5, "community cards for this street not revealed")
	ErrAlreadyClaimed  = register(KindState, 6, "pot already claimed")
	ErrKeyAlreadySet   = register(KindState, 7, "verification key already set")
)

// Authorization errors.
var (
	ErrNotParticipant = register(KindAuthorization, 20, "caller is not a participant")
	ErrNotYourTurn    = register(KindAuthorization, 21, "not the caller's turn")
	ErrSelfPlay       = register(KindAuthorization, 22, "a player cannot play against itself")
	ErrUnauthorized   = register(KindAuthorization, 23, "admin credentials required")
)

// Commitment errors.
var (
	ErrMissingCommitment  = register(KindCommitment, 40, "commitment missing")
	ErrAlreadyCommitted   = register(KindCommitment, 41, "commitment already submitted")
	ErrCommitmentMismatch = register(KindCommitment, 42, "commitment does not match stored value")
)

// Betting errors.
var (
	ErrInsufficientFunds = register(KindBetting, 60, "insufficient funds")
	ErrBetBelowMinimum   = register(KindBetting, 61, "bet below minimum")
	ErrRaiseTooSmall     = register(KindBetting, 62, "raise must at least double the previous bet")
	ErrIllegalAction     = register(KindBetting, 63, "action not legal in this betting state")
	ErrAllInRequired     = register(KindBetting, 64, "wagering the whole stack requires an all-in action")
	ErrAllInAmount       = register(KindBetting, 65, "all-in amount must equal the remaining stack")
	ErrInvalidBuyIn      = register(KindBetting, 66, "invalid buy-in")
	ErrAmountOverflow    = register(KindBetting, 67, "chip amount overflow")
)

// Proof errors.
var (
	ErrMalformedProof = register(KindProof, 80, "malformed proof")
	ErrSignalShape    = register(KindProof, 81, "public signal vector has wrong length")
	ErrInvalidSignal  = register(KindProof, 82, "public signal out of range or inconsistent")
	ErrProofRejected  = register(KindProof, 83, "proof rejected by verifier")
	ErrUnknownCircuit = register(KindProof, 84, "no verification key for circuit")
	ErrProofReplayed  = register(KindProof, 85, "proof already consumed")
)

// Deck errors.
var (
	ErrDuplicateCard  = register(KindDeck, 100, "duplicate card")
	ErrMissingCard    = register(KindDeck, 101, "missing card")
	ErrCardOutOfRange = register(KindDeck, 102, "card out of range")
	ErrDealPositions  = register(KindDeck, 103, "deal positions not sequential from the committed deck")
	ErrDeckSize       = register(KindDeck, 104, "deck must contain 52 cards")
)

// KindOf returns the kind of the registered error wrapped by err, or
// KindUnknown when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
