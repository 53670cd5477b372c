package poker

import (
	"time"

	"github.com/luca-patrignani/zkpoker/commitment"
	"github.com/luca-patrignani/zkpoker/common"
	"github.com/luca-patrignani/zkpoker/stats"
	"github.com/pkg/errors"
)

// NoActor is the CurrentActor value when nobody holds the turn.
const NoActor = -1

// Seat is one of the two players of a game.
type Seat struct {
	Address     string `json:"address"`
	BuyIn       int64  `json:"buy_in"`
	Stack       int64  `json:"stack"`
	Bet         int64  `json:"bet"`         // The amount bet in the current betting round
	Contributed int64  `json:"contributed"` // The amount put in the pot during the hand
	Acted       bool   `json:"acted"`
	Folded      bool   `json:"folded"`
	Claimed     bool   `json:"claimed"`

	SeedCommitment commitment.Commitment `json:"seed_commitment"`
	DeckCommitment commitment.Commitment `json:"deck_commitment"`
	HoleCommitment commitment.Commitment `json:"hole_commitment"`
	Ranking        *HandRanking          `json:"ranking,omitempty"`
}

// GameState is the complete state of a heads-up hand. Seat 0 is player 1.
type GameState struct {
	Session SessionID `json:"session"`
	Seats   [2]Seat   `json:"seats"`
	Pot     int64     `json:"pot"`
	Phase   Phase     `json:"phase"`

	DealerButton uint8  `json:"dealer_button"` // Seat holding the button, which posts the small blind
	CurrentActor int    `json:"current_actor"`
	LastAction   Action `json:"last_action"`
	LastRaise    int64  `json:"last_raise"`

	ShuffleOrder        []uint8               `json:"shuffle_order,omitempty"`
	CommunityCommitment commitment.Commitment `json:"community_commitment"`
	Community           []Card                `json:"community,omitempty"`
	BurnPositions       []uint8               `json:"burn_positions,omitempty"`
	BettingClosed       bool                  `json:"betting_closed"`

	Winner     Outcome   `json:"winner"`
	EndReason  EndReason `json:"end_reason,omitempty"`
	SettledPot int64     `json:"settled_pot"`

	TurnDeadline time.Time `json:"turn_deadline"`
	Version      uint64    `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Clone returns a deep copy of g. Transitions run on a clone so a failed
// request leaves the stored state untouched.
func (g *GameState) Clone() *GameState {
	c := *g
	c.ShuffleOrder = append([]uint8(nil), g.ShuffleOrder...)
	c.Community = append([]Card(nil), g.Community...)
	c.BurnPositions = append([]uint8(nil), g.BurnPositions...)
	for i := range g.Seats {
		if r := g.Seats[i].Ranking; r != nil {
			v := *r
			c.Seats[i].Ranking = &v
		}
	}
	return &c
}

// SeatOf returns the seat index of address.
func (g *GameState) SeatOf(address string) (int, error) {
	for i := range g.Seats {
		if g.Seats[i].Address == address {
			return i, nil
		}
	}
	return -1, errors.Wrapf(common.ErrNotParticipant, "address %s", address)
}

// Actor returns the address holding the turn, or "" when nobody does.
func (g *GameState) Actor() string {
	if g.CurrentActor == NoActor {
		return ""
	}
	return g.Seats[g.CurrentActor].Address
}

// SmallBlindSeat is the button; the other seat posts the big blind.
func (g *GameState) SmallBlindSeat() int { return int(g.DealerButton) }

func (g *GameState) BigBlindSeat() int { return 1 - int(g.DealerButton) }

// Done reports whether the game reached Complete.
func (g *GameState) Done() bool { return g.Phase == PhaseComplete }

// Chips returns the sum of both stacks and the pot. It never changes once
// the blinds are posted.
func (g *GameState) Chips() int64 {
	return g.Seats[0].Stack + g.Seats[1].Stack + g.Pot
}

func (g *GameState) setTurn(seat int, deadline time.Time) {
	g.CurrentActor = seat
	g.TurnDeadline = deadline
}

func (g *GameState) clearTurn() {
	g.CurrentActor = NoActor
	g.TurnDeadline = time.Time{}
}

// finish moves the game to Complete and settles the pot.
func (g *GameState) finish(winner Outcome, reason EndReason, now time.Time) {
	g.Winner = winner
	g.EndReason = reason
	g.Phase = PhaseComplete
	g.clearTurn()
	g.CompletedAt = now
	g.settle()
}

// settle pays the pot out. A tie splits it, the odd chip going to the big
// blind seat.
func (g *GameState) settle() {
	for i := range g.Seats {
		g.Seats[i].Bet = 0
	}
	g.SettledPot = g.Pot
	switch g.Winner {
	case OutcomePlayer1:
		g.Seats[0].Stack += g.Pot
	case OutcomePlayer2:
		g.Seats[1].Stack += g.Pot
	case OutcomeTie:
		half := g.Pot / 2
		g.Seats[0].Stack += half
		g.Seats[1].Stack += half
		g.Seats[g.BigBlindSeat()].Stack += g.Pot % 2
	}
	g.Pot = 0
}

// Results returns the per-player statistics update of a completed game.
func (g *GameState) Results() []stats.Result {
	if !g.Done() {
		return nil
	}
	return []stats.Result{
		{Player: g.Seats[0].Address, Won: g.Winner == OutcomePlayer1, Pot: g.SettledPot},
		{Player: g.Seats[1].Address, Won: g.Winner == OutcomePlayer2, Pot: g.SettledPot},
	}
}
