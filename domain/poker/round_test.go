package poker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNextPhase verifies phase progression
func TestNextPhase(t *testing.T) {
	tests := []struct {
		current  Phase
		expected Phase
	}{
		{PhaseSetup, PhaseBlinds},
		{PhaseBlinds, PhaseShuffle},
		{PhaseShuffle, PhaseDeal},
		{PhaseDeal, PhasePreflop},
		{PhasePreflop, PhaseFlop},
		{PhaseFlop, PhaseTurn},
		{PhaseTurn, PhaseRiver},
		{PhaseRiver, PhaseShowdown},
		{PhaseShowdown, PhaseComplete},
		{PhaseComplete, PhaseComplete},
	}
	for _, tt := range tests {
		t.Run(string(tt.current), func(t *testing.T) {
			if got := tt.current.next(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func betting(bets, stacks [2]int64, acted [2]bool) *GameState {
	g := &GameState{Phase: PhaseFlop, CurrentActor: NoActor}
	for i := range g.Seats {
		g.Seats[i] = Seat{Bet: bets[i], Contributed: bets[i], Stack: stacks[i], Acted: acted[i]}
		g.Pot += bets[i]
	}
	return g
}

// A round completes iff both players acted and the bets match, or the lower
// bettor has nothing left.
func TestRoundComplete(t *testing.T) {
	tests := []struct {
		name   string
		bets   [2]int64
		stacks [2]int64
		acted  [2]bool
		want   bool
	}{
		{"nobody acted", [2]int64{0, 0}, [2]int64{10, 10}, [2]bool{false, false}, false},
		{"one check", [2]int64{0, 0}, [2]int64{10, 10}, [2]bool{true, false}, false},
		{"two checks", [2]int64{0, 0}, [2]int64{10, 10}, [2]bool{true, true}, true},
		{"bet called", [2]int64{5, 5}, [2]int64{5, 5}, [2]bool{true, true}, true},
		{"bet pending", [2]int64{5, 0}, [2]int64{5, 10}, [2]bool{true, false}, false},
		{"unequal with chips behind", [2]int64{8, 5}, [2]int64{2, 5}, [2]bool{true, true}, false},
		{"short all-in", [2]int64{8, 3}, [2]int64{2, 0}, [2]bool{true, true}, true},
		{"all-in seat counts as acted", [2]int64{4, 4}, [2]int64{0, 6}, [2]bool{false, true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := betting(tt.bets, tt.stacks, tt.acted)
			require.Equal(t, tt.want, g.roundComplete())
		})
	}
}

func TestCloseRoundReturnsExcess(t *testing.T) {
	g := betting([2]int64{8, 3}, [2]int64{2, 0}, [2]bool{true, true})
	g.LastRaise = 5
	g.closeRound()

	require.Equal(t, PhaseTurn, g.Phase)
	require.Equal(t, int64(6), g.Pot)
	require.Equal(t, int64(7), g.Seats[0].Stack)
	require.Equal(t, int64(3), g.Seats[0].Contributed)
	require.Zero(t, g.Seats[0].Bet)
	require.False(t, g.Seats[0].Acted)
	require.Zero(t, g.LastRaise)
	require.True(t, g.BettingClosed)
}

func TestCommitOverflow(t *testing.T) {
	g := betting([2]int64{0, 0}, [2]int64{10, 10}, [2]bool{})
	g.Pot = 1<<63 - 1
	require.Error(t, g.commit(0, 5))
	require.Equal(t, int64(10), g.Seats[0].Stack)

	g.Pot = 0
	require.Error(t, g.commit(0, 11))
	require.NoError(t, g.commit(0, 10))
	require.Equal(t, int64(10), g.Pot)
	require.Zero(t, g.Seats[0].Stack)
}

func TestBoardSize(t *testing.T) {
	require.Equal(t, 0, PhasePreflop.boardSize())
	require.Equal(t, 3, PhaseFlop.boardSize())
	require.Equal(t, 4, PhaseTurn.boardSize())
	require.Equal(t, 5, PhaseRiver.boardSize())
	require.Equal(t, -1, PhaseShowdown.street())
	require.False(t, PhaseShowdown.IsBetting())
}
