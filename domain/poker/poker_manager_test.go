package poker

import (
	"testing"
	"time"

	"github.com/luca-patrignani/zkpoker/commitment"
	"github.com/luca-patrignani/zkpoker/common"
	"github.com/luca-patrignani/zkpoker/field"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const (
	sb      = DefaultSmallBlind
	session = SessionID(7)
)

// fakeChecker stands in for the pairing check. A circuit listed in honest
// only accepts the exact signal vector recorded there, as a real proof only
// verifies for the signals it was produced for.
type fakeChecker struct {
	reject map[zk.CircuitID]bool
	honest map[zk.CircuitID]zk.PublicSignals
	calls  []zk.CircuitID
}

func (f *fakeChecker) Check(id zk.CircuitID, _ zk.Proof, signals zk.PublicSignals) error {
	f.calls = append(f.calls, id)
	if f.reject[id] {
		return errors.Wrapf(common.ErrProofRejected, "%s", id)
	}
	if want, ok := f.honest[id]; ok && !want.Equal(signals) {
		return errors.Wrapf(common.ErrProofRejected, "%s", id)
	}
	return nil
}

func (f *fakeChecker) called(id zk.CircuitID) bool {
	for _, c := range f.calls {
		if c == id {
			return true
		}
	}
	return false
}

func el(v uint64) field.Element { return field.ElementFromUint64(v) }

func fakeCommitment(v uint64) commitment.Commitment {
	return commitment.FromElement(el(v))
}

var (
	seeds     = [2]commitment.Commitment{fakeCommitment(11), fakeCommitment(12)}
	decks     = [2]commitment.Commitment{fakeCommitment(21), fakeCommitment(22)}
	holes     = [2]commitment.Commitment{fakeCommitment(31), fakeCommitment(32)}
	community = fakeCommitment(41)
	board     = [5]uint8{10, 20, 30, 40, 50}
)

type table struct {
	t      *testing.T
	m      *Manager
	proofs *fakeChecker
	g      *GameState
	clock  time.Time
	buyIn  int64
}

func newTable(t *testing.T, button uint8, buyIns [2]int64) *table {
	tb := &table{
		t:      t,
		proofs: &fakeChecker{reject: map[zk.CircuitID]bool{}, honest: map[zk.CircuitID]zk.PublicSignals{}},
		clock:  time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		buyIn:  buyIns[0] + buyIns[1],
	}
	tb.m = NewManager(DefaultRules(), tb.proofs)
	tb.m.Now = func() time.Time { return tb.clock }
	g, err := tb.m.Start(startRequest(button, buyIns))
	require.NoError(t, err)
	tb.g = g
	return tb
}

func startRequest(button uint8, buyIns [2]int64) StartRequest {
	return StartRequest{
		Session:         session,
		Players:         [2]string{"alice", "bob"},
		BuyIns:          buyIns,
		SeedCommitments: seeds,
		Dealer: ProofBundle{Signals: zk.PublicSignals{
			el(uint64(session)), seeds[0].Element(), seeds[1].Element(), el(uint64(button)),
		}},
	}
}

func (tb *table) step(g *GameState, err error) {
	tb.t.Helper()
	require.NoError(tb.t, err)
	require.Equal(tb.t, tb.buyIn, g.Chips(), "chips are conserved")
	tb.g = g
}

func (tb *table) blinds() {
	tb.step(tb.m.PostBlinds(tb.g, "alice"))
}

func shuffleBundle(seat int) ProofBundle {
	return ProofBundle{Signals: zk.PublicSignals{el(uint64(session)), el(uint64(seat + 1)), decks[seat].Element()}}
}

func dealBundle(start, count uint64) ProofBundle {
	return ProofBundle{Signals: zk.PublicSignals{
		el(uint64(session)), decks[0].Element(), decks[1].Element(),
		holes[0].Element(), holes[1].Element(), community.Element(),
		el(start), el(count),
	}}
}

// toPreflop runs the hand up to the first preflop action.
func (tb *table) toPreflop() {
	tb.blinds()
	tb.step(tb.m.CommitShuffle(tb.g, "alice", shuffleBundle(0)))
	tb.step(tb.m.CommitShuffle(tb.g, "bob", shuffleBundle(1)))
	tb.step(tb.m.Deal(tb.g, "bob", dealBundle(0, 9)))
}

func (tb *table) try(player string, a Action) (*GameState, error) {
	seat, err := tb.g.SeatOf(player)
	require.NoError(tb.t, err)
	var b *ProofBundle
	if a.Type.Wagers() {
		b = &ProofBundle{Signals: tb.m.Rules.betSignals(tb.g, seat, a)}
	}
	return tb.m.Act(tb.g, player, a, b)
}

func (tb *table) act(player string, a Action) {
	tb.t.Helper()
	tb.step(tb.try(player, a))
}

func revealBundle(street int) ProofBundle {
	s := zk.PublicSignals{el(uint64(session)), community.Element()}
	switch street {
	case 0:
		s = append(s, el(0), el(3), el(uint64(board[0])), el(uint64(board[1])), el(uint64(board[2])), el(9))
	case 1:
		s = append(s, el(3), el(1), el(uint64(board[3])), el(52), el(52), el(10))
	case 2:
		s = append(s, el(4), el(1), el(uint64(board[4])), el(52), el(52), el(11))
	}
	return ProofBundle{Signals: s}
}

func (tb *table) reveal() {
	tb.t.Helper()
	tb.step(tb.m.RevealCommunity(tb.g, "alice", revealBundle(tb.g.Phase.street())))
}

func showdownBundle(r1, r2 HandRanking, winner uint64) ProofBundle {
	return ProofBundle{Signals: zk.PublicSignals{
		holes[0].Element(), holes[1].Element(), community.Element(),
		el(uint64(r1)), el(uint64(r2)), el(winner),
	}}
}

// checkDown plays check/call to the showdown.
func (tb *table) checkDown() {
	tb.t.Helper()
	sbPlayer, bbPlayer := tb.g.Seats[tb.g.SmallBlindSeat()].Address, tb.g.Seats[tb.g.BigBlindSeat()].Address
	tb.act(sbPlayer, Call())
	tb.act(bbPlayer, Check())
	for tb.g.Phase != PhaseShowdown {
		tb.reveal()
		tb.act(bbPlayer, Check())
		tb.act(sbPlayer, Check())
	}
}

func TestStartValidation(t *testing.T) {
	m := NewManager(DefaultRules(), &fakeChecker{})

	req := startRequest(0, [2]int64{100 * sb, 100 * sb})
	req.Players[1] = "alice"
	_, err := m.Start(req)
	require.ErrorIs(t, err, common.ErrSelfPlay)

	req = startRequest(0, [2]int64{100 * sb, sb})
	_, err = m.Start(req)
	require.ErrorIs(t, err, common.ErrInvalidBuyIn)

	req = startRequest(0, [2]int64{100 * sb, 100 * sb})
	req.SeedCommitments[1] = commitment.Commitment{}
	_, err = m.Start(req)
	require.ErrorIs(t, err, common.ErrMissingCommitment)
}

func TestStartDealerSignals(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StartRequest)
		want   error
	}{
		{"short vector", func(r *StartRequest) { r.Dealer.Signals = r.Dealer.Signals[:3] }, common.ErrSignalShape},
		{"other session", func(r *StartRequest) { r.Dealer.Signals[0] = el(8) }, common.ErrInvalidSignal},
		{"seed swapped", func(r *StartRequest) { r.Dealer.Signals[1] = seeds[1].Element() }, common.ErrCommitmentMismatch},
		{"button out of range", func(r *StartRequest) { r.Dealer.Signals[3] = el(2) }, common.ErrInvalidSignal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proofs := &fakeChecker{}
			m := NewManager(DefaultRules(), proofs)
			req := startRequest(1, [2]int64{100 * sb, 100 * sb})
			tt.mutate(&req)
			g, err := m.Start(req)
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, g)
			require.Empty(t, proofs.calls, "signals are checked before the proof")
		})
	}
}

func TestStartRejectedProofCreatesNothing(t *testing.T) {
	proofs := &fakeChecker{reject: map[zk.CircuitID]bool{zk.CircuitDealer: true}}
	m := NewManager(DefaultRules(), proofs)
	g, err := m.Start(startRequest(0, [2]int64{100 * sb, 100 * sb}))
	require.ErrorIs(t, err, common.ErrProofRejected)
	require.Nil(t, g)
}

func TestStartSetsButtonAndStacks(t *testing.T) {
	tb := newTable(t, 1, [2]int64{100 * sb, 60 * sb})
	require.Equal(t, PhaseBlinds, tb.g.Phase)
	require.Equal(t, uint8(1), tb.g.DealerButton)
	require.Equal(t, 100*sb, tb.g.Seats[0].Stack)
	require.Equal(t, 60*sb, tb.g.Seats[1].Stack)
	require.Equal(t, NoActor, tb.g.CurrentActor)
}

// Small blind 0.1 and big blind 0.2: the pot holds 0.3, an undersized raise
// is rejected without touching the state and a bet of the whole stack is
// only accepted as an all-in.
func TestBlindsRaiseAllInScenario(t *testing.T) {
	tb := newTable(t, 0, [2]int64{10 * sb, 10 * sb})
	tb.blinds()
	require.Equal(t, 3*sb, tb.g.Pot)
	require.Equal(t, 9*sb, tb.g.Seats[0].Stack)
	require.Equal(t, 8*sb, tb.g.Seats[1].Stack)

	tb.step(tb.m.CommitShuffle(tb.g, "alice", shuffleBundle(0)))
	tb.step(tb.m.CommitShuffle(tb.g, "bob", shuffleBundle(1)))
	tb.step(tb.m.Deal(tb.g, "bob", dealBundle(0, 9)))

	before, err := Snapshot(tb.g)
	require.NoError(t, err)

	_, err = tb.try("alice", Raise(3*sb))
	require.ErrorIs(t, err, common.ErrRaiseTooSmall)
	require.Equal(t, common.KindBetting, common.KindOf(err))

	_, err = tb.try("alice", Raise(10*sb))
	require.ErrorIs(t, err, common.ErrAllInRequired)

	_, err = tb.try("alice", AllIn(8*sb))
	require.ErrorIs(t, err, common.ErrAllInAmount)

	after, err := Snapshot(tb.g)
	require.NoError(t, err)
	require.JSONEq(t, string(before), string(after))

	tb.act("alice", AllIn(9*sb))
	require.Equal(t, 0*sb, tb.g.Seats[0].Stack)
	require.Equal(t, 10*sb, tb.g.Seats[0].Bet)
	require.Equal(t, 1, tb.g.CurrentActor)

	_, err = tb.try("bob", Raise(20*sb))
	require.ErrorIs(t, err, common.ErrIllegalAction)

	tb.act("bob", AllIn(8*sb))
	require.True(t, tb.g.BettingClosed)
	require.Equal(t, PhaseFlop, tb.g.Phase)
	require.Equal(t, 20*sb, tb.g.Pot)
}

func TestBetOfWholeStackNeedsAllIn(t *testing.T) {
	tb := newTable(t, 0, [2]int64{10 * sb, 10 * sb})
	tb.toPreflop()
	tb.act("alice", Call())
	tb.act("bob", Check())
	tb.reveal()

	_, err := tb.try("bob", Bet(8*sb))
	require.ErrorIs(t, err, common.ErrAllInRequired)
	_, err = tb.try("bob", Bet(sb))
	require.ErrorIs(t, err, common.ErrBetBelowMinimum)

	tb.act("bob", AllIn(8*sb))
	require.Equal(t, 0, tb.g.CurrentActor)
}

func TestWagerNeedsMatchingBetProof(t *testing.T) {
	tb := newTable(t, 0, [2]int64{100 * sb, 100 * sb})
	tb.toPreflop()

	_, err := tb.m.Act(tb.g, "alice", Raise(4*sb), nil)
	require.ErrorIs(t, err, common.ErrMalformedProof)

	b := ProofBundle{Signals: tb.m.Rules.betSignals(tb.g, 0, Raise(6*sb))}
	_, err = tb.m.Act(tb.g, "alice", Raise(4*sb), &b)
	require.ErrorIs(t, err, common.ErrInvalidSignal)

	b = ProofBundle{Signals: tb.m.Rules.betSignals(tb.g, 0, Raise(4*sb))[:7]}
	_, err = tb.m.Act(tb.g, "alice", Raise(4*sb), &b)
	require.ErrorIs(t, err, common.ErrSignalShape)

	tb.proofs.reject[zk.CircuitBet] = true
	_, err = tb.try("alice", Raise(4*sb))
	require.ErrorIs(t, err, common.ErrProofRejected)

	delete(tb.proofs.reject, zk.CircuitBet)
	tb.act("alice", Raise(4*sb))
	require.Equal(t, 4*sb, tb.g.Seats[0].Bet)
	require.Equal(t, 2*sb, tb.g.LastRaise)
}

func TestTurnAndParticipantChecks(t *testing.T) {
	tb := newTable(t, 1, [2]int64{100 * sb, 100 * sb})
	tb.toPreflop()
	require.Equal(t, 1, tb.g.CurrentActor, "the button acts first preflop")

	_, err := tb.try("alice", Check())
	require.ErrorIs(t, err, common.ErrNotYourTurn)
	require.Equal(t, common.KindAuthorization, common.KindOf(err))

	_, err = tb.m.Act(tb.g, "mallory", Fold(), nil)
	require.ErrorIs(t, err, common.ErrNotParticipant)

	_, err = tb.try("bob", Check())
	require.ErrorIs(t, err, common.ErrIllegalAction)
}

func TestShuffleCommitments(t *testing.T) {
	tb := newTable(t, 0, [2]int64{100 * sb, 100 * sb})

	_, err := tb.m.CommitShuffle(tb.g, "alice", shuffleBundle(0))
	require.ErrorIs(t, err, common.ErrWrongPhase)

	tb.blinds()
	_, err = tb.m.CommitShuffle(tb.g, "alice", shuffleBundle(1))
	require.ErrorIs(t, err, common.ErrInvalidSignal)

	tb.step(tb.m.CommitShuffle(tb.g, "bob", shuffleBundle(1)))
	require.Equal(t, PhaseShuffle, tb.g.Phase)
	_, err = tb.m.CommitShuffle(tb.g, "bob", shuffleBundle(1))
	require.ErrorIs(t, err, common.ErrAlreadyCommitted)

	tb.step(tb.m.CommitShuffle(tb.g, "alice", shuffleBundle(0)))
	require.Equal(t, PhaseDeal, tb.g.Phase)
	require.Equal(t, []uint8{1, 0}, tb.g.ShuffleOrder)
}

func TestDealChecks(t *testing.T) {
	tb := newTable(t, 0, [2]int64{100 * sb, 100 * sb})
	tb.blinds()
	tb.step(tb.m.CommitShuffle(tb.g, "alice", shuffleBundle(0)))
	tb.step(tb.m.CommitShuffle(tb.g, "bob", shuffleBundle(1)))

	_, err := tb.m.Deal(tb.g, "alice", dealBundle(1, 9))
	require.ErrorIs(t, err, common.ErrDealPositions)
	_, err = tb.m.Deal(tb.g, "alice", dealBundle(0, 8))
	require.ErrorIs(t, err, common.ErrDealPositions)

	b := dealBundle(0, 9)
	b.Signals[1], b.Signals[2] = b.Signals[2], b.Signals[1]
	_, err = tb.m.Deal(tb.g, "alice", b)
	require.ErrorIs(t, err, common.ErrCommitmentMismatch)
	require.False(t, tb.proofs.called(zk.CircuitDeal))

	tb.step(tb.m.Deal(tb.g, "alice", dealBundle(0, 9)))
	require.Equal(t, PhasePreflop, tb.g.Phase)
	require.Equal(t, holes[0], tb.g.Seats[0].HoleCommitment)
	require.Equal(t, community, tb.g.CommunityCommitment)
	require.Equal(t, tb.clock.Add(DefaultTurnTimeout), tb.g.TurnDeadline)
}

func TestRevealChecks(t *testing.T) {
	tb := newTable(t, 0, [2]int64{100 * sb, 100 * sb})
	tb.toPreflop()
	tb.act("alice", Call())
	tb.act("bob", Check())
	require.Equal(t, PhaseFlop, tb.g.Phase)

	_, err := tb.try("bob", Check())
	require.ErrorIs(t, err, common.ErrRevealPending)

	mutate := func(i int, v uint64) ProofBundle {
		b := revealBundle(0)
		b.Signals = append(zk.PublicSignals(nil), b.Signals...)
		b.Signals[i] = el(v)
		return b
	}
	tests := []struct {
		name string
		b    ProofBundle
		want error
	}{
		{"turn window on the flop", revealBundle(1), common.ErrInvalidSignal},
		{"wrong burn", mutate(7, 4), common.ErrDealPositions},
		{"duplicate card", mutate(5, uint64(board[0])), common.ErrDuplicateCard},
		{"card out of range", mutate(6, 60), common.ErrCardOutOfRange},
		{"other community", mutate(1, 99), common.ErrCommitmentMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tb.m.RevealCommunity(tb.g, "bob", tt.b)
			require.ErrorIs(t, err, tt.want)
		})
	}

	tb.reveal()
	require.Len(t, tb.g.Community, 3)
	require.Equal(t, []uint8{9}, tb.g.BurnPositions)
	require.Equal(t, 1, tb.g.CurrentActor, "the big blind opens postflop")

	_, err = tb.m.RevealCommunity(tb.g, "bob", revealBundle(0))
	require.ErrorIs(t, err, common.ErrWrongPhase)

	tb.act("bob", Check())
	tb.act("alice", Check())
	require.Equal(t, PhaseTurn, tb.g.Phase)

	b := revealBundle(1)
	b.Signals[5] = el(3)
	_, err = tb.m.RevealCommunity(tb.g, "bob", b)
	require.ErrorIs(t, err, common.ErrInvalidSignal, "unused slots carry the sentinel")

	b = revealBundle(1)
	b.Signals[4] = el(uint64(board[1]))
	_, err = tb.m.RevealCommunity(tb.g, "bob", b)
	require.ErrorIs(t, err, common.ErrDuplicateCard, "a revealed card cannot come back")
}

func TestFullHandShowdown(t *testing.T) {
	tb := newTable(t, 0, [2]int64{100 * sb, 100 * sb})
	tb.toPreflop()
	tb.checkDown()
	require.Len(t, tb.g.Community, 5)
	require.Equal(t, []uint8{9, 10, 11}, tb.g.BurnPositions)
	require.Equal(t, NoActor, tb.g.CurrentActor)

	pot := tb.g.Pot
	require.Equal(t, 4*sb, pot)
	stack := tb.g.Seats[0].Stack

	tb.step(tb.m.RevealWinner(tb.g, "bob", showdownBundle(RoyalFlush, StraightFlush, 1)))
	require.Equal(t, PhaseComplete, tb.g.Phase)
	require.Equal(t, OutcomePlayer1, tb.g.Winner)
	require.Equal(t, EndShowdown, tb.g.EndReason)
	require.Equal(t, int64(0), tb.g.Pot)
	require.Equal(t, stack+pot, tb.g.Seats[0].Stack)
	require.Equal(t, pot, tb.g.SettledPot)
	require.Equal(t, RoyalFlush, *tb.g.Seats[0].Ranking)

	results := tb.g.Results()
	require.Len(t, results, 2)
	require.True(t, results[0].Won)
	require.False(t, results[1].Won)
	require.Equal(t, pot, results[1].Pot)
}

// The stored commitments are compared before the rankings are trusted and a
// tampered winner fails verification.
func TestTamperedShowdown(t *testing.T) {
	tb := newTable(t, 0, [2]int64{100 * sb, 100 * sb})
	tb.toPreflop()
	tb.checkDown()
	honest := showdownBundle(RoyalFlush, StraightFlush, 1)
	tb.proofs.honest[zk.CircuitShowdown] = honest.Signals

	b := showdownBundle(RoyalFlush, StraightFlush, 1)
	b.Signals[0] = fakeCommitment(99).Element()
	_, err := tb.m.RevealWinner(tb.g, "alice", b)
	require.ErrorIs(t, err, common.ErrCommitmentMismatch)
	require.False(t, tb.proofs.called(zk.CircuitShowdown))

	_, err = tb.m.RevealWinner(tb.g, "alice", showdownBundle(RoyalFlush, StraightFlush, 2))
	require.ErrorIs(t, err, common.ErrProofRejected)

	_, err = tb.m.RevealWinner(tb.g, "alice", showdownBundle(RoyalFlush, 10, 1))
	require.ErrorIs(t, err, common.ErrInvalidSignal)

	_, err = tb.m.RevealWinner(tb.g, "alice", showdownBundle(RoyalFlush, StraightFlush, 3))
	require.ErrorIs(t, err, common.ErrInvalidSignal)

	_, err = tb.m.RevealWinner(tb.g, "alice", ProofBundle{Signals: honest.Signals[:5]})
	require.ErrorIs(t, err, common.ErrSignalShape)

	require.Equal(t, PhaseShowdown, tb.g.Phase)
	tb.step(tb.m.RevealWinner(tb.g, "alice", honest))
	require.Equal(t, OutcomePlayer1, tb.g.Winner)
}

func TestFoldShortCircuit(t *testing.T) {
	for _, phase := range []Phase{PhasePreflop, PhaseFlop, PhaseTurn, PhaseRiver} {
		t.Run(string(phase), func(t *testing.T) {
			tb := newTable(t, 0, [2]int64{100 * sb, 100 * sb})
			tb.toPreflop()
			for tb.g.Phase != phase {
				if tb.g.revealPending() {
					tb.reveal()
					continue
				}
				if tb.g.Phase == PhasePreflop {
					tb.act("alice", Call())
					tb.act("bob", Check())
					continue
				}
				tb.act("bob", Check())
				tb.act("alice", Check())
			}
			if tb.g.revealPending() {
				tb.reveal()
			}
			pot := tb.g.Pot
			actor := tb.g.CurrentActor
			other := tb.g.Seats[1-actor].Stack
			tb.act(tb.g.Actor(), Fold())

			require.Equal(t, PhaseComplete, tb.g.Phase)
			require.Equal(t, EndFold, tb.g.EndReason)
			require.Equal(t, outcomeFor(1-actor), tb.g.Winner)
			require.True(t, tb.g.Seats[actor].Folded)
			require.Equal(t, other+pot, tb.g.Seats[1-actor].Stack)
			require.Zero(t, tb.g.Pot)
			require.False(t, tb.proofs.called(zk.CircuitShowdown))

			_, err := tb.try("bob", Check())
			require.ErrorIs(t, err, common.ErrSessionEnded)
		})
	}
}

func TestUncalledAllInIsReturned(t *testing.T) {
	tb := newTable(t, 0, [2]int64{10 * sb, 40 * sb})
	tb.toPreflop()
	tb.act("alice", Call())
	tb.act("bob", Check())
	tb.reveal()

	tb.act("bob", AllIn(38*sb))
	_, err := tb.try("alice", Call())
	require.ErrorIs(t, err, common.ErrInsufficientFunds)
	_, err = tb.try("alice", Raise(80*sb))
	require.ErrorIs(t, err, common.ErrIllegalAction)

	tb.act("alice", AllIn(8*sb))
	require.Equal(t, PhaseTurn, tb.g.Phase)
	require.True(t, tb.g.BettingClosed)
	require.Equal(t, 20*sb, tb.g.Pot)
	require.Equal(t, 30*sb, tb.g.Seats[1].Stack)
	require.Equal(t, 10*sb, tb.g.Seats[0].Contributed)
	require.Equal(t, 10*sb, tb.g.Seats[1].Contributed)

	// With nobody able to bet, each reveal closes its street.
	tb.reveal()
	require.Equal(t, PhaseRiver, tb.g.Phase)
	tb.reveal()
	require.Equal(t, PhaseShowdown, tb.g.Phase)

	tb.step(tb.m.RevealWinner(tb.g, "alice", showdownBundle(TwoPair, OnePair, 0)))
	require.Equal(t, OutcomeTie, tb.g.Winner)
	require.Equal(t, 10*sb, tb.g.Seats[0].Stack)
	require.Equal(t, 40*sb, tb.g.Seats[1].Stack)
}

func TestTimeoutFoldsActor(t *testing.T) {
	tb := newTable(t, 0, [2]int64{100 * sb, 100 * sb})
	tb.toPreflop()
	tb.act("alice", Call())
	require.Equal(t, 1, tb.g.CurrentActor)

	_, err := tb.m.Timeout(tb.g)
	require.ErrorIs(t, err, common.ErrWrongPhase)
	require.False(t, tb.m.Expired(tb.g))

	tb.clock = tb.clock.Add(DefaultTurnTimeout)
	require.True(t, tb.m.Expired(tb.g))
	tb.step(tb.m.Timeout(tb.g))
	require.Equal(t, PhaseComplete, tb.g.Phase)
	require.Equal(t, EndTimeout, tb.g.EndReason)
	require.Equal(t, OutcomePlayer1, tb.g.Winner)
	require.True(t, tb.g.Seats[1].Folded)
	require.False(t, tb.m.Expired(tb.g))
}

func TestClaimPot(t *testing.T) {
	tb := newTable(t, 0, [2]int64{100 * sb, 100 * sb})
	tb.toPreflop()

	_, _, err := tb.m.ClaimPot(tb.g, "alice")
	require.ErrorIs(t, err, common.ErrWrongPhase)

	tb.act("alice", Fold())
	g, amount, err := tb.m.ClaimPot(tb.g, "bob")
	require.NoError(t, err)
	require.Equal(t, 101*sb, amount)
	require.True(t, g.Seats[1].Claimed)

	_, _, err = tb.m.ClaimPot(g, "bob")
	require.ErrorIs(t, err, common.ErrAlreadyClaimed)

	_, amount, err = tb.m.ClaimPot(g, "alice")
	require.NoError(t, err)
	require.Equal(t, 99*sb, amount)
}

func TestClaimLeavesSettledHandUntouched(t *testing.T) {
	tb := newTable(t, 0, [2]int64{100 * sb, 100 * sb})
	tb.toPreflop()
	tb.act("alice", Fold())
	settled := tb.g.Clone()

	g, _, err := tb.m.ClaimPot(tb.g, "bob")
	require.NoError(t, err)

	want := settled.Clone()
	want.Seats[1].Stack = 0
	want.Seats[1].Claimed = true
	want.Version = settled.Version + 1
	want.UpdatedAt = g.UpdatedAt
	require.Equal(t, want, g)
	require.False(t, tb.g.Seats[1].Claimed, "the claimed state is a copy")
	require.Equal(t, settled.Seats[1].Stack, tb.g.Seats[1].Stack)

	_, err = tb.m.Timeout(g)
	require.Error(t, err)
	_, err = tb.m.PostBlinds(g, "alice")
	require.Error(t, err)
}

func TestTransitionsBumpVersion(t *testing.T) {
	tb := newTable(t, 0, [2]int64{100 * sb, 100 * sb})
	v := tb.g.Version
	tb.blinds()
	require.Equal(t, v+1, tb.g.Version)
	_, err := tb.m.PostBlinds(tb.g, "alice")
	require.ErrorIs(t, err, common.ErrWrongPhase)
	require.Equal(t, v+1, tb.g.Version)
}
