package application

import (
	"context"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"github.com/luca-patrignani/zkpoker/circuit"
	"github.com/luca-patrignani/zkpoker/common"
	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/luca-patrignani/zkpoker/store"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/stretchr/testify/require"
)

const sb = poker.DefaultSmallBlind

var (
	suiteOnce sync.Once
	suite     circuit.Suite
	suiteErr  error
)

// keys runs the Groth16 setup of every circuit once per test binary.
func keys(t *testing.T) circuit.Suite {
	t.Helper()
	suiteOnce.Do(func() { suite, suiteErr = circuit.SetupAll() })
	require.NoError(t, suiteErr)
	return suite
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	t       *testing.T
	ctx     context.Context
	e       *Engine
	st      store.Store
	clock   *clock
	hand    *circuit.Hand
	players [2]string
	g       *poker.GameState
	// commits counts successful transitions.
	commits int
}

func newHarness(t *testing.T, session uint32) *harness {
	t.Helper()
	s := keys(t)
	st, err := store.OpenBadger(store.BadgerOptions{})
	require.NoError(t, err)
	reg := zk.NewRegistry()
	require.NoError(t, s.Install(reg))
	clk := &clock{t: time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)}
	e, err := New(context.Background(), Options{
		Rules:    poker.DefaultRules(),
		Store:    st,
		Registry: reg,
		Now:      clk.Now,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, e.Close())
		require.NoError(t, st.Close())
	})
	hand, err := circuit.NewHand(s, session, [2]uint64{10, 13})
	require.NoError(t, err)
	return &harness{
		t:       t,
		ctx:     context.Background(),
		e:       e,
		st:      st,
		clock:   clk,
		hand:    hand,
		players: [2]string{"alice", "bob"},
	}
}

func (h *harness) ok(g *poker.GameState, err error) *poker.GameState {
	h.t.Helper()
	require.NoError(h.t, err)
	if !g.Seats[0].Claimed && !g.Seats[1].Claimed {
		require.Equal(h.t, 200*sb, g.Chips(), "chips are conserved")
	}
	h.g = g
	h.commits++
	return g
}

func (h *harness) session() poker.SessionID { return h.g.Session }

func (h *harness) start() poker.StartRequest {
	h.t.Helper()
	req, err := h.hand.Start(h.players, [2]int64{100 * sb, 100 * sb})
	require.NoError(h.t, err)
	h.ok(h.e.Start(h.ctx, req))
	return req
}

// toPreflop runs every transition up to the first betting decision.
func (h *harness) toPreflop() {
	h.t.Helper()
	h.start()
	h.ok(h.e.PostBlinds(h.ctx, h.session(), h.players[0]))
	for seat := 0; seat < 2; seat++ {
		b, err := h.hand.ShuffleProof(seat)
		require.NoError(h.t, err)
		h.ok(h.e.CommitShuffle(h.ctx, h.session(), h.players[seat], b))
	}
	b, err := h.hand.DealProof()
	require.NoError(h.t, err)
	h.ok(h.e.Deal(h.ctx, h.session(), h.players[0], b))
	require.Equal(h.t, poker.PhasePreflop, h.g.Phase)
}

func (h *harness) bundle(a poker.Action) *poker.ProofBundle {
	h.t.Helper()
	if !a.Type.Wagers() {
		return nil
	}
	b, err := h.hand.BetProof(h.g, h.e.Rules(), h.g.CurrentActor, a)
	require.NoError(h.t, err)
	return &b
}

func (h *harness) act(a poker.Action) {
	h.t.Helper()
	h.ok(h.e.Act(h.ctx, h.session(), h.g.Actor(), a, h.bundle(a)))
}

func (h *harness) reveal(street int) {
	h.t.Helper()
	b, err := h.hand.RevealProof(street)
	require.NoError(h.t, err)
	h.ok(h.e.RevealCommunity(h.ctx, h.session(), h.players[1], b))
}

type recorder struct {
	mu        sync.Mutex
	started   []GameStarted
	completed []GameCompleted
	timeouts  []TurnTimedOut
}

func record(t *testing.T, e *Engine) *recorder {
	r := &recorder{}
	require.NoError(t, e.Bus().Subscribe(TopicGameStarted, func(ev GameStarted) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.started = append(r.started, ev)
	}))
	require.NoError(t, e.Bus().Subscribe(TopicGameCompleted, func(ev GameCompleted) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.completed = append(r.completed, ev)
	}))
	require.NoError(t, e.Bus().Subscribe(TopicTurnTimeout, func(ev TurnTimedOut) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.timeouts = append(r.timeouts, ev)
	}))
	return r
}

func TestEngineFullHand(t *testing.T) {
	h := newHarness(t, 11)
	events := record(t, h.e)
	h.toPreflop()

	h.act(poker.Raise(4 * sb))
	h.act(poker.Call())
	require.Equal(t, 8*sb, h.g.Pot)
	for street := 0; street < 3; street++ {
		h.reveal(street)
		h.act(poker.Check())
		h.act(poker.Check())
	}
	require.Equal(t, poker.PhaseShowdown, h.g.Phase)
	require.Len(t, h.g.Community, 5)

	b, err := h.hand.ShowdownProof()
	require.NoError(t, err)
	h.ok(h.e.RevealWinner(h.ctx, h.session(), h.players[0], b))
	require.True(t, h.g.Done())
	require.Equal(t, poker.EndShowdown, h.g.EndReason)
	require.Equal(t, 8*sb, h.g.SettledPot)

	values, err := h.hand.Values()
	require.NoError(t, err)
	alice, err := h.e.Stats(h.ctx, "alice")
	require.NoError(t, err)
	bob, err := h.e.Stats(h.ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, uint64(1), alice.GamesPlayed)
	require.Equal(t, uint64(1), bob.GamesPlayed)
	switch poker.Compare(values[0], values[1]) {
	case 1:
		require.Equal(t, poker.OutcomePlayer1, h.g.Winner)
		require.Equal(t, 104*sb, h.g.Seats[0].Stack)
		require.Equal(t, uint64(1), alice.GamesWon)
		require.Equal(t, 8*sb, alice.TotalWinnings)
	case -1:
		require.Equal(t, poker.OutcomePlayer2, h.g.Winner)
		require.Equal(t, 104*sb, h.g.Seats[1].Stack)
		require.Equal(t, uint64(1), bob.GamesWon)
	default:
		require.Equal(t, poker.OutcomeTie, h.g.Winner)
		require.Equal(t, 100*sb, h.g.Seats[0].Stack)
		require.Zero(t, alice.GamesWon+bob.GamesWon)
	}

	stacks := [2]int64{h.g.Seats[0].Stack, h.g.Seats[1].Stack}
	for seat, p := range h.players {
		g, amount, err := h.e.ClaimPot(h.ctx, h.session(), p)
		require.NoError(t, err)
		require.Equal(t, stacks[seat], amount)
		h.g = g
		h.commits++
	}
	_, _, err = h.e.ClaimPot(h.ctx, h.session(), "alice")
	require.ErrorIs(t, err, common.ErrAlreadyClaimed)

	stored, err := h.e.Game(h.ctx, h.session())
	require.NoError(t, err)
	require.Equal(t, h.g.Version, stored.Version)

	journal, err := h.e.Journal(h.ctx, h.session())
	require.NoError(t, err)
	require.NoError(t, journal.Verify(h.e.PublicKey()))
	require.Equal(t, h.commits+1, journal.Len())
	last := journal.Latest()
	require.Equal(t, "claim_pot", last.Entry.Transition)
	digest, err := poker.Digest(stored)
	require.NoError(t, err)
	require.Equal(t, hex.EncodeToString(digest[:]), last.Entry.State)

	events.mu.Lock()
	defer events.mu.Unlock()
	require.Equal(t, []GameStarted{{Session: 11, Players: h.players, Button: h.hand.Button()}}, events.started)
	require.Len(t, events.completed, 1)
	require.Equal(t, h.g.Winner, events.completed[0].Winner)
	require.Equal(t, 8*sb, events.completed[0].Pot)
}

func TestEngineStartChecks(t *testing.T) {
	h := newHarness(t, 12)
	req := h.start()

	_, err := h.e.Start(h.ctx, req)
	require.ErrorIs(t, err, common.ErrSessionExists)

	// The same dealer proof cannot open another session either.
	req.Session = 99
	_, err = h.e.Start(h.ctx, req)
	require.ErrorIs(t, err, common.ErrProofReplayed)
	_, err = h.e.Game(h.ctx, 99)
	require.ErrorIs(t, err, common.ErrSessionNotFound)

	_, err = h.e.PostBlinds(h.ctx, 404, "alice")
	require.ErrorIs(t, err, common.ErrSessionNotFound)
	_, err = h.e.Journal(h.ctx, 404)
	require.ErrorIs(t, err, common.ErrSessionNotFound)
}

func TestEngineReplayedShuffle(t *testing.T) {
	h := newHarness(t, 13)
	h.start()
	h.ok(h.e.PostBlinds(h.ctx, h.session(), "bob"))

	// A proof rejected for another reason is not consumed.
	other, err := h.hand.ShuffleProof(1)
	require.NoError(t, err)
	_, err = h.e.CommitShuffle(h.ctx, h.session(), "alice", other)
	require.ErrorIs(t, err, common.ErrInvalidSignal)

	b, err := h.hand.ShuffleProof(0)
	require.NoError(t, err)
	h.ok(h.e.CommitShuffle(h.ctx, h.session(), "alice", b))
	_, err = h.e.CommitShuffle(h.ctx, h.session(), "alice", b)
	require.ErrorIs(t, err, common.ErrProofReplayed)

	h.ok(h.e.CommitShuffle(h.ctx, h.session(), "bob", other))
	require.Equal(t, poker.PhaseDeal, h.g.Phase)
}

func TestEngineRejectedTransitionChangesNothing(t *testing.T) {
	h := newHarness(t, 14)
	h.toPreflop()
	before, err := h.e.Game(h.ctx, h.session())
	require.NoError(t, err)
	journal, err := h.e.Journal(h.ctx, h.session())
	require.NoError(t, err)

	// A proof of a smaller raise does not back a bigger one.
	proof := h.bundle(poker.Raise(4 * sb))
	_, err = h.e.Act(h.ctx, h.session(), h.g.Actor(), poker.Raise(6*sb), proof)
	require.ErrorIs(t, err, common.ErrInvalidSignal)
	_, err = h.e.Act(h.ctx, h.session(), h.g.Actor(), poker.Raise(6*sb), nil)
	require.ErrorIs(t, err, common.ErrMalformedProof)
	other := h.players[1-h.g.CurrentActor]
	_, err = h.e.Act(h.ctx, h.session(), other, poker.Call(), nil)
	require.ErrorIs(t, err, common.ErrNotYourTurn)

	after, err := h.e.Game(h.ctx, h.session())
	require.NoError(t, err)
	require.Equal(t, before, after)
	again, err := h.e.Journal(h.ctx, h.session())
	require.NoError(t, err)
	require.Equal(t, journal.Len(), again.Len())

	// The untouched proof still drives the raise it was made for.
	h.ok(h.e.Act(h.ctx, h.session(), h.g.Actor(), poker.Raise(4*sb), proof))
}

func TestEngineIgnoresProofOnCall(t *testing.T) {
	h := newHarness(t, 19)
	h.toPreflop()

	raise := h.bundle(poker.Raise(4 * sb))
	h.ok(h.e.Act(h.ctx, h.session(), h.g.Actor(), poker.Raise(4*sb), raise))
	_, err := h.e.Act(h.ctx, h.session(), h.g.Actor(), poker.Raise(8*sb), raise)
	require.ErrorIs(t, err, common.ErrProofReplayed)

	// The spent proof rides along with a call without being checked again.
	h.ok(h.e.Act(h.ctx, h.session(), h.g.Actor(), poker.Call(), raise))
	require.Equal(t, poker.PhaseFlop, h.g.Phase)
}

func TestEngineFoldSettles(t *testing.T) {
	h := newHarness(t, 15)
	events := record(t, h.e)
	h.toPreflop()
	folder := h.g.CurrentActor
	h.act(poker.Fold())
	require.True(t, h.g.Done())
	require.Equal(t, poker.EndFold, h.g.EndReason)
	require.Equal(t, 3*sb, h.g.SettledPot)

	winner, err := h.e.Stats(h.ctx, h.players[1-folder])
	require.NoError(t, err)
	require.Equal(t, uint64(1), winner.GamesWon)
	require.Equal(t, int64(1), winner.CurrentStreak)
	loser, err := h.e.Stats(h.ctx, h.players[folder])
	require.NoError(t, err)
	require.Equal(t, int64(-1), loser.CurrentStreak)

	_, err = h.e.Act(h.ctx, h.session(), h.players[1-folder], poker.Check(), nil)
	require.ErrorIs(t, err, common.ErrSessionEnded)
	require.Len(t, events.completed, 1)
	require.Equal(t, poker.EndFold, events.completed[0].Reason)
}

func TestEngineWatchdog(t *testing.T) {
	h := newHarness(t, 16)
	events := record(t, h.e)
	h.toPreflop()
	actor := h.g.Actor()

	require.Zero(t, h.e.sweep(h.ctx))
	_, err := h.e.Timeout(h.ctx, h.session())
	require.ErrorIs(t, err, common.ErrWrongPhase)

	h.clock.Advance(poker.DefaultTurnTimeout)
	require.Equal(t, 1, h.e.sweep(h.ctx))

	g, err := h.e.Game(h.ctx, h.session())
	require.NoError(t, err)
	require.True(t, g.Done())
	require.Equal(t, poker.EndTimeout, g.EndReason)
	require.True(t, g.Seats[h.g.CurrentActor].Folded)
	require.Equal(t, []TurnTimedOut{{Session: h.session(), Player: actor}}, events.timeouts)

	h.clock.Advance(time.Hour)
	require.Zero(t, h.e.sweep(h.ctx), "settled games are no longer watched")
	require.Empty(t, h.e.expired(h.clock.Now()))
}

func TestEngineWatchStopsWithContext(t *testing.T) {
	h := newHarness(t, 17)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.e.Watch(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watchdog did not stop")
	}
}

func TestEngineInstallKey(t *testing.T) {
	s := keys(t)
	st, err := store.OpenBadger(store.BadgerOptions{})
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	e, err := New(ctx, Options{Store: st})
	require.NoError(t, err)
	defer e.Close()
	require.Empty(t, e.Registry().Installed())

	vk, err := s[zk.CircuitBet].VerificationKey()
	require.NoError(t, err)
	require.NoError(t, e.InstallKey(ctx, zk.CircuitBet, vk))
	require.ErrorIs(t, e.InstallKey(ctx, zk.CircuitBet, vk), common.ErrKeyAlreadySet)
	require.ErrorIs(t, e.InstallKey(ctx, "poker", vk), common.ErrUnknownCircuit)

	restarted, err := New(ctx, Options{Store: st})
	require.NoError(t, err)
	defer restarted.Close()
	require.Equal(t, []zk.CircuitID{zk.CircuitBet}, restarted.Registry().Installed())
}

func TestSessionLocks(t *testing.T) {
	l := newSessionLocks()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.lock(3)
			counter++
			unlock()
		}()
	}
	wg.Wait()
	require.Equal(t, 50, counter)
	require.Zero(t, l.len())

	unlockA := l.lock(1)
	unlockB := l.lock(2)
	require.Equal(t, 2, l.len())
	unlockA()
	unlockB()
	require.Zero(t, l.len())
}
