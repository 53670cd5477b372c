// Package application runs games on top of the pure transitions of
// domain/poker. The Engine loads a game, applies one transition, appends it
// to the signed journal and commits everything in one store write. It also
// owns the proof replay guard and the turn watchdog.
package application

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/luca-patrignani/zkpoker/common"
	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/luca-patrignani/zkpoker/ledger"
	"github.com/luca-patrignani/zkpoker/logging"
	"github.com/luca-patrignani/zkpoker/metrics"
	"github.com/luca-patrignani/zkpoker/stats"
	"github.com/luca-patrignani/zkpoker/store"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.dedis.ch/kyber/v4"
)

// DefaultReplayWindow is how long consumed proofs are remembered when no
// guard is supplied.
const DefaultReplayWindow = 24 * time.Hour

// Options wires an Engine. Only Store is required.
type Options struct {
	Rules    poker.Rules
	Store    store.Store
	Registry *zk.Registry
	Replay   *zk.ReplayGuard
	Signer   *ledger.Signer
	Metrics  *metrics.Metrics
	Bus      EventBus.Bus
	Logger   *zerolog.Logger
	Now      func() time.Time
}

type Engine struct {
	manager  *poker.Manager
	store    store.Store
	registry *zk.Registry
	replay   *zk.ReplayGuard
	signer   *ledger.Signer
	metrics  *metrics.Metrics
	bus      EventBus.Bus
	log      *zerolog.Logger
	now      func() time.Time

	locks *sessionLocks
	// keyMu serialises key installation.
	keyMu sync.Mutex

	mu        sync.Mutex
	deadlines map[poker.SessionID]time.Time
}

// New builds an Engine and installs the verification keys found in the
// store.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("application: engine needs a store")
	}
	if opts.Rules.SmallBlind <= 0 {
		opts.Rules = poker.DefaultRules()
	}
	if opts.Registry == nil {
		opts.Registry = zk.NewRegistry()
	}
	if opts.Replay == nil {
		guard, err := zk.NewReplayGuard(ctx, DefaultReplayWindow)
		if err != nil {
			return nil, err
		}
		opts.Replay = guard
	}
	if opts.Signer == nil {
		opts.Signer = ledger.NewSigner()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(prometheus.NewRegistry())
	}
	if opts.Bus == nil {
		opts.Bus = EventBus.New()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	e := &Engine{
		store:     opts.Store,
		registry:  opts.Registry,
		replay:    opts.Replay,
		signer:    opts.Signer,
		metrics:   opts.Metrics,
		bus:       opts.Bus,
		log:       opts.Logger,
		now:       opts.Now,
		locks:     newSessionLocks(),
		deadlines: make(map[poker.SessionID]time.Time),
	}
	e.manager = &poker.Manager{
		Rules:  opts.Rules,
		Proofs: checker{reg: opts.Registry, metrics: opts.Metrics, log: opts.Logger},
		Now:    opts.Now,
	}
	if err := e.loadKeys(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Close releases the replay cache. The store belongs to the caller.
func (e *Engine) Close() error {
	return e.replay.Close()
}

func (e *Engine) Rules() poker.Rules     { return e.manager.Rules }
func (e *Engine) Bus() EventBus.Bus      { return e.bus }
func (e *Engine) Registry() *zk.Registry { return e.registry }

// PublicKey verifies the signatures of every journal the engine writes.
func (e *Engine) PublicKey() kyber.Point { return e.signer.Public() }

func (e *Engine) loadKeys(ctx context.Context) error {
	keys, err := e.store.Keys(ctx)
	if err != nil {
		return errors.Wrap(err, "application: loading verification keys")
	}
	for id, raw := range keys {
		vk, err := zk.VerificationKeyFromBytes(raw)
		if err != nil {
			return errors.Wrapf(err, "application: stored key of %s", id)
		}
		if err := e.registry.Set(id, vk); err != nil && !errors.Is(err, common.ErrKeyAlreadySet) {
			return err
		}
	}
	e.log.Info().Interface("circuits", e.registry.Installed()).Msg("verification keys installed")
	return nil
}

// InstallKey sets the verification key of id and persists it. A key is set
// once; later attempts fail with ErrKeyAlreadySet.
func (e *Engine) InstallKey(ctx context.Context, id zk.CircuitID, vk *zk.VerificationKey) error {
	e.keyMu.Lock()
	defer e.keyMu.Unlock()
	if !id.Valid() {
		return errors.Wrapf(common.ErrUnknownCircuit, "circuit %q", id)
	}
	if _, err := e.registry.Get(id); err == nil {
		return errors.Wrapf(common.ErrKeyAlreadySet, "circuit %q", id)
	}
	if err := vk.Validate(); err != nil {
		return err
	}
	if err := e.store.PutKey(ctx, id, vk.Bytes()); err != nil {
		return err
	}
	if err := e.registry.Set(id, vk); err != nil {
		return err
	}
	e.log.Info().Str(logging.CircuitKey, string(id)).Msg("verification key set")
	return nil
}

// proofUse is a proof consumed by a transition.
type proofUse struct {
	circuit zk.CircuitID
	bundle  poker.ProofBundle
}

type transition struct {
	name   string
	actor  string
	create bool
	proofs []proofUse
	extra  map[string]string
}

func (e *Engine) Start(ctx context.Context, req poker.StartRequest) (*poker.GameState, error) {
	t := &transition{
		name:   "start",
		create: true,
		proofs: []proofUse{{zk.CircuitDealer, req.Dealer}},
		extra:  map[string]string{"player1": req.Players[0], "player2": req.Players[1]},
	}
	return e.run(ctx, req.Session, t, func(*poker.GameState) (*poker.GameState, error) {
		return e.manager.Start(req)
	})
}

func (e *Engine) PostBlinds(ctx context.Context, id poker.SessionID, caller string) (*poker.GameState, error) {
	t := &transition{name: "post_blinds", actor: caller}
	return e.run(ctx, id, t, func(g *poker.GameState) (*poker.GameState, error) {
		return e.manager.PostBlinds(g, caller)
	})
}

func (e *Engine) CommitShuffle(ctx context.Context, id poker.SessionID, caller string, b poker.ProofBundle) (*poker.GameState, error) {
	t := &transition{name: "commit_shuffle", actor: caller, proofs: []proofUse{{zk.CircuitShuffle, b}}}
	return e.run(ctx, id, t, func(g *poker.GameState) (*poker.GameState, error) {
		return e.manager.CommitShuffle(g, caller, b)
	})
}

func (e *Engine) Deal(ctx context.Context, id poker.SessionID, caller string, b poker.ProofBundle) (*poker.GameState, error) {
	t := &transition{name: "deal", actor: caller, proofs: []proofUse{{zk.CircuitDeal, b}}}
	return e.run(ctx, id, t, func(g *poker.GameState) (*poker.GameState, error) {
		return e.manager.Deal(g, caller, b)
	})
}

// Act applies a betting action. Wagers need a bet proof; fold, check and
// call take none.
func (e *Engine) Act(ctx context.Context, id poker.SessionID, caller string, a poker.Action, b *poker.ProofBundle) (*poker.GameState, error) {
	t := &transition{
		name:  "player_action",
		actor: caller,
		extra: map[string]string{"action": string(a.Type)},
	}
	// Only wagers carry a bet proof; anything attached to another action is
	// ignored and left unconsumed.
	if a.Type.Wagers() {
		t.extra["amount"] = formatInt(a.Amount)
		if b != nil {
			t.proofs = []proofUse{{zk.CircuitBet, *b}}
		}
	}
	return e.run(ctx, id, t, func(g *poker.GameState) (*poker.GameState, error) {
		return e.manager.Act(g, caller, a, b)
	})
}

func (e *Engine) RevealCommunity(ctx context.Context, id poker.SessionID, caller string, b poker.ProofBundle) (*poker.GameState, error) {
	t := &transition{name: "reveal_community", actor: caller, proofs: []proofUse{{zk.CircuitReveal, b}}}
	return e.run(ctx, id, t, func(g *poker.GameState) (*poker.GameState, error) {
		return e.manager.RevealCommunity(g, caller, b)
	})
}

func (e *Engine) RevealWinner(ctx context.Context, id poker.SessionID, caller string, b poker.ProofBundle) (*poker.GameState, error) {
	t := &transition{name: "reveal_winner", actor: caller, proofs: []proofUse{{zk.CircuitShowdown, b}}}
	return e.run(ctx, id, t, func(g *poker.GameState) (*poker.GameState, error) {
		return e.manager.RevealWinner(g, caller, b)
	})
}

// ClaimPot withdraws the caller's final stack and returns the amount.
func (e *Engine) ClaimPot(ctx context.Context, id poker.SessionID, caller string) (*poker.GameState, int64, error) {
	var amount int64
	t := &transition{name: "claim_pot", actor: caller}
	next, err := e.run(ctx, id, t, func(g *poker.GameState) (*poker.GameState, error) {
		next, claimed, err := e.manager.ClaimPot(g, caller)
		amount = claimed
		t.extra = map[string]string{"amount": formatInt(claimed)}
		return next, err
	})
	if err != nil {
		return nil, 0, err
	}
	return next, amount, nil
}

// Timeout folds the player whose turn expired. Anyone may trigger it; it
// fails with ErrWrongPhase while the deadline has not passed.
func (e *Engine) Timeout(ctx context.Context, id poker.SessionID) (*poker.GameState, error) {
	t := &transition{name: "timeout"}
	next, err := e.run(ctx, id, t, func(g *poker.GameState) (*poker.GameState, error) {
		t.extra = map[string]string{"player": g.Actor()}
		return e.manager.Timeout(g)
	})
	if err != nil {
		return nil, err
	}
	e.metrics.TimedOut()
	e.bus.Publish(TopicTurnTimeout, TurnTimedOut{Session: id, Player: t.extra["player"]})
	return next, nil
}

func (e *Engine) Game(ctx context.Context, id poker.SessionID) (*poker.GameState, error) {
	return e.store.Game(ctx, id)
}

func (e *Engine) Stats(ctx context.Context, address string) (stats.PlayerStats, error) {
	return e.store.Stats(ctx, address)
}

// Journal returns the decoded journal of id. Signatures are checked by
// callers with Verify(e.PublicKey()).
func (e *Engine) Journal(ctx context.Context, id poker.SessionID) (*ledger.Journal, error) {
	data, err := e.store.Journal(ctx, id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.Wrapf(common.ErrSessionNotFound, "session %d", id)
	}
	return ledger.Decode(data)
}

// run applies fn under the session lock and records the outcome.
func (e *Engine) run(ctx context.Context, id poker.SessionID, t *transition, fn func(*poker.GameState) (*poker.GameState, error)) (*poker.GameState, error) {
	unlock := e.locks.lock(id)
	defer unlock()

	next, err := e.step(ctx, id, t, fn)
	e.metrics.Transition(t.name, err)
	if err != nil {
		e.log.Info().
			Uint32(logging.SessionKey, uint32(id)).
			Str(logging.PlayerKey, t.actor).
			Str("transition", t.name).
			Err(err).
			Msg("transition rejected")
		return nil, err
	}
	return next, nil
}

func (e *Engine) step(ctx context.Context, id poker.SessionID, t *transition, fn func(*poker.GameState) (*poker.GameState, error)) (*poker.GameState, error) {
	prev, err := e.store.Game(ctx, id)
	switch {
	case t.create && err == nil:
		return nil, errors.Wrapf(common.ErrSessionExists, "session %d", id)
	case t.create && errors.Is(err, common.ErrSessionNotFound):
		prev = nil
	case err != nil:
		return nil, err
	}

	prints := make([]string, 0, len(t.proofs))
	for _, p := range t.proofs {
		fp := zk.Fingerprint(p.circuit, p.bundle.Proof, p.bundle.Signals)
		if err := e.replay.Check(fp); err != nil {
			return nil, err
		}
		prints = append(prints, fp)
	}

	next, err := fn(prev)
	if err != nil {
		return nil, err
	}

	journal, err := e.openJournal(ctx, id, prev == nil)
	if err != nil {
		return nil, err
	}
	digest, err := poker.Digest(next)
	if err != nil {
		return nil, err
	}
	entry := ledger.Entry{
		Transition: t.name,
		Actor:      t.actor,
		Phase:      string(next.Phase),
		Version:    next.Version,
		State:      hex.EncodeToString(digest[:]),
		Extra:      t.extra,
	}
	if len(prints) > 0 {
		entry.Proof = prints[0]
	}
	if _, err := journal.Append(entry, e.now(), e.signer); err != nil {
		return nil, err
	}
	data, err := journal.Encode()
	if err != nil {
		return nil, err
	}

	settled := next.Done() && (prev == nil || !prev.Done())
	rec := store.Record{Game: next, Journal: data, Create: prev == nil}
	if settled {
		rec.Results = next.Results()
	}
	if err := e.store.Commit(ctx, rec); err != nil {
		return nil, err
	}

	for _, fp := range prints {
		if err := e.replay.Consume(fp); err != nil {
			e.log.Warn().Err(err).Uint32(logging.SessionKey, uint32(id)).Msg("could not record consumed proof")
		}
	}
	e.committed(prev, next, t, settled)
	return next, nil
}

func (e *Engine) openJournal(ctx context.Context, id poker.SessionID, fresh bool) (*ledger.Journal, error) {
	if fresh {
		return ledger.New(id, e.now()), nil
	}
	data, err := e.store.Journal(ctx, id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		// Games stored without a journal start a new one.
		return ledger.New(id, e.now()), nil
	}
	return ledger.Decode(data)
}

// committed runs the side effects of a stored transition.
func (e *Engine) committed(prev, next *poker.GameState, t *transition, settled bool) {
	e.log.Debug().
		Uint32(logging.SessionKey, uint32(next.Session)).
		Str(logging.PlayerKey, t.actor).
		Str(logging.PhaseKey, string(next.Phase)).
		Uint64("version", next.Version).
		Str("transition", t.name).
		Msg("transition committed")

	e.track(next)
	if prev == nil {
		e.metrics.GameStarted()
		e.bus.Publish(TopicGameStarted, GameStarted{
			Session: next.Session,
			Players: [2]string{next.Seats[0].Address, next.Seats[1].Address},
			Button:  next.DealerButton,
		})
	}
	if settled {
		e.metrics.Settled(string(next.EndReason), next.SettledPot)
		e.log.Info().
			Uint32(logging.SessionKey, uint32(next.Session)).
			Str("winner", next.Winner.String()).
			Str("reason", string(next.EndReason)).
			Int64("pot", next.SettledPot).
			Msg("game settled")
		e.bus.Publish(TopicGameCompleted, GameCompleted{
			Session: next.Session,
			Winner:  next.Winner,
			Reason:  next.EndReason,
			Pot:     next.SettledPot,
		})
	}
}
