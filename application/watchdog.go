package application

import (
	"context"
	"runtime/debug"
	"sort"
	"strconv"
	"time"

	"github.com/luca-patrignani/zkpoker/common"
	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/luca-patrignani/zkpoker/logging"
	"github.com/pkg/errors"
)

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

// track remembers the turn deadline of g, or forgets g when nobody holds the
// turn.
func (e *Engine) track(g *poker.GameState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if g.Phase.IsBetting() && g.CurrentActor != poker.NoActor {
		e.deadlines[g.Session] = g.TurnDeadline
		return
	}
	delete(e.deadlines, g.Session)
}

func (e *Engine) forget(id poker.SessionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.deadlines, id)
}

// expired returns the tracked sessions whose deadline passed, oldest first.
func (e *Engine) expired(now time.Time) []poker.SessionID {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []poker.SessionID
	for id, deadline := range e.deadlines {
		if !now.Before(deadline) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return e.deadlines[out[i]].Before(e.deadlines[out[j]]) })
	return out
}

// Watch folds expired turns every interval until ctx is cancelled. Only
// games that moved since the engine started are watched; older ones time out
// through Timeout.
func (e *Engine) Watch(ctx context.Context, interval time.Duration) {
	defer func() {
		if err := recover(); err != nil {
			e.log.Error().Msgf("watchdog returning due to panic: %s\nStack Trace:\n%s", err, string(debug.Stack()))
			return
		}
		e.log.Info().Msg("watchdog returning")
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweep(ctx)
		}
	}
}

// sweep times out every expired turn and returns how many games it folded.
func (e *Engine) sweep(ctx context.Context) int {
	folded := 0
	for _, id := range e.expired(e.now()) {
		_, err := e.Timeout(ctx, id)
		switch {
		case err == nil:
			folded++
		case errors.Is(err, common.ErrWrongPhase) && e.stillRunning(ctx, id):
			// The player acted between the scan and the timeout.
		default:
			e.log.Debug().Err(err).Uint32(logging.SessionKey, uint32(id)).Msg("watchdog drops session")
			e.forget(id)
		}
	}
	return folded
}

func (e *Engine) stillRunning(ctx context.Context, id poker.SessionID) bool {
	g, err := e.store.Game(ctx, id)
	return err == nil && g.Phase.IsBetting() && g.CurrentActor != poker.NoActor
}
