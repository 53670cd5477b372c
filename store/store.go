// Package store persists games, journals, player statistics and
// verification keys. Every committed transition is written in one
// transaction, so a settlement and the statistics update of both players are
// applied together or not at all.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/luca-patrignani/zkpoker/common"
	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/luca-patrignani/zkpoker/stats"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultRetention keeps records for 30 days after their last write.
const DefaultRetention = 30 * 24 * time.Hour

// Record is everything written for one committed transition.
type Record struct {
	Game *poker.GameState
	// Journal is the encoded session journal; nil leaves it untouched.
	Journal []byte
	// Results is set by the settling transition only.
	Results []stats.Result
	// Create fails the commit with ErrSessionExists when the game is
	// already stored.
	Create bool
}

// Store is implemented by the badger and redis backends.
type Store interface {
	Game(ctx context.Context, id poker.SessionID) (*poker.GameState, error)
	Journal(ctx context.Context, id poker.SessionID) ([]byte, error)
	Commit(ctx context.Context, rec Record) error
	Stats(ctx context.Context, address string) (stats.PlayerStats, error)
	PutKey(ctx context.Context, id zk.CircuitID, vk []byte) error
	Keys(ctx context.Context) (map[zk.CircuitID][]byte, error)
	Close() error
}

const (
	gamePrefix    = "game/"
	journalPrefix = "journal/"
	statsPrefix   = "stats/"
	keyPrefix     = "vk/"
)

func gameKey(id poker.SessionID) string    { return fmt.Sprintf("%s%d", gamePrefix, id) }
func journalKey(id poker.SessionID) string { return fmt.Sprintf("%s%d", journalPrefix, id) }
func statsKey(address string) string       { return statsPrefix + address }
func vkKey(id zk.CircuitID) string         { return keyPrefix + string(id) }

func circuitOf(key string) zk.CircuitID {
	return zk.CircuitID(strings.TrimPrefix(key, keyPrefix))
}

// txn is the read-write view a backend exposes to commitRecord.
type txn interface {
	get(key string) ([]byte, bool, error)
	set(key string, value []byte) error
}

// commitRecord writes rec through t. Backends run it inside their own
// transaction and retry it on conflicts.
func commitRecord(t txn, rec Record) error {
	if rec.Game == nil {
		return errors.New("commit without a game")
	}
	key := gameKey(rec.Game.Session)
	if rec.Create {
		_, found, err := t.get(key)
		if err != nil {
			return err
		}
		if found {
			return errors.Wrapf(common.ErrSessionExists, "session %d", rec.Game.Session)
		}
	}
	b, err := poker.Snapshot(rec.Game)
	if err != nil {
		return errors.Wrap(err, "encode game")
	}
	if err := t.set(key, b); err != nil {
		return err
	}
	if rec.Journal != nil {
		if err := t.set(journalKey(rec.Game.Session), rec.Journal); err != nil {
			return err
		}
	}
	for _, r := range rec.Results {
		s, err := loadStats(t, r.Player)
		if err != nil {
			return err
		}
		s.Apply(r.Won, r.Pot)
		b, err := json.Marshal(s)
		if err != nil {
			return errors.Wrap(err, "encode stats")
		}
		if err := t.set(statsKey(r.Player), b); err != nil {
			return err
		}
	}
	return nil
}

func loadStats(t txn, address string) (stats.PlayerStats, error) {
	b, found, err := t.get(statsKey(address))
	if err != nil || !found {
		return stats.New(address), err
	}
	var s stats.PlayerStats
	if err := json.Unmarshal(b, &s); err != nil {
		return s, errors.Wrapf(err, "decode stats of %s", address)
	}
	return s, nil
}

func decodeGame(id poker.SessionID, b []byte, found bool) (*poker.GameState, error) {
	if !found {
		return nil, errors.Wrapf(common.ErrSessionNotFound, "session %d", id)
	}
	return poker.Restore(b)
}
