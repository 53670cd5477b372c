package store

import (
	"context"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/luca-patrignani/zkpoker/stats"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const conflictRetries = 5

// BadgerOptions configures a badger store. An empty Dir opens an in-memory
// database.
type BadgerOptions struct {
	Dir        string
	Retention  time.Duration
	SyncWrites bool
	Logger     *zerolog.Logger
}

// BadgerStore keeps every record as a badger entry whose TTL is refreshed on
// each write.
type BadgerStore struct {
	db  *badgerdb.DB
	ttl time.Duration
}

var _ Store = (*BadgerStore)(nil)

// OpenBadger opens the database at opts.Dir.
func OpenBadger(opts BadgerOptions) (*BadgerStore, error) {
	bopts := badgerdb.DefaultOptions(opts.Dir)
	if opts.Dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	bopts.SyncWrites = opts.SyncWrites
	bopts.Logger = nil
	if opts.Logger != nil {
		bopts.Logger = badgerLogger{opts.Logger}
	}
	db, err := badgerdb.Open(bopts)
	if err != nil {
		return nil, errors.Wrapf(err, "open badger at %q", opts.Dir)
	}
	ttl := opts.Retention
	if ttl <= 0 {
		ttl = DefaultRetention
	}
	return &BadgerStore{db: db, ttl: ttl}, nil
}

type badgerTxn struct {
	txn *badgerdb.Txn
	ttl time.Duration
}

func (t badgerTxn) get(key string) ([]byte, bool, error) {
	item, err := t.txn.Get([]byte(key))
	if err == badgerdb.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "get %s", key)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, errors.Wrapf(err, "copy %s", key)
	}
	return val, true, nil
}

func (t badgerTxn) set(key string, value []byte) error {
	entry := badgerdb.NewEntry([]byte(key), value)
	if t.ttl > 0 {
		entry = entry.WithTTL(t.ttl)
	}
	return errors.Wrapf(t.txn.SetEntry(entry), "set %s", key)
}

func (s *BadgerStore) get(key string) ([]byte, bool, error) {
	var (
		val   []byte
		found bool
	)
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		val, found, err = badgerTxn{txn: txn}.get(key)
		return err
	})
	return val, found, err
}

// update runs fn in a read-write transaction, retrying on conflicts with
// concurrent commits touching the same statistics.
func (s *BadgerStore) update(ttl time.Duration, fn func(txn) error) error {
	var err error
	for i := 0; i < conflictRetries; i++ {
		err = s.db.Update(func(tx *badgerdb.Txn) error {
			return fn(badgerTxn{txn: tx, ttl: ttl})
		})
		if !errors.Is(err, badgerdb.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *BadgerStore) Game(_ context.Context, id poker.SessionID) (*poker.GameState, error) {
	b, found, err := s.get(gameKey(id))
	if err != nil {
		return nil, err
	}
	return decodeGame(id, b, found)
}

func (s *BadgerStore) Journal(_ context.Context, id poker.SessionID) ([]byte, error) {
	b, _, err := s.get(journalKey(id))
	return b, err
}

func (s *BadgerStore) Commit(_ context.Context, rec Record) error {
	return s.update(s.ttl, func(t txn) error { return commitRecord(t, rec) })
}

func (s *BadgerStore) Stats(_ context.Context, address string) (stats.PlayerStats, error) {
	var out stats.PlayerStats
	err := s.db.View(func(tx *badgerdb.Txn) error {
		var err error
		out, err = loadStats(badgerTxn{txn: tx}, address)
		return err
	})
	return out, err
}

// PutKey stores a verification key. Keys are not subject to retention.
func (s *BadgerStore) PutKey(_ context.Context, id zk.CircuitID, vk []byte) error {
	return s.update(0, func(t txn) error { return t.set(vkKey(id), vk) })
}

func (s *BadgerStore) Keys(_ context.Context) (map[zk.CircuitID][]byte, error) {
	out := map[zk.CircuitID][]byte{}
	err := s.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[circuitOf(string(item.Key()))] = val
		}
		return nil
	})
	return out, err
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger's own logs to zerolog.
type badgerLogger struct {
	l *zerolog.Logger
}

func (b badgerLogger) Errorf(f string, v ...interface{})   { b.l.Error().Msgf(f, v...) }
func (b badgerLogger) Warningf(f string, v ...interface{}) { b.l.Warn().Msgf(f, v...) }
func (b badgerLogger) Infof(f string, v ...interface{})    { b.l.Debug().Msgf(f, v...) }
func (b badgerLogger) Debugf(f string, v ...interface{})   { b.l.Trace().Msgf(f, v...) }
