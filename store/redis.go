package store

import (
	"context"
	"time"

	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/luca-patrignani/zkpoker/stats"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a redis store. Prefix namespaces every key.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	Prefix    string
	Retention time.Duration
}

// RedisStore writes each record with EXPIRE set to the retention window.
// Commits run under WATCH on the keys they read and are retried when another
// client changes them first.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// OpenRedis connects to opts.Addr and pings it.
func OpenRedis(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "connect to redis at %s", opts.Addr)
	}
	ttl := opts.Retention
	if ttl <= 0 {
		ttl = DefaultRetention
	}
	return &RedisStore{client: client, prefix: opts.Prefix, ttl: ttl}, nil
}

func (s *RedisStore) key(k string) string { return s.prefix + k }

// redisTxn reads through the watching connection and queues writes for the
// MULTI/EXEC block.
type redisTxn struct {
	ctx    context.Context
	s      *RedisStore
	tx     *redis.Tx
	writes map[string][]byte
	order  []string
}

func (t *redisTxn) get(key string) ([]byte, bool, error) {
	if v, ok := t.writes[key]; ok {
		return v, true, nil
	}
	full := t.s.key(key)
	if err := t.tx.Watch(t.ctx, full).Err(); err != nil {
		return nil, false, errors.Wrapf(err, "watch %s", key)
	}
	b, err := t.tx.Get(t.ctx, full).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "get %s", key)
	}
	return b, true, nil
}

func (t *redisTxn) set(key string, value []byte) error {
	if _, ok := t.writes[key]; !ok {
		t.order = append(t.order, key)
	}
	t.writes[key] = value
	return nil
}

func (s *RedisStore) Game(ctx context.Context, id poker.SessionID) (*poker.GameState, error) {
	b, found, err := s.get(ctx, gameKey(id))
	if err != nil {
		return nil, err
	}
	return decodeGame(id, b, found)
}

func (s *RedisStore) get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "get %s", key)
	}
	return b, true, nil
}

func (s *RedisStore) Journal(ctx context.Context, id poker.SessionID) ([]byte, error) {
	b, _, err := s.get(ctx, journalKey(id))
	return b, err
}

func (s *RedisStore) Commit(ctx context.Context, rec Record) error {
	var err error
	for i := 0; i < conflictRetries; i++ {
		err = s.client.Watch(ctx, func(tx *redis.Tx) error {
			t := &redisTxn{ctx: ctx, s: s, tx: tx, writes: map[string][]byte{}}
			if err := commitRecord(t, rec); err != nil {
				return err
			}
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, k := range t.order {
					pipe.Set(ctx, s.key(k), t.writes[k], s.ttl)
				}
				return nil
			})
			return err
		})
		if err != redis.TxFailedErr {
			return err
		}
	}
	return errors.Wrap(err, "commit retries exhausted")
}

func (s *RedisStore) Stats(ctx context.Context, address string) (stats.PlayerStats, error) {
	b, found, err := s.get(ctx, statsKey(address))
	if err != nil || !found {
		return stats.New(address), err
	}
	var out stats.PlayerStats
	if err := json.Unmarshal(b, &out); err != nil {
		return out, errors.Wrapf(err, "decode stats of %s", address)
	}
	return out, nil
}

// PutKey stores a verification key without expiry.
func (s *RedisStore) PutKey(ctx context.Context, id zk.CircuitID, vk []byte) error {
	return errors.Wrapf(s.client.Set(ctx, s.key(vkKey(id)), vk, 0).Err(), "set key %s", id)
}

func (s *RedisStore) Keys(ctx context.Context) (map[zk.CircuitID][]byte, error) {
	out := map[zk.CircuitID][]byte{}
	iter := s.client.Scan(ctx, 0, s.key(keyPrefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		b, err := s.client.Get(ctx, full).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "get %s", full)
		}
		out[circuitOf(full[len(s.prefix):])] = b
	}
	return out, errors.Wrap(iter.Err(), "scan keys")
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
