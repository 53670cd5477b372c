package zk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/luca-patrignani/zkpoker/common"
	"github.com/pkg/errors"
)

// ReplayGuard remembers proofs that already drove a committed transition so
// they cannot be submitted a second time. Entries expire after the window.
type ReplayGuard struct {
	cache *bigcache.BigCache
}

// NewReplayGuard builds a guard remembering proofs for window.
func NewReplayGuard(ctx context.Context, window time.Duration) (*ReplayGuard, error) {
	cfg := bigcache.DefaultConfig(window)
	cfg.CleanWindow = window / 4
	cfg.Verbose = false
	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "zk: creating replay cache")
	}
	return &ReplayGuard{cache: cache}, nil
}

// Fingerprint identifies a proof submission.
func Fingerprint(id CircuitID, proof Proof, signals PublicSignals) string {
	h := sha256.New()
	h.Write([]byte(id))
	h.Write(proof.Bytes())
	h.Write(signals.Bytes())
	return hex.EncodeToString(h.Sum(nil))
}

// Check fails with ErrProofReplayed when the fingerprint was consumed.
func (g *ReplayGuard) Check(fingerprint string) error {
	if _, err := g.cache.Get(fingerprint); err == nil {
		return errors.Wrapf(common.ErrProofReplayed, "fingerprint %s", fingerprint[:16])
	}
	return nil
}

// Consume records the fingerprint.
func (g *ReplayGuard) Consume(fingerprint string) error {
	return g.cache.Set(fingerprint, []byte{1})
}

func (g *ReplayGuard) Close() error {
	return g.cache.Close()
}
