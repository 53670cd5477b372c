package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/luca-patrignani/zkpoker/application"
	"github.com/luca-patrignani/zkpoker/circuit"
	"github.com/luca-patrignani/zkpoker/common"
	"github.com/luca-patrignani/zkpoker/config"
	"github.com/luca-patrignani/zkpoker/ledger"
	"github.com/luca-patrignani/zkpoker/store"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func openStore(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return store.OpenBadger(store.BadgerOptions{Retention: cfg.Game.Retention, Logger: log})
	case config.BackendBadger:
		return store.OpenBadger(store.BadgerOptions{
			Dir:        cfg.Store.Dir,
			Retention:  cfg.Game.Retention,
			SyncWrites: cfg.Store.SyncWrites,
			Logger:     log,
		})
	case config.BackendRedis:
		r := cfg.Store.Redis
		return store.OpenRedis(ctx, store.RedisOptions{
			Addr:      r.Addr,
			Password:  r.Password,
			DB:        r.DB,
			Prefix:    r.Prefix,
			Retention: cfg.Game.Retention,
		})
	}
	return nil, errors.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// loadSigner reads the hex journal key at path, creating it on first use.
func loadSigner(path string) (*ledger.Signer, bool, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		s, err := ledger.SignerFromHex(strings.TrimSpace(string(raw)))
		return s, false, errors.Wrapf(err, "journal key %s", path)
	}
	if !os.IsNotExist(err) {
		return nil, false, errors.Wrapf(err, "reading journal key %s", path)
	}
	s := ledger.NewSigner()
	priv, err := s.PrivateHex()
	if err != nil {
		return nil, false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, false, errors.Wrapf(err, "creating %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, []byte(priv+"\n"), 0o600); err != nil {
		return nil, false, errors.Wrapf(err, "writing journal key %s", path)
	}
	return s, true, nil
}

// installKeyDir installs the snarkjs verification keys found in dir. Keys
// the engine already holds are kept.
func installKeyDir(ctx context.Context, e *application.Engine, dir string, log *zerolog.Logger) error {
	for _, id := range zk.Circuits {
		path := circuit.VerificationKeyFile(dir, id)
		raw, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		vk, err := zk.ParseSnarkJSVerificationKey(raw)
		if err != nil {
			return errors.Wrapf(err, "verification key %s", path)
		}
		err = e.InstallKey(ctx, id, vk)
		switch {
		case errors.Is(err, common.ErrKeyAlreadySet):
			log.Debug().Str("circuit", string(id)).Msg("stored verification key kept")
		case err != nil:
			return err
		}
	}
	return nil
}
