package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"

	"github.com/luca-patrignani/zkpoker/application"
	"github.com/luca-patrignani/zkpoker/config"
	"github.com/luca-patrignani/zkpoker/ledger"
	"github.com/luca-patrignani/zkpoker/logging"
	"github.com/luca-patrignani/zkpoker/metrics"
	"github.com/luca-patrignani/zkpoker/network"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := logging.SetLevel(cfg.Log.Level); err != nil {
		return err
	}
	log := logging.GetZeroLogger("zkpoker", os.Stderr, cfg.Log.Console)

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	signer, created, err := loadSigner(cfg.Keys.Signer)
	if err != nil {
		return err
	}
	pub, err := ledger.PublicHex(signer.Public())
	if err != nil {
		return err
	}
	log.Info().Str("public_key", pub).Bool("created", created).Msg("journal signer ready")

	replay, err := zk.NewReplayGuard(ctx, cfg.Game.ReplayWindow)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	e, err := application.New(ctx, application.Options{
		Rules:   cfg.Game.Rules(),
		Store:   st,
		Replay:  replay,
		Signer:  signer,
		Metrics: m,
		Logger:  log,
	})
	if err != nil {
		return err
	}
	defer e.Close()
	if err := installKeyDir(ctx, e, cfg.Keys.Dir, log); err != nil {
		return err
	}
	if missing := missingKeys(e.Registry()); len(missing) > 0 {
		log.Warn().Interface("circuits", missing).Msg("transitions needing these proofs will fail until their keys are set")
	}

	go e.Watch(ctx, cfg.Game.WatchInterval)

	router := network.NewRouter(e, network.RouterOptions{
		AdminToken: cfg.Server.AdminToken,
		Metrics:    m,
		Gatherer:   reg,
		Logger:     log,
	})
	var tlsCfg *tls.Config
	if cfg.Server.TLS {
		cert, err := network.LoadOrCreateCert(cfg.Server.CertDir, cfg.Server.Addr)
		if err != nil {
			return err
		}
		tlsCfg = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	}
	return network.Serve(ctx, cfg.Server.Addr, router, tlsCfg, log)
}

func missingKeys(r *zk.Registry) []zk.CircuitID {
	var out []zk.CircuitID
	for _, id := range zk.Circuits {
		if _, err := r.Get(id); err != nil {
			out = append(out, id)
		}
	}
	return out
}
