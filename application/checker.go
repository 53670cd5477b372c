package application

import (
	"time"

	"github.com/luca-patrignani/zkpoker/logging"
	"github.com/luca-patrignani/zkpoker/metrics"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/rs/zerolog"
)

// checker times every verification against the registry.
type checker struct {
	reg     *zk.Registry
	metrics *metrics.Metrics
	log     *zerolog.Logger
}

func (c checker) Check(id zk.CircuitID, proof zk.Proof, signals zk.PublicSignals) error {
	start := time.Now()
	err := c.reg.Check(id, proof, signals)
	c.metrics.Verified(string(id), err, time.Since(start))
	if err != nil {
		c.log.Debug().Str(logging.CircuitKey, string(id)).Err(err).Msg("proof not accepted")
	}
	return err
}
