// Package metrics exposes the engine's prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luca-patrignani/zkpoker/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zkpoker"

type Metrics struct {
	verifications   *prometheus.CounterVec
	verifyDuration  *prometheus.HistogramVec
	transitions     *prometheus.CounterVec
	settlements     *prometheus.CounterVec
	chipsSettled    prometheus.Counter
	timeouts        prometheus.Counter
	activeGames     prometheus.Gauge
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the collectors with reg. Tests pass a fresh
// prometheus.NewRegistry; the server passes prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		verifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proof_verifications_total",
			Help:      "Groth16 verifications by circuit and outcome",
		}, []string{"circuit", "result"}),
		verifyDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "proof_verification_seconds",
			Help:      "Time spent in the pairing check",
			Buckets:   []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.05, 0.1},
		}, []string{"circuit"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Game transitions by name and outcome",
		}, []string{"transition", "result"}),
		settlements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Completed games by end reason",
		}, []string{"reason"}),
		chipsSettled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chips_settled_total",
			Help:      "Chips paid out from settled pots",
		}),
		timeouts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turn_timeouts_total",
			Help:      "Turns folded by the watchdog",
		}),
		activeGames: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_games",
			Help:      "Games started and not yet complete",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// result labels an outcome with "ok" or the kind of the engine error.
func result(err error) string {
	if err == nil {
		return "ok"
	}
	return common.KindOf(err).String()
}

func (m *Metrics) Verified(circuit string, err error, took time.Duration) {
	m.verifications.WithLabelValues(circuit, result(err)).Inc()
	m.verifyDuration.WithLabelValues(circuit).Observe(took.Seconds())
}

func (m *Metrics) Transition(name string, err error) {
	m.transitions.WithLabelValues(name, result(err)).Inc()
}

func (m *Metrics) GameStarted() {
	m.activeGames.Inc()
}

// Settled records a completed game.
func (m *Metrics) Settled(reason string, pot int64) {
	m.activeGames.Dec()
	m.settlements.WithLabelValues(reason).Inc()
	m.chipsSettled.Add(float64(pot))
}

func (m *Metrics) TimedOut() {
	m.timeouts.Inc()
}

// Middleware counts requests by their route template, not the raw path, so
// session ids do not blow up the label space.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
