package network

import (
	"context"
	"crypto/subtle"
	"crypto/tls"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/luca-patrignani/zkpoker/application"
	"github.com/luca-patrignani/zkpoker/common"
	"github.com/luca-patrignani/zkpoker/logging"
	"github.com/luca-patrignani/zkpoker/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const RequestIDHeader = "X-Request-ID"

type RouterOptions struct {
	// AdminToken guards key uploads. Empty disables them.
	AdminToken string
	Metrics    *metrics.Metrics
	// Gatherer backs GET /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
	Logger   *zerolog.Logger
}

type server struct {
	engine *application.Engine
	token  string
	log    *zerolog.Logger
}

// NewRouter mounts every route of the engine on a gin router.
func NewRouter(e *application.Engine, opts RouterOptions) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	s := &server{engine: e, token: opts.AdminToken, log: opts.Logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.logRequests())
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/v1")
	v1.POST("/sessions", s.start)
	sessions := v1.Group("/sessions/:id", sessionParam())
	sessions.GET("", s.game)
	sessions.GET("/journal", s.journal)
	sessions.POST("/blinds", s.postBlinds)
	sessions.POST("/shuffle", s.commitShuffle)
	sessions.POST("/deal", s.deal)
	sessions.POST("/actions", s.act)
	sessions.POST("/reveal", s.reveal)
	sessions.POST("/showdown", s.showdown)
	sessions.POST("/claim", s.claim)
	sessions.POST("/timeout", s.timeout)

	v1.GET("/players/:addr/stats", s.stats)
	v1.GET("/keys", s.keys)
	v1.PUT("/keys/:circuit", s.admin(), s.installKey)
	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := s.log.Debug()
		if len(c.Errors) > 0 {
			ev = s.log.Info().Str("error", c.Errors.Last().Error())
		}
		ev.Str("request_id", c.GetString(RequestIDHeader)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// admin checks the bearer token of key uploads.
func (s *server) admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || got == "" {
			fail(c, errors.Wrap(common.ErrUnauthorized, "missing bearer token"))
			return
		}
		if s.token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, appError{
				Code:    http.StatusForbidden,
				Kind:    common.KindAuthorization.String(),
				Message: "invalid admin token",
			})
			return
		}
		c.Next()
	}
}

// Serve runs handler on addr until ctx is done, then shuts down gracefully.
// A nil tlsCfg serves plain HTTP.
func Serve(ctx context.Context, addr string, handler http.Handler, tlsCfg *tls.Config, log *zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Bool("tls", tlsCfg != nil).Msg("listening")
		var err error
		if tlsCfg != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	return <-errc
}
