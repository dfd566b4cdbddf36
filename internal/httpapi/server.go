// Package httpapi serves the diary reply pipeline over JSON HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/core/ports"
	"github.com/lueurxax/diary-replier/internal/platform/config"
	"github.com/lueurxax/diary-replier/internal/platform/observability"
	"github.com/lueurxax/diary-replier/internal/process/pipeline"
)

// DiaryProcessor runs one entry through the pipeline.
type DiaryProcessor interface {
	Process(ctx context.Context, req pipeline.Request) (domain.DiaryReplyOutput, error)
}

// Deps are the collaborators of the API server. Logs and Presets are nil
// when storage is disabled; Health is optional.
type Deps struct {
	Pipeline DiaryProcessor
	Logs     ports.DiaryLogReader
	Presets  ports.PresetStore
	Health   *observability.Server
}

// Server is the public JSON API.
type Server struct {
	cfg    *config.Config
	deps   Deps
	logger *zerolog.Logger

	// IP-based rate limiting
	limiters   map[string]*rate.Limiter
	limitersMu sync.Mutex
}

// NewServer creates the API server.
func NewServer(cfg *config.Config, deps Deps, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if cfg == nil {
		cfg = &config.Config{}
	}

	return &Server{
		cfg:      cfg,
		deps:     deps,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(routeReplyV1, s.instrument(routeReplyV1, s.handleReply))
	mux.HandleFunc(routeReply, s.instrument(routeReply, s.handleReply))
	mux.HandleFunc(routeLogs, s.instrument(routeLogs, s.handleLogs))
	mux.HandleFunc(routeSetPreset, s.instrument(routeSetPreset, s.handleSetPreset))
	mux.HandleFunc(routeGetPreset, s.instrument(routeGetPreset, s.handleGetPreset))

	if s.deps.Health != nil {
		s.deps.Health.Register(mux)
	}

	return s.requestContext(s.requireAPIKey(mux))
}

// Start serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.APIPort),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)

		defer cancel()

		//nolint:errcheck,contextcheck // shutdown in signal handler is best-effort, non-inherited context intentional
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.cfg.APIPort).Msg("API server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server error: %w", err)
	}

	return nil
}

func (s *Server) allowRequest(ip string) bool {
	s.limitersMu.Lock()

	limiter, ok := s.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(rateLimitWindow/rateLimitRequests), rateLimitBurst)
		s.limiters[ip] = limiter
	}

	s.limitersMu.Unlock()

	return limiter.Allow()
}
