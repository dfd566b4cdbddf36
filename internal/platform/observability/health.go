package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	readyTimeout      = 2 * time.Second
)

// Pinger is satisfied by every storage backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BuildInfo is served on /version. Providers, when set, reports the live LLM
// provider state.
type BuildInfo struct {
	Version      string                 `json:"version"`
	Model        string                 `json:"model"`
	ConfigLoaded bool                   `json:"config_loaded"`
	Providers    func() []ProviderState `json:"-"`
}

// ProviderState is one LLM provider as listed on /version.
type ProviderState struct {
	Name      string `json:"name"`
	Priority  int    `json:"priority"`
	Available bool   `json:"available"`
	CircuitOK bool   `json:"circuit_ok"`
}

type versionResponse struct {
	BuildInfo
	Providers []ProviderState `json:"providers"`
}

type Server struct {
	store  Pinger
	port   int
	info   BuildInfo
	logger *zerolog.Logger
}

// NewServer creates the health server. store may be nil when storage is disabled.
func NewServer(store Pinger, port int, info BuildInfo, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Server{
		store:  store,
		port:   port,
		info:   info,
		logger: logger,
	}
}

// Handler returns the health mux. It is also mounted by the API server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)

	return mux
}

// Register mounts /healthz, /readyz, /version and /metrics on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, `{"status":"ok"}`)
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()

			if err := s.store.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = fmt.Fprintf(w, "DB error: %v", err)

				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "OK")
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		resp := versionResponse{BuildInfo: s.info, Providers: []ProviderState{}}
		if s.info.Providers != nil {
			resp.Providers = append(resp.Providers, s.info.Providers()...)
		}

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			s.logger.Warn().Err(err).Msg("failed to encode version")
		}
	})

	mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)

		defer cancel()

		//nolint:errcheck,contextcheck // shutdown in signal handler is best-effort, non-inherited context intentional
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.port).Msg("Health check server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}
