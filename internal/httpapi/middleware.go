package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lueurxax/diary-replier/internal/platform/observability"
)

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID returns the id assigned by the request middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// statusRecorder captures the response code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func newRecorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}

	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

// requestContext assigns a short request id, echoes it in X-Request-Id and
// logs the request with its latency.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()[:requestIDLength]

		w.Header().Set(headerRequestID, id)

		rec := newRecorder(w)
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		s.logger.Info().
			Str(logFieldRequestID, id).
			Str(logFieldMethod, r.Method).
			Str(logFieldPath, r.URL.Path).
			Int(logFieldStatus, rec.status).
			Int64(logFieldLatencyMS, time.Since(start).Milliseconds()).
			Msg("http request")
	})
}

// requireAPIKey rejects requests without the internal key when one is set.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := s.cfg.InternalAPIKey
		if key == "" || publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		got := r.Header.Get(headerAPIKey)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			writeError(w, http.StatusForbidden, detailForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// instrument counts requests per route pattern and status code.
func (s *Server) instrument(route string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := newRecorder(w)
		fn(rec, r)
		observability.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}
