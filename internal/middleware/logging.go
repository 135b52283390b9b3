package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/josh-kwaku/billing-ledger/internal/logging"
)

// accessEntry collects what inner middleware learns about a request so the
// access line can carry it. Auth runs below Logging and only sees a derived
// context, so it writes here instead of into Logging's logger.
type accessEntry struct {
	mu    sync.Mutex
	attrs []any
}

type accessKey struct{}

// Annotate adds key/value pairs to the access line of the current request.
// It is a no-op outside Logging.
func Annotate(ctx context.Context, args ...any) {
	e, ok := ctx.Value(accessKey{}).(*accessEntry)
	if !ok {
		return
	}
	e.mu.Lock()
	e.attrs = append(e.attrs, args...)
	e.mu.Unlock()
}

func (e *accessEntry) snapshot() []any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]any(nil), e.attrs...)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Logging attaches a request scoped logger and writes one access line per
// request once the handler returns. Health checks are not logged.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/health") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		entry := &accessEntry{}
		logger := slog.Default().With("request_id", RequestIDFromContext(r.Context()))

		ctx := context.WithValue(r.Context(), accessKey{}, entry)
		r = r.WithContext(logging.WithLogger(ctx, logger))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		attrs := append(entry.snapshot(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		logger.Log(r.Context(), accessLevel(rec.status), "request completed", attrs...)
	})
}

func accessLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
