package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rcrowley/go-metrics"
)

const HeaderRequestID = "X-Request-Id"

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware は http.Handler を包む関数です。
type Middleware func(http.Handler) http.Handler

// DefaultChain wraps h with the server's middleware stack. Metrics sits
// outside Recover so recovered panics are counted as 5xx.
func DefaultChain(h http.Handler, registry metrics.Registry, maintenance func() bool) http.Handler {
	return Chain(h,
		LoggingMiddleware,
		MetricsMiddleware(registry),
		MaintenanceMiddleware(maintenance),
		RecoverMiddleware,
	)
}

// Chain は先頭が最も外側になるように middleware を適用します。
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		// ヘッダに無ければ採番し、レスポンスにも返す
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)
		ctx := WithRequestID(r.Context(), reqID)
		next.ServeHTTP(rw, r.WithContext(ctx))
		dur := time.Since(start)
		attrs := []any{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rw.status),
			slog.Int("duration_ms", int(dur.Milliseconds())),
			slog.String("request_id", reqID),
		}
		msg := fmt.Sprintf("%s %d %s", r.Method, rw.status, r.URL.Path)
		if rw.status >= http.StatusInternalServerError {
			slog.WarnContext(ctx, msg, attrs...)
			return
		}
		slog.DebugContext(ctx, msg, attrs...)
	})
}

func isStaticAsset(path string) bool {
	return strings.HasPrefix(path, "/assets/") ||
		strings.HasSuffix(path, ".js") ||
		strings.HasSuffix(path, ".css") ||
		strings.HasSuffix(path, ".ico") ||
		strings.HasSuffix(path, ".png") ||
		strings.HasPrefix(path, "/favicon")
}

// MaintenanceMiddleware returns 503 for everything but static assets and
// /healthz while enabled reports true.
func MaintenanceMiddleware(enabled func() bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isStaticAsset(r.URL.Path) || r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}
			if enabled() {
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprint(w, "maintenance")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(r.Context(), "panic",
					slog.Any("error", rec),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method),
					slog.String("request_id", RequestIDFromCtx(r.Context())),
					slog.String("stack", string(debug.Stack())),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// MetricsMiddleware records request latency in the "http.requests" timer
// and counts responses per status class ("http.responses.2xx" etc).
// API リクエストのみ対象。静的ファイルは計測しない。
func MetricsMiddleware(registry metrics.Registry) Middleware {
	timer := metrics.GetOrRegisterTimer("http.requests", registry)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			timer.UpdateSince(start)
			class := fmt.Sprintf("http.responses.%dxx", rw.status/100)
			metrics.GetOrRegisterMeter(class, registry).Mark(1)
		})
	}
}
