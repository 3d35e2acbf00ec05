// Package httpmw provides the HTTP middleware chain: CORS, security headers,
// panic recovery, body limits, timeouts, tracing, request logging, and
// Prometheus instrumentation.
package httpmw

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ginkoai/ginko/internal/errs"
	"github.com/ginkoai/ginko/internal/httpresp"
	"github.com/ginkoai/ginko/internal/logging"
	"github.com/ginkoai/ginko/internal/metrics"
)

// responseWriter captures the status code written so logging/metrics can record it.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Flush proxies to the underlying writer when it supports SSE flushing.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// CORSConfig configures cross-origin handling for /api/*.
type CORSConfig struct {
	AllowedOrigins []string
}

// CORS returns permissive-for-api CORS middleware: all methods, Authorization allowed.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allowAll := len(cfg.AllowedOrigins) == 0
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
	}
	allowed := func(origin string) bool {
		if allowAll {
			return true
		}
		parsed, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, o := range cfg.AllowedOrigins {
			if o == origin || o == parsed.Hostname() {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && allowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Trace-ID")
				w.Header().Set("Access-Control-Expose-Headers", "X-Trace-ID")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders sets restrictive defaults on every non-API response.
func SecurityHeaders(next http.Handler) http.Handler {
	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
		"X-XSS-Protection":       "1; mode=block",
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		next.ServeHTTP(w, r)
	})
}

// Recovery converts a panic in a downstream handler into a 500 internal_error response.
func Recovery(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithContext(r.Context()).WithFields(map[string]interface{}{
						"panic":  fmt.Sprintf("%v", rec),
						"stack":  string(debug.Stack()),
						"path":   r.URL.Path,
						"method": r.Method,
					}).Error("panic recovered")
					httpresp.WriteError(w, r, errs.ErrInternal(fmt.Errorf("%v", rec)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

const defaultMaxBodyBytes int64 = 4 << 20 // 4MiB

// BodyLimit caps request bodies to reduce memory exhaustion from oversized payloads.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httpresp.WriteError(w, r, errs.New(errs.MissingField, "request body too large", http.StatusRequestEntityTooLarge))
				return
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout bounds handler execution time, responding 504 if exceeded.
// SSE/long-poll routes should be mounted outside this middleware's chain.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		d = 30 * time.Second
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			done := make(chan struct{})
			tw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			go func() {
				next.ServeHTTP(tw, r.WithContext(ctx))
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				var mu sync.Mutex
				mu.Lock()
				wrote := tw.written
				mu.Unlock()
				if !wrote {
					httpresp.WriteError(w, r, errs.New(errs.ServiceUnavailable, "request timed out", http.StatusGatewayTimeout))
				}
			}
		})
	}
}

// Tracing assigns/propagates a trace id on every request.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = logging.NewTraceID()
		}
		ctx := logging.WithTraceID(r.Context(), traceID)
		w.Header().Set("X-Trace-ID", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogging records method/path/status/duration for every request.
func RequestLogging(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			log.LogRequest(r.Context(), r.Method, routePattern(r), wrapped.statusCode, time.Since(start))
		})
	}
}

// Instrumentation records Prometheus request metrics keyed by chi route pattern.
func Instrumentation(serviceName string, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			path := routePattern(r)
			status := strconv.Itoa(wrapped.statusCode)
			m.RequestsTotal.WithLabelValues(serviceName, r.Method, path, status).Inc()
			m.RequestDuration.WithLabelValues(serviceName, r.Method, path).Observe(duration.Seconds())
			if wrapped.statusCode >= 400 {
				m.ErrorsTotal.WithLabelValues(serviceName, status, path).Inc()
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// RateLimiter applies a per-principal token bucket (golang.org/x/time/rate),
// one token bucket per principal (or IP, if unauthenticated).
type RateLimiter = rateLimiter

// AuditEntry is one recorded request for the admin audit trail.
type AuditEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Status     int       `json:"status"`
	UserID     string    `json:"user_id,omitempty"`
	Role       string    `json:"role,omitempty"`
	GraphID    string    `json:"graph_id,omitempty"`
	RemoteAddr string    `json:"remote_addr"`
}

// AuditLog is a bounded in-memory ring of recent requests, filterable by field.
type AuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
	cap     int
}

// NewAuditLog creates a ring buffer holding at most capacity entries.
func NewAuditLog(capacity int) *AuditLog {
	if capacity <= 0 {
		capacity = 1000
	}
	return &AuditLog{cap: capacity}
}

func (a *AuditLog) record(e AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	if len(a.entries) > a.cap {
		a.entries = a.entries[len(a.entries)-a.cap:]
	}
}

// Entries returns a snapshot of recorded entries, most recent last, optionally
// filtered by user id, path prefix, and/or minimum status.
func (a *AuditLog) Entries(userID, pathPrefix string, minStatus int) []AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]AuditEntry, 0, len(a.entries))
	for _, e := range a.entries {
		if userID != "" && e.UserID != userID {
			continue
		}
		if pathPrefix != "" && !strings.HasPrefix(e.Path, pathPrefix) {
			continue
		}
		if e.Status < minStatus {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Audit records every request into the audit log after it completes.
func Audit(log *AuditLog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			log.record(AuditEntry{
				Timestamp:  time.Now().UTC(),
				Method:     r.Method,
				Path:       routePattern(r),
				Status:     wrapped.statusCode,
				UserID:     logging.GetUserID(r.Context()),
				Role:       logging.GetRole(r.Context()),
				GraphID:    logging.GetGraphID(r.Context()),
				RemoteAddr: r.RemoteAddr,
			})
		})
	}
}
