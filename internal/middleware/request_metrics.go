package middleware

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"census-backend/internal/monitoring"
)

// RequestMetricsMiddleware records API latency into Prometheus and logs
// slow or failing requests.
type RequestMetricsMiddleware struct {
	metrics *monitoring.Metrics
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

func NewRequestMetricsMiddleware(metrics *monitoring.Metrics) *RequestMetricsMiddleware {
	return &RequestMetricsMiddleware{metrics: metrics}
}

// Handler returns the middleware handler
func (m *RequestMetricsMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		if m.metrics != nil {
			m.metrics.ObserveRequest(r.Method, sanitizePath(r.URL.Path), strconv.Itoa(wrapped.statusCode), duration)
		}

		if wrapped.statusCode >= 500 || duration > time.Second {
			log.Printf("[API] %s %s -> %d in %s", r.Method, r.URL.Path, wrapped.statusCode, duration)
		}
	})
}

// shouldSkip returns true for paths that shouldn't be measured
func shouldSkip(path string) bool {
	skipPaths := []string{
		"/health",
		"/metrics", // scraping itself would recurse into the histogram
		"/favicon.ico",
		"/ws/", // the wrapper hides http.Hijacker from the upgrader
	}
	for _, skip := range skipPaths {
		if strings.HasPrefix(path, skip) {
			return true
		}
	}
	return false
}

// sanitizePath strips query params and caps the label length so record
// ids cannot blow up metric cardinality.
func sanitizePath(path string) string {
	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 100 {
		path = path[:100]
	}
	return path
}
