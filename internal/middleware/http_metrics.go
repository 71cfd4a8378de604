package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// otherRoute is the label used for paths outside the known route set, so
// that scanners and typos cannot grow label cardinality.
const otherRoute = "other"

var knownRoutes = map[string]bool{
	"/api/v1/feed":     true,
	"/api/v1/trending": true,
	"/health":          true,
	"/ready":           true,
	"/metrics":         true,
}

// unobservedPaths are excluded from HTTP metrics and tracing.
var unobservedPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// normalizePath maps a request path to a bounded route label. A single
// trailing slash is tolerated.
func normalizePath(path string) string {
	if knownRoutes[path] {
		return path
	}
	if n := len(path); n > 1 && path[n-1] == '/' && knownRoutes[path[:n-1]] {
		return path[:n-1]
	}
	return otherRoute
}

// HTTPMetrics records duration, size and count of every request except
// probes and scrapes.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil || unobservedPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			requestSize := r.ContentLength
			if requestSize < 0 {
				requestSize = 0
			}
			metrics.ObserveHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(rw.statusCode),
				time.Since(start).Seconds(),
				requestSize,
				int64(rw.size),
			)
		})
	}
}
