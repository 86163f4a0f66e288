// Package middleware holds the HTTP middleware shared by the API router:
// request logging, Prometheus instrumentation, and the request body cap.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/citypulse/transit-feedback/internal/logging"
)

// RequestLogger emits one structured log line per request after it is
// served. 5xx responses log at error level so they surface in filtered
// views.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		evt := logging.Info()
		if ww.Status() >= http.StatusInternalServerError {
			evt = logging.Error()
		}
		evt.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// routePattern returns the chi route pattern for the request, falling back
// to the raw path when the request never matched a route.
func routePattern(r *http.Request) string {
	if ctx := chi.RouteContext(r.Context()); ctx != nil {
		if pattern := ctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
