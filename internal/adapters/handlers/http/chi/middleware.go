package chi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// LoggerMiddleware logs one line per request with the bytes sent back, which
// for downloads is the size of the streamed range
func LoggerMiddleware(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				attrs := []any{
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes_out", ww.BytesWritten(),
					"duration", time.Since(start),
				}
				if r.ContentLength > 0 {
					attrs = append(attrs, "bytes_in", r.ContentLength)
				}
				if rng := r.Header.Get("Range"); rng != "" {
					attrs = append(attrs, "range", rng)
				}

				if ww.Status() >= http.StatusInternalServerError {
					l.Error("http_request", attrs...)
					return
				}
				l.Info("http_request", attrs...)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
