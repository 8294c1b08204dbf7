package middleware

import (
	"net/http"
	"time"

	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/rs/zerolog"
)

type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if w.status == 0 {
		w.status = statusCode
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// RequestLogging writes one access-log line per request using the logger
// CorrelationID placed on the context. Server errors log at error level.
func RequestLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w}

			var principal auth.Principal
			next.ServeHTTP(rw, r.WithContext(withPrincipalSlot(r.Context(), &principal)))

			if rw.status == 0 {
				rw.status = http.StatusOK
			}
			logger := zerolog.Ctx(r.Context())
			event := logger.Info()
			if rw.status >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.status).
				Int("bytes", rw.bytes).
				Dur("duration", time.Since(start)).
				Str("role", principal.Role.String()).
				Int64("user_id", principal.UserID).
				Msg("request")
		})
	}
}
