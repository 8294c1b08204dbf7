package middleware

import "net/http"

// DefaultMaxBodySize caps write payloads. Entity bodies are a handful of
// scalar fields, so 64KB is generous.
const DefaultMaxBodySize int64 = 64 << 10

// RequestSize wraps the body in http.MaxBytesReader; decoding past the
// limit fails and the handler answers 413.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
