// Package audit records mutations made by privileged callers.
package audit

import (
	"net"
	"net/http"
	"strings"

	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/rs/zerolog"
)

// Entry is a single audit record.
type Entry struct {
	Action    string
	Path      string
	UserID    int64
	Username  string
	Role      auth.Role
	IPAddress string
	Status    int
}

// Outcome is "success" for statuses below 400 and "failure" otherwise.
func (e Entry) Outcome() string {
	if e.Status >= http.StatusBadRequest {
		return "failure"
	}
	return "success"
}

// Logger writes audit entries through zerolog with a fixed component field.
type Logger struct {
	out     zerolog.Logger
	minRole auth.Role
}

// NewLogger audits callers holding at least minRole.
func NewLogger(out zerolog.Logger, minRole auth.Role) *Logger {
	return &Logger{
		out:     out.With().Str("component", "audit").Logger(),
		minRole: minRole,
	}
}

func (l *Logger) Log(entry Entry) {
	l.out.Info().
		Str("action", entry.Action).
		Str("path", entry.Path).
		Int64("user_id", entry.UserID).
		Str("username", entry.Username).
		Str("role", entry.Role.String()).
		Str("ip_address", entry.IPAddress).
		Int("status", entry.Status).
		Str("outcome", entry.Outcome()).
		Msg("audit")
}

// Middleware audits every mutating request whose principal reaches the
// logger's minimum role. It must run after authentication.
func (l *Logger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := auth.PrincipalFromContext(r.Context())
		if !isMutation(r.Method) || !principal.Role.AtLeast(l.minRole) {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		l.Log(Entry{
			Action:    actionFor(r.Method),
			Path:      r.URL.Path,
			UserID:    principal.UserID,
			Username:  principal.Username,
			Role:      principal.Role,
			IPAddress: remoteHost(r.RemoteAddr),
			Status:    rec.status,
		})
	})
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func actionFor(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodDelete:
		return "delete"
	default:
		return "update"
	}
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return addr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
