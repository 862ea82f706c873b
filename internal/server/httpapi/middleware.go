package httpapi

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/ecopoints/internal/common"
	"github.com/dmitrijs2005/ecopoints/internal/logging"
	"github.com/dmitrijs2005/ecopoints/internal/server/auth"
	"github.com/dmitrijs2005/ecopoints/internal/server/models"
)

type contextKey int

const (
	sessionKey contextKey = iota
	terminalKey
)

// SessionFromContext returns the session attached by the session middleware.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*models.Session)
	return s, ok
}

// TerminalFromContext returns the authenticated terminal id, if any.
func TerminalFromContext(ctx context.Context) string {
	id, _ := ctx.Value(terminalKey).(string)
	return id
}

type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

const maxRequestIDLen = 64

// validRequestID accepts short ids made of letters, digits, '.', '_' and '-'.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// requestLogger tags each request with an id and logs its outcome. A
// well-formed incoming X-Request-ID is reused, otherwise a new one is
// generated.
func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(common.RequestIDHeaderName)
			if !validRequestID(id) {
				id = uuid.NewString()
			}
			w.Header().Set(common.RequestIDHeaderName, id)
			ctx := logging.WithRequestID(r.Context(), id)

			rw := &responseWriter{ResponseWriter: w}
			next.ServeHTTP(rw, r.WithContext(ctx))

			log.Info(ctx, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.status,
				"size", rw.size,
				"duration", time.Since(start),
			)
		})
	}
}

func recovery(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error(r.Context(), "panic recovered",
						"error", rec,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					writeError(w, common.ErrorInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionValidator resolves a session id to a live session.
type SessionValidator interface {
	Validate(ctx context.Context, id string) (*models.Session, error)
}

// sessionToken reads the session id from the cookie or a bearer header.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(common.SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return bearerToken(r)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// requireSession rejects requests without a valid session. Browsers are
// sent to the login page, other clients get 401.
func requireSession(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := sessions.Validate(r.Context(), sessionToken(r))
			if err != nil {
				if wantsHTML(r) && isUnauthenticated(err) {
					http.Redirect(w, r, "/login", http.StatusSeeOther)
					return
				}
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, s)))
		})
	}
}

// requireTerminal checks the terminal JWT when a secret is configured.
// Without a secret the deposit endpoint is open.
func requireTerminal(secret []byte, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(secret) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, common.ErrUnauthenticated)
				return
			}
			terminalID, err := auth.ParseTerminalToken(token, secret)
			if err != nil {
				log.Warn(r.Context(), "terminal token rejected", "error", err)
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), terminalKey, terminalID)))
		})
	}
}
