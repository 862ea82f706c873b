package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/ecopoints/internal/logging"
	"github.com/dmitrijs2005/ecopoints/internal/server/metrics"
)

// RouterConfig collects what the router needs.
type RouterConfig struct {
	Ledger   Ledger
	Accounts Accounts
	Sessions SessionValidator

	// TerminalSecret enables JWT authentication of deposit terminals.
	TerminalSecret []byte
	// LoginLimiter throttles /login and /register. Nil disables it.
	LoginLimiter *RateLimiter
	// Health reports store reachability on /health.
	Health       func(ctx context.Context) error
	CookieSecure bool
	Logger       logging.Logger
}

// NewRouter builds the HTTP handler.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger.With("module", "httpapi")
	h := &handlers{
		ledger:       cfg.Ledger,
		accounts:     cfg.Accounts,
		health:       cfg.Health,
		cookieSecure: cfg.CookieSecure,
		log:          log,
	}

	r := mux.NewRouter()
	r.Use(requestLogger(log), recovery(log), metrics.InstrumentHandler)

	r.HandleFunc("/health", h.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	terminal := requireTerminal(cfg.TerminalSecret, log)
	r.Handle("/submit", terminal(http.HandlerFunc(h.deposit))).Methods(http.MethodPost)
	r.Handle("/api/v1/deposits", terminal(http.HandlerFunc(h.deposit))).Methods(http.MethodPost)

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.LoginLimiter != nil {
		limit = cfg.LoginLimiter.Handler
	}
	r.Handle("/register", limit(http.HandlerFunc(h.register))).Methods(http.MethodPost)
	r.Handle("/login", limit(http.HandlerFunc(h.login))).Methods(http.MethodPost)
	r.HandleFunc("/register", h.registerPage).Methods(http.MethodGet)
	r.HandleFunc("/login", h.loginPage).Methods(http.MethodGet)
	r.HandleFunc("/logout", h.logout).Methods(http.MethodPost)

	session := requireSession(cfg.Sessions)
	r.Handle("/dashboard", session(http.HandlerFunc(h.dashboard))).Methods(http.MethodGet)
	r.Handle("/api/v1/members/me/history", session(http.HandlerFunc(h.history))).Methods(http.MethodGet)

	return r
}
