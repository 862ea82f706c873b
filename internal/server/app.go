// Package server wires configuration, storage, services and the HTTP API
// into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/ecopoints/internal/dbx"
	"github.com/dmitrijs2005/ecopoints/internal/logging"
	"github.com/dmitrijs2005/ecopoints/internal/server/config"
	"github.com/dmitrijs2005/ecopoints/internal/server/httpapi"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/ecopoints/internal/server/services"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *sessions.RedisRepository
	sessions *services.SessionManager
	limiter  *httpapi.RateLimiter
	server   *httpapi.Server
}

// Stores is the storage wiring chosen from the configuration.
type Stores struct {
	DB       *sql.DB
	Manager  repomanager.RepositoryManager
	Runner   dbx.TxRunner
	Sessions sessions.Repository
	Redis    *sessions.RedisRepository
}

// Close releases connections held by the stores.
func (s *Stores) Close() error {
	var errs []error
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	if s.DB != nil {
		errs = append(errs, s.DB.Close())
	}
	return errors.Join(errs...)
}

// OpenStores connects the ledger and session backends named in c and
// applies migrations when PostgreSQL is in use.
func OpenStores(ctx context.Context, c *config.Config) (*Stores, error) {
	st := &Stores{}

	usePostgres := c.StorageBackend == config.BackendPostgres || c.SessionBackend == config.BackendPostgres
	var pg *repomanager.PostgresRepositoryManager
	if usePostgres {
		db, err := dbx.Open(ctx, "pgx", c.DatabaseDSN, c.StoreTimeout)
		if err != nil {
			return nil, err
		}
		st.DB = db
		pg = repomanager.NewPostgresRepositoryManager()
		if err := pg.RunMigrations(ctx, db); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("migration error: %w", err)
		}
	}

	if c.StorageBackend == config.BackendPostgres {
		st.Manager = pg
		st.Runner = dbx.NewSQLTxRunner(st.DB, nil)
	} else {
		st.Manager = repomanager.NewMemoryRepositoryManager()
		st.Runner = dbx.DirectRunner{}
	}

	switch c.SessionBackend {
	case config.BackendPostgres:
		st.Sessions = pg.Sessions(st.DB)
	case config.BackendRedis:
		r, err := sessions.NewRedisRepository(ctx, c.RedisURL)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		st.Redis = r
		st.Sessions = r
	default:
		st.Sessions = sessions.NewMemoryRepository()
	}

	return st, nil
}

// LedgerDB is the read handle for the ledger services, nil for memory.
func (s *Stores) LedgerDB(c *config.Config) *sql.DB {
	if c.StorageBackend == config.BackendPostgres {
		return s.DB
	}
	return nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	st, err := OpenStores(ctx, c)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "stores ready", "storage", c.StorageBackend, "sessions", c.SessionBackend)

	db := st.LedgerDB(c)
	sm := services.NewSessionManager(st.Sessions, c.SessionTTL, c.StoreTimeout, logger)
	ledger := services.NewLedgerService(db, st.Runner, st.Manager, c, logger)
	users := services.NewUserService(db, st.Manager, sm, c.StoreTimeout, logger)
	limiter := httpapi.NewRateLimiter(c.LoginRatePerSecond, c.LoginBurst, logger)

	var health func(ctx context.Context) error
	if st.DB != nil {
		health = st.DB.PingContext
	}

	handler := httpapi.NewRouter(httpapi.RouterConfig{
		Ledger:         ledger,
		Accounts:       users,
		Sessions:       sm,
		TerminalSecret: []byte(c.TerminalSecret),
		LoginLimiter:   limiter,
		Health:         health,
		Logger:         logger,
	})

	return &App{
		config:   c,
		logger:   logger,
		db:       st.DB,
		redis:    st.Redis,
		sessions: sm,
		limiter:  limiter,
		server:   httpapi.NewServer(c.EndpointAddrHTTP, handler, c.ShutdownTimeout, logger),
	}, nil
}

// Run serves until SIGINT/SIGTERM/SIGQUIT or a server error, then shuts
// down and releases the stores.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sessions.RunJanitor(ctx, app.config.SessionSweepInterval)
	}()
	app.limiter.StartCleanup(ctx, app.config.SessionSweepInterval)

	errCh := make(chan error, 1)
	go func() { errCh <- app.server.ListenAndServe() }()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		stop()
	}

	if err := app.server.Shutdown(context.Background()); err != nil {
		app.logger.Error(ctx, "shutdown failed", "error", err)
	}
	wg.Wait()

	st := &Stores{DB: app.db, Redis: app.redis}
	if err := st.Close(); err != nil {
		app.logger.Error(ctx, "closing stores failed", "error", err)
	}

	app.logger.Info(context.Background(), "app stopped")
	return runErr
}
