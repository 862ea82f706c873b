package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/ecopoints/internal/cryptox"
	"github.com/dmitrijs2005/ecopoints/internal/dbx"
	"github.com/dmitrijs2005/ecopoints/internal/logging"
	"github.com/dmitrijs2005/ecopoints/internal/server/config"
	"github.com/dmitrijs2005/ecopoints/internal/server/models"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/history"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/members"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/sessions"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	cryptox.Cost = bcrypt.MinCost
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StorageBackend = config.BackendMemory
	cfg.StoreTimeout = time.Second
	return cfg
}

// stubManager hands out fixed repositories regardless of the handle.
type stubManager struct {
	members  members.Repository
	history  history.Repository
	sessions sessions.Repository
}

func newMemoryStubManager() *stubManager {
	return &stubManager{
		members:  members.NewMemoryRepository(),
		history:  history.NewMemoryRepository(),
		sessions: sessions.NewMemoryRepository(),
	}
}

func (m *stubManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *stubManager) Members(dbx.DBTX) members.Repository      { return m.members }
func (m *stubManager) History(dbx.DBTX) history.Repository      { return m.history }
func (m *stubManager) Sessions(dbx.DBTX) sessions.Repository    { return m.sessions }

// failingHistory rejects every append.
type failingHistory struct {
	history.Repository
	err error
}

func (f *failingHistory) Append(context.Context, *models.DepositEvent) (*models.DepositEvent, error) {
	return nil, f.err
}

// blockingMembers waits for the context on every increment.
type blockingMembers struct {
	members.Repository
}

func (b *blockingMembers) ApplyDeposit(ctx context.Context, phone string, weight, points models.Quantity) (*models.Balances, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// racingMembers reports the phone as unknown on the first increment, as if
// another request created the member in between.
type racingMembers struct {
	members.Repository
	calls int
}

func (r *racingMembers) ApplyDeposit(ctx context.Context, phone string, weight, points models.Quantity) (*models.Balances, error) {
	r.calls++
	if r.calls == 1 {
		return nil, errNotFoundForRace
	}
	return r.Repository.ApplyDeposit(ctx, phone, weight, points)
}

func discardLogger() logging.Logger { return logging.Discard() }
