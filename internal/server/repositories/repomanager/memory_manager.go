package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/ecopoints/internal/dbx"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/history"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/members"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/sessions"
)

// MemoryRepositoryManager hands out the same process-local stores for every
// handle; the db argument is ignored. Pair it with dbx.DirectRunner.
type MemoryRepositoryManager struct {
	members  *members.MemoryRepository
	history  *history.MemoryRepository
	sessions *sessions.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		members:  members.NewMemoryRepository(),
		history:  history.NewMemoryRepository(),
		sessions: sessions.NewMemoryRepository(),
	}
}

// RunMigrations has nothing to do for in-memory stores.
func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Members(dbx.DBTX) members.Repository   { return m.members }
func (m *MemoryRepositoryManager) History(dbx.DBTX) history.Repository   { return m.history }
func (m *MemoryRepositoryManager) Sessions(dbx.DBTX) sessions.Repository { return m.sessions }
