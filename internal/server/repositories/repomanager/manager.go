// Package repomanager vends repository implementations for one storage
// backend, bound to whatever handle the caller runs in (a *sql.DB, a
// *sql.Tx, or nil for in-memory stores).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/ecopoints/internal/dbx"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/history"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/members"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/sessions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Members(db dbx.DBTX) members.Repository
	History(db dbx.DBTX) history.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
