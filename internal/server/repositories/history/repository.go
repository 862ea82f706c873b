// Package history declares the append-only log of accepted deposits.
package history

import (
	"context"

	"github.com/dmitrijs2005/ecopoints/internal/server/models"
)

// Repository appends and reads deposit events. There is no update or
// delete: rows are immutable once written.
type Repository interface {
	// Append stores e and fills e.ID. Failures are always returned.
	Append(ctx context.Context, e *models.DepositEvent) (*models.DepositEvent, error)
	// ListByMember returns up to limit events for memberID, newest first.
	// A limit <= 0 returns every event.
	ListByMember(ctx context.Context, memberID int64, limit int) ([]*models.DepositEvent, error)
	CountByMember(ctx context.Context, memberID int64) (int64, error)
}
