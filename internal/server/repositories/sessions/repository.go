// Package sessions stores login sessions keyed by an opaque id.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ecopoints/internal/server/models"
)

// Repository persists sessions. Find and Touch return common.ErrorNotFound
// for ids the store does not hold.
type Repository interface {
	Create(ctx context.Context, s *models.Session) error
	Find(ctx context.Context, id string) (*models.Session, error)
	// Touch moves the expiry of an existing session to expiresAt.
	Touch(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes sessions that expired at or before now and
	// reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
