// Package members declares the Ledger Store: member identity plus the
// per-member running totals, keyed uniquely by phone number.
package members

import (
	"context"

	"github.com/dmitrijs2005/ecopoints/internal/server/models"
)

// Repository persists members and their balances.
//
// Lookups return common.ErrorNotFound when no member matches. Creation
// returns common.ErrDuplicateKey when the phone (or username) is taken;
// the uniqueness check is enforced by the store, so one of two racing
// creations for the same phone always loses.
type Repository interface {
	FindByPhone(ctx context.Context, phone string) (*models.Member, error)
	FindByUsername(ctx context.Context, username string) (*models.Member, error)
	// FindByPhoneOrUsername returns any member whose phone or username matches.
	FindByPhoneOrUsername(ctx context.Context, phone, username string) (*models.Member, error)
	GetByID(ctx context.Context, id int64) (*models.Member, error)

	// CreateMember inserts a phone-only member whose first deposit is weight/points.
	CreateMember(ctx context.Context, phone string, weight, points models.Quantity) (*models.Member, error)
	// CreateRegistered inserts a member with credentials and profile and zero balances.
	CreateRegistered(ctx context.Context, m *models.Member) (*models.Member, error)

	// ApplyDeposit adds weight and points to the member's running totals as
	// one relative increment and returns the totals after it.
	ApplyDeposit(ctx context.Context, phone string, weight, points models.Quantity) (*models.Balances, error)
}
