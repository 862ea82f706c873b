package history

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ecopoints/internal/dbx"
	"github.com/dmitrijs2005/ecopoints/internal/server/models"
)

// PostgresRepository stores deposit events in the deposit_events table.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, e *models.DepositEvent) (*models.DepositEvent, error) {
	query :=
		`INSERT INTO deposit_events (member_id, weight_amount, points_earned, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `
	err := r.db.QueryRowContext(ctx, query,
		e.MemberID, int64(e.WeightAmount), int64(e.PointsEarned), e.CreatedAt).Scan(&e.ID)
	if err != nil {
		return nil, dbx.Wrap(err)
	}
	return e, nil
}

func (r *PostgresRepository) ListByMember(ctx context.Context, memberID int64, limit int) ([]*models.DepositEvent, error) {
	query :=
		`SELECT id, member_id, weight_amount, points_earned, created_at
		 FROM deposit_events
		 WHERE member_id = $1
		 ORDER BY created_at DESC, id DESC
		 `
	args := []any{memberID}
	if limit > 0 {
		query += `LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.Wrap(err)
	}
	defer rows.Close()

	var events []*models.DepositEvent
	for rows.Next() {
		var (
			e              models.DepositEvent
			weight, points int64
		)
		if err := rows.Scan(&e.ID, &e.MemberID, &weight, &points, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		e.WeightAmount = models.Quantity(weight)
		e.PointsEarned = models.Quantity(points)
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Wrap(err)
	}
	return events, nil
}

func (r *PostgresRepository) CountByMember(ctx context.Context, memberID int64) (int64, error) {
	query :=
		`SELECT COUNT(*) FROM deposit_events
		 WHERE member_id = $1
		 `
	var n int64
	if err := r.db.QueryRowContext(ctx, query, memberID).Scan(&n); err != nil {
		return 0, dbx.Wrap(err)
	}
	return n, nil
}
