package history

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/ecopoints/internal/server/models"
)

// MemoryRepository keeps the log in process memory.
type MemoryRepository struct {
	mu       sync.Mutex
	nextID   int64
	byMember map[int64][]models.DepositEvent
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byMember: make(map[int64][]models.DepositEvent)}
}

// Append keeps per-member timestamps non-decreasing: an event stamped
// before the member's latest one takes the latest timestamp instead.
func (r *MemoryRepository) Append(ctx context.Context, e *models.DepositEvent) (*models.DepositEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.byMember[e.MemberID]
	if n := len(events); n > 0 && e.CreatedAt.Before(events[n-1].CreatedAt) {
		e.CreatedAt = events[n-1].CreatedAt
	}
	r.nextID++
	e.ID = r.nextID
	r.byMember[e.MemberID] = append(events, *e)
	return e, nil
}

func (r *MemoryRepository) ListByMember(ctx context.Context, memberID int64, limit int) ([]*models.DepositEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.byMember[memberID]
	n := len(events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*models.DepositEvent, 0, n)
	for i := len(events) - 1; i >= 0 && len(out) < n; i-- {
		e := events[i]
		out = append(out, &e)
	}
	return out, nil
}

func (r *MemoryRepository) CountByMember(ctx context.Context, memberID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byMember[memberID])), nil
}
