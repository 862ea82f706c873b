package members

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dmitrijs2005/ecopoints/internal/common"
	"github.com/dmitrijs2005/ecopoints/internal/server/models"
)

// MemoryRepository is a process-local Repository. Each method is atomic
// under a single mutex.
type MemoryRepository struct {
	mu         sync.Mutex
	nextID     int64
	byID       map[int64]*models.Member
	byPhone    map[string]int64
	byUsername map[string]int64
}

// NewMemoryRepository returns an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[int64]*models.Member),
		byPhone:    make(map[string]int64),
		byUsername: make(map[string]int64),
	}
}

func (r *MemoryRepository) FindByPhone(ctx context.Context, phone string) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup(r.byPhone, phone)
}

func (r *MemoryRepository) FindByUsername(ctx context.Context, username string) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup(r.byUsername, username)
}

func (r *MemoryRepository) FindByPhoneOrUsername(ctx context.Context, phone, username string) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, err := r.lookup(r.byPhone, phone); err == nil {
		return m, nil
	}
	return r.lookup(r.byUsername, username)
}

func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *m
	return &c, nil
}

func (r *MemoryRepository) CreateMember(ctx context.Context, phone string, weight, points models.Quantity) (*models.Member, error) {
	return r.insert(&models.Member{Phone: phone, CumulativeWeight: weight, PointBalance: points})
}

func (r *MemoryRepository) CreateRegistered(ctx context.Context, m *models.Member) (*models.Member, error) {
	c := *m
	c.CumulativeWeight, c.PointBalance = 0, 0
	return r.insert(&c)
}

func (r *MemoryRepository) ApplyDeposit(ctx context.Context, phone string, weight, points models.Quantity) (*models.Balances, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byPhone[phone]
	if !ok {
		return nil, common.ErrorNotFound
	}
	m := r.byID[id]
	if m.CumulativeWeight > math.MaxInt64-weight || m.PointBalance > math.MaxInt64-points {
		return nil, fmt.Errorf("%w: balance overflow", common.ErrInvalidInput)
	}
	m.CumulativeWeight += weight
	m.PointBalance += points
	return &models.Balances{MemberID: m.ID, CumulativeWeight: m.CumulativeWeight, PointBalance: m.PointBalance}, nil
}

func (r *MemoryRepository) insert(m *models.Member) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byPhone[m.Phone]; taken {
		return nil, common.ErrDuplicateKey
	}
	if m.Username != "" {
		if _, taken := r.byUsername[m.Username]; taken {
			return nil, common.ErrDuplicateKey
		}
	}
	r.nextID++
	m.ID = r.nextID
	m.CreatedAt = time.Now().UTC()
	r.byID[m.ID] = m
	r.byPhone[m.Phone] = m.ID
	if m.Username != "" {
		r.byUsername[m.Username] = m.ID
	}
	c := *m
	return &c, nil
}

func (r *MemoryRepository) lookup(index map[string]int64, key string) (*models.Member, error) {
	id, ok := index[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *r.byID[id]
	return &c, nil
}
