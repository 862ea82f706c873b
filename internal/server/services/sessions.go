package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ecopoints/internal/common"
	"github.com/dmitrijs2005/ecopoints/internal/logging"
	"github.com/dmitrijs2005/ecopoints/internal/server/metrics"
	"github.com/dmitrijs2005/ecopoints/internal/server/models"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/sessions"
)

// sessionIDBytes is the entropy of a session id before hex encoding.
const sessionIDBytes = 32

// SessionManager issues opaque session ids and validates them with sliding
// expiry: every successful validation pushes the expiry to now+ttl.
type SessionManager struct {
	repo         sessions.Repository
	ttl          time.Duration
	storeTimeout time.Duration
	now          func() time.Time
	newID        func() (string, error)
	log          logging.Logger
}

func NewSessionManager(repo sessions.Repository, ttl, storeTimeout time.Duration, log logging.Logger) *SessionManager {
	return &SessionManager{
		repo:         repo,
		ttl:          ttl,
		storeTimeout: storeTimeout,
		now:          time.Now,
		newID:        func() (string, error) { return common.MakeRandHexString(sessionIDBytes) },
		log:          log.With("module", "sessions"),
	}
}

// Issue creates a session bound to member.
func (m *SessionManager) Issue(ctx context.Context, member models.MemberRef) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()

	for attempt := 0; attempt < 2; attempt++ {
		id, err := m.newID()
		if err != nil {
			return nil, fmt.Errorf("%w: session id: %v", common.ErrorInternal, err)
		}
		now := m.now()
		s := &models.Session{ID: id, Member: member, CreatedAt: now, ExpiresAt: now.Add(m.ttl)}

		err = m.repo.Create(ctx, s)
		if err == nil {
			m.log.Info(ctx, "session issued", "member_id", member.ID, "session", logging.Redact(id))
			return s, nil
		}
		if !errors.Is(err, common.ErrDuplicateKey) {
			return nil, storeError(err)
		}
	}
	return nil, fmt.Errorf("%w: session id collision", common.ErrorInternal)
}

// Validate returns the session for id or common.ErrUnauthenticated when id is
// empty, unknown or expired.
func (m *SessionManager) Validate(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, common.ErrUnauthenticated
	}
	ctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()

	s, err := m.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, storeError(err)
	}

	now := m.now()
	if s.Expired(now) {
		if err := m.repo.Delete(ctx, id); err != nil {
			m.log.Warn(ctx, "failed to delete expired session", "session", logging.Redact(id), "error", err)
		}
		return nil, common.ErrUnauthenticated
	}

	expiresAt := now.Add(m.ttl)
	if err := m.repo.Touch(ctx, id, expiresAt); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		m.log.Warn(ctx, "failed to extend session", "session", logging.Redact(id), "error", err)
	} else {
		s.ExpiresAt = expiresAt
	}
	return s, nil
}

// Destroy removes the session. Unknown ids are ignored.
func (m *SessionManager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()

	if err := m.repo.Delete(ctx, id); err != nil {
		return storeError(err)
	}
	m.log.Info(ctx, "session destroyed", "session", logging.Redact(id))
	return nil
}

// Sweep deletes expired sessions once.
func (m *SessionManager) Sweep(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()

	n, err := m.repo.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, storeError(err)
	}
	metrics.RecordSessionsExpired(n)
	return n, nil
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (m *SessionManager) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Sweep(ctx)
			if err != nil {
				m.log.Warn(ctx, "session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				m.log.Debug(ctx, "expired sessions removed", "count", n)
			}
		}
	}
}
