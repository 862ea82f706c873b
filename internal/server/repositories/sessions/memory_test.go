package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ecopoints/internal/common"
	"github.com/dmitrijs2005/ecopoints/internal/server/models"
)

func TestMemoryRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	now := time.Now()

	s := &models.Session{ID: "a", Member: models.MemberRef{ID: 1, Username: "u"}, CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, r.Create(ctx, s))
	assert.ErrorIs(t, r.Create(ctx, s), common.ErrDuplicateKey)

	got, err := r.Find(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "u", got.Member.Username)

	later := now.Add(time.Hour)
	require.NoError(t, r.Touch(ctx, "a", later))
	got, _ = r.Find(ctx, "a")
	assert.Equal(t, later, got.ExpiresAt)

	assert.ErrorIs(t, r.Touch(ctx, "b", later), common.ErrorNotFound)

	require.NoError(t, r.Delete(ctx, "a"))
	_, err = r.Find(ctx, "a")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	now := time.Now()

	require.NoError(t, r.Create(ctx, &models.Session{ID: "old", ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, r.Create(ctx, &models.Session{ID: "edge", ExpiresAt: now}))
	require.NoError(t, r.Create(ctx, &models.Session{ID: "new", ExpiresAt: now.Add(time.Minute)}))

	n, err := r.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = r.Find(ctx, "new")
	assert.NoError(t, err)
}
