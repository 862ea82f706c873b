package dbx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	db, err := Open(context.Background(), "sqlite", ":memory:", time.Second)
	require.NoError(t, err)
	assert.NoError(t, db.Close())

	_, err = Open(context.Background(), "no-such-driver", "", time.Second)
	assert.ErrorContains(t, err, "db open error")
}
