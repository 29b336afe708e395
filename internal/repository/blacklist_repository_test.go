package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBlacklistNoShowCounting(t *testing.T) {
	repo := NewMemoryBlacklistRepository()
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		count, err := repo.RegisterNoShow(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}

	// Counters are per identity.
	count, err := repo.RegisterNoShow(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryBlacklistBanLifecycle(t *testing.T) {
	repo := NewMemoryBlacklistRepository()
	ctx := context.Background()

	until, err := repo.BlacklistedUntil(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, until)

	deadline := time.Now().Add(time.Hour)
	require.NoError(t, repo.Blacklist(ctx, "user-1", deadline))

	until, err = repo.BlacklistedUntil(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, until)
	assert.WithinDuration(t, deadline, *until, time.Second)

	// Banning resets the no-show counter.
	count, err := repo.RegisterNoShow(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryBlacklistExpiredBan(t *testing.T) {
	repo := NewMemoryBlacklistRepository()
	ctx := context.Background()

	require.NoError(t, repo.Blacklist(ctx, "user-1", time.Now().Add(-time.Minute)))

	until, err := repo.BlacklistedUntil(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, until)
}
