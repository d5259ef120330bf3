package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_ExclusiveUntilRelease(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "sync", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "sync", time.Minute)
	assert.True(t, errors.Is(err, ErrLocked))

	other, err := l.Acquire(ctx, "score", time.Minute)
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := l.Acquire(ctx, "sync", time.Minute)
	require.NoError(t, err)
	again()
}

func TestLocal_ExpiredLockCanBeRetaken(t *testing.T) {
	now := time.Date(2024, 3, 2, 3, 0, 0, 0, time.UTC)
	l := NewLocal()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	staleRelease, err := l.Acquire(ctx, "sync", time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	release, err := l.Acquire(ctx, "sync", time.Minute)
	require.NoError(t, err)

	// The stale holder must not free the new holder's lock
	staleRelease()
	_, err = l.Acquire(ctx, "sync", time.Minute)
	assert.True(t, errors.Is(err, ErrLocked))

	release()
}
