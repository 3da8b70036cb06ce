package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adrenaline_backend/internal/model"
)

type eventuallyVisible struct {
	calls   int
	visible int
	err     error
}

func (e *eventuallyVisible) GetByID(_ context.Context, id string) (*model.User, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if e.calls < e.visible {
		return nil, model.ErrNotFound
	}
	return &model.User{ID: id}, nil
}

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestWaitForUser(t *testing.T) {
	ctx := context.Background()

	g := &eventuallyVisible{visible: 3}
	u, err := WaitForUser(ctx, g, "u1", fastPolicy(5))
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, 3, g.calls)

	g = &eventuallyVisible{visible: 10}
	_, err = WaitForUser(ctx, g, "u1", fastPolicy(3))
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, 3, g.calls)

	g = &eventuallyVisible{err: errStoreDown}
	_, err = WaitForUser(ctx, g, "u1", fastPolicy(3))
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 1, g.calls, "only not-found is retried")
}

func TestWaitForUser_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := &eventuallyVisible{visible: 10}
	_, err := WaitForUser(ctx, g, "u1", RetryPolicy{Attempts: 5, InitialDelay: time.Hour})
	assert.ErrorIs(t, err, context.Canceled)
}
