package service

import (
	"context"
	"errors"
	"time"

	"adrenaline_backend/internal/model"
)

// RetryPolicy is capped exponential backoff.
type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 5, InitialDelay: 200 * time.Millisecond, MaxDelay: 3 * time.Second}
}

type userGetter interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// WaitForUser polls for a just-created user until it becomes visible.
// Only model.ErrNotFound is retried.
func WaitForUser(ctx context.Context, users userGetter, id string, policy RetryPolicy) (*model.User, error) {
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}

	delay := policy.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		user, err := users.GetByID(ctx, id)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		lastErr = err

		if attempt == policy.Attempts {
			break
		}
		if err := sleepContext(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return nil, lastErr
}
