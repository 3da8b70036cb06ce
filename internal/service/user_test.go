package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adrenaline_backend/internal/logger"
	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/state"
)

func TestUserService_Register(t *testing.T) {
	env := newTestEnv(t)
	st := state.NewMemoryState()
	svc := NewUserService(env.store, st, logger.Discard())
	ctx := context.Background()

	coach, err := svc.Register(ctx, "auth-1", RegisterInput{FirstName: "Pat", Email: "pat@x.io", AccountType: model.AccountCoach})
	require.NoError(t, err)
	require.NotNil(t, coach.CoachID)
	assert.Nil(t, coach.AthleteID)
	_, err = env.store.Coaches.GetByID(ctx, *coach.CoachID)
	require.NoError(t, err)

	v, ok, err := st.Get(ctx, "auth-1", state.KeySignupCompleted)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	athlete, err := svc.Register(ctx, "auth-2", RegisterInput{FirstName: "Sam", Email: "sam@x.io", AccountType: model.AccountAthlete})
	require.NoError(t, err)
	require.NotNil(t, athlete.AthleteID)

	_, err = svc.Register(ctx, "auth-3", RegisterInput{FirstName: "X", Email: "x@x.io", AccountType: "Judge"})
	assert.ErrorIs(t, err, model.ErrInvalidFieldValue)
}

func TestUserService_GetByEmail(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.store, nil, logger.Discard())
	ctx := context.Background()
	env.user(t, "u1", model.AccountAthlete)

	u, err := svc.GetByEmail(ctx, "U1@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = svc.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, env.store.Users.Save(ctx, &model.User{ID: "u1-dup", Email: "u1@example.com", AccountType: model.AccountSpectator}))
	_, err = svc.GetByEmail(ctx, "u1@example.com")
	assert.ErrorIs(t, err, model.ErrInvariantViolation)
}

func TestUserService_UpdateUserField(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.store, nil, logger.Discard())
	ctx := context.Background()
	env.user(t, "u1", model.AccountSpectator)

	users, err := svc.UpdateUserField(ctx, "u1@example.com", model.SetAccountType{Value: model.AccountCoach})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, model.AccountCoach, env.reload(t, "u1").AccountType)

	_, err = svc.UpdateUserField(ctx, "u1@example.com", model.SetFirstName{Value: ""})
	assert.Error(t, err)
	assert.Equal(t, "u1", env.reload(t, "u1").FirstName)

	_, err = svc.UpdateUserField(ctx, "ghost@example.com", model.SetLastName{Value: "x"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserService_UpdateAthleteField(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.store, nil, logger.Discard())
	ctx := context.Background()
	ath := env.user(t, "ath", model.AccountAthlete)
	fan := env.user(t, "fan", model.AccountSpectator)

	profile, err := svc.UpdateAthleteField(ctx, ath, model.SetGraduationYear{Value: 2026})
	require.NoError(t, err)
	require.NotNil(t, profile.GraduationYear)
	assert.Equal(t, 2026, *profile.GraduationYear)

	_, err = svc.UpdateAthleteField(ctx, fan, model.SetHometown{Value: "Austin"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}
