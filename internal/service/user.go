package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/repository"
	"adrenaline_backend/internal/state"
)

// UserService handles business logic for user operations
type UserService struct {
	users    repository.UserRepository
	coaches  repository.CoachRepository
	athletes repository.AthleteRepository
	state    state.LocalState
	log      *logrus.Entry
}

func NewUserService(store *repository.Store, localState state.LocalState, log *logrus.Entry) *UserService {
	return &UserService{
		users:    store.Users,
		coaches:  store.Coaches,
		athletes: store.Athletes,
		state:    localState,
		log:      log,
	}
}

type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	AccountType model.AccountType
}

// Register creates the user record for an auth identity, with the athlete or
// coach profile its account type needs, and marks signup complete.
func (s *UserService) Register(ctx context.Context, authUserID string, in RegisterInput) (*model.User, error) {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.Email) == "" {
		return nil, fmt.Errorf("first name and email are required: %w", model.ErrInvalidFieldValue)
	}
	if !in.AccountType.Valid() {
		return nil, fmt.Errorf("account type %q: %w", in.AccountType, model.ErrInvalidFieldValue)
	}

	user := &model.User{
		ID:          authUserID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		AccountType: in.AccountType,
	}

	switch in.AccountType {
	case model.AccountCoach:
		coach := &model.CoachProfile{ID: uuid.NewString(), UserID: user.ID}
		if err := s.coaches.Save(ctx, coach); err != nil {
			return nil, fmt.Errorf("save coach profile: %w", err)
		}
		user.CoachID = &coach.ID
	case model.AccountAthlete:
		athlete := &model.AthleteProfile{ID: uuid.NewString(), UserID: user.ID}
		if err := s.athletes.Save(ctx, athlete); err != nil {
			return nil, fmt.Errorf("save athlete profile: %w", err)
		}
		user.AthleteID = &athlete.ID
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	if s.state != nil {
		if err := s.state.Set(ctx, user.ID, state.KeySignupCompleted, "true"); err != nil {
			s.log.WithField("user", user.ID).WithError(err).Warn("Marking signup complete failed")
		}
	}

	s.log.WithFields(logrus.Fields{"user": user.ID, "type": user.AccountType}).Info("Register OK")
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetByEmail requires exactly one user with the email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find by email: %w", err)
	}
	switch len(users) {
	case 0:
		return nil, model.ErrNotFound
	case 1:
		return &users[0], nil
	default:
		return nil, fmt.Errorf("%d users with email %s: %w", len(users), email, model.ErrInvariantViolation)
	}
}

// UpdateUserField applies one field update to every user with the email.
func (s *UserService) UpdateUserField(ctx context.Context, email string, update model.UserFieldUpdate) ([]model.User, error) {
	users, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find by email: %w", err)
	}
	if len(users) == 0 {
		return nil, model.ErrNotFound
	}

	for i := range users {
		if err := model.ApplyUserUpdate(&users[i], update); err != nil {
			return nil, err
		}
		if err := s.users.Save(ctx, &users[i]); err != nil {
			return nil, fmt.Errorf("save user: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{"field": update.Field(), "users": len(users)}).Info("UpdateUserField OK")
	return users, nil
}

// UpdateAthleteField applies one field update to the user's athlete profile.
func (s *UserService) UpdateAthleteField(ctx context.Context, user *model.User, update model.AthleteFieldUpdate) (*model.AthleteProfile, error) {
	if user.AthleteID == nil {
		return nil, fmt.Errorf("user %s has no athlete profile: %w", user.ID, model.ErrNotFound)
	}

	athlete, err := s.athletes.GetByID(ctx, *user.AthleteID)
	if err != nil {
		return nil, fmt.Errorf("get athlete: %w", err)
	}
	if err := model.ApplyAthleteUpdate(athlete, update); err != nil {
		return nil, err
	}
	if err := s.athletes.Save(ctx, athlete); err != nil {
		return nil, fmt.Errorf("save athlete: %w", err)
	}
	return athlete, nil
}
