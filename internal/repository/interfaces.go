package repository

import (
	"context"

	"adrenaline_backend/internal/model"
)

// Point lookups return model.ErrNotFound when the id is absent. Batch lookups
// return matching rows in store order, each at most once; callers that need
// input order reorder themselves.

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.User, error)
	FindByEmail(ctx context.Context, email string) ([]model.User, error)
	// FindByFavorite returns every user whose favorites list contains userID.
	FindByFavorite(ctx context.Context, userID string) ([]model.User, error)
	Save(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

type CoachRepository interface {
	GetByID(ctx context.Context, id string) (*model.CoachProfile, error)
	Save(ctx context.Context, coach *model.CoachProfile) error
	Delete(ctx context.Context, id string) error
}

type AthleteRepository interface {
	GetByID(ctx context.Context, id string) (*model.AthleteProfile, error)
	Save(ctx context.Context, athlete *model.AthleteProfile) error
	Delete(ctx context.Context, id string) error
}

type TeamRepository interface {
	GetByID(ctx context.Context, id string) (*model.Team, error)
	Save(ctx context.Context, team *model.Team) error
}

type CollegeRepository interface {
	GetByID(ctx context.Context, id string) (*model.College, error)
	Save(ctx context.Context, college *model.College) error
}

type EventRepository interface {
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Save(ctx context.Context, event *model.Event) error
}

type DiveRepository interface {
	ListByAthlete(ctx context.Context, athleteID string) ([]model.Dive, error)
	Save(ctx context.Context, dive *model.Dive) error
	Delete(ctx context.Context, id string) error
}

type JudgeScoreRepository interface {
	ListByDive(ctx context.Context, diveID string) ([]model.JudgeScore, error)
	Save(ctx context.Context, score *model.JudgeScore) error
	Delete(ctx context.Context, id string) error
}

type PostRepository interface {
	GetByID(ctx context.Context, id string) (*model.Post, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Post, error)
	ListByAuthor(ctx context.Context, userID string) ([]model.Post, error)
	ListByAuthors(ctx context.Context, userIDs []string) ([]model.Post, error)
	Save(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error
}

type MediaRepository interface {
	ListByPost(ctx context.Context, postID string) ([]model.Media, error)
	Save(ctx context.Context, media *model.Media) error
	Delete(ctx context.Context, id string) error
}

type SavedPostRepository interface {
	ListByPost(ctx context.Context, postID string) ([]model.UserSavedPost, error)
	ListByUser(ctx context.Context, userID string) ([]model.UserSavedPost, error)
	Save(ctx context.Context, saved *model.UserSavedPost) error
	Delete(ctx context.Context, id string) error
}

type MessageRepository interface {
	GetByIDs(ctx context.Context, ids []string) ([]model.Message, error)
	Save(ctx context.Context, msg *model.Message) error
	Delete(ctx context.Context, id string) error
}

type MessageLinkRepository interface {
	ListByUser(ctx context.Context, userID string) ([]model.MessageNewUser, error)
	ListByMessage(ctx context.Context, messageID string) ([]model.MessageNewUser, error)
	Save(ctx context.Context, link *model.MessageNewUser) error
	Delete(ctx context.Context, id string) error
}

// Store groups the typed repositories backed by one object store.
type Store struct {
	Users        UserRepository
	Coaches      CoachRepository
	Athletes     AthleteRepository
	Teams        TeamRepository
	Colleges     CollegeRepository
	Events       EventRepository
	Dives        DiveRepository
	JudgeScores  JudgeScoreRepository
	Posts        PostRepository
	Media        MediaRepository
	SavedPosts   SavedPostRepository
	Messages     MessageRepository
	MessageLinks MessageLinkRepository
}
