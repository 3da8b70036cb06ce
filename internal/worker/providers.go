package worker

import (
	"context"
	"fmt"
	"sort"

	"adrenaline_backend/internal/cache"
	"adrenaline_backend/internal/repository"
)

// FollowerProvider returns the ids of users whose favorites contain userID.
type FollowerProvider interface {
	GetFollowerIDs(ctx context.Context, userID string) ([]string, error)
}

// RecentPostsProvider returns an author's newest posts as cache entries.
type RecentPostsProvider interface {
	GetRecentPostsByUser(ctx context.Context, userID string, limit int) ([]cache.PostScore, error)
}

// StoreProviders backs both providers with the object store.
type StoreProviders struct {
	users repository.UserRepository
	posts repository.PostRepository
}

func NewStoreProviders(store *repository.Store) *StoreProviders {
	return &StoreProviders{users: store.Users, posts: store.Posts}
}

func (p *StoreProviders) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	followers, err := p.users.FindByFavorite(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find followers: %w", err)
	}
	ids := make([]string, 0, len(followers))
	for _, f := range followers {
		ids = append(ids, f.ID)
	}
	return ids, nil
}

func (p *StoreProviders) GetRecentPostsByUser(ctx context.Context, userID string, limit int) ([]cache.PostScore, error) {
	posts, err := p.posts.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreationDate.After(posts[j].CreationDate)
	})
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}

	scores := make([]cache.PostScore, 0, len(posts))
	for _, post := range posts {
		scores = append(scores, cache.PostScore{PostID: post.ID, Timestamp: post.CreationDate.UnixMilli()})
	}
	return scores, nil
}
