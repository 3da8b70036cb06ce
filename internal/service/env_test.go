package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"adrenaline_backend/internal/logger"
	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/queue"
	"adrenaline_backend/internal/repository"
	"adrenaline_backend/internal/repository/memory"
	"adrenaline_backend/internal/storage"
)

var errStoreDown = errors.New("store unavailable")

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.FeedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, e queue.FeedEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return "0-1", nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	mem       *memory.Store
	store     *repository.Store
	blobs     *storage.MemoryStore
	publisher *recordingPublisher
	resolver  *Resolver
	graph     *SocialGraph
	feed      *Feed
	purger    *Purger
	posts     *PostService
	messages  *MessageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := memory.New()
	return newTestEnvWithStore(t, mem, mem.Repositories())
}

// newTestEnvWithStore wires services over store, which may wrap mem's
// repositories to inject failures.
func newTestEnvWithStore(t *testing.T, mem *memory.Store, store *repository.Store) *testEnv {
	t.Helper()
	log := logger.Discard()
	env := &testEnv{
		mem:       mem,
		store:     store,
		blobs:     storage.NewMemoryStore(),
		publisher: &recordingPublisher{},
	}
	env.resolver = NewResolver(store.Users, log)
	env.graph = NewSocialGraph(store.Users, store.Coaches, env.resolver, env.publisher, log)
	env.feed = NewFeed(store.Posts, env.resolver, log)
	env.purger = NewPurger(store, env.blobs, env.graph, env.publisher, log)
	env.posts = NewPostService(store, env.blobs, env.publisher, log)
	env.messages = NewMessageService(store, log)
	return env
}

func (e *testEnv) user(t *testing.T, id string, kind model.AccountType) *model.User {
	t.Helper()
	ctx := context.Background()
	u := &model.User{ID: id, FirstName: id, Email: id + "@example.com", AccountType: kind}
	switch kind {
	case model.AccountCoach:
		coach := &model.CoachProfile{ID: "coach-" + id, UserID: id}
		require.NoError(t, e.store.Coaches.Save(ctx, coach))
		u.CoachID = &coach.ID
	case model.AccountAthlete:
		athlete := &model.AthleteProfile{ID: "athlete-" + id, UserID: id}
		require.NoError(t, e.store.Athletes.Save(ctx, athlete))
		u.AthleteID = &athlete.ID
	}
	require.NoError(t, e.store.Users.Save(ctx, u))
	return u
}

func (e *testEnv) post(t *testing.T, id, authorID string, at time.Time) model.Post {
	t.Helper()
	p := model.Post{ID: id, UserID: authorID, CreationDate: at}
	require.NoError(t, e.store.Posts.Save(context.Background(), &p))
	return p
}

func (e *testEnv) reload(t *testing.T, id string) *model.User {
	t.Helper()
	u, err := e.store.Users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (e *testEnv) coachOrder(t *testing.T, u *model.User) []int {
	t.Helper()
	c, err := e.store.Coaches.GetByID(context.Background(), *u.CoachID)
	require.NoError(t, err)
	return c.FavoritesOrder
}

// Failure-injecting repositories. Unset funcs fall through to the embedded repo.

type faultyUsers struct {
	repository.UserRepository
	getByID  func(ctx context.Context, id string) (*model.User, error)
	getByIDs func(ctx context.Context, ids []string) ([]model.User, error)
}

func (f faultyUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	if f.getByID != nil {
		return f.getByID(ctx, id)
	}
	return f.UserRepository.GetByID(ctx, id)
}

func (f faultyUsers) GetByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if f.getByIDs != nil {
		return f.getByIDs(ctx, ids)
	}
	return f.UserRepository.GetByIDs(ctx, ids)
}

type faultyPosts struct {
	repository.PostRepository
	err error
}

func (f faultyPosts) ListByAuthor(context.Context, string) ([]model.Post, error)     { return nil, f.err }
func (f faultyPosts) ListByAuthors(context.Context, []string) ([]model.Post, error) { return nil, f.err }

type faultyMessages struct {
	repository.MessageRepository
	err error
}

func (f faultyMessages) Delete(context.Context, string) error { return f.err }

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
