package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adrenaline_backend/internal/model"
)

func TestUsers_CopyOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()

	u := &model.User{ID: "u1", FirstName: "Al", FavoritesIDs: []string{"a"}}
	require.NoError(t, repos.Users.Save(ctx, u))

	u.FavoritesIDs[0] = "mutated"
	got, err := repos.Users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.FavoritesIDs)

	got.FavoritesIDs[0] = "also-mutated"
	again, _ := repos.Users.GetByID(ctx, "u1")
	assert.Equal(t, []string{"a"}, again.FavoritesIDs)
}

func TestUsers_SaveKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()

	u := &model.User{ID: "u1"}
	require.NoError(t, repos.Users.Save(ctx, u))
	created := u.CreatedAt

	u.FirstName = "changed"
	require.NoError(t, repos.Users.Save(ctx, u))
	assert.Equal(t, created, u.CreatedAt)
}

func TestUsers_GetByIDsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, repos.Users.Save(ctx, &model.User{ID: id}))
	}

	got, err := repos.Users.GetByIDs(ctx, []string{"a", "b", "c", "a", "zz"})
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, u := range got {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestUsers_FindByFavoriteAndEmail(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()
	require.NoError(t, repos.Users.Save(ctx, &model.User{ID: "f1", Email: "F1@x.io", FavoritesIDs: []string{"t"}}))
	require.NoError(t, repos.Users.Save(ctx, &model.User{ID: "f2", Email: "f2@x.io", FavoritesIDs: []string{"other"}}))

	fans, err := repos.Users.FindByFavorite(ctx, "t")
	require.NoError(t, err)
	require.Len(t, fans, 1)
	assert.Equal(t, "f1", fans[0].ID)

	byEmail, err := repos.Users.FindByEmail(ctx, "f1@X.io")
	require.NoError(t, err)
	assert.Len(t, byEmail, 1)
}

func TestDelete_MissingIsNotFound(t *testing.T) {
	repos := New().Repositories()
	err := repos.Posts.Delete(context.Background(), "nope")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestCounts(t *testing.T) {
	ctx := context.Background()
	s := New()
	repos := s.Repositories()
	require.NoError(t, repos.Posts.Save(ctx, &model.Post{ID: "p1", UserID: "u1"}))
	require.NoError(t, repos.Media.Save(ctx, &model.Media{ID: "m1", PostID: "p1", Kind: model.MediaImage}))

	counts := s.Counts()
	assert.Equal(t, 1, counts["posts"])
	assert.Equal(t, 1, counts["post_media"])
	assert.Equal(t, 0, counts["users"])
}
