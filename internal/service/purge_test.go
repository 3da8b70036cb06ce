package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/queue"
	"adrenaline_backend/internal/repository/memory"
	"adrenaline_backend/internal/storage"
)

// purgeScenario builds an athlete "victim" with two posts (one saved by
// "saver"), one conversation with "friend", competition history, and two
// followers: a spectator and a coach who ordered them among other athletes.
func purgeScenario(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()

	victim := env.user(t, "victim", model.AccountAthlete)
	saver := env.user(t, "saver", model.AccountSpectator)
	friend := env.user(t, "friend", model.AccountSpectator)
	coach := env.user(t, "coach", model.AccountCoach)
	env.user(t, "other", model.AccountAthlete)
	env.post(t, "other-post", "other", t0)

	require.NoError(t, env.store.Teams.Save(ctx, &model.Team{ID: "team", AthleteIDs: []string{"athlete-victim", "athlete-x"}}))
	require.NoError(t, env.store.Colleges.Save(ctx, &model.College{ID: "college", AthleteIDs: []string{"athlete-victim"}}))
	athlete, err := env.store.Athletes.GetByID(ctx, *victim.AthleteID)
	require.NoError(t, err)
	team, college := "team", "college"
	athlete.TeamID, athlete.CollegeID = &team, &college
	require.NoError(t, env.store.Athletes.Save(ctx, athlete))

	require.NoError(t, env.store.Events.Save(ctx, &model.Event{ID: "event", DiveIDs: []string{"dive", "dive-x"}}))
	require.NoError(t, env.store.Dives.Save(ctx, &model.Dive{ID: "dive", AthleteID: athlete.ID, EventID: "event"}))
	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, env.store.JudgeScores.Save(ctx, &model.JudgeScore{ID: id, DiveID: "dive", Score: 7.5}))
	}

	p1, err := env.posts.Create(ctx, victim, CreatePostInput{Media: []MediaUpload{
		{Kind: model.MediaVideo, Data: []byte("mp4")},
		{Kind: model.MediaImage, Data: []byte("jpg")},
	}})
	require.NoError(t, err)
	_, err = env.posts.Create(ctx, victim, CreatePostInput{})
	require.NoError(t, err)
	_, err = env.posts.SavePost(ctx, saver, p1.ID)
	require.NoError(t, err)
	_, err = env.posts.SavePost(ctx, env.reload(t, "victim"), "other-post")
	require.NoError(t, err)

	_, err = env.messages.Send(ctx, victim, friend.ID, "hi")
	require.NoError(t, err)
	_, err = env.messages.Send(ctx, friend, victim.ID, "hello back")
	require.NoError(t, err)
	_, err = env.messages.Send(ctx, friend, saver.ID, "unrelated")
	require.NoError(t, err)

	_, err = env.graph.Follow(ctx, env.reload(t, "saver"), "victim")
	require.NoError(t, err)
	c, err := env.graph.Follow(ctx, coach, "other")
	require.NoError(t, err)
	c, err = env.graph.Follow(ctx, c, "victim")
	require.NoError(t, err)
	_, err = env.graph.ReorderFavorites(ctx, c, []int{1, 0})
	require.NoError(t, err)

	require.NoError(t, env.blobs.Upload(ctx, storage.ProfilePictureKey("victim"), []byte("pic"), storage.ContentTypeJPEG))
}

func TestPurge_Completeness(t *testing.T) {
	env := newTestEnv(t)
	purgeScenario(t, env)
	ctx := context.Background()

	report, err := env.purger.Purge(ctx, "victim")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Posts)
	assert.Equal(t, 2, report.Media)
	assert.Equal(t, 2, report.SavedPosts, "one bookmark on the victim's post, one held by the victim")
	assert.Equal(t, 2, report.Messages)
	assert.Equal(t, 4, report.MessageLinks)
	assert.Equal(t, 2, report.FavoritesOf)
	assert.Equal(t, 1, report.Dives)
	assert.Equal(t, 3, report.JudgeScores)
	assert.True(t, report.AthleteProfile)

	_, err = env.store.Users.GetByID(ctx, "victim")
	assert.ErrorIs(t, err, model.ErrNotFound)

	posts, err := env.store.Posts.ListByAuthor(ctx, "victim")
	require.NoError(t, err)
	assert.Empty(t, posts)

	saver := env.reload(t, "saver")
	assert.Empty(t, saver.SavedPostIDs)
	saved, err := env.store.SavedPosts.ListByUser(ctx, "saver")
	require.NoError(t, err)
	assert.Empty(t, saved)
	saved, err = env.store.SavedPosts.ListByUser(ctx, "victim")
	require.NoError(t, err)
	assert.Empty(t, saved)
	saved, err = env.store.SavedPosts.ListByPost(ctx, "other-post")
	require.NoError(t, err)
	assert.Empty(t, saved)
	_, err = env.store.Posts.GetByID(ctx, "other-post")
	assert.NoError(t, err, "other authors' posts survive")

	convo, err := env.messages.Conversation(ctx, "friend", "victim")
	require.NoError(t, err)
	assert.Empty(t, convo)
	friendLinks, err := env.store.MessageLinks.ListByUser(ctx, "friend")
	require.NoError(t, err)
	assert.Len(t, friendLinks, 1, "only the unrelated conversation survives")

	for _, id := range []string{"saver", "coach", "friend", "other"} {
		assert.NotContains(t, env.reload(t, id).FavoritesIDs, "victim", id)
	}
	coach := env.reload(t, "coach")
	assert.Equal(t, []string{"other"}, coach.FavoritesIDs)
	assert.Equal(t, []int{0}, env.coachOrder(t, coach))

	team, err := env.store.Teams.GetByID(ctx, "team")
	require.NoError(t, err)
	assert.Equal(t, []string{"athlete-x"}, team.AthleteIDs)
	college, err := env.store.Colleges.GetByID(ctx, "college")
	require.NoError(t, err)
	assert.Empty(t, college.AthleteIDs)
	event, err := env.store.Events.GetByID(ctx, "event")
	require.NoError(t, err)
	assert.Equal(t, []string{"dive-x"}, event.DiveIDs)

	counts := env.mem.Counts()
	assert.Zero(t, counts["judge_scores"])
	assert.Zero(t, counts["dives"])
	assert.Zero(t, counts["post_media"])
	assert.Zero(t, counts["user_saved_posts"])
	assert.Equal(t, 1, counts["athletes"], "only the other athlete's profile remains")

	assert.Zero(t, env.blobs.Len(), "media and profile picture removed")
	assert.Contains(t, env.publisher.types(), queue.EventUserPurged)
}

func TestPurge_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	purgeScenario(t, env)
	ctx := context.Background()

	_, err := env.purger.Purge(ctx, "victim")
	require.NoError(t, err)
	before := env.mem.Counts()

	report, err := env.purger.Purge(ctx, "victim")
	assert.ErrorIs(t, err, model.ErrNothingToPurge)
	assert.Equal(t, "victim", report.UserID)
	assert.Equal(t, before, env.mem.Counts())
}

func TestPurge_CoachDetachesFromTeamAndCollege(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.user(t, "coach", model.AccountCoach)
	profile, err := env.store.Coaches.GetByID(ctx, *coach.CoachID)
	require.NoError(t, err)
	team, college := "team", "college"
	profile.TeamID, profile.CollegeID = &team, &college
	require.NoError(t, env.store.Coaches.Save(ctx, profile))
	require.NoError(t, env.store.Teams.Save(ctx, &model.Team{ID: "team", CoachID: &profile.ID}))
	require.NoError(t, env.store.Colleges.Save(ctx, &model.College{ID: "college", CoachID: &profile.ID}))

	report, err := env.purger.Purge(ctx, "coach")
	require.NoError(t, err)
	assert.True(t, report.CoachProfile)

	tm, err := env.store.Teams.GetByID(ctx, "team")
	require.NoError(t, err)
	assert.Nil(t, tm.CoachID)
	cl, err := env.store.Colleges.GetByID(ctx, "college")
	require.NoError(t, err)
	assert.Nil(t, cl.CoachID)
	_, err = env.store.Coaches.GetByID(ctx, profile.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPurge_DuplicateUserIsInvariantViolation(t *testing.T) {
	mem := memory.New()
	store := mem.Repositories()
	store.Users = faultyUsers{
		UserRepository: store.Users,
		getByIDs: func(context.Context, []string) ([]model.User, error) {
			return []model.User{{ID: "dup"}, {ID: "dup"}}, nil
		},
	}
	env := newTestEnvWithStore(t, mem, store)

	_, err := env.purger.Purge(context.Background(), "dup")
	assert.ErrorIs(t, err, model.ErrInvariantViolation)
}

func TestPurge_StageFailureKeepsEarlierStages(t *testing.T) {
	mem := memory.New()
	store := mem.Repositories()
	store.Messages = faultyMessages{MessageRepository: store.Messages, err: errStoreDown}
	env := newTestEnvWithStore(t, mem, store)
	ctx := context.Background()

	victim := env.user(t, "victim", model.AccountSpectator)
	friend := env.user(t, "friend", model.AccountSpectator)
	env.post(t, "p1", "victim", t0)
	_, err := env.messages.Send(ctx, victim, friend.ID, "hi")
	require.NoError(t, err)

	_, err = env.purger.Purge(ctx, "victim")
	require.ErrorIs(t, err, errStoreDown)
	assert.Contains(t, err.Error(), "PurgeMessages")

	posts, err := env.store.Posts.ListByAuthor(ctx, "victim")
	require.NoError(t, err)
	assert.Empty(t, posts, "posts stage is not rolled back")
	_, err = env.store.Users.GetByID(ctx, "victim")
	assert.NoError(t, err, "later stages did not run")
	assert.NotContains(t, env.publisher.types(), queue.EventUserPurged)
}

