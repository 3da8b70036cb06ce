package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/repository"
)

// Store is an in-process object store used by tests and STORE_DRIVER=memory.
type Store struct {
	users        *table[model.User]
	coaches      *table[model.CoachProfile]
	athletes     *table[model.AthleteProfile]
	teams        *table[model.Team]
	colleges     *table[model.College]
	events       *table[model.Event]
	dives        *table[model.Dive]
	judgeScores  *table[model.JudgeScore]
	posts        *table[model.Post]
	media        *table[model.Media]
	savedPosts   *table[model.UserSavedPost]
	messages     *table[model.Message]
	messageLinks *table[model.MessageNewUser]

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:        newTable(model.User.Clone),
		coaches:      newTable(model.CoachProfile.Clone),
		athletes:     newTable[model.AthleteProfile](nil),
		teams:        newTable(model.Team.Clone),
		colleges:     newTable(model.College.Clone),
		events:       newTable(model.Event.Clone),
		dives:        newTable[model.Dive](nil),
		judgeScores:  newTable[model.JudgeScore](nil),
		posts:        newTable(clonePost),
		media:        newTable[model.Media](nil),
		savedPosts:   newTable[model.UserSavedPost](nil),
		messages:     newTable[model.Message](nil),
		messageLinks: newTable[model.MessageNewUser](nil),
		now:          time.Now,
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repository.Store {
	return &repository.Store{
		Users:        userRepo{s},
		Coaches:      coachRepo{s},
		Athletes:     athleteRepo{s},
		Teams:        teamRepo{s},
		Colleges:     collegeRepo{s},
		Events:       eventRepo{s},
		Dives:        diveRepo{s},
		JudgeScores:  judgeScoreRepo{s},
		Posts:        postRepo{s},
		Media:        mediaRepo{s},
		SavedPosts:   savedPostRepo{s},
		Messages:     messageRepo{s},
		MessageLinks: messageLinkRepo{s},
	}
}

// Counts reports rows per table, keyed by table name.
func (s *Store) Counts() map[string]int {
	return map[string]int{
		"users":            s.users.len(),
		"coaches":          s.coaches.len(),
		"athletes":         s.athletes.len(),
		"teams":            s.teams.len(),
		"colleges":         s.colleges.len(),
		"events":           s.events.len(),
		"dives":            s.dives.len(),
		"judge_scores":     s.judgeScores.len(),
		"posts":            s.posts.len(),
		"post_media":       s.media.len(),
		"user_saved_posts": s.savedPosts.len(),
		"messages":         s.messages.len(),
		"message_users":    s.messageLinks.len(),
	}
}

func clonePost(p model.Post) model.Post {
	if p.Caption != nil {
		c := *p.Caption
		p.Caption = &c
	}
	p.Media = slices.Clone(p.Media)
	return p
}

// ============================================================================
// Users
// ============================================================================

type userRepo struct{ s *Store }

func (r userRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	return r.s.users.get(id)
}

func (r userRepo) GetByIDs(_ context.Context, ids []string) ([]model.User, error) {
	set := idSet(ids)
	return r.s.users.filter(func(u model.User) bool { _, ok := set[u.ID]; return ok }), nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) ([]model.User, error) {
	return r.s.users.filter(func(u model.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (r userRepo) FindByFavorite(_ context.Context, userID string) ([]model.User, error) {
	return r.s.users.filter(func(u model.User) bool { return slices.Contains(u.FavoritesIDs, userID) }), nil
}

func (r userRepo) Save(_ context.Context, u *model.User) error {
	now := r.s.now()
	if existing, err := r.s.users.get(u.ID); err == nil {
		u.CreatedAt = existing.CreatedAt
	} else if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.FavoritesIDs == nil {
		u.FavoritesIDs = []string{}
	}
	if u.SavedPostIDs == nil {
		u.SavedPostIDs = []string{}
	}
	r.s.users.put(u.ID, *u)
	return nil
}

func (r userRepo) Delete(_ context.Context, id string) error { return r.s.users.remove(id) }

// ============================================================================
// Profiles
// ============================================================================

type coachRepo struct{ s *Store }

func (r coachRepo) GetByID(_ context.Context, id string) (*model.CoachProfile, error) {
	return r.s.coaches.get(id)
}

func (r coachRepo) Save(_ context.Context, c *model.CoachProfile) error {
	if c.FavoritesOrder == nil {
		c.FavoritesOrder = []int{}
	}
	r.s.coaches.put(c.ID, *c)
	return nil
}

func (r coachRepo) Delete(_ context.Context, id string) error { return r.s.coaches.remove(id) }

type athleteRepo struct{ s *Store }

func (r athleteRepo) GetByID(_ context.Context, id string) (*model.AthleteProfile, error) {
	return r.s.athletes.get(id)
}

func (r athleteRepo) Save(_ context.Context, a *model.AthleteProfile) error {
	r.s.athletes.put(a.ID, *a)
	return nil
}

func (r athleteRepo) Delete(_ context.Context, id string) error { return r.s.athletes.remove(id) }

type teamRepo struct{ s *Store }

func (r teamRepo) GetByID(_ context.Context, id string) (*model.Team, error) { return r.s.teams.get(id) }

func (r teamRepo) Save(_ context.Context, t *model.Team) error {
	r.s.teams.put(t.ID, *t)
	return nil
}

type collegeRepo struct{ s *Store }

func (r collegeRepo) GetByID(_ context.Context, id string) (*model.College, error) {
	return r.s.colleges.get(id)
}

func (r collegeRepo) Save(_ context.Context, c *model.College) error {
	r.s.colleges.put(c.ID, *c)
	return nil
}

// ============================================================================
// Competition
// ============================================================================

type eventRepo struct{ s *Store }

func (r eventRepo) GetByID(_ context.Context, id string) (*model.Event, error) { return r.s.events.get(id) }

func (r eventRepo) Save(_ context.Context, e *model.Event) error {
	r.s.events.put(e.ID, *e)
	return nil
}

type diveRepo struct{ s *Store }

func (r diveRepo) ListByAthlete(_ context.Context, athleteID string) ([]model.Dive, error) {
	return r.s.dives.filter(func(d model.Dive) bool { return d.AthleteID == athleteID }), nil
}

func (r diveRepo) Save(_ context.Context, d *model.Dive) error {
	r.s.dives.put(d.ID, *d)
	return nil
}

func (r diveRepo) Delete(_ context.Context, id string) error { return r.s.dives.remove(id) }

type judgeScoreRepo struct{ s *Store }

func (r judgeScoreRepo) ListByDive(_ context.Context, diveID string) ([]model.JudgeScore, error) {
	return r.s.judgeScores.filter(func(j model.JudgeScore) bool { return j.DiveID == diveID }), nil
}

func (r judgeScoreRepo) Save(_ context.Context, j *model.JudgeScore) error {
	r.s.judgeScores.put(j.ID, *j)
	return nil
}

func (r judgeScoreRepo) Delete(_ context.Context, id string) error { return r.s.judgeScores.remove(id) }

// ============================================================================
// Posts
// ============================================================================

type postRepo struct{ s *Store }

func (r postRepo) GetByID(_ context.Context, id string) (*model.Post, error) { return r.s.posts.get(id) }

func (r postRepo) GetByIDs(_ context.Context, ids []string) ([]model.Post, error) {
	set := idSet(ids)
	return r.s.posts.filter(func(p model.Post) bool { _, ok := set[p.ID]; return ok }), nil
}

func (r postRepo) ListByAuthor(_ context.Context, userID string) ([]model.Post, error) {
	return r.s.posts.filter(func(p model.Post) bool { return p.UserID == userID }), nil
}

func (r postRepo) ListByAuthors(_ context.Context, userIDs []string) ([]model.Post, error) {
	set := idSet(userIDs)
	return r.s.posts.filter(func(p model.Post) bool { _, ok := set[p.UserID]; return ok }), nil
}

func (r postRepo) Save(_ context.Context, p *model.Post) error {
	stored := *p
	stored.Media = nil
	r.s.posts.put(p.ID, stored)
	return nil
}

func (r postRepo) Delete(_ context.Context, id string) error { return r.s.posts.remove(id) }

type mediaRepo struct{ s *Store }

func (r mediaRepo) ListByPost(_ context.Context, postID string) ([]model.Media, error) {
	return r.s.media.filter(func(m model.Media) bool { return m.PostID == postID }), nil
}

func (r mediaRepo) Save(_ context.Context, m *model.Media) error {
	r.s.media.put(m.ID, *m)
	return nil
}

func (r mediaRepo) Delete(_ context.Context, id string) error { return r.s.media.remove(id) }

type savedPostRepo struct{ s *Store }

func (r savedPostRepo) ListByPost(_ context.Context, postID string) ([]model.UserSavedPost, error) {
	return r.s.savedPosts.filter(func(sp model.UserSavedPost) bool { return sp.PostID == postID }), nil
}

func (r savedPostRepo) ListByUser(_ context.Context, userID string) ([]model.UserSavedPost, error) {
	return r.s.savedPosts.filter(func(sp model.UserSavedPost) bool { return sp.UserID == userID }), nil
}

func (r savedPostRepo) Save(_ context.Context, sp *model.UserSavedPost) error {
	r.s.savedPosts.put(sp.ID, *sp)
	return nil
}

func (r savedPostRepo) Delete(_ context.Context, id string) error { return r.s.savedPosts.remove(id) }

// ============================================================================
// Messages
// ============================================================================

type messageRepo struct{ s *Store }

func (r messageRepo) GetByIDs(_ context.Context, ids []string) ([]model.Message, error) {
	set := idSet(ids)
	return r.s.messages.filter(func(m model.Message) bool { _, ok := set[m.ID]; return ok }), nil
}

func (r messageRepo) Save(_ context.Context, m *model.Message) error {
	r.s.messages.put(m.ID, *m)
	return nil
}

func (r messageRepo) Delete(_ context.Context, id string) error { return r.s.messages.remove(id) }

type messageLinkRepo struct{ s *Store }

func (r messageLinkRepo) ListByUser(_ context.Context, userID string) ([]model.MessageNewUser, error) {
	return r.s.messageLinks.filter(func(l model.MessageNewUser) bool { return l.UserID == userID }), nil
}

func (r messageLinkRepo) ListByMessage(_ context.Context, messageID string) ([]model.MessageNewUser, error) {
	return r.s.messageLinks.filter(func(l model.MessageNewUser) bool { return l.MessageID == messageID }), nil
}

func (r messageLinkRepo) Save(_ context.Context, l *model.MessageNewUser) error {
	r.s.messageLinks.put(l.ID, *l)
	return nil
}

func (r messageLinkRepo) Delete(_ context.Context, id string) error { return r.s.messageLinks.remove(id) }
