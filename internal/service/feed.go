package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/cache"
	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/repository"
)

const (
	// FeedDefaultLimit is the default number of posts per page
	FeedDefaultLimit = 10

	// FeedMaxLimit is the maximum number of posts per page
	FeedMaxLimit = 50

	// CacheWarmLimit is max posts to fetch when warming cache
	CacheWarmLimit = cache.FeedCacheCap
)

// Feed joins user ids to their posts.
type Feed struct {
	posts    repository.PostRepository
	resolver *Resolver
	log      *logrus.Entry
}

func NewFeed(posts repository.PostRepository, resolver *Resolver, log *logrus.Entry) *Feed {
	return &Feed{posts: posts, resolver: resolver, log: log}
}

// PostsByUserIDs groups the posts of each id, newest first. Every input id
// gets a key, with an empty slice when the user has no posts.
func (f *Feed) PostsByUserIDs(ctx context.Context, ids []string) (map[string][]model.Post, error) {
	grouped := make(map[string][]model.Post, len(ids))
	if len(ids) == 0 {
		return grouped, nil
	}

	posts, err := f.fetch(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		grouped[id] = []model.Post{}
	}
	for _, p := range posts {
		if _, ok := grouped[p.UserID]; ok {
			grouped[p.UserID] = append(grouped[p.UserID], p)
		}
	}
	for id := range grouped {
		sortNewestFirst(grouped[id])
	}
	return grouped, nil
}

// FeedByUserIDs merges the posts of every id into one timeline, newest first.
// Posts whose author cannot be resolved are skipped.
func (f *Feed) FeedByUserIDs(ctx context.Context, ids []string) ([]model.FeedItem, error) {
	startTime := time.Now()
	if len(ids) == 0 {
		return []model.FeedItem{}, nil
	}

	posts, err := f.fetch(ctx, ids)
	if err != nil {
		return nil, err
	}

	var authorIDs []string
	seen := make(map[string]struct{})
	for _, p := range posts {
		if _, ok := seen[p.UserID]; !ok {
			seen[p.UserID] = struct{}{}
			authorIDs = append(authorIDs, p.UserID)
		}
	}

	authors, err := f.resolver.ResolveUsers(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve authors: %w", err)
	}
	byID := make(map[string]model.User, len(authors))
	for _, u := range authors {
		byID[u.ID] = u
	}

	items := make([]model.FeedItem, 0, len(posts))
	var skipped int
	for _, p := range posts {
		author, ok := byID[p.UserID]
		if !ok {
			skipped++
			continue
		}
		items = append(items, model.FeedItem{User: author, Post: p})
	}
	sort.SliceStable(items, func(i, j int) bool { return newer(items[i].Post, items[j].Post) })

	f.log.WithFields(logrus.Fields{
		"authors": len(ids), "items": len(items), "skipped": skipped, "duration": time.Since(startTime),
	}).Debug("FeedByUserIDs OK")
	return items, nil
}

// FeedForViewer is FeedByUserIDs without the coach-only posts a non-coach
// viewer may not see. Viewers always see their own posts.
func (f *Feed) FeedForViewer(ctx context.Context, viewer *model.User, ids []string) ([]model.FeedItem, error) {
	items, err := f.FeedByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return visibleTo(viewer, items), nil
}

// PostsByUserIDsOrEmpty is the profile-page fallback: store errors are logged
// and an empty grouping is returned.
func (f *Feed) PostsByUserIDsOrEmpty(ctx context.Context, ids []string) map[string][]model.Post {
	grouped, err := f.PostsByUserIDs(ctx, ids)
	if err != nil {
		f.log.WithError(err).Warn("PostsByUserIDs failed, showing nothing")
		return map[string][]model.Post{}
	}
	return grouped
}

// FeedByUserIDsOrEmpty is the timeline fallback: store errors are logged and
// an empty timeline is returned.
func (f *Feed) FeedByUserIDsOrEmpty(ctx context.Context, viewer *model.User, ids []string) []model.FeedItem {
	items, err := f.FeedForViewer(ctx, viewer, ids)
	if err != nil {
		f.log.WithError(err).Warn("FeedByUserIDs failed, showing nothing")
		return []model.FeedItem{}
	}
	return items
}

func (f *Feed) fetch(ctx context.Context, ids []string) ([]model.Post, error) {
	var (
		posts []model.Post
		err   error
	)
	if len(ids) == 1 {
		posts, err = f.posts.ListByAuthor(ctx, ids[0])
	} else {
		posts, err = f.posts.ListByAuthors(ctx, ids)
	}
	if err != nil {
		return nil, fmt.Errorf("get posts by authors: %w", err)
	}
	return posts, nil
}

// newer orders posts by creation time at millisecond precision, the
// resolution of feed cursors and cache scores, then by id.
func newer(a, b model.Post) bool {
	am, bm := a.CreationDate.UnixMilli(), b.CreationDate.UnixMilli()
	if am != bm {
		return am > bm
	}
	return a.ID > b.ID
}

func sortNewestFirst(posts []model.Post) {
	sort.SliceStable(posts, func(i, j int) bool { return newer(posts[i], posts[j]) })
}

// CanView reports whether viewer may see post. A nil viewer is anonymous.
func CanView(viewer *model.User, post model.Post) bool {
	if !post.CoachOnly {
		return true
	}
	return viewer != nil && (viewer.IsCoach() || post.UserID == viewer.ID)
}

// VisiblePosts drops the posts viewer may not see.
func VisiblePosts(viewer *model.User, posts []model.Post) []model.Post {
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if CanView(viewer, p) {
			out = append(out, p)
		}
	}
	return out
}

func visibleTo(viewer *model.User, items []model.FeedItem) []model.FeedItem {
	out := make([]model.FeedItem, 0, len(items))
	for _, it := range items {
		if CanView(viewer, it.Post) {
			out = append(out, it)
		}
	}
	return out
}

// HomeFeed serves the paginated home timeline: the viewer's favorites plus
// their own posts. With a cache the timeline is read from the viewer's sorted
// set; cache failures fall back to the store.
type HomeFeed struct {
	feedCache cache.FeedCache
	feed      *Feed
	posts     repository.PostRepository
	resolver  *Resolver
	log       *logrus.Entry
}

func NewHomeFeed(
	feedCache cache.FeedCache,
	feed *Feed,
	posts repository.PostRepository,
	resolver *Resolver,
	log *logrus.Entry,
) *HomeFeed {
	return &HomeFeed{
		feedCache: feedCache,
		feed:      feed,
		posts:     posts,
		resolver:  resolver,
		log:       log,
	}
}

// GetFeed retrieves the viewer's feed with cursor-based pagination. The cursor
// is "postID:unixMillis" of the last item of the previous page.
func (h *HomeFeed) GetFeed(ctx context.Context, viewer *model.User, cursor *string, limit int) (*model.FeedResponse, error) {
	startTime := time.Now()

	if limit <= 0 {
		limit = FeedDefaultLimit
	}
	if limit > FeedMaxLimit {
		limit = FeedMaxLimit
	}

	var after *cache.Cursor
	if cursor != nil {
		score, postID, err := parseFeedCursor(*cursor)
		if err != nil {
			return nil, fmt.Errorf("cursor %q: %w: %v", *cursor, model.ErrInvalidFieldValue, err)
		}
		after = &cache.Cursor{Score: score, PostID: postID}
	}

	var (
		resp *model.FeedResponse
		err  error
	)
	if h.feedCache != nil {
		resp, err = h.fromCache(ctx, viewer, after, limit)
		if err != nil {
			h.log.WithField("user", viewer.ID).WithError(err).Warn("Feed cache unavailable, reading store")
		}
	}
	if resp == nil {
		resp, err = h.fromStore(ctx, viewer, after, limit)
		if err != nil {
			return nil, err
		}
	}

	h.log.WithFields(logrus.Fields{
		"user": viewer.ID, "items": len(resp.Items), "has_more": resp.HasMore, "duration": time.Since(startTime),
	}).Info("GetFeed OK")
	return resp, nil
}

// GetFeedOrEmpty is GetFeed for the home screen: a store failure is logged
// and shows an empty feed. A malformed cursor is still returned as an error.
func (h *HomeFeed) GetFeedOrEmpty(ctx context.Context, viewer *model.User, cursor *string, limit int) (*model.FeedResponse, error) {
	resp, err := h.GetFeed(ctx, viewer, cursor, limit)
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, model.ErrInvalidFieldValue) {
		return nil, err
	}
	h.log.WithField("user", viewer.ID).WithError(err).Warn("GetFeed failed, showing empty feed")
	return page(nil, nil), nil
}

func (h *HomeFeed) fromStore(ctx context.Context, viewer *model.User, after *cache.Cursor, limit int) (*model.FeedResponse, error) {
	items, err := h.feed.FeedForViewer(ctx, viewer, timelineAuthors(viewer))
	if err != nil {
		return nil, err
	}

	if after != nil {
		boundary := model.Post{ID: after.PostID, CreationDate: time.UnixMilli(int64(after.Score))}
		start := sort.Search(len(items), func(i int) bool {
			return newer(boundary, items[i].Post)
		})
		items = items[start:]
	}

	if len(items) <= limit {
		return page(items, nil), nil
	}
	items = items[:limit]
	last := items[len(items)-1].Post
	next := formatFeedCursor(float64(last.CreationDate.UnixMilli()), last.ID)
	return page(items, &next), nil
}

func (h *HomeFeed) fromCache(ctx context.Context, viewer *model.User, after *cache.Cursor, limit int) (*model.FeedResponse, error) {
	exists, err := h.feedCache.Exists(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	if !exists {
		h.log.WithField("user", viewer.ID).Debug("Cache miss, warming")
		if err := h.warmCache(ctx, viewer); err != nil {
			return nil, err
		}
	}

	postIDs, scores, err := h.feedCache.GetFeed(ctx, viewer.ID, after, limit)
	if err != nil {
		return nil, err
	}
	if len(postIDs) == 0 {
		return page(nil, nil), nil
	}

	items, err := h.hydrate(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("hydrate posts: %w", err)
	}

	// the cursor follows the cache, not the filtered page
	var next *string
	if len(postIDs) == limit {
		c := formatFeedCursor(scores[len(scores)-1], postIDs[len(postIDs)-1])
		next = &c
	}
	return page(visibleTo(viewer, items), next), nil
}

func (h *HomeFeed) warmCache(ctx context.Context, viewer *model.User) error {
	startTime := time.Now()

	items, err := h.feed.FeedByUserIDs(ctx, timelineAuthors(viewer))
	if err != nil {
		return fmt.Errorf("build timeline: %w", err)
	}
	if len(items) > CacheWarmLimit {
		items = items[:CacheWarmLimit]
	}
	if len(items) == 0 {
		return nil
	}

	scores := make([]cache.PostScore, len(items))
	for i, it := range items {
		scores[i] = cache.PostScore{PostID: it.Post.ID, Timestamp: it.Post.CreationDate.UnixMilli()}
	}
	if err := h.feedCache.WarmCache(ctx, viewer.ID, scores); err != nil {
		return fmt.Errorf("warm cache: %w", err)
	}

	fields := logrus.Fields{"user": viewer.ID, "posts": len(scores), "duration": time.Since(startTime)}
	if size, err := h.feedCache.Size(ctx, viewer.ID); err == nil {
		fields["cached"] = size
	}
	h.log.WithFields(fields).Info("Cache warmed")
	return nil
}

// hydrate loads cached post ids in cache order. Ids whose post or author is
// gone are dropped.
func (h *HomeFeed) hydrate(ctx context.Context, postIDs []string) ([]model.FeedItem, error) {
	posts, err := h.posts.GetByIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}
	posts = orderByInput(postIDs, posts, func(p model.Post) string { return p.ID })

	var authorIDs []string
	for _, p := range posts {
		authorIDs = append(authorIDs, p.UserID)
	}
	authors, err := h.resolver.ResolveUsers(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.User, len(authors))
	for _, u := range authors {
		byID[u.ID] = u
	}

	items := make([]model.FeedItem, 0, len(posts))
	for _, p := range posts {
		if author, ok := byID[p.UserID]; ok {
			items = append(items, model.FeedItem{User: author, Post: p})
		}
	}
	return items, nil
}

func timelineAuthors(viewer *model.User) []string {
	return append(append([]string{}, viewer.FavoritesIDs...), viewer.ID)
}

func page(items []model.FeedItem, next *string) *model.FeedResponse {
	if items == nil {
		items = []model.FeedItem{}
	}
	return &model.FeedResponse{Items: items, NextCursor: next, HasMore: next != nil}
}

// parseFeedCursor parses "id:timestamp" format cursor.
// Returns the timestamp (as score) and post ID.
func parseFeedCursor(cursor string) (float64, string, error) {
	i := strings.LastIndex(cursor, ":")
	if i <= 0 || i == len(cursor)-1 {
		return 0, "", fmt.Errorf("invalid cursor format, expected id:timestamp")
	}

	score, err := strconv.ParseFloat(cursor[i+1:], 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid timestamp in cursor: %w", err)
	}
	return score, cursor[:i], nil
}

// formatFeedCursor creates "id:timestamp" format cursor.
func formatFeedCursor(score float64, id string) string {
	return fmt.Sprintf("%s:%.0f", id, score)
}
