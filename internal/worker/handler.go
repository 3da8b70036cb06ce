package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/cache"
	"adrenaline_backend/internal/queue"
)

const (
	backfillLimit = 20
	// removeLimit bounds how many of an unfollowed author's posts are evicted.
	removeLimit = cache.FeedCacheCap
)

// Handler applies feed events to cached home feeds. Only feeds that already
// exist are written; a missing feed is rebuilt from the store on next read.
type Handler struct {
	feedCache        cache.FeedCache
	followerProvider FollowerProvider
	postsProvider    RecentPostsProvider
	log              *logrus.Entry
}

func NewHandler(
	feedCache cache.FeedCache,
	followerProvider FollowerProvider,
	postsProvider RecentPostsProvider,
	log *logrus.Entry,
) *Handler {
	return &Handler{
		feedCache:        feedCache,
		followerProvider: followerProvider,
		postsProvider:    postsProvider,
		log:              log,
	}
}

func (h *Handler) HandleEvent(ctx context.Context, event queue.FeedEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventPostCreated:
		err = h.handlePostCreated(ctx, event)
	case queue.EventPostDeleted:
		err = h.handlePostDeleted(ctx, event)
	case queue.EventUserFollowed:
		err = h.handleUserFollowed(ctx, event)
	case queue.EventUserUnfollowed:
		err = h.handleUserUnfollowed(ctx, event)
	case queue.EventUserPurged:
		err = h.feedCache.Invalidate(ctx, event.UserID)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	entry := h.log.WithFields(logrus.Fields{"type": event.Type, "duration": time.Since(startTime)})
	if err != nil {
		entry.WithError(err).Error("HandleEvent failed")
		return err
	}
	entry.Debug("HandleEvent OK")
	return nil
}

// fanOut runs apply against the cached feed of the author and every follower.
func (h *Handler) fanOut(ctx context.Context, authorID string, apply func(userID string) error) (int, int, error) {
	followers, err := h.followerProvider.GetFollowerIDs(ctx, authorID)
	if err != nil {
		return 0, 0, fmt.Errorf("get followers: %w", err)
	}

	targets := append([]string{authorID}, followers...)
	var written, failed int
	for _, userID := range targets {
		exists, err := h.feedCache.Exists(ctx, userID)
		if err != nil {
			failed++
			continue
		}
		if !exists {
			continue
		}
		if err := apply(userID); err != nil {
			h.log.WithField("user", userID).WithError(err).Warn("Fan-out write failed")
			failed++
			continue
		}
		written++
	}
	return written, failed, nil
}

func (h *Handler) handlePostCreated(ctx context.Context, event queue.FeedEvent) error {
	// a redelivered event keeps the score of the first delivery
	var skipped int
	written, failed, err := h.fanOut(ctx, event.AuthorID, func(userID string) error {
		_, found, err := h.feedCache.GetScore(ctx, userID, event.PostID)
		if err != nil {
			return err
		}
		if found {
			skipped++
			return nil
		}
		return h.feedCache.AddPost(ctx, userID, event.PostID, event.Timestamp)
	})
	if err != nil {
		return err
	}

	h.log.WithFields(logrus.Fields{
		"post": event.PostID, "author": event.AuthorID, "written": written - skipped, "skipped": skipped, "failed": failed,
	}).Info("PostCreated fan-out done")
	return nil
}

func (h *Handler) handlePostDeleted(ctx context.Context, event queue.FeedEvent) error {
	written, failed, err := h.fanOut(ctx, event.AuthorID, func(userID string) error {
		return h.feedCache.RemovePost(ctx, userID, event.PostID)
	})
	if err != nil {
		return err
	}

	h.log.WithFields(logrus.Fields{
		"post": event.PostID, "author": event.AuthorID, "written": written, "failed": failed,
	}).Info("PostDeleted fan-out done")
	return nil
}

func (h *Handler) handleUserFollowed(ctx context.Context, event queue.FeedEvent) error {
	exists, err := h.feedCache.Exists(ctx, event.FollowerID)
	if err != nil {
		return fmt.Errorf("check follower feed: %w", err)
	}
	if !exists {
		return nil
	}

	posts, err := h.postsProvider.GetRecentPostsByUser(ctx, event.FolloweeID, backfillLimit)
	if err != nil {
		return fmt.Errorf("get recent posts: %w", err)
	}
	if err := h.feedCache.WarmCache(ctx, event.FollowerID, posts); err != nil {
		return err
	}

	h.log.WithFields(logrus.Fields{
		"follower": event.FollowerID, "followee": event.FolloweeID, "backfilled": len(posts),
	}).Info("UserFollowed backfill done")
	return nil
}

func (h *Handler) handleUserUnfollowed(ctx context.Context, event queue.FeedEvent) error {
	posts, err := h.postsProvider.GetRecentPostsByUser(ctx, event.FolloweeID, removeLimit)
	if err != nil {
		return fmt.Errorf("get posts to remove: %w", err)
	}

	var failed int
	for _, p := range posts {
		if err := h.feedCache.RemovePost(ctx, event.FollowerID, p.PostID); err != nil {
			failed++
		}
	}

	h.log.WithFields(logrus.Fields{
		"follower": event.FollowerID, "followee": event.FolloweeID, "removed": len(posts), "failed": failed,
	}).Info("UserUnfollowed eviction done")
	return nil
}
