package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// FeedCachePrefix is the key prefix for home feed sorted sets.
	FeedCachePrefix = "feed:user:"

	// FeedCacheCap is the most posts kept per viewer.
	FeedCacheCap = 500

	FeedCacheTTL = 7 * 24 * time.Hour
)

// PostScore is a post id with its creation time in unix milliseconds.
type PostScore struct {
	PostID    string
	Timestamp int64
}

// Cursor marks the last post of the previous page.
type Cursor struct {
	Score  float64
	PostID string
}

// FeedCache stores each viewer's home feed as post ids ordered by creation time.
// Equal scores come back in descending id order.
type FeedCache interface {
	// AddPost inserts one post, trims to FeedCacheCap and refreshes the TTL.
	AddPost(ctx context.Context, userID, postID string, timestamp int64) error
	RemovePost(ctx context.Context, userID, postID string) error
	// GetFeed returns newest-first ids. A non-nil after returns only posts
	// ordered after it: older, or the same score with a smaller id.
	GetFeed(ctx context.Context, userID string, after *Cursor, limit int) (postIDs []string, scores []float64, err error)
	// GetScore reports the cached timestamp of one post.
	GetScore(ctx context.Context, userID, postID string) (score int64, found bool, err error)
	WarmCache(ctx context.Context, userID string, posts []PostScore) error
	Size(ctx context.Context, userID string) (int64, error)
	// Exists is false for new viewers and expired keys; callers warm on false.
	Exists(ctx context.Context, userID string) (bool, error)
	Invalidate(ctx context.Context, userID string) error
}

type RedisFeedCache struct {
	client *redis.Client
	log    *logrus.Entry
}

func NewFeedCache(client *redis.Client, log *logrus.Entry) FeedCache {
	return &RedisFeedCache{client: client, log: log}
}

func feedKey(userID string) string {
	return FeedCachePrefix + userID
}

func (c *RedisFeedCache) AddPost(ctx context.Context, userID, postID string, timestamp int64) error {
	key := feedKey(userID)
	startTime := time.Now()

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(timestamp), Member: postID})
	// rank 0 is the oldest; keep the newest FeedCacheCap
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-FeedCacheCap-1))
	pipe.Expire(ctx, key, FeedCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		c.log.WithFields(logrus.Fields{"user": userID, "post": postID}).WithError(err).Error("AddPost failed")
		return fmt.Errorf("add post to feed: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"user": userID, "post": postID, "timestamp": timestamp, "duration": time.Since(startTime),
	}).Debug("AddPost OK")
	return nil
}

func (c *RedisFeedCache) RemovePost(ctx context.Context, userID, postID string) error {
	removed, err := c.client.ZRem(ctx, feedKey(userID), postID).Result()
	if err != nil {
		c.log.WithFields(logrus.Fields{"user": userID, "post": postID}).WithError(err).Error("RemovePost failed")
		return fmt.Errorf("remove post from feed: %w", err)
	}

	c.log.WithFields(logrus.Fields{"user": userID, "post": postID, "removed": removed}).Debug("RemovePost OK")
	return nil
}

func (c *RedisFeedCache) GetFeed(ctx context.Context, userID string, after *Cursor, limit int) ([]string, []float64, error) {
	key := feedKey(userID)

	var (
		results []redis.Z
		err     error
	)
	if after == nil {
		results, err = c.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	} else {
		results, err = c.pageAfter(ctx, key, *after, limit)
	}
	if err != nil {
		c.log.WithField("user", userID).WithError(err).Error("GetFeed failed")
		return nil, nil, fmt.Errorf("get feed: %w", err)
	}

	// refresh TTL on access
	c.client.Expire(ctx, key, FeedCacheTTL)

	postIDs := make([]string, len(results))
	scores := make([]float64, len(results))
	for i, z := range results {
		id, ok := z.Member.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected feed member %T", z.Member)
		}
		postIDs[i] = id
		scores[i] = z.Score
	}

	c.log.WithFields(logrus.Fields{"user": userID, "returned": len(postIDs)}).Debug("GetFeed OK")
	return postIDs, scores, nil
}

// pageAfter reads up to limit members after the cursor. Members sharing the
// cursor score are read inclusively and skipped up to the cursor id.
func (c *RedisFeedCache) pageAfter(ctx context.Context, key string, after Cursor, limit int) ([]redis.Z, error) {
	score := strconv.FormatFloat(after.Score, 'f', -1, 64)
	ties, err := c.client.ZCount(ctx, key, score, score).Result()
	if err != nil {
		return nil, err
	}

	results, err := c.client.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   score,
		Count: int64(limit) + ties,
	}).Result()
	if err != nil {
		return nil, err
	}

	skip := 0
	for skip < len(results) && results[skip].Score == after.Score {
		id, _ := results[skip].Member.(string)
		if id < after.PostID {
			break
		}
		skip++
	}
	results = results[skip:]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (c *RedisFeedCache) GetScore(ctx context.Context, userID, postID string) (int64, bool, error) {
	score, err := c.client.ZScore(ctx, feedKey(userID), postID).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get score: %w", err)
	}
	return int64(score), true, nil
}

func (c *RedisFeedCache) WarmCache(ctx context.Context, userID string, posts []PostScore) error {
	if len(posts) == 0 {
		return nil
	}

	key := feedKey(userID)
	members := make([]redis.Z, len(posts))
	for i, p := range posts {
		members[i] = redis.Z{Score: float64(p.Timestamp), Member: p.PostID}
	}

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, members...)
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-FeedCacheCap-1))
	pipe.Expire(ctx, key, FeedCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		c.log.WithFields(logrus.Fields{"user": userID, "posts": len(posts)}).WithError(err).Error("WarmCache failed")
		return fmt.Errorf("warm cache: %w", err)
	}

	c.log.WithFields(logrus.Fields{"user": userID, "posts": len(posts)}).Info("WarmCache OK")
	return nil
}

func (c *RedisFeedCache) Size(ctx context.Context, userID string) (int64, error) {
	size, err := c.client.ZCard(ctx, feedKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("get cache size: %w", err)
	}
	return size, nil
}

func (c *RedisFeedCache) Exists(ctx context.Context, userID string) (bool, error) {
	n, err := c.client.Exists(ctx, feedKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check cache exists: %w", err)
	}
	return n > 0, nil
}

func (c *RedisFeedCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, feedKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate feed: %w", err)
	}
	return nil
}
