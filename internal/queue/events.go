package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	EventPostCreated    = "post_created"
	EventPostDeleted    = "post_deleted"
	EventUserFollowed   = "user_followed"
	EventUserUnfollowed = "user_unfollowed"
	EventUserPurged     = "user_purged"
)

const StreamFeed = "stream:feed"

const ConsumerGroupFeed = "feed_workers"

// FeedEvent is the single payload shape on the feed stream.
// Timestamp is unix milliseconds; for post events it is the post creation time.
type FeedEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	PostID   string `json:"post_id,omitempty"`
	AuthorID string `json:"author_id,omitempty"`

	FollowerID string `json:"follower_id,omitempty"`
	FolloweeID string `json:"followee_id,omitempty"`

	UserID string `json:"user_id,omitempty"`
}

// NewPostCreatedEvent fans the post out to every follower's cached feed.
func NewPostCreatedEvent(postID, authorID string, createdAt time.Time) FeedEvent {
	return FeedEvent{
		Type:      EventPostCreated,
		Timestamp: createdAt.UnixMilli(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

func NewPostDeletedEvent(postID, authorID string) FeedEvent {
	return FeedEvent{
		Type:      EventPostDeleted,
		Timestamp: time.Now().UnixMilli(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// NewUserFollowedEvent backfills the followee's posts into the follower's feed.
func NewUserFollowedEvent(followerID, followeeID string) FeedEvent {
	return FeedEvent{
		Type:       EventUserFollowed,
		Timestamp:  time.Now().UnixMilli(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}

func NewUserUnfollowedEvent(followerID, followeeID string) FeedEvent {
	return FeedEvent{
		Type:       EventUserUnfollowed,
		Timestamp:  time.Now().UnixMilli(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}

// NewUserPurgedEvent drops the purged user's own cached feed.
func NewUserPurgedEvent(userID string) FeedEvent {
	return FeedEvent{
		Type:      EventUserPurged,
		Timestamp: time.Now().UnixMilli(),
		UserID:    userID,
	}
}

// ToMap serializes the event into the "data" field of a stream entry.
func (e FeedEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

func ParseFeedEvent(values map[string]interface{}) (FeedEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return FeedEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event FeedEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return FeedEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
