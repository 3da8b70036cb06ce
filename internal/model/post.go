package model

import "time"

// Post is authored by exactly one User. CoachOnly posts are hidden from
// viewers who are not coaches.
type Post struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Caption      *string   `db:"caption" json:"caption"`
	CreationDate time.Time `db:"creation_date" json:"creation_date"`
	CoachOnly    bool      `db:"coach_only" json:"coach_only"`

	Media []Media `json:"media,omitempty"`
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Media is an image or video attached to a post. The blob key is derived from
// the author's email and the media id.
type Media struct {
	ID         string    `db:"id" json:"id"`
	PostID     string    `db:"post_id" json:"post_id"`
	Kind       MediaKind `db:"kind" json:"kind"`
	UploadDate time.Time `db:"upload_date" json:"upload_date"`
}

// UserSavedPost links a user to a post they bookmarked.
type UserSavedPost struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
	PostID string `db:"post_id" json:"post_id"`
}

// FeedItem pairs a post with its resolved author.
type FeedItem struct {
	User User `json:"user"`
	Post Post `json:"post"`
}

// FeedResponse is the paginated home feed response.
type FeedResponse struct {
	Items      []FeedItem `json:"items"`
	NextCursor *string    `json:"next_cursor,omitempty"`
	HasMore    bool       `json:"has_more"`
}

const (
	MaxPostCaptionLength = 2200
	MaxPostMediaCount    = 10
	MaxMediaSize         = 50 * 1024 * 1024
)
