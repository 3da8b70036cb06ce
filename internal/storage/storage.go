package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrObjectNotFound is returned by Download when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// BlobStore is the media store. Remove of an absent key is not an error.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
	GetURL(ctx context.Context, key string) (string, error)
	List(ctx context.Context, prefix string) ([]Object, error)
}

const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypeMP4  = "video/mp4"
)

func ProfilePictureKey(userID string) string {
	return fmt.Sprintf("profile-pictures/%s.jpg", userID)
}

func VideoKey(email, videoID string) string {
	return fmt.Sprintf("videos/%s/%s.mp4", strings.ToLower(email), videoID)
}

func ImageKey(email, imageID string) string {
	return fmt.Sprintf("images/%s/%s.jpg", strings.ToLower(email), imageID)
}
