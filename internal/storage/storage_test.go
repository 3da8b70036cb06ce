package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "profile-pictures/u1.jpg", ProfilePictureKey("u1"))
	assert.Equal(t, "videos/diver@school.edu/v1.mp4", VideoKey("Diver@School.edu", "v1"))
	assert.Equal(t, "images/diver@school.edu/i1.jpg", ImageKey("DIVER@school.edu", "i1"))
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Upload(ctx, "images/a/1.jpg", []byte("one"), ContentTypeJPEG))
	require.NoError(t, s.Upload(ctx, "images/a/2.jpg", []byte("two"), ContentTypeJPEG))
	require.NoError(t, s.Upload(ctx, "videos/a/1.mp4", []byte("vid"), ContentTypeMP4))

	data, err := s.Download(ctx, "images/a/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	objs, err := s.List(ctx, "images/")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "images/a/1.jpg", objs[0].Key)

	require.NoError(t, s.Remove(ctx, "images/a/1.jpg"))
	_, err = s.Download(ctx, "images/a/1.jpg")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestMemoryStore_RemoveMissingIsNoop(t *testing.T) {
	s := NewMemoryStore()
	assert.NoError(t, s.Remove(context.Background(), "profile-pictures/nobody.jpg"))
}

func TestMemoryStore_URL(t *testing.T) {
	u, err := NewMemoryStore().GetURL(context.Background(), "profile-pictures/u1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "mem:///profile-pictures/u1.jpg", u)
}
