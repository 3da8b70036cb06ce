package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adrenaline_backend/internal/logger"
	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/storage"
)

func TestProfileService_UploadNormalizesToSquareJPEG(t *testing.T) {
	blobs := storage.NewMemoryStore()
	svc := NewProfileService(blobs, logger.Discard())
	ctx := context.Background()

	src := image.NewRGBA(image.Rect(0, 0, 800, 500))
	for x := 0; x < 800; x++ {
		for y := 0; y < 500; y++ {
			src.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	require.NoError(t, svc.UploadProfilePicture(ctx, "u1", buf.Bytes()))

	data, err := blobs.Download(ctx, storage.ProfilePictureKey("u1"))
	require.NoError(t, err)
	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, image.Pt(ProfilePictureSize, ProfilePictureSize), img.Bounds().Size())

	url, err := svc.ProfilePictureURL(ctx, "u1")
	require.NoError(t, err)
	assert.Contains(t, url, "profile-pictures/u1.jpg")
}

func TestProfileService_RejectsBadInput(t *testing.T) {
	svc := NewProfileService(storage.NewMemoryStore(), logger.Discard())
	ctx := context.Background()

	assert.ErrorIs(t, svc.UploadProfilePicture(ctx, "u1", []byte("not an image")), model.ErrInvalidImage)
	assert.ErrorIs(t, svc.UploadProfilePicture(ctx, "u1", make([]byte, MaxProfilePictureSize+1)), model.ErrFileTooLarge)
}

