package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/storage"
)

const (
	ProfilePictureSize    = 400
	ProfilePictureQuality = 85
	MaxProfilePictureSize = 10 * 1024 * 1024
)

// ProfileService stores profile pictures as square JPEGs.
type ProfileService struct {
	blobs storage.BlobStore
	log   *logrus.Entry
}

func NewProfileService(blobs storage.BlobStore, log *logrus.Entry) *ProfileService {
	return &ProfileService{blobs: blobs, log: log}
}

// UploadProfilePicture center-crops the image to a square and replaces the
// user's picture.
func (s *ProfileService) UploadProfilePicture(ctx context.Context, userID string, data []byte) error {
	if len(data) > MaxProfilePictureSize {
		return model.ErrFileTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidImage, err)
	}
	img = imaging.Fill(img, ProfilePictureSize, ProfilePictureSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(ProfilePictureQuality)); err != nil {
		return fmt.Errorf("encode profile picture: %w", err)
	}

	key := storage.ProfilePictureKey(userID)
	if err := s.blobs.Upload(ctx, key, buf.Bytes(), storage.ContentTypeJPEG); err != nil {
		return fmt.Errorf("upload profile picture: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user": userID, "bytes": buf.Len()}).Info("UploadProfilePicture OK")
	return nil
}

func (s *ProfileService) ProfilePictureURL(ctx context.Context, userID string) (string, error) {
	return s.blobs.GetURL(ctx, storage.ProfilePictureKey(userID))
}
