package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/queue"
	"adrenaline_backend/internal/repository"
	"adrenaline_backend/internal/storage"
)

// MediaUpload is one attachment of a new post.
type MediaUpload struct {
	Kind model.MediaKind
	Data []byte
}

type CreatePostInput struct {
	Caption   *string
	CoachOnly bool
	Media     []MediaUpload
}

type PostService struct {
	store     *repository.Store
	blobs     storage.BlobStore
	cascade   *postCascade
	publisher queue.Publisher
	log       *logrus.Entry
	now       func() time.Time
}

func NewPostService(
	store *repository.Store,
	blobs storage.BlobStore,
	publisher queue.Publisher,
	log *logrus.Entry,
) *PostService {
	return &PostService{
		store:     store,
		blobs:     blobs,
		cascade:   &postCascade{store: store, blobs: blobs, log: log},
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Create uploads the attachments, saves the post and publishes an event for fan-out.
func (s *PostService) Create(ctx context.Context, author *model.User, in CreatePostInput) (*model.Post, error) {
	if len(in.Media) > model.MaxPostMediaCount {
		return nil, model.ErrTooManyMedia
	}
	if in.Caption != nil && utf8.RuneCountInString(*in.Caption) > model.MaxPostCaptionLength {
		return nil, model.ErrCaptionTooLong
	}
	for _, m := range in.Media {
		if len(m.Data) > model.MaxMediaSize {
			return nil, model.ErrFileTooLarge
		}
		if m.Kind != model.MediaImage && m.Kind != model.MediaVideo {
			return nil, fmt.Errorf("media kind %q: %w", m.Kind, model.ErrInvalidFieldValue)
		}
	}

	now := s.now().UTC()
	post := &model.Post{
		ID:           uuid.NewString(),
		UserID:       author.ID,
		Caption:      in.Caption,
		CreationDate: now,
		CoachOnly:    in.CoachOnly,
	}

	var uploaded []string
	fail := func(err error) (*model.Post, error) {
		s.rollbackCreate(context.WithoutCancel(ctx), post, uploaded)
		return nil, err
	}

	for _, upload := range in.Media {
		m := model.Media{ID: uuid.NewString(), PostID: post.ID, Kind: upload.Kind, UploadDate: now}
		contentType := storage.ContentTypeJPEG
		if m.Kind == model.MediaVideo {
			contentType = storage.ContentTypeMP4
		}
		key := mediaKey(author.Email, m)
		if err := s.blobs.Upload(ctx, key, upload.Data, contentType); err != nil {
			return fail(fmt.Errorf("upload media: %w", err))
		}
		uploaded = append(uploaded, key)
		if err := s.store.Media.Save(ctx, &m); err != nil {
			return fail(fmt.Errorf("save media: %w", err))
		}
		post.Media = append(post.Media, m)
	}

	if err := s.store.Posts.Save(ctx, post); err != nil {
		return fail(fmt.Errorf("save post: %w", err))
	}

	s.log.WithFields(logrus.Fields{"post": post.ID, "author": author.ID, "media": len(post.Media)}).Info("Create post OK")
	publish(ctx, s.publisher, s.log, queue.NewPostCreatedEvent(post.ID, author.ID, post.CreationDate))
	return post, nil
}

// rollbackCreate removes the blobs and media rows of a post whose creation
// failed. Failures are logged; the caller already has an error to return.
func (s *PostService) rollbackCreate(ctx context.Context, post *model.Post, keys []string) {
	log := s.log.WithField("post", post.ID)
	for _, key := range keys {
		if err := s.blobs.Remove(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			log.WithError(err).WithField("key", key).Warn("Rollback: remove blob failed")
		}
	}
	for _, m := range post.Media {
		if err := ignoreNotFound(s.store.Media.Delete(ctx, m.ID)); err != nil {
			log.WithError(err).WithField("media", m.ID).Warn("Rollback: delete media failed")
		}
	}
	log.WithField("blobs", len(keys)).Warn("Create post rolled back")
}

// GetByID returns a post with its attachments.
func (s *PostService) GetByID(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	post.Media, err = s.store.Media.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	return post, nil
}

// Delete removes a post owned by user, including media and saved references.
func (s *PostService) Delete(ctx context.Context, user *model.User, postID string) error {
	post, err := s.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != user.ID {
		return model.ErrNotPostOwner
	}

	counts, err := s.cascade.deletePost(ctx, *post, user.Email)
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"post": postID, "media": counts.Media, "saved_refs": counts.SavedPosts,
	}).Info("Delete post OK")
	publish(ctx, s.publisher, s.log, queue.NewPostDeletedEvent(postID, user.ID))
	return nil
}

// SavePost bookmarks a post. Saving an already saved post is a no-op.
func (s *PostService) SavePost(ctx context.Context, user *model.User, postID string) (*model.User, error) {
	if slices.Contains(user.SavedPostIDs, postID) {
		return user, nil
	}
	if _, err := s.store.Posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	saved := &model.UserSavedPost{ID: uuid.NewString(), UserID: user.ID, PostID: postID}
	if err := s.store.SavedPosts.Save(ctx, saved); err != nil {
		return nil, fmt.Errorf("save bookmark: %w", err)
	}

	updated := user.Clone()
	updated.SavedPostIDs = append(updated.SavedPostIDs, postID)
	if err := s.store.Users.Save(ctx, &updated); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return &updated, nil
}

// UnsavePost removes every bookmark the user holds on postID.
func (s *PostService) UnsavePost(ctx context.Context, user *model.User, postID string) (*model.User, error) {
	rows, err := s.store.SavedPosts.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	for _, sp := range rows {
		if sp.PostID != postID {
			continue
		}
		if err := ignoreNotFound(s.store.SavedPosts.Delete(ctx, sp.ID)); err != nil {
			return nil, fmt.Errorf("delete bookmark: %w", err)
		}
	}

	updated := user.Clone()
	updated.SavedPostIDs = model.RemoveString(updated.SavedPostIDs, postID)
	if err := s.store.Users.Save(ctx, &updated); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return &updated, nil
}
