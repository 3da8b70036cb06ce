package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/repository"
	"adrenaline_backend/internal/storage"
)

// postCascade deletes a post with everything hanging off it: media blobs and
// rows first, then saved-post references, then the post.
type postCascade struct {
	store *repository.Store
	blobs storage.BlobStore
	log   *logrus.Entry
}

type cascadeCounts struct {
	Media      int
	SavedPosts int
}

func (c *postCascade) deletePost(ctx context.Context, post model.Post, authorEmail string) (cascadeCounts, error) {
	var counts cascadeCounts

	media, err := c.store.Media.ListByPost(ctx, post.ID)
	if err != nil {
		return counts, fmt.Errorf("list media of %s: %w", post.ID, err)
	}
	// videos before images
	sort.SliceStable(media, func(i, j int) bool {
		return media[i].Kind == model.MediaVideo && media[j].Kind != model.MediaVideo
	})
	for _, m := range media {
		if c.blobs != nil {
			if err := c.blobs.Remove(ctx, mediaKey(authorEmail, m)); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
				return counts, fmt.Errorf("remove media blob %s: %w", m.ID, err)
			}
		}
		if err := ignoreNotFound(c.store.Media.Delete(ctx, m.ID)); err != nil {
			return counts, fmt.Errorf("delete media %s: %w", m.ID, err)
		}
		counts.Media++
	}

	saved, err := c.store.SavedPosts.ListByPost(ctx, post.ID)
	if err != nil {
		return counts, fmt.Errorf("list saved refs of %s: %w", post.ID, err)
	}
	for _, sp := range saved {
		user, err := c.store.Users.GetByID(ctx, sp.UserID)
		switch {
		case err == nil:
			user.SavedPostIDs = model.RemoveString(user.SavedPostIDs, post.ID)
			if err := c.store.Users.Save(ctx, user); err != nil {
				return counts, fmt.Errorf("save user %s: %w", user.ID, err)
			}
		case !errors.Is(err, model.ErrNotFound):
			return counts, fmt.Errorf("get saving user %s: %w", sp.UserID, err)
		}

		if err := ignoreNotFound(c.store.SavedPosts.Delete(ctx, sp.ID)); err != nil {
			return counts, fmt.Errorf("delete saved ref %s: %w", sp.ID, err)
		}
		counts.SavedPosts++
	}

	if err := ignoreNotFound(c.store.Posts.Delete(ctx, post.ID)); err != nil {
		return counts, fmt.Errorf("delete post %s: %w", post.ID, err)
	}

	c.log.WithFields(logrus.Fields{
		"post": post.ID, "media": counts.Media, "saved_refs": counts.SavedPosts,
	}).Debug("Post cascade done")
	return counts, nil
}

func mediaKey(authorEmail string, m model.Media) string {
	if m.Kind == model.MediaVideo {
		return storage.VideoKey(authorEmail, m.ID)
	}
	return storage.ImageKey(authorEmail, m.ID)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	return err
}
