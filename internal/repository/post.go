package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"adrenaline_backend/internal/model"
)

const postColumns = `id, user_id, caption, creation_date, coach_only`

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	if err := r.db.GetContext(ctx, &p, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post by id: %w", err)
	}
	return &p, nil
}

func (r *postRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Post, error) {
	if len(ids) == 0 {
		return []model.Post{}, nil
	}
	posts := []model.Post{}
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &posts, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get posts by ids: %w", err)
	}
	return posts, nil
}

// ListByAuthor is the direct-equality form used for a single author.
func (r *postRepository) ListByAuthor(ctx context.Context, userID string) ([]model.Post, error) {
	posts := []model.Post{}
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1`
	if err := r.db.SelectContext(ctx, &posts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}
	return posts, nil
}

// ListByAuthors fetches posts for every author in one round trip.
func (r *postRepository) ListByAuthors(ctx context.Context, userIDs []string) ([]model.Post, error) {
	if len(userIDs) == 0 {
		return []model.Post{}, nil
	}
	posts := []model.Post{}
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = ANY($1)`
	if err := r.db.SelectContext(ctx, &posts, query, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("failed to list posts by authors: %w", err)
	}
	return posts, nil
}

func (r *postRepository) Save(ctx context.Context, p *model.Post) error {
	query := `
		INSERT INTO posts (id, user_id, caption, creation_date, coach_only)
		VALUES (:id, :user_id, :caption, :creation_date, :coach_only)
		ON CONFLICT (id) DO UPDATE SET
			caption = EXCLUDED.caption,
			coach_only = EXCLUDED.coach_only
	`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to save post: %w", err)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "posts", id)
}

// ============================================================================
// Media attachments
// ============================================================================

type mediaRepository struct {
	db *sqlx.DB
}

func NewMediaRepository(db *sqlx.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) ListByPost(ctx context.Context, postID string) ([]model.Media, error) {
	media := []model.Media{}
	query := `SELECT id, post_id, kind, upload_date FROM post_media WHERE post_id = $1 ORDER BY upload_date, id`
	if err := r.db.SelectContext(ctx, &media, query, postID); err != nil {
		return nil, fmt.Errorf("failed to list post media: %w", err)
	}
	return media, nil
}

func (r *mediaRepository) Save(ctx context.Context, m *model.Media) error {
	query := `
		INSERT INTO post_media (id, post_id, kind, upload_date)
		VALUES (:id, :post_id, :kind, :upload_date)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to save post media: %w", err)
	}
	return nil
}

func (r *mediaRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "post_media", id)
}

// ============================================================================
// Saved posts
// ============================================================================

type savedPostRepository struct {
	db *sqlx.DB
}

func NewSavedPostRepository(db *sqlx.DB) SavedPostRepository {
	return &savedPostRepository{db: db}
}

func (r *savedPostRepository) ListByPost(ctx context.Context, postID string) ([]model.UserSavedPost, error) {
	saved := []model.UserSavedPost{}
	err := r.db.SelectContext(ctx, &saved, `SELECT id, user_id, post_id FROM user_saved_posts WHERE post_id = $1 ORDER BY id`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved posts by post: %w", err)
	}
	return saved, nil
}

func (r *savedPostRepository) ListByUser(ctx context.Context, userID string) ([]model.UserSavedPost, error) {
	saved := []model.UserSavedPost{}
	err := r.db.SelectContext(ctx, &saved, `SELECT id, user_id, post_id FROM user_saved_posts WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved posts by user: %w", err)
	}
	return saved, nil
}

func (r *savedPostRepository) Save(ctx context.Context, s *model.UserSavedPost) error {
	query := `INSERT INTO user_saved_posts (id, user_id, post_id) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.PostID); err != nil {
		return fmt.Errorf("failed to save saved post: %w", err)
	}
	return nil
}

func (r *savedPostRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "user_saved_posts", id)
}
