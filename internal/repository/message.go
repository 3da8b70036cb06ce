package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"adrenaline_backend/internal/model"
)

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Message, error) {
	if len(ids) == 0 {
		return []model.Message{}, nil
	}
	msgs := []model.Message{}
	query := `SELECT id, sender_name, body, creation_date FROM messages WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &msgs, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get messages by ids: %w", err)
	}
	return msgs, nil
}

func (r *messageRepository) Save(ctx context.Context, m *model.Message) error {
	query := `
		INSERT INTO messages (id, sender_name, body, creation_date)
		VALUES (:id, :sender_name, :body, :creation_date)
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body
	`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (r *messageRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "messages", id)
}

type messageLinkRepository struct {
	db *sqlx.DB
}

func NewMessageLinkRepository(db *sqlx.DB) MessageLinkRepository {
	return &messageLinkRepository{db: db}
}

func (r *messageLinkRepository) ListByUser(ctx context.Context, userID string) ([]model.MessageNewUser, error) {
	links := []model.MessageNewUser{}
	query := `SELECT id, user_id, message_id, is_sender FROM message_users WHERE user_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &links, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list message links by user: %w", err)
	}
	return links, nil
}

func (r *messageLinkRepository) ListByMessage(ctx context.Context, messageID string) ([]model.MessageNewUser, error) {
	links := []model.MessageNewUser{}
	query := `SELECT id, user_id, message_id, is_sender FROM message_users WHERE message_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &links, query, messageID); err != nil {
		return nil, fmt.Errorf("failed to list message links by message: %w", err)
	}
	return links, nil
}

func (r *messageLinkRepository) Save(ctx context.Context, l *model.MessageNewUser) error {
	query := `
		INSERT INTO message_users (id, user_id, message_id, is_sender)
		VALUES (:id, :user_id, :message_id, :is_sender)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, l); err != nil {
		return fmt.Errorf("failed to save message link: %w", err)
	}
	return nil
}

func (r *messageLinkRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "message_users", id)
}
