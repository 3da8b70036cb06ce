package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"adrenaline_backend/internal/model"
)

// NewStore wires every Postgres-backed repository onto one connection pool.
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		Users:        NewUserRepository(db),
		Coaches:      NewCoachRepository(db),
		Athletes:     NewAthleteRepository(db),
		Teams:        NewTeamRepository(db),
		Colleges:     NewCollegeRepository(db),
		Events:       NewEventRepository(db),
		Dives:        NewDiveRepository(db),
		JudgeScores:  NewJudgeScoreRepository(db),
		Posts:        NewPostRepository(db),
		Media:        NewMediaRepository(db),
		SavedPosts:   NewSavedPostRepository(db),
		Messages:     NewMessageRepository(db),
		MessageLinks: NewMessageLinkRepository(db),
	}
}

// deleteByID removes one row and reports model.ErrNotFound when nothing matched.
// table is always a package constant.
func deleteByID(ctx context.Context, db *sqlx.DB, table, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
