package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"adrenaline_backend/internal/model"
)

type eventRow struct {
	ID      string         `db:"id"`
	MeetID  string         `db:"meet_id"`
	Name    string         `db:"name"`
	Date    time.Time      `db:"date"`
	DiveIDs pq.StringArray `db:"dive_ids"`
}

type eventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var row eventRow
	err := r.db.GetContext(ctx, &row, `SELECT id, meet_id, name, date, dive_ids FROM events WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get event by id: %w", err)
	}
	return &model.Event{ID: row.ID, MeetID: row.MeetID, Name: row.Name, Date: row.Date, DiveIDs: nonNilStrings(row.DiveIDs)}, nil
}

func (r *eventRepository) Save(ctx context.Context, e *model.Event) error {
	query := `
		INSERT INTO events (id, meet_id, name, date, dive_ids)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			date = EXCLUDED.date,
			dive_ids = EXCLUDED.dive_ids
	`
	if _, err := r.db.ExecContext(ctx, query, e.ID, e.MeetID, e.Name, e.Date, pq.Array(nonNilStrings(e.DiveIDs))); err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

type diveRepository struct {
	db *sqlx.DB
}

func NewDiveRepository(db *sqlx.DB) DiveRepository {
	return &diveRepository{db: db}
}

func (r *diveRepository) ListByAthlete(ctx context.Context, athleteID string) ([]model.Dive, error) {
	query := `
		SELECT id, athlete_id, event_id, number, name, height, net_score, dd, total_score
		FROM dives
		WHERE athlete_id = $1
		ORDER BY id
	`
	dives := []model.Dive{}
	if err := r.db.SelectContext(ctx, &dives, query, athleteID); err != nil {
		return nil, fmt.Errorf("failed to list dives: %w", err)
	}
	return dives, nil
}

func (r *diveRepository) Save(ctx context.Context, d *model.Dive) error {
	query := `
		INSERT INTO dives (id, athlete_id, event_id, number, name, height, net_score, dd, total_score)
		VALUES (:id, :athlete_id, :event_id, :number, :name, :height, :net_score, :dd, :total_score)
		ON CONFLICT (id) DO UPDATE SET
			number = EXCLUDED.number,
			name = EXCLUDED.name,
			height = EXCLUDED.height,
			net_score = EXCLUDED.net_score,
			dd = EXCLUDED.dd,
			total_score = EXCLUDED.total_score
	`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("failed to save dive: %w", err)
	}
	return nil
}

func (r *diveRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "dives", id)
}

type judgeScoreRepository struct {
	db *sqlx.DB
}

func NewJudgeScoreRepository(db *sqlx.DB) JudgeScoreRepository {
	return &judgeScoreRepository{db: db}
}

func (r *judgeScoreRepository) ListByDive(ctx context.Context, diveID string) ([]model.JudgeScore, error) {
	scores := []model.JudgeScore{}
	err := r.db.SelectContext(ctx, &scores, `SELECT id, dive_id, score FROM judge_scores WHERE dive_id = $1 ORDER BY id`, diveID)
	if err != nil {
		return nil, fmt.Errorf("failed to list judge scores: %w", err)
	}
	return scores, nil
}

func (r *judgeScoreRepository) Save(ctx context.Context, s *model.JudgeScore) error {
	query := `
		INSERT INTO judge_scores (id, dive_id, score) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET score = EXCLUDED.score
	`
	if _, err := r.db.ExecContext(ctx, query, s.ID, s.DiveID, s.Score); err != nil {
		return fmt.Errorf("failed to save judge score: %w", err)
	}
	return nil
}

func (r *judgeScoreRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "judge_scores", id)
}
