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

// ============================================================================
// Coaches
// ============================================================================

type coachRow struct {
	ID             string        `db:"id"`
	UserID         string        `db:"user_id"`
	TeamID         *string       `db:"team_id"`
	CollegeID      *string       `db:"college_id"`
	FavoritesOrder pq.Int64Array `db:"favorites_order"`
}

type coachRepository struct {
	db *sqlx.DB
}

func NewCoachRepository(db *sqlx.DB) CoachRepository {
	return &coachRepository{db: db}
}

func (r *coachRepository) GetByID(ctx context.Context, id string) (*model.CoachProfile, error) {
	query := `SELECT id, user_id, team_id, college_id, favorites_order FROM coaches WHERE id = $1`

	var row coachRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get coach by id: %w", err)
	}

	order := make([]int, 0, len(row.FavoritesOrder))
	for _, v := range row.FavoritesOrder {
		order = append(order, int(v))
	}
	return &model.CoachProfile{
		ID:             row.ID,
		UserID:         row.UserID,
		TeamID:         row.TeamID,
		CollegeID:      row.CollegeID,
		FavoritesOrder: order,
	}, nil
}

func (r *coachRepository) Save(ctx context.Context, c *model.CoachProfile) error {
	query := `
		INSERT INTO coaches (id, user_id, team_id, college_id, favorites_order)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			college_id = EXCLUDED.college_id,
			favorites_order = EXCLUDED.favorites_order
	`

	order := make(pq.Int64Array, 0, len(c.FavoritesOrder))
	for _, v := range c.FavoritesOrder {
		order = append(order, int64(v))
	}
	if _, err := r.db.ExecContext(ctx, query, c.ID, c.UserID, c.TeamID, c.CollegeID, order); err != nil {
		return fmt.Errorf("failed to save coach: %w", err)
	}
	return nil
}

func (r *coachRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "coaches", id)
}

// ============================================================================
// Athletes
// ============================================================================

const athleteColumns = `id, user_id, team_id, college_id, height_feet, height_inches, weight, weight_unit,
		gender, graduation_year, high_school, hometown, springboard_rating, platform_rating, total_rating`

type athleteRepository struct {
	db *sqlx.DB
}

func NewAthleteRepository(db *sqlx.DB) AthleteRepository {
	return &athleteRepository{db: db}
}

func (r *athleteRepository) GetByID(ctx context.Context, id string) (*model.AthleteProfile, error) {
	query := `SELECT ` + athleteColumns + ` FROM athletes WHERE id = $1`

	var a model.AthleteProfile
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get athlete by id: %w", err)
	}
	return &a, nil
}

func (r *athleteRepository) Save(ctx context.Context, a *model.AthleteProfile) error {
	query := `
		INSERT INTO athletes (` + athleteColumns + `)
		VALUES (:id, :user_id, :team_id, :college_id, :height_feet, :height_inches, :weight, :weight_unit,
		        :gender, :graduation_year, :high_school, :hometown, :springboard_rating, :platform_rating, :total_rating)
		ON CONFLICT (id) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			college_id = EXCLUDED.college_id,
			height_feet = EXCLUDED.height_feet,
			height_inches = EXCLUDED.height_inches,
			weight = EXCLUDED.weight,
			weight_unit = EXCLUDED.weight_unit,
			gender = EXCLUDED.gender,
			graduation_year = EXCLUDED.graduation_year,
			high_school = EXCLUDED.high_school,
			hometown = EXCLUDED.hometown,
			springboard_rating = EXCLUDED.springboard_rating,
			platform_rating = EXCLUDED.platform_rating,
			total_rating = EXCLUDED.total_rating
	`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("failed to save athlete: %w", err)
	}
	return nil
}

func (r *athleteRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "athletes", id)
}

// ============================================================================
// Teams and colleges
// ============================================================================

type teamRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	CoachID    *string        `db:"coach_id"`
	AthleteIDs pq.StringArray `db:"athlete_ids"`
}

type teamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*model.Team, error) {
	var row teamRow
	err := r.db.GetContext(ctx, &row, `SELECT id, name, coach_id, athlete_ids FROM teams WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get team by id: %w", err)
	}
	return &model.Team{ID: row.ID, Name: row.Name, CoachID: row.CoachID, AthleteIDs: nonNilStrings(row.AthleteIDs)}, nil
}

func (r *teamRepository) Save(ctx context.Context, t *model.Team) error {
	query := `
		INSERT INTO teams (id, name, coach_id, athlete_ids)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			coach_id = EXCLUDED.coach_id,
			athlete_ids = EXCLUDED.athlete_ids
	`
	if _, err := r.db.ExecContext(ctx, query, t.ID, t.Name, t.CoachID, pq.Array(nonNilStrings(t.AthleteIDs))); err != nil {
		return fmt.Errorf("failed to save team: %w", err)
	}
	return nil
}

type collegeRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	ImageLink  string         `db:"image_link"`
	CoachID    *string        `db:"coach_id"`
	AthleteIDs pq.StringArray `db:"athlete_ids"`
}

type collegeRepository struct {
	db *sqlx.DB
}

func NewCollegeRepository(db *sqlx.DB) CollegeRepository {
	return &collegeRepository{db: db}
}

func (r *collegeRepository) GetByID(ctx context.Context, id string) (*model.College, error) {
	var row collegeRow
	err := r.db.GetContext(ctx, &row, `SELECT id, name, image_link, coach_id, athlete_ids FROM colleges WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get college by id: %w", err)
	}
	return &model.College{
		ID:         row.ID,
		Name:       row.Name,
		ImageLink:  row.ImageLink,
		CoachID:    row.CoachID,
		AthleteIDs: nonNilStrings(row.AthleteIDs),
	}, nil
}

func (r *collegeRepository) Save(ctx context.Context, c *model.College) error {
	query := `
		INSERT INTO colleges (id, name, image_link, coach_id, athlete_ids)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			image_link = EXCLUDED.image_link,
			coach_id = EXCLUDED.coach_id,
			athlete_ids = EXCLUDED.athlete_ids
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.ImageLink, c.CoachID, pq.Array(nonNilStrings(c.AthleteIDs)))
	if err != nil {
		return fmt.Errorf("failed to save college: %w", err)
	}
	return nil
}
