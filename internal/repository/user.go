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

const userColumns = `id, first_name, last_name, email, phone, dive_meets_id, account_type,
		favorites_ids, saved_post_ids, athlete_id, coach_id, created_at, updated_at`

// userRow carries the array columns sqlx cannot scan into []string.
type userRow struct {
	ID           string         `db:"id"`
	FirstName    string         `db:"first_name"`
	LastName     string         `db:"last_name"`
	Email        string         `db:"email"`
	Phone        *string        `db:"phone"`
	DiveMeetsID  *string        `db:"dive_meets_id"`
	AccountType  string         `db:"account_type"`
	FavoritesIDs pq.StringArray `db:"favorites_ids"`
	SavedPostIDs pq.StringArray `db:"saved_post_ids"`
	AthleteID    *string        `db:"athlete_id"`
	CoachID      *string        `db:"coach_id"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r userRow) toModel() model.User {
	return model.User{
		ID:           r.ID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		Phone:        r.Phone,
		DiveMeetsID:  r.DiveMeetsID,
		AccountType:  model.AccountType(r.AccountType),
		FavoritesIDs: nonNilStrings(r.FavoritesIDs),
		SavedPostIDs: nonNilStrings(r.SavedPostIDs),
		AthleteID:    r.AthleteID,
		CoachID:      r.CoachID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func usersFromRows(rows []userRow) []model.User {
	users := make([]model.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toModel())
	}
	return users
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	u := row.toModel()
	return &u, nil
}

// GetByIDs issues one query for the whole id set.
func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY created_at, id`

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get users by ids: %w", err)
	}
	return usersFromRows(rows), nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, email); err != nil {
		return nil, fmt.Errorf("failed to find users by email: %w", err)
	}
	return usersFromRows(rows), nil
}

func (r *userRepository) FindByFavorite(ctx context.Context, userID string) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE $1 = ANY(favorites_ids) ORDER BY id`

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to find users by favorite: %w", err)
	}
	return usersFromRows(rows), nil
}

// Save upserts the whole record. CreatedAt is kept from the first insert.
func (r *userRepository) Save(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, email, phone, dive_meets_id, account_type,
		                   favorites_ids, saved_post_ids, athlete_id, coach_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			dive_meets_id = EXCLUDED.dive_meets_id,
			account_type = EXCLUDED.account_type,
			favorites_ids = EXCLUDED.favorites_ids,
			saved_post_ids = EXCLUDED.saved_post_ids,
			athlete_id = EXCLUDED.athlete_id,
			coach_id = EXCLUDED.coach_id,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		u.ID,
		u.FirstName,
		u.LastName,
		u.Email,
		u.Phone,
		u.DiveMeetsID,
		string(u.AccountType),
		pq.Array(nonNilStrings(u.FavoritesIDs)),
		pq.Array(nonNilStrings(u.SavedPostIDs)),
		u.AthleteID,
		u.CoachID,
	)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "users", id)
}
