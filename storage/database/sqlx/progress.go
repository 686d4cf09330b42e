package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mafunzo/core/progress"
)

type progressRow struct {
	UserID      string    `db:"user_id"`
	TrainingID  string    `db:"training_id"`
	Progress    int       `db:"progress"`
	Completed   bool      `db:"completed"`
	CompletedAt null.Time `db:"completed_at"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row progressRow) toDomain() progress.Record {
	return progress.Record{
		UserID:      row.UserID,
		TrainingID:  row.TrainingID,
		Progress:    row.Progress,
		Completed:   row.Completed,
		CompletedAt: row.CompletedAt,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

type ratingRow struct {
	UserID     string    `db:"user_id"`
	TrainingID string    `db:"training_id"`
	Rating     int       `db:"rating"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (row ratingRow) toDomain() progress.Rating {
	return progress.Rating{
		UserID:     row.UserID,
		TrainingID: row.TrainingID,
		Rating:     row.Rating,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *sql.DB) *progressRepository {
	return &progressRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo progressRepository) validIDs(userID, trainingID string, sentinel error) error {
	if _, err := uuid.Parse(userID); err != nil {
		return sentinel
	}
	if _, err := uuid.Parse(trainingID); err != nil {
		return sentinel
	}
	return nil
}

// UpsertProgress never lowers a stored percentage and never un-completes a
// record; concurrent writers race through the DB which serializes them per
// (user, training) key.
func (repo progressRepository) UpsertProgress(ctx context.Context, rec progress.Record) (progress.Record, error) {
	query := `
		INSERT INTO user_progress (user_id, training_id, progress, completed, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id, training_id) DO UPDATE
		SET progress     = GREATEST(user_progress.progress, EXCLUDED.progress),
		    completed    = user_progress.completed OR EXCLUDED.completed,
		    completed_at = COALESCE(user_progress.completed_at, EXCLUDED.completed_at),
		    updated_at   = EXCLUDED.updated_at
		RETURNING *`

	var row progressRow
	err := repo.db.GetContext(ctx, &row, query,
		rec.UserID, rec.TrainingID, rec.Progress, rec.Completed, rec.CompletedAt, time.Now().UTC())
	if err != nil {
		return progress.Record{}, errors.Wrap(err, "upserting progress")
	}
	return row.toDomain(), nil
}

func (repo progressRepository) GetProgress(ctx context.Context, userID, trainingID string) (progress.Record, error) {
	if err := repo.validIDs(userID, trainingID, progress.ErrNotFound); err != nil {
		return progress.Record{}, err
	}
	var row progressRow
	query := `SELECT * FROM user_progress WHERE user_id = $1 AND training_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, userID, trainingID); err != nil {
		if err == sql.ErrNoRows {
			return progress.Record{}, progress.ErrNotFound
		}
		return progress.Record{}, errors.Wrap(err, "finding progress")
	}
	return row.toDomain(), nil
}

func (repo progressRepository) QueryProgressByUser(ctx context.Context, userID string) ([]progress.Record, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []progress.Record{}, nil
	}
	var rows []progressRow
	query := `SELECT * FROM user_progress WHERE user_id = $1 ORDER BY updated_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying user progress")
	}
	recs := make([]progress.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.toDomain())
	}
	return recs, nil
}

// UpsertRating is last-write-wins; re-rating a training replaces the old value.
func (repo progressRepository) UpsertRating(ctx context.Context, rtg progress.Rating) (progress.Rating, error) {
	query := `
		INSERT INTO training_rating (user_id, training_id, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id, training_id) DO UPDATE
		SET rating     = EXCLUDED.rating,
		    updated_at = EXCLUDED.updated_at
		RETURNING *`

	var row ratingRow
	err := repo.db.GetContext(ctx, &row, query, rtg.UserID, rtg.TrainingID, rtg.Rating, time.Now().UTC())
	if err != nil {
		return progress.Rating{}, errors.Wrap(err, "upserting rating")
	}
	return row.toDomain(), nil
}

func (repo progressRepository) GetRating(ctx context.Context, userID, trainingID string) (progress.Rating, error) {
	if err := repo.validIDs(userID, trainingID, progress.ErrRatingNotFound); err != nil {
		return progress.Rating{}, err
	}
	var row ratingRow
	query := `SELECT * FROM training_rating WHERE user_id = $1 AND training_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, userID, trainingID); err != nil {
		if err == sql.ErrNoRows {
			return progress.Rating{}, progress.ErrRatingNotFound
		}
		return progress.Rating{}, errors.Wrap(err, "finding rating")
	}
	return row.toDomain(), nil
}
