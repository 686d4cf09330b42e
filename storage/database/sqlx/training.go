package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/mafunzo/core"
	"github.com/trezcool/mafunzo/core/training"
)

type trainingRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	VideoURL    string         `db:"video_url"`
	VideoPath   string         `db:"video_path"`
	Status      string         `db:"status"`
	Objectives  pq.StringArray `db:"objectives"`
	UploaderID  string         `db:"uploader_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (row trainingRow) toDomain() training.Training {
	return training.Training{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		VideoURL:    row.VideoURL,
		VideoPath:   row.VideoPath,
		Status:      row.Status,
		Objectives:  row.Objectives,
		UploaderID:  row.UploaderID,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

type trainingRepository struct {
	db *sqlx.DB
}

var _ training.Repository = (*trainingRepository)(nil) // interface compliance check

func NewTrainingRepository(db *sql.DB) *trainingRepository {
	return &trainingRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo trainingRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return training.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo trainingRepository) CreateTraining(ctx context.Context, trn training.Training) (training.Training, error) {
	trn.ID = uuid.New().String()

	query := `
		INSERT INTO training (id, title, description, video_url, video_path, status, objectives, uploader_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, query,
		trn.ID, trn.Title, trn.Description, trn.VideoURL, trn.VideoPath, trn.Status,
		pq.StringArray(trn.Objectives), trn.UploaderID, trn.CreatedAt.UTC(), trn.UpdatedAt.UTC())
	if err != nil {
		return training.Training{}, errors.Wrap(err, "inserting training")
	}
	return trn, nil
}

func (repo trainingRepository) QueryTrainings(ctx context.Context, filter *training.QueryFilter, ordering []core.DBOrdering) ([]training.Training, error) {
	query := `SELECT * FROM training`
	var clauses []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			clauses = append(clauses, "(title ILIKE ? OR description ILIKE ?)")
			args = append(args, val, val)
		}
		if filter.Status != "" {
			clauses = append(clauses, "status = ?")
			args = append(args, filter.Status)
		}
		if filter.UploaderID != "" {
			clauses = append(clauses, "uploader_id = ?")
			args = append(args, filter.UploaderID)
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		query += " ORDER BY created_at DESC"
	}

	var rows []trainingRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying trainings")
	}
	trainings := make([]training.Training, 0, len(rows))
	for _, row := range rows {
		trainings = append(trainings, row.toDomain())
	}
	return trainings, nil
}

func (repo trainingRepository) GetTrainingByID(ctx context.Context, id string) (training.Training, error) {
	if _, err := uuid.Parse(id); err != nil {
		return training.Training{}, training.ErrNotFound
	}
	var row trainingRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM training WHERE id = $1`, id); err != nil {
		return training.Training{}, repo.trapNoRowsErr(err, "finding training")
	}
	return row.toDomain(), nil
}

// UpdateTraining only overwrites set fields; zero values keep the stored ones.
func (repo trainingRepository) UpdateTraining(ctx context.Context, trn training.Training) (training.Training, error) {
	query := `
		UPDATE training
		SET title       = COALESCE(NULLIF($2, ''), title),
		    description = COALESCE(NULLIF($3, ''), description),
		    video_url   = COALESCE(NULLIF($4, ''), video_url),
		    video_path  = COALESCE(NULLIF($5, ''), video_path),
		    status      = COALESCE(NULLIF($6, ''), status),
		    objectives  = COALESCE($7, objectives),
		    updated_at  = $8
		WHERE id = $1
		RETURNING *`

	var objectives interface{}
	if trn.Objectives != nil {
		objectives = pq.StringArray(trn.Objectives)
	}

	var row trainingRow
	err := repo.db.GetContext(ctx, &row, query,
		trn.ID, trn.Title, trn.Description, trn.VideoURL, trn.VideoPath, trn.Status, objectives, time.Now().UTC())
	if err != nil {
		return training.Training{}, repo.trapNoRowsErr(err, "updating training")
	}
	return row.toDomain(), nil
}

func (repo trainingRepository) DeleteTrainingsByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM training WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "expanding training ids")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting trainings")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting trainings")
	}
	return int(cnt), nil
}

func (repo trainingRepository) CountTrainings(ctx context.Context) (int, error) {
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, `SELECT COUNT(*) FROM training`); err != nil {
		return 0, errors.Wrap(err, "counting trainings")
	}
	return cnt, nil
}
