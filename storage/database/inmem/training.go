package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/mafunzo/core"
	"github.com/trezcool/mafunzo/core/training"
)

type trainingRepository struct {
	db *trainingTable
}

var _ training.Repository = (*trainingRepository)(nil) // interface compliance check

func NewTrainingRepository(db *DB) *trainingRepository {
	return &trainingRepository{db: db.training}
}

func (repo *trainingRepository) query() []training.Training {
	trainings := make([]training.Training, 0, len(repo.db.table))
	for _, trn := range repo.db.table {
		trainings = append(trainings, *trn)
	}
	return trainings
}

func (repo *trainingRepository) CreateTraining(_ context.Context, trn training.Training) (training.Training, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	trn.ID = uuid.New().String()
	repo.db.table[trn.ID] = &trn
	return trn, nil
}

func (repo *trainingRepository) QueryTrainings(_ context.Context, filter *training.QueryFilter, ordering []core.DBOrdering) ([]training.Training, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	trainings := make([]training.Training, 0, len(repo.db.table))
	for _, trn := range repo.query() {
		if matchesTrainingFilter(trn, filter) {
			trainings = append(trainings, trn)
		}
	}
	sortTrainings(trainings, ordering)
	return trainings, nil
}

func matchesTrainingFilter(trn training.Training, filter *training.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(trn.Title), needle) &&
			!strings.Contains(strings.ToLower(trn.Description), needle) {
			return false
		}
	}
	if filter.Status != "" && trn.Status != filter.Status {
		return false
	}
	if filter.UploaderID != "" && trn.UploaderID != filter.UploaderID {
		return false
	}
	return true
}

func sortTrainings(trainings []training.Training, ordering []core.DBOrdering) {
	sort.Slice(trainings, func(i, j int) bool {
		for _, ord := range ordering {
			var less, eq bool
			switch ord.Field {
			case "title":
				less, eq = trainings[i].Title < trainings[j].Title, trainings[i].Title == trainings[j].Title
			case "status":
				less, eq = trainings[i].Status < trainings[j].Status, trainings[i].Status == trainings[j].Status
			case "created_at":
				less, eq = trainings[i].CreatedAt.Before(trainings[j].CreatedAt), trainings[i].CreatedAt.Equal(trainings[j].CreatedAt)
			default:
				continue
			}
			if eq {
				continue
			}
			if ord.Ascending {
				return less
			}
			return !less
		}
		// default: newest first
		return trainings[i].CreatedAt.After(trainings[j].CreatedAt)
	})
}

func (repo *trainingRepository) GetTrainingByID(_ context.Context, id string) (training.Training, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if trn, ok := repo.db.table[id]; ok {
		return *trn, nil
	}
	return training.Training{}, training.ErrNotFound
}

func (repo *trainingRepository) UpdateTraining(_ context.Context, trn training.Training) (training.Training, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	origTrn, ok := repo.db.table[trn.ID]
	if !ok {
		return training.Training{}, training.ErrNotFound
	}
	if trn.Title != "" {
		origTrn.Title = trn.Title
	}
	if trn.Description != "" {
		origTrn.Description = trn.Description
	}
	if trn.VideoURL != "" {
		origTrn.VideoURL = trn.VideoURL
	}
	if trn.VideoPath != "" {
		origTrn.VideoPath = trn.VideoPath
	}
	if trn.Status != "" {
		origTrn.Status = trn.Status
	}
	if trn.Objectives != nil {
		origTrn.Objectives = trn.Objectives
	}
	if trn.UpdatedAt.IsZero() {
		origTrn.UpdatedAt = time.Now().UTC()
	} else {
		origTrn.UpdatedAt = trn.UpdatedAt
	}

	repo.db.table[trn.ID] = origTrn
	return *origTrn, nil
}

func (repo *trainingRepository) DeleteTrainingsByID(_ context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *trainingRepository) CountTrainings(_ context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.table), nil
}
