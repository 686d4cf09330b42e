package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/mafunzo/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) *progressRepository {
	return &progressRepository{db: db.progress}
}

func (repo *progressRepository) UpsertProgress(_ context.Context, rec progress.Record) (progress.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	key := progressKey{userID: rec.UserID, trainingID: rec.TrainingID}
	orig, ok := repo.db.records[key]
	if !ok {
		rec.CreatedAt = now
		rec.UpdatedAt = now
		repo.db.records[key] = &rec
		return rec, nil
	}

	// stored progress only ever moves forward
	if rec.Progress > orig.Progress {
		orig.Progress = rec.Progress
	}
	orig.Completed = orig.Completed || rec.Completed
	if !orig.CompletedAt.Valid {
		orig.CompletedAt = rec.CompletedAt
	}
	orig.UpdatedAt = now
	return *orig, nil
}

func (repo *progressRepository) GetProgress(_ context.Context, userID, trainingID string) (progress.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.records[progressKey{userID: userID, trainingID: trainingID}]; ok {
		return *rec, nil
	}
	return progress.Record{}, progress.ErrNotFound
}

func (repo *progressRepository) QueryProgressByUser(_ context.Context, userID string) ([]progress.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := make([]progress.Record, 0)
	for key, rec := range repo.db.records {
		if key.userID == userID {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].UpdatedAt.After(recs[j].UpdatedAt) })
	return recs, nil
}

func (repo *progressRepository) UpsertRating(_ context.Context, rtg progress.Rating) (progress.Rating, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	key := progressKey{userID: rtg.UserID, trainingID: rtg.TrainingID}
	orig, ok := repo.db.ratings[key]
	if !ok {
		rtg.CreatedAt = now
		rtg.UpdatedAt = now
		repo.db.ratings[key] = &rtg
		return rtg, nil
	}

	// last write wins
	orig.Rating = rtg.Rating
	orig.UpdatedAt = now
	return *orig, nil
}

func (repo *progressRepository) GetRating(_ context.Context, userID, trainingID string) (progress.Rating, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rtg, ok := repo.db.ratings[progressKey{userID: userID, trainingID: trainingID}]; ok {
		return *rtg, nil
	}
	return progress.Rating{}, progress.ErrRatingNotFound
}
