package progress

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

var (
	// errors
	ErrNotFound       = errors.New("progress record not found")
	ErrRatingNotFound = errors.New("rating not found")
)

type (
	Repository interface {
		// UpsertProgress inserts or updates the Record for its (UserID, TrainingID)
		// pair atomically. Stored progress never decreases, a completed record never
		// un-completes and CompletedAt is kept from the first completion.
		UpsertProgress(ctx context.Context, rec Record) (Record, error)
		GetProgress(ctx context.Context, userID, trainingID string) (Record, error)
		QueryProgressByUser(ctx context.Context, userID string) ([]Record, error)

		// UpsertRating inserts or updates the Rating for its pair; last write wins.
		UpsertRating(ctx context.Context, rat Rating) (Rating, error)
		GetRating(ctx context.Context, userID, trainingID string) (Rating, error)
	}

	// TrainingCounter reports the catalog size, used for completion statistics.
	TrainingCounter interface {
		CountTrainings(ctx context.Context) (int, error)
	}

	Service struct {
		repo    Repository
		catalog TrainingCounter
	}
)

func NewService(repo Repository, catalog TrainingCounter) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// Save upserts a progress report. A completed report forces progress to 100
// and stamps CompletedAt; the repository ratchet guarantees the stored record
// only ever moves forward regardless of report ordering.
func (svc *Service) Save(ctx context.Context, sp SaveProgress) (Record, error) {
	now := time.Now().UTC()
	rec := Record{
		UserID:     sp.UserID,
		TrainingID: sp.TrainingID,
		Progress:   sp.Progress,
		Completed:  sp.Completed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if sp.Completed {
		rec.Progress = 100
		rec.CompletedAt = null.TimeFrom(now)
	}
	return svc.repo.UpsertProgress(ctx, rec)
}

// Get fetches the Record for a (user, training) pair.
// Absence is not an error; it means "not started".
func (svc *Service) Get(ctx context.Context, userID, trainingID string) (Record, error) {
	rec, err := svc.repo.GetProgress(ctx, userID, trainingID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Record{UserID: userID, TrainingID: trainingID}, nil
		}
		return Record{}, err
	}
	return rec, nil
}

// QueryByUser returns all of a user's records along with completion statistics.
func (svc *Service) QueryByUser(ctx context.Context, userID string) (UserProgress, error) {
	records, err := svc.repo.QueryProgressByUser(ctx, userID)
	if err != nil {
		return UserProgress{}, errors.Wrap(err, "querying user progress")
	}
	if records == nil {
		records = []Record{}
	}

	total, err := svc.catalog.CountTrainings(ctx)
	if err != nil {
		return UserProgress{}, errors.Wrap(err, "counting trainings")
	}

	var completed int
	for _, rec := range records {
		if rec.Completed {
			completed++
		}
	}

	var pct int
	if total > 0 {
		pct = int(math.Round(float64(completed) / float64(total) * 100))
	}

	return UserProgress{
		UserProgress: records,
		Statistics: Statistics{
			TotalTrainings:       total,
			CompletedTrainings:   completed,
			CompletionPercentage: pct,
		},
	}, nil
}

// Rate upserts a user's rating of a training; last write wins.
func (svc *Service) Rate(ctx context.Context, sr SaveRating) (Rating, error) {
	now := time.Now().UTC()
	return svc.repo.UpsertRating(ctx, Rating{
		UserID:     sr.UserID,
		TrainingID: sr.TrainingID,
		Rating:     sr.Rating,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// GetRating fetches a user's rating of a training; nil when not rated yet.
func (svc *Service) GetRating(ctx context.Context, userID, trainingID string) (*Rating, error) {
	rat, err := svc.repo.GetRating(ctx, userID, trainingID)
	if err != nil {
		if errors.Cause(err) == ErrRatingNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rat, nil
}
