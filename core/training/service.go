package training

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mafunzo/core"
)

var ErrNotFound = errors.New("training not found")

type (
	Repository interface {
		CreateTraining(ctx context.Context, trn Training) (Training, error)
		// QueryTrainings applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Training.Title or Training.Description.
		QueryTrainings(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Training, error)
		GetTrainingByID(ctx context.Context, id string) (Training, error)
		UpdateTraining(ctx context.Context, trn Training) (Training, error)
		DeleteTrainingsByID(ctx context.Context, ids ...string) (int, error)
		CountTrainings(ctx context.Context) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nt NewTraining, uploaderID string) (Training, error) {
	now := time.Now().UTC()
	trn := Training{
		Title:       nt.Title,
		Description: nt.Description,
		VideoURL:    nt.VideoURL,
		Status:      nt.Status,
		Objectives:  nt.Objectives,
		UploaderID:  uploaderID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateTraining(ctx, trn)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Training, error) {
	return svc.repo.QueryTrainings(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Training, error) {
	return svc.repo.GetTrainingByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ut UpdateTraining) (Training, error) {
	trn := Training{
		ID:          id,
		Title:       ut.Title,
		Description: ut.Description,
		VideoURL:    ut.VideoURL,
		Status:      ut.Status,
		Objectives:  ut.Objectives,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateTraining(ctx, trn)
}

// SetVideo records the stored location of an uploaded training video.
func (svc *Service) SetVideo(ctx context.Context, id, videoPath, videoURL string) (Training, error) {
	trn, err := svc.repo.GetTrainingByID(ctx, id)
	if err != nil {
		return Training{}, err
	}
	trn.VideoPath = videoPath
	trn.VideoURL = videoURL
	trn.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTraining(ctx, trn)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteTrainingsByID(ctx, ids...)
	return err
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountTrainings(ctx)
}
