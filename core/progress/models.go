package progress

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mafunzo/core"
)

// Record tracks how much of a training's video a user has watched.
// There is at most one Record per (UserID, TrainingID) pair.
//
// Progress never decreases and Completed never reverts once set;
// the storage tier enforces both on upsert.
type Record struct {
	UserID      string    `json:"userId"`
	TrainingID  string    `json:"trainingId"`
	Progress    int       `json:"progress"` // percentage, [0,100]
	Completed   bool      `json:"completed"`
	CompletedAt null.Time `json:"completedAt"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
	UpdatedAt   time.Time `json:"updatedAt"` // UTC
}

func (r *Record) IsStarted() bool { return r.Progress > 0 || r.Completed }

// Rating is a user's 1-5 star rating of a training; one per (UserID, TrainingID) pair.
type Rating struct {
	UserID     string    `json:"userId"`
	TrainingID string    `json:"trainingId"`
	Rating     int       `json:"rating"`
	CreatedAt  time.Time `json:"createdAt"` // UTC
	UpdatedAt  time.Time `json:"updatedAt"` // UTC
}

// SaveProgress contains a progress report for a (user, training) pair.
type SaveProgress struct {
	UserID     string `json:"userId" validate:"required"`
	TrainingID string `json:"trainingId" validate:"required"`
	Progress   int    `json:"progress" validate:"min=0,max=100"`
	Completed  bool   `json:"completed"`
}

func (sp *SaveProgress) Validate(validate *validator.Validate) error {
	sp.UserID = core.CleanString(sp.UserID)
	sp.TrainingID = core.CleanString(sp.TrainingID)
	return validate.Struct(sp)
}

// SaveRating contains a rating report for a (user, training) pair.
type SaveRating struct {
	UserID     string `json:"userId" validate:"required"`
	TrainingID string `json:"trainingId" validate:"required"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
}

func (sr *SaveRating) Validate(validate *validator.Validate) error {
	sr.UserID = core.CleanString(sr.UserID)
	sr.TrainingID = core.CleanString(sr.TrainingID)
	return validate.Struct(sr)
}

// Statistics summarizes a user's completion state across the whole catalog.
type Statistics struct {
	TotalTrainings       int `json:"totalTrainings"`
	CompletedTrainings   int `json:"completedTrainings"`
	CompletionPercentage int `json:"completionPercentage"`
}

// UserProgress is the dashboard payload: all of a user's records plus statistics.
type UserProgress struct {
	UserProgress []Record   `json:"userProgress"`
	Statistics   Statistics `json:"statistics"`
}
