package training

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mafunzo/core"
)

// Statuses
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
	StatusArchived  = "ARCHIVED"
)

var AllStatuses = []string{StatusDraft, StatusPublished, StatusArchived}

type Training struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoURL    string    `json:"video_url"`
	VideoPath   string    `json:"video_path,omitempty"`
	Status      string    `json:"status"`
	Objectives  []string  `json:"objectives"`
	UploaderID  string    `json:"uploader_id"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (t *Training) IsPublished() bool { return t.Status == StatusPublished }

// NewTraining contains information needed to create a new Training.
type NewTraining struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	VideoURL    string   `json:"video_url" validate:"omitempty,url"`
	Status      string   `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
	Objectives  []string `json:"objectives" validate:"omitempty,max=4,dive,required"`
}

func (nt *NewTraining) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	if nt.Status == "" {
		nt.Status = StatusDraft
	}
	for i, obj := range nt.Objectives {
		nt.Objectives[i] = core.CleanString(obj)
	}
	return validate.Struct(nt)
}

// UpdateTraining defines what information may be provided to modify an existing Training.
type UpdateTraining struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	VideoURL    string   `json:"video_url" validate:"omitempty,url"`
	Status      string   `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
	Objectives  []string `json:"objectives" validate:"omitempty,max=4,dive,required"`
}

func (ut *UpdateTraining) Validate(origTrn Training, validate *validator.Validate) error {
	title := core.CleanString(ut.Title)
	if title != "" {
		ut.Title = title
	} else {
		ut.Title = origTrn.Title
	}

	desc := core.CleanString(ut.Description)
	if desc != "" {
		ut.Description = desc
	} else {
		ut.Description = origTrn.Description
	}

	if ut.VideoURL == "" {
		ut.VideoURL = origTrn.VideoURL
	}
	if ut.Status == "" {
		ut.Status = origTrn.Status
	}
	if ut.Objectives == nil {
		ut.Objectives = origTrn.Objectives
	}
	return validate.Struct(ut)
}

type QueryFilter struct {
	Search     string `query:"search"`
	Status     string `query:"status"`
	UploaderID string `query:"uploader_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Status == "" && qf.UploaderID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status)
}
