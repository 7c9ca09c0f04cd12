package project

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/confeval/core"
)

// Project statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Project struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	StudentID    string    `json:"student_id"`
	SessionID    string    `json:"session_id,omitempty"`
	Status       string    `json:"status"`
	MentorEmail  string    `json:"mentor_email,omitempty"`
	PosterNumber string    `json:"poster_number,omitempty"`
	TagIDs       []string  `json:"tag_ids"`
	ReviewerIDs  []string  `json:"reviewer_ids"` // assigned reviewers
	CreatedAt    time.Time `json:"created_at"`   // UTC
	UpdatedAt    time.Time `json:"updated_at"`   // UTC
}

// NewProject contains information needed to submit a new Project.
type NewProject struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	MentorEmail string   `json:"mentor_email" validate:"omitempty,email"`
	SessionID   string   `json:"session_id"`
	TagIDs      []string `json:"tag_ids"`
}

func (np *NewProject) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.Description = core.CleanString(np.Description)
	np.MentorEmail = core.CleanString(np.MentorEmail, true /* lower */)
	return validate.Struct(np)
}

// UpdateProject defines what information may be provided to modify an existing Project.
type UpdateProject struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	MentorEmail  string   `json:"mentor_email" validate:"omitempty,email"`
	SessionID    *string  `json:"session_id"`
	PosterNumber string   `json:"poster_number"`
	TagIDs       []string `json:"tag_ids"`
}

func (up *UpdateProject) Validate(validate *validator.Validate, origPrj Project) error {
	title := core.CleanString(up.Title)
	if title != "" {
		up.Title = title
	} else {
		up.Title = origPrj.Title
	}
	up.Description = core.CleanString(up.Description)
	up.MentorEmail = core.CleanString(up.MentorEmail, true /* lower */)
	up.PosterNumber = core.CleanString(up.PosterNumber)
	return validate.Struct(up)
}

type QueryFilter struct {
	Search    string `query:"search"`
	Status    string `query:"status"`
	SessionID string `query:"session_id"`
	StudentID string `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Status == "" && qf.SessionID == "" && qf.StudentID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
