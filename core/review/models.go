package review

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/confeval/core"
)

const (
	DefaultMaxScore = 10
	DefaultWeight   = 1.0
)

// Criterion is one weighted scoring axis defined per session.
type Criterion struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	MaxScore    int       `json:"max_score"`
	Weight      float64   `json:"weight"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

type CriterionScore struct {
	CriterionID string  `json:"criterion_id" validate:"required"`
	Score       float64 `json:"score" validate:"min=0"`
}

type Review struct {
	ID          string           `json:"id"`
	ProjectID   string           `json:"project_id"`
	ReviewerID  string           `json:"reviewer_id"`
	Comments    string           `json:"comments,omitempty"`
	Scores      []CriterionScore `json:"criteria_scores"`
	TotalScore  float64          `json:"total_score"`
	IsCompleted bool             `json:"is_completed"`
	CreatedAt   time.Time        `json:"created_at"` // UTC
	UpdatedAt   time.Time        `json:"updated_at"` // UTC
}

// NewCriterion contains information needed to create a new Criterion.
type NewCriterion struct {
	SessionID   string  `json:"session_id" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	MaxScore    int     `json:"max_score" validate:"omitempty,min=1"`
	Weight      float64 `json:"weight" validate:"omitempty,gt=0"`
	Order       int     `json:"order" validate:"omitempty,min=0"`
}

func (nc *NewCriterion) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// UpdateCriterion defines what information may be provided to modify an
// existing Criterion.
type UpdateCriterion struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	MaxScore    int     `json:"max_score" validate:"omitempty,min=1"`
	Weight      float64 `json:"weight" validate:"omitempty,gt=0"`
	Order       int     `json:"order" validate:"omitempty,min=0"`
}

func (uc *UpdateCriterion) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	uc.Description = core.CleanString(uc.Description)
	return validate.Struct(uc)
}

// NewReview contains information needed to submit a review.
type NewReview struct {
	ProjectID   string           `json:"project_id" validate:"required"`
	Comments    string           `json:"comments"`
	Scores      []CriterionScore `json:"criteria_scores" validate:"required,min=1,dive"`
	IsCompleted bool             `json:"is_completed"`
}

func (nr *NewReview) Validate(validate *validator.Validate) error {
	nr.Comments = core.CleanString(nr.Comments)
	return validate.Struct(nr)
}

// UpdateReview defines what information may be provided to modify an existing Review.
type UpdateReview struct {
	Comments    string           `json:"comments"`
	Scores      []CriterionScore `json:"criteria_scores" validate:"omitempty,min=1,dive"`
	IsCompleted *bool            `json:"is_completed"`
}

func (ur *UpdateReview) Validate(validate *validator.Validate) error {
	ur.Comments = core.CleanString(ur.Comments)
	return validate.Struct(ur)
}
