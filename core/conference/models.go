package conference

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/confeval/core"
)

// Conference statuses
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusArchived  = "archived"
)

// Session statuses
const (
	SessionStatusUpcoming  = "upcoming"
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

type Conference struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Location    string    `json:"location,omitempty"`
	Status      string    `json:"status"`
	MaxSessions int       `json:"max_sessions"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// Session is a themed block of a conference to which projects are submitted
// and reviewers assigned.
type Session struct {
	ID           string    `json:"id"`
	ConferenceID string    `json:"conference_id,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Location     string    `json:"location,omitempty"`
	Status       string    `json:"status"`
	MaxProjects  int       `json:"max_projects"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewConference contains information needed to create a new Conference.
type NewConference struct {
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	Location    string    `json:"location"`
	MaxSessions int       `json:"max_sessions" validate:"omitempty,min=1"`
}

func (nc *NewConference) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	nc.Location = core.CleanString(nc.Location)
	return validate.Struct(nc)
}

// UpdateConference defines what information may be provided to modify an existing Conference.
type UpdateConference struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Location    string    `json:"location"`
	Status      string    `json:"status" validate:"omitempty,oneof=draft active completed archived"`
	MaxSessions int       `json:"max_sessions" validate:"omitempty,min=1"`
}

func (uc *UpdateConference) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	uc.Description = core.CleanString(uc.Description)
	uc.Location = core.CleanString(uc.Location)
	return validate.Struct(uc)
}

// NewSession contains information needed to create a new Session.
type NewSession struct {
	ConferenceID string    `json:"conference_id"`
	Name         string    `json:"name" validate:"required"`
	Description  string    `json:"description"`
	StartDate    time.Time `json:"start_date" validate:"required"`
	EndDate      time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	Location     string    `json:"location"`
	MaxProjects  int       `json:"max_projects" validate:"omitempty,min=1"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Description = core.CleanString(ns.Description)
	ns.Location = core.CleanString(ns.Location)
	return validate.Struct(ns)
}

// UpdateSession defines what information may be provided to modify an existing Session.
type UpdateSession struct {
	ConferenceID *string   `json:"conference_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Location     string    `json:"location"`
	Status       string    `json:"status" validate:"omitempty,oneof=upcoming active completed"`
	MaxProjects  int       `json:"max_projects" validate:"omitempty,min=1"`
}

func (us *UpdateSession) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.Description = core.CleanString(us.Description)
	us.Location = core.CleanString(us.Location)
	return validate.Struct(us)
}
