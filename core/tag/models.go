package tag

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/confeval/core"
)

// Tag is a topical label matching reviewer interest to project subject matter.
type Tag struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// NewTag contains information needed to create a new Tag.
type NewTag struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (nt *NewTag) Validate(validate *validator.Validate, svc Service) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Description = core.CleanString(nt.Description)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	return svc.CheckUniqueness(nt.Name)
}

// UpdateTag defines what information may be provided to modify an existing Tag.
type UpdateTag struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (ut *UpdateTag) Validate(validate *validator.Validate, origTag Tag, svc Service) error {
	name := core.CleanString(ut.Name)
	if name != "" {
		ut.Name = name
	} else {
		ut.Name = origTag.Name
	}
	ut.Description = core.CleanString(ut.Description)

	if err := validate.Struct(ut); err != nil {
		return err
	}
	return svc.CheckUniqueness(ut.Name, origTag)
}
