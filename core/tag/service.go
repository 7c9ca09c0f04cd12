package tag

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/confeval/core"
)

var (
	// errors
	ErrNotFound   = errors.New("tag not found")
	ErrNameExists = errors.New("a tag with this name already exists")
)

type (
	Repository interface {
		CheckTagUniqueness(ctx context.Context, name string, excludedTags []Tag, exec ...core.DBExecutor) error
		CreateTag(ctx context.Context, t Tag, exec ...core.DBExecutor) (Tag, error)
		QueryAllTags(ctx context.Context, exec ...core.DBExecutor) ([]Tag, error)
		GetTagByID(ctx context.Context, id string, exec ...core.DBExecutor) (Tag, error)
		UpdateTag(ctx context.Context, t Tag, exec ...core.DBExecutor) (Tag, error)
		DeleteTagsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service interface {
		CheckUniqueness(name string, exclTags ...Tag) error
		Create(ctx context.Context, nt NewTag) (Tag, error)
		QueryAll(ctx context.Context) ([]Tag, error)
		GetByID(ctx context.Context, id string) (Tag, error)
		Update(ctx context.Context, id string, ut UpdateTag) (Tag, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(name string, exclTags ...Tag) error {
	if err := svc.repo.CheckTagUniqueness(context.Background(), name, exclTags); err != nil {
		if errors.Cause(err) == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nt NewTag) (Tag, error) {
	t := Tag{
		Name:        nt.Name,
		Description: nt.Description,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateTag(ctx, t)
}

func (svc *service) QueryAll(ctx context.Context) ([]Tag, error) {
	return svc.repo.QueryAllTags(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (Tag, error) {
	return svc.repo.GetTagByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, ut UpdateTag) (Tag, error) {
	return svc.repo.UpdateTag(ctx, Tag{ID: id, Name: ut.Name, Description: ut.Description})
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteTagsByID(ctx, ids)
}
