package conference

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/confeval/core"
)

var (
	// errors
	ErrNotFound        = errors.New("conference not found")
	ErrSessionNotFound = errors.New("session not found")
)

type (
	Repository interface {
		CreateConference(ctx context.Context, c Conference, exec ...core.DBExecutor) (Conference, error)
		QueryAllConferences(ctx context.Context, exec ...core.DBExecutor) ([]Conference, error)
		GetConferenceByID(ctx context.Context, id string, exec ...core.DBExecutor) (Conference, error)
		UpdateConference(ctx context.Context, c Conference, exec ...core.DBExecutor) (Conference, error)
		DeleteConferencesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error

		CreateSession(ctx context.Context, s Session, exec ...core.DBExecutor) (Session, error)
		// QuerySessions returns all sessions; conferenceID restricts to one conference when non-empty.
		QuerySessions(ctx context.Context, conferenceID string, exec ...core.DBExecutor) ([]Session, error)
		GetSessionByID(ctx context.Context, id string, exec ...core.DBExecutor) (Session, error)
		UpdateSession(ctx context.Context, s Session, conferenceID *string, exec ...core.DBExecutor) (Session, error)
		DeleteSessionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, nc NewConference) (Conference, error)
		QueryAll(ctx context.Context) ([]Conference, error)
		GetByID(ctx context.Context, id string) (Conference, error)
		Update(ctx context.Context, id string, uc UpdateConference) (Conference, error)
		Delete(ctx context.Context, ids ...string) error

		CreateSession(ctx context.Context, ns NewSession) (Session, error)
		QuerySessions(ctx context.Context, conferenceID string) ([]Session, error)
		GetSessionByID(ctx context.Context, id string) (Session, error)
		UpdateSession(ctx context.Context, id string, us UpdateSession) (Session, error)
		DeleteSessions(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nc NewConference) (Conference, error) {
	now := time.Now().UTC()
	c := Conference{
		Name:        nc.Name,
		Description: nc.Description,
		StartDate:   nc.StartDate,
		EndDate:     nc.EndDate,
		Location:    nc.Location,
		Status:      StatusDraft,
		MaxSessions: nc.MaxSessions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.MaxSessions == 0 {
		c.MaxSessions = 10
	}
	return svc.repo.CreateConference(ctx, c)
}

func (svc *service) QueryAll(ctx context.Context) ([]Conference, error) {
	return svc.repo.QueryAllConferences(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (Conference, error) {
	return svc.repo.GetConferenceByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, uc UpdateConference) (Conference, error) {
	c := Conference{
		ID:          id,
		Name:        uc.Name,
		Description: uc.Description,
		StartDate:   uc.StartDate,
		EndDate:     uc.EndDate,
		Location:    uc.Location,
		Status:      uc.Status,
		MaxSessions: uc.MaxSessions,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateConference(ctx, c)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteConferencesByID(ctx, ids)
}

func (svc *service) CreateSession(ctx context.Context, ns NewSession) (Session, error) {
	if ns.ConferenceID != "" {
		if _, err := svc.repo.GetConferenceByID(ctx, ns.ConferenceID); err != nil {
			return Session{}, err
		}
	}
	now := time.Now().UTC()
	s := Session{
		ConferenceID: ns.ConferenceID,
		Name:         ns.Name,
		Description:  ns.Description,
		StartDate:    ns.StartDate,
		EndDate:      ns.EndDate,
		Location:     ns.Location,
		Status:       SessionStatusUpcoming,
		MaxProjects:  ns.MaxProjects,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if s.MaxProjects == 0 {
		s.MaxProjects = 50
	}
	return svc.repo.CreateSession(ctx, s)
}

func (svc *service) QuerySessions(ctx context.Context, conferenceID string) ([]Session, error) {
	return svc.repo.QuerySessions(ctx, conferenceID)
}

func (svc *service) GetSessionByID(ctx context.Context, id string) (Session, error) {
	return svc.repo.GetSessionByID(ctx, id)
}

func (svc *service) UpdateSession(ctx context.Context, id string, us UpdateSession) (Session, error) {
	if us.ConferenceID != nil && *us.ConferenceID != "" {
		if _, err := svc.repo.GetConferenceByID(ctx, *us.ConferenceID); err != nil {
			return Session{}, err
		}
	}
	s := Session{
		ID:          id,
		Name:        us.Name,
		Description: us.Description,
		StartDate:   us.StartDate,
		EndDate:     us.EndDate,
		Location:    us.Location,
		Status:      us.Status,
		MaxProjects: us.MaxProjects,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateSession(ctx, s, us.ConferenceID)
}

func (svc *service) DeleteSessions(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSessionsByID(ctx, ids)
}
