package project

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/user"
)

var (
	// errors
	ErrNotFound   = errors.New("project not found")
	ErrNotPending = errors.New("only pending projects can be edited")
)

type (
	Repository interface {
		CreateProject(ctx context.Context, prj Project, exec ...core.DBExecutor) (Project, error)
		QueryProjects(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Project, error)
		GetProjectByID(ctx context.Context, id string, exec ...core.DBExecutor) (Project, error)
		UpdateProject(ctx context.Context, prj Project, sessionID *string, exec ...core.DBExecutor) (Project, error)
		SetProjectStatus(ctx context.Context, id, status string, exec ...core.DBExecutor) (Project, error)
		SetProjectTags(ctx context.Context, id string, tagIDs []string, exec ...core.DBExecutor) error
		DeleteProjectsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service interface {
		Submit(ctx context.Context, studentID string, np NewProject) (Project, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Project, error)
		GetByID(ctx context.Context, id string) (Project, error)
		Update(ctx context.Context, id string, up UpdateProject) (Project, error)
		Approve(ctx context.Context, id string) (Project, error)
		Reject(ctx context.Context, id string) (Project, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo    Repository
		usrSvc  user.Service
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, mailSvc core.EmailService) Service {
	return &service{
		repo:    repo,
		usrSvc:  usrSvc,
		mailSvc: mailSvc,
	}
}

func (svc *service) Submit(ctx context.Context, studentID string, np NewProject) (Project, error) {
	now := time.Now().UTC()
	prj := Project{
		Title:       np.Title,
		Description: np.Description,
		StudentID:   studentID,
		SessionID:   np.SessionID,
		Status:      StatusPending,
		MentorEmail: np.MentorEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	prj, err := svc.repo.CreateProject(ctx, prj)
	if err != nil {
		return Project{}, err
	}
	if len(np.TagIDs) > 0 {
		if err = svc.repo.SetProjectTags(ctx, prj.ID, np.TagIDs); err != nil {
			return Project{}, err
		}
		prj.TagIDs = np.TagIDs
	}
	return prj, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Project, error) {
	return svc.repo.QueryProjects(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id string) (Project, error) {
	return svc.repo.GetProjectByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, up UpdateProject) (Project, error) {
	prj := Project{
		ID:           id,
		Title:        up.Title,
		Description:  up.Description,
		MentorEmail:  up.MentorEmail,
		PosterNumber: up.PosterNumber,
		UpdatedAt:    time.Now().UTC(),
	}
	prj, err := svc.repo.UpdateProject(ctx, prj, up.SessionID)
	if err != nil {
		return Project{}, err
	}
	if up.TagIDs != nil {
		if err = svc.repo.SetProjectTags(ctx, id, up.TagIDs); err != nil {
			return Project{}, err
		}
		prj.TagIDs = up.TagIDs
	}
	return prj, nil
}

func (svc *service) Approve(ctx context.Context, id string) (Project, error) {
	prj, err := svc.repo.SetProjectStatus(ctx, id, StatusApproved)
	if err != nil {
		return Project{}, err
	}
	svc.sendStatusMail(ctx, prj, "Project Approved",
		"Congratulations! Your project %q has been approved.")
	return prj, nil
}

func (svc *service) Reject(ctx context.Context, id string) (Project, error) {
	prj, err := svc.repo.SetProjectStatus(ctx, id, StatusRejected)
	if err != nil {
		return Project{}, err
	}
	svc.sendStatusMail(ctx, prj, "Project Rejected",
		"Unfortunately your project %q has been rejected. Contact the organizers for details.")
	return prj, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteProjectsByID(ctx, ids)
}

func (svc *service) sendStatusMail(ctx context.Context, prj Project, subject, bodyFmt string) {
	student, err := svc.usrSvc.GetByID(ctx, prj.StudentID)
	if err != nil {
		return
	}
	body := fmt.Sprintf(bodyFmt, prj.Title)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: subject,
		BodyStr: fmt.Sprintf("Hi %s,\r\n\r\n%s", student.Name, body),
	})
}
