package review

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/conference"
	"github.com/trezcool/confeval/core/project"
	"github.com/trezcool/confeval/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("review not found")
	ErrCriterionNotFound = errors.New("criterion not found")
	ErrNotAssigned       = errors.New("project is not assigned to this reviewer")
	ErrAlreadyReviewed   = errors.New("project already reviewed by this reviewer")
)

type (
	Repository interface {
		CreateCriterion(ctx context.Context, crt Criterion, exec ...core.DBExecutor) (Criterion, error)
		QueryCriteria(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]Criterion, error)
		GetCriterionByID(ctx context.Context, id string, exec ...core.DBExecutor) (Criterion, error)
		UpdateCriterion(ctx context.Context, crt Criterion, exec ...core.DBExecutor) (Criterion, error)
		DeleteCriteriaByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error

		CreateReview(ctx context.Context, rev Review, exec ...core.DBExecutor) (Review, error)
		QueryReviews(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Review, error)
		GetReviewByID(ctx context.Context, id string, exec ...core.DBExecutor) (Review, error)
		GetReviewByProjectAndReviewer(ctx context.Context, projectID, reviewerID string, exec ...core.DBExecutor) (Review, error)
		UpdateReview(ctx context.Context, rev Review, exec ...core.DBExecutor) (Review, error)
	}

	// SessionGetter looks up sessions; conference.Service satisfies it.
	SessionGetter interface {
		GetSessionByID(ctx context.Context, id string) (conference.Session, error)
	}

	// ProjectGetter looks up projects; project.Service satisfies it.
	ProjectGetter interface {
		GetByID(ctx context.Context, id string) (project.Project, error)
	}

	Service interface {
		CreateCriterion(ctx context.Context, nc NewCriterion) (Criterion, error)
		QueryCriteria(ctx context.Context, sessionID string) ([]Criterion, error)
		UpdateCriterion(ctx context.Context, id string, uc UpdateCriterion) (Criterion, error)
		DeleteCriteria(ctx context.Context, ids ...string) error

		Submit(ctx context.Context, reviewerID string, nr NewReview) (Review, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Review, error)
		GetByID(ctx context.Context, id string) (Review, error)
		Update(ctx context.Context, id, reviewerID string, ur UpdateReview) (Review, error)
	}

	service struct {
		repo    Repository
		confSvc SessionGetter
		prjSvc  ProjectGetter
		usrSvc  user.Service
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, confSvc SessionGetter, prjSvc ProjectGetter, usrSvc user.Service, mailSvc core.EmailService) Service {
	return &service{
		repo:    repo,
		confSvc: confSvc,
		prjSvc:  prjSvc,
		usrSvc:  usrSvc,
		mailSvc: mailSvc,
	}
}

// QueryFilter holds the available filters for querying reviews.
type QueryFilter struct {
	ProjectID     string
	ReviewerID    string
	CompletedOnly bool
}

func (svc *service) CreateCriterion(ctx context.Context, nc NewCriterion) (Criterion, error) {
	if _, err := svc.confSvc.GetSessionByID(ctx, nc.SessionID); err != nil {
		return Criterion{}, err
	}
	if nc.MaxScore == 0 {
		nc.MaxScore = DefaultMaxScore
	}
	if nc.Weight == 0 {
		nc.Weight = DefaultWeight
	}
	crt := Criterion{
		SessionID:   nc.SessionID,
		Name:        nc.Name,
		Description: nc.Description,
		MaxScore:    nc.MaxScore,
		Weight:      nc.Weight,
		Order:       nc.Order,
		CreatedAt:   time.Now().UTC(),
	}
	crt, err := svc.repo.CreateCriterion(ctx, crt)
	if err != nil {
		return Criterion{}, errors.Wrap(err, "creating criterion")
	}
	return crt, nil
}

func (svc *service) QueryCriteria(ctx context.Context, sessionID string) ([]Criterion, error) {
	crits, err := svc.repo.QueryCriteria(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "querying criteria")
	}
	return crits, nil
}

func (svc *service) UpdateCriterion(ctx context.Context, id string, uc UpdateCriterion) (Criterion, error) {
	crt, err := svc.repo.GetCriterionByID(ctx, id)
	if err != nil {
		return Criterion{}, err
	}
	if uc.Name != "" {
		crt.Name = uc.Name
	}
	if uc.Description != "" {
		crt.Description = uc.Description
	}
	if uc.MaxScore > 0 {
		crt.MaxScore = uc.MaxScore
	}
	if uc.Weight > 0 {
		crt.Weight = uc.Weight
	}
	if uc.Order > 0 {
		crt.Order = uc.Order
	}
	crt, err = svc.repo.UpdateCriterion(ctx, crt)
	if err != nil {
		return Criterion{}, errors.Wrap(err, "updating criterion")
	}
	return crt, nil
}

func (svc *service) DeleteCriteria(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCriteriaByID(ctx, ids)
}

func (svc *service) Submit(ctx context.Context, reviewerID string, nr NewReview) (Review, error) {
	prj, err := svc.prjSvc.GetByID(ctx, nr.ProjectID)
	if err != nil {
		return Review{}, err
	}
	if !isAssigned(prj, reviewerID) {
		return Review{}, ErrNotAssigned
	}
	if _, err = svc.repo.GetReviewByProjectAndReviewer(ctx, prj.ID, reviewerID); err == nil {
		return Review{}, ErrAlreadyReviewed
	} else if errors.Cause(err) != ErrNotFound {
		return Review{}, err
	}

	crits, err := svc.repo.QueryCriteria(ctx, prj.SessionID)
	if err != nil {
		return Review{}, errors.Wrap(err, "querying criteria")
	}
	total, err := ComputeTotal(nr.Scores, crits)
	if err != nil {
		return Review{}, err
	}

	now := time.Now().UTC()
	rev := Review{
		ProjectID:   prj.ID,
		ReviewerID:  reviewerID,
		Comments:    nr.Comments,
		Scores:      nr.Scores,
		TotalScore:  total,
		IsCompleted: nr.IsCompleted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rev, err = svc.repo.CreateReview(ctx, rev)
	if err != nil {
		return Review{}, errors.Wrap(err, "creating review")
	}
	svc.notifyStudent(ctx, prj)
	return rev, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Review, error) {
	revs, err := svc.repo.QueryReviews(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying reviews")
	}
	return revs, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Review, error) {
	return svc.repo.GetReviewByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id, reviewerID string, ur UpdateReview) (Review, error) {
	rev, err := svc.repo.GetReviewByID(ctx, id)
	if err != nil {
		return Review{}, err
	}
	if rev.ReviewerID != reviewerID {
		return Review{}, ErrNotAssigned
	}
	if ur.Comments != "" {
		rev.Comments = ur.Comments
	}
	if ur.IsCompleted != nil {
		rev.IsCompleted = *ur.IsCompleted
	}
	if len(ur.Scores) > 0 {
		prj, err := svc.prjSvc.GetByID(ctx, rev.ProjectID)
		if err != nil {
			return Review{}, err
		}
		crits, err := svc.repo.QueryCriteria(ctx, prj.SessionID)
		if err != nil {
			return Review{}, errors.Wrap(err, "querying criteria")
		}
		total, err := ComputeTotal(ur.Scores, crits)
		if err != nil {
			return Review{}, err
		}
		rev.Scores = ur.Scores
		rev.TotalScore = total
	}
	rev.UpdatedAt = time.Now().UTC()
	rev, err = svc.repo.UpdateReview(ctx, rev)
	if err != nil {
		return Review{}, errors.Wrap(err, "updating review")
	}
	return rev, nil
}

// ComputeTotal validates scores against the session's criteria and returns
// the weighted total on a 0-100 scale. Each score is normalized by its
// criterion's max before weighting.
func ComputeTotal(scores []CriterionScore, crits []Criterion) (float64, error) {
	byID := make(map[string]Criterion, len(crits))
	for _, crt := range crits {
		byID[crt.ID] = crt
	}

	var weighted, totalWeight float64
	for _, sc := range scores {
		crt, ok := byID[sc.CriterionID]
		if !ok {
			return 0, core.NewValidationError(
				ErrCriterionNotFound,
				core.FieldError{Field: "criteria_scores", Error: fmt.Sprintf("unknown criterion %q", sc.CriterionID)},
			)
		}
		if sc.Score < 0 || sc.Score > float64(crt.MaxScore) {
			return 0, core.NewValidationError(
				errors.New("score out of range"),
				core.FieldError{Field: "criteria_scores", Error: fmt.Sprintf("score for %q must be between 0 and %d", crt.Name, crt.MaxScore)},
			)
		}
		weighted += (sc.Score / float64(crt.MaxScore)) * crt.Weight
		totalWeight += crt.Weight
	}
	if totalWeight == 0 {
		return 0, nil
	}
	return (weighted / totalWeight) * 100, nil
}

func (svc *service) notifyStudent(ctx context.Context, prj project.Project) {
	student, err := svc.usrSvc.GetByID(ctx, prj.StudentID)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: "New Review Received",
		BodyStr: fmt.Sprintf("Hi %s,\r\n\r\nYour project %q has received a new review.", student.Name, prj.Title),
	})
}

func isAssigned(prj project.Project, reviewerID string) bool {
	for _, id := range prj.ReviewerIDs {
		if id == reviewerID {
			return true
		}
	}
	return false
}
