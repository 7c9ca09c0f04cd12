package assign

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/conference"
)

type (
	// Repository provides the engine's snapshot of domain state and applies
	// its results. Implementations must commit and clear atomically.
	Repository interface {
		// ListEligibleProjects returns approved projects in stable (creation)
		// order; sessionID restricts to one session when non-empty.
		ListEligibleProjects(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]Project, error)
		// ListEligibleReviewers returns approved, active reviewers in stable
		// order with their assignment counts; SessionCount is scoped to
		// sessionID when non-empty, else equals TotalCount.
		ListEligibleReviewers(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]Reviewer, error)
		// CommitAssignments applies all pairs in one transaction, skipping
		// pairs that already exist, and returns the number applied.
		CommitAssignments(ctx context.Context, pairs []Pair, exec ...core.DBExecutor) (int, error)
		// ClearAssignments removes all assignments, scoped to one session's
		// projects when sessionID is non-empty; returns the number removed.
		ClearAssignments(ctx context.Context, sessionID string, exec ...core.DBExecutor) (int, error)
	}

	// SessionGetter resolves session filters; conference.Service satisfies it.
	SessionGetter interface {
		GetSessionByID(ctx context.Context, id string) (conference.Session, error)
	}

	Service interface {
		// ListProjects and ListReviewers expose the assignment snapshot for
		// the admin assignment screens.
		ListProjects(ctx context.Context, sessionID string) ([]Project, error)
		ListReviewers(ctx context.Context, sessionID string) ([]Reviewer, error)
		AutoAssign(ctx context.Context, opts Options) (Result, error)
		ClearAssignments(ctx context.Context, sessionID string) (int, error)
	}

	service struct {
		repo     Repository
		sessions SessionGetter
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, sessions SessionGetter) Service {
	return &service{
		repo:     repo,
		sessions: sessions,
	}
}

func (svc *service) checkSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if _, err := svc.sessions.GetSessionByID(ctx, sessionID); err != nil {
		return err // conference.ErrSessionNotFound surfaced as-is
	}
	return nil
}

func (svc *service) ListProjects(ctx context.Context, sessionID string) ([]Project, error) {
	if err := svc.checkSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return svc.repo.ListEligibleProjects(ctx, sessionID)
}

func (svc *service) ListReviewers(ctx context.Context, sessionID string) ([]Reviewer, error) {
	if err := svc.checkSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return svc.repo.ListEligibleReviewers(ctx, sessionID)
}

// AutoAssign computes an assignment plan over a fresh snapshot and, unless
// Options.Preview is set, commits the whole plan in one batch. Preview runs
// never touch persisted state.
func (svc *service) AutoAssign(ctx context.Context, opts Options) (Result, error) {
	if err := svc.checkSession(ctx, opts.SessionID); err != nil {
		return Result{}, err
	}

	reviewers, err := svc.repo.ListEligibleReviewers(ctx, opts.SessionID)
	if err != nil {
		return Result{}, errors.Wrap(err, "listing eligible reviewers")
	}
	if len(reviewers) == 0 {
		return Result{}, ErrNoReviewers
	}
	projects, err := svc.repo.ListEligibleProjects(ctx, opts.SessionID)
	if err != nil {
		return Result{}, errors.Wrap(err, "listing eligible projects")
	}

	plan, err := ComputePlan(projects, reviewers, opts)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		AssignmentsMade: plan.Count(),
		Proposed:        plan.Proposed,
		Preview:         opts.Preview,
	}
	if opts.Preview {
		return res, nil
	}

	if _, err = svc.repo.CommitAssignments(ctx, plan.Proposed); err != nil {
		return Result{}, errors.Wrap(err, "committing assignments")
	}
	return res, nil
}

func (svc *service) ClearAssignments(ctx context.Context, sessionID string) (int, error) {
	if err := svc.checkSession(ctx, sessionID); err != nil {
		return 0, err
	}
	cleared, err := svc.repo.ClearAssignments(ctx, sessionID)
	if err != nil {
		return 0, errors.Wrap(err, "clearing assignments")
	}
	return cleared, nil
}
