package assign

import (
	"context"
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/conference"
)

type fakeRepo struct {
	projects  []Project
	reviewers []Reviewer

	committed []Pair
	cleared   string
	commitErr error
}

var _ Repository = (*fakeRepo)(nil)

func (r *fakeRepo) ListEligibleProjects(_ context.Context, sessionID string, _ ...core.DBExecutor) ([]Project, error) {
	if sessionID == "" {
		return r.projects, nil
	}
	var out []Project
	for _, p := range r.projects {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListEligibleReviewers(_ context.Context, _ string, _ ...core.DBExecutor) ([]Reviewer, error) {
	return r.reviewers, nil
}

func (r *fakeRepo) CommitAssignments(_ context.Context, pairs []Pair, _ ...core.DBExecutor) (int, error) {
	if r.commitErr != nil {
		return 0, r.commitErr
	}
	r.committed = append(r.committed, pairs...)
	return len(pairs), nil
}

func (r *fakeRepo) ClearAssignments(_ context.Context, sessionID string, _ ...core.DBExecutor) (int, error) {
	r.cleared = sessionID
	var n int
	for _, p := range r.projects {
		if sessionID == "" || p.SessionID == sessionID {
			n += len(p.ReviewerIDs)
		}
	}
	return n, nil
}

type fakeSessions struct {
	known map[string]bool
}

func (s *fakeSessions) GetSessionByID(_ context.Context, id string) (conference.Session, error) {
	if s.known[id] {
		return conference.Session{ID: id}, nil
	}
	return conference.Session{}, conference.ErrSessionNotFound
}

func newTestService(repo *fakeRepo, sessionIDs ...string) Service {
	known := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		known[id] = true
	}
	return NewService(repo, &fakeSessions{known: known})
}

func TestAutoAssignCommits(t *testing.T) {
	repo := &fakeRepo{
		projects: []Project{
			{ID: "p1", TagIDs: []string{"a"}},
			{ID: "p2", TagIDs: []string{"b"}},
		},
		reviewers: []Reviewer{
			{ID: "r1", TagIDs: []string{"a"}},
			{ID: "r2", TagIDs: []string{"b"}},
		},
	}
	svc := newTestService(repo)

	res, err := svc.AutoAssign(context.Background(), Options{ReviewersPerProject: 1})
	if err != nil {
		t.Fatalf("AutoAssign() failed: %v", err)
	}

	want := []Pair{{"p1", "r1"}, {"p2", "r2"}}
	if !reflect.DeepEqual(res.Proposed, want) {
		t.Errorf("Proposed = %v, want %v", res.Proposed, want)
	}
	if res.AssignmentsMade != 2 {
		t.Errorf("AssignmentsMade = %d, want 2", res.AssignmentsMade)
	}
	if !reflect.DeepEqual(repo.committed, want) {
		t.Errorf("committed = %v, want %v", repo.committed, want)
	}
}

func TestAutoAssignPreviewDoesNotCommit(t *testing.T) {
	repo := &fakeRepo{
		projects:  []Project{{ID: "p1"}},
		reviewers: []Reviewer{{ID: "r1"}, {ID: "r2"}},
	}
	svc := newTestService(repo)

	first, err := svc.AutoAssign(context.Background(), Options{Preview: true})
	if err != nil {
		t.Fatalf("AutoAssign() failed: %v", err)
	}
	if !first.Preview {
		t.Error("Preview flag not set on result")
	}
	if repo.committed != nil {
		t.Errorf("preview committed assignments: %v", repo.committed)
	}

	// previews are repeatable: persisted state is untouched between runs
	second, err := svc.AutoAssign(context.Background(), Options{Preview: true})
	if err != nil {
		t.Fatalf("AutoAssign() failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated preview differs: %v != %v", second, first)
	}
}

func TestAutoAssignNoReviewers(t *testing.T) {
	svc := newTestService(&fakeRepo{projects: []Project{{ID: "p1"}}})

	if _, err := svc.AutoAssign(context.Background(), Options{}); errors.Cause(err) != ErrNoReviewers {
		t.Errorf("AutoAssign() error = %v, want %v", err, ErrNoReviewers)
	}
}

func TestAutoAssignUnknownSession(t *testing.T) {
	repo := &fakeRepo{reviewers: []Reviewer{{ID: "r1"}}}
	svc := newTestService(repo, "s1")

	_, err := svc.AutoAssign(context.Background(), Options{SessionID: "nope"})
	if errors.Cause(err) != conference.ErrSessionNotFound {
		t.Errorf("AutoAssign() error = %v, want %v", err, conference.ErrSessionNotFound)
	}
}

func TestAutoAssignCommitFailure(t *testing.T) {
	boom := errors.New("db down")
	repo := &fakeRepo{
		projects:  []Project{{ID: "p1"}},
		reviewers: []Reviewer{{ID: "r1"}},
		commitErr: boom,
	}
	svc := newTestService(repo)

	_, err := svc.AutoAssign(context.Background(), Options{})
	if errors.Cause(err) != boom {
		t.Errorf("AutoAssign() error = %v, want wrapped %v", err, boom)
	}
	if repo.committed != nil {
		t.Errorf("failed commit left assignments: %v", repo.committed)
	}
}

func TestClearAssignments(t *testing.T) {
	repo := &fakeRepo{
		projects: []Project{
			{ID: "p1", SessionID: "s1", ReviewerIDs: []string{"r1", "r2"}},
			{ID: "p2", SessionID: "s2", ReviewerIDs: []string{"r1"}},
		},
	}
	svc := newTestService(repo, "s1", "s2")

	cleared, err := svc.ClearAssignments(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ClearAssignments() failed: %v", err)
	}
	if cleared != 2 {
		t.Errorf("cleared = %d, want 2", cleared)
	}
	if repo.cleared != "s1" {
		t.Errorf("cleared session = %q, want %q", repo.cleared, "s1")
	}

	if _, err = svc.ClearAssignments(context.Background(), "ghost"); errors.Cause(err) != conference.ErrSessionNotFound {
		t.Errorf("ClearAssignments() error = %v, want %v", err, conference.ErrSessionNotFound)
	}
}
