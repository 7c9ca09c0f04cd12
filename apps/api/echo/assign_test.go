package echoapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	. "github.com/trezcool/confeval/apps/api/echo"
	"github.com/trezcool/confeval/core/assign"
	"github.com/trezcool/confeval/core/conference"
	"github.com/trezcool/confeval/core/project"
	"github.com/trezcool/confeval/core/tag"
	"github.com/trezcool/confeval/core/user"
)

// assignFixture seeds a session with two approved projects and two
// approved reviewers whose interests overlap the projects' tags.
type assignFixture struct {
	app *testApp

	admin      user.User
	student    user.User
	reviewer1  user.User
	reviewer2  user.User
	session    conference.Session
	mlProject  project.Project
	bioProject project.Project
}

func newAssignFixture(t *testing.T) *assignFixture {
	t.Helper()
	ctx := context.Background()
	app := setup(t)

	admin := app.createUser(t, "Admin", "admin1", "admin@test.cd", []string{user.RoleAdmin})
	student := app.createUser(t, "Student", "student1", "stud@test.cd", []string{user.RoleStudent})
	reviewer1 := app.createUser(t, "Rev One", "reviewer1", "r1@test.cd", []string{user.RoleReviewerInternal})
	reviewer2 := app.createUser(t, "Rev Two", "reviewer2", "r2@test.cd", []string{user.RoleReviewerExternal})

	ml, err := app.tagSvc.Create(ctx, tag.NewTag{Name: "Machine Learning"})
	if err != nil {
		t.Fatalf("creating tag failed: %v", err)
	}
	bio, err := app.tagSvc.Create(ctx, tag.NewTag{Name: "Biology"})
	if err != nil {
		t.Fatalf("creating tag failed: %v", err)
	}

	if _, err = app.usrSvc.SetInterestedTags(ctx, reviewer1.ID, []string{ml.ID}); err != nil {
		t.Fatalf("setting reviewer tags failed: %v", err)
	}
	if _, err = app.usrSvc.SetInterestedTags(ctx, reviewer2.ID, []string{bio.ID}); err != nil {
		t.Fatalf("setting reviewer tags failed: %v", err)
	}

	now := time.Now()
	session, err := app.confSvc.CreateSession(ctx, conference.NewSession{
		Name:      "Poster Session A",
		StartDate: now,
		EndDate:   now.Add(4 * time.Hour),
	})
	if err != nil {
		t.Fatalf("creating session failed: %v", err)
	}

	submit := func(title string, tagIDs []string) project.Project {
		prj, err := app.prjSvc.Submit(ctx, student.ID, project.NewProject{
			Title:     title,
			SessionID: session.ID,
			TagIDs:    tagIDs,
		})
		if err != nil {
			t.Fatalf("submitting project failed: %v", err)
		}
		if prj, err = app.prjSvc.Approve(ctx, prj.ID); err != nil {
			t.Fatalf("approving project failed: %v", err)
		}
		return prj
	}
	mlPrj := submit("Deep Poster Nets", []string{ml.ID})
	bioPrj := submit("Gene Expression Atlas", []string{bio.ID})

	return &assignFixture{
		app:        app,
		admin:      admin,
		student:    student,
		reviewer1:  reviewer1,
		reviewer2:  reviewer2,
		session:    session,
		mlProject:  mlPrj,
		bioProject: bioPrj,
	}
}

func Test_assignApi_adminOnly(t *testing.T) {
	app := setup(t)
	student := app.createUser(t, "Student", "student1", "stud@test.cd", []string{user.RoleStudent})

	paths := []string{"/v1/assignments/projects", "/v1/assignments/reviewers"}
	for _, path := range paths {
		req, rec := newAuthRequest(http.MethodGet, path, app.getToken(t, student))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: code = %v; want %v", path, rec.Code, http.StatusForbidden)
		}
	}

	req, rec := newAuthRequest(http.MethodPost, "/v1/assignments/auto-assign", app.getToken(t, student))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("auto-assign: code = %v; want %v", rec.Code, http.StatusForbidden)
	}
}

func Test_assignApi_noReviewers(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin1", "admin@test.cd", []string{user.RoleAdmin})

	// an empty reviewer pool is the caller's problem, not a server fault
	req, rec := newAuthRequest(http.MethodPost, "/v1/assignments/auto-assign", app.getToken(t, admin),
		marchallObj(t, AutoAssignRequest{}))
	app.server.ServeHTTP(rec, req)

	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, httpErr{Error: "no approved reviewers available"}),
	}, rec)
}

func Test_assignApi_autoAssignPreview(t *testing.T) {
	fix := newAssignFixture(t)
	app := fix.app
	token := app.getToken(t, fix.admin)

	body := marchallObj(t, AutoAssignRequest{SessionID: fix.session.ID, Preview: true})
	req, rec := newAuthRequest(http.MethodPost, "/v1/assignments/auto-assign", token, body)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("auto-assign failed: %v; body %v", rec.Code, rec.Body.String())
	}

	var res assign.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to unmarshal Result: %v", err)
	}
	if !res.Preview {
		t.Error("expected a preview result")
	}
	if res.AssignmentsMade == 0 {
		t.Error("expected proposed assignments, got none")
	}

	// a preview must not commit anything
	prj, err := app.prjSvc.GetByID(context.Background(), fix.mlProject.ID)
	if err != nil {
		t.Fatalf("fetching project failed: %v", err)
	}
	if len(prj.ReviewerIDs) != 0 {
		t.Errorf("preview committed assignments: %v", prj.ReviewerIDs)
	}
}

func Test_assignApi_autoAssignAndClear(t *testing.T) {
	fix := newAssignFixture(t)
	app := fix.app
	token := app.getToken(t, fix.admin)

	body := marchallObj(t, AutoAssignRequest{SessionID: fix.session.ID, ReviewersPerProject: 2})
	req, rec := newAuthRequest(http.MethodPost, "/v1/assignments/auto-assign", token, body)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("auto-assign failed: %v; body %v", rec.Code, rec.Body.String())
	}

	var res assign.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to unmarshal Result: %v", err)
	}
	if res.Preview {
		t.Error("expected a committed result")
	}
	if want := 4; res.AssignmentsMade != want { // 2 projects x 2 reviewers
		t.Errorf("AssignmentsMade = %v; want %v", res.AssignmentsMade, want)
	}

	// reviewers' load counts reflect the committed plan
	req, rec = newAuthRequest(http.MethodGet, "/v1/assignments/reviewers?session_id="+fix.session.ID, token)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("listing reviewers failed: %v; body %v", rec.Code, rec.Body.String())
	}
	var reviewers []assign.Reviewer
	if err := json.Unmarshal(rec.Body.Bytes(), &reviewers); err != nil {
		t.Fatalf("failed to unmarshal reviewers: %v", err)
	}
	if len(reviewers) != 2 {
		t.Fatalf("got %d reviewers; want 2", len(reviewers))
	}
	for _, rev := range reviewers {
		if rev.SessionCount != 2 {
			t.Errorf("reviewer %v: SessionCount = %v; want 2", rev.Name, rev.SessionCount)
		}
	}

	// tag affinity: each reviewer must be on the project matching their interests
	prj, err := app.prjSvc.GetByID(context.Background(), fix.mlProject.ID)
	if err != nil {
		t.Fatalf("fetching project failed: %v", err)
	}
	if len(prj.ReviewerIDs) == 0 || prj.ReviewerIDs[0] != fix.reviewer1.ID {
		t.Errorf("expected reviewer with matching tags to be assigned first, got %v", prj.ReviewerIDs)
	}

	// clear the session's assignments
	req, rec = newAuthRequest(http.MethodDelete, "/v1/assignments/clear?session_id="+fix.session.ID, token)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("clearing assignments failed: %v; body %v", rec.Code, rec.Body.String())
	}
	var cleared ClearAssignmentsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &cleared); err != nil {
		t.Fatalf("failed to unmarshal ClearAssignmentsResponse: %v", err)
	}
	if cleared.Cleared == 0 {
		t.Error("expected cleared assignments, got none")
	}

	prj, err = app.prjSvc.GetByID(context.Background(), fix.mlProject.ID)
	if err != nil {
		t.Fatalf("fetching project failed: %v", err)
	}
	if len(prj.ReviewerIDs) != 0 {
		t.Errorf("assignments not cleared: %v", prj.ReviewerIDs)
	}
}

func Test_assignApi_unknownSession(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin1", "admin@test.cd", []string{user.RoleAdmin})
	token := app.getToken(t, admin)

	req, rec := newAuthRequest(http.MethodGet, "/v1/assignments/projects?session_id=nope", token)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusNotFound)
	}
}
