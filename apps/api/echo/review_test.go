package echoapi_test

import (
	"encoding/json"
	"math"
	"net/http"
	"testing"

	. "github.com/trezcool/confeval/apps/api/echo"
	"github.com/trezcool/confeval/core/review"
)

func Test_reviewApi_criteriaCRUD(t *testing.T) {
	fix := newAssignFixture(t)
	app := fix.app
	adminToken := app.getToken(t, fix.admin)
	reviewerToken := app.getToken(t, fix.reviewer1)

	// only admins can define criteria
	body := marchallObj(t, review.NewCriterion{SessionID: fix.session.ID, Name: "Clarity"})
	req, rec := newAuthRequest(http.MethodPost, "/v1/criteria", reviewerToken, body)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusForbidden)
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/criteria", adminToken, body)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("creating criterion failed: %v; body %v", rec.Code, rec.Body.String())
	}
	var crit review.Criterion
	if err := json.Unmarshal(rec.Body.Bytes(), &crit); err != nil {
		t.Fatalf("failed to unmarshal Criterion: %v", err)
	}
	if crit.MaxScore != review.DefaultMaxScore {
		t.Errorf("MaxScore = %v; want default %v", crit.MaxScore, review.DefaultMaxScore)
	}
	if crit.Weight != review.DefaultWeight {
		t.Errorf("Weight = %v; want default %v", crit.Weight, review.DefaultWeight)
	}

	// unknown session
	body = marchallObj(t, review.NewCriterion{SessionID: "nope", Name: "Rigor"})
	req, rec = newAuthRequest(http.MethodPost, "/v1/criteria", adminToken, body)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusNotFound)
	}

	// anyone authed can list
	req, rec = newAuthRequest(http.MethodGet, "/v1/criteria?session_id="+fix.session.ID, reviewerToken)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("listing criteria failed: %v; body %v", rec.Code, rec.Body.String())
	}
	var crits []review.Criterion
	if err := json.Unmarshal(rec.Body.Bytes(), &crits); err != nil {
		t.Fatalf("failed to unmarshal criteria: %v", err)
	}
	if len(crits) != 1 {
		t.Errorf("got %d criteria; want 1", len(crits))
	}

	// update
	body = marchallObj(t, review.UpdateCriterion{Name: "Presentation Clarity", Weight: 2})
	req, rec = newAuthRequest(http.MethodPut, "/v1/criteria/"+crit.ID, adminToken, body)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("updating criterion failed: %v; body %v", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &crit); err != nil {
		t.Fatalf("failed to unmarshal Criterion: %v", err)
	}
	if crit.Name != "Presentation Clarity" || crit.Weight != 2 {
		t.Errorf("unexpected criterion after update: %+v", crit)
	}
}

func Test_reviewApi_submit(t *testing.T) {
	fix := newAssignFixture(t)
	app := fix.app
	adminToken := app.getToken(t, fix.admin)

	// define the session's scoring rubric
	var crits []review.Criterion
	for _, nc := range []review.NewCriterion{
		{SessionID: fix.session.ID, Name: "Clarity", MaxScore: 10, Weight: 1},
		{SessionID: fix.session.ID, Name: "Rigor", MaxScore: 5, Weight: 3},
	} {
		req, rec := newAuthRequest(http.MethodPost, "/v1/criteria", adminToken, marchallObj(t, nc))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("creating criterion failed: %v; body %v", rec.Code, rec.Body.String())
		}
		var crit review.Criterion
		if err := json.Unmarshal(rec.Body.Bytes(), &crit); err != nil {
			t.Fatalf("failed to unmarshal Criterion: %v", err)
		}
		crits = append(crits, crit)
	}

	// assign reviewers
	req, rec := newAuthRequest(http.MethodPost, "/v1/assignments/auto-assign", adminToken,
		marchallObj(t, AutoAssignRequest{SessionID: fix.session.ID}))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("auto-assign failed: %v; body %v", rec.Code, rec.Body.String())
	}

	reviewerToken := app.getToken(t, fix.reviewer1)
	newRev := review.NewReview{
		ProjectID: fix.mlProject.ID,
		Comments:  "Solid work.",
		Scores: []review.CriterionScore{
			{CriterionID: crits[0].ID, Score: 8},
			{CriterionID: crits[1].ID, Score: 4},
		},
		IsCompleted: true,
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/reviews", reviewerToken, marchallObj(t, newRev))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submitting review failed: %v; body %v", rec.Code, rec.Body.String())
	}
	var rev review.Review
	if err := json.Unmarshal(rec.Body.Bytes(), &rev); err != nil {
		t.Fatalf("failed to unmarshal Review: %v", err)
	}
	// (8/10*1 + 4/5*3) / 4 * 100 = 80
	if want := 80.0; math.Abs(rev.TotalScore-want) > 1e-9 {
		t.Errorf("TotalScore = %v; want %v", rev.TotalScore, want)
	}
	if !rev.IsCompleted {
		t.Error("expected a completed review")
	}

	// double submission is rejected
	req, rec = newAuthRequest(http.MethodPost, "/v1/reviews", reviewerToken, marchallObj(t, newRev))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	// out-of-range score is rejected
	bad := newRev
	bad.ProjectID = fix.bioProject.ID
	bad.Scores = []review.CriterionScore{{CriterionID: crits[0].ID, Score: 42}}
	req, rec = newAuthRequest(http.MethodPost, "/v1/reviews", reviewerToken, marchallObj(t, bad))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	// reviewers only see their own reviews
	req, rec = newAuthRequest(http.MethodGet, "/v1/reviews", app.getToken(t, fix.reviewer2))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("listing reviews failed: %v; body %v", rec.Code, rec.Body.String())
	}
	var revs []review.Review
	if err := json.Unmarshal(rec.Body.Bytes(), &revs); err != nil {
		t.Fatalf("failed to unmarshal reviews: %v", err)
	}
	if len(revs) != 0 {
		t.Errorf("got %d reviews; want 0", len(revs))
	}

	// the author can amend their review; the total is recomputed
	update := review.UpdateReview{
		Scores: []review.CriterionScore{
			{CriterionID: crits[0].ID, Score: 10},
			{CriterionID: crits[1].ID, Score: 5},
		},
	}
	req, rec = newAuthRequest(http.MethodPut, "/v1/reviews/"+rev.ID, reviewerToken, marchallObj(t, update))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("updating review failed: %v; body %v", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rev); err != nil {
		t.Fatalf("failed to unmarshal Review: %v", err)
	}
	if want := 100.0; math.Abs(rev.TotalScore-want) > 1e-9 {
		t.Errorf("TotalScore = %v; want %v", rev.TotalScore, want)
	}

	// another reviewer cannot amend it
	req, rec = newAuthRequest(http.MethodPut, "/v1/reviews/"+rev.ID, app.getToken(t, fix.reviewer2), marchallObj(t, update))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusForbidden)
	}
}

func Test_reviewApi_ownerSeesCompleted(t *testing.T) {
	fix := newAssignFixture(t)
	app := fix.app
	adminToken := app.getToken(t, fix.admin)

	req, rec := newAuthRequest(http.MethodPost, "/v1/criteria", adminToken,
		marchallObj(t, review.NewCriterion{SessionID: fix.session.ID, Name: "Clarity", MaxScore: 10, Weight: 1}))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("creating criterion failed: %v; body %v", rec.Code, rec.Body.String())
	}
	var crit review.Criterion
	if err := json.Unmarshal(rec.Body.Bytes(), &crit); err != nil {
		t.Fatalf("failed to unmarshal Criterion: %v", err)
	}

	// both reviewers get both projects
	req, rec = newAuthRequest(http.MethodPost, "/v1/assignments/auto-assign", adminToken,
		marchallObj(t, AutoAssignRequest{SessionID: fix.session.ID, ReviewersPerProject: 2}))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("auto-assign failed: %v; body %v", rec.Code, rec.Body.String())
	}

	submit := func(tok string, completed bool) review.Review {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/reviews", tok, marchallObj(t, review.NewReview{
			ProjectID:   fix.mlProject.ID,
			Scores:      []review.CriterionScore{{CriterionID: crit.ID, Score: 7}},
			IsCompleted: completed,
		}))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("submitting review failed: %v; body %v", rec.Code, rec.Body.String())
		}
		var rev review.Review
		if err := json.Unmarshal(rec.Body.Bytes(), &rev); err != nil {
			t.Fatalf("failed to unmarshal Review: %v", err)
		}
		return rev
	}
	completedRev := submit(app.getToken(t, fix.reviewer1), true)
	draftRev := submit(app.getToken(t, fix.reviewer2), false)

	// the project's author only sees the completed review
	studentToken := app.getToken(t, fix.student)
	req, rec = newAuthRequest(http.MethodGet, "/v1/reviews?project_id="+fix.mlProject.ID, studentToken)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("listing reviews failed: %v; body %v", rec.Code, rec.Body.String())
	}
	var revs []review.Review
	if err := json.Unmarshal(rec.Body.Bytes(), &revs); err != nil {
		t.Fatalf("failed to unmarshal reviews: %v", err)
	}
	if len(revs) != 1 {
		t.Fatalf("got %d reviews; want 1", len(revs))
	}
	if revs[0].ReviewerID != fix.reviewer1.ID || !revs[0].IsCompleted {
		t.Errorf("unexpected review: %+v", revs[0])
	}

	// same visibility when fetching by id
	req, rec = newAuthRequest(http.MethodGet, "/v1/reviews/"+completedRev.ID, studentToken)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("retrieving completed review: code = %v; want %v", rec.Code, http.StatusOK)
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/reviews/"+draftRev.ID, studentToken)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("retrieving draft review: code = %v; want %v", rec.Code, http.StatusNotFound)
	}

	// without a project filter a student has no reviews of their own
	req, rec = newAuthRequest(http.MethodGet, "/v1/reviews", studentToken)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("listing reviews failed: %v; body %v", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &revs); err != nil {
		t.Fatalf("failed to unmarshal reviews: %v", err)
	}
	if len(revs) != 0 {
		t.Errorf("got %d reviews; want 0", len(revs))
	}
}

func Test_reviewApi_notAssigned(t *testing.T) {
	fix := newAssignFixture(t)
	app := fix.app

	// no assignments were made; submission must be rejected
	body := marchallObj(t, review.NewReview{
		ProjectID: fix.mlProject.ID,
		Scores:    []review.CriterionScore{{CriterionID: "whatever", Score: 1}},
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/reviews", app.getToken(t, fix.reviewer1), body)
	app.server.ServeHTTP(rec, req)

	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, httpErr{Error: "project is not assigned to this reviewer"}),
	}, rec)
}
