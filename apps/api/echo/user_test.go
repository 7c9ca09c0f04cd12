package echoapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/trezcool/confeval/apps/api/echo"
	"github.com/trezcool/confeval/core/user"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	app.createUser(t, "Awe Some", "awesome", "awe@test.cd", []string{user.RoleStudent})

	tests := []httpTest{
		{
			name: "empty body", body: marchallObj(t, LoginRequest{}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown user", body: marchallObj(t, LoginRequest{Username: "hacker", Password: "S3cr3t+Pass"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: marchallObj(t, LoginRequest{Username: "awesome", Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "login with username", body: marchallObj(t, LoginRequest{Username: "awesome", Password: "S3cr3t+Pass"}),
			wantCode: http.StatusOK,
		},
		{
			name: "login with email", body: marchallObj(t, LoginRequest{Username: "awe@test.cd", Password: "S3cr3t+Pass"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.server.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal LoginResponse: %v", err)
				}
				if resp.Token == "" {
					t.Error("expected a token, got none")
				}
			}
		})
	}
}

func Test_userApi_loginDeactivated(t *testing.T) {
	app := setup(t)

	usr := app.createUser(t, "N Dog", "naughty", "ndog@test.cd", []string{user.RoleStudent})
	isActive := false
	if _, err := app.usrSvc.Update(context.Background(), usr.ID, user.UpdateUser{IsActive: &isActive}); err != nil {
		t.Fatalf("deactivating user failed: %v", err)
	}

	req, rec := newRequest(http.MethodPost, "/v1/users/login",
		marchallObj(t, LoginRequest{Username: "naughty", Password: "S3cr3t+Pass"}))
	app.server.ServeHTTP(rec, req)

	tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})}
	checkCodeAndData(t, tt, rec)
}

func Test_userApi_register(t *testing.T) {
	app := setup(t)

	newReq := func(uname, email, role string) []byte {
		return marchallObj(t, RegisterRequest{
			NewUser: user.NewUser{
				Name:            "New Comer",
				Username:        uname,
				Email:           email,
				Password:        "S3cr3t+Pass",
				PasswordConfirm: "S3cr3t+Pass",
			},
			Role: role,
		})
	}

	tests := []httpTest{
		{name: "student sign-up", body: newReq("student1", "s1@test.cd", user.RoleStudent), wantCode: http.StatusCreated},
		{name: "internal reviewer sign-up", body: newReq("reviewer1", "r1@test.cd", user.RoleReviewerInternal), wantCode: http.StatusCreated},
		{name: "external reviewer sign-up", body: newReq("reviewer2", "r2@test.cd", user.RoleReviewerExternal), wantCode: http.StatusCreated},
		{name: "admin sign-up denied", body: newReq("sneaky1", "sneak@test.cd", user.RoleAdmin), wantCode: http.StatusBadRequest},
		{name: "duplicate username", body: newReq("student1", "other@test.cd", user.RoleStudent), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/register", tt.body)
			app.server.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}

	// reviewers start out unapproved and cannot log in yet
	req, rec := newRequest(http.MethodPost, "/v1/users/login",
		marchallObj(t, LoginRequest{Username: "reviewer1", Password: "S3cr3t+Pass"}))
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "account pending approval"}),
	}, rec)
}

func Test_userApi_approveReviewer(t *testing.T) {
	app := setup(t)

	admin := app.createUser(t, "Admin", "admin1", "admin@test.cd", []string{user.RoleAdmin})
	student := app.createUser(t, "Student", "student1", "stud@test.cd", []string{user.RoleStudent})

	// reviewer signs up, pending approval
	req, rec := newRequest(http.MethodPost, "/v1/users/register", marchallObj(t, RegisterRequest{
		NewUser: user.NewUser{
			Name:            "Rev Iewer",
			Username:        "reviewer1",
			Email:           "rev@test.cd",
			Password:        "S3cr3t+Pass",
			PasswordConfirm: "S3cr3t+Pass",
		},
		Role: user.RoleReviewerInternal,
	}))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("reviewer sign-up failed: %v; body %v", rec.Code, rec.Body.String())
	}
	var reviewer user.User
	if err := json.Unmarshal(rec.Body.Bytes(), &reviewer); err != nil {
		t.Fatalf("failed to unmarshal User: %v", err)
	}
	if reviewer.IsApproved {
		t.Error("expected reviewer to be unapproved after sign-up")
	}

	// non-admin cannot approve
	req, rec = newAuthRequest(http.MethodPost, "/v1/users/"+reviewer.ID+"/approve", app.getToken(t, student))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound && rec.Code != http.StatusForbidden {
		t.Errorf("expected approval to be denied, got %v", rec.Code)
	}

	// admin approves
	req, rec = newAuthRequest(http.MethodPost, "/v1/users/"+reviewer.ID+"/approve", app.getToken(t, admin))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("approval failed: %v; body %v", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &reviewer); err != nil {
		t.Fatalf("failed to unmarshal User: %v", err)
	}
	if !reviewer.IsApproved {
		t.Error("expected reviewer to be approved")
	}

	// approving a non-reviewer fails
	req, rec = newAuthRequest(http.MethodPost, "/v1/users/"+student.ID+"/approve", app.getToken(t, admin))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected approving a student to fail, got %v", rec.Code)
	}
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)

	admin := app.createUser(t, "Admin", "admin1", "admin@test.cd", []string{user.RoleAdmin})
	student := app.createUser(t, "Student", "student1", "stud@test.cd", []string{user.RoleStudent})

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", token: app.getToken(t, student), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "get all", token: app.getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallList(t, admin, student),
		},
		{
			name: "search", path: "/v1/users?search=stud", token: app.getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallList(t, student),
		},
		{
			name: "filter by role", path: "/v1/users?role=" + user.RoleAdmin, token: app.getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallList(t, admin),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.path == "" {
				tt.path = "/v1/users"
			}
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	app := setup(t)

	usr := app.createUser(t, "Awe Some", "awesome", "awe@test.cd", []string{user.RoleStudent})

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", app.getToken(t, usr))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh failed: %v; body %v", rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal LoginResponse: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token, got none")
	}
}
