package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/confeval/apps/api/echo"
	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/assign"
	"github.com/trezcool/confeval/core/conference"
	"github.com/trezcool/confeval/core/project"
	"github.com/trezcool/confeval/core/report"
	"github.com/trezcool/confeval/core/review"
	"github.com/trezcool/confeval/core/tag"
	"github.com/trezcool/confeval/core/user"
	emailsvc "github.com/trezcool/confeval/services/email"
	logsvc "github.com/trezcool/confeval/services/logger"
	dummydb "github.com/trezcool/confeval/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	conf    *core.Config
	server  Server
	mailSvc core.EmailService

	usrSvc    user.Service
	tagSvc    tag.Service
	confSvc   conference.Service
	prjSvc    project.Service
	assignSvc assign.Service
	revSvc    review.Service
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := &core.Config{
		AppName:                   "ConfEval",
		Env:                       "TEST",
		TestMode:                  true,
		SecretKey:                 "0b3e2836a6b2f62c814a7b885a21a5d4",
		PasswordResetTimeoutDelta: time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(nil, dummydb.NewUserRepository(db), mailSvc, conf)
	tagSvc := tag.NewService(dummydb.NewTagRepository(db))
	confSvc := conference.NewService(dummydb.NewConferenceRepository(db))
	prjSvc := project.NewService(dummydb.NewProjectRepository(db), usrSvc, mailSvc)
	assignSvc := assign.NewService(dummydb.NewAssignRepository(db), confSvc)
	revSvc := review.NewService(dummydb.NewReviewRepository(db), confSvc, prjSvc, usrSvc, mailSvc)
	reportSvc := report.NewService(usrSvc, confSvc, prjSvc, revSvc, tagSvc)

	server := NewServer(ServerDeps{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        usrSvc,
		TagSvc:         tagSvc,
		ConfSvc:        confSvc,
		PrjSvc:         prjSvc,
		AssignSvc:      assignSvc,
		RevSvc:         revSvc,
		ReportSvc:      reportSvc,
	})

	return &testApp{
		conf:      conf,
		server:    server,
		mailSvc:   mailSvc,
		usrSvc:    usrSvc,
		tagSvc:    tagSvc,
		confSvc:   confSvc,
		prjSvc:    prjSvc,
		assignSvc: assignSvc,
		revSvc:    revSvc,
	}
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (app *testApp) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(app.conf, usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// createUser creates an active, approved user directly via the service,
// bypassing the API.
func (app *testApp) createUser(t *testing.T, name, uname, email string, roles []string) user.User {
	t.Helper()
	usr, err := app.usrSvc.Create(context.Background(), user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           email,
		Password:        "S3cr3t+Pass",
		PasswordConfirm: "S3cr3t+Pass",
		Roles:           roles,
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
