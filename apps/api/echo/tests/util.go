package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/mafunzo/apps/api/echo"
	"github.com/trezcool/mafunzo/core"
	"github.com/trezcool/mafunzo/core/progress"
	"github.com/trezcool/mafunzo/core/training"
	"github.com/trezcool/mafunzo/core/user"
	emailsvc "github.com/trezcool/mafunzo/services/email"
	inmemdb "github.com/trezcool/mafunzo/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newTestConfig() *core.Config {
	conf := &core.Config{
		Debug:           false,
		TestMode:        true,
		AppName:         "Mafunzo",
		SecretKey:       "s3cr3t-t3st-k3y",
		FrontendBaseURL: "http://localhost:3000",
	}
	conf.PasswordResetTimeoutDelta = 3 * 24 * time.Hour
	conf.Server.JWTExpirationDelta = 7 * 24 * time.Hour
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour
	return conf
}

type testDeps struct {
	conf     *core.Config
	usrRepo  user.Repository
	trnRepo  training.Repository
	prgRepo  progress.Repository
	usrSvc   *user.Service
	trnSvc   *training.Service
	prgSvc   *progress.Service
	mailSvc  core.EmailService
	validate *validator.Validate
}

// setup wires a full API server on in-memory repositories.
func setup(t *testing.T) (*Server, *testDeps) {
	t.Helper()

	conf := newTestConfig()
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	trnRepo := inmemdb.NewTrainingRepository(db)
	prgRepo := inmemdb.NewProgressRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	trnSvc := training.NewService(trnRepo)
	prgSvc := progress.NewService(prgRepo, trnRepo)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	app := NewServer(
		ServerDeps{
			Conf:        conf,
			Logger:      nopLogger{},
			UserSvc:     usrSvc,
			TrainingSvc: trnSvc,
			ProgressSvc: prgSvc,
			Validate:    validate,
			Translator:  translator,
		},
	)

	return app, &testDeps{
		conf:     conf,
		usrRepo:  usrRepo,
		trnRepo:  trnRepo,
		prgRepo:  prgRepo,
		usrSvc:   usrSvc,
		trnSvc:   trnSvc,
		prgSvc:   prgSvc,
		mailSvc:  mailSvc,
		validate: validate,
	}
}

func createUser(t *testing.T, repo user.Repository, name, email, pwd, role string, isActive bool) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  &isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("SetPassword(): %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

func createTraining(t *testing.T, repo training.Repository, title, status, uploaderID string) training.Training {
	t.Helper()

	now := time.Now().UTC()
	trn, err := repo.CreateTraining(context.Background(), training.Training{
		Title:       title,
		Description: title + " description",
		Status:      status,
		UploaderID:  uploaderID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateTraining(): %v", err)
	}
	return trn
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

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	t.Helper()

	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
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
	if l1, ok := j1.([]interface{}); ok {
		if l2, ok := j2.([]interface{}); ok {
			return assert.ElementsMatch(t, l1, l2), nil
		}
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
