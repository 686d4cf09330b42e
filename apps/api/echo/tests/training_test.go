package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mafunzo/core/training"
	"github.com/trezcool/mafunzo/core/user"
)

func Test_trainingApi_query(t *testing.T) {
	app, deps := setup(t)

	learner := createUser(t, deps.usrRepo, "Jim Learner", "jim@test.cd", "password1", user.RoleUser, true)
	admin := createUser(t, deps.usrRepo, "Admin", "admin@test.cd", "password1", user.RoleAdmin, true)

	published := createTraining(t, deps.trnRepo, "Go Basics", training.StatusPublished, admin.ID)
	draft := createTraining(t, deps.trnRepo, "Drafty", training.StatusDraft, admin.ID)
	archived := createTraining(t, deps.trnRepo, "Old News", training.StatusArchived, admin.ID)

	learnerToken := getToken(t, deps.conf, learner)
	adminToken := getToken(t, deps.conf, admin)

	tests := []httpTest{
		{name: "Auth required", path: "/api/trainings", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Learners only see published", path: "/api/trainings", token: learnerToken,
			wantData: marchallList(t, published),
		},
		{
			name: "Learners cannot filter into drafts", path: "/api/trainings?status=DRAFT", token: learnerToken,
			wantData: marchallList(t, published),
		},
		{
			name: "Admins see everything", path: "/api/trainings", token: adminToken,
			wantData: marchallList(t, published, draft, archived),
		},
		{
			name: "Admins may filter by status", path: "/api/trainings?status=ARCHIVED", token: adminToken,
			wantData: marchallList(t, archived),
		},
		{
			name: "Search", path: "/api/trainings?search=go", token: adminToken,
			wantData: marchallList(t, published),
		},
		{
			name: "Hostile ordering is ignored", token: adminToken,
			path:     "/api/trainings?ordering=" + url.QueryEscape("(SELECT pg_sleep(10));--"),
			wantData: marchallList(t, published, draft, archived),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_trainingApi_retrieve(t *testing.T) {
	app, deps := setup(t)

	learner := createUser(t, deps.usrRepo, "Jim Learner", "jim@test.cd", "password1", user.RoleUser, true)
	admin := createUser(t, deps.usrRepo, "Admin", "admin@test.cd", "password1", user.RoleAdmin, true)

	published := createTraining(t, deps.trnRepo, "Go Basics", training.StatusPublished, admin.ID)
	draft := createTraining(t, deps.trnRepo, "Drafty", training.StatusDraft, admin.ID)

	learnerToken := getToken(t, deps.conf, learner)
	adminToken := getToken(t, deps.conf, admin)

	notFound := marchallObj(t, httpErr{Error: "not found"})

	tests := []httpTest{
		{name: "Published training", path: "/api/trainings/" + published.ID, token: learnerToken, wantData: marchallObj(t, published)},
		{name: "Draft is hidden from learners", path: "/api/trainings/" + draft.ID, token: learnerToken, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "Draft is visible to admins", path: "/api/trainings/" + draft.ID, token: adminToken, wantData: marchallObj(t, draft)},
		{name: "Unknown ID", path: "/api/trainings/nope", token: adminToken, wantCode: http.StatusNotFound, wantData: notFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_trainingApi_create(t *testing.T) {
	app, deps := setup(t)

	learner := createUser(t, deps.usrRepo, "Jim Learner", "jim@test.cd", "password1", user.RoleUser, true)
	admin := createUser(t, deps.usrRepo, "Admin", "admin@test.cd", "password1", user.RoleAdmin, true)

	learnerToken := getToken(t, deps.conf, learner)
	adminToken := getToken(t, deps.conf, admin)

	newTraining := marchallObj(t, training.NewTraining{
		Title:       "Onboarding 101",
		Description: "Company onboarding",
		Status:      training.StatusPublished,
		Objectives:  []string{"Meet the team", "Set up your tools"},
	})

	tests := []httpTest{
		{
			name: "Admin required", token: learnerToken, body: newTraining,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Too many objectives", token: adminToken,
			body: marchallObj(t, training.NewTraining{
				Title:       "Onboarding 101",
				Description: "Company onboarding",
				Objectives:  []string{"a", "b", "c", "d", "e"},
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"objectives": "objectives must contain at maximum 4 items"}),
		},
		{
			name: "Invalid status", token: adminToken,
			body: marchallObj(t, training.NewTraining{
				Title:       "Onboarding 101",
				Description: "Company onboarding",
				Status:      "LIVE",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "status is not a valid choice"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/trainings", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Admin creates a training", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/trainings", adminToken, newTraining)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created training.Training
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, "Onboarding 101", created.Title)
		assert.Equal(t, training.StatusPublished, created.Status)
		assert.Equal(t, admin.ID, created.UploaderID)
		assert.NotEmpty(t, created.ID)
	})

	t.Run("Status defaults to draft", func(t *testing.T) {
		body := marchallObj(t, training.NewTraining{Title: "WIP", Description: "Not ready"})
		req, rec := newAuthRequest(http.MethodPost, "/api/trainings", adminToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created training.Training
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, training.StatusDraft, created.Status)
	})
}
