package tests

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/mafunzo/apps/api/echo"
	"github.com/trezcool/mafunzo/core/progress"
	"github.com/trezcool/mafunzo/core/training"
	"github.com/trezcool/mafunzo/core/user"
)

func Test_progressApi_save(t *testing.T) {
	app, deps := setup(t)
	ctx := context.Background()

	learner := createUser(t, deps.usrRepo, "Jim Learner", "jim@test.cd", "password1", user.RoleUser, true)
	other := createUser(t, deps.usrRepo, "Awa Other", "awa@test.cd", "password1", user.RoleUser, true)
	admin := createUser(t, deps.usrRepo, "Admin", "admin@test.cd", "password1", user.RoleAdmin, true)
	trn := createTraining(t, deps.trnRepo, "Go Basics", training.StatusPublished, admin.ID)

	learnerToken := getToken(t, deps.conf, learner)
	adminToken := getToken(t, deps.conf, admin)
	success := marchallObj(t, SuccessResponse{Success: true})

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/api/progress",
			body:     marchallObj(t, progress.SaveProgress{TrainingID: trn.ID, Progress: 10}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Fresh start", method: http.MethodPost, path: "/api/progress", token: learnerToken,
			body:     marchallObj(t, progress.SaveProgress{TrainingID: trn.ID, Progress: 10}),
			wantData: success,
		},
		{
			name: "Progress advances", method: http.MethodPost, path: "/api/progress", token: learnerToken,
			body:     marchallObj(t, progress.SaveProgress{TrainingID: trn.ID, Progress: 50}),
			wantData: success,
		},
		{
			name: "Stale report accepted but ignored", method: http.MethodPost, path: "/api/progress", token: learnerToken,
			body:     marchallObj(t, progress.SaveProgress{TrainingID: trn.ID, Progress: 30}),
			wantData: success,
		},
		{
			name: "Progress over 100 rejected", method: http.MethodPost, path: "/api/progress", token: learnerToken,
			body:     marchallObj(t, progress.SaveProgress{TrainingID: trn.ID, Progress: 101}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"progress": "progress must be 100 or less"}),
		},
		{
			name: "Body userId ignored for learners", method: http.MethodPost, path: "/api/progress", token: learnerToken,
			body:     marchallObj(t, progress.SaveProgress{UserID: other.ID, TrainingID: trn.ID, Progress: 70}),
			wantData: success,
		},
		{
			name: "Completion", method: http.MethodPost, path: "/api/progress", token: learnerToken,
			body:     marchallObj(t, progress.SaveProgress{TrainingID: trn.ID, Completed: true}),
			wantData: success,
		},
		{
			name: "Completion never reverts", method: http.MethodPost, path: "/api/progress", token: learnerToken,
			body:     marchallObj(t, progress.SaveProgress{TrainingID: trn.ID, Progress: 20}),
			wantData: success,
		},
		{
			name: "Admin reports on behalf of another user", method: http.MethodPost, path: "/api/progress", token: adminToken,
			body:     marchallObj(t, progress.SaveProgress{UserID: other.ID, TrainingID: trn.ID, Progress: 40}),
			wantData: success,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// learner's record went through the full lifecycle: completion wins
	// and stale reports never moved it backwards
	rec, err := deps.prgRepo.GetProgress(ctx, learner.ID, trn.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, rec.Progress)
	assert.True(t, rec.Completed)
	assert.True(t, rec.CompletedAt.Valid)

	// learner's attempt to write on other's behalf landed on their own
	// record; only the admin write reached other's
	otherRec, err := deps.prgRepo.GetProgress(ctx, other.ID, trn.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, otherRec.Progress) // admin write only
	assert.False(t, otherRec.Completed)
}

func Test_progressApi_query(t *testing.T) {
	app, deps := setup(t)
	ctx := context.Background()

	learner := createUser(t, deps.usrRepo, "Jim Learner", "jim@test.cd", "password1", user.RoleUser, true)
	admin := createUser(t, deps.usrRepo, "Admin", "admin@test.cd", "password1", user.RoleAdmin, true)
	trn1 := createTraining(t, deps.trnRepo, "Go Basics", training.StatusPublished, admin.ID)
	trn2 := createTraining(t, deps.trnRepo, "Advanced Go", training.StatusPublished, admin.ID)
	trn3 := createTraining(t, deps.trnRepo, "SQL Basics", training.StatusPublished, admin.ID)

	learnerToken := getToken(t, deps.conf, learner)
	adminToken := getToken(t, deps.conf, admin)

	t.Run("Auth required", func(t *testing.T) {
		tt := httpTest{path: "/api/progress", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, tt.path)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("No records yet", func(t *testing.T) {
		want := marchallObj(t, progress.UserProgress{
			UserProgress: []progress.Record{},
			Statistics:   progress.Statistics{TotalTrainings: 3},
		})
		tt := httpTest{path: "/api/progress", token: learnerToken, wantData: want}
		req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	// one completed, one in flight, one untouched
	_, err := deps.prgSvc.Save(ctx, progress.SaveProgress{UserID: learner.ID, TrainingID: trn1.ID, Completed: true})
	require.NoError(t, err)
	inFlight, err := deps.prgSvc.Save(ctx, progress.SaveProgress{UserID: learner.ID, TrainingID: trn2.ID, Progress: 40})
	require.NoError(t, err)
	completed, err := deps.prgRepo.GetProgress(ctx, learner.ID, trn1.ID)
	require.NoError(t, err)
	_ = trn3

	t.Run("Records and statistics", func(t *testing.T) {
		want := marchallObj(t, progress.UserProgress{
			UserProgress: []progress.Record{inFlight, completed},
			Statistics:   progress.Statistics{TotalTrainings: 3, CompletedTrainings: 1, CompletionPercentage: 33},
		})
		tt := httpTest{path: "/api/progress", token: learnerToken, wantData: want}
		req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Learners cannot query others", func(t *testing.T) {
		// the userId param is ignored; they still get their own records
		want := marchallObj(t, progress.UserProgress{
			UserProgress: []progress.Record{inFlight, completed},
			Statistics:   progress.Statistics{TotalTrainings: 3, CompletedTrainings: 1, CompletionPercentage: 33},
		})
		tt := httpTest{path: "/api/progress?userId=" + url.QueryEscape(admin.ID), token: learnerToken, wantData: want}
		req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Admins may query others", func(t *testing.T) {
		want := marchallObj(t, progress.UserProgress{
			UserProgress: []progress.Record{inFlight, completed},
			Statistics:   progress.Statistics{TotalTrainings: 3, CompletedTrainings: 1, CompletionPercentage: 33},
		})
		tt := httpTest{path: "/api/progress?userId=" + url.QueryEscape(learner.ID), token: adminToken, wantData: want}
		req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_progressApi_ratings(t *testing.T) {
	app, deps := setup(t)
	ctx := context.Background()

	learner := createUser(t, deps.usrRepo, "Jim Learner", "jim@test.cd", "password1", user.RoleUser, true)
	admin := createUser(t, deps.usrRepo, "Admin", "admin@test.cd", "password1", user.RoleAdmin, true)
	trn := createTraining(t, deps.trnRepo, "Go Basics", training.StatusPublished, admin.ID)

	learnerToken := getToken(t, deps.conf, learner)
	success := marchallObj(t, SuccessResponse{Success: true})

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/api/ratings",
			body:     marchallObj(t, progress.SaveRating{TrainingID: trn.ID, Rating: 4}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Rate a training", method: http.MethodPost, path: "/api/ratings", token: learnerToken,
			body:     marchallObj(t, progress.SaveRating{TrainingID: trn.ID, Rating: 4}),
			wantData: success,
		},
		{
			name: "Rating out of range", method: http.MethodPost, path: "/api/ratings", token: learnerToken,
			body:     marchallObj(t, progress.SaveRating{TrainingID: trn.ID, Rating: 7}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"rating": "rating must be 5 or less"}),
		},
		{
			name: "Zero rating rejected", method: http.MethodPost, path: "/api/ratings", token: learnerToken,
			body:     marchallObj(t, progress.SaveRating{TrainingID: trn.ID}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"rating": "rating is a required field"}),
		},
		{
			name: "Re-rating replaces the old value", method: http.MethodPost, path: "/api/ratings", token: learnerToken,
			body:     marchallObj(t, progress.SaveRating{TrainingID: trn.ID, Rating: 2}),
			wantData: success,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	rat, err := deps.prgRepo.GetRating(ctx, learner.ID, trn.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, rat.Rating)

	t.Run("Get own rating", func(t *testing.T) {
		tt := httpTest{path: "/api/ratings?trainingId=" + url.QueryEscape(trn.ID), token: learnerToken, wantData: marchallObj(t, RatingResponse{Rating: &rat})}
		req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Unrated training returns null", func(t *testing.T) {
		trn2 := createTraining(t, deps.trnRepo, "Advanced Go", training.StatusPublished, admin.ID)
		tt := httpTest{path: "/api/ratings?trainingId=" + url.QueryEscape(trn2.ID), token: learnerToken, wantData: marchallObj(t, RatingResponse{})}
		req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("trainingId is required", func(t *testing.T) {
		tt := httpTest{
			path: "/api/ratings", token: learnerToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "trainingId is required"}),
		}
		req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}
