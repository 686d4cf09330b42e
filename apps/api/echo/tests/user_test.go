package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/mafunzo/apps/api/echo"
	"github.com/trezcool/mafunzo/core/user"
)

func Test_userApi_login(t *testing.T) {
	app, deps := setup(t)

	usr := createUser(t, deps.usrRepo, "Jim Learner", "jim@test.cd", "password1", user.RoleUser, true)
	deactivated := createUser(t, deps.usrRepo, "Gone Guy", "gone@test.cd", "password1", user.RoleUser, false)

	login := func(email, pwd string) []byte {
		return marchallObj(t, map[string]string{"email": email, "password": pwd})
	}

	tests := []httpTest{
		{
			name: "Valid credentials", body: login(usr.Email, "password1"),
			wantCode: http.StatusOK,
		},
		{
			name: "Email is case-insensitive", body: login("JIM@test.cd", "password1"),
			wantCode: http.StatusOK,
		},
		{
			name: "Wrong password", body: login(usr.Email, "nope"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Unknown email", body: login("who@test.cd", "password1"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Deactivated account", body: login(deactivated.Email, "password1"),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Missing fields", body: login("", ""),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"email":    "email is a required field",
				"password": "password is a required field",
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/users/login", tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData == nil {
				require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				var resp LoginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Token)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_register(t *testing.T) {
	app, deps := setup(t)

	learner := createUser(t, deps.usrRepo, "Jim Learner", "jim@test.cd", "password1", user.RoleUser, true)
	admin := createUser(t, deps.usrRepo, "Admin", "admin@test.cd", "password1", user.RoleAdmin, true)

	learnerToken := getToken(t, deps.conf, learner)
	adminToken := getToken(t, deps.conf, admin)

	newUser := marchallObj(t, user.NewUser{
		Name:            "New Guy",
		Email:           "new@test.cd",
		Password:        "password1",
		PasswordConfirm: "password1",
	})

	tests := []httpTest{
		{
			name: "Auth required", wantCode: http.StatusUnauthorized,
			body: newUser, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Admin required", token: learnerToken, body: newUser,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Duplicate email", token: adminToken,
			body: marchallObj(t, user.NewUser{
				Name: "Jim Again", Email: learner.Email,
				Password: "password1", PasswordConfirm: "password1",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{
			name: "Password mismatch", token: adminToken,
			body: marchallObj(t, user.NewUser{
				Name: "New Guy", Email: "new@test.cd",
				Password: "password1", PasswordConfirm: "password2",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password_confirm": "password_confirm does not match"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/users/register", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Admin registers a user", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/users/register", adminToken, newUser)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, "New Guy", created.Name)
		assert.Equal(t, "new@test.cd", created.Email)
		assert.Equal(t, user.RoleUser, created.Role) // defaulted
		assert.NotEmpty(t, created.ID)
	})
}

func Test_userApi_retrieve(t *testing.T) {
	app, deps := setup(t)

	learner := createUser(t, deps.usrRepo, "Jim Learner", "jim@test.cd", "password1", user.RoleUser, true)
	other := createUser(t, deps.usrRepo, "Awa Other", "awa@test.cd", "password1", user.RoleUser, true)
	admin := createUser(t, deps.usrRepo, "Admin", "admin@test.cd", "password1", user.RoleAdmin, true)

	learnerToken := getToken(t, deps.conf, learner)
	adminToken := getToken(t, deps.conf, admin)

	tests := []httpTest{
		{name: "Own account", path: "/api/users/" + learner.ID, token: learnerToken, wantData: marchallObj(t, learner)},
		{
			name: "Someone else's account is hidden", path: "/api/users/" + other.ID, token: learnerToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "Admin sees anyone", path: "/api/users/" + other.ID, token: adminToken, wantData: marchallObj(t, other)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
