package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegiohq/backend/core/user"
)

func Test_authApi_login(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	deactivated := createUser(t, app, "sleeper", user.RoleStudent, fx.school1.ID)
	_, err := app.usrSvc.Update(deactivated.ID, user.UpdateUser{IsActive: boolPtr(false)})
	require.NoError(t, err)

	tests := []struct {
		name     string
		body     map[string]string
		wantCode int
	}{
		{"ok", map[string]string{"username": "teacher1", "password": "Str0ngPwd!"}, http.StatusOK},
		{"ok by email", map[string]string{"username": "teacher1@test.cd", "password": "Str0ngPwd!"}, http.StatusOK},
		{"wrong password", map[string]string{"username": "teacher1", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"username": "ghost", "password": "Str0ngPwd!"}, http.StatusUnauthorized},
		{"deactivated", map[string]string{"username": "sleeper", "password": "Str0ngPwd!"}, http.StatusForbidden},
		{"missing fields", map[string]string{"username": "teacher1"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, app, http.MethodPost, "/v1/auth/login", "", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				var res struct {
					Token string    `json:"token"`
					User  user.User `json:"user"`
				}
				decodeData(t, env, &res)
				assert.NotEmpty(t, res.Token)
				assert.Equal(t, fx.teacher1.ID, res.User.ID)
				assert.False(t, res.User.LastLogin.IsZero())
			}
		})
	}
}

func Test_authApi_register(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	body := map[string]interface{}{
		"name":             "New",
		"surname":          "Student",
		"username":         "newstudent",
		"email":            "newstudent@test.cd",
		"password":         "Str0ngPwd!",
		"password_confirm": "Str0ngPwd!",
		"school_id":        fx.school1.ID,
		"role":             user.RoleStudent,
	}
	rec, env := do(t, app, http.MethodPost, "/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}
	decodeData(t, env, &res)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, user.RoleStudent, res.User.Role)
	assert.True(t, res.User.IsActive)

	t.Run("duplicate username", func(t *testing.T) {
		rec, env := do(t, app, http.MethodPost, "/v1/auth/register", "", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, env.Errors, "username")
	})

	t.Run("admin role rejected", func(t *testing.T) {
		body := map[string]interface{}{
			"name":             "Sneaky",
			"surname":          "Admin",
			"username":         "sneakyadmin",
			"email":            "sneaky@test.cd",
			"password":         "Str0ngPwd!",
			"password_confirm": "Str0ngPwd!",
			"school_id":        fx.school1.ID,
			"role":             user.RoleAdmin,
		}
		rec, env := do(t, app, http.MethodPost, "/v1/auth/register", "", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, env.Errors, "role")
	})
}

func Test_authApi_refreshAndMe(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)
	token := getToken(t, app, fx.coord1)

	rec, env := do(t, app, http.MethodGet, "/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me user.User
	decodeData(t, env, &me)
	assert.Equal(t, fx.coord1.ID, me.ID)
	assert.Equal(t, user.RoleCoordinator, me.Role)

	rec, env = do(t, app, http.MethodPost, "/v1/auth/refresh", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Token string `json:"token"`
	}
	decodeData(t, env, &res)
	assert.NotEmpty(t, res.Token)

	t.Run("no token", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodGet, "/v1/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("deleted user locked out", func(t *testing.T) {
		goner := createUser(t, app, "goner", user.RoleStudent, fx.school1.ID)
		gonerToken := getToken(t, app, goner)
		require.NoError(t, app.usrSvc.Delete(goner.ID))

		rec, _ := do(t, app, http.MethodGet, "/v1/auth/me", gonerToken, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("deactivated user locked out", func(t *testing.T) {
		napper := createUser(t, app, "napper", user.RoleStudent, fx.school1.ID)
		napperToken := getToken(t, app, napper)
		_, err := app.usrSvc.Update(napper.ID, user.UpdateUser{IsActive: boolPtr(false)})
		require.NoError(t, err)

		rec, _ := do(t, app, http.MethodGet, "/v1/auth/me", napperToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func boolPtr(b bool) *bool { return &b }
