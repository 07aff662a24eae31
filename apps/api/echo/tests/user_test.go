package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegiohq/backend/core/user"
)

func Test_userApi_query(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	tests := []struct {
		name      string
		token     string
		wantCode  int
		wantUsers []int // expected ids; nil to skip the check
	}{
		{"admin sees all", getToken(t, app, fx.admin), http.StatusOK, []int{
			fx.admin.ID, fx.coord1.ID, fx.coord2.ID, fx.teacher1.ID, fx.teacher2.ID, fx.student1.ID, fx.student2.ID,
		}},
		{"coordinator sees own school", getToken(t, app, fx.coord1), http.StatusOK, []int{
			fx.admin.ID, fx.coord1.ID, fx.teacher1.ID, fx.student1.ID,
		}},
		{"teacher sees own school", getToken(t, app, fx.teacher2), http.StatusOK, []int{
			fx.coord2.ID, fx.teacher2.ID, fx.student2.ID,
		}},
		{"student denied", getToken(t, app, fx.student1), http.StatusForbidden, nil},
		{"anonymous denied", "", http.StatusUnauthorized, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, app, http.MethodGet, "/v1/users", tt.token, nil)
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantUsers == nil {
				return
			}
			var users []user.User
			decodePage(t, env, &users)
			ids := make([]int, 0, len(users))
			for _, u := range users {
				ids = append(ids, u.ID)
			}
			assert.ElementsMatch(t, tt.wantUsers, ids)
		})
	}
}

func Test_userApi_crossSchool(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)
	coordToken := getToken(t, app, fx.coord1)

	t.Run("retrieve other school", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, fmt.Sprintf("/v1/users/%d", fx.student2.ID), coordToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "no permissions to operate outside your school", env.messageString(t))
	})

	t.Run("create into other school", func(t *testing.T) {
		body := map[string]interface{}{
			"name":             "Intruder",
			"surname":          "Test",
			"username":         "intruder",
			"email":            "intruder@test.cd",
			"password":         "Str0ngPwd!",
			"password_confirm": "Str0ngPwd!",
			"school_id":        fx.school2.ID,
			"role":             user.RoleStudent,
		}
		rec, _ := do(t, app, http.MethodPost, "/v1/users", coordToken, body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin crosses schools freely", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodGet, fmt.Sprintf("/v1/users/%d", fx.student2.ID), getToken(t, app, fx.admin), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_userApi_destroy(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)
	adminToken := getToken(t, app, fx.admin)

	t.Run("no self delete, even for admins", func(t *testing.T) {
		rec, env := do(t, app, http.MethodDelete, fmt.Sprintf("/v1/users/%d", fx.admin.ID), adminToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "cannot delete own account", env.messageString(t))
	})

	t.Run("coordinator lacks delete permission", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodDelete, fmt.Sprintf("/v1/users/%d", fx.student1.ID), getToken(t, app, fx.coord1), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin deletes", func(t *testing.T) {
		goner := createUser(t, app, "todelete", user.RoleStudent, fx.school1.ID)
		rec, _ := do(t, app, http.MethodDelete, fmt.Sprintf("/v1/users/%d", goner.ID), adminToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		_, err := app.usrSvc.GetByID(goner.ID)
		assert.Error(t, err)
	})

	t.Run("missing user", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodDelete, "/v1/users/99999", adminToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_userApi_update(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	t.Run("coordinator edits own school user", func(t *testing.T) {
		body := map[string]interface{}{"name": "Renamed"}
		rec, env := do(t, app, http.MethodPut, fmt.Sprintf("/v1/users/%d", fx.student1.ID), getToken(t, app, fx.coord1), body)
		require.Equal(t, http.StatusOK, rec.Code)
		var usr user.User
		decodeData(t, env, &usr)
		assert.Equal(t, "Renamed", usr.Name)
	})

	t.Run("cannot move user to another school", func(t *testing.T) {
		body := map[string]interface{}{"school_id": fx.school2.ID}
		rec, _ := do(t, app, http.MethodPut, fmt.Sprintf("/v1/users/%d", fx.student1.ID), getToken(t, app, fx.coord1), body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("partial update keeps omitted fields", func(t *testing.T) {
		withPhone, err := app.usrSvc.Create(user.NewUser{
			Name:     "Phoned",
			Surname:  "Test",
			Username: "phoned1",
			Email:    "phoned1@test.cd",
			Phone:    "+243812345678",
			Password: "Str0ngPwd!",
			SchoolID: fx.school1.ID,
			Role:     user.RoleStudent,
		})
		require.NoError(t, err)

		body := map[string]interface{}{"name": "Still Phoned"}
		rec, env := do(t, app, http.MethodPut, fmt.Sprintf("/v1/users/%d", withPhone.ID), getToken(t, app, fx.coord1), body)
		require.Equal(t, http.StatusOK, rec.Code)
		var usr user.User
		decodeData(t, env, &usr)
		assert.Equal(t, "Still Phoned", usr.Name)
		assert.Equal(t, "+243812345678", usr.Phone)
		assert.Equal(t, "phoned1@test.cd", usr.Email)
	})
}
