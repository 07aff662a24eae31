package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegiohq/backend/core/school"
)

func Test_schoolApi_adminOnly(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	for _, usr := range []struct {
		name  string
		token string
	}{
		{"coordinator", getToken(t, app, fx.coord1)},
		{"teacher", getToken(t, app, fx.teacher1)},
		{"student", getToken(t, app, fx.student1)},
	} {
		t.Run(usr.name, func(t *testing.T) {
			rec, _ := do(t, app, http.MethodGet, "/v1/schools", usr.token, nil)
			assert.Equal(t, http.StatusForbidden, rec.Code)
		})
	}

	t.Run("admin lists all", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/schools", getToken(t, app, fx.admin), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var schools []school.School
		pg := decodePage(t, env, &schools)
		assert.Equal(t, 2, pg.Total)
	})
}

func Test_schoolApi_crud(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)
	adminToken := getToken(t, app, fx.admin)

	var created school.School
	t.Run("create", func(t *testing.T) {
		rec, env := do(t, app, http.MethodPost, "/v1/schools", adminToken, map[string]interface{}{
			"name":      "East",
			"full_name": "East High School",
			"email":     "east@test.cd",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		decodeData(t, env, &created)
		assert.Equal(t, "East", created.Name)
	})

	t.Run("duplicate email", func(t *testing.T) {
		rec, env := do(t, app, http.MethodPost, "/v1/schools", adminToken, map[string]interface{}{
			"name":      "East Again",
			"full_name": "East Again High School",
			"email":     "east@test.cd",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, env.Errors, "email")
	})

	t.Run("update", func(t *testing.T) {
		path := fmt.Sprintf("/v1/schools/%d", created.ID)
		rec, env := do(t, app, http.MethodPut, path, adminToken, map[string]interface{}{"name": "East Renamed"})
		require.Equal(t, http.StatusOK, rec.Code)
		var sch school.School
		decodeData(t, env, &sch)
		assert.Equal(t, "East Renamed", sch.Name)
		// untouched fields survive
		assert.Equal(t, "east@test.cd", sch.Email)
	})

	t.Run("delete guarded while users remain", func(t *testing.T) {
		path := fmt.Sprintf("/v1/schools/%d", fx.school1.ID)
		rec, env := do(t, app, http.MethodDelete, path, adminToken, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "cannot delete the school because it has associated users", env.messageString(t))

		rec, _ = do(t, app, http.MethodGet, path, adminToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("delete empty school", func(t *testing.T) {
		path := fmt.Sprintf("/v1/schools/%d", created.ID)
		rec, _ := do(t, app, http.MethodDelete, path, adminToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec, _ = do(t, app, http.MethodGet, path, adminToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
