package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegiohq/backend/core/course"
)

func courseBody(name string, schoolID, teacherID, coordID int) map[string]interface{} {
	return map[string]interface{}{
		"name":          name,
		"description":   name + " description",
		"location":      "Room 2",
		"academic_year": "2025-2026",
		"start_date":    time.Now().UTC().Format(time.RFC3339),
		"teacher_id":    teacherID,
		"coord_id":      coordID,
		"school_id":     schoolID,
		"status":        course.StatusActive,
	}
}

func Test_courseApi_create(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)
	coordToken := getToken(t, app, fx.coord1)

	t.Run("coordinator creates in own school", func(t *testing.T) {
		rec, env := do(t, app, http.MethodPost, "/v1/courses", coordToken,
			courseBody("Physics 101", fx.school1.ID, fx.teacher1.ID, fx.coord1.ID))
		require.Equal(t, http.StatusCreated, rec.Code)
		var crs course.Course
		decodeData(t, env, &crs)
		assert.Equal(t, fx.school1.ID, crs.SchoolID)
	})

	t.Run("teacher lacks create permission", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodPost, "/v1/courses", getToken(t, app, fx.teacher1),
			courseBody("Nope", fx.school1.ID, fx.teacher1.ID, fx.coord1.ID))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("coordinator cannot create in other school", func(t *testing.T) {
		rec, env := do(t, app, http.MethodPost, "/v1/courses", coordToken,
			courseBody("Nope", fx.school2.ID, fx.teacher2.ID, fx.coord2.ID))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "no permissions to operate outside your school", env.messageString(t))
	})

	t.Run("teacher must belong to the course school", func(t *testing.T) {
		rec, env := do(t, app, http.MethodPost, "/v1/courses", coordToken,
			courseBody("Nope", fx.school1.ID, fx.teacher2.ID, fx.coord1.ID))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, env.Errors, "teacher_id")
	})

	t.Run("coordinator must belong to the course school", func(t *testing.T) {
		rec, env := do(t, app, http.MethodPost, "/v1/courses", coordToken,
			courseBody("Nope", fx.school1.ID, fx.teacher1.ID, fx.coord2.ID))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, env.Errors, "coord_id")
	})

	t.Run("end date before start date", func(t *testing.T) {
		body := courseBody("Nope", fx.school1.ID, fx.teacher1.ID, fx.coord1.ID)
		body["end_date"] = time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339)
		rec, env := do(t, app, http.MethodPost, "/v1/courses", coordToken, body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, env.Errors, "end_date")
	})
}

func Test_courseApi_queryScoping(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	t.Run("coordinator sees own school", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/courses", getToken(t, app, fx.coord1), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var courses []course.Course
		pg := decodePage(t, env, &courses)
		require.Equal(t, 1, pg.Total)
		assert.Equal(t, fx.course1.ID, courses[0].ID)
	})

	t.Run("admin sees all", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/courses", getToken(t, app, fx.admin), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		pg := decodePage(t, env, nil)
		assert.Equal(t, 2, pg.Total)
	})

	t.Run("cross-school retrieve denied", func(t *testing.T) {
		path := fmt.Sprintf("/v1/courses/%d", fx.course2.ID)
		rec, _ := do(t, app, http.MethodGet, path, getToken(t, app, fx.coord1), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_courseApi_deleteGuard(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)
	coordToken := getToken(t, app, fx.coord1)
	path := fmt.Sprintf("/v1/courses/%d", fx.course1.ID)

	enr := enroll(t, app, fx.course1, fx.student1.ID)

	t.Run("guarded while enrollments remain", func(t *testing.T) {
		rec, env := do(t, app, http.MethodDelete, path, coordToken, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "cannot delete the course because it has enrolled students", env.messageString(t))
	})

	t.Run("deletable once empty", func(t *testing.T) {
		require.NoError(t, app.enrollmentSvc.Delete(enr.ID))

		rec, _ := do(t, app, http.MethodDelete, path, coordToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
