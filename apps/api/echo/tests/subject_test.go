package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegiohq/backend/core/subject"
)

func Test_subjectApi_queryScoping(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	// a second subject in school 1 held by another teacher
	teacher1b := createUser(t, app, "teacher1b", "teacher", fx.school1.ID)
	createSubject(t, app, "History", fx.course1.ID, teacher1b.ID, fx.school1.ID)

	t.Run("teacher sees only assigned subjects", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/subjects", getToken(t, app, fx.teacher1), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var subjects []subject.Subject
		pg := decodePage(t, env, &subjects)
		require.Equal(t, 1, pg.Total)
		assert.Equal(t, fx.subject1.ID, subjects[0].ID)
	})

	t.Run("coordinator sees the school", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/subjects", getToken(t, app, fx.coord1), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		pg := decodePage(t, env, nil)
		assert.Equal(t, 2, pg.Total)
	})

	t.Run("admin sees all", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/subjects", getToken(t, app, fx.admin), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		pg := decodePage(t, env, nil)
		assert.Equal(t, 3, pg.Total)
	})
}

func Test_subjectApi_assignTeacher(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)
	coordToken := getToken(t, app, fx.coord1)
	path := fmt.Sprintf("/v1/subjects/%d/assign-teacher", fx.subject1.ID)

	t.Run("reassign to another teacher", func(t *testing.T) {
		teacher1b := createUser(t, app, "teacher1d", "teacher", fx.school1.ID)
		rec, env := do(t, app, http.MethodPost, path, coordToken, map[string]interface{}{"teacher_id": teacher1b.ID})
		require.Equal(t, http.StatusOK, rec.Code)
		var sub subject.Subject
		decodeData(t, env, &sub)
		assert.Equal(t, teacher1b.ID, sub.TeacherID)
	})

	t.Run("target must hold the teacher role", func(t *testing.T) {
		rec, env := do(t, app, http.MethodPost, path, coordToken, map[string]interface{}{"teacher_id": fx.student1.ID})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, env.Errors, "teacher_id")
	})

	t.Run("unknown teacher", func(t *testing.T) {
		rec, env := do(t, app, http.MethodPost, path, coordToken, map[string]interface{}{"teacher_id": 99999})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, env.Errors, "teacher_id")
	})

	t.Run("cross-school subject denied", func(t *testing.T) {
		otherPath := fmt.Sprintf("/v1/subjects/%d/assign-teacher", fx.subject2.ID)
		rec, _ := do(t, app, http.MethodPost, otherPath, coordToken, map[string]interface{}{"teacher_id": fx.teacher1.ID})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("teacher lacks assign permission", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodPost, path, getToken(t, app, fx.teacher1), map[string]interface{}{"teacher_id": fx.teacher1.ID})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_subjectApi_deleteGuard(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)
	coordToken := getToken(t, app, fx.coord1)
	path := fmt.Sprintf("/v1/subjects/%d", fx.subject1.ID)

	createGrade(t, app, fx.student1.ID, fx.subject1.ID, fx.school1.ID, 1, 7)

	t.Run("guarded while grades remain", func(t *testing.T) {
		rec, env := do(t, app, http.MethodDelete, path, coordToken, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "cannot delete the subject because it has recorded grades", env.messageString(t))
	})

	t.Run("subject without grades deletable", func(t *testing.T) {
		sub := createSubject(t, app, "Geometry", fx.course1.ID, fx.teacher1.ID, fx.school1.ID)
		rec, _ := do(t, app, http.MethodDelete, fmt.Sprintf("/v1/subjects/%d", sub.ID), coordToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
