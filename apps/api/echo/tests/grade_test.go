package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegiohq/backend/core/grade"
)

func gradeBody(userID, subjectID, schoolID, evaluation int, value float64) map[string]interface{} {
	return map[string]interface{}{
		"user_id":    userID,
		"subject_id": subjectID,
		"school_id":  schoolID,
		"evaluation": evaluation,
		"grade":      value,
		"grade_date": time.Now().UTC().Format(time.RFC3339),
	}
}

func Test_gradeApi_create(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	t.Run("teacher grades own subject", func(t *testing.T) {
		body := gradeBody(fx.student1.ID, fx.subject1.ID, fx.school1.ID, 1, 8.75)
		rec, env := do(t, app, http.MethodPost, "/v1/grades", getToken(t, app, fx.teacher1), body)
		require.Equal(t, http.StatusCreated, rec.Code)
		var g grade.Grade
		decodeData(t, env, &g)
		assert.Equal(t, 8.75, g.Grade)
		assert.Equal(t, fx.student1.ID, g.UserID)
	})

	t.Run("duplicate evaluation rejected", func(t *testing.T) {
		body := gradeBody(fx.student1.ID, fx.subject1.ID, fx.school1.ID, 1, 6)
		rec, env := do(t, app, http.MethodPost, "/v1/grades", getToken(t, app, fx.teacher1), body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "a grade already exists for this student, subject and evaluation", env.messageString(t))
	})

	t.Run("teacher cannot grade another teacher's subject", func(t *testing.T) {
		sub := createSubject(t, app, "Geometry", fx.course1.ID, fx.coord1.ID, fx.school1.ID)
		body := gradeBody(fx.student1.ID, sub.ID, fx.school1.ID, 1, 5)
		rec, env := do(t, app, http.MethodPost, "/v1/grades", getToken(t, app, fx.teacher1), body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "no permissions to manage grades for this subject", env.messageString(t))
	})

	t.Run("out of range value", func(t *testing.T) {
		body := gradeBody(fx.student1.ID, fx.subject1.ID, fx.school1.ID, 2, 10.5)
		rec, env := do(t, app, http.MethodPost, "/v1/grades", getToken(t, app, fx.teacher1), body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, env.Errors, "grade")
	})

	t.Run("too many decimals", func(t *testing.T) {
		body := gradeBody(fx.student1.ID, fx.subject1.ID, fx.school1.ID, 2, 7.125)
		rec, _ := do(t, app, http.MethodPost, "/v1/grades", getToken(t, app, fx.teacher1), body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("student lacks permission", func(t *testing.T) {
		body := gradeBody(fx.student1.ID, fx.subject1.ID, fx.school1.ID, 3, 9)
		rec, _ := do(t, app, http.MethodPost, "/v1/grades", getToken(t, app, fx.student1), body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_gradeApi_scoping(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	// second subject in school1 taught by another teacher
	teacher1b := createUser(t, app, "teacher1b", "teacher", fx.school1.ID)
	subject1b := createSubject(t, app, "History", fx.course1.ID, teacher1b.ID, fx.school1.ID)

	g1 := createGrade(t, app, fx.student1.ID, fx.subject1.ID, fx.school1.ID, 1, 7.5)
	g2 := createGrade(t, app, fx.student1.ID, subject1b.ID, fx.school1.ID, 1, 6)
	g3 := createGrade(t, app, fx.student2.ID, fx.subject2.ID, fx.school2.ID, 1, 9)

	gradeIDs := func(grades []grade.Grade) []int {
		ids := make([]int, 0, len(grades))
		for _, g := range grades {
			ids = append(ids, g.ID)
		}
		return ids
	}

	t.Run("teacher sees only own subjects", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/grades", getToken(t, app, fx.teacher1), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var grades []grade.Grade
		decodePage(t, env, &grades)
		assert.ElementsMatch(t, []int{g1.ID}, gradeIDs(grades))
	})

	t.Run("coordinator sees whole school", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/grades", getToken(t, app, fx.coord1), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var grades []grade.Grade
		decodePage(t, env, &grades)
		assert.ElementsMatch(t, []int{g1.ID, g2.ID}, gradeIDs(grades))
	})

	t.Run("admin sees everything", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/grades", getToken(t, app, fx.admin), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var grades []grade.Grade
		decodePage(t, env, &grades)
		assert.ElementsMatch(t, []int{g1.ID, g2.ID, g3.ID}, gradeIDs(grades))
	})

	t.Run("student my-grades", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/my-grades", getToken(t, app, fx.student1), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var grades []grade.Grade
		decodeData(t, env, &grades)
		assert.ElementsMatch(t, []int{g1.ID, g2.ID}, gradeIDs(grades))
	})

	t.Run("student cannot list /grades", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodGet, "/v1/grades", getToken(t, app, fx.student1), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("student cannot read another student's grade", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodGet, fmt.Sprintf("/v1/grades/%d", g3.ID), getToken(t, app, fx.student1), nil)
		// students have no view-grades permission at all
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("teacher reads by subject", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, fmt.Sprintf("/v1/grades/subject/%d", fx.subject1.ID), getToken(t, app, fx.teacher1), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var grades []grade.Grade
		decodeData(t, env, &grades)
		assert.ElementsMatch(t, []int{g1.ID}, gradeIDs(grades))
	})

	t.Run("teacher denied on foreign subject listing", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodGet, fmt.Sprintf("/v1/grades/subject/%d", subject1b.ID), getToken(t, app, fx.teacher1), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("by student scoped for teachers", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, fmt.Sprintf("/v1/grades/student/%d", fx.student1.ID), getToken(t, app, fx.teacher1), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var grades []grade.Grade
		decodePage(t, env, &grades)
		assert.ElementsMatch(t, []int{g1.ID}, gradeIDs(grades))
	})
}

func Test_gradeApi_listOrdering(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)
	now := time.Now().UTC()

	mk := func(evaluation int, date time.Time) grade.Grade {
		value := 7.0
		g, err := app.gradeSvc.Create(grade.NewGrade{
			UserID:     fx.student1.ID,
			SubjectID:  fx.subject1.ID,
			SchoolID:   fx.school1.ID,
			Evaluation: evaluation,
			Grade:      &value,
			GradeDate:  date,
		})
		require.NoError(t, err)
		return g
	}
	older := mk(1, now.Add(-48*time.Hour))
	newer := mk(2, now)

	rec, env := do(t, app, http.MethodGet, "/v1/grades", getToken(t, app, fx.coord1), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var grades []grade.Grade
	decodePage(t, env, &grades)
	require.Len(t, grades, 2)
	// most recent grade date first
	assert.Equal(t, newer.ID, grades[0].ID)
	assert.Equal(t, older.ID, grades[1].ID)
}
