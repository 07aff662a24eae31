package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegiohq/backend/core/enrollment"
)

func Test_courseApi_enroll(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)
	coordToken := getToken(t, app, fx.coord1)

	enrollBody := func(userID int) map[string]interface{} {
		return map[string]interface{}{
			"user_id":         userID,
			"academic_year":   "2025-2026",
			"enrollment_date": time.Now().UTC().Format(time.RFC3339),
		}
	}
	enrollPath := fmt.Sprintf("/v1/courses/%d/enroll", fx.course1.ID)

	t.Run("coordinator enrolls student", func(t *testing.T) {
		rec, env := do(t, app, http.MethodPost, enrollPath, coordToken, enrollBody(fx.student1.ID))
		require.Equal(t, http.StatusCreated, rec.Code)
		var enr enrollment.Enrollment
		decodeData(t, env, &enr)
		assert.Equal(t, fx.course1.ID, enr.CourseID)
		assert.Equal(t, fx.school1.ID, enr.SchoolID)
		assert.Equal(t, enrollment.StatusActive, enr.Status)
	})

	t.Run("double enrollment rejected", func(t *testing.T) {
		rec, env := do(t, app, http.MethodPost, enrollPath, coordToken, enrollBody(fx.student1.ID))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "the student is already enrolled in this course for this academic year", env.messageString(t))
	})

	t.Run("only students can be enrolled", func(t *testing.T) {
		rec, env := do(t, app, http.MethodPost, enrollPath, coordToken, enrollBody(fx.teacher1.ID))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, env.Errors, "user_id")
	})

	t.Run("cross-school student rejected", func(t *testing.T) {
		rec, env := do(t, app, http.MethodPost, enrollPath, getToken(t, app, fx.admin), enrollBody(fx.student2.ID))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "the student and the course must belong to the same school", env.messageString(t))
	})

	t.Run("coordinator cannot enroll into other school's course", func(t *testing.T) {
		path := fmt.Sprintf("/v1/courses/%d/enroll", fx.course2.ID)
		rec, _ := do(t, app, http.MethodPost, path, coordToken, enrollBody(fx.student2.ID))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("teacher lacks enroll permission", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodPost, enrollPath, getToken(t, app, fx.teacher1), enrollBody(fx.student1.ID))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unenroll", func(t *testing.T) {
		path := fmt.Sprintf("/v1/courses/%d/unenroll/%d", fx.course1.ID, fx.student1.ID)
		rec, _ := do(t, app, http.MethodDelete, path, coordToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec, _ = do(t, app, http.MethodDelete, path, coordToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_enrollmentApi_listing(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	enr1 := enroll(t, app, fx.course1, fx.student1.ID)
	enr2 := enroll(t, app, fx.course2, fx.student2.ID)

	t.Run("student sees only own", func(t *testing.T) {
		// students have no view-enrollments permission; they use my-courses
		rec, _ := do(t, app, http.MethodGet, "/v1/enrollments", getToken(t, app, fx.student1), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("my-courses", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/my-courses", getToken(t, app, fx.student1), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var items []struct {
			Enrollment enrollment.Enrollment `json:"enrollment"`
			Course     struct {
				ID int `json:"id"`
			} `json:"course"`
		}
		decodePage(t, env, &items)
		require.Len(t, items, 1)
		assert.Equal(t, enr1.ID, items[0].Enrollment.ID)
		assert.Equal(t, fx.course1.ID, items[0].Course.ID)
	})

	t.Run("coordinator scoped to school", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/enrollments", getToken(t, app, fx.coord1), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var enrs []enrollment.Enrollment
		pg := decodePage(t, env, &enrs)
		require.Equal(t, 1, pg.Total)
		assert.Equal(t, enr1.ID, enrs[0].ID)
	})

	t.Run("by course", func(t *testing.T) {
		path := fmt.Sprintf("/v1/enrollments/course/%d", fx.course2.ID)
		rec, env := do(t, app, http.MethodGet, path, getToken(t, app, fx.admin), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var enrs []enrollment.Enrollment
		decodePage(t, env, &enrs)
		require.Len(t, enrs, 1)
		assert.Equal(t, enr2.ID, enrs[0].ID)
	})

	t.Run("by course outside school", func(t *testing.T) {
		path := fmt.Sprintf("/v1/enrollments/course/%d", fx.course2.ID)
		rec, _ := do(t, app, http.MethodGet, path, getToken(t, app, fx.coord1), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_enrollmentApi_listOrdering(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)
	now := time.Now().UTC()

	student1b := createUser(t, app, "student1e", "student", fx.school1.ID)
	mk := func(userID int, date time.Time) enrollment.Enrollment {
		enr, err := app.enrollmentSvc.Enroll(fx.course1, enrollment.EnrollStudent{
			UserID:         userID,
			AcademicYear:   "2025-2026",
			EnrollmentDate: date,
		})
		require.NoError(t, err)
		return enr
	}
	older := mk(fx.student1.ID, now.Add(-48*time.Hour))
	newer := mk(student1b.ID, now)

	rec, env := do(t, app, http.MethodGet, "/v1/enrollments", getToken(t, app, fx.coord1), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var enrs []enrollment.Enrollment
	decodePage(t, env, &enrs)
	require.Len(t, enrs, 2)
	// most recent enrollment date first
	assert.Equal(t, newer.ID, enrs[0].ID)
	assert.Equal(t, older.ID, enrs[1].ID)
}
