package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegiohq/backend/core/stats"
	"github.com/colegiohq/backend/core/user"
)

func Test_statsApi_dashboard(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	enroll(t, app, fx.course1, fx.student1.ID)
	createGrade(t, app, fx.student1.ID, fx.subject1.ID, fx.school1.ID, 1, 8)
	createGrade(t, app, fx.student2.ID, fx.subject2.ID, fx.school2.ID, 1, 6)

	dashboard := func(t *testing.T, usr user.User) stats.DashboardStats {
		t.Helper()
		rec, env := do(t, app, http.MethodGet, "/v1/dashboard/stats", getToken(t, app, usr), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var ds stats.DashboardStats
		decodeData(t, env, &ds)
		return ds
	}

	t.Run("teacher", func(t *testing.T) {
		ds := dashboard(t, fx.teacher1)
		// students of the school, then courses/subjects/grades through
		// assigned subjects
		assert.Equal(t, 1, ds.TotalUsers)
		assert.Equal(t, 1, ds.TotalCourses)
		assert.Equal(t, 1, ds.TotalSubjects)
		assert.Equal(t, 1, ds.TotalGrades)
	})

	t.Run("student", func(t *testing.T) {
		ds := dashboard(t, fx.student1)
		assert.Equal(t, 1, ds.TotalUsers)
		assert.Equal(t, 1, ds.TotalCourses)
		assert.Equal(t, 1, ds.TotalSubjects)
		assert.Equal(t, 1, ds.TotalGrades)
	})

	t.Run("coordinator", func(t *testing.T) {
		ds := dashboard(t, fx.coord1)
		assert.Equal(t, 1, ds.TotalUsers)
		assert.Equal(t, 1, ds.TotalCourses)
		assert.Equal(t, 1, ds.TotalSubjects)
		assert.Equal(t, 1, ds.TotalGrades)
	})

	t.Run("admin counts everything", func(t *testing.T) {
		ds := dashboard(t, fx.admin)
		assert.Equal(t, 7, ds.TotalUsers)
		assert.Equal(t, 2, ds.TotalCourses)
		assert.Equal(t, 2, ds.TotalSubjects)
		assert.Equal(t, 2, ds.TotalGrades)
	})
}

func Test_statsApi_statistics(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	createGrade(t, app, fx.student1.ID, fx.subject1.ID, fx.school1.ID, 1, 8)
	createGrade(t, app, fx.student2.ID, fx.subject2.ID, fx.school2.ID, 1, 5)

	t.Run("admin only", func(t *testing.T) {
		for _, usr := range []user.User{fx.coord1, fx.teacher1, fx.student1} {
			rec, _ := do(t, app, http.MethodGet, "/v1/statistics", getToken(t, app, usr), nil)
			assert.Equal(t, http.StatusForbidden, rec.Code)
		}
	})

	t.Run("global aggregate", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/statistics", getToken(t, app, fx.admin), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var st stats.Statistics
		decodeData(t, env, &st)

		assert.Equal(t, 7, st.Totals.Users)
		assert.Equal(t, 2, st.Totals.Courses)
		assert.Equal(t, 2, st.Totals.Subjects)
		assert.Equal(t, 2, st.Totals.Grades)
		assert.Equal(t, 6.5, st.Totals.AvgGrade)
		assert.Equal(t, 2, st.Roles[user.RoleCoordinator])
		assert.Equal(t, 2, st.Courses.Active)
		require.Len(t, st.Schools, 2)
		// ordered by name
		assert.Equal(t, "North", st.Schools[0].Name)
		assert.Equal(t, "South", st.Schools[1].Name)
		assert.False(t, st.GeneratedAt.IsZero())
	})
}
