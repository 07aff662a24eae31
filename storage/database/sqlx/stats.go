package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/course"
	"github.com/colegiohq/backend/core/stats"
	"github.com/colegiohq/backend/core/user"
)

type statsRepository struct {
	db *sqlx.DB
}

var _ stats.Repository = (*statsRepository)(nil) // interface compliance check

func NewStatsRepository(db *sqlx.DB) stats.Repository {
	return &statsRepository{db: db}
}

func (repo *statsRepository) count(table string, scope core.Scope) (int, error) {
	var args queryArgs
	q := `SELECT COUNT(*) FROM ` + table + ` WHERE TRUE`
	if scope.SchoolID != nil {
		q += ` AND school_id = ` + args.bind(*scope.SchoolID)
	}

	var count int
	if err := repo.db.Get(&count, q, args...); err != nil {
		return 0, errors.Wrapf(err, "counting %s", table)
	}
	return count, nil
}

func (repo *statsRepository) CountEntities(scope core.Scope) (stats.DashboardStats, error) {
	var (
		ds  stats.DashboardStats
		err error
	)
	if ds.TotalUsers, err = repo.count("users", scope); err != nil {
		return stats.DashboardStats{}, err
	}
	if ds.TotalCourses, err = repo.count("courses", scope); err != nil {
		return stats.DashboardStats{}, err
	}
	if ds.TotalSubjects, err = repo.count("subjects", scope); err != nil {
		return stats.DashboardStats{}, err
	}
	if ds.TotalGrades, err = repo.count("grades", scope); err != nil {
		return stats.DashboardStats{}, err
	}
	return ds, nil
}

func (repo *statsRepository) TeacherDashboard(teacherID, schoolID int) (stats.DashboardStats, error) {
	var ds stats.DashboardStats
	queries := []struct {
		dst  *int
		q    string
		args []interface{}
	}{
		{&ds.TotalUsers, `SELECT COUNT(*) FROM users WHERE school_id = $1 AND role = $2`, []interface{}{schoolID, user.RoleStudent}},
		{&ds.TotalCourses, `SELECT COUNT(DISTINCT course_id) FROM subjects WHERE teacher_id = $1`, []interface{}{teacherID}},
		{&ds.TotalSubjects, `SELECT COUNT(*) FROM subjects WHERE teacher_id = $1`, []interface{}{teacherID}},
		{&ds.TotalGrades, `SELECT COUNT(*) FROM grades g JOIN subjects s ON s.id = g.subject_id WHERE s.teacher_id = $1`, []interface{}{teacherID}},
	}
	for _, qry := range queries {
		if err := repo.db.Get(qry.dst, qry.q, qry.args...); err != nil {
			return stats.DashboardStats{}, errors.Wrap(err, "building teacher dashboard")
		}
	}
	return ds, nil
}

func (repo *statsRepository) StudentDashboard(userID int) (stats.DashboardStats, error) {
	ds := stats.DashboardStats{TotalUsers: 1}
	queries := []struct {
		dst *int
		q   string
	}{
		{&ds.TotalCourses, `SELECT COUNT(*) FROM enrollments WHERE user_id = $1`},
		{&ds.TotalSubjects, `SELECT COUNT(DISTINCT s.id) FROM subjects s JOIN enrollments e ON e.course_id = s.course_id WHERE e.user_id = $1`},
		{&ds.TotalGrades, `SELECT COUNT(*) FROM grades WHERE user_id = $1`},
	}
	for _, qry := range queries {
		if err := repo.db.Get(qry.dst, qry.q, userID); err != nil {
			return stats.DashboardStats{}, errors.Wrap(err, "building student dashboard")
		}
	}
	return ds, nil
}

func (repo *statsRepository) CoordinatorDashboard(coordID, schoolID int) (stats.DashboardStats, error) {
	var ds stats.DashboardStats
	queries := []struct {
		dst *int
		q   string
	}{
		{&ds.TotalUsers, `SELECT COUNT(DISTINCT e.user_id) FROM enrollments e JOIN courses c ON c.id = e.course_id WHERE c.coord_id = $1`},
		{&ds.TotalCourses, `SELECT COUNT(*) FROM courses WHERE coord_id = $1`},
		{&ds.TotalSubjects, `SELECT COUNT(*) FROM subjects s JOIN courses c ON c.id = s.course_id WHERE c.coord_id = $1`},
		{&ds.TotalGrades, `SELECT COUNT(*) FROM grades g JOIN subjects s ON s.id = g.subject_id JOIN courses c ON c.id = s.course_id WHERE c.coord_id = $1`},
	}
	for _, qry := range queries {
		if err := repo.db.Get(qry.dst, qry.q, coordID); err != nil {
			return stats.DashboardStats{}, errors.Wrap(err, "building coordinator dashboard")
		}
	}
	return ds, nil
}

func (repo *statsRepository) GlobalStatistics() (stats.Statistics, error) {
	var st stats.Statistics

	all := core.Scope{}
	ds, err := repo.CountEntities(all)
	if err != nil {
		return stats.Statistics{}, err
	}
	st.Totals.Users = ds.TotalUsers
	st.Totals.Courses = ds.TotalCourses
	st.Totals.Subjects = ds.TotalSubjects
	st.Totals.Grades = ds.TotalGrades

	var avg sql.NullFloat64
	if err = repo.db.Get(&avg, `SELECT ROUND(AVG(grade), 2) FROM grades`); err != nil {
		return stats.Statistics{}, errors.Wrap(err, "averaging grades")
	}
	if avg.Valid {
		st.Totals.AvgGrade = avg.Float64
	}

	st.Roles = make(map[string]int, len(user.AllRoles))
	for _, role := range user.AllRoles {
		var count int
		if err = repo.db.Get(&count, `SELECT COUNT(*) FROM users WHERE role = $1`, role); err != nil {
			return stats.Statistics{}, errors.Wrap(err, "counting roles")
		}
		st.Roles[role] = count
	}

	rows, err := repo.db.Query(`SELECT status, COUNT(*) FROM courses GROUP BY status`)
	if err != nil {
		return stats.Statistics{}, errors.Wrap(err, "counting course statuses")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err = rows.Scan(&status, &count); err != nil {
			return stats.Statistics{}, errors.Wrap(err, "counting course statuses")
		}
		switch status {
		case course.StatusActive:
			st.Courses.Active = count
		case course.StatusInactive:
			st.Courses.Inactive = count
		case course.StatusCompleted:
			st.Courses.Completed = count
		}
	}
	if err = rows.Err(); err != nil {
		return stats.Statistics{}, errors.Wrap(err, "counting course statuses")
	}

	q := `SELECT s.id, s.name, s.full_name,
			(SELECT COUNT(*) FROM users u WHERE u.school_id = s.id) AS users,
			(SELECT COUNT(*) FROM courses c WHERE c.school_id = s.id) AS courses,
			(SELECT COUNT(*) FROM subjects sb WHERE sb.school_id = s.id) AS subjects
		FROM schools s ORDER BY s.name`
	var summaries []stats.SchoolSummary
	if err = repo.db.Select(&summaries, q); err != nil {
		return stats.Statistics{}, errors.Wrap(err, "summarizing schools")
	}
	st.Schools = summaries
	return st, nil
}
