package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/course"
)

type courseRow struct {
	ID           int          `db:"id"`
	Name         string       `db:"name"`
	Description  string       `db:"description"`
	Location     string       `db:"location"`
	AcademicYear string       `db:"academic_year"`
	StartDate    time.Time    `db:"start_date"`
	EndDate      sql.NullTime `db:"end_date"`
	TeacherID    int          `db:"teacher_id"`
	CoordID      int          `db:"coord_id"`
	SchoolID     int          `db:"school_id"`
	Status       string       `db:"status"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r courseRow) toCourse() course.Course {
	crs := course.Course{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Location:     r.Location,
		AcademicYear: r.AcademicYear,
		StartDate:    r.StartDate,
		TeacherID:    r.TeacherID,
		CoordID:      r.CoordID,
		SchoolID:     r.SchoolID,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.EndDate.Valid {
		end := r.EndDate.Time
		crs.EndDate = &end
	}
	return crs
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

var courseOrdering = core.DBOrdering{Field: "start_date"}

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(crs course.Course) (course.Course, error) {
	q := `INSERT INTO courses (name, description, location, academic_year, start_date, end_date, teacher_id, coord_id, school_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	err := repo.db.QueryRow(
		q, crs.Name, crs.Description, crs.Location, crs.AcademicYear, crs.StartDate,
		nullTime(crs.EndDate), crs.TeacherID, crs.CoordID, crs.SchoolID, crs.Status,
		crs.CreatedAt, crs.UpdatedAt,
	).Scan(&crs.ID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(id int) (course.Course, error) {
	var row courseRow
	if err := repo.db.Get(&row, `SELECT * FROM courses WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) FilterCourses(filter course.QueryFilter, scope core.Scope, page core.Page) ([]course.Course, int, error) {
	var args queryArgs
	where := []string{"TRUE"}

	if scope.SchoolID != nil {
		where = append(where, `school_id = `+args.bind(*scope.SchoolID))
	}
	if filter.Search != "" {
		kw := args.bind("%" + filter.Search + "%")
		where = append(where, `(name ILIKE `+kw+` OR description ILIKE `+kw+` OR location ILIKE `+kw+`)`)
	}
	if filter.AcademicYear != "" {
		where = append(where, `academic_year = `+args.bind(filter.AcademicYear))
	}
	if filter.Status != "" {
		where = append(where, `status = `+args.bind(filter.Status))
	}
	if filter.TeacherID != nil {
		where = append(where, `teacher_id = `+args.bind(*filter.TeacherID))
	}
	if filter.CoordID != nil {
		where = append(where, `coord_id = `+args.bind(*filter.CoordID))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := repo.db.Get(&total, `SELECT COUNT(*) FROM courses WHERE `+cond, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting courses")
	}

	q := `SELECT * FROM courses WHERE ` + cond + ` ORDER BY ` + courseOrdering.String() + ` LIMIT ` +
		args.bind(page.Size) + ` OFFSET ` + args.bind(page.Offset())
	var rows []courseRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "filtering courses")
	}

	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toCourse())
	}
	return courses, total, nil
}

func (repo *courseRepository) UpdateCourse(crs course.Course) (course.Course, error) {
	q := `UPDATE courses SET name = $1, description = $2, location = $3, academic_year = $4, start_date = $5,
		end_date = $6, teacher_id = $7, coord_id = $8, school_id = $9, status = $10, updated_at = $11
		WHERE id = $12
		RETURNING created_at`
	err := repo.db.QueryRow(
		q, crs.Name, crs.Description, crs.Location, crs.AcademicYear, crs.StartDate,
		nullTime(crs.EndDate), crs.TeacherID, crs.CoordID, crs.SchoolID, crs.Status,
		crs.UpdatedAt, crs.ID,
	).Scan(&crs.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	return crs, nil
}

func (repo *courseRepository) CountCourseEnrollments(id int) (int, error) {
	var count int
	if err := repo.db.Get(&count, `SELECT COUNT(*) FROM enrollments WHERE course_id = $1`, id); err != nil {
		return 0, errors.Wrap(err, "counting course enrollments")
	}
	return count, nil
}

// DeleteCourseByID re-checks the enrollment count inside the transaction so
// the delete guard holds under concurrent enrollment.
func (repo *courseRepository) DeleteCourseByID(id int) error {
	tx, err := repo.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err = tx.Get(&count, `SELECT COUNT(*) FROM enrollments WHERE course_id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if count > 0 {
		return core.NewConflictError("cannot delete the course because it has enrolled students")
	}

	res, err := tx.Exec(`DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotFound
	}
	return errors.Wrap(tx.Commit(), "deleting course")
}
