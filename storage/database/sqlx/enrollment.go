package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/enrollment"
)

type enrollmentRow struct {
	ID             int       `db:"id"`
	UserID         int       `db:"user_id"`
	CourseID       int       `db:"course_id"`
	SchoolID       int       `db:"school_id"`
	AcademicYear   string    `db:"academic_year"`
	EnrollmentDate time.Time `db:"enrollment_date"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r enrollmentRow) toEnrollment() enrollment.Enrollment {
	return enrollment.Enrollment{
		ID:             r.ID,
		UserID:         r.UserID,
		CourseID:       r.CourseID,
		SchoolID:       r.SchoolID,
		AcademicYear:   r.AcademicYear,
		EnrollmentDate: r.EnrollmentDate,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

var enrollmentOrdering = core.DBOrdering{Field: "enrollment_date"}

func NewEnrollmentRepository(db *sqlx.DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

// CreateEnrollment checks the (user, course, academic_year) uniqueness and
// inserts in one transaction; the unique index is the backstop against
// concurrent inserts.
func (repo *enrollmentRepository) CreateEnrollment(enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2 AND academic_year = $3)`
	if err = tx.Get(&exists, q, enr.UserID, enr.CourseID, enr.AcademicYear); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	if exists {
		return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
	}

	q = `INSERT INTO enrollments (user_id, course_id, school_id, academic_year, enrollment_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err = tx.QueryRow(
		q, enr.UserID, enr.CourseID, enr.SchoolID, enr.AcademicYear,
		enr.EnrollmentDate, enr.Status, enr.CreatedAt, enr.UpdatedAt,
	).Scan(&enr.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	if err = tx.Commit(); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollmentByID(id int) (enrollment.Enrollment, error) {
	var row enrollmentRow
	if err := repo.db.Get(&row, `SELECT * FROM enrollments WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo *enrollmentRepository) GetEnrollmentByCourseAndUser(courseID, userID int) (enrollment.Enrollment, error) {
	var row enrollmentRow
	q := `SELECT * FROM enrollments WHERE course_id = $1 AND user_id = $2 ORDER BY created_at DESC LIMIT 1`
	if err := repo.db.Get(&row, q, courseID, userID); err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo *enrollmentRepository) FilterEnrollments(filter enrollment.QueryFilter, scope core.Scope, page core.Page) ([]enrollment.Enrollment, int, error) {
	var args queryArgs
	where := []string{"TRUE"}

	if scope.SchoolID != nil {
		where = append(where, `school_id = `+args.bind(*scope.SchoolID))
	}
	if scope.UserID != nil {
		where = append(where, `user_id = `+args.bind(*scope.UserID))
	}
	if filter.CourseID != nil {
		where = append(where, `course_id = `+args.bind(*filter.CourseID))
	}
	if filter.UserID != nil {
		where = append(where, `user_id = `+args.bind(*filter.UserID))
	}
	if filter.AcademicYear != "" {
		where = append(where, `academic_year = `+args.bind(filter.AcademicYear))
	}
	if filter.Status != "" {
		where = append(where, `status = `+args.bind(filter.Status))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := repo.db.Get(&total, `SELECT COUNT(*) FROM enrollments WHERE `+cond, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting enrollments")
	}

	q := `SELECT * FROM enrollments WHERE ` + cond + ` ORDER BY ` + enrollmentOrdering.String() + ` LIMIT ` +
		args.bind(page.Size) + ` OFFSET ` + args.bind(page.Offset())
	var rows []enrollmentRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "filtering enrollments")
	}

	enrollments := make([]enrollment.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, row.toEnrollment())
	}
	return enrollments, total, nil
}

func (repo *enrollmentRepository) UpdateEnrollment(enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	q := `UPDATE enrollments SET user_id = $1, course_id = $2, school_id = $3, academic_year = $4,
		enrollment_date = $5, status = $6, updated_at = $7
		WHERE id = $8
		RETURNING created_at`
	err := repo.db.QueryRow(
		q, enr.UserID, enr.CourseID, enr.SchoolID, enr.AcademicYear,
		enr.EnrollmentDate, enr.Status, enr.UpdatedAt, enr.ID,
	).Scan(&enr.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		if isUniqueViolation(err) {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	return enr, nil
}

func (repo *enrollmentRepository) DeleteEnrollmentByID(id int) error {
	res, err := repo.db.Exec(`DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enrollment.ErrNotFound
	}
	return nil
}
