package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/subject"
)

type subjectRow struct {
	ID           int       `db:"id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	CourseID     int       `db:"course_id"`
	TeacherID    int       `db:"teacher_id"`
	SchoolID     int       `db:"school_id"`
	HoursPerWeek int       `db:"hours_per_week"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r subjectRow) toSubject() subject.Subject {
	return subject.Subject{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		CourseID:     r.CourseID,
		TeacherID:    r.TeacherID,
		SchoolID:     r.SchoolID,
		HoursPerWeek: r.HoursPerWeek,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type subjectRepository struct {
	db *sqlx.DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

var subjectOrdering = core.DBOrdering{Field: "name", Ascending: true}

func NewSubjectRepository(db *sqlx.DB) subject.Repository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) CreateSubject(sub subject.Subject) (subject.Subject, error) {
	q := `INSERT INTO subjects (name, description, course_id, teacher_id, school_id, hours_per_week, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := repo.db.QueryRow(
		q, sub.Name, sub.Description, sub.CourseID, sub.TeacherID, sub.SchoolID,
		sub.HoursPerWeek, sub.Status, sub.CreatedAt, sub.UpdatedAt,
	).Scan(&sub.ID)
	if err != nil {
		return subject.Subject{}, errors.Wrap(err, "creating subject")
	}
	return sub, nil
}

func (repo *subjectRepository) GetSubjectByID(id int) (subject.Subject, error) {
	var row subjectRow
	if err := repo.db.Get(&row, `SELECT * FROM subjects WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return subject.Subject{}, subject.ErrNotFound
		}
		return subject.Subject{}, errors.Wrap(err, "getting subject")
	}
	return row.toSubject(), nil
}

func (repo *subjectRepository) FilterSubjects(filter subject.QueryFilter, scope core.Scope, page core.Page) ([]subject.Subject, int, error) {
	var args queryArgs
	where := []string{"TRUE"}

	if scope.SchoolID != nil {
		where = append(where, `school_id = `+args.bind(*scope.SchoolID))
	}
	if scope.TeacherID != nil {
		where = append(where, `teacher_id = `+args.bind(*scope.TeacherID))
	}
	if filter.Search != "" {
		kw := args.bind("%" + filter.Search + "%")
		where = append(where, `(name ILIKE `+kw+` OR description ILIKE `+kw+`)`)
	}
	if filter.CourseID != nil {
		where = append(where, `course_id = `+args.bind(*filter.CourseID))
	}
	if filter.TeacherID != nil {
		where = append(where, `teacher_id = `+args.bind(*filter.TeacherID))
	}
	if filter.Status != "" {
		where = append(where, `status = `+args.bind(filter.Status))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := repo.db.Get(&total, `SELECT COUNT(*) FROM subjects WHERE `+cond, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting subjects")
	}

	q := `SELECT * FROM subjects WHERE ` + cond + ` ORDER BY ` + subjectOrdering.String() + ` LIMIT ` +
		args.bind(page.Size) + ` OFFSET ` + args.bind(page.Offset())
	var rows []subjectRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "filtering subjects")
	}

	subjects := make([]subject.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, row.toSubject())
	}
	return subjects, total, nil
}

func (repo *subjectRepository) UpdateSubject(sub subject.Subject) (subject.Subject, error) {
	q := `UPDATE subjects SET name = $1, description = $2, course_id = $3, teacher_id = $4, school_id = $5,
		hours_per_week = $6, status = $7, updated_at = $8
		WHERE id = $9
		RETURNING created_at`
	err := repo.db.QueryRow(
		q, sub.Name, sub.Description, sub.CourseID, sub.TeacherID, sub.SchoolID,
		sub.HoursPerWeek, sub.Status, sub.UpdatedAt, sub.ID,
	).Scan(&sub.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return subject.Subject{}, subject.ErrNotFound
		}
		return subject.Subject{}, errors.Wrap(err, "updating subject")
	}
	return sub, nil
}

func (repo *subjectRepository) CountSubjectGrades(id int) (int, error) {
	var count int
	if err := repo.db.Get(&count, `SELECT COUNT(*) FROM grades WHERE subject_id = $1`, id); err != nil {
		return 0, errors.Wrap(err, "counting subject grades")
	}
	return count, nil
}

// DeleteSubjectByID re-checks the grade count inside the transaction so the
// delete guard holds under concurrent grading.
func (repo *subjectRepository) DeleteSubjectByID(id int) error {
	tx, err := repo.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err = tx.Get(&count, `SELECT COUNT(*) FROM grades WHERE subject_id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	if count > 0 {
		return core.NewConflictError("cannot delete the subject because it has recorded grades")
	}

	res, err := tx.Exec(`DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.ErrNotFound
	}
	return errors.Wrap(tx.Commit(), "deleting subject")
}
