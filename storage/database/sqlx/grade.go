package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/grade"
)

type gradeRow struct {
	ID         int       `db:"id"`
	UserID     int       `db:"user_id"`
	SubjectID  int       `db:"subject_id"`
	SchoolID   int       `db:"school_id"`
	Evaluation int       `db:"evaluation"`
	Grade      float64   `db:"grade"`
	Comments   string    `db:"comments"`
	GradeDate  time.Time `db:"grade_date"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r gradeRow) toGrade() grade.Grade {
	return grade.Grade{
		ID:         r.ID,
		UserID:     r.UserID,
		SubjectID:  r.SubjectID,
		SchoolID:   r.SchoolID,
		Evaluation: r.Evaluation,
		Grade:      r.Grade,
		Comments:   r.Comments,
		GradeDate:  r.GradeDate,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

var gradeOrdering = core.DBOrdering{Field: "g.grade_date"}

func NewGradeRepository(db *sqlx.DB) grade.Repository {
	return &gradeRepository{db: db}
}

// CreateGrade checks the (user, subject, evaluation) uniqueness and inserts
// in one transaction; the unique index is the backstop against concurrent
// inserts.
func (repo *gradeRepository) CreateGrade(g grade.Grade) (grade.Grade, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "creating grade")
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM grades WHERE user_id = $1 AND subject_id = $2 AND evaluation = $3)`
	if err = tx.Get(&exists, q, g.UserID, g.SubjectID, g.Evaluation); err != nil {
		return grade.Grade{}, errors.Wrap(err, "creating grade")
	}
	if exists {
		return grade.Grade{}, grade.ErrDuplicate
	}

	q = `INSERT INTO grades (user_id, subject_id, school_id, evaluation, grade, comments, grade_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err = tx.QueryRow(
		q, g.UserID, g.SubjectID, g.SchoolID, g.Evaluation, g.Grade,
		g.Comments, g.GradeDate, g.CreatedAt, g.UpdatedAt,
	).Scan(&g.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return grade.Grade{}, grade.ErrDuplicate
		}
		return grade.Grade{}, errors.Wrap(err, "creating grade")
	}
	if err = tx.Commit(); err != nil {
		return grade.Grade{}, errors.Wrap(err, "creating grade")
	}
	return g, nil
}

func (repo *gradeRepository) GetGradeByID(id int) (grade.Grade, error) {
	var row gradeRow
	if err := repo.db.Get(&row, `SELECT * FROM grades WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return grade.Grade{}, grade.ErrNotFound
		}
		return grade.Grade{}, errors.Wrap(err, "getting grade")
	}
	return row.toGrade(), nil
}

func (repo *gradeRepository) FilterGrades(filter grade.QueryFilter, scope core.Scope, page core.Page) ([]grade.Grade, int, error) {
	var args queryArgs
	where := []string{"TRUE"}
	// the teacher scope and the academic year filter reach through the
	// subject (and its course)
	join := ""
	if scope.TeacherID != nil || filter.AcademicYear != "" {
		join = ` JOIN subjects s ON s.id = g.subject_id`
	}
	if filter.AcademicYear != "" {
		join += ` JOIN courses c ON c.id = s.course_id`
	}

	if scope.SchoolID != nil {
		where = append(where, `g.school_id = `+args.bind(*scope.SchoolID))
	}
	if scope.TeacherID != nil {
		where = append(where, `s.teacher_id = `+args.bind(*scope.TeacherID))
	}
	if scope.UserID != nil {
		where = append(where, `g.user_id = `+args.bind(*scope.UserID))
	}
	if filter.UserID != nil {
		where = append(where, `g.user_id = `+args.bind(*filter.UserID))
	}
	if filter.SubjectID != nil {
		where = append(where, `g.subject_id = `+args.bind(*filter.SubjectID))
	}
	if filter.Evaluation != nil {
		where = append(where, `g.evaluation = `+args.bind(*filter.Evaluation))
	}
	if filter.AcademicYear != "" {
		where = append(where, `c.academic_year = `+args.bind(filter.AcademicYear))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := repo.db.Get(&total, `SELECT COUNT(*) FROM grades g`+join+` WHERE `+cond, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting grades")
	}

	q := `SELECT g.* FROM grades g` + join + ` WHERE ` + cond + ` ORDER BY ` + gradeOrdering.String() + ` LIMIT ` +
		args.bind(page.Size) + ` OFFSET ` + args.bind(page.Offset())
	var rows []gradeRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "filtering grades")
	}

	grades := make([]grade.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, row.toGrade())
	}
	return grades, total, nil
}

func (repo *gradeRepository) GradesByStudent(userID int) ([]grade.Grade, error) {
	var rows []gradeRow
	q := `SELECT * FROM grades WHERE user_id = $1 ORDER BY evaluation, subject_id`
	if err := repo.db.Select(&rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "getting student grades")
	}
	grades := make([]grade.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, row.toGrade())
	}
	return grades, nil
}

func (repo *gradeRepository) GradesBySubject(subjectID int) ([]grade.Grade, error) {
	var rows []gradeRow
	q := `SELECT * FROM grades WHERE subject_id = $1 ORDER BY evaluation, user_id`
	if err := repo.db.Select(&rows, q, subjectID); err != nil {
		return nil, errors.Wrap(err, "getting subject grades")
	}
	grades := make([]grade.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, row.toGrade())
	}
	return grades, nil
}

func (repo *gradeRepository) UpdateGrade(g grade.Grade) (grade.Grade, error) {
	q := `UPDATE grades SET user_id = $1, subject_id = $2, school_id = $3, evaluation = $4, grade = $5,
		comments = $6, grade_date = $7, updated_at = $8
		WHERE id = $9
		RETURNING created_at`
	err := repo.db.QueryRow(
		q, g.UserID, g.SubjectID, g.SchoolID, g.Evaluation, g.Grade,
		g.Comments, g.GradeDate, g.UpdatedAt, g.ID,
	).Scan(&g.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return grade.Grade{}, grade.ErrNotFound
		}
		if isUniqueViolation(err) {
			return grade.Grade{}, grade.ErrDuplicate
		}
		return grade.Grade{}, errors.Wrap(err, "updating grade")
	}
	return g, nil
}

func (repo *gradeRepository) DeleteGradeByID(id int) error {
	res, err := repo.db.Exec(`DELETE FROM grades WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return grade.ErrNotFound
	}
	return nil
}
