package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/report"
)

type reportRow struct {
	ID                   int           `db:"id"`
	TeacherID            int           `db:"teacher_id"`
	CoordinatorID        sql.NullInt64 `db:"coordinator_id"`
	SchoolID             int           `db:"school_id"`
	Title                string        `db:"title"`
	ClassProgress        string        `db:"class_progress"`
	StudentParticipation string        `db:"student_participation"`
	Incidents            string        `db:"incidents"`
	NextActivities       string        `db:"next_activities"`
	Date                 time.Time     `db:"date"`
	Priority             string        `db:"priority"`
	Status               string        `db:"status"`
	CreatedAt            time.Time     `db:"created_at"`
	UpdatedAt            time.Time     `db:"updated_at"`
}

func (r reportRow) toReport() report.Report {
	rpt := report.Report{
		ID:                   r.ID,
		TeacherID:            r.TeacherID,
		SchoolID:             r.SchoolID,
		Title:                r.Title,
		ClassProgress:        r.ClassProgress,
		StudentParticipation: r.StudentParticipation,
		Incidents:            r.Incidents,
		NextActivities:       r.NextActivities,
		Date:                 r.Date,
		Priority:             r.Priority,
		Status:               r.Status,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	if r.CoordinatorID.Valid {
		coordID := int(r.CoordinatorID.Int64)
		rpt.CoordinatorID = &coordID
	}
	return rpt
}

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

var reportOrdering = core.DBOrdering{Field: "date"}

func NewReportRepository(db *sqlx.DB) report.Repository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) CreateReport(rpt report.Report) (report.Report, error) {
	q := `INSERT INTO reports (teacher_id, school_id, title, class_progress, student_participation, incidents, next_activities, date, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	err := repo.db.QueryRow(
		q, rpt.TeacherID, rpt.SchoolID, rpt.Title, rpt.ClassProgress, rpt.StudentParticipation,
		rpt.Incidents, rpt.NextActivities, rpt.Date, rpt.Priority, rpt.Status,
		rpt.CreatedAt, rpt.UpdatedAt,
	).Scan(&rpt.ID)
	if err != nil {
		return report.Report{}, errors.Wrap(err, "creating report")
	}
	return rpt, nil
}

func (repo *reportRepository) GetReportByID(id int) (report.Report, error) {
	var row reportRow
	if err := repo.db.Get(&row, `SELECT * FROM reports WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return report.Report{}, report.ErrNotFound
		}
		return report.Report{}, errors.Wrap(err, "getting report")
	}
	return row.toReport(), nil
}

func (repo *reportRepository) FilterReports(filter report.QueryFilter, scope core.Scope, page core.Page) ([]report.Report, int, error) {
	var args queryArgs
	where := []string{"TRUE"}

	if scope.SchoolID != nil {
		where = append(where, `school_id = `+args.bind(*scope.SchoolID))
	}
	if scope.TeacherID != nil {
		where = append(where, `teacher_id = `+args.bind(*scope.TeacherID))
	}
	if filter.Priority != "" {
		where = append(where, `priority = `+args.bind(filter.Priority))
	}
	if filter.Status != "" {
		where = append(where, `status = `+args.bind(filter.Status))
	}
	if filter.From != nil {
		where = append(where, `date >= `+args.bind(*filter.From))
	}
	if filter.To != nil {
		where = append(where, `date <= `+args.bind(*filter.To))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := repo.db.Get(&total, `SELECT COUNT(*) FROM reports WHERE `+cond, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting reports")
	}

	q := `SELECT * FROM reports WHERE ` + cond + ` ORDER BY ` + reportOrdering.String() + ` LIMIT ` +
		args.bind(page.Size) + ` OFFSET ` + args.bind(page.Offset())
	var rows []reportRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "filtering reports")
	}

	reports := make([]report.Report, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, row.toReport())
	}
	return reports, total, nil
}

func (repo *reportRepository) MarkReportRead(id, coordinatorID int) (report.Report, error) {
	q := `UPDATE reports SET status = $1, coordinator_id = $2, updated_at = $3 WHERE id = $4`
	res, err := repo.db.Exec(q, report.StatusRead, coordinatorID, time.Now().UTC(), id)
	if err != nil {
		return report.Report{}, errors.Wrap(err, "marking report read")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return report.Report{}, report.ErrNotFound
	}
	return repo.GetReportByID(id)
}

func (repo *reportRepository) DeleteReportByID(id int) error {
	res, err := repo.db.Exec(`DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting report")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return report.ErrNotFound
	}
	return nil
}
