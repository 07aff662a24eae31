package dummydb

import (
	"sort"
	"time"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/report"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) query() []report.Report {
	reports := make([]report.Report, 0, len(repo.db.reports))
	for _, rpt := range repo.db.reports {
		reports = append(reports, *rpt)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ID < reports[j].ID })
	return reports
}

func (repo *reportRepository) CreateReport(rpt report.Report) (report.Report, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rpt.ID = repo.db.nextID()
	repo.db.reports[rpt.ID] = &rpt
	return rpt, nil
}

func (repo *reportRepository) GetReportByID(id int) (report.Report, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if rpt, ok := repo.db.reports[id]; ok {
		return *rpt, nil
	}
	return report.Report{}, report.ErrNotFound
}

func (repo *reportRepository) FilterReports(filter report.QueryFilter, scope core.Scope, page core.Page) ([]report.Report, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	matches := func(rpt report.Report) bool {
		if scope.SchoolID != nil && rpt.SchoolID != *scope.SchoolID {
			return false
		}
		if scope.TeacherID != nil && rpt.TeacherID != *scope.TeacherID {
			return false
		}
		if filter.Priority != "" && rpt.Priority != filter.Priority {
			return false
		}
		if filter.Status != "" && rpt.Status != filter.Status {
			return false
		}
		if filter.From != nil && rpt.Date.Before(*filter.From) {
			return false
		}
		if filter.To != nil && rpt.Date.After(*filter.To) {
			return false
		}
		return true
	}

	var reports []report.Report
	for _, rpt := range repo.query() {
		if matches(rpt) {
			reports = append(reports, rpt)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Date.After(reports[j].Date) })

	total := len(reports)
	start, end := paginate(total, page.Offset(), page.Size)
	return reports[start:end], total, nil
}

func (repo *reportRepository) MarkReportRead(id, coordinatorID int) (report.Report, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rpt, ok := repo.db.reports[id]
	if !ok {
		return report.Report{}, report.ErrNotFound
	}
	rpt.Status = report.StatusRead
	rpt.CoordinatorID = &coordinatorID
	rpt.UpdatedAt = time.Now().UTC()
	return *rpt, nil
}

func (repo *reportRepository) DeleteReportByID(id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.reports[id]; !ok {
		return report.ErrNotFound
	}
	delete(repo.db.reports, id)
	return nil
}
