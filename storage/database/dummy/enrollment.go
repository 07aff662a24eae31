package dummydb

import (
	"sort"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/enrollment"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) query() []enrollment.Enrollment {
	enrollments := make([]enrollment.Enrollment, 0, len(repo.db.enrollments))
	for _, enr := range repo.db.enrollments {
		enrollments = append(enrollments, *enr)
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].ID < enrollments[j].ID })
	return enrollments
}

func (repo *enrollmentRepository) CreateEnrollment(enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	// uniqueness check and insert under the same lock
	for _, existing := range repo.db.enrollments {
		if existing.UserID == enr.UserID && existing.CourseID == enr.CourseID &&
			existing.AcademicYear == enr.AcademicYear {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
	}

	enr.ID = repo.db.nextID()
	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollmentByID(id int) (enrollment.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if enr, ok := repo.db.enrollments[id]; ok {
		return *enr, nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) GetEnrollmentByCourseAndUser(courseID, userID int) (enrollment.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, enr := range repo.query() {
		if enr.CourseID == courseID && enr.UserID == userID {
			return enr, nil
		}
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) FilterEnrollments(filter enrollment.QueryFilter, scope core.Scope, page core.Page) ([]enrollment.Enrollment, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	matches := func(enr enrollment.Enrollment) bool {
		if scope.SchoolID != nil && enr.SchoolID != *scope.SchoolID {
			return false
		}
		if scope.UserID != nil && enr.UserID != *scope.UserID {
			return false
		}
		if filter.CourseID != nil && enr.CourseID != *filter.CourseID {
			return false
		}
		if filter.UserID != nil && enr.UserID != *filter.UserID {
			return false
		}
		if filter.AcademicYear != "" && enr.AcademicYear != filter.AcademicYear {
			return false
		}
		if filter.Status != "" && enr.Status != filter.Status {
			return false
		}
		return true
	}

	var enrollments []enrollment.Enrollment
	for _, enr := range repo.query() {
		if matches(enr) {
			enrollments = append(enrollments, enr)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool {
		if !enrollments[i].EnrollmentDate.Equal(enrollments[j].EnrollmentDate) {
			return enrollments[i].EnrollmentDate.After(enrollments[j].EnrollmentDate)
		}
		return enrollments[i].ID > enrollments[j].ID
	})

	total := len(enrollments)
	start, end := paginate(total, page.Offset(), page.Size)
	return enrollments[start:end], total, nil
}

func (repo *enrollmentRepository) UpdateEnrollment(enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.enrollments[enr.ID]
	if !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	for _, existing := range repo.db.enrollments {
		if existing.ID != enr.ID && existing.UserID == enr.UserID &&
			existing.CourseID == enr.CourseID && existing.AcademicYear == enr.AcademicYear {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
	}
	enr.CreatedAt = orig.CreatedAt
	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *enrollmentRepository) DeleteEnrollmentByID(id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.enrollments[id]; !ok {
		return enrollment.ErrNotFound
	}
	delete(repo.db.enrollments, id)
	return nil
}
