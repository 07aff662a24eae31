package dummydb

import (
	"sort"
	"strings"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) query() []course.Course {
	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses
}

func (repo *courseRepository) CreateCourse(crs course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	crs.ID = repo.db.nextID()
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(id int) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) FilterCourses(filter course.QueryFilter, scope core.Scope, page core.Page) ([]course.Course, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	matches := func(crs course.Course) bool {
		if scope.SchoolID != nil && crs.SchoolID != *scope.SchoolID {
			return false
		}
		if filter.Search != "" {
			kw := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(crs.Name), kw) &&
				!strings.Contains(strings.ToLower(crs.Description), kw) &&
				!strings.Contains(strings.ToLower(crs.Location), kw) {
				return false
			}
		}
		if filter.AcademicYear != "" && crs.AcademicYear != filter.AcademicYear {
			return false
		}
		if filter.Status != "" && crs.Status != filter.Status {
			return false
		}
		if filter.TeacherID != nil && crs.TeacherID != *filter.TeacherID {
			return false
		}
		if filter.CoordID != nil && crs.CoordID != *filter.CoordID {
			return false
		}
		return true
	}

	var courses []course.Course
	for _, crs := range repo.query() {
		if matches(crs) {
			courses = append(courses, crs)
		}
	}
	sort.Slice(courses, func(i, j int) bool {
		if !courses[i].StartDate.Equal(courses[j].StartDate) {
			return courses[i].StartDate.After(courses[j].StartDate)
		}
		return courses[i].ID > courses[j].ID
	})

	total := len(courses)
	start, end := paginate(total, page.Offset(), page.Size)
	return courses[start:end], total, nil
}

func (repo *courseRepository) UpdateCourse(crs course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.courses[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	crs.CreatedAt = orig.CreatedAt
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) CountCourseEnrollments(id int) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.countCourseEnrollments(id), nil
}

func (repo *courseRepository) DeleteCourseByID(id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return course.ErrNotFound
	}
	// re-check the guard under the write lock
	if repo.db.countCourseEnrollments(id) > 0 {
		return core.NewConflictError("cannot delete the course because it has enrolled students")
	}
	delete(repo.db.courses, id)
	return nil
}

// countCourseEnrollments must be called with a lock held.
func (db *DB) countCourseEnrollments(courseID int) int {
	count := 0
	for _, enr := range db.enrollments {
		if enr.CourseID == courseID {
			count++
		}
	}
	return count
}
