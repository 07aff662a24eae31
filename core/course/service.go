package course

import (
	"time"

	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/user"
)

var (
	ErrNotFound = errors.New("course not found")

	errHasEnrollments = "cannot delete the course because it has enrolled students"
)

type (
	Repository interface {
		CreateCourse(crs Course) (Course, error)
		GetCourseByID(id int) (Course, error)
		// FilterCourses ANDs the tenant scope with the available QueryFilter
		// fields. QueryFilter.Search does a case-insensitive match on one of
		// Course.Name, Course.Description or Course.Location.
		FilterCourses(filter QueryFilter, scope core.Scope, page core.Page) ([]Course, int, error)
		UpdateCourse(crs Course) (Course, error)
		CountCourseEnrollments(id int) (int, error)
		// DeleteCourseByID must re-check the enrollment count and delete
		// within a single transaction.
		DeleteCourseByID(id int) error
	}

	// UserDirectory resolves staff referenced by a course.
	UserDirectory interface {
		GetByID(id int) (user.User, error)
	}

	Service struct {
		repo  Repository
		users UserDirectory
	}
)

func NewService(repo Repository, users UserDirectory) *Service {
	return &Service{repo: repo, users: users}
}

// checkStaff verifies that the referenced teacher and coordinator exist and
// belong to the course's school. The student/course same-school rule already
// holds for enrollments; courses get the equivalent check for their staff.
func (svc *Service) checkStaff(schoolID, teacherID, coordID int) error {
	teacher, err := svc.users.GetByID(teacherID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "teacher_id", Error: "teacher not found"})
		}
		return err
	}
	if teacher.SchoolID != schoolID {
		return core.NewValidationError(nil, core.FieldError{
			Field: "teacher_id", Error: "the teacher must belong to the course's school",
		})
	}

	coord, err := svc.users.GetByID(coordID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "coord_id", Error: "coordinator not found"})
		}
		return err
	}
	if coord.SchoolID != schoolID {
		return core.NewValidationError(nil, core.FieldError{
			Field: "coord_id", Error: "the coordinator must belong to the course's school",
		})
	}
	return nil
}

func (svc *Service) Create(nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Name:         nc.Name,
		Description:  nc.Description,
		Location:     nc.Location,
		AcademicYear: nc.AcademicYear,
		StartDate:    nc.StartDate,
		EndDate:      nc.EndDate,
		TeacherID:    nc.TeacherID,
		CoordID:      nc.CoordID,
		SchoolID:     nc.SchoolID,
		Status:       nc.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateCourse(crs)
}

func (svc *Service) GetByID(id int) (Course, error) {
	return svc.repo.GetCourseByID(id)
}

func (svc *Service) Filter(filter QueryFilter, scope core.Scope, page core.Page) ([]Course, int, error) {
	return svc.repo.FilterCourses(filter, scope, page)
}

func (svc *Service) Update(id int, nc NewCourse) (Course, error) {
	crs := Course{
		ID:           id,
		Name:         nc.Name,
		Description:  nc.Description,
		Location:     nc.Location,
		AcademicYear: nc.AcademicYear,
		StartDate:    nc.StartDate,
		EndDate:      nc.EndDate,
		TeacherID:    nc.TeacherID,
		CoordID:      nc.CoordID,
		SchoolID:     nc.SchoolID,
		Status:       nc.Status,
		UpdatedAt:    time.Now().UTC(),
	}
	return svc.repo.UpdateCourse(crs)
}

func (svc *Service) Delete(id int) error {
	count, err := svc.repo.CountCourseEnrollments(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return core.NewConflictError(errHasEnrollments)
	}
	return svc.repo.DeleteCourseByID(id)
}
