package enrollment

import (
	"time"

	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/course"
	"github.com/colegiohq/backend/core/user"
)

var (
	ErrNotFound = errors.New("enrollment not found")
	// ErrAlreadyEnrolled is returned by repositories on the
	// (user, course, academic_year) uniqueness violation.
	ErrAlreadyEnrolled = errors.New("the student is already enrolled in this course for this academic year")

	errOnlyStudents   = "only students can be enrolled"
	errSchoolMismatch = "the student and the course must belong to the same school"
)

type (
	Repository interface {
		// CreateEnrollment must check the (user, course, academic_year)
		// uniqueness and insert within a single transaction, returning
		// ErrAlreadyEnrolled when the row exists; a unique index is the
		// backstop against concurrent inserts.
		CreateEnrollment(enr Enrollment) (Enrollment, error)
		GetEnrollmentByID(id int) (Enrollment, error)
		GetEnrollmentByCourseAndUser(courseID, userID int) (Enrollment, error)
		// FilterEnrollments ANDs the tenant scope with the available
		// QueryFilter fields, ordered by enrollment date descending.
		FilterEnrollments(filter QueryFilter, scope core.Scope, page core.Page) ([]Enrollment, int, error)
		UpdateEnrollment(enr Enrollment) (Enrollment, error)
		DeleteEnrollmentByID(id int) error
	}

	UserDirectory interface {
		GetByID(id int) (user.User, error)
	}

	CourseDirectory interface {
		GetByID(id int) (course.Course, error)
	}

	Service struct {
		repo    Repository
		users   UserDirectory
		courses CourseDirectory
	}
)

func NewService(repo Repository, users UserDirectory, courses CourseDirectory) *Service {
	return &Service{repo: repo, users: users, courses: courses}
}

// checkStudent verifies the target user holds the student role and belongs to
// the course's school.
func (svc *Service) checkStudent(userID int, crs course.Course) error {
	usr, err := svc.users.GetByID(userID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "user_id", Error: user.ErrNotFound.Error()})
		}
		return err
	}
	if !usr.IsStudent() {
		return core.NewValidationError(nil, core.FieldError{Field: "user_id", Error: errOnlyStudents})
	}
	if usr.SchoolID != crs.SchoolID {
		return core.NewConflictError(errSchoolMismatch)
	}
	return nil
}

func (svc *Service) Create(ne NewEnrollment) (Enrollment, error) {
	crs, err := svc.courses.GetByID(ne.CourseID)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return Enrollment{}, core.NewValidationError(err, core.FieldError{Field: "course_id", Error: course.ErrNotFound.Error()})
		}
		return Enrollment{}, err
	}
	if err := svc.checkStudent(ne.UserID, crs); err != nil {
		return Enrollment{}, err
	}

	now := time.Now().UTC()
	enr := Enrollment{
		UserID:         ne.UserID,
		CourseID:       ne.CourseID,
		SchoolID:       ne.SchoolID,
		AcademicYear:   ne.AcademicYear,
		EnrollmentDate: ne.EnrollmentDate,
		Status:         ne.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	created, err := svc.repo.CreateEnrollment(enr)
	if err != nil {
		if errors.Cause(err) == ErrAlreadyEnrolled {
			return Enrollment{}, core.NewConflictError(ErrAlreadyEnrolled.Error())
		}
		return Enrollment{}, err
	}
	return created, nil
}

// Enroll is the course-level shortcut: the enrollment inherits the course's
// school and starts active.
func (svc *Service) Enroll(crs course.Course, es EnrollStudent) (Enrollment, error) {
	return svc.Create(NewEnrollment{
		UserID:         es.UserID,
		CourseID:       crs.ID,
		SchoolID:       crs.SchoolID,
		AcademicYear:   es.AcademicYear,
		EnrollmentDate: es.EnrollmentDate,
		Status:         StatusActive,
	})
}

// Unenroll removes the student's enrollment in the course, if any.
func (svc *Service) Unenroll(courseID, userID int) error {
	enr, err := svc.repo.GetEnrollmentByCourseAndUser(courseID, userID)
	if err != nil {
		return err
	}
	return svc.repo.DeleteEnrollmentByID(enr.ID)
}

func (svc *Service) GetByID(id int) (Enrollment, error) {
	return svc.repo.GetEnrollmentByID(id)
}

func (svc *Service) Filter(filter QueryFilter, scope core.Scope, page core.Page) ([]Enrollment, int, error) {
	return svc.repo.FilterEnrollments(filter, scope, page)
}

func (svc *Service) Update(id int, ne NewEnrollment) (Enrollment, error) {
	enr := Enrollment{
		ID:             id,
		UserID:         ne.UserID,
		CourseID:       ne.CourseID,
		SchoolID:       ne.SchoolID,
		AcademicYear:   ne.AcademicYear,
		EnrollmentDate: ne.EnrollmentDate,
		Status:         ne.Status,
		UpdatedAt:      time.Now().UTC(),
	}
	return svc.repo.UpdateEnrollment(enr)
}

func (svc *Service) Delete(id int) error {
	return svc.repo.DeleteEnrollmentByID(id)
}
