package enrollment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/colegiohq/backend/core"
)

// Enrollment statuses
const (
	StatusActive      = "active"
	StatusInactive    = "inactive"
	StatusTransferred = "transferred"
	StatusGraduated   = "graduated"
)

// Enrollment links a student to a course within a school and academic year;
// unique per (user, course, academic_year).
type Enrollment struct {
	ID             int       `json:"id"`
	UserID         int       `json:"user_id"`
	CourseID       int       `json:"course_id"`
	SchoolID       int       `json:"school_id"`
	AcademicYear   string    `json:"academic_year"`
	EnrollmentDate time.Time `json:"enrollment_date"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

type NewEnrollment struct {
	UserID         int       `json:"user_id" validate:"required"`
	CourseID       int       `json:"course_id" validate:"required"`
	SchoolID       int       `json:"school_id" validate:"required"`
	AcademicYear   string    `json:"academic_year" validate:"required,max=255"`
	EnrollmentDate time.Time `json:"enrollment_date" validate:"required"`
	Status         string    `json:"status" validate:"required,oneof=active inactive transferred graduated"`
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	ne.AcademicYear = core.CleanString(ne.AcademicYear)
	return validate.Struct(ne)
}

// EnrollStudent is the request body of the course-level enroll shortcut; the
// course and school come from the route.
type EnrollStudent struct {
	UserID         int       `json:"user_id" validate:"required"`
	AcademicYear   string    `json:"academic_year" validate:"required,max=255"`
	EnrollmentDate time.Time `json:"enrollment_date" validate:"required"`
}

func (es *EnrollStudent) Validate(validate *validator.Validate) error {
	es.AcademicYear = core.CleanString(es.AcademicYear)
	return validate.Struct(es)
}

type QueryFilter struct {
	CourseID     *int   `query:"course_id"`
	UserID       *int   `query:"user_id"`
	AcademicYear string `query:"academic_year"`
	Status       string `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.AcademicYear = core.CleanString(qf.AcademicYear)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
