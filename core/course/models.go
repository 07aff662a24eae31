package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/colegiohq/backend/core"
)

// Course statuses
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusCompleted = "completed"
)

type Course struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	AcademicYear string     `json:"academic_year"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	TeacherID    int        `json:"teacher_id"`
	CoordID      int        `json:"coord_id"`
	SchoolID     int        `json:"school_id"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
}

type NewCourse struct {
	Name         string     `json:"name" validate:"required,max=255"`
	Description  string     `json:"description" validate:"required"`
	Location     string     `json:"location" validate:"required,max=255"`
	AcademicYear string     `json:"academic_year" validate:"required,max=255"`
	StartDate    time.Time  `json:"start_date" validate:"required"`
	EndDate      *time.Time `json:"end_date"`
	TeacherID    int        `json:"teacher_id" validate:"required"`
	CoordID      int        `json:"coord_id" validate:"required"`
	SchoolID     int        `json:"school_id" validate:"required"`
	Status       string     `json:"status" validate:"required,oneof=active inactive completed"`
}

func (nc *NewCourse) Validate(validate *validator.Validate, svc *Service) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Location = core.CleanString(nc.Location)
	nc.AcademicYear = core.CleanString(nc.AcademicYear)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	if nc.EndDate != nil && !nc.EndDate.After(nc.StartDate) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "end date must be after the start date"})
	}
	return svc.checkStaff(nc.SchoolID, nc.TeacherID, nc.CoordID)
}

type QueryFilter struct {
	Search       string `query:"search"`
	AcademicYear string `query:"academic_year"`
	Status       string `query:"status"`
	TeacherID    *int   `query:"teacher_id"`
	CoordID      *int   `query:"coord_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
