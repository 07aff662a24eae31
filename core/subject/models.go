package subject

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/colegiohq/backend/core"
)

// Subject statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Subject struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	CourseID     int       `json:"course_id"`
	TeacherID    int       `json:"teacher_id"`
	SchoolID     int       `json:"school_id"`
	HoursPerWeek int       `json:"hours_per_week"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

type NewSubject struct {
	Name         string `json:"name" validate:"required,max=255"`
	Description  string `json:"description"`
	CourseID     int    `json:"course_id" validate:"required"`
	TeacherID    int    `json:"teacher_id" validate:"required"`
	SchoolID     int    `json:"school_id" validate:"required"`
	HoursPerWeek int    `json:"hours_per_week" validate:"min=0,max=40"`
	Status       string `json:"status" validate:"required,oneof=active inactive"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

type AssignTeacher struct {
	TeacherID int `json:"teacher_id" validate:"required"`
}

func (at *AssignTeacher) Validate(validate *validator.Validate) error {
	return validate.Struct(at)
}

type QueryFilter struct {
	Search    string `query:"search"`
	CourseID  *int   `query:"course_id"`
	TeacherID *int   `query:"teacher_id"`
	Status    string `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
