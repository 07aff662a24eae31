package report

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/colegiohq/backend/core"
)

// Report priorities
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Report statuses
const (
	StatusUnread = "unread"
	StatusRead   = "read"
)

// Report is a daily report authored by a teacher, addressed to the
// coordinators of the same school.
type Report struct {
	ID                   int       `json:"id"`
	TeacherID            int       `json:"teacher_id"`
	CoordinatorID        *int      `json:"coordinator_id,omitempty"`
	SchoolID             int       `json:"school_id"`
	Title                string    `json:"title"`
	ClassProgress        string    `json:"class_progress"`
	StudentParticipation string    `json:"student_participation,omitempty"`
	Incidents            string    `json:"incidents,omitempty"`
	NextActivities       string    `json:"next_activities,omitempty"`
	Date                 time.Time `json:"date"`
	Priority             string    `json:"priority"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"` // UTC
	UpdatedAt            time.Time `json:"updated_at"` // UTC
}

type NewReport struct {
	Title                string    `json:"title" validate:"required,max=255"`
	ClassProgress        string    `json:"class_progress" validate:"required"`
	StudentParticipation string    `json:"student_participation"`
	Incidents            string    `json:"incidents"`
	NextActivities       string    `json:"next_activities"`
	Date                 time.Time `json:"date" validate:"required"`
	Priority             string    `json:"priority" validate:"required,oneof=low normal high urgent"`
	TeacherID            int       `json:"teacher_id"`
}

func (nr *NewReport) Validate(validate *validator.Validate) error {
	nr.Title = core.CleanString(nr.Title)
	return validate.Struct(nr)
}

type QueryFilter struct {
	Priority string     `query:"priority"`
	Status   string     `query:"status"`
	From     *time.Time `query:"from"`
	To       *time.Time `query:"to"`
}

func (qf *QueryFilter) Clean() {
	qf.Priority = core.CleanString(qf.Priority, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
