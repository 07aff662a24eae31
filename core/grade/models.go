package grade

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/colegiohq/backend/core"
)

// Grade links a student to a subject for one of the three evaluation periods;
// unique per (user, subject, evaluation). The value lies in [0, 10] with at
// most 2 decimal places.
type Grade struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	SubjectID  int       `json:"subject_id"`
	SchoolID   int       `json:"school_id"`
	Evaluation int       `json:"evaluation"`
	Grade      float64   `json:"grade"`
	Comments   string    `json:"comments,omitempty"`
	GradeDate  time.Time `json:"grade_date"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

type NewGrade struct {
	UserID     int       `json:"user_id" validate:"required"`
	SubjectID  int       `json:"subject_id" validate:"required"`
	SchoolID   int       `json:"school_id" validate:"required"`
	Evaluation int       `json:"evaluation" validate:"required,oneof=1 2 3"`
	Grade      *float64  `json:"grade" validate:"required,gradevalue"`
	Comments   string    `json:"comments"`
	GradeDate  time.Time `json:"grade_date" validate:"required"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.Comments = core.CleanString(ng.Comments)
	return validate.Struct(ng)
}

type QueryFilter struct {
	UserID       *int   `query:"user_id"`
	SubjectID    *int   `query:"subject_id"`
	Evaluation   *int   `query:"evaluation"`
	AcademicYear string `query:"academic_year"`
}

func (qf *QueryFilter) Clean() {
	qf.AcademicYear = core.CleanString(qf.AcademicYear)
}
