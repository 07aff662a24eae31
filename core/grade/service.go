package grade

import (
	"time"

	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
)

var (
	ErrNotFound = errors.New("grade not found")
	// ErrDuplicate is returned by repositories on the
	// (user, subject, evaluation) uniqueness violation.
	ErrDuplicate = errors.New("a grade already exists for this student, subject and evaluation")
)

type (
	Repository interface {
		// CreateGrade must check the (user, subject, evaluation) uniqueness
		// and insert within a single transaction, returning ErrDuplicate when
		// the row exists; a unique index is the backstop against concurrent
		// inserts.
		CreateGrade(g Grade) (Grade, error)
		GetGradeByID(id int) (Grade, error)
		// FilterGrades ANDs the tenant scope with the available QueryFilter
		// fields, ordered by grade date descending. Scope.TeacherID restricts
		// through the subject's assigned teacher; Scope.UserID to the
		// student's own rows.
		FilterGrades(filter QueryFilter, scope core.Scope, page core.Page) ([]Grade, int, error)
		// GradesByStudent is ordered by evaluation then subject.
		GradesByStudent(userID int) ([]Grade, error)
		// GradesBySubject is ordered by evaluation then student.
		GradesBySubject(subjectID int) ([]Grade, error)
		UpdateGrade(g Grade) (Grade, error)
		DeleteGradeByID(id int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ng NewGrade) (Grade, error) {
	now := time.Now().UTC()
	g := Grade{
		UserID:     ng.UserID,
		SubjectID:  ng.SubjectID,
		SchoolID:   ng.SchoolID,
		Evaluation: ng.Evaluation,
		Grade:      *ng.Grade,
		Comments:   ng.Comments,
		GradeDate:  ng.GradeDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	created, err := svc.repo.CreateGrade(g)
	if err != nil {
		if errors.Cause(err) == ErrDuplicate {
			return Grade{}, core.NewConflictError(ErrDuplicate.Error())
		}
		return Grade{}, err
	}
	return created, nil
}

func (svc *Service) GetByID(id int) (Grade, error) {
	return svc.repo.GetGradeByID(id)
}

func (svc *Service) Filter(filter QueryFilter, scope core.Scope, page core.Page) ([]Grade, int, error) {
	return svc.repo.FilterGrades(filter, scope, page)
}

func (svc *Service) ByStudent(userID int) ([]Grade, error) {
	return svc.repo.GradesByStudent(userID)
}

func (svc *Service) BySubject(subjectID int) ([]Grade, error) {
	return svc.repo.GradesBySubject(subjectID)
}

func (svc *Service) Update(id int, ng NewGrade) (Grade, error) {
	g := Grade{
		ID:         id,
		UserID:     ng.UserID,
		SubjectID:  ng.SubjectID,
		SchoolID:   ng.SchoolID,
		Evaluation: ng.Evaluation,
		Grade:      *ng.Grade,
		Comments:   ng.Comments,
		GradeDate:  ng.GradeDate,
		UpdatedAt:  time.Now().UTC(),
	}
	updated, err := svc.repo.UpdateGrade(g)
	if err != nil {
		if errors.Cause(err) == ErrDuplicate {
			return Grade{}, core.NewConflictError(ErrDuplicate.Error())
		}
		return Grade{}, err
	}
	return updated, nil
}

func (svc *Service) Delete(id int) error {
	return svc.repo.DeleteGradeByID(id)
}
