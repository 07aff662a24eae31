package subject

import (
	"time"

	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/user"
)

var (
	ErrNotFound = errors.New("subject not found")

	errHasGrades    = "cannot delete the subject because it has recorded grades"
	errNotATeacher  = "the selected user is not a teacher"
	errTeacherFound = "teacher not found"
)

type (
	Repository interface {
		CreateSubject(sub Subject) (Subject, error)
		GetSubjectByID(id int) (Subject, error)
		// FilterSubjects ANDs the tenant scope with the available QueryFilter
		// fields; for teachers the scope restricts to their own subjects.
		FilterSubjects(filter QueryFilter, scope core.Scope, page core.Page) ([]Subject, int, error)
		UpdateSubject(sub Subject) (Subject, error)
		CountSubjectGrades(id int) (int, error)
		// DeleteSubjectByID must re-check the grade count and delete within a
		// single transaction.
		DeleteSubjectByID(id int) error
	}

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

func (svc *Service) Create(ns NewSubject) (Subject, error) {
	now := time.Now().UTC()
	sub := Subject{
		Name:         ns.Name,
		Description:  ns.Description,
		CourseID:     ns.CourseID,
		TeacherID:    ns.TeacherID,
		SchoolID:     ns.SchoolID,
		HoursPerWeek: ns.HoursPerWeek,
		Status:       ns.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateSubject(sub)
}

func (svc *Service) GetByID(id int) (Subject, error) {
	return svc.repo.GetSubjectByID(id)
}

func (svc *Service) Filter(filter QueryFilter, scope core.Scope, page core.Page) ([]Subject, int, error) {
	return svc.repo.FilterSubjects(filter, scope, page)
}

func (svc *Service) Update(id int, ns NewSubject) (Subject, error) {
	sub := Subject{
		ID:           id,
		Name:         ns.Name,
		Description:  ns.Description,
		CourseID:     ns.CourseID,
		TeacherID:    ns.TeacherID,
		SchoolID:     ns.SchoolID,
		HoursPerWeek: ns.HoursPerWeek,
		Status:       ns.Status,
		UpdatedAt:    time.Now().UTC(),
	}
	return svc.repo.UpdateSubject(sub)
}

// AssignTeacher reassigns the subject to another teacher of the school; the
// target user must hold the teacher role.
func (svc *Service) AssignTeacher(sub Subject, teacherID int) (Subject, error) {
	teacher, err := svc.users.GetByID(teacherID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Subject{}, core.NewValidationError(err, core.FieldError{Field: "teacher_id", Error: errTeacherFound})
		}
		return Subject{}, err
	}
	if !teacher.IsTeacher() {
		return Subject{}, core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: errNotATeacher})
	}

	sub.TeacherID = teacherID
	sub.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubject(sub)
}

func (svc *Service) Delete(id int) error {
	count, err := svc.repo.CountSubjectGrades(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return core.NewConflictError(errHasGrades)
	}
	return svc.repo.DeleteSubjectByID(id)
}
