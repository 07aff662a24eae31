package school

import (
	"time"

	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
)

var (
	ErrNotFound    = errors.New("school not found")
	ErrEmailExists = errors.New("a school with this email already exists")

	// delete guard: a tenant cannot disappear from under its users
	errHasUsers = "cannot delete the school because it has associated users"
)

type (
	Repository interface {
		CheckEmailUniqueness(email string, excludedSchools ...School) error
		CreateSchool(sch School) (School, error)
		GetSchoolByID(id int) (School, error)
		FilterSchools(filter QueryFilter, page core.Page) ([]School, int, error)
		UpdateSchool(sch School, us UpdateSchool) (School, error)
		CountSchoolUsers(id int) (int, error)
		// DeleteSchoolByID must re-check the user count and delete within a
		// single transaction.
		DeleteSchoolByID(id int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(email string, excl ...School) error {
	if err := svc.repo.CheckEmailUniqueness(email, excl...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ns NewSchool) (School, error) {
	now := time.Now().UTC()
	sch := School{
		Name:            ns.Name,
		FullName:        ns.FullName,
		Address:         ns.Address,
		Phone:           ns.Phone,
		Email:           ns.Email,
		Logo:            ns.Logo,
		HasPrimary:      ns.HasPrimary,
		HasESO:          ns.HasESO,
		HasBachillerato: ns.HasBachillerato,
		HasFP:           ns.HasFP,
		MaxStudents:     ns.MaxStudents,
		Website:         ns.Website,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateSchool(sch)
}

func (svc *Service) GetByID(id int) (School, error) {
	return svc.repo.GetSchoolByID(id)
}

func (svc *Service) Filter(filter QueryFilter, page core.Page) ([]School, int, error) {
	return svc.repo.FilterSchools(filter, page)
}

func (svc *Service) Update(id int, us UpdateSchool) (School, error) {
	sch := School{
		ID:        id,
		Name:      us.Name,
		FullName:  us.FullName,
		Address:   us.Address,
		Phone:     us.Phone,
		Email:     us.Email,
		Logo:      us.Logo,
		Website:   us.Website,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateSchool(sch, us)
}

func (svc *Service) Delete(id int) error {
	count, err := svc.repo.CountSchoolUsers(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return core.NewConflictError(errHasUsers)
	}
	return svc.repo.DeleteSchoolByID(id)
}
