package user

import (
	"time"

	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(username, email string, excludedUsers ...User) error
		CreateUser(user User) (User, error)
		GetUserByID(id int) (User, error)
		GetUserByEmail(email string) (User, error)
		GetUserByUsernameOrEmail(username string) (User, error)
		// FilterUsers ANDs the tenant scope with the available QueryFilter
		// fields. QueryFilter.Search does a case-insensitive match on one of
		// User.Name, User.Surname, User.Username or User.Email.
		FilterUsers(filter QueryFilter, scope core.Scope, page core.Page) ([]User, int, error)
		GetUsersBySchoolAndRole(schoolID int, role string) ([]User, error)
		CountUsersBySchool(schoolID int) (int, error)
		UpdateUser(user User, isActive *bool) (User, error)
		DeleteUserByID(id int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(uname, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Surname:   nu.Surname,
		Username:  nu.Username,
		Email:     nu.Email,
		Phone:     nu.Phone,
		SchoolID:  nu.SchoolID,
		Role:      nu.Role,
		Photo:     nu.Photo,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if usr.Photo == "" {
		usr.Photo = "default-avatar.jpg"
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(usr)
}

func (svc *Service) GetByID(id int) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) GetByUsernameOrEmail(uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(core.CleanString(uname, true /* lower */))
}

func (svc *Service) Filter(filter QueryFilter, scope core.Scope, page core.Page) ([]User, int, error) {
	return svc.repo.FilterUsers(filter, scope, page)
}

func (svc *Service) CoordinatorsBySchool(schoolID int) ([]User, error) {
	return svc.repo.GetUsersBySchoolAndRole(schoolID, RoleCoordinator)
}

func (svc *Service) SetLastLogin(usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(usr, nil)
}

func (svc *Service) Update(id int, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Name:      uu.Name,
		Surname:   uu.Surname,
		Username:  uu.Username,
		Email:     uu.Email,
		Phone:     uu.Phone,
		SchoolID:  uu.SchoolID,
		Role:      uu.Role,
		Photo:     uu.Photo,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(usr, uu.IsActive)
}

func (svc *Service) Delete(id int) error {
	return svc.repo.DeleteUserByID(id)
}
