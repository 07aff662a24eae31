package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/colegiohq/backend/core"
)

// School is the tenant root; every scoped entity carries its id directly.
type School struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Address         string    `json:"address,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Email           string    `json:"email"`
	Logo            string    `json:"logo,omitempty"`
	HasPrimary      bool      `json:"has_primary"`
	HasESO          bool      `json:"has_eso"`
	HasBachillerato bool      `json:"has_bachillerato"`
	HasFP           bool      `json:"has_fp"`
	MaxStudents     int       `json:"max_students,omitempty"`
	Website         string    `json:"website,omitempty"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

type NewSchool struct {
	Name            string `json:"name" validate:"required,max=255"`
	FullName        string `json:"full_name" validate:"required,max=255"`
	Address         string `json:"address"`
	Phone           string `json:"phone" validate:"omitempty,max=20"`
	Email           string `json:"email" validate:"required,email"`
	Logo            string `json:"logo"`
	HasPrimary      bool   `json:"has_primary"`
	HasESO          bool   `json:"has_eso"`
	HasBachillerato bool   `json:"has_bachillerato"`
	HasFP           bool   `json:"has_fp"`
	MaxStudents     int    `json:"max_students" validate:"omitempty,min=0"`
	Website         string `json:"website" validate:"omitempty,url"`
}

func (ns *NewSchool) Validate(validate *validator.Validate, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.FullName = core.CleanString(ns.FullName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkUniqueness(ns.Email)
}

type UpdateSchool struct {
	Name            string `json:"name" validate:"omitempty,max=255"`
	FullName        string `json:"full_name" validate:"omitempty,max=255"`
	Address         string `json:"address"`
	Phone           string `json:"phone" validate:"omitempty,max=20"`
	Email           string `json:"email" validate:"omitempty,email"`
	Logo            string `json:"logo"`
	HasPrimary      *bool  `json:"has_primary"`
	HasESO          *bool  `json:"has_eso"`
	HasBachillerato *bool  `json:"has_bachillerato"`
	HasFP           *bool  `json:"has_fp"`
	MaxStudents     *int   `json:"max_students"`
	Website         string `json:"website" validate:"omitempty,url"`
}

func (us *UpdateSchool) Validate(orig School, validate *validator.Validate, svc *Service) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if fullName := core.CleanString(us.FullName); fullName != "" {
		us.FullName = fullName
	} else {
		us.FullName = orig.FullName
	}
	if email := core.CleanString(us.Email, true /* lower */); email != "" {
		us.Email = email
	} else {
		us.Email = orig.Email
	}

	if err := validate.Struct(us); err != nil {
		return err
	}
	return svc.checkUniqueness(us.Email, orig)
}

type QueryFilter struct {
	Search          string `query:"search"`
	HasPrimary      *bool  `query:"has_primary"`
	HasESO          *bool  `query:"has_eso"`
	HasBachillerato *bool  `query:"has_bachillerato"`
	HasFP           *bool  `query:"has_fp"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
