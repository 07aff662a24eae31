package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/policy"
	"github.com/colegiohq/backend/core/school"
	"github.com/colegiohq/backend/core/user"
)

type schoolApi struct {
	svc      *school.Service
	conf     *core.Config
	validate *validator.Validate
}

func registerSchoolAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	principal echo.MiddlewareFunc,
	svc *school.Service,
	conf *core.Config,
	validate *validator.Validate,
) {
	api := schoolApi{svc: svc, conf: conf, validate: validate}

	sg := g.Group("/schools", jwt, principal, permissionMiddleware(user.PermViewSchools))
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *schoolApi) query(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntitySchool, policy.ActionList, policy.Record{}); err != nil {
		return err
	}

	filter := new(school.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	page := bindPage(ctx, api.conf)

	schools, total, err := api.svc.Filter(*filter, page)
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	if schools == nil {
		schools = []school.School{}
	}
	return respondPage(ctx, schools, page, total)
}

func (api *schoolApi) create(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntitySchool, policy.ActionCreate, policy.Record{}); err != nil {
		return err
	}

	sch, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	return respond(ctx, http.StatusCreated, sch)
}

func (api *schoolApi) retrieve(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	sch, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntitySchool, policy.ActionRead, policy.Record{}); err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, sch)
}

func (api *schoolApi) update(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	sch, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}

	var data school.UpdateSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err := data.Validate(sch, api.validate, api.svc); err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntitySchool, policy.ActionUpdate, policy.Record{}); err != nil {
		return err
	}

	sch, err = api.svc.Update(sch.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating school")
	}
	return respond(ctx, http.StatusOK, sch)
}

func (api *schoolApi) destroy(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	sch, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntitySchool, policy.ActionDelete, policy.Record{}); err != nil {
		return err
	}

	if err := api.svc.Delete(sch.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
