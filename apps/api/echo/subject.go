package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/policy"
	"github.com/colegiohq/backend/core/subject"
	"github.com/colegiohq/backend/core/user"
)

type subjectApi struct {
	svc      *subject.Service
	conf     *core.Config
	validate *validator.Validate
}

func registerSubjectAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	principal echo.MiddlewareFunc,
	svc *subject.Service,
	conf *core.Config,
	validate *validator.Validate,
) {
	api := subjectApi{svc: svc, conf: conf, validate: validate}

	sg := g.Group("/subjects", jwt, principal, permissionMiddleware(user.PermViewSubjects))
	sg.GET("", api.query)
	sg.POST("", api.create, permissionMiddleware(user.PermCreateSubjects))
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update, permissionMiddleware(user.PermEditSubjects))
	sg.DELETE("/:id", api.destroy, permissionMiddleware(user.PermDeleteSubjects))
	sg.POST("/:id/assign-teacher", api.assignTeacher, permissionMiddleware(user.PermAssignTeacherSubject))
}

// Handlers

func (api *subjectApi) query(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntitySubject, policy.ActionList, policy.Record{}); err != nil {
		return err
	}

	filter := new(subject.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	scope := policy.ScopeFor(p, policy.EntitySubject)
	page := bindPage(ctx, api.conf)

	subjects, total, err := api.svc.Filter(*filter, scope, page)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []subject.Subject{}
	}
	return respondPage(ctx, subjects, page, total)
}

func (api *subjectApi) create(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data subject.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntitySubject, policy.ActionCreate, policy.Record{BodySchoolID: data.SchoolID}); err != nil {
		return err
	}

	sub, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return respond(ctx, http.StatusCreated, sub)
}

func (api *subjectApi) retrieve(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	sub, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntitySubject, policy.ActionRead, policy.Record{SchoolID: sub.SchoolID}); err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, sub)
}

func (api *subjectApi) update(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	sub, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}

	var data subject.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntitySubject, policy.ActionUpdate, policy.Record{
		SchoolID:     sub.SchoolID,
		BodySchoolID: data.SchoolID,
	}); err != nil {
		return err
	}

	sub, err = api.svc.Update(sub.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return respond(ctx, http.StatusOK, sub)
}

func (api *subjectApi) destroy(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	sub, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntitySubject, policy.ActionDelete, policy.Record{SchoolID: sub.SchoolID}); err != nil {
		return err
	}

	if err := api.svc.Delete(sub.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *subjectApi) assignTeacher(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	sub, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}

	var data subject.AssignTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntitySubject, policy.ActionUpdate, policy.Record{SchoolID: sub.SchoolID}); err != nil {
		return err
	}

	sub, err = api.svc.AssignTeacher(sub, data.TeacherID)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, sub)
}
