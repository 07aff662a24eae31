package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/course"
	"github.com/colegiohq/backend/core/enrollment"
	"github.com/colegiohq/backend/core/policy"
	"github.com/colegiohq/backend/core/user"
)

type courseApi struct {
	svc      *course.Service
	enrSvc   *enrollment.Service
	conf     *core.Config
	validate *validator.Validate
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	principal echo.MiddlewareFunc,
	svc *course.Service,
	enrSvc *enrollment.Service,
	conf *core.Config,
	validate *validator.Validate,
) {
	api := courseApi{svc: svc, enrSvc: enrSvc, conf: conf, validate: validate}

	cg := g.Group("/courses", jwt, principal, permissionMiddleware(user.PermViewCourses))
	cg.GET("", api.query)
	cg.POST("", api.create, permissionMiddleware(user.PermCreateCourses))
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update, permissionMiddleware(user.PermEditCourses))
	cg.DELETE("/:id", api.destroy, permissionMiddleware(user.PermDeleteCourses))

	// enrollment shortcuts
	cg.POST("/:id/enroll", api.enroll, permissionMiddleware(user.PermEnrollStudents))
	cg.DELETE("/:id/unenroll/:user", api.unenroll, permissionMiddleware(user.PermEnrollStudents))
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityCourse, policy.ActionList, policy.Record{}); err != nil {
		return err
	}

	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	scope := policy.ScopeFor(p, policy.EntityCourse)
	page := bindPage(ctx, api.conf)

	courses, total, err := api.svc.Filter(*filter, scope, page)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return respondPage(ctx, courses, page, total)
}

func (api *courseApi) create(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityCourse, policy.ActionCreate, policy.Record{BodySchoolID: data.SchoolID}); err != nil {
		return err
	}

	crs, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return respond(ctx, http.StatusCreated, crs)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	crs, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityCourse, policy.ActionRead, policy.Record{SchoolID: crs.SchoolID}); err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	crs, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityCourse, policy.ActionUpdate, policy.Record{
		SchoolID:     crs.SchoolID,
		BodySchoolID: data.SchoolID,
	}); err != nil {
		return err
	}

	crs, err = api.svc.Update(crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return respond(ctx, http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	crs, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityCourse, policy.ActionDelete, policy.Record{SchoolID: crs.SchoolID}); err != nil {
		return err
	}

	if err := api.svc.Delete(crs.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	crs, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}

	var data enrollment.EnrollStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityEnrollment, policy.ActionCreate, policy.Record{SchoolID: crs.SchoolID}); err != nil {
		return err
	}

	enr, err := api.enrSvc.Enroll(crs, data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, enr)
}

func (api *courseApi) unenroll(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	userID, err := intParam(ctx, "user")
	if err != nil {
		return err
	}

	crs, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityEnrollment, policy.ActionDelete, policy.Record{SchoolID: crs.SchoolID}); err != nil {
		return err
	}

	if err := api.enrSvc.Unenroll(crs.ID, userID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
