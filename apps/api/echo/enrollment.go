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

type enrollmentApi struct {
	svc       *enrollment.Service
	courseSvc *course.Service
	conf      *core.Config
	validate  *validator.Validate
}

func registerEnrollmentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	principal echo.MiddlewareFunc,
	svc *enrollment.Service,
	courseSvc *course.Service,
	conf *core.Config,
	validate *validator.Validate,
) {
	api := enrollmentApi{svc: svc, courseSvc: courseSvc, conf: conf, validate: validate}

	eg := g.Group("/enrollments", jwt, principal, permissionMiddleware(user.PermViewEnrollments))
	eg.GET("", api.query)
	eg.POST("", api.create, permissionMiddleware(user.PermCreateEnrollments))
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id", api.update, permissionMiddleware(user.PermEditEnrollments))
	eg.DELETE("/:id", api.destroy, permissionMiddleware(user.PermDeleteEnrollments))
	eg.GET("/course/:id", api.byCourse)
	eg.GET("/student/:id", api.byStudent)

	// any authenticated user sees their own enrollments
	g.GET("/my-courses", api.myCourses, jwt, principal)
}

// Handlers

func (api *enrollmentApi) query(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityEnrollment, policy.ActionList, policy.Record{}); err != nil {
		return err
	}

	filter := new(enrollment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	scope := policy.ScopeFor(p, policy.EntityEnrollment)
	page := bindPage(ctx, api.conf)

	enrs, total, err := api.svc.Filter(*filter, scope, page)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []enrollment.Enrollment{}
	}
	return respondPage(ctx, enrs, page, total)
}

func (api *enrollmentApi) create(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data enrollment.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityEnrollment, policy.ActionCreate, policy.Record{BodySchoolID: data.SchoolID}); err != nil {
		return err
	}

	enr, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, enr)
}

func (api *enrollmentApi) retrieve(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	enr, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityEnrollment, policy.ActionRead, policy.Record{SchoolID: enr.SchoolID}); err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, enr)
}

func (api *enrollmentApi) update(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	enr, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}

	var data enrollment.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityEnrollment, policy.ActionUpdate, policy.Record{
		SchoolID:     enr.SchoolID,
		BodySchoolID: data.SchoolID,
	}); err != nil {
		return err
	}

	enr, err = api.svc.Update(enr.ID, data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, enr)
}

func (api *enrollmentApi) destroy(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	enr, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityEnrollment, policy.ActionDelete, policy.Record{SchoolID: enr.SchoolID}); err != nil {
		return err
	}

	if err := api.svc.Delete(enr.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *enrollmentApi) byCourse(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	crs, err := api.courseSvc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityEnrollment, policy.ActionList, policy.Record{SchoolID: crs.SchoolID}); err != nil {
		return err
	}

	filter := enrollment.QueryFilter{CourseID: &crs.ID}
	scope := policy.ScopeFor(p, policy.EntityEnrollment)
	page := bindPage(ctx, api.conf)

	enrs, total, err := api.svc.Filter(filter, scope, page)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []enrollment.Enrollment{}
	}
	return respondPage(ctx, enrs, page, total)
}

func (api *enrollmentApi) byStudent(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	if err := policy.Allow(p, policy.EntityEnrollment, policy.ActionList, policy.Record{}); err != nil {
		return err
	}

	filter := enrollment.QueryFilter{UserID: &id}
	scope := policy.ScopeFor(p, policy.EntityEnrollment)
	page := bindPage(ctx, api.conf)

	enrs, total, err := api.svc.Filter(filter, scope, page)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []enrollment.Enrollment{}
	}
	return respondPage(ctx, enrs, page, total)
}

// enrolledCourse pairs an enrollment with its course for the my-courses view.
type enrolledCourse struct {
	Enrollment enrollment.Enrollment `json:"enrollment"`
	Course     course.Course         `json:"course"`
}

func (api *enrollmentApi) myCourses(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	filter := enrollment.QueryFilter{UserID: &usr.ID}
	scope := core.Scope{UserID: &usr.ID}
	page := bindPage(ctx, api.conf)

	enrs, total, err := api.svc.Filter(filter, scope, page)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}

	items := make([]enrolledCourse, 0, len(enrs))
	for _, enr := range enrs {
		crs, err := api.courseSvc.GetByID(enr.CourseID)
		if err != nil {
			return errors.Wrap(err, "finding course")
		}
		items = append(items, enrolledCourse{Enrollment: enr, Course: crs})
	}
	return respondPage(ctx, items, page, total)
}
