package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/policy"
	"github.com/colegiohq/backend/core/report"
	"github.com/colegiohq/backend/core/user"
)

type reportApi struct {
	svc      *report.Service
	usrSvc   *user.Service
	conf     *core.Config
	validate *validator.Validate
}

func registerReportAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	principal echo.MiddlewareFunc,
	svc *report.Service,
	usrSvc *user.Service,
	conf *core.Config,
	validate *validator.Validate,
) {
	api := reportApi{svc: svc, usrSvc: usrSvc, conf: conf, validate: validate}

	rg := g.Group("/reports", jwt, principal, permissionMiddleware(user.PermViewReports))
	rg.GET("", api.query)
	rg.POST("", api.create)
	rg.GET("/:id", api.retrieve)
	rg.POST("/:id/read", api.markRead)
	rg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *reportApi) query(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityReport, policy.ActionList, policy.Record{}); err != nil {
		return err
	}

	filter := new(report.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	scope := policy.ScopeFor(p, policy.EntityReport)
	page := bindPage(ctx, api.conf)

	reports, total, err := api.svc.Filter(*filter, scope, page)
	if err != nil {
		return errors.Wrap(err, "querying reports")
	}
	if reports == nil {
		reports = []report.Report{}
	}
	return respondPage(ctx, reports, page, total)
}

func (api *reportApi) create(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data report.NewReport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReport")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	// admins may file on behalf of a teacher
	teacherID, schoolID := p.UserID, p.SchoolID
	if data.TeacherID != 0 && p.IsAdmin() {
		teacher, err := api.usrSvc.GetByID(data.TeacherID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return core.NewValidationError(err, core.FieldError{Field: "teacher_id", Error: "teacher not found"})
			}
			return errors.Wrap(err, "finding teacher")
		}
		teacherID, schoolID = teacher.ID, teacher.SchoolID
	}

	if err := policy.Allow(p, policy.EntityReport, policy.ActionCreate, policy.Record{}); err != nil {
		return err
	}

	rpt, err := api.svc.Create(data, teacherID, schoolID)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, rpt)
}

func (api *reportApi) retrieve(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	rpt, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityReport, policy.ActionRead, policy.Record{
		SchoolID:  rpt.SchoolID,
		TeacherID: rpt.TeacherID,
	}); err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, rpt)
}

func (api *reportApi) markRead(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	rpt, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityReport, policy.ActionMarkRead, policy.Record{SchoolID: rpt.SchoolID}); err != nil {
		return err
	}

	rpt, err = api.svc.MarkRead(rpt.ID, p.UserID)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, rpt)
}

func (api *reportApi) destroy(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	rpt, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityReport, policy.ActionDelete, policy.Record{TeacherID: rpt.TeacherID}); err != nil {
		return err
	}

	if err := api.svc.Delete(rpt.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
