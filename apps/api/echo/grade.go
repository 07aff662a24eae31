package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/grade"
	"github.com/colegiohq/backend/core/policy"
	"github.com/colegiohq/backend/core/subject"
	"github.com/colegiohq/backend/core/user"
)

type gradeApi struct {
	svc        *grade.Service
	subjectSvc *subject.Service
	usrSvc     *user.Service
	conf       *core.Config
	validate   *validator.Validate
}

func registerGradeAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	principal echo.MiddlewareFunc,
	svc *grade.Service,
	subjectSvc *subject.Service,
	usrSvc *user.Service,
	conf *core.Config,
	validate *validator.Validate,
) {
	api := gradeApi{svc: svc, subjectSvc: subjectSvc, usrSvc: usrSvc, conf: conf, validate: validate}

	gg := g.Group("/grades", jwt, principal, permissionMiddleware(user.PermViewGrades))
	gg.GET("", api.query)
	gg.POST("", api.create, permissionMiddleware(user.PermCreateGrades))
	gg.GET("/:id", api.retrieve)
	gg.PUT("/:id", api.update, permissionMiddleware(user.PermEditGrades))
	gg.DELETE("/:id", api.destroy, permissionMiddleware(user.PermDeleteGrades))
	gg.GET("/student/:id", api.byStudent)
	gg.GET("/subject/:id", api.bySubject)

	// students read their own grades here, not under /grades
	g.GET("/my-grades", api.myGrades, jwt, principal, permissionMiddleware(user.PermViewOwnGrades))
}

// subjectOf resolves a grade's subject; a dangling subject_id is a validation
// problem, not a server error.
func (api *gradeApi) subjectOf(subjectID int) (subject.Subject, error) {
	sub, err := api.subjectSvc.GetByID(subjectID)
	if err != nil {
		if errors.Cause(err) == subject.ErrNotFound {
			return subject.Subject{}, core.NewValidationError(err, core.FieldError{
				Field: "subject_id", Error: subject.ErrNotFound.Error(),
			})
		}
		return subject.Subject{}, errors.Wrap(err, "finding subject")
	}
	return sub, nil
}

// Handlers

func (api *gradeApi) query(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityGrade, policy.ActionList, policy.Record{}); err != nil {
		return err
	}

	filter := new(grade.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	scope := policy.ScopeFor(p, policy.EntityGrade)
	page := bindPage(ctx, api.conf)

	grades, total, err := api.svc.Filter(*filter, scope, page)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return respondPage(ctx, grades, page, total)
}

func (api *gradeApi) create(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data grade.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.subjectOf(data.SubjectID)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityGrade, policy.ActionCreate, policy.Record{
		SchoolID:     sub.SchoolID,
		BodySchoolID: data.SchoolID,
		TeacherID:    sub.TeacherID,
	}); err != nil {
		return err
	}

	g, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, g)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	g, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	sub, err := api.subjectSvc.GetByID(g.SubjectID)
	if err != nil {
		return errors.Wrap(err, "finding subject")
	}
	if err := policy.Allow(p, policy.EntityGrade, policy.ActionRead, policy.Record{
		SchoolID:  g.SchoolID,
		OwnerID:   g.UserID,
		TeacherID: sub.TeacherID,
	}); err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, g)
}

func (api *gradeApi) update(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	g, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}

	var data grade.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.subjectOf(data.SubjectID)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityGrade, policy.ActionUpdate, policy.Record{
		SchoolID:     g.SchoolID,
		BodySchoolID: data.SchoolID,
		TeacherID:    sub.TeacherID,
	}); err != nil {
		return err
	}

	g, err = api.svc.Update(g.ID, data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, g)
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	g, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	sub, err := api.subjectSvc.GetByID(g.SubjectID)
	if err != nil {
		return errors.Wrap(err, "finding subject")
	}
	if err := policy.Allow(p, policy.EntityGrade, policy.ActionDelete, policy.Record{
		SchoolID:  g.SchoolID,
		TeacherID: sub.TeacherID,
	}); err != nil {
		return err
	}

	if err := api.svc.Delete(g.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradeApi) byStudent(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	student, err := api.usrSvc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityGrade, policy.ActionRead, policy.Record{
		SchoolID: student.SchoolID,
		OwnerID:  student.ID,
	}); err != nil {
		return err
	}

	// the tenant scope narrows teachers to subjects assigned to them
	filter := grade.QueryFilter{UserID: &student.ID}
	scope := policy.ScopeFor(p, policy.EntityGrade)
	page := bindPage(ctx, api.conf)

	grades, total, err := api.svc.Filter(filter, scope, page)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return respondPage(ctx, grades, page, total)
}

func (api *gradeApi) bySubject(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	sub, err := api.subjectSvc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityGrade, policy.ActionList, policy.Record{
		SchoolID:  sub.SchoolID,
		TeacherID: sub.TeacherID,
	}); err != nil {
		return err
	}

	grades, err := api.svc.BySubject(sub.ID)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return respond(ctx, http.StatusOK, grades)
}

func (api *gradeApi) myGrades(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	grades, err := api.svc.ByStudent(usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return respond(ctx, http.StatusOK, grades)
}
