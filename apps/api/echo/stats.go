package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/policy"
	"github.com/colegiohq/backend/core/stats"
	"github.com/colegiohq/backend/core/user"
)

type statsApi struct {
	svc *stats.Service
}

func registerStatsAPI(g *echo.Group, jwt echo.MiddlewareFunc, principal echo.MiddlewareFunc, svc *stats.Service) {
	api := statsApi{svc: svc}

	g.GET("/dashboard/stats", api.dashboard, jwt, principal, permissionMiddleware(user.PermViewDashboard))
	g.GET("/statistics", api.statistics, jwt, principal, permissionMiddleware(user.PermViewStatistics))
}

// Handlers

func (api *statsApi) dashboard(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var ds stats.DashboardStats
	switch {
	case p.HasRole(user.RoleTeacher):
		ds, err = api.svc.TeacherDashboard(p.UserID, p.SchoolID)
	case p.HasRole(user.RoleStudent):
		ds, err = api.svc.StudentDashboard(p.UserID)
	case p.HasRole(user.RoleCoordinator):
		ds, err = api.svc.CoordinatorDashboard(p.UserID, p.SchoolID)
	default:
		var scope core.Scope
		if !p.IsAdmin() {
			scope.SchoolID = core.IntPtr(p.SchoolID)
		}
		ds, err = api.svc.Dashboard(scope)
	}
	if err != nil {
		return errors.Wrap(err, "computing dashboard")
	}
	return respond(ctx, http.StatusOK, ds)
}

func (api *statsApi) statistics(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityStatistics, policy.ActionList, policy.Record{}); err != nil {
		return err
	}

	st, err := api.svc.Global()
	if err != nil {
		return errors.Wrap(err, "computing statistics")
	}
	return respond(ctx, http.StatusOK, st)
}
