package echoapi

import "github.com/labstack/echo/v4"

// permissionMiddleware gates a route on a role-derived permission; the policy
// rules then refine the decision per record.
func permissionMiddleware(perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := getContextPrincipal(ctx)
			if err != nil {
				return err
			}
			if !p.HasPermission(perm) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
