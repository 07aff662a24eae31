package echoapi

import (
	"net/http"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/auth"
	"github.com/colegiohq/backend/core/policy"
	"github.com/colegiohq/backend/core/user"
)

const (
	claimsContextKey    = "userToken"
	userContextKey      = "user"
	principalContextKey = "principal"
)

func getContextClaims(ctx echo.Context) (*auth.Claims, error) {
	if token, ok := ctx.Get(claimsContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*auth.Claims); ok {
			return claims, nil
		}
	}
	return nil, errUnauthorized
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(userContextKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

func getContextPrincipal(ctx echo.Context) (policy.Principal, error) {
	if p, ok := ctx.Get(principalContextKey).(policy.Principal); ok {
		return p, nil
	}
	return policy.Principal{}, errUnauthorized
}

// principalMiddleware resolves the request principal from the token claims.
// The stored user is re-read on every request so role changes, deactivation
// and deletion take effect immediately regardless of the token snapshot.
func principalMiddleware(usrSvc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			uid, err := claims.UserID()
			if err != nil {
				return errUnauthorized
			}
			usr, err := usrSvc.GetByID(uid)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding user by ID")
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			ctx.Set(userContextKey, usr)
			ctx.Set(principalContextKey, policy.PrincipalFor(usr))
			return next(ctx)
		}
	}
}

type authApi struct {
	authSvc  *auth.Service
	usrSvc   *user.Service
	conf     *core.Config
	validate *validator.Validate
}

func registerAuthAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	principal echo.MiddlewareFunc,
	authSvc *auth.Service,
	usrSvc *user.Service,
	conf *core.Config,
	validate *validator.Validate,
) {
	api := authApi{authSvc: authSvc, usrSvc: usrSvc, conf: conf, validate: validate}

	ag := g.Group("/auth")

	// un-authed endpoints
	// TODO: rate limit `/login`
	ag.POST("/login", api.login)
	ag.POST("/register", api.register)

	// authed endpoints
	tg := ag.Group("", jwt, principal)
	tg.POST("/refresh", api.refresh)
	tg.POST("/logout", api.logout)
	tg.GET("/me", api.me)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, token, err := api.authSvc.Authenticate(data.Username, data.Password)
	if err != nil {
		return err
	}
	if usr, err = api.usrSvc.SetLastLogin(usr); err != nil {
		return errors.Wrap(err, "setting lastLogin")
	}
	return respond(ctx, http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate, api.usrSvc); err != nil {
		return err
	}
	// self-registration never grants admin
	if data.Role == user.RoleAdmin {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: "cannot register as admin"})
	}

	usr, err := api.usrSvc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	token, err := api.authSvc.Issue(usr)
	if err != nil {
		return errors.Wrap(err, "issuing token")
	}
	return respond(ctx, http.StatusCreated, LoginResponse{Token: token, User: usr})
}

func (api *authApi) refresh(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	token, err := api.authSvc.Refresh(claims)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, TokenResponse{Token: token})
}

func (api *authApi) logout(ctx echo.Context) error {
	// tokens are stateless; the client discards its copy
	return respond(ctx, http.StatusOK, echo.Map{"message": "logged out"})
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, usr)
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
