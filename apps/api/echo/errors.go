package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/auth"
	"github.com/colegiohq/backend/core/course"
	"github.com/colegiohq/backend/core/enrollment"
	"github.com/colegiohq/backend/core/grade"
	"github.com/colegiohq/backend/core/notification"
	"github.com/colegiohq/backend/core/policy"
	"github.com/colegiohq/backend/core/report"
	"github.com/colegiohq/backend/core/school"
	"github.com/colegiohq/backend/core/subject"
	"github.com/colegiohq/backend/core/user"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, auth.ErrAccountDeactivated.Error())
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// notFoundErrs are the domain sentinels rendered as a 404.
var notFoundErrs = []error{
	user.ErrNotFound,
	school.ErrNotFound,
	course.ErrNotFound,
	subject.ErrNotFound,
	enrollment.ErrNotFound,
	grade.ErrNotFound,
	report.ErrNotFound,
	notification.ErrNotFound,
}

func isNotFound(err error) bool {
	for _, nf := range notFoundErrs {
		if err == nf {
			return true
		}
	}
	return false
}

// errorResponse is the failure envelope; handlers return plain errors and the
// error handler renders them.
type errorResponse struct {
	Success bool        `json:"success"`
	Message interface{} `json:"message,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var res errorResponse

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				res.Message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			res.Message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusUnprocessableEntity
			res.Message = "validation failed"
			res.Errors = fldErrs
		case *core.ValidationError:
			code = http.StatusUnprocessableEntity
			res.Message = "validation failed"
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				res.Errors = fldErrs
			} else {
				res.Message = origErr.Error()
			}
		case *core.ConflictError:
			code = http.StatusUnprocessableEntity
			res.Message = origErr.Error()
		case *policy.ForbiddenError:
			code = http.StatusForbidden
			res.Message = origErr.Reason
		default:
			switch {
			case origErr == auth.ErrAuthenticationFailed, origErr == auth.ErrInvalidToken:
				code = http.StatusUnauthorized
				res.Message = origErr.Error()
			case origErr == auth.ErrAccountDeactivated, origErr == auth.ErrRefreshExpired:
				code = http.StatusForbidden
				res.Message = origErr.Error()
			case isNotFound(origErr):
				code = http.StatusNotFound
				res.Message = origErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				res.Message = msg

				if usr, uErr := getContextUser(ctx); uErr == nil {
					logger.Error(msg, errors.Wrap(err, msg), usr)
				} else {
					logger.Error(msg, errors.Wrap(err, msg))
				}

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, res)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
