package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/notification"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHTTPForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHTTPNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")

	// domain lookups answered with a 404
	notFoundErrs = []error{user.ErrNotFound, schedule.ErrNotFound, notification.ErrNotFound}
)

// errorResponse maps err to a status code and a JSON body.
// ok is false for unexpected errors, which must be logged.
func errorResponse(err error, translator ut.Translator) (code int, body interface{}, ok bool) {
	cause := errors.Cause(err)
	for _, nf := range notFoundErrs {
		if errors.Is(cause, nf) {
			cause = errHTTPNotFound
			break
		}
	}

	switch e := cause.(type) {
	case *echo.HTTPError:
		if e == middleware.ErrJWTMissing {
			return http.StatusUnauthorized, echo.Map{"error": e.Message}, true
		}
		if inner, isHTTP := e.Internal.(*echo.HTTPError); isHTTP {
			e = inner
		}
		if msg, isStr := e.Message.(string); isStr {
			return e.Code, echo.Map{"error": msg}, true
		}
		return e.Code, e.Message, true
	case validator.ValidationErrors:
		return http.StatusBadRequest, core.TranslateErrors(e, translator), true
	case *core.ValidationError:
		if fields := e.FieldMap(); fields != nil {
			return http.StatusBadRequest, fields, true
		}
		return http.StatusBadRequest, echo.Map{"error": e.Error()}, true
	}
	return http.StatusInternalServerError, echo.Map{"error": http.StatusText(http.StatusInternalServerError)}, false
}

// newAppHTTPErrorHandler returns an echo.HTTPErrorHandler rendering our errors as JSON.
// signalShutdown is called whenever a core shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, body, ok := errorResponse(err, translator)
		if !ok {
			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr = user.User{ID: claims.Subject, Username: claims.Username, Email: claims.Email}
			}
			logger.Error(ctx.Request().Method+" "+ctx.Path(), err, usr)

			if core.IsShutdown(err) && signalShutdown != nil {
				signalShutdown()
			}
			if ctx.Echo().Debug {
				body = echo.Map{"error": err.Error()}
			}
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, body)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
