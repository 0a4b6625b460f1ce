package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
)

var (
	errInvalidToken     = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired jwt")
	errInvalidSignature = echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// Rows the actor may not see are reported exactly like missing rows.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code    int
			message interface{}

			httpErr *echo.HTTPError
			bErr    *account.BootstrapError
			cErr    *core.ConstraintError
			vErr    *core.ValidationError
			vErrs   validator.ValidationErrors
		)

		switch {
		case errors.As(err, &httpErr):
			if httpErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = httpErr.Message
				break
			}
			if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
				httpErr = herr
			}
			code = httpErr.Code
			message = httpErr.Message
		case errors.Is(err, core.ErrNotFound):
			code = http.StatusNotFound
			message = http.StatusText(http.StatusNotFound)
		case errors.As(err, &bErr):
			code = http.StatusInternalServerError
			msg := "account bootstrap failed: " + bErr.Step
			message = msg
			logger.Error(msg, err)
		case errors.As(err, &cErr):
			code = http.StatusConflict
			message = echo.Map{"error": "constraint violation", "constraint": cErr.Constraint}
		case errors.As(err, &vErrs):
			fldErrs := make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				fldErrs[fe.Field()] = fe.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case errors.As(err, &vErr):
			if vErr.Fields != nil {
				fldErrs := make(map[string]string, len(vErr.Fields))
				for _, fe := range vErr.Fields {
					fldErrs[fe.Field] = fe.Error
				}
				message = fldErrs
			} else {
				message = vErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), contextActor(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
			if ctx.Echo().Debug {
				message = err.Error()
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
