package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/auth"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errInvalidRequestBody = "invalid request"
)

// originError wraps a failed origin call. Input validation errors keep their
// 400; anything else ends up as a generic 500.
func originError(err error) error {
	if isValidationError(err) {
		return err
	}
	return errors.Wrap(err, "calling backend")
}

func isValidationError(err error) bool {
	switch errors.Cause(err).(type) {
	case validator.ValidationErrors, *core.ValidationError:
		return true
	}
	return false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// Every error body is an object with an "error" field.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		body := echo.Map{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			code = origErr.Code
			if m, ok := origErr.Message.(string); ok {
				body["error"] = m
			} else {
				body["error"] = fmt.Sprint(origErr.Message)
			}
			if code >= http.StatusInternalServerError && origErr.Internal != nil {
				id, _ := getContextIdentity(ctx)
				logger.Error(fmt.Sprintf("%d: %v", code, origErr.Internal), origErr.Internal, id)
			}
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			body["error"] = errInvalidRequestBody
			body["fields"] = fldErrs
		case *core.ValidationError:
			code = http.StatusBadRequest
			body["error"] = origErr.Error()
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				body["error"] = errInvalidRequestBody
				body["fields"] = fldErrs
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			body["error"] = msg

			var id auth.Identity
			if ctxID, ok := getContextIdentity(ctx); ok {
				id = ctxID
			}
			logger.Error(msg, errors.Wrap(err, msg), id)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			body["detail"] = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
