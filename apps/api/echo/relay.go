package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/pathwise/core/origin"
)

// relay writes the origin answer back to the caller, status and body untouched.
func relay(ctx echo.Context, res origin.Response, err error) error {
	if err != nil {
		return originError(err)
	}
	return ctx.JSONBlob(res.StatusCode, res.Body)
}
