package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pathwise/core/auth"
)

const (
	contextTokenKey    = "token"
	contextIdentityKey = "identity"
)

// authMiddleware rejects requests without a readable bearer token and keeps
// the token and the caller's identity in the context.
func authMiddleware(inspector *auth.Inspector, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token := auth.ExtractToken(ctx.Request(), cookieName)
			if token == "" {
				return errUnauthorized
			}
			id, err := inspector.Inspect(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.Cause(err).Error()).SetInternal(err)
			}
			ctx.Set(contextTokenKey, token)
			ctx.Set(contextIdentityKey, id)
			return next(ctx)
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, ok := getContextIdentity(ctx)
			if !ok {
				return errUnauthorized
			}
			if id.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func getContextIdentity(ctx echo.Context) (auth.Identity, bool) {
	id, ok := ctx.Get(contextIdentityKey).(auth.Identity)
	return id, ok
}

func getContextToken(ctx echo.Context) string {
	token, _ := ctx.Get(contextTokenKey).(string)
	return token
}
