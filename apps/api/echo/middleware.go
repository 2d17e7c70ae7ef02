package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/sauti/core/user"
)

// ctxUserMiddleware requires the token's subject to be a synced User.
func ctxUserMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, err := getContextUser(ctx, svc); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

// roleMiddleware must run after ctxUserMiddleware.
func roleMiddleware(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, ok := ctx.Get(contextUserKey).(user.User)
			if !ok {
				return errUnauthorized
			}
			if !usr.HasRole(roles...) {
				return errHTTPForbidden
			}
			return next(ctx)
		}
	}
}
