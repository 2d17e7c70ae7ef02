package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sauti/core"
	"github.com/trezcool/sauti/core/user"
)

type userAPI struct {
	svc user.ServiceInterface
}

func registerUserAPI(g *echo.Group, jwt, ctxUser echo.MiddlewareFunc, svc user.ServiceInterface) {
	api := userAPI{svc: svc}

	// token only: the user may not exist yet
	g.POST("/sync-user", api.sync, jwt)

	ug := g.Group("/users", jwt, ctxUser)
	ug.GET("/me", api.me)
	ug.GET("/dept-admins", api.deptAdmins, roleMiddleware(user.RoleDSWAdmin))
}

// Handlers

func (api *userAPI) sync(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data user.SyncUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SyncUser")
	}
	// users may only sync themselves
	if id := core.CleanString(data.ID); id != "" && id != claims.Subject {
		return errHTTPForbidden
	}

	usr, created, err := api.svc.Sync(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "syncing user")
	}
	if created {
		return ctx.JSON(http.StatusCreated, usr)
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userAPI) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userAPI) deptAdmins(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Role = user.RoleDeptAdmin

	users, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying department admins")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}
