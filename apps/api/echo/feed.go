package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sauti/core/report"
)

type feedAPI struct {
	svc report.ServiceInterface
}

func registerMetaAPI(g *echo.Group) {
	g.GET("/categories", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, report.Categories)
	})
	g.GET("/priorities", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, report.Priorities)
	})
}

// registerFeedAPI registers the public, unauthenticated feed.
func registerFeedAPI(g *echo.Group, svc report.ServiceInterface) {
	api := feedAPI{svc: svc}
	g.GET("/feed", api.feed)
}

func (api *feedAPI) feed(ctx echo.Context) error {
	filter := new(report.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	items, err := api.svc.Feed(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying feed")
	}
	return ctx.JSON(http.StatusOK, items)
}
