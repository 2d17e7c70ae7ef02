package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sauti/core/report"
	"github.com/trezcool/sauti/core/user"
)

type reportAPI struct {
	svc report.ServiceInterface
}

func registerReportAPI(g *echo.Group, jwt, ctxUser echo.MiddlewareFunc, svc report.ServiceInterface) {
	api := reportAPI{svc: svc}

	student := roleMiddleware(user.RoleStudent)
	dsw := roleMiddleware(user.RoleDSWAdmin)
	dept := roleMiddleware(user.RoleDeptAdmin)

	rg := g.Group("/report", jwt, ctxUser)
	rg.POST("", api.submit, student)
	rg.GET("/eligibility", api.eligibility, student)

	// transitions
	tg := rg.Group("/:id")
	tg.POST("/assign", api.assign, dsw)
	tg.POST("/accept", api.accept, dept)
	tg.POST("/resolve", api.resolve, dept)
	tg.POST("/approve", api.approve, dsw)
	tg.POST("/request-changes", api.requestChanges, dsw)

	// dashboards
	dg := g.Group("/reports", jwt, ctxUser)
	dg.GET("", api.query, roleMiddleware(user.RoleDSWAdmin, user.RoleDeptAdmin))
	dg.GET("/mine", api.query, student)
	dg.GET("/:id", api.retrieve)
}

// Handlers

func (api *reportAPI) submit(ctx echo.Context) error {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	if !ok {
		return errUnauthorized
	}

	var data report.NewReport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReport")
	}
	rpt, err := api.svc.Submit(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "submitting report")
	}
	return ctx.JSON(http.StatusCreated, rpt)
}

func (api *reportAPI) eligibility(ctx echo.Context) error {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	if !ok {
		return errUnauthorized
	}
	elig, err := api.svc.Eligibility(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "checking eligibility")
	}
	return ctx.JSON(http.StatusOK, elig)
}

func (api *reportAPI) assign(ctx echo.Context) error {
	var data report.AssignReport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignReport")
	}
	return api.transition(ctx, func(usr user.User, id string) (report.Report, error) {
		return api.svc.Assign(ctx.Request().Context(), usr, id, data)
	})
}

func (api *reportAPI) accept(ctx echo.Context) error {
	return api.transition(ctx, func(usr user.User, id string) (report.Report, error) {
		return api.svc.Accept(ctx.Request().Context(), usr, id)
	})
}

func (api *reportAPI) resolve(ctx echo.Context) error {
	var data report.ResolveReport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResolveReport")
	}
	return api.transition(ctx, func(usr user.User, id string) (report.Report, error) {
		return api.svc.Resolve(ctx.Request().Context(), usr, id, data)
	})
}

func (api *reportAPI) approve(ctx echo.Context) error {
	return api.transition(ctx, func(usr user.User, id string) (report.Report, error) {
		return api.svc.Approve(ctx.Request().Context(), usr, id)
	})
}

func (api *reportAPI) requestChanges(ctx echo.Context) error {
	var data report.RequestChanges
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RequestChanges")
	}
	return api.transition(ctx, func(usr user.User, id string) (report.Report, error) {
		return api.svc.RequestChanges(ctx.Request().Context(), usr, id, data)
	})
}

func (api *reportAPI) transition(ctx echo.Context, apply func(usr user.User, id string) (report.Report, error)) error {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	if !ok {
		return errUnauthorized
	}
	rpt, err := apply(usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "applying transition")
	}
	return ctx.JSON(http.StatusOK, rpt)
}

func (api *reportAPI) query(ctx echo.Context) error {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	if !ok {
		return errUnauthorized
	}
	filter := new(report.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	summaries, err := api.svc.Query(ctx.Request().Context(), usr, filter)
	if err != nil {
		return errors.Wrap(err, "querying reports")
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *reportAPI) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	if !ok {
		return errUnauthorized
	}
	detail, err := api.svc.Get(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving report")
	}
	return ctx.JSON(http.StatusOK, detail)
}
