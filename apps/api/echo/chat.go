package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sauti/core/faq"
	"github.com/trezcool/sauti/core/user"
)

type chatAPI struct {
	svc faq.ServiceInterface
}

func registerChatAPI(g *echo.Group, jwt, ctxUser echo.MiddlewareFunc, svc faq.ServiceInterface) {
	api := chatAPI{svc: svc}
	g.POST("/chat", api.ask, jwt, ctxUser)
}

func (api *chatAPI) ask(ctx echo.Context) error {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	if !ok {
		return errUnauthorized
	}

	var data faq.Question
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Question")
	}
	ans, err := api.svc.Ask(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "asking question")
	}
	return ctx.JSON(http.StatusOK, ans)
}
