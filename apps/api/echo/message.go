package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pathwise/core/message"
)

type messageApi struct {
	svc *message.Service
}

func registerMessageAPI(g *echo.Group, svc *message.Service) {
	api := messageApi{svc: svc}

	mg := g.Group("/messages")
	mg.GET("/conversations", api.conversations)
	mg.GET("/unread-count", api.unreadCount)
	mg.POST("", api.send)
	mg.GET("/:id", api.thread)
	mg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *messageApi) conversations(ctx echo.Context) error {
	res, err := api.svc.Conversations(ctx.Request().Context(), getContextToken(ctx))
	return relay(ctx, res, err)
}

func (api *messageApi) unreadCount(ctx echo.Context) error {
	res, err := api.svc.UnreadCount(ctx.Request().Context(), getContextToken(ctx))
	return relay(ctx, res, err)
}

func (api *messageApi) thread(ctx echo.Context) error {
	res, err := api.svc.Thread(ctx.Request().Context(), getContextToken(ctx), ctx.Param("id"), ctx.QueryParams())
	return relay(ctx, res, err)
}

func (api *messageApi) send(ctx echo.Context) error {
	var data message.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	res, err := api.svc.Send(ctx.Request().Context(), getContextToken(ctx), data)
	return relay(ctx, res, err)
}

func (api *messageApi) destroy(ctx echo.Context) error {
	res, err := api.svc.Delete(ctx.Request().Context(), getContextToken(ctx), ctx.Param("id"))
	return relay(ctx, res, err)
}
