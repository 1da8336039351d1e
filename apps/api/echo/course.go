package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/pathwise/core/course"
)

type courseApi struct {
	svc *course.Service
}

func registerCourseAPI(g *echo.Group, svc *course.Service) {
	api := courseApi{svc: svc}

	cg := g.Group("/courses")
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.GET("/:id/progress", api.progress)
	cg.POST("/:id/tasks/:taskId/toggle", api.toggleTask)
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	res, err := api.svc.List(ctx.Request().Context(), getContextToken(ctx), ctx.QueryParams())
	return relay(ctx, res, err)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	res, err := api.svc.Get(ctx.Request().Context(), getContextToken(ctx), ctx.Param("id"))
	return relay(ctx, res, err)
}

func (api *courseApi) progress(ctx echo.Context) error {
	res, err := api.svc.Progress(ctx.Request().Context(), getContextToken(ctx), ctx.Param("id"))
	return relay(ctx, res, err)
}

func (api *courseApi) toggleTask(ctx echo.Context) error {
	res, err := api.svc.ToggleTask(ctx.Request().Context(), getContextToken(ctx), ctx.Param("id"), ctx.Param("taskId"))
	return relay(ctx, res, err)
}
