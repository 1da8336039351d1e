package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pathwise/core/achievement"
)

type achievementApi struct {
	svc *achievement.Service
}

func registerAchievementAPI(g *echo.Group, svc *achievement.Service) {
	api := achievementApi{svc: svc}

	ag := g.Group("/achievements")
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.GET("/:id", api.retrieve)
	ag.GET("/:id/comments", api.comments)
	ag.POST("/:id/comments", api.addComment)
	ag.POST("/:id/like", api.like)
}

// Handlers

func (api *achievementApi) query(ctx echo.Context) error {
	res, err := api.svc.List(ctx.Request().Context(), getContextToken(ctx), ctx.QueryParams())
	return relay(ctx, res, err)
}

func (api *achievementApi) create(ctx echo.Context) error {
	var data achievement.NewAchievement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAchievement")
	}
	res, err := api.svc.Create(ctx.Request().Context(), getContextToken(ctx), data)
	return relay(ctx, res, err)
}

func (api *achievementApi) retrieve(ctx echo.Context) error {
	res, err := api.svc.Get(ctx.Request().Context(), getContextToken(ctx), ctx.Param("id"))
	return relay(ctx, res, err)
}

func (api *achievementApi) comments(ctx echo.Context) error {
	res, err := api.svc.Comments(ctx.Request().Context(), getContextToken(ctx), ctx.Param("id"))
	return relay(ctx, res, err)
}

func (api *achievementApi) addComment(ctx echo.Context) error {
	var data achievement.NewComment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	res, err := api.svc.AddComment(ctx.Request().Context(), getContextToken(ctx), ctx.Param("id"), data)
	return relay(ctx, res, err)
}

func (api *achievementApi) like(ctx echo.Context) error {
	res, err := api.svc.Like(ctx.Request().Context(), getContextToken(ctx), ctx.Param("id"))
	return relay(ctx, res, err)
}
