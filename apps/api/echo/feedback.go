package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pathwise/core/feedback"
)

type feedbackApi struct {
	svc *feedback.Service
}

func registerFeedbackAPI(g *echo.Group, svc *feedback.Service) {
	api := feedbackApi{svc: svc}
	g.POST("/feedback", api.create)
}

func (api *feedbackApi) create(ctx echo.Context) error {
	var data feedback.Feedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Feedback")
	}
	id, _ := getContextIdentity(ctx)
	res, err := api.svc.Submit(ctx.Request().Context(), id, getContextToken(ctx), data)
	return relay(ctx, res, err)
}
