package echoapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/achievement"
	"github.com/trezcool/pathwise/core/audit"
	"github.com/trezcool/pathwise/core/dashboard"
	"github.com/trezcool/pathwise/core/origin"
)

// Audited actions
const (
	actionAchievementUpdate = "achievement.update"
	actionAchievementDelete = "achievement.delete"
	actionCommentDelete     = "comment.delete"
)

type adminApi struct {
	achievementSvc *achievement.Service
	dashboardSvc   *dashboard.Service
	auditSvc       *audit.Service
	logger         core.Logger
	maskForbidden  bool
}

// LocalOnlyResponse answers an override the origin refused when masking is on.
type LocalOnlyResponse struct {
	Success   bool   `json:"success"`
	LocalOnly bool   `json:"localOnly"`
	Message   string `json:"message"`
}

func registerAdminAPI(g *echo.Group, api adminApi) {
	g.GET("/dashboard", api.dashboard)
	g.GET("/audit", api.queryAudit)

	g.PUT("/achievements/:id", api.updateAchievement)
	g.DELETE("/achievements/:id", api.destroyAchievement)
	g.GET("/comments", api.queryComments)
	g.DELETE("/comments/:id", api.destroyComment)
}

// override runs a mutating admin call, records it in the audit trail and
// answers with the origin response, masked when configured so.
func (api *adminApi) override(ctx echo.Context, action, target string, call func(context.Context, string) (origin.Response, error)) error {
	reqCtx := ctx.Request().Context()
	res, err := call(reqCtx, getContextToken(ctx))
	if err != nil && isValidationError(err) {
		return err
	}

	masked := err == nil && api.maskForbidden && res.StatusCode == http.StatusForbidden
	id, _ := getContextIdentity(ctx)
	if _, aErr := api.auditSvc.Record(reqCtx, id.Subject, action, target, res.StatusCode, masked); aErr != nil {
		api.logger.Error(fmt.Sprintf("auditing %s: %v", action, aErr), aErr, id)
	}

	if masked {
		return ctx.JSON(http.StatusOK, LocalOnlyResponse{
			Success:   true,
			LocalOnly: true,
			Message:   "the backend refused the change; it was only applied locally",
		})
	}
	return relay(ctx, res, err)
}

// Handlers

func (api *adminApi) dashboard(ctx echo.Context) error {
	stats, err := api.dashboardSvc.Stats(ctx.Request().Context(), getContextToken(ctx))
	if err != nil {
		return errors.Wrap(err, "computing dashboard")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *adminApi) queryAudit(ctx echo.Context) error {
	filter := audit.Filter{
		Actor:   ctx.QueryParam("actor"),
		Action:  ctx.QueryParam("action"),
		Outcome: ctx.QueryParam("outcome"),
		Limit:   queryInt(ctx, "limit", audit.DefaultLimit),
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	entries, err := api.auditSvc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying audit entries")
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *adminApi) updateAchievement(ctx echo.Context) error {
	var data achievement.UpdateAchievement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAchievement")
	}
	id := ctx.Param("id")
	return api.override(ctx, actionAchievementUpdate, id, func(c context.Context, token string) (origin.Response, error) {
		return api.achievementSvc.AdminUpdate(c, token, id, data)
	})
}

func (api *adminApi) destroyAchievement(ctx echo.Context) error {
	id := ctx.Param("id")
	return api.override(ctx, actionAchievementDelete, id, func(c context.Context, token string) (origin.Response, error) {
		return api.achievementSvc.AdminDelete(c, token, id)
	})
}

func (api *adminApi) queryComments(ctx echo.Context) error {
	res, err := api.achievementSvc.AdminComments(ctx.Request().Context(), getContextToken(ctx), ctx.QueryParams())
	return relay(ctx, res, err)
}

func (api *adminApi) destroyComment(ctx echo.Context) error {
	id := ctx.Param("id")
	return api.override(ctx, actionCommentDelete, id, func(c context.Context, token string) (origin.Response, error) {
		return api.achievementSvc.AdminDeleteComment(c, token, id)
	})
}
