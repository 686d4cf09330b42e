package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mafunzo/core/progress"
)

type (
	progressApi struct {
		deps ServerDeps
	}

	RatingResponse struct {
		Rating *progress.Rating `json:"rating"`
	}
)

func registerProgressAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := progressApi{deps: deps}

	pg := g.Group("/progress", jwt)
	pg.GET("", api.query)
	pg.POST("", api.save)

	rg := g.Group("/ratings", jwt)
	rg.GET("", api.getRating)
	rg.POST("", api.saveRating)
}

// Handlers

// query returns all of a user's progress records plus completion
// statistics. Learners only see their own; admins may pass any userId.
func (api *progressApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	userID := ctx.QueryParam("userId")
	if userID == "" || !claims.IsAdmin {
		userID = claims.Subject
	}

	up, err := api.deps.ProgressSvc.QueryByUser(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "querying user progress")
	}
	return ctx.JSON(http.StatusOK, up)
}

// save upserts a progress report. The user ID always comes from the
// token; a body userId is only honored for admins reporting on behalf
// of someone else.
func (api *progressApi) save(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data progress.SaveProgress
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveProgress")
	}
	if data.UserID == "" || !claims.IsAdmin {
		data.UserID = claims.Subject
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	rec, err := api.deps.ProgressSvc.Save(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving progress")
	}

	progressWrites.Inc()
	if rec.Completed {
		trainingCompletions.Inc()
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// getRating returns the caller's rating of a training, wrapped in a
// {"rating": ...} envelope; the rating is null when not rated yet.
func (api *progressApi) getRating(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	trainingID := ctx.QueryParam("trainingId")
	if trainingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "trainingId is required")
	}
	userID := ctx.QueryParam("userId")
	if userID == "" || !claims.IsAdmin {
		userID = claims.Subject
	}

	rat, err := api.deps.ProgressSvc.GetRating(ctx.Request().Context(), userID, trainingID)
	if err != nil {
		return errors.Wrap(err, "finding rating")
	}
	return ctx.JSON(http.StatusOK, RatingResponse{Rating: rat})
}

func (api *progressApi) saveRating(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data progress.SaveRating
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveRating")
	}
	if data.UserID == "" || !claims.IsAdmin {
		data.UserID = claims.Subject
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if _, err := api.deps.ProgressSvc.Rate(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "saving rating")
	}

	ratingWrites.Inc()
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}
