package echoapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mafunzo/core/training"
)

// sortable training columns
var trainingOrderingFields = []string{"title", "status", "created_at", "updated_at"}

type trainingApi struct {
	deps ServerDeps
}

func registerTrainingAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := trainingApi{deps: deps}

	tg := g.Group("/trainings", jwt)
	tg.GET("", api.query)
	tg.POST("", api.create, adminMiddleware())
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update, adminMiddleware())
	tg.DELETE("/:id", api.destroy, adminMiddleware())
	tg.POST("/:id/video", api.uploadVideo, adminMiddleware())
}

// Handlers

func (api *trainingApi) create(ctx echo.Context) error {
	var data training.NewTraining
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTraining")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	trn, err := api.deps.TrainingSvc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating training")
	}
	return ctx.JSON(http.StatusCreated, trn)
}

// query lists trainings. Learners only ever see published ones; admins
// may filter by any status.
func (api *trainingApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(training.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []training.Training{})
	}
	filter.Clean()
	if !claims.IsAdmin {
		filter.Status = training.StatusPublished
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, trainingOrderingFields...)

	trainings, err := api.deps.TrainingSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying trainings")
	}
	if trainings == nil {
		trainings = []training.Training{}
	}
	return ctx.JSON(http.StatusOK, trainings)
}

func (api *trainingApi) retrieve(ctx echo.Context) error {
	trn, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && !trn.IsPublished() {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, trn)
}

func (api *trainingApi) update(ctx echo.Context) error {
	trn, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data training.UpdateTraining
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTraining")
	}
	if err := data.Validate(trn, api.deps.Validate); err != nil {
		return err
	}

	trn, err = api.deps.TrainingSvc.Update(ctx.Request().Context(), trn.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating training")
	}
	return ctx.JSON(http.StatusOK, trn)
}

func (api *trainingApi) destroy(ctx echo.Context) error {
	trn, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.deps.TrainingSvc.Delete(ctx.Request().Context(), trn.ID); err != nil {
		return errors.Wrap(err, "deleting training")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// uploadVideo stores a training video under MediaRoot and records its
// serving URL on the Training.
func (api *trainingApi) uploadVideo(ctx echo.Context) error {
	trn, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	file, err := ctx.FormFile("video")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "video file is required")
	}

	src, err := file.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded video")
	}
	defer src.Close()

	dir := filepath.Join(api.deps.Conf.MediaRoot, "trainings", trn.ID)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating media directory")
	}
	dstPath := filepath.Join(dir, filepath.Base(file.Filename))
	dst, err := os.Create(dstPath)
	if err != nil {
		return errors.Wrap(err, "creating video file")
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return errors.Wrap(err, "saving video file")
	}

	videoURL := fmt.Sprintf("/media/trainings/%s/%s", trn.ID, filepath.Base(file.Filename))
	trn, err = api.deps.TrainingSvc.SetVideo(ctx.Request().Context(), trn.ID, dstPath, videoURL)
	if err != nil {
		return errors.Wrap(err, "recording training video")
	}
	return ctx.JSON(http.StatusOK, trn)
}

func (api *trainingApi) getObject(ctx echo.Context) (training.Training, error) {
	trn, err := api.deps.TrainingSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == training.ErrNotFound {
			return training.Training{}, errHttpNotFound
		}
		return training.Training{}, errors.Wrap(err, "finding training by ID")
	}
	return trn, nil
}
