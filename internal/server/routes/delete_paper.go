package routes

import (
	"net/http"

	"github.com/paperflow-ai/paperflow/internal/server/middleware"
	"github.com/paperflow-ai/paperflow/internal/storage"
	"github.com/paperflow-ai/paperflow/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// DeletePaperHandler removes a paper, its extracted graph, and the stored
// source file.
func DeletePaperHandler(c echo.Context) error {
	type deletePaperParams struct {
		ID string `param:"id" validate:"required"`
	}

	type deletePaperResponse struct {
		Message string `json:"message"`
	}

	params := new(deletePaperParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deletePaperResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, deletePaperResponse{
			Message: "Invalid request params",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	paper, err := app.Store.GetPaper(ctx, params.ID)
	if err != nil {
		return paperNotFound(c, err)
	}

	if err := app.Store.DeletePaper(ctx, params.ID); err != nil {
		return paperNotFound(c, err)
	}

	if paper.FileKey != "" {
		if err := storage.DeleteFile(ctx, app.S3, paper.FileKey); err != nil {
			logger.Warn("Failed to delete paper file from S3", "paper_id", params.ID, "key", paper.FileKey, "err", err)
		}
	}

	return c.JSON(http.StatusOK, deletePaperResponse{
		Message: "Paper deleted",
	})
}
