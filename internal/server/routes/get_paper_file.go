package routes

import (
	"net/http"

	"github.com/paperflow-ai/paperflow/internal/server/middleware"
	"github.com/paperflow-ai/paperflow/internal/storage"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// GetPaperFileHandler returns a short-lived presigned download link for the
// paper's source file.
func GetPaperFileHandler(c echo.Context) error {
	type getFileParams struct {
		ID string `param:"id" validate:"required"`
	}

	type getFileResponse struct {
		Message string `json:"message"`
		URL     string `json:"url,omitempty"`
	}

	params := new(getFileParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getFileResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getFileResponse{
			Message: "Invalid request params",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	paper, err := app.Store.GetPaper(ctx, params.ID)
	if err != nil {
		return paperNotFound(c, err)
	}
	if paper.FileKey == "" {
		return c.JSON(http.StatusNotFound, getFileResponse{
			Message: "Paper has no stored file",
		})
	}

	url, err := storage.GenerateDownloadLink(ctx, app.S3, paper.FileKey)
	if err != nil {
		return c.JSON(http.StatusNotFound, getFileResponse{
			Message: "File does not exist",
		})
	}

	return c.JSON(http.StatusOK, getFileResponse{
		Message: "Download link generated",
		URL:     url,
	})
}
