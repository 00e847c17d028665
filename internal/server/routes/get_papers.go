package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/paperflow-ai/paperflow/internal/server/middleware"
	"github.com/paperflow-ai/paperflow/internal/store"
	"github.com/paperflow-ai/paperflow/internal/util"
	"github.com/paperflow-ai/paperflow/pkg/workflow"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

func paperNotFound(c echo.Context, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": workflow.ErrTypeNotFound,
		})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "Internal server error",
	})
}

// GetPapersHandler lists all papers with their status and progress, newest
// first.
func GetPapersHandler(c echo.Context) error {
	type paperSummary struct {
		ID          string     `json:"id"`
		Title       string     `json:"title,omitempty"`
		Overview    string     `json:"overview,omitempty"`
		Filename    string     `json:"filename,omitempty"`
		Status      string     `json:"status"`
		Progress    int32      `json:"progress"`
		UploadedAt  time.Time  `json:"uploaded_at"`
		CompletedAt *time.Time `json:"completed_at,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	papers, err := app.Store.ListPapers(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	resp := make([]paperSummary, 0, len(papers))
	for _, paper := range papers {
		resp = append(resp, paperSummary{
			ID:          paper.ID,
			Title:       paper.Title,
			Overview:    paper.Overview,
			Filename:    paper.Filename,
			Status:      string(paper.Status),
			Progress:    util.CalculateProgress(paper.Status, paper.Diagnostics),
			UploadedAt:  paper.UploadedAt,
			CompletedAt: paper.CompletedAt,
		})
	}

	return c.JSON(http.StatusOK, resp)
}

// GetPaperHandler returns one paper in full, including its extracted
// components and relationships.
func GetPaperHandler(c echo.Context) error {
	type getPaperParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(getPaperParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	paper, err := app.Store.GetPaper(c.Request().Context(), params.ID)
	if err != nil {
		return paperNotFound(c, err)
	}

	return c.JSON(http.StatusOK, paper)
}
