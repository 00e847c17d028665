package routes

import (
	"net/http"

	"github.com/paperflow-ai/paperflow/internal/server/middleware"
	"github.com/paperflow-ai/paperflow/pkg/workflow"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// GetWorkflowSummaryHandler returns the aggregate workflow summary: counts by
// type, novelty count and the most connected components.
func GetWorkflowSummaryHandler(c echo.Context) error {
	type summaryParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(summaryParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	graph, paper, err := loadGraph(c, params.ID)
	if err != nil {
		return paperNotFound(c, err)
	}

	summary := workflow.ComputeSummary(graph)
	return c.JSON(http.StatusOK, map[string]any{
		"paper_id": paper.ID,
		"summary":  summary,
	})
}
