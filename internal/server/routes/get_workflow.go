package routes

import (
	"net/http"

	"github.com/paperflow-ai/paperflow/internal/server/middleware"
	"github.com/paperflow-ai/paperflow/pkg/logger"
	"github.com/paperflow-ai/paperflow/pkg/workflow"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// GetWorkflowHandler returns the extracted workflow graph of a paper:
// components, relationships, and the aggregate summary. For failed runs with
// partial output the components are returned without a summary, so clients
// can still render a degraded view.
func GetWorkflowHandler(c echo.Context) error {
	type workflowParams struct {
		ID string `param:"id" validate:"required"`
	}

	type workflowResponse struct {
		PaperID       string                  `json:"paper_id"`
		Title         string                  `json:"title,omitempty"`
		Overview      string                  `json:"overview,omitempty"`
		Status        string                  `json:"status"`
		Components    []workflow.Component    `json:"components"`
		Relationships []workflow.Relationship `json:"relationships"`
		Summary       *workflow.Summary       `json:"summary,omitempty"`
	}

	params := new(workflowParams)
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

	resp := workflowResponse{
		PaperID:       paper.ID,
		Title:         paper.Title,
		Overview:      paper.Overview,
		Status:        string(paper.Status),
		Components:    paper.Components,
		Relationships: paper.Relationships,
	}
	if resp.Components == nil {
		resp.Components = []workflow.Component{}
	}
	if resp.Relationships == nil {
		resp.Relationships = []workflow.Relationship{}
	}

	if len(paper.Components) > 0 {
		graph, err := workflow.NewGraph(paper.Components, paper.Relationships)
		if err != nil {
			logger.Warn("Stored workflow graph fails validation", "paper_id", paper.ID, "err", err)
		} else {
			summary := workflow.ComputeSummary(graph)
			resp.Summary = &summary
		}
	}

	return c.JSON(http.StatusOK, resp)
}
