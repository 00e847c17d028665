package routes

import (
	"net/http"

	"github.com/paperflow-ai/paperflow/internal/server/middleware"
	"github.com/paperflow-ai/paperflow/pkg/workflow"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// GetWorkflowRelationshipsHandler returns the extracted relationships of a
// paper in extraction order.
func GetWorkflowRelationshipsHandler(c echo.Context) error {
	type relationshipsParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(relationshipsParams)
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

	relationships := paper.Relationships
	if relationships == nil {
		relationships = []workflow.Relationship{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"paper_id":      paper.ID,
		"relationships": relationships,
	})
}
