package routes

import (
	"net/http"

	"github.com/paperflow-ai/paperflow/internal/server/middleware"
	"github.com/paperflow-ai/paperflow/pkg/workflow"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// GetWorkflowRelationshipTypesHandler returns the distinct relationship types
// present in a paper's workflow, in first-occurrence order. Clients use it to
// populate the relationship filter.
func GetWorkflowRelationshipTypesHandler(c echo.Context) error {
	type typesParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(typesParams)
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

	seen := make(map[workflow.RelationshipType]bool)
	types := []workflow.RelationshipType{}
	for _, relationship := range paper.Relationships {
		if !seen[relationship.Type] {
			seen[relationship.Type] = true
			types = append(types, relationship.Type)
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"paper_id":           paper.ID,
		"relationship_types": types,
	})
}
