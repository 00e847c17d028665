package routes

import (
	"net/http"

	"github.com/paperflow-ai/paperflow/internal/server/middleware"
	"github.com/paperflow-ai/paperflow/pkg/workflow"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// GetWorkflowComponentsHandler returns the extracted components of a paper,
// optionally filtered by component type.
func GetWorkflowComponentsHandler(c echo.Context) error {
	type componentsParams struct {
		ID   string `param:"id" validate:"required"`
		Type string `query:"type"`
	}

	params := new(componentsParams)
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

	components := paper.Components
	if params.Type != "" {
		filtered := make([]workflow.Component, 0, len(components))
		for _, component := range components {
			if string(component.Type) == params.Type {
				filtered = append(filtered, component)
			}
		}
		components = filtered
	}
	if components == nil {
		components = []workflow.Component{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"paper_id":   paper.ID,
		"components": components,
	})
}
