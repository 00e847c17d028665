package server

import (
	"github.com/paperflow-ai/paperflow/internal/server/middleware"
	"github.com/paperflow-ai/paperflow/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Paper lifecycle
	apiRoutes.POST("/papers", routes.CreatePaperHandler)
	apiRoutes.POST("/papers/sample", routes.CreateSamplePaperHandler)
	apiRoutes.POST("/papers/:id/retry", routes.RetryPaperHandler)
	apiRoutes.GET("/papers", routes.GetPapersHandler)
	apiRoutes.GET("/papers/:id", routes.GetPaperHandler)
	apiRoutes.GET("/papers/:id/status", routes.GetPaperStatusHandler)
	apiRoutes.GET("/papers/:id/file", routes.GetPaperFileHandler)
	apiRoutes.DELETE("/papers/:id", routes.DeletePaperHandler)

	// Extracted workflow
	apiRoutes.GET("/papers/:id/workflow", routes.GetWorkflowHandler)
	apiRoutes.GET("/papers/:id/workflow/components", routes.GetWorkflowComponentsHandler)
	apiRoutes.GET("/papers/:id/workflow/relationships", routes.GetWorkflowRelationshipsHandler)
	apiRoutes.GET("/papers/:id/workflow/summary", routes.GetWorkflowSummaryHandler)
	apiRoutes.GET("/papers/:id/workflow/relationship-types", routes.GetWorkflowRelationshipTypesHandler)

	// Projections
	apiRoutes.POST("/papers/:id/projections/click", routes.ResolveClickHandler)
	apiRoutes.GET("/papers/:id/projections/:kind", routes.GetProjectionHandler)
}
