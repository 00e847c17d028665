package routes

import (
	"net/http"

	"github.com/paperflow-ai/paperflow/internal/server/middleware"
	"github.com/paperflow-ai/paperflow/internal/timing"
	"github.com/paperflow-ai/paperflow/internal/util"
	"github.com/paperflow-ai/paperflow/pkg/logger"
	"github.com/paperflow-ai/paperflow/pkg/workflow"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// GetPaperStatusHandler is the polling endpoint. It reports the run status,
// a 0-100 progress percentage derived from the persisted diagnostics, the
// diagnosed error for failed runs, and a duration estimate based on recent
// runs of similar byte size.
func GetPaperStatusHandler(c echo.Context) error {
	type statusParams struct {
		ID string `param:"id" validate:"required"`
	}

	type statusResponse struct {
		ID                  string                `json:"id"`
		Status              string                `json:"status"`
		Progress            int32                 `json:"progress"`
		ErrorMessage        string                `json:"error_message,omitempty"`
		ErrorDetails        *workflow.StageError  `json:"error_details,omitempty"`
		Diagnostics         *workflow.Diagnostics `json:"diagnostics,omitempty"`
		EstimatedDurationMs int64                 `json:"estimated_duration_ms,omitempty"`
	}

	params := new(statusParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	paper, err := app.Store.GetPaper(ctx, params.ID)
	if err != nil {
		return paperNotFound(c, err)
	}

	resp := statusResponse{
		ID:           paper.ID,
		Status:       string(paper.Status),
		Progress:     util.CalculateProgress(paper.Status, paper.Diagnostics),
		ErrorMessage: paper.ErrorMessage,
		ErrorDetails: paper.ErrorDetails,
		Diagnostics:  paper.Diagnostics,
	}

	if !paper.Status.Terminal() && paper.ByteSize > 0 {
		estimate, err := timing.PredictProcessTime(ctx, app.DBConn, paper.ByteSize)
		if err != nil {
			logger.Warn("Failed to predict process time", "paper_id", paper.ID, "err", err)
		} else {
			resp.EstimatedDurationMs = estimate
		}
	}

	return c.JSON(http.StatusOK, resp)
}
