package routes

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/paperflow-ai/paperflow/internal/queue"
	"github.com/paperflow-ai/paperflow/internal/server/middleware"
	"github.com/paperflow-ai/paperflow/internal/storage"
	"github.com/paperflow-ai/paperflow/pkg/extract"
	"github.com/paperflow-ai/paperflow/pkg/logger"
	"github.com/paperflow-ai/paperflow/pkg/workflow"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CreateSamplePaperHandler ingests the bundled demo paper. It goes through
// the same upload, storage, and queue path as a user-provided file, so it
// doubles as an end-to-end smoke test of the extraction pipeline.
func CreateSamplePaperHandler(c echo.Context) error {
	type sampleResponse struct {
		Message string          `json:"message"`
		Paper   *workflow.Paper `json:"paper,omitempty"`
	}

	paperID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, sampleResponse{
			Message: "Internal server error",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	content := strings.NewReader(extract.SamplePaper)
	key, err := storage.PutFile(ctx, app.S3, "papers", "sample-paper.md", paperID, content)
	if err != nil {
		logger.Error("Failed to upload sample paper", "err", err)
		return c.JSON(http.StatusInternalServerError, sampleResponse{
			Message: "Internal server error",
		})
	}

	paper := &workflow.Paper{
		ID:          paperID,
		Title:       extract.SamplePaperTitle,
		Filename:    "sample-paper.md",
		ContentType: "text/markdown",
		FileKey:     key,
		ByteSize:    int64(len(extract.SamplePaper)),
		Status:      workflow.StatusUploaded,
		UploadedAt:  time.Now(),
	}
	if err := app.Store.CreatePaper(ctx, paper); err != nil {
		logger.Error("Failed to create sample paper", "err", err)
		return c.JSON(http.StatusInternalServerError, sampleResponse{
			Message: "Internal server error",
		})
	}

	msg := queue.ExtractPaperMsg{
		PaperID:     paperID,
		FileKey:     key,
		Filename:    paper.Filename,
		ContentType: paper.ContentType,
		ByteSize:    paper.ByteSize,
		Extractor:   queue.ExtractorStandard,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, sampleResponse{
			Message: "Internal server error",
		})
	}
	if err := queue.PublishFIFO(app.Queue, queue.ExtractQueue, msgBytes); err != nil {
		logger.Error("Failed to publish to extract queue", "paper_id", paperID, "err", err)
		return c.JSON(http.StatusInternalServerError, sampleResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, sampleResponse{
		Message: "Sample paper accepted for extraction",
		Paper:   paper,
	})
}
