package routes

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/paperflow-ai/paperflow/internal/queue"
	"github.com/paperflow-ai/paperflow/internal/server/middleware"
	"github.com/paperflow-ai/paperflow/internal/storage"
	"github.com/paperflow-ai/paperflow/pkg/logger"
	"github.com/paperflow-ai/paperflow/pkg/workflow"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var allowedExtensions = map[string]bool{
	"pdf":  true,
	"doc":  true,
	"docx": true,
	"odt":  true,
	"txt":  true,
	"md":   true,
	"csv":  true,
}

// CreatePaperHandler accepts a paper for extraction. The multipart form
// carries either a "file" upload or a "url" field, plus an optional
// "extractor" selector (standard or ocr). "model" and "thinking" override the
// worker's generation defaults for this run. The paper is stored as uploaded
// and an extraction message is queued; clients poll the status endpoint from
// there.
func CreatePaperHandler(c echo.Context) error {
	type createPaperBody struct {
		URL       string `form:"url"`
		Extractor string `form:"extractor"`
		Model     string `form:"model"`
		Thinking  bool   `form:"thinking"`
	}

	type createPaperResponse struct {
		Message string          `json:"message"`
		Paper   *workflow.Paper `json:"paper,omitempty"`
	}

	data := new(createPaperBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createPaperResponse{
			Message: "Invalid request body",
		})
	}

	extractor := data.Extractor
	switch extractor {
	case "":
		extractor = queue.ExtractorStandard
	case queue.ExtractorStandard, queue.ExtractorOCR:
	default:
		return c.JSON(http.StatusBadRequest, createPaperResponse{
			Message: "Unknown extractor, expected standard or ocr",
		})
	}

	upload, uploadErr := c.FormFile("file")
	hasFile := uploadErr == nil && upload != nil
	hasURL := data.URL != ""
	if hasFile == hasURL {
		return c.JSON(http.StatusBadRequest, createPaperResponse{
			Message: "Provide either a file or a url",
		})
	}

	paperID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createPaperResponse{
			Message: "Internal server error",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	paper := &workflow.Paper{
		ID:         paperID,
		Status:     workflow.StatusUploaded,
		UploadedAt: time.Now(),
	}
	msg := queue.ExtractPaperMsg{
		PaperID:   paperID,
		Extractor: extractor,
		Model:     data.Model,
		Thinking:  data.Thinking,
	}

	if hasURL {
		parsed, err := url.Parse(data.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return c.JSON(http.StatusBadRequest, createPaperResponse{
				Message: "Invalid url",
			})
		}
		paper.Filename = data.URL
		paper.ContentType = "text/html"
		msg.SourceURL = data.URL
		msg.ContentType = paper.ContentType
	} else {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(upload.Filename)), ".")
		if !allowedExtensions[ext] {
			return c.JSON(http.StatusBadRequest, createPaperResponse{
				Message: "Unsupported file type",
			})
		}

		src, err := upload.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, createPaperResponse{
				Message: "Could not open file",
			})
		}
		defer src.Close()

		key, err := storage.PutFile(ctx, app.S3, "papers", upload.Filename, paperID, src)
		if err != nil {
			logger.Error("Failed to upload file", "err", err)
			return c.JSON(http.StatusInternalServerError, createPaperResponse{
				Message: "Internal server error",
			})
		}

		contentType := upload.Header.Get("Content-Type")
		if contentType == "" {
			contentType = mime.TypeByExtension("." + ext)
		}

		paper.Filename = upload.Filename
		paper.ContentType = contentType
		paper.FileKey = key
		paper.ByteSize = upload.Size

		msg.FileKey = key
		msg.Filename = upload.Filename
		msg.ContentType = contentType
		msg.ByteSize = upload.Size
	}

	if err := app.Store.CreatePaper(ctx, paper); err != nil {
		logger.Error("Failed to create paper", "err", err)
		return c.JSON(http.StatusInternalServerError, createPaperResponse{
			Message: "Internal server error",
		})
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createPaperResponse{
			Message: "Internal server error",
		})
	}
	if err := queue.PublishFIFO(app.Queue, queue.ExtractQueue, msgBytes); err != nil {
		logger.Error("Failed to publish to extract queue", "paper_id", paperID, "err", err)
		return c.JSON(http.StatusInternalServerError, createPaperResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, createPaperResponse{
		Message: "Paper accepted for extraction",
		Paper:   paper,
	})
}

// RetryPaperHandler re-queues an existing paper. The run reuses the paper id;
// the worker clears the previous output when it claims the paper.
func RetryPaperHandler(c echo.Context) error {
	type retryPaperParams struct {
		ID        string `param:"id" validate:"required"`
		Extractor string `query:"extractor"`
		Model     string `query:"model"`
		Thinking  bool   `query:"thinking"`
	}

	type retryPaperResponse struct {
		Message string `json:"message"`
	}

	params := new(retryPaperParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, retryPaperResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, retryPaperResponse{
			Message: "Invalid request params",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	paper, err := app.Store.GetPaper(ctx, params.ID)
	if err != nil {
		return paperNotFound(c, err)
	}
	if paper.Status == workflow.StatusProcessing {
		return c.JSON(http.StatusConflict, retryPaperResponse{
			Message: "Paper is already being processed",
		})
	}

	extractor := params.Extractor
	switch extractor {
	case "":
		extractor = queue.ExtractorStandard
	case queue.ExtractorStandard, queue.ExtractorOCR:
	default:
		return c.JSON(http.StatusBadRequest, retryPaperResponse{
			Message: "Unknown extractor, expected standard or ocr",
		})
	}

	msg := queue.ExtractPaperMsg{
		PaperID:     paper.ID,
		FileKey:     paper.FileKey,
		Filename:    paper.Filename,
		ContentType: paper.ContentType,
		ByteSize:    paper.ByteSize,
		Extractor:   extractor,
		Model:       params.Model,
		Thinking:    params.Thinking,
	}
	if paper.FileKey == "" {
		msg.SourceURL = paper.Filename
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, retryPaperResponse{
			Message: "Internal server error",
		})
	}
	if err := queue.PublishFIFO(app.Queue, queue.ExtractQueue, msgBytes); err != nil {
		logger.Error("Failed to publish to extract queue", "paper_id", paper.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, retryPaperResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, retryPaperResponse{
		Message: "Paper queued for re-extraction",
	})
}
