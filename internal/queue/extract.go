package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/paperflow-ai/paperflow/internal/store"
	"github.com/paperflow-ai/paperflow/internal/timing"
	"github.com/paperflow-ai/paperflow/internal/util"
	"github.com/paperflow-ai/paperflow/pkg/ai"
	"github.com/paperflow-ai/paperflow/pkg/extract"
	"github.com/paperflow-ai/paperflow/pkg/leaselock"
	"github.com/paperflow-ai/paperflow/pkg/loader"
	"github.com/paperflow-ai/paperflow/pkg/loader/csv"
	"github.com/paperflow-ai/paperflow/pkg/loader/doc"
	"github.com/paperflow-ai/paperflow/pkg/loader/ocr"
	"github.com/paperflow-ai/paperflow/pkg/loader/pdf"
	s3loader "github.com/paperflow-ai/paperflow/pkg/loader/s3"
	"github.com/paperflow-ai/paperflow/pkg/loader/web"
	"github.com/paperflow-ai/paperflow/pkg/logger"
	"github.com/paperflow-ai/paperflow/pkg/workflow"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Extractor selects how document text is obtained before the pipeline runs.
const (
	ExtractorStandard = "standard"
	ExtractorOCR      = "ocr"
)

// ExtractPaperMsg is the payload of one extract-queue message. Model and
// Thinking override the worker's default generation settings for this run.
type ExtractPaperMsg struct {
	PaperID     string `json:"paper_id"`
	FileKey     string `json:"file_key,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	ByteSize    int64  `json:"byte_size,omitempty"`
	Extractor   string `json:"extractor,omitempty"`
	Model       string `json:"model,omitempty"`
	Thinking    bool   `json:"thinking,omitempty"`
}

// ProcessExtractMessage runs the extraction pipeline for one queued paper.
//
// The run is guarded twice: a lease lock keyed by the paper id keeps two
// workers from processing the same paper concurrently, and the store claim
// flips the paper into processing exactly once. Diagnosed stage failures are
// persisted and acked; only infrastructure errors propagate to the retry
// machinery.
func ProcessExtractMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	aiClient ai.Client,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(ExtractPaperMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to unmarshal extract message: %w", err)
	}
	if data.PaperID == "" {
		return errors.New("extract message has no paper_id")
	}

	st := store.NewPGXStore(conn)

	lockClient := leaselock.New(conn)
	lease, err := lockClient.Acquire(ctx, leaselock.PaperKey(data.PaperID), leaselock.Options{
		TTL:         10 * time.Minute,
		RenewEvery:  4 * time.Minute,
		TokenPrefix: fmt.Sprintf("paper-extract/%s/", data.PaperID),
	})
	if err != nil {
		if errors.Is(err, leaselock.ErrBusy) {
			logger.Info("[Queue] Paper is locked by another worker, skipping", "paper_id", data.PaperID)
			return nil
		}
		return err
	}
	defer func() {
		if err := lease.Release(context.Background()); err != nil {
			logger.Warn("[Queue] Failed to release paper lock", "paper_id", data.PaperID, "err", err)
		}
	}()
	ctx = lease.Context

	claimed, err := st.StartRun(ctx, data.PaperID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Warn("[Queue] Paper no longer exists, dropping message", "paper_id", data.PaperID)
			return nil
		}
		return err
	}
	if !claimed {
		logger.Info("[Queue] Paper already claimed, skipping", "paper_id", data.PaperID)
		return nil
	}

	file := buildDocumentFile(s3Client, aiClient, data)
	pipeline := newExtractionPipeline(aiClient, data)
	diags := workflow.NewDiagnostics()

	start := time.Now()
	result, runErr := pipeline.Run(ctx, extract.RunParams{
		File:        file,
		Size:        data.ByteSize,
		ContentType: data.ContentType,
		OnStage: func(stage string) {
			if err := st.UpdateDiagnostics(ctx, data.PaperID, diags); err != nil {
				logger.Warn("[Queue] Failed to publish diagnostics snapshot", "paper_id", data.PaperID, "stage", stage, "err", err)
			}
		},
	}, diags)

	if runErr != nil {
		stageErr := asStageError(runErr)
		logger.Error("[Queue] Extraction run failed", "paper_id", data.PaperID, "type", stageErr.Type, "err", stageErr.Message)

		failParams := store.FailRunParams{
			PaperID:     data.PaperID,
			StageError:  stageErr,
			Diagnostics: diags,
		}
		if result != nil {
			failParams.Components = result.Components
		}
		return st.FailRun(ctx, failParams)
	}

	title := result.Title
	if title == "" {
		title = data.Filename
	}

	if err := st.CompleteRun(ctx, store.CompleteRunParams{
		PaperID:       data.PaperID,
		Title:         title,
		Overview:      result.Overview,
		Components:    result.Components,
		Relationships: result.Relationships,
		Diagnostics:   diags,
	}); err != nil {
		return err
	}

	duration := time.Since(start)
	if data.ByteSize > 0 {
		if err := timing.AddProcessTime(ctx, conn, data.ByteSize, duration.Milliseconds()); err != nil {
			logger.Warn("[Queue] Failed to record process time", "paper_id", data.PaperID, "err", err)
		}
	}

	logger.Info(
		"[Queue] Extraction completed",
		"paper_id", data.PaperID,
		"components", len(result.Components),
		"relationships", len(result.Relationships),
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}

// buildDocumentFile picks a text loader for the message's source: the web
// loader for URL submissions, otherwise a format loader over S3 selected by
// file extension, with OCR variants when the client requested them.
func buildDocumentFile(s3Client *awss3.Client, aiClient ai.Client, data *ExtractPaperMsg) loader.DocumentFile {
	if data.SourceURL != "" {
		webLoader := web.NewWebLoader()
		return loader.NewDocumentFile(loader.NewDocumentFileParams{
			ID:       data.PaperID,
			FilePath: data.SourceURL,
			Loader:   &webLoader,
		})
	}

	bucket := util.GetEnvString("AWS_BUCKET", "paperflow")
	s3L := s3loader.NewS3FileLoaderWithClient(bucket, s3Client)

	var ocrLoader *ocr.OCRLoader
	if data.Extractor == ExtractorOCR {
		ocrLoader = ocr.NewOCRLoader(ocr.NewOCRLoaderParams{
			Loader:   s3L,
			AIClient: aiClient,
			Parallel: int(util.GetEnvNumeric("OCR_PARALLEL_PAGES", 2)),
		})
	}

	params := loader.NewDocumentFileParams{
		ID:       data.PaperID,
		FilePath: data.FileKey,
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(data.FileKey)), ".")
	switch ext {
	case "pdf":
		if ocrLoader != nil {
			params.Loader = pdf.NewPDFOcrLoader(s3L, ocrLoader)
		} else {
			params.Loader = pdf.NewPDFLoader(s3L)
		}
	case "doc", "docx", "odt":
		if ocrLoader != nil {
			params.Loader = doc.NewDocOcrLoader(s3L, ocrLoader)
		} else {
			params.Loader = doc.NewDocLoader(s3L)
		}
	case "csv":
		params.Loader = csv.NewCSVLoader(s3L)
		return loader.NewCSVFile(params)
	default:
		// txt, md and anything else is read as-is.
		params.Loader = s3L
	}

	return loader.NewDocumentFile(params)
}

func newExtractionPipeline(aiClient ai.Client, data *ExtractPaperMsg) *extract.Pipeline {
	var opts []ai.GenerateOption
	if data.Model != "" {
		opts = append(opts, ai.WithModel(data.Model))
	}
	if data.Thinking {
		opts = append(opts, ai.WithThinking("medium"))
	}

	return extract.NewPipeline(extract.NewPipelineParams{
		Analyzer: extract.NewAIStructureAnalyzer(aiClient, opts...),
		Extractor: extract.NewAIComponentExtractor(extract.NewAIComponentExtractorParams{
			Client:   aiClient,
			Parallel: int(util.GetEnvNumeric("EXTRACT_PARALLEL_SECTIONS", 2)),
			Options:  opts,
		}),
		Mapper:        extract.NewAIRelationshipMapper(aiClient, opts...),
		Summarizer:    extract.NewAISummarizer(aiClient, opts...),
		MinTextLength: int(util.GetEnvNumeric("MIN_TEXT_LENGTH", extract.DefaultMinTextLength)),
	})
}

func asStageError(err error) *workflow.StageError {
	var stageErr *workflow.StageError
	if errors.As(err, &stageErr) {
		return stageErr
	}
	return workflow.NewStageError(workflow.ErrTypeInternal, "%v", err)
}
