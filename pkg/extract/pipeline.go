package extract

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/paperflow-ai/paperflow/pkg/loader"
	"github.com/paperflow-ai/paperflow/pkg/logger"
	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

// DefaultMinTextLength is the content sufficiency threshold in characters.
// Papers yielding less extracted text than this fail with CONTENT_TOO_SHORT.
const DefaultMinTextLength = 500

// maxRetries bounds repeated attempts of a single AI collaborator call.
const maxRetries = 3

// extractTemperature is the sampling temperature for all collaborator calls.
const extractTemperature = 0.1

// RunParams describes one pipeline run over an ingested document. OnStage,
// when set, is invoked synchronously after each stage is recorded; callers use
// it to publish diagnostics snapshots while the run is in flight.
type RunParams struct {
	File        loader.DocumentFile
	Size        int64
	ContentType string

	OnStage func(stage string)
}

// Result is the output of a pipeline run. Components and Relationships are
// populated as far as the run progressed, so a fatal validation failure still
// leaves partial output for degraded rendering. Graph and Overview are only
// set on success.
type Result struct {
	Title     string
	PaperType string
	Domain    string
	Overview  string

	Components    []workflow.Component
	Relationships []workflow.Relationship
	Graph         *workflow.Graph
}

// Pipeline executes the ordered extraction stages for one paper and records
// per-stage diagnostics. A single Pipeline value is safe for concurrent runs;
// each run owns its own Diagnostics.
type Pipeline struct {
	analyzer   StructureAnalyzer
	extractor  ComponentExtractor
	mapper     RelationshipMapper
	summarizer Summarizer

	minTextLength int
}

// NewPipelineParams configures a Pipeline. Summarizer is optional; without it
// completed papers carry no overview text.
type NewPipelineParams struct {
	Analyzer   StructureAnalyzer
	Extractor  ComponentExtractor
	Mapper     RelationshipMapper
	Summarizer Summarizer

	MinTextLength int
}

// NewPipeline creates an extraction pipeline from the given collaborators.
func NewPipeline(params NewPipelineParams) *Pipeline {
	minLength := params.MinTextLength
	if minLength <= 0 {
		minLength = DefaultMinTextLength
	}
	return &Pipeline{
		analyzer:      params.Analyzer,
		extractor:     params.Extractor,
		mapper:        params.Mapper,
		summarizer:    params.Summarizer,
		minTextLength: minLength,
	}
}

// Run executes the six extraction stages in order. Every executed stage is
// recorded into diags before the next stage starts, so diagnostics stay
// readable even when the run aborts. The returned error is a
// *workflow.StageError for diagnosed failures.
func (p *Pipeline) Run(
	ctx context.Context,
	params RunParams,
	diags *workflow.Diagnostics,
) (*Result, error) {
	notify := func(stage string) {
		if params.OnStage != nil {
			params.OnStage(stage)
		}
	}

	// Stage 1: ingestion.
	start := time.Now()
	raw, err := params.File.GetText(ctx)
	if err != nil {
		stageErr := workflow.NewStageError(workflow.ErrTypeIngestionFailed, "failed to read document: %v", err)
		diags.RecordStage(workflow.StageIngestion, time.Since(start), stageErr)
		notify(workflow.StageIngestion)
		return nil, stageErr
	}
	text := string(raw)
	textLen := utf8.RuneCountInString(text)
	diags.FileInfo = workflow.FileInfo{
		Size:        params.Size,
		TextLength:  textLen,
		ContentType: params.ContentType,
	}
	diags.RecordStage(workflow.StageIngestion, time.Since(start), nil)
	notify(workflow.StageIngestion)

	// Stage 2: content sufficiency check. The threshold counts characters,
	// not bytes, so multibyte text is not over-counted.
	start = time.Now()
	if textLen < p.minTextLength {
		stageErr := workflow.NewStageError(
			workflow.ErrTypeContentTooShort,
			"extracted text has %d characters, minimum is %d", textLen, p.minTextLength,
		)
		diags.RecordStage(workflow.StageContentCheck, time.Since(start), stageErr)
		notify(workflow.StageContentCheck)
		return nil, stageErr
	}
	diags.RecordStage(workflow.StageContentCheck, time.Since(start), nil)
	notify(workflow.StageContentCheck)

	// Stage 3: structure analysis. Non-fatal: an empty structure still lets
	// component extraction run over the full text.
	start = time.Now()
	structure, err := p.analyzer.Analyze(ctx, text)
	diags.RecordStage(workflow.StageStructureAnalysis, time.Since(start), err)
	notify(workflow.StageStructureAnalysis)
	if err != nil {
		logger.Warn("Structure analysis failed, continuing without sections", "file", params.File.ID, "error", err)
		structure = &PaperStructure{}
	}

	result := &Result{
		Title:     structure.Title,
		PaperType: structure.PaperType,
		Domain:    structure.Domain,
	}

	// Stage 4: component extraction.
	start = time.Now()
	components, err := p.extractor.Extract(ctx, structure, text)
	if err == nil && len(components) == 0 {
		err = workflow.NewStageError(workflow.ErrTypeExtractionFailed, "no workflow components found")
	}
	diags.RecordStage(workflow.StageComponentExtraction, time.Since(start), err)
	notify(workflow.StageComponentExtraction)
	if err != nil {
		if stageErr, ok := err.(*workflow.StageError); ok {
			return nil, stageErr
		}
		return nil, workflow.NewStageError(workflow.ErrTypeExtractionFailed, "component extraction failed: %v", err)
	}
	result.Components = components

	// Stage 5: relationship mapping. Non-fatal: degrade to the deterministic
	// fallback flow so the graph still renders as a pipeline.
	start = time.Now()
	relationships, err := p.mapper.Map(ctx, components, text)
	if err != nil {
		logger.Warn("Relationship mapping failed, using fallback flow", "file", params.File.ID, "error", err)
		err = workflow.NewStageError(workflow.ErrTypeRelationshipMappingFailed, "relationship mapping failed: %v", err)
		relationships = nil
	}
	diags.RecordStage(workflow.StageRelationshipMapping, time.Since(start), err)
	notify(workflow.StageRelationshipMapping)

	if len(relationships) == 0 {
		fallback, fbErr := FallbackFlow(components)
		if fbErr == nil {
			relationships = fallback
		}
	}
	result.Relationships = relationships

	// Stage 6: graph validation. A violation here is a contract breach
	// between stages and fails the run instead of being silently dropped.
	start = time.Now()
	graph, err := workflow.NewGraph(components, relationships)
	if err != nil {
		stageErr := workflow.NewStageError(workflow.ErrTypeInternal, "graph validation failed: %v", err)
		diags.RecordStage(workflow.StageGraphValidation, time.Since(start), stageErr)
		notify(workflow.StageGraphValidation)
		return result, stageErr
	}
	diags.RecordStage(workflow.StageGraphValidation, time.Since(start), nil)
	notify(workflow.StageGraphValidation)
	result.Graph = graph

	// The overview is presentation, not a pipeline stage: a failure here
	// never fails the run.
	if p.summarizer != nil {
		overview, err := p.summarizer.Summarize(ctx, structure, components, relationships)
		if err != nil {
			logger.Warn("Workflow overview generation failed", "file", params.File.ID, "error", err)
		} else {
			result.Overview = overview
		}
	}

	return result, nil
}
