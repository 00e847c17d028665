package workflow

import "time"

// Pipeline stage names, in execution order.
const (
	StageIngestion           = "ingestion"
	StageContentCheck        = "content_check"
	StageStructureAnalysis   = "structure_analysis"
	StageComponentExtraction = "component_extraction"
	StageRelationshipMapping = "relationship_mapping"
	StageGraphValidation     = "graph_validation"
)

// PipelineStages lists the ordered stages of one run.
var PipelineStages = []string{
	StageIngestion,
	StageContentCheck,
	StageStructureAnalysis,
	StageComponentExtraction,
	StageRelationshipMapping,
	StageGraphValidation,
}

// StageStatus is the recorded outcome of one stage.
type StageStatus string

const (
	StageSuccess StageStatus = "success"
	StageErrored StageStatus = "error"
)

// StageResult is the per-stage diagnostics record.
type StageResult struct {
	Status StageStatus `json:"status"`
	Error  string      `json:"error,omitempty"`
}

// FileInfo describes the ingested input of a run.
type FileInfo struct {
	Size        int64  `json:"size"`
	TextLength  int    `json:"text_length"`
	ContentType string `json:"content_type,omitempty"`
}

// Diagnostics records per-stage outcomes and timings of a single run.
// Each run owns its own Diagnostics value; it is threaded through the
// pipeline and never shared between concurrent runs.
type Diagnostics struct {
	Stages   map[string]StageResult `json:"stages"`
	Timings  map[string]float64     `json:"timings"`
	FileInfo FileInfo               `json:"file_info"`
}

// NewDiagnostics creates an empty diagnostics record.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{
		Stages:  make(map[string]StageResult),
		Timings: make(map[string]float64),
	}
}

// RecordStage stores the outcome and elapsed time of one stage. It is called
// for every executed stage, success or failure, before the next stage runs.
func (d *Diagnostics) RecordStage(name string, elapsed time.Duration, err error) {
	result := StageResult{Status: StageSuccess}
	if err != nil {
		result.Status = StageErrored
		result.Error = err.Error()
	}
	d.Stages[name] = result
	d.Timings[name] = elapsed.Seconds()
}

// StageFailed reports whether the named stage was recorded as errored.
func (d *Diagnostics) StageFailed(name string) bool {
	if d == nil {
		return false
	}
	result, ok := d.Stages[name]
	return ok && result.Status == StageErrored
}
