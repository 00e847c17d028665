package util

import (
	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

// Stage weights sum to 100. Component extraction dominates wall-clock time,
// so it carries most of the reported progress.
var stageWeights = map[string]int32{
	workflow.StageIngestion:           10,
	workflow.StageContentCheck:        5,
	workflow.StageStructureAnalysis:   20,
	workflow.StageComponentExtraction: 40,
	workflow.StageRelationshipMapping: 20,
	workflow.StageGraphValidation:     5,
}

// CalculateProgress maps a run's status and recorded diagnostics to a 0-100
// percentage. Terminal states always report 100; an in-flight run reports the
// summed weights of its recorded stages.
func CalculateProgress(status workflow.PaperStatus, diags *workflow.Diagnostics) int32 {
	if status.Terminal() {
		return 100
	}
	if status == workflow.StatusUploaded || diags == nil {
		return 0
	}

	var pct int32
	for _, stage := range workflow.PipelineStages {
		if _, ok := diags.Stages[stage]; !ok {
			continue
		}
		pct += stageWeights[stage]
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}
