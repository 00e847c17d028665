package store

import (
	"context"
	"errors"

	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

// ErrNotFound is returned when no paper exists for the given id.
var ErrNotFound = errors.New("paper not found")

// CompleteRunParams carries the output of a successful pipeline run.
// Overview may be empty when overview generation failed or was disabled.
type CompleteRunParams struct {
	PaperID  string
	Title    string
	Overview string

	Components    []workflow.Component
	Relationships []workflow.Relationship
	Diagnostics   *workflow.Diagnostics
}

// FailRunParams carries the diagnosed failure of a pipeline run. Components
// may hold partial output extracted before the failure; it is persisted so
// clients can render a degraded visualization.
type FailRunParams struct {
	PaperID string

	StageError  *workflow.StageError
	Diagnostics *workflow.Diagnostics
	Components  []workflow.Component
}

// Store persists papers and their extracted workflow graphs.
//
// StartRun claims a paper for processing: it transitions any non-processing
// status to processing, clears the previous run's output, and reports whether
// the claim succeeded. A retry therefore reuses the paper id and overwrites
// the prior diagnostics. At most one claim succeeds at a time per id.
type Store interface {
	CreatePaper(ctx context.Context, paper *workflow.Paper) error
	GetPaper(ctx context.Context, id string) (*workflow.Paper, error)
	ListPapers(ctx context.Context) ([]workflow.Paper, error)
	DeletePaper(ctx context.Context, id string) error

	StartRun(ctx context.Context, id string) (bool, error)
	UpdateDiagnostics(ctx context.Context, id string, diags *workflow.Diagnostics) error
	CompleteRun(ctx context.Context, params CompleteRunParams) error
	FailRun(ctx context.Context, params FailRunParams) error
}
