package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

func newTestPaper(id string) *workflow.Paper {
	return &workflow.Paper{
		ID:          id,
		Filename:    "paper.pdf",
		ContentType: "application/pdf",
		FileKey:     "papers/" + id + ".pdf",
		Status:      workflow.StatusUploaded,
		UploadedAt:  time.Now(),
	}
}

func TestMemoryStore_GetPaper_NotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetPaper(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetPaper() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_StartRun_ClaimsOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.CreatePaper(ctx, newTestPaper("p1")); err != nil {
		t.Fatalf("CreatePaper() error = %v", err)
	}

	claimed, err := s.StartRun(ctx, "p1")
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if !claimed {
		t.Fatal("first StartRun() should claim the paper")
	}

	claimed, err = s.StartRun(ctx, "p1")
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if claimed {
		t.Fatal("second StartRun() should not claim a processing paper")
	}

	if _, err := s.StartRun(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("StartRun() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_StartRun_ClearsPreviousRun(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.CreatePaper(ctx, newTestPaper("p1")); err != nil {
		t.Fatalf("CreatePaper() error = %v", err)
	}
	if _, err := s.StartRun(ctx, "p1"); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	diags := workflow.NewDiagnostics()
	diags.RecordStage(workflow.StageIngestion, time.Second, nil)
	diags.RecordStage(workflow.StageContentCheck, time.Millisecond, errors.New("too short"))
	err := s.FailRun(ctx, FailRunParams{
		PaperID:     "p1",
		StageError:  workflow.NewStageError(workflow.ErrTypeContentTooShort, "document text too short"),
		Diagnostics: diags,
	})
	if err != nil {
		t.Fatalf("FailRun() error = %v", err)
	}

	claimed, err := s.StartRun(ctx, "p1")
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if !claimed {
		t.Fatal("retry StartRun() should claim a failed paper")
	}

	paper, err := s.GetPaper(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPaper() error = %v", err)
	}
	if paper.Status != workflow.StatusProcessing {
		t.Fatalf("Status = %s, want processing", paper.Status)
	}
	if paper.ErrorMessage != "" || paper.ErrorDetails != nil {
		t.Fatal("retry should clear the previous error")
	}
	if paper.Diagnostics != nil {
		t.Fatal("retry should clear the previous diagnostics")
	}
	if paper.CompletedAt != nil {
		t.Fatal("retry should clear completed_at")
	}
}

func TestMemoryStore_CompleteRun(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.CreatePaper(ctx, newTestPaper("p1")); err != nil {
		t.Fatalf("CreatePaper() error = %v", err)
	}
	if _, err := s.StartRun(ctx, "p1"); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	diags := workflow.NewDiagnostics()
	for _, stage := range workflow.PipelineStages {
		diags.RecordStage(stage, time.Second, nil)
	}
	err := s.CompleteRun(ctx, CompleteRunParams{
		PaperID:  "p1",
		Title:    "AG-CropNet",
		Overview: "Trains AG-CropNet on field images.",
		Components: []workflow.Component{
			{ID: "c1", Type: workflow.ComponentTypeDataset, Name: "Field images"},
			{ID: "c2", Type: workflow.ComponentTypeModel, Name: "AG-CropNet", Parent: ""},
		},
		Relationships: []workflow.Relationship{
			{ID: "r1", SourceID: "c1", TargetID: "c2", Type: workflow.RelationshipTypeFlow},
		},
		Diagnostics: diags,
	})
	if err != nil {
		t.Fatalf("CompleteRun() error = %v", err)
	}

	paper, err := s.GetPaper(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPaper() error = %v", err)
	}
	if paper.Status != workflow.StatusCompleted {
		t.Fatalf("Status = %s, want completed", paper.Status)
	}
	if paper.Title != "AG-CropNet" {
		t.Fatalf("Title = %q, want AG-CropNet", paper.Title)
	}
	if paper.Overview != "Trains AG-CropNet on field images." {
		t.Fatalf("Overview = %q", paper.Overview)
	}
	if len(paper.Components) != 2 || len(paper.Relationships) != 1 {
		t.Fatalf("got %d components and %d relationships, want 2 and 1",
			len(paper.Components), len(paper.Relationships))
	}
	if paper.CompletedAt == nil {
		t.Fatal("CompletedAt should be set")
	}
}

func TestMemoryStore_FailRun_KeepsPartialComponents(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.CreatePaper(ctx, newTestPaper("p1")); err != nil {
		t.Fatalf("CreatePaper() error = %v", err)
	}
	if _, err := s.StartRun(ctx, "p1"); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	stageErr := workflow.NewStageError(workflow.ErrTypeInternal, "graph validation failed")
	err := s.FailRun(ctx, FailRunParams{
		PaperID:    "p1",
		StageError: stageErr,
		Components: []workflow.Component{
			{ID: "c1", Type: workflow.ComponentTypeModel, Name: "Partial"},
		},
	})
	if err != nil {
		t.Fatalf("FailRun() error = %v", err)
	}

	paper, err := s.GetPaper(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPaper() error = %v", err)
	}
	if paper.Status != workflow.StatusFailed {
		t.Fatalf("Status = %s, want failed", paper.Status)
	}
	if paper.ErrorDetails == nil || paper.ErrorDetails.Type != workflow.ErrTypeInternal {
		t.Fatalf("ErrorDetails = %+v, want INTERNAL_ERROR", paper.ErrorDetails)
	}
	if len(paper.Components) != 1 {
		t.Fatalf("got %d partial components, want 1", len(paper.Components))
	}
}

func TestMemoryStore_ListPapers_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	older := newTestPaper("older")
	older.UploadedAt = time.Now().Add(-time.Hour)
	newer := newTestPaper("newer")

	if err := s.CreatePaper(ctx, older); err != nil {
		t.Fatalf("CreatePaper() error = %v", err)
	}
	if err := s.CreatePaper(ctx, newer); err != nil {
		t.Fatalf("CreatePaper() error = %v", err)
	}

	papers, err := s.ListPapers(ctx)
	if err != nil {
		t.Fatalf("ListPapers() error = %v", err)
	}
	if len(papers) != 2 {
		t.Fatalf("got %d papers, want 2", len(papers))
	}
	if papers[0].ID != "newer" || papers[1].ID != "older" {
		t.Fatalf("unexpected order: %s, %s", papers[0].ID, papers[1].ID)
	}
}

func TestMemoryStore_DeletePaper(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.CreatePaper(ctx, newTestPaper("p1")); err != nil {
		t.Fatalf("CreatePaper() error = %v", err)
	}
	if err := s.DeletePaper(ctx, "p1"); err != nil {
		t.Fatalf("DeletePaper() error = %v", err)
	}
	if err := s.DeletePaper(ctx, "p1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeletePaper() error = %v, want ErrNotFound", err)
	}
}
