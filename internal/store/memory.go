package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

// MemoryStore is an in-memory Store used by tests and local development
// without a database.
type MemoryStore struct {
	mu     sync.RWMutex
	papers map[string]*workflow.Paper
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		papers: make(map[string]*workflow.Paper),
	}
}

func (s *MemoryStore) CreatePaper(_ context.Context, paper *workflow.Paper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := clonePaper(paper)
	s.papers[paper.ID] = clone
	return nil
}

func (s *MemoryStore) GetPaper(_ context.Context, id string) (*workflow.Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paper, ok := s.papers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePaper(paper), nil
}

func (s *MemoryStore) ListPapers(_ context.Context) ([]workflow.Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	papers := make([]workflow.Paper, 0, len(s.papers))
	for _, paper := range s.papers {
		papers = append(papers, *clonePaper(paper))
	}
	sort.Slice(papers, func(i, j int) bool {
		if papers[i].UploadedAt.Equal(papers[j].UploadedAt) {
			return papers[i].ID < papers[j].ID
		}
		return papers[i].UploadedAt.After(papers[j].UploadedAt)
	})
	return papers, nil
}

func (s *MemoryStore) DeletePaper(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.papers[id]; !ok {
		return ErrNotFound
	}
	delete(s.papers, id)
	return nil
}

func (s *MemoryStore) StartRun(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	paper, ok := s.papers[id]
	if !ok {
		return false, ErrNotFound
	}
	if paper.Status == workflow.StatusProcessing {
		return false, nil
	}
	paper.Status = workflow.StatusProcessing
	paper.Overview = ""
	paper.ErrorMessage = ""
	paper.ErrorDetails = nil
	paper.Diagnostics = nil
	paper.Components = nil
	paper.Relationships = nil
	paper.CompletedAt = nil
	return true, nil
}

func (s *MemoryStore) UpdateDiagnostics(_ context.Context, id string, diags *workflow.Diagnostics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	paper, ok := s.papers[id]
	if !ok {
		return ErrNotFound
	}
	paper.Diagnostics = diags
	return nil
}

func (s *MemoryStore) CompleteRun(_ context.Context, params CompleteRunParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	paper, ok := s.papers[params.PaperID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	paper.Title = params.Title
	paper.Overview = params.Overview
	paper.Status = workflow.StatusCompleted
	paper.Components = cloneComponents(params.Components)
	paper.Relationships = append([]workflow.Relationship(nil), params.Relationships...)
	paper.Diagnostics = params.Diagnostics
	paper.CompletedAt = &now
	return nil
}

func (s *MemoryStore) FailRun(_ context.Context, params FailRunParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	paper, ok := s.papers[params.PaperID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	paper.Status = workflow.StatusFailed
	if params.StageError != nil {
		paper.ErrorMessage = params.StageError.Message
		paper.ErrorDetails = params.StageError
	}
	paper.Diagnostics = params.Diagnostics
	paper.Components = cloneComponents(params.Components)
	paper.CompletedAt = &now
	return nil
}

func clonePaper(paper *workflow.Paper) *workflow.Paper {
	clone := *paper
	clone.Components = cloneComponents(paper.Components)
	clone.Relationships = append([]workflow.Relationship(nil), paper.Relationships...)
	return &clone
}

func cloneComponents(components []workflow.Component) []workflow.Component {
	if components == nil {
		return nil
	}
	cloned := make([]workflow.Component, len(components))
	for i, component := range components {
		cloned[i] = component
		cloned[i].Children = append([]string(nil), component.Children...)
		if component.Details != nil {
			cloned[i].Details = make(map[string]string, len(component.Details))
			for k, v := range component.Details {
				cloned[i].Details[k] = v
			}
		}
		if component.Metrics != nil {
			cloned[i].Metrics = make(map[string]float64, len(component.Metrics))
			for k, v := range component.Metrics {
				cloned[i].Metrics[k] = v
			}
		}
	}
	return cloned
}
