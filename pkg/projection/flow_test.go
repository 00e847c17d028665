package projection

import (
	"strings"
	"testing"

	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

func flowGraph(t *testing.T) *workflow.Graph {
	t.Helper()
	g, err := workflow.NewGraph([]workflow.Component{
		{ID: "c1", Type: workflow.ComponentTypeDataset, Name: "Raw Data"},
		{ID: "c2", Type: workflow.ComponentTypePreprocessing, Name: "Cleaning"},
		{ID: "c3", Type: workflow.ComponentTypeModel, Name: "Classifier"},
		{ID: "c4", Type: workflow.ComponentTypeTraining, Name: "Fine-tuning"},
		{ID: "c5", Type: workflow.ComponentTypeResults, Name: "Findings"},
	}, []workflow.Relationship{
		{ID: "r1", SourceID: "c1", TargetID: "c2", Type: workflow.RelationshipTypeFlow},
		{ID: "r2", SourceID: "c2", TargetID: "c3", Type: workflow.RelationshipTypeFlow},
		{ID: "r3", SourceID: "c4", TargetID: "c3", Type: workflow.RelationshipTypeUses},
		{ID: "r4", SourceID: "c3", TargetID: "c5", Type: workflow.RelationshipTypeFlow},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return g
}

func TestFlow_StatementCounts(t *testing.T) {
	g := flowGraph(t)
	view := Flow(g, Settings{})

	// 5 nodes, 4 edges, no filters: counts mirror the graph exactly.
	if view.NodeCount != 5 {
		t.Errorf("expected 5 node statements, got %d", view.NodeCount)
	}
	if view.EdgeCount != 4 {
		t.Errorf("expected 4 edge statements, got %d", view.EdgeCount)
	}
	if len(view.ComponentMapping) != 5 {
		t.Errorf("expected 5 mapping entries, got %d", len(view.ComponentMapping))
	}
}

func TestFlow_DiagramShape(t *testing.T) {
	g := flowGraph(t)
	view := Flow(g, Settings{})

	if !strings.HasPrefix(view.Diagram, "flowchart TD\n") {
		t.Errorf("diagram must start with flowchart header, got %q", view.Diagram[:20])
	}
	for _, want := range []string{
		"A[Raw Data]",
		"A --> B",
		"D -.->|uses| C",
		"classDef model fill:#EF4444",
		"class C model;",
	} {
		if !strings.Contains(view.Diagram, want) {
			t.Errorf("diagram missing %q:\n%s", want, view.Diagram)
		}
	}
	if view.ComponentMapping["A"] != "c1" || view.ComponentMapping["E"] != "c5" {
		t.Errorf("unexpected component mapping: %v", view.ComponentMapping)
	}
}

func TestFlow_FilteredCounts(t *testing.T) {
	g := flowGraph(t)
	view := Flow(g, Settings{
		HiddenComponentTypes:    map[workflow.ComponentType]bool{workflow.ComponentTypeTraining: true},
		HiddenRelationshipTypes: map[workflow.RelationshipType]bool{workflow.RelationshipTypeUses: true},
	})

	if view.NodeCount != 4 {
		t.Errorf("expected 4 node statements, got %d", view.NodeCount)
	}
	// r3 is doubly gone: hidden type and hidden endpoint.
	if view.EdgeCount != 3 {
		t.Errorf("expected 3 edge statements, got %d", view.EdgeCount)
	}
}

func TestNodeLetter_WrapsPastZ(t *testing.T) {
	tests := []struct {
		i    int
		want string
	}{
		{0, "A"}, {1, "B"}, {25, "Z"}, {26, "AA"}, {27, "AB"}, {52, "BA"},
	}
	for _, tt := range tests {
		if got := nodeLetter(tt.i); got != tt.want {
			t.Errorf("nodeLetter(%d) = %q, want %q", tt.i, got, tt.want)
		}
	}
}
