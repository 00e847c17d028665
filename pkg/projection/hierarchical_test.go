package projection

import (
	"math"
	"testing"

	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

func TestNodeRadius(t *testing.T) {
	tests := []struct {
		name      string
		component workflow.Component
		want      float64
	}{
		{
			name:      "leaf with no importance",
			component: workflow.Component{},
			want:      18,
		},
		{
			name:      "two children",
			component: workflow.Component{Children: []string{"a", "b"}, Importance: 50},
			want:      18 + 6 + 6,
		},
		{
			name:      "child bonus capped",
			component: workflow.Component{Children: []string{"a", "b", "c", "d", "e", "f"}, Importance: 100},
			want:      18 + 12 + 12,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nodeRadius(&tt.component); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("radius = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNodeColor_SaturationScalesWithImportance(t *testing.T) {
	low := nodeColor(&workflow.Component{Type: workflow.ComponentTypeModel, Importance: 0})
	high := nodeColor(&workflow.Component{Type: workflow.ComponentTypeModel, Importance: 100})

	if low != "hsl(0, 25%, 52%)" {
		t.Errorf("low importance color = %q", low)
	}
	if high != "hsl(0, 85%, 52%)" {
		t.Errorf("high importance color = %q", high)
	}
}

func TestHierarchical_SettingsToggles(t *testing.T) {
	g, err := workflow.NewGraph([]workflow.Component{
		{ID: "a", Type: workflow.ComponentTypeModel, Name: "Net", IsNovel: true,
			Metrics: map[string]float64{"accuracy": 0.91, "f1": 0.88}},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plain := Hierarchical(g, Settings{})
	if plain.Nodes[0].Novel || plain.Nodes[0].Badge != nil || plain.Nodes[0].Label != "" {
		t.Errorf("toggles off, got %+v", plain.Nodes[0])
	}

	full := Hierarchical(g, Settings{ShowMetrics: true, HighlightNovel: true, ShowNodeLabels: true})
	node := full.Nodes[0]
	if !node.Novel {
		t.Error("expected novel marker")
	}
	if node.Label != "Net" {
		t.Errorf("expected label, got %q", node.Label)
	}
	if node.Badge == nil || node.Badge.Name != "accuracy" || node.Badge.Value != 0.91 {
		t.Errorf("expected highest metric badge, got %+v", node.Badge)
	}
}

func TestLayout_NoOverlapAndStableSeeds(t *testing.T) {
	g, err := workflow.NewGraph([]workflow.Component{
		{ID: "a", Type: workflow.ComponentTypeDataset, Name: "A"},
		{ID: "b", Type: workflow.ComponentTypeModel, Name: "B"},
		{ID: "c", Type: workflow.ComponentTypeEvaluation, Name: "C"},
		{ID: "d", Type: workflow.ComponentTypeResults, Name: "D"},
	}, []workflow.Relationship{
		{ID: "r1", SourceID: "a", TargetID: "b", Type: workflow.RelationshipTypeFlow},
		{ID: "r2", SourceID: "b", TargetID: "c", Type: workflow.RelationshipTypeFlow},
		{ID: "r3", SourceID: "c", TargetID: "d", Type: workflow.RelationshipTypeFlow},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view := Hierarchical(g, Settings{})
	for i := range view.Nodes {
		for j := i + 1; j < len(view.Nodes); j++ {
			a, b := view.Nodes[i], view.Nodes[j]
			dist := math.Hypot(a.X-b.X, a.Y-b.Y)
			minDist := a.Radius + b.Radius + collisionPadding
			if dist < minDist-1e-6 {
				t.Errorf("nodes %s and %s overlap: dist %.2f < %.2f", a.ID, b.ID, dist, minDist)
			}
		}
	}

	// Same graph, same settings: positions are reproducible.
	again := Hierarchical(g, Settings{})
	for i := range view.Nodes {
		if view.Nodes[i].X != again.Nodes[i].X || view.Nodes[i].Y != again.Nodes[i].Y {
			t.Errorf("node %s moved between identical runs", view.Nodes[i].ID)
		}
	}
}
