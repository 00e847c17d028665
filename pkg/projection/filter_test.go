package projection

import (
	"reflect"
	"testing"

	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

func testGraph(t *testing.T) *workflow.Graph {
	t.Helper()
	g, err := workflow.NewGraph([]workflow.Component{
		{ID: "data", Type: workflow.ComponentTypeDataset, Name: "Corpus"},
		{ID: "net", Type: workflow.ComponentTypeModel, Name: "Network"},
		{ID: "enc", Type: workflow.ComponentTypeLayer, Name: "Encoder", Parent: "net"},
		{ID: "dec", Type: workflow.ComponentTypeLayer, Name: "Decoder", Parent: "net"},
		{ID: "eval", Type: workflow.ComponentTypeEvaluation, Name: "Benchmark"},
	}, []workflow.Relationship{
		{ID: "r1", SourceID: "data", TargetID: "net", Type: workflow.RelationshipTypeFlow},
		{ID: "r2", SourceID: "net", TargetID: "eval", Type: workflow.RelationshipTypeFlow},
		{ID: "r3", SourceID: "eval", TargetID: "enc", Type: workflow.RelationshipTypeEvaluates},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return g
}

func TestFilter_HiddenTypeRemovesSubtree(t *testing.T) {
	g := testGraph(t)
	s := Settings{
		HiddenComponentTypes: map[workflow.ComponentType]bool{workflow.ComponentTypeModel: true},
		Expanded:             map[string]bool{"net": true},
	}

	view := Filter(g, s)

	// Hiding the model removes the node, both children, and every
	// relationship touching any of the three.
	for _, c := range view.Components {
		if c.ID == "net" || c.ID == "enc" || c.ID == "dec" {
			t.Errorf("component %q should have been removed", c.ID)
		}
	}
	if len(view.Components) != 2 {
		t.Errorf("expected 2 remaining components, got %d", len(view.Components))
	}
	if len(view.Relationships) != 0 {
		t.Errorf("expected no surviving relationships, got %v", view.Relationships)
	}
}

func TestFilter_HiddenRelationshipTypeKeepsNodes(t *testing.T) {
	g := testGraph(t)
	s := Settings{
		HiddenRelationshipTypes: map[workflow.RelationshipType]bool{workflow.RelationshipTypeFlow: true},
		Expanded:                map[string]bool{"net": true},
	}

	view := Filter(g, s)
	if len(view.Components) != 5 {
		t.Errorf("expected all 5 components, got %d", len(view.Components))
	}
	if len(view.Relationships) != 1 || view.Relationships[0].ID != "r3" {
		t.Errorf("expected only r3 to survive, got %v", view.Relationships)
	}
}

func TestFilter_CollapsedChildrenInvisible(t *testing.T) {
	g := testGraph(t)
	view := Filter(g, Settings{})

	if view.Visible("enc") || view.Visible("dec") {
		t.Error("children of collapsed node must not be visible")
	}
	// r3 targets a hidden child.
	for _, r := range view.Relationships {
		if r.ID == "r3" {
			t.Error("relationship into a hidden node must be dropped")
		}
	}
}

func TestFilter_Idempotent(t *testing.T) {
	g := testGraph(t)
	s := Settings{
		HiddenComponentTypes:    map[workflow.ComponentType]bool{workflow.ComponentTypeLayer: true},
		HiddenRelationshipTypes: map[workflow.RelationshipType]bool{workflow.RelationshipTypeEvaluates: true},
		Expanded:                map[string]bool{"net": true},
	}

	once := Filter(g, s)

	// Rebuild a graph from the filtered view and filter again.
	refiltered, err := workflow.NewGraph(once.Components, once.Relationships)
	if err != nil {
		t.Fatalf("filtered view is not a valid graph: %v", err)
	}
	twice := Filter(refiltered, s)

	if !reflect.DeepEqual(once.Components, twice.Components) {
		t.Errorf("components changed on second pass:\n once: %+v\ntwice: %+v", once.Components, twice.Components)
	}
	if !reflect.DeepEqual(once.Relationships, twice.Relationships) {
		t.Errorf("relationships changed on second pass:\n once: %+v\ntwice: %+v", once.Relationships, twice.Relationships)
	}
}

func TestSequential_TopLevelOrder(t *testing.T) {
	g := testGraph(t)
	view := Sequential(g, Settings{Expanded: map[string]bool{"net": true}})

	want := []string{"data", "net", "eval"}
	if len(view.Items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(view.Items))
	}
	for i, id := range want {
		if view.Items[i].ID != id {
			t.Errorf("item %d: expected %q, got %q", i, id, view.Items[i].ID)
		}
		if view.Items[i].Position != i {
			t.Errorf("item %d: expected position %d, got %d", i, i, view.Items[i].Position)
		}
	}
}
