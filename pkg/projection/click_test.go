package projection

import (
	"testing"

	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

func clickGraph(t *testing.T) *workflow.Graph {
	t.Helper()
	g, err := workflow.NewGraph([]workflow.Component{
		{ID: "comp-data", Type: workflow.ComponentTypeDataset, Name: "Corpus"},
		{ID: "comp-loop", Type: workflow.ComponentTypeTraining, Name: "Training Loop"},
		{ID: "comp-eval", Type: workflow.ComponentTypeEvaluation, Name: "Evaluation Suite"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return g
}

func TestResolveClick_Precedence(t *testing.T) {
	g := clickGraph(t)

	tests := []struct {
		name    string
		payload ClickPayload
		want    string
	}{
		{
			name:    "embedded id wins over everything",
			payload: ClickPayload{Data: map[string]string{"component_id": "comp-eval"}, Candidate: "comp-data"},
			want:    "comp-eval",
		},
		{
			name:    "exact id match",
			payload: ClickPayload{Candidate: "comp-loop"},
			want:    "comp-loop",
		},
		{
			name:    "candidate extends a known id",
			payload: ClickPayload{Candidate: "comp-loop-label"},
			want:    "comp-loop",
		},
		{
			name:    "candidate is an id prefix",
			payload: ClickPayload{Candidate: "comp-e"},
			want:    "comp-eval",
		},
		{
			name:    "exact name match",
			payload: ClickPayload{Candidate: "Training Loop"},
			want:    "comp-loop",
		},
		{
			name:    "name substring match",
			payload: ClickPayload{Candidate: "evaluation"},
			want:    "comp-eval",
		},
		{
			name:    "positional row fallback",
			payload: ClickPayload{Candidate: "???", Y: 45, HasPosition: true},
			want:    "comp-loop",
		},
		{
			name:    "first component fallback",
			payload: ClickPayload{Candidate: "???"},
			want:    "comp-data",
		},
		{
			name:    "unknown embedded id falls through",
			payload: ClickPayload{Data: map[string]string{"id": "ghost"}, Candidate: "Corpus"},
			want:    "comp-data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveClick(g, tt.payload)
			if !ok {
				t.Fatal("expected a resolution")
			}
			if got != tt.want {
				t.Errorf("resolved to %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveClick_Deterministic(t *testing.T) {
	g := clickGraph(t)
	payload := ClickPayload{Candidate: "Training Loop"}

	first, _ := ResolveClick(g, payload)
	for i := 0; i < 10; i++ {
		got, _ := ResolveClick(g, payload)
		if got != first {
			t.Fatalf("resolution changed between runs: %q vs %q", first, got)
		}
	}
}

func TestResolveClick_EmptyGraph(t *testing.T) {
	g, err := workflow.NewGraph(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ResolveClick(g, ClickPayload{Candidate: "anything"}); ok {
		t.Error("empty graph must not resolve")
	}
}
