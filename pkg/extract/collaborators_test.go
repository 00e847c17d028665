package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/paperflow-ai/paperflow/pkg/ai"
	"github.com/paperflow-ai/paperflow/pkg/loader"
	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

// fakeAIClient fails the first failures calls and then answers from fill.
type fakeAIClient struct {
	failures int
	calls    int
	fill     func(out any)
	text     string
}

func (f *fakeAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("model overloaded")
	}
	return f.text, nil
}

func (f *fakeAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("model overloaded")
	}
	if f.fill != nil {
		f.fill(out)
	}
	return nil
}

func (f *fakeAIClient) GenerateImageDescription(ctx context.Context, prompt string, base64 loader.Base64File) (string, error) {
	return "", errors.New("not supported")
}

func (f *fakeAIClient) LoadModel(ctx context.Context, opts ...ai.GenerateOption) error {
	return nil
}

func (f *fakeAIClient) ResetMetrics() {}

func (f *fakeAIClient) GetMetrics() ai.ModelMetrics {
	return ai.ModelMetrics{}
}

func TestAIStructureAnalyzer_RetriesTransientFailure(t *testing.T) {
	client := &fakeAIClient{
		failures: 1,
		fill: func(out any) {
			c := out.(*paperCharacterization)
			c.Title = "AG-CropNet"
			c.PaperType = "methods paper"
			c.Domain = "precision agriculture"
		},
	}
	analyzer := NewAIStructureAnalyzer(client)
	analyzer.tokenBudget = 0

	structure, err := analyzer.Analyze(context.Background(), SamplePaper)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if structure.Title != "AG-CropNet" {
		t.Errorf("structure.Title = %q", structure.Title)
	}
	if client.calls != 2 {
		t.Errorf("client calls = %d, want 2 (one failure, one success)", client.calls)
	}
}

func TestAIStructureAnalyzer_GivesUpAfterMaxRetries(t *testing.T) {
	client := &fakeAIClient{failures: maxRetries}
	analyzer := NewAIStructureAnalyzer(client)
	analyzer.tokenBudget = 0

	if _, err := analyzer.Analyze(context.Background(), SamplePaper); err == nil {
		t.Fatal("Analyze() error = nil, want failure after retries are exhausted")
	}
	if client.calls != maxRetries {
		t.Errorf("client calls = %d, want %d", client.calls, maxRetries)
	}
}

func TestAIComponentExtractor_RetriesTransientFailure(t *testing.T) {
	client := &fakeAIClient{
		failures: 1,
		fill: func(out any) {
			list := out.(*extractedComponentList)
			list.Components = []extractedComponent{
				{Name: "AG-CropNet", Type: "model", Importance: 95, IsNovel: true},
			}
		},
	}
	extractor := NewAIComponentExtractor(NewAIComponentExtractorParams{Client: client, Parallel: 1})
	extractor.tokenBudget = 0

	components, err := extractor.Extract(context.Background(), &PaperStructure{}, SamplePaper)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(components) != 1 || components[0].Name != "AG-CropNet" {
		t.Fatalf("Extract() components = %+v", components)
	}
	if client.calls != 2 {
		t.Errorf("client calls = %d, want 2 (one failure, one success)", client.calls)
	}
}

func TestAIRelationshipMapper_RetriesTransientFailure(t *testing.T) {
	client := &fakeAIClient{
		failures: 1,
		fill: func(out any) {
			list := out.(*extractedRelationshipList)
			list.Relationships = []extractedRelationship{
				{SourceID: "comp-data", TargetID: "comp-model", Type: "flow", Description: "training data"},
			}
		},
	}
	mapper := NewAIRelationshipMapper(client)
	mapper.tokenBudget = 0

	relationships, err := mapper.Map(context.Background(), testComponents(), SamplePaper)
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	if len(relationships) != 1 {
		t.Fatalf("Map() relationships = %+v", relationships)
	}
	if relationships[0].Type != workflow.RelationshipTypeFlow {
		t.Errorf("relationship type = %q, want flow", relationships[0].Type)
	}
	if client.calls != 2 {
		t.Errorf("client calls = %d, want 2 (one failure, one success)", client.calls)
	}
}

func TestAISummarizer_RetriesTransientFailure(t *testing.T) {
	client := &fakeAIClient{
		failures: 1,
		text:     "The paper trains AG-CropNet on PlantVillage and evaluates it on a held-out split.\n",
	}
	summarizer := NewAISummarizer(client)

	overview, err := summarizer.Summarize(
		context.Background(),
		&PaperStructure{Title: "AG-CropNet", PaperType: "methods paper", Domain: "precision agriculture"},
		testComponents(),
		nil,
	)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if overview != "The paper trains AG-CropNet on PlantVillage and evaluates it on a held-out split." {
		t.Errorf("Summarize() = %q, want trimmed overview text", overview)
	}
	if client.calls != 2 {
		t.Errorf("client calls = %d, want 2 (one failure, one success)", client.calls)
	}
}
