package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/paperflow-ai/paperflow/pkg/loader"
	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

type mockFileLoader struct {
	text []byte
	err  error
}

func (m *mockFileLoader) GetFileText(ctx context.Context, file loader.DocumentFile) ([]byte, error) {
	return m.text, m.err
}

func (m *mockFileLoader) GetBase64(ctx context.Context, file loader.DocumentFile) (loader.Base64File, error) {
	return loader.Base64File{}, nil
}

type mockAnalyzer struct {
	structure *PaperStructure
	err       error
}

func (m *mockAnalyzer) Analyze(ctx context.Context, text string) (*PaperStructure, error) {
	return m.structure, m.err
}

type mockExtractor struct {
	components []workflow.Component
	err        error
}

func (m *mockExtractor) Extract(ctx context.Context, structure *PaperStructure, text string) ([]workflow.Component, error) {
	return m.components, m.err
}

type mockMapper struct {
	relationships []workflow.Relationship
	err           error
}

func (m *mockMapper) Map(ctx context.Context, components []workflow.Component, text string) ([]workflow.Relationship, error) {
	return m.relationships, m.err
}

type mockSummarizer struct {
	overview string
	err      error
}

func (m *mockSummarizer) Summarize(ctx context.Context, structure *PaperStructure, components []workflow.Component, relationships []workflow.Relationship) (string, error) {
	return m.overview, m.err
}

func testComponents() []workflow.Component {
	return []workflow.Component{
		{ID: "comp-data", Type: workflow.ComponentTypeDataset, Name: "PlantVillage", Importance: 80},
		{ID: "comp-model", Type: workflow.ComponentTypeModel, Name: "AG-CropNet", Importance: 95, IsNovel: true},
		{ID: "comp-eval", Type: workflow.ComponentTypeEvaluation, Name: "Test Evaluation", Importance: 60},
	}
}

func testFile(l loader.FileLoader) loader.DocumentFile {
	return loader.NewDocumentFile(loader.NewDocumentFileParams{
		ID:       "paper-1",
		FilePath: "papers/paper-1.pdf",
		Loader:   l,
	})
}

func newTestPipeline(analyzer StructureAnalyzer, extractor ComponentExtractor, mapper RelationshipMapper) *Pipeline {
	return NewPipeline(NewPipelineParams{
		Analyzer:  analyzer,
		Extractor: extractor,
		Mapper:    mapper,
	})
}

func TestPipelineRun_Success(t *testing.T) {
	relationships := []workflow.Relationship{
		{ID: "rel-1", SourceID: "comp-data", TargetID: "comp-model", Type: workflow.RelationshipTypeFlow},
	}
	pipeline := newTestPipeline(
		&mockAnalyzer{structure: &PaperStructure{Title: "AG-CropNet", Sections: []Section{{Name: "Model", Content: SamplePaper}}}},
		&mockExtractor{components: testComponents()},
		&mockMapper{relationships: relationships},
	)

	diags := workflow.NewDiagnostics()
	result, err := pipeline.Run(context.Background(), RunParams{
		File:        testFile(&mockFileLoader{text: []byte(SamplePaper)}),
		Size:        1024,
		ContentType: "application/pdf",
	}, diags)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Graph == nil {
		t.Fatal("Run() result.Graph = nil")
	}
	if result.Title != "AG-CropNet" {
		t.Errorf("Run() result.Title = %q", result.Title)
	}
	if len(result.Components) != 3 {
		t.Errorf("Run() len(Components) = %d, want 3", len(result.Components))
	}

	for _, stage := range workflow.PipelineStages {
		recorded, ok := diags.Stages[stage]
		if !ok {
			t.Fatalf("stage %q not recorded", stage)
		}
		if recorded.Status != workflow.StageSuccess {
			t.Errorf("stage %q status = %q, want success", stage, recorded.Status)
		}
		if _, ok := diags.Timings[stage]; !ok {
			t.Errorf("stage %q has no timing", stage)
		}
	}

	if diags.FileInfo.Size != 1024 {
		t.Errorf("FileInfo.Size = %d, want 1024", diags.FileInfo.Size)
	}
	if want := utf8.RuneCountInString(SamplePaper); diags.FileInfo.TextLength != want {
		t.Errorf("FileInfo.TextLength = %d, want %d", diags.FileInfo.TextLength, want)
	}
}

func TestPipelineRun_IngestionFailed(t *testing.T) {
	pipeline := newTestPipeline(&mockAnalyzer{}, &mockExtractor{}, &mockMapper{})

	diags := workflow.NewDiagnostics()
	result, err := pipeline.Run(context.Background(), RunParams{
		File: testFile(&mockFileLoader{err: errors.New("corrupt pdf")}),
	}, diags)
	if result != nil {
		t.Fatalf("Run() result = %+v, want nil", result)
	}

	var stageErr *workflow.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Run() error = %v, want StageError", err)
	}
	if stageErr.Type != workflow.ErrTypeIngestionFailed {
		t.Errorf("error type = %q, want %q", stageErr.Type, workflow.ErrTypeIngestionFailed)
	}

	if !diags.StageFailed(workflow.StageIngestion) {
		t.Error("ingestion stage not recorded as failed")
	}
	if _, ok := diags.Stages[workflow.StageContentCheck]; ok {
		t.Error("content_check recorded after fatal ingestion failure")
	}
}

func TestPipelineRun_ContentTooShort(t *testing.T) {
	shortText := strings.Repeat("x", 300)
	pipeline := newTestPipeline(&mockAnalyzer{}, &mockExtractor{}, &mockMapper{})

	diags := workflow.NewDiagnostics()
	_, err := pipeline.Run(context.Background(), RunParams{
		File: testFile(&mockFileLoader{text: []byte(shortText)}),
	}, diags)

	var stageErr *workflow.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Run() error = %v, want StageError", err)
	}
	if stageErr.Type != workflow.ErrTypeContentTooShort {
		t.Errorf("error type = %q, want %q", stageErr.Type, workflow.ErrTypeContentTooShort)
	}

	if diags.StageFailed(workflow.StageIngestion) {
		t.Error("ingestion recorded as failed, want success")
	}
	if !diags.StageFailed(workflow.StageContentCheck) {
		t.Error("content_check not recorded as failed")
	}
	if _, ok := diags.Stages[workflow.StageStructureAnalysis]; ok {
		t.Error("structure_analysis ran after fatal content check")
	}
	if diags.FileInfo.TextLength != 300 {
		t.Errorf("FileInfo.TextLength = %d, want 300", diags.FileInfo.TextLength)
	}
}

func TestPipelineRun_ContentCheckCountsRunes(t *testing.T) {
	// 300 characters but 600 bytes: the threshold must count characters.
	shortText := strings.Repeat("ü", 300)
	pipeline := newTestPipeline(&mockAnalyzer{}, &mockExtractor{}, &mockMapper{})

	diags := workflow.NewDiagnostics()
	_, err := pipeline.Run(context.Background(), RunParams{
		File: testFile(&mockFileLoader{text: []byte(shortText)}),
	}, diags)

	var stageErr *workflow.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Run() error = %v, want StageError", err)
	}
	if stageErr.Type != workflow.ErrTypeContentTooShort {
		t.Errorf("error type = %q, want %q", stageErr.Type, workflow.ErrTypeContentTooShort)
	}
	if diags.FileInfo.TextLength != 300 {
		t.Errorf("FileInfo.TextLength = %d, want 300 characters", diags.FileInfo.TextLength)
	}
}

func TestPipelineRun_SummarizerSetsOverview(t *testing.T) {
	pipeline := NewPipeline(NewPipelineParams{
		Analyzer:   &mockAnalyzer{structure: &PaperStructure{Title: "AG-CropNet"}},
		Extractor:  &mockExtractor{components: testComponents()},
		Mapper:     &mockMapper{},
		Summarizer: &mockSummarizer{overview: "The paper trains AG-CropNet on PlantVillage."},
	})

	diags := workflow.NewDiagnostics()
	result, err := pipeline.Run(context.Background(), RunParams{
		File: testFile(&mockFileLoader{text: []byte(SamplePaper)}),
	}, diags)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Overview != "The paper trains AG-CropNet on PlantVillage." {
		t.Errorf("Run() result.Overview = %q", result.Overview)
	}
}

func TestPipelineRun_SummarizerFailureIsNonFatal(t *testing.T) {
	pipeline := NewPipeline(NewPipelineParams{
		Analyzer:   &mockAnalyzer{structure: &PaperStructure{}},
		Extractor:  &mockExtractor{components: testComponents()},
		Mapper:     &mockMapper{},
		Summarizer: &mockSummarizer{err: errors.New("model unavailable")},
	})

	diags := workflow.NewDiagnostics()
	result, err := pipeline.Run(context.Background(), RunParams{
		File: testFile(&mockFileLoader{text: []byte(SamplePaper)}),
	}, diags)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if result.Graph == nil {
		t.Error("Run() result.Graph = nil")
	}
	if result.Overview != "" {
		t.Errorf("Run() result.Overview = %q, want empty", result.Overview)
	}
}

func TestPipelineRun_StructureFailureIsNonFatal(t *testing.T) {
	pipeline := newTestPipeline(
		&mockAnalyzer{err: errors.New("model unavailable")},
		&mockExtractor{components: testComponents()},
		&mockMapper{},
	)

	diags := workflow.NewDiagnostics()
	result, err := pipeline.Run(context.Background(), RunParams{
		File: testFile(&mockFileLoader{text: []byte(SamplePaper)}),
	}, diags)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	if !diags.StageFailed(workflow.StageStructureAnalysis) {
		t.Error("structure_analysis not recorded as failed")
	}
	if result.Graph == nil {
		t.Error("Run() result.Graph = nil, want graph despite structure failure")
	}
}

func TestPipelineRun_ZeroComponentsIsFatal(t *testing.T) {
	pipeline := newTestPipeline(
		&mockAnalyzer{structure: &PaperStructure{}},
		&mockExtractor{components: nil},
		&mockMapper{},
	)

	diags := workflow.NewDiagnostics()
	_, err := pipeline.Run(context.Background(), RunParams{
		File: testFile(&mockFileLoader{text: []byte(SamplePaper)}),
	}, diags)

	var stageErr *workflow.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Run() error = %v, want StageError", err)
	}
	if stageErr.Type != workflow.ErrTypeExtractionFailed {
		t.Errorf("error type = %q, want %q", stageErr.Type, workflow.ErrTypeExtractionFailed)
	}
	if !diags.StageFailed(workflow.StageComponentExtraction) {
		t.Error("component_extraction not recorded as failed")
	}
	if _, ok := diags.Stages[workflow.StageRelationshipMapping]; ok {
		t.Error("relationship_mapping ran after fatal extraction failure")
	}
}

func TestPipelineRun_MapperFailureUsesFallbackFlow(t *testing.T) {
	pipeline := newTestPipeline(
		&mockAnalyzer{structure: &PaperStructure{}},
		&mockExtractor{components: testComponents()},
		&mockMapper{err: errors.New("model unavailable")},
	)

	diags := workflow.NewDiagnostics()
	result, err := pipeline.Run(context.Background(), RunParams{
		File: testFile(&mockFileLoader{text: []byte(SamplePaper)}),
	}, diags)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	if !diags.StageFailed(workflow.StageRelationshipMapping) {
		t.Error("relationship_mapping not recorded as failed")
	}

	// Fallback chains dataset -> model -> evaluation in workflow order.
	if len(result.Relationships) != 2 {
		t.Fatalf("len(Relationships) = %d, want 2", len(result.Relationships))
	}
	if result.Relationships[0].SourceID != "comp-data" || result.Relationships[0].TargetID != "comp-model" {
		t.Errorf("first fallback edge = %s -> %s", result.Relationships[0].SourceID, result.Relationships[0].TargetID)
	}
	if result.Relationships[1].SourceID != "comp-model" || result.Relationships[1].TargetID != "comp-eval" {
		t.Errorf("second fallback edge = %s -> %s", result.Relationships[1].SourceID, result.Relationships[1].TargetID)
	}
	for _, rel := range result.Relationships {
		if rel.Type != workflow.RelationshipTypeFlow {
			t.Errorf("fallback edge type = %q, want flow", rel.Type)
		}
	}
}

func TestPipelineRun_ValidationFailureKeepsPartialOutput(t *testing.T) {
	broken := []workflow.Component{
		{ID: "comp-a", Type: workflow.ComponentTypeModel, Name: "Model", Parent: "missing"},
	}
	pipeline := newTestPipeline(
		&mockAnalyzer{structure: &PaperStructure{}},
		&mockExtractor{components: broken},
		&mockMapper{},
	)

	diags := workflow.NewDiagnostics()
	result, err := pipeline.Run(context.Background(), RunParams{
		File: testFile(&mockFileLoader{text: []byte(SamplePaper)}),
	}, diags)

	var stageErr *workflow.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Run() error = %v, want StageError", err)
	}
	if stageErr.Type != workflow.ErrTypeInternal {
		t.Errorf("error type = %q, want %q", stageErr.Type, workflow.ErrTypeInternal)
	}
	if !diags.StageFailed(workflow.StageGraphValidation) {
		t.Error("graph_validation not recorded as failed")
	}

	if result == nil {
		t.Fatal("Run() result = nil, want partial output")
	}
	if len(result.Components) != 1 {
		t.Errorf("len(Components) = %d, want 1", len(result.Components))
	}
	if result.Graph != nil {
		t.Error("result.Graph set despite validation failure")
	}
}

func TestSplitSections(t *testing.T) {
	longA := strings.Repeat("The dataset contains labeled leaf images for training. ", 4)
	longB := strings.Repeat("The model is a convolutional network with attention. ", 4)

	text := "Short intro.\n" +
		"## 1. Data Collection\n" + longA + "\n" +
		"## 2. Model\n" + longB + "\n" +
		"## 3. Notes\ntoo short\n"

	sections := SplitSections(text)
	if len(sections) != 2 {
		t.Fatalf("len(sections) = %d, want 2: %+v", len(sections), sections)
	}
	if sections[0].Name != "1. Data Collection" {
		t.Errorf("sections[0].Name = %q", sections[0].Name)
	}
	if sections[1].Name != "2. Model" {
		t.Errorf("sections[1].Name = %q", sections[1].Name)
	}
}

func TestSplitSections_NoHeadings(t *testing.T) {
	text := strings.Repeat("Plain paragraph text without any headings. ", 5)
	sections := SplitSections(text)
	if len(sections) != 1 {
		t.Fatalf("len(sections) = %d, want 1", len(sections))
	}
	if sections[0].Name != "Full Text" {
		t.Errorf("sections[0].Name = %q, want Full Text", sections[0].Name)
	}
}

func TestFallbackFlow_SkipsChildren(t *testing.T) {
	components := []workflow.Component{
		{ID: "comp-model", Type: workflow.ComponentTypeModel, Name: "Model"},
		{ID: "comp-layer", Type: workflow.ComponentTypeLayer, Name: "Layer", Parent: "comp-model"},
		{ID: "comp-data", Type: workflow.ComponentTypeDataset, Name: "Dataset"},
	}

	relationships, err := FallbackFlow(components)
	if err != nil {
		t.Fatalf("FallbackFlow() error = %v", err)
	}
	if len(relationships) != 1 {
		t.Fatalf("len(relationships) = %d, want 1", len(relationships))
	}
	if relationships[0].SourceID != "comp-data" || relationships[0].TargetID != "comp-model" {
		t.Errorf("edge = %s -> %s, want comp-data -> comp-model", relationships[0].SourceID, relationships[0].TargetID)
	}
}
