package workflow

// ComponentType categorizes a workflow node extracted from a paper.
type ComponentType string

const (
	ComponentTypeDataCollection ComponentType = "data_collection"
	ComponentTypeDataset        ComponentType = "dataset"
	ComponentTypePreprocessing  ComponentType = "preprocessing"
	ComponentTypeDataPartition  ComponentType = "data_partition"
	ComponentTypeModel          ComponentType = "model"
	ComponentTypeLayer          ComponentType = "layer"
	ComponentTypeModule         ComponentType = "module"
	ComponentTypeTraining       ComponentType = "training"
	ComponentTypeHyperparameter ComponentType = "hyperparameter"
	ComponentTypeAlgorithm      ComponentType = "algorithm"
	ComponentTypeEvaluation     ComponentType = "evaluation"
	ComponentTypeMetric         ComponentType = "metric"
	ComponentTypeResults        ComponentType = "results"
	ComponentTypeOther          ComponentType = "other"
)

// RelationshipType categorizes a directed edge between two components.
type RelationshipType string

const (
	RelationshipTypeFlow      RelationshipType = "flow"
	RelationshipTypeUses      RelationshipType = "uses"
	RelationshipTypeContains  RelationshipType = "contains"
	RelationshipTypeEvaluates RelationshipType = "evaluates"
	RelationshipTypeCompares  RelationshipType = "compares"
	RelationshipTypeImproves  RelationshipType = "improves"
	RelationshipTypePartOf    RelationshipType = "part_of"
)

// Component is one node in the extracted workflow graph.
// Parent and Children hold component IDs, never pointers, so the
// hierarchy can be stored and shipped as flat rows.
type Component struct {
	ID            string             `json:"id"`
	Type          ComponentType      `json:"type"`
	Name          string             `json:"name"`
	Description   string             `json:"description,omitempty"`
	SourceSection string             `json:"source_section,omitempty"`
	SourcePage    int                `json:"source_page,omitempty"`
	Details       map[string]string  `json:"details,omitempty"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	Importance    int                `json:"importance"`
	IsNovel       bool               `json:"is_novel"`
	Parent        string             `json:"parent,omitempty"`
	Children      []string           `json:"children,omitempty"`
}

// Relationship is one directed, typed edge between two components
// of the same paper.
type Relationship struct {
	ID          string           `json:"id"`
	SourceID    string           `json:"source_id"`
	TargetID    string           `json:"target_id"`
	Type        RelationshipType `json:"type"`
	Description string           `json:"description,omitempty"`
}

// WorkflowOrder defines the canonical position of each component type in a
// typical experiment pipeline. It drives the fallback flow generation when
// relationship mapping yields nothing usable.
var WorkflowOrder = map[ComponentType]int{
	ComponentTypeDataCollection: 0,
	ComponentTypeDataset:        1,
	ComponentTypePreprocessing:  2,
	ComponentTypeDataPartition:  3,
	ComponentTypeModel:          4,
	ComponentTypeLayer:          5,
	ComponentTypeModule:         5,
	ComponentTypeAlgorithm:      5,
	ComponentTypeHyperparameter: 6,
	ComponentTypeTraining:       7,
	ComponentTypeEvaluation:     8,
	ComponentTypeMetric:         9,
	ComponentTypeResults:        10,
	ComponentTypeOther:          11,
}

// KnownComponentType reports whether t is one of the enumerated component types.
func KnownComponentType(t ComponentType) bool {
	_, ok := WorkflowOrder[t]
	return ok
}
