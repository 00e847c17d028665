package projection

import (
	"fmt"
	"strings"

	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

// typeClass maps component types to the flowchart style classes.
var typeClass = map[workflow.ComponentType]string{
	workflow.ComponentTypeDataCollection: "dataCollection",
	workflow.ComponentTypeDataset:        "dataCollection",
	workflow.ComponentTypePreprocessing:  "preprocessing",
	workflow.ComponentTypeDataPartition:  "dataPartition",
	workflow.ComponentTypeModel:          "model",
	workflow.ComponentTypeLayer:          "model",
	workflow.ComponentTypeModule:         "model",
	workflow.ComponentTypeAlgorithm:      "model",
	workflow.ComponentTypeTraining:       "training",
	workflow.ComponentTypeHyperparameter: "training",
	workflow.ComponentTypeEvaluation:     "evaluation",
	workflow.ComponentTypeMetric:         "evaluation",
	workflow.ComponentTypeResults:        "results",
}

var classDefs = []string{
	"classDef dataCollection fill:#10B981,stroke:#047857,color:white;",
	"classDef preprocessing fill:#6366F1,stroke:#4338CA,color:white;",
	"classDef dataPartition fill:#F59E0B,stroke:#B45309,color:white;",
	"classDef model fill:#EF4444,stroke:#B91C1C,color:white;",
	"classDef training fill:#8B5CF6,stroke:#6D28D9,color:white;",
	"classDef evaluation fill:#EC4899,stroke:#BE185D,color:white;",
	"classDef results fill:#0EA5E9,stroke:#0369A1,color:white;",
}

// FlowView is the flow-diagram text payload. Diagram is a mermaid flowchart;
// ComponentMapping maps diagram node letters back to component ids for click
// resolution.
type FlowView struct {
	Diagram          string            `json:"diagram"`
	ComponentMapping map[string]string `json:"component_mapping"`
	NodeCount        int               `json:"node_count"`
	EdgeCount        int               `json:"edge_count"`
}

// Flow serializes the filtered graph into a mermaid flowchart. One node
// statement is emitted per visible component and one edge statement per
// surviving relationship, so the statement counts mirror the filtered
// subgraph exactly.
func Flow(g *workflow.Graph, s Settings) FlowView {
	view := Filter(g, s)

	letters := make(map[string]string, len(view.Components))
	for i, c := range view.Components {
		letters[c.ID] = nodeLetter(i)
	}

	var nodes, edges, classes []string
	for _, c := range view.Components {
		letter := letters[c.ID]
		nodes = append(nodes, fmt.Sprintf("%s[%s]", letter, sanitizeLabel(c.Name)))
		if class, ok := typeClass[c.Type]; ok {
			classes = append(classes, fmt.Sprintf("class %s %s;", letter, class))
		}
	}
	for _, r := range view.Relationships {
		source := letters[r.SourceID]
		target := letters[r.TargetID]
		if r.Type == workflow.RelationshipTypeFlow {
			edges = append(edges, fmt.Sprintf("%s --> %s", source, target))
		} else {
			edges = append(edges, fmt.Sprintf("%s -.->|%s| %s", source, r.Type, target))
		}
	}

	var b strings.Builder
	b.WriteString("flowchart TD\n")
	writeSection(&b, nodes)
	writeSection(&b, edges)
	writeSection(&b, classDefs)
	writeSection(&b, classes)

	mapping := make(map[string]string, len(letters))
	for id, letter := range letters {
		mapping[letter] = id
	}

	return FlowView{
		Diagram:          b.String(),
		ComponentMapping: mapping,
		NodeCount:        len(nodes),
		EdgeCount:        len(edges),
	}
}

func writeSection(b *strings.Builder, lines []string) {
	for _, line := range lines {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}

// nodeLetter yields A..Z, then AA, AB and so on.
func nodeLetter(i int) string {
	letter := string(rune('A' + i%26))
	for i = i/26 - 1; i >= 0; i = i/26 - 1 {
		letter = string(rune('A'+i%26)) + letter
	}
	return letter
}

// sanitizeLabel strips characters that break flowchart statements.
func sanitizeLabel(name string) string {
	replacer := strings.NewReplacer("[", "(", "]", ")", "\"", "'", "\n", " ", "|", "/")
	return replacer.Replace(name)
}
