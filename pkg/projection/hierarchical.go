package projection

import (
	"fmt"

	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

const (
	baseRadius       = 18.0
	childRadiusStep  = 3.0
	childRadiusCap   = 12.0
	importanceRadius = 0.12
)

// typeHue assigns each component type its base hue on the color wheel.
var typeHue = map[workflow.ComponentType]int{
	workflow.ComponentTypeDataCollection: 160,
	workflow.ComponentTypeDataset:        150,
	workflow.ComponentTypePreprocessing:  243,
	workflow.ComponentTypeDataPartition:  38,
	workflow.ComponentTypeModel:          0,
	workflow.ComponentTypeLayer:          10,
	workflow.ComponentTypeModule:         20,
	workflow.ComponentTypeAlgorithm:      30,
	workflow.ComponentTypeTraining:       262,
	workflow.ComponentTypeHyperparameter: 272,
	workflow.ComponentTypeEvaluation:     330,
	workflow.ComponentTypeMetric:         340,
	workflow.ComponentTypeResults:        199,
	workflow.ComponentTypeOther:          220,
}

// MetricBadge is the single highest metric of a node, shown when the view
// requests metrics.
type MetricBadge struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// GraphNode is one renderable node of the hierarchical projection.
type GraphNode struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Label       string                 `json:"label,omitempty"`
	Type        workflow.ComponentType `json:"type"`
	Radius      float64                `json:"radius"`
	Color       string                 `json:"color"`
	Importance  int                    `json:"importance"`
	Novel       bool                   `json:"novel,omitempty"`
	Badge       *MetricBadge           `json:"badge,omitempty"`
	HasChildren bool                   `json:"has_children"`
	Expanded    bool                   `json:"expanded"`
	X           float64                `json:"x"`
	Y           float64                `json:"y"`
}

// GraphLink is one renderable edge of the hierarchical projection.
type GraphLink struct {
	Source string                    `json:"source"`
	Target string                    `json:"target"`
	Type   workflow.RelationshipType `json:"type"`
	Label  string                    `json:"label,omitempty"`
}

// HierarchicalView is the force-directed graph payload.
type HierarchicalView struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// Hierarchical renders the filtered graph as a force-directed node/link
// payload. Node positions are computed server-side; a node keeps its position
// across expand/collapse toggles because the layout seeds from the node id.
func Hierarchical(g *workflow.Graph, s Settings) HierarchicalView {
	view := Filter(g, s)

	nodes := make([]GraphNode, 0, len(view.Components))
	for _, c := range view.Components {
		node := GraphNode{
			ID:          c.ID,
			Name:        c.Name,
			Type:        c.Type,
			Radius:      nodeRadius(&c),
			Color:       nodeColor(&c),
			Importance:  c.Importance,
			HasChildren: len(c.Children) > 0,
			Expanded:    s.Expanded[c.ID],
		}
		if s.ShowNodeLabels {
			node.Label = c.Name
		}
		if s.HighlightNovel && c.IsNovel {
			node.Novel = true
		}
		if s.ShowMetrics {
			node.Badge = highestMetric(c.Metrics)
		}
		nodes = append(nodes, node)
	}

	links := make([]GraphLink, 0, len(view.Relationships))
	for _, r := range view.Relationships {
		links = append(links, GraphLink{
			Source: r.SourceID,
			Target: r.TargetID,
			Type:   r.Type,
			Label:  r.Description,
		})
	}

	layout(nodes, links)
	return HierarchicalView{Nodes: nodes, Links: links}
}

func nodeRadius(c *workflow.Component) float64 {
	childBonus := float64(len(c.Children)) * childRadiusStep
	if childBonus > childRadiusCap {
		childBonus = childRadiusCap
	}
	return baseRadius + childBonus + float64(c.Importance)*importanceRadius
}

// nodeColor keeps the hue per type and scales saturation with importance, so
// low-importance nodes of the same type fade toward grey.
func nodeColor(c *workflow.Component) string {
	hue, ok := typeHue[c.Type]
	if !ok {
		hue = typeHue[workflow.ComponentTypeOther]
	}
	importance := c.Importance
	if importance < 0 {
		importance = 0
	} else if importance > 100 {
		importance = 100
	}
	saturation := 25 + (60*importance)/100
	return fmt.Sprintf("hsl(%d, %d%%, 52%%)", hue, saturation)
}

func highestMetric(metrics map[string]float64) *MetricBadge {
	var badge *MetricBadge
	for name, value := range metrics {
		if badge == nil || value > badge.Value || (value == badge.Value && name < badge.Name) {
			badge = &MetricBadge{Name: name, Value: value}
		}
	}
	return badge
}
