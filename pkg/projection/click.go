package projection

import (
	"strings"

	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

// rowSpacing is the fixed vertical spacing assumed by the positional
// fallback: flow-chart renderings that lose structured ids still lay nodes
// out in roughly even rows.
const rowSpacing = 40.0

// ClickPayload carries whatever a rendering layer produced for a click: an
// embedded data map, a raw candidate string, or only a layout coordinate.
type ClickPayload struct {
	Data        map[string]string
	Candidate   string
	X, Y        float64
	HasPosition bool
}

// ResolveClick maps a click payload back to a canonical component id. The
// precedence is fixed and shared by all three projections:
//
//  1. an embedded structured id in the data payload,
//  2. exact match against a component id,
//  3. prefix/substring match against a component id,
//  4. exact then substring match against a component name,
//  5. positional row heuristic from the layout coordinate,
//  6. the first component in extraction order.
//
// Resolution is deterministic; candidate scans follow extraction order. The
// second return value is false only for an empty graph.
func ResolveClick(g *workflow.Graph, p ClickPayload) (string, bool) {
	if g == nil || g.Len() == 0 {
		return "", false
	}

	for _, key := range []string{"component_id", "id"} {
		if id, ok := p.Data[key]; ok && id != "" {
			if _, known := g.Get(id); known {
				return id, true
			}
		}
	}

	candidate := strings.TrimSpace(p.Candidate)
	if candidate != "" {
		if _, known := g.Get(candidate); known {
			return candidate, true
		}
		for _, c := range g.Components() {
			if strings.HasPrefix(candidate, c.ID) || strings.HasPrefix(c.ID, candidate) {
				return c.ID, true
			}
		}
		lower := strings.ToLower(candidate)
		for _, c := range g.Components() {
			if strings.EqualFold(c.Name, candidate) {
				return c.ID, true
			}
		}
		for _, c := range g.Components() {
			name := strings.ToLower(c.Name)
			if strings.Contains(name, lower) || strings.Contains(lower, name) {
				return c.ID, true
			}
		}
	}

	components := g.Components()
	if p.HasPosition {
		row := int(p.Y / rowSpacing)
		if row < 0 {
			row = 0
		}
		if row >= len(components) {
			row = len(components) - 1
		}
		return components[row].ID, true
	}

	// Degraded but deterministic: never a silent no-op.
	return components[0].ID, true
}
