// Package projection derives renderable payloads from a workflow graph. All
// projections share one filtering pass and one click-resolution contract, so
// toggling a setting or clicking a node behaves identically no matter which
// rendering the client picked.
package projection

import (
	"strings"

	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

// Settings are the per-view rendering options. They are supplied by the
// client on every projection request and never mutate the underlying graph.
type Settings struct {
	HiddenComponentTypes    map[workflow.ComponentType]bool
	HiddenRelationshipTypes map[workflow.RelationshipType]bool
	ShowMetrics             bool
	HighlightNovel          bool
	ShowNodeLabels          bool
	Expanded                map[string]bool
}

// ParseSettings builds Settings from the raw query-parameter values of a
// projection request. Type lists are comma-separated, expanded is a
// comma-separated list of component ids.
func ParseSettings(hideTypes, hideRelationships, expanded string, showMetrics, highlightNovel, showLabels bool) Settings {
	s := Settings{
		HiddenComponentTypes:    make(map[workflow.ComponentType]bool),
		HiddenRelationshipTypes: make(map[workflow.RelationshipType]bool),
		ShowMetrics:             showMetrics,
		HighlightNovel:          highlightNovel,
		ShowNodeLabels:          showLabels,
		Expanded:                make(map[string]bool),
	}
	for _, t := range splitList(hideTypes) {
		s.HiddenComponentTypes[workflow.ComponentType(t)] = true
	}
	for _, t := range splitList(hideRelationships) {
		s.HiddenRelationshipTypes[workflow.RelationshipType(t)] = true
	}
	for _, id := range splitList(expanded) {
		s.Expanded[id] = true
	}
	return s
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
