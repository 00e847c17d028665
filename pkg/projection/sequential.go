package projection

import "github.com/paperflow-ai/paperflow/pkg/workflow"

// SequentialItem is one row of the sequential fallback view.
type SequentialItem struct {
	Position    int                    `json:"position"`
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Type        workflow.ComponentType `json:"type"`
	Description string                 `json:"description,omitempty"`
	ChildCount  int                    `json:"child_count"`
	Novel       bool                   `json:"novel,omitempty"`
}

// SequentialView is the degradation path when neither structured rendering is
// usable: an ordered list of the visible top-level components.
type SequentialView struct {
	Items []SequentialItem `json:"items"`
}

// SequentialFromComponents renders raw components without graph validation.
// It serves papers whose stored output never formed a valid graph, so the
// partial extraction still yields a readable list.
func SequentialFromComponents(components []workflow.Component) SequentialView {
	childCount := make(map[string]int)
	for _, c := range components {
		if c.Parent != "" {
			childCount[c.Parent]++
		}
	}

	items := make([]SequentialItem, 0)
	for _, c := range components {
		if c.Parent != "" {
			continue
		}
		items = append(items, SequentialItem{
			Position:    len(items),
			ID:          c.ID,
			Name:        c.Name,
			Type:        c.Type,
			Description: c.Description,
			ChildCount:  childCount[c.ID],
		})
	}
	return SequentialView{Items: items}
}

// Sequential renders the visible top-level components as an ordered list in
// extraction order.
func Sequential(g *workflow.Graph, s Settings) SequentialView {
	view := Filter(g, s)

	items := make([]SequentialItem, 0)
	for _, c := range view.TopLevel() {
		item := SequentialItem{
			Position:    len(items),
			ID:          c.ID,
			Name:        c.Name,
			Type:        c.Type,
			Description: c.Description,
			ChildCount:  len(c.Children),
		}
		if s.HighlightNovel && c.IsNovel {
			item.Novel = true
		}
		items = append(items, item)
	}
	return SequentialView{Items: items}
}
