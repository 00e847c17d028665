package projection

import "github.com/paperflow-ai/paperflow/pkg/workflow"

// View is the filtered, visible subgraph every projection renders from.
// Components are shallow copies with pruned children lists, so filtering
// never touches the canonical graph.
type View struct {
	Components    []workflow.Component
	Relationships []workflow.Relationship

	visible map[string]bool
}

// Filter applies the shared three-step filtering pass:
//  1. remove every component whose type is hidden, together with its whole
//     subtree (hidden subtrees are never promoted to the top level),
//  2. drop relationships whose type is hidden or whose endpoints were removed,
//  3. resolve the expand/collapse visible set against the filtered hierarchy.
//
// Filtering is idempotent: the view is a fixed point under the same settings.
func Filter(g *workflow.Graph, s Settings) *View {
	removed := make(map[string]bool)
	var markRemoved func(c *workflow.Component, ancestorRemoved bool)
	markRemoved = func(c *workflow.Component, ancestorRemoved bool) {
		gone := ancestorRemoved || s.HiddenComponentTypes[c.Type]
		if gone {
			removed[c.ID] = true
		}
		for _, child := range g.ChildrenOf(c.ID) {
			markRemoved(child, gone)
		}
	}
	for _, root := range g.TopLevel() {
		markRemoved(root, false)
	}

	kept := make(map[string]workflow.Component)
	var order []string
	for _, c := range g.Components() {
		if removed[c.ID] {
			continue
		}
		copied := *c
		copied.Children = nil
		for _, childID := range c.Children {
			if !removed[childID] {
				copied.Children = append(copied.Children, childID)
			}
		}
		kept[c.ID] = copied
		order = append(order, c.ID)
	}

	visible := make(map[string]bool)
	var walk func(id string)
	walk = func(id string) {
		visible[id] = true
		if !s.Expanded[id] {
			return
		}
		for _, childID := range kept[id].Children {
			walk(childID)
		}
	}
	for _, id := range order {
		if kept[id].Parent == "" {
			walk(id)
		}
	}

	view := &View{visible: visible}
	for _, id := range order {
		if visible[id] {
			view.Components = append(view.Components, kept[id])
		}
	}
	for _, r := range g.Relationships() {
		if s.HiddenRelationshipTypes[r.Type] {
			continue
		}
		if visible[r.SourceID] && visible[r.TargetID] {
			view.Relationships = append(view.Relationships, r)
		}
	}
	return view
}

// Visible reports whether the component id survived filtering and is in the
// current visible set.
func (v *View) Visible(id string) bool {
	return v.visible[id]
}

// TopLevel returns the visible components without a visible parent, in
// extraction order.
func (v *View) TopLevel() []workflow.Component {
	var out []workflow.Component
	for _, c := range v.Components {
		if c.Parent == "" || !v.visible[c.Parent] {
			out = append(out, c)
		}
	}
	return out
}
