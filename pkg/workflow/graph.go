package workflow

import (
	"fmt"
	"slices"
)

// Graph is the validated, canonical workflow of one paper. All renderings
// are projections of this structure; the graph itself is immutable after
// construction.
type Graph struct {
	components    map[string]*Component
	order         []string
	relationships []Relationship
}

// NewGraph validates components and relationships and assembles them into a
// graph. The hierarchy must form a forest: every parent reference resolves,
// parent and children links agree, and no component is its own ancestor.
// Validation failures are structural defects of the extraction output and
// abort graph construction.
func NewGraph(components []Component, relationships []Relationship) (*Graph, error) {
	byID := make(map[string]*Component, len(components))
	order := make([]string, 0, len(components))

	for i := range components {
		c := components[i]
		if c.ID == "" {
			return nil, fmt.Errorf("component %q has no id", c.Name)
		}
		if _, exists := byID[c.ID]; exists {
			return nil, fmt.Errorf("duplicate component id %q", c.ID)
		}
		byID[c.ID] = &c
		order = append(order, c.ID)
	}

	for _, id := range order {
		c := byID[id]
		if c.Parent == "" {
			continue
		}
		if c.Parent == c.ID {
			return nil, fmt.Errorf("component %q is its own parent", c.ID)
		}
		if _, ok := byID[c.Parent]; !ok {
			return nil, fmt.Errorf("component %q references unknown parent %q", c.ID, c.Parent)
		}
	}

	// Children lists are derived from the parent references so both sides
	// of the hierarchy always agree. Extraction order is preserved.
	derived := make(map[string][]string, len(byID))
	for _, id := range order {
		c := byID[id]
		if c.Parent != "" {
			derived[c.Parent] = append(derived[c.Parent], c.ID)
		}
	}
	for _, id := range order {
		c := byID[id]
		want := derived[id]
		if len(c.Children) > 0 && !slices.Equal(c.Children, want) {
			return nil, fmt.Errorf("component %q has inconsistent children list", id)
		}
		c.Children = want
	}

	// Forest check: walking parent links from any node must terminate
	// at a root without revisiting a node.
	for _, id := range order {
		seen := map[string]bool{id: true}
		for cur := byID[id].Parent; cur != ""; cur = byID[cur].Parent {
			if seen[cur] {
				return nil, fmt.Errorf("hierarchy cycle involving component %q", id)
			}
			seen[cur] = true
		}
	}

	kept := make([]Relationship, 0, len(relationships))
	for _, r := range relationships {
		if _, ok := byID[r.SourceID]; !ok {
			return nil, fmt.Errorf("relationship %q references unknown source %q", r.ID, r.SourceID)
		}
		if _, ok := byID[r.TargetID]; !ok {
			return nil, fmt.Errorf("relationship %q references unknown target %q", r.ID, r.TargetID)
		}
		kept = append(kept, r)
	}

	return &Graph{
		components:    byID,
		order:         order,
		relationships: kept,
	}, nil
}

// Get returns the component with the given id.
func (g *Graph) Get(id string) (*Component, bool) {
	c, ok := g.components[id]
	return c, ok
}

// Len returns the number of components.
func (g *Graph) Len() int {
	return len(g.order)
}

// Components returns all components in extraction order.
func (g *Graph) Components() []*Component {
	out := make([]*Component, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.components[id])
	}
	return out
}

// Relationships returns all relationships of the graph.
func (g *Graph) Relationships() []Relationship {
	return slices.Clone(g.relationships)
}

// ChildrenOf returns the direct children of id in extraction order.
func (g *Graph) ChildrenOf(id string) []*Component {
	c, ok := g.components[id]
	if !ok {
		return nil
	}
	out := make([]*Component, 0, len(c.Children))
	for _, childID := range c.Children {
		out = append(out, g.components[childID])
	}
	return out
}

// TopLevel returns the root components, in extraction order.
func (g *Graph) TopLevel() []*Component {
	var out []*Component
	for _, id := range g.order {
		if c := g.components[id]; c.Parent == "" {
			out = append(out, c)
		}
	}
	return out
}

// VisibleSet computes the set of visible component ids for the given
// expansion state. Top-level components are always visible; the children of
// a component appear only while that component is both visible and expanded,
// so collapsing a node hides its entire subtree regardless of the expansion
// state of its descendants.
func (g *Graph) VisibleSet(expanded map[string]bool) map[string]bool {
	visible := make(map[string]bool)
	var walk func(c *Component)
	walk = func(c *Component) {
		visible[c.ID] = true
		if !expanded[c.ID] {
			return
		}
		for _, childID := range c.Children {
			walk(g.components[childID])
		}
	}
	for _, root := range g.TopLevel() {
		walk(root)
	}
	return visible
}

// RelationshipsAmong returns the relationships whose both endpoints are in
// the given visible set, preserving order.
func (g *Graph) RelationshipsAmong(visible map[string]bool) []Relationship {
	var out []Relationship
	for _, r := range g.relationships {
		if visible[r.SourceID] && visible[r.TargetID] {
			out = append(out, r)
		}
	}
	return out
}
