package workflow

import "sort"

// CentralComponent is one of the most connected components of a graph.
type CentralComponent struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Type        ComponentType `json:"type"`
	Connections int           `json:"connections"`
}

// Summary is an aggregate view over a workflow graph.
type Summary struct {
	ComponentCount    int                      `json:"component_count"`
	RelationshipCount int                      `json:"relationship_count"`
	ComponentsByType  map[ComponentType]int    `json:"components_by_type"`
	NovelCount        int                      `json:"novel_count"`
	CentralComponents []CentralComponent       `json:"central_components"`
	RelationshipTypes map[RelationshipType]int `json:"relationship_types"`
}

// ComputeSummary aggregates component and relationship counts and picks the
// three most connected components. Connection count is the number of incident
// relationships; ties keep extraction order.
func ComputeSummary(g *Graph) Summary {
	s := Summary{
		ComponentCount:    g.Len(),
		RelationshipCount: len(g.relationships),
		ComponentsByType:  make(map[ComponentType]int),
		RelationshipTypes: make(map[RelationshipType]int),
	}

	degree := make(map[string]int)
	for _, r := range g.relationships {
		s.RelationshipTypes[r.Type]++
		degree[r.SourceID]++
		degree[r.TargetID]++
	}

	for _, c := range g.Components() {
		s.ComponentsByType[c.Type]++
		if c.IsNovel {
			s.NovelCount++
		}
	}

	central := make([]CentralComponent, 0, g.Len())
	for _, c := range g.Components() {
		central = append(central, CentralComponent{
			ID:          c.ID,
			Name:        c.Name,
			Type:        c.Type,
			Connections: degree[c.ID],
		})
	}
	sort.SliceStable(central, func(i, j int) bool {
		return central[i].Connections > central[j].Connections
	})
	if len(central) > 3 {
		central = central[:3]
	}
	s.CentralComponents = central

	return s
}
