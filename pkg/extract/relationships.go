package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/paperflow-ai/paperflow/internal/util"
	"github.com/paperflow-ai/paperflow/pkg/ai"
	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

// RelationshipMapper produces the directed edges between extracted components.
type RelationshipMapper interface {
	Map(ctx context.Context, components []workflow.Component, text string) ([]workflow.Relationship, error)
}

type extractedRelationship struct {
	SourceID    string `json:"source_id" jsonschema_description:"Id of the source component"`
	TargetID    string `json:"target_id" jsonschema_description:"Id of the target component"`
	Type        string `json:"type" jsonschema_description:"One of the allowed relationship types"`
	Description string `json:"description" jsonschema_description:"Short description of the relationship"`
}

type extractedRelationshipList struct {
	Relationships []extractedRelationship `json:"relationships" jsonschema_description:"Directed relationships between the given components"`
}

// AIRelationshipMapper maps relationships with a structured AI call and
// validates every returned edge against the extracted component set.
type AIRelationshipMapper struct {
	client      ai.Client
	opts        []ai.GenerateOption
	tokenBudget int
}

// NewAIRelationshipMapper creates a relationship mapper backed by the given
// AI client. Extra opts are applied to every generation call.
func NewAIRelationshipMapper(client ai.Client, opts ...ai.GenerateOption) *AIRelationshipMapper {
	return &AIRelationshipMapper{
		client:      client,
		opts:        opts,
		tokenBudget: DefaultPromptTokenBudget,
	}
}

var knownRelationshipTypes = map[workflow.RelationshipType]bool{
	workflow.RelationshipTypeFlow:      true,
	workflow.RelationshipTypeUses:      true,
	workflow.RelationshipTypeContains:  true,
	workflow.RelationshipTypeEvaluates: true,
	workflow.RelationshipTypeCompares:  true,
	workflow.RelationshipTypeImproves:  true,
	workflow.RelationshipTypePartOf:    true,
}

// Map asks the model for relationships between the given components and
// drops edges with unresolved endpoints, self-references, or unknown types.
func (m *AIRelationshipMapper) Map(
	ctx context.Context,
	components []workflow.Component,
	text string,
) ([]workflow.Relationship, error) {
	if len(components) == 0 {
		return nil, nil
	}

	content, err := TruncateTokens(text, m.tokenBudget)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("Extracted components:\n")
	for _, c := range components {
		fmt.Fprintf(&sb, "- id=%s name=%q type=%s\n", c.ID, c.Name, c.Type)
	}
	sb.WriteString("\nPaper text:\n\n")
	sb.WriteString(content)

	opts := append([]ai.GenerateOption{
		ai.WithSystemPrompts(relationshipPrompt),
		ai.WithTemperature(extractTemperature),
	}, m.opts...)

	var list extractedRelationshipList
	err = util.RetryErrWithContext(ctx, maxRetries, func(ctx context.Context) error {
		return m.client.GenerateCompletionWithFormat(
			ctx,
			"workflow_relationships",
			"Directed relationships between workflow components of a paper",
			sb.String(),
			&list,
			opts...,
		)
	})
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(components))
	for _, c := range components {
		known[c.ID] = true
	}

	relationships := make([]workflow.Relationship, 0, len(list.Relationships))
	for _, er := range list.Relationships {
		source := strings.TrimSpace(er.SourceID)
		target := strings.TrimSpace(er.TargetID)
		if !known[source] || !known[target] || source == target {
			continue
		}

		relType := workflow.RelationshipType(strings.ToLower(strings.TrimSpace(er.Type)))
		if !knownRelationshipTypes[relType] {
			continue
		}

		id, err := gonanoid.New()
		if err != nil {
			return nil, fmt.Errorf("nanoid: %w", err)
		}

		relationships = append(relationships, workflow.Relationship{
			ID:          id,
			SourceID:    source,
			TargetID:    target,
			Type:        relType,
			Description: strings.TrimSpace(er.Description),
		})
	}

	return relationships, nil
}

// FallbackFlow chains top-level components with flow edges in canonical
// workflow order. It is used when relationship mapping yields nothing usable,
// so the rendered graph still shows the experiment pipeline.
func FallbackFlow(components []workflow.Component) ([]workflow.Relationship, error) {
	topLevel := make([]workflow.Component, 0, len(components))
	for _, c := range components {
		if c.Parent == "" {
			topLevel = append(topLevel, c)
		}
	}
	if len(topLevel) < 2 {
		return nil, nil
	}

	sort.SliceStable(topLevel, func(i, j int) bool {
		return workflow.WorkflowOrder[topLevel[i].Type] < workflow.WorkflowOrder[topLevel[j].Type]
	})

	relationships := make([]workflow.Relationship, 0, len(topLevel)-1)
	for i := 0; i < len(topLevel)-1; i++ {
		id, err := gonanoid.New()
		if err != nil {
			return nil, fmt.Errorf("nanoid: %w", err)
		}
		relationships = append(relationships, workflow.Relationship{
			ID:          id,
			SourceID:    topLevel[i].ID,
			TargetID:    topLevel[i+1].ID,
			Type:        workflow.RelationshipTypeFlow,
			Description: "Inferred pipeline order",
		})
	}

	return relationships, nil
}
