package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/paperflow-ai/paperflow/internal/util"
	"github.com/paperflow-ai/paperflow/pkg/ai"
	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

// Summarizer produces the prose overview of an extracted workflow.
type Summarizer interface {
	Summarize(
		ctx context.Context,
		structure *PaperStructure,
		components []workflow.Component,
		relationships []workflow.Relationship,
	) (string, error)
}

// AISummarizer writes the overview from the extracted workflow with a
// free-form completion. It works off the extraction output rather than the
// paper text, so the overview never mentions anything extraction dropped.
type AISummarizer struct {
	client ai.Client
	opts   []ai.GenerateOption
}

// NewAISummarizer creates a summarizer backed by the given AI client. Extra
// opts are applied to every generation call.
func NewAISummarizer(client ai.Client, opts ...ai.GenerateOption) *AISummarizer {
	return &AISummarizer{
		client: client,
		opts:   opts,
	}
}

// Summarize generates the workflow overview for a completed extraction.
func (s *AISummarizer) Summarize(
	ctx context.Context,
	structure *PaperStructure,
	components []workflow.Component,
	relationships []workflow.Relationship,
) (string, error) {
	names := make(map[string]string, len(components))
	for _, c := range components {
		names[c.ID] = c.Name
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Paper: %s\nType: %s\nDomain: %s\n", structure.Title, structure.PaperType, structure.Domain)

	sb.WriteString("\nExtracted components:\n")
	for _, c := range components {
		fmt.Fprintf(&sb, "- %s (%s)", c.Name, c.Type)
		if c.IsNovel {
			sb.WriteString(" [contribution]")
		}
		if c.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(c.Description)
		}
		sb.WriteString("\n")
	}

	if len(relationships) > 0 {
		sb.WriteString("\nRelationships:\n")
		for _, r := range relationships {
			fmt.Fprintf(&sb, "- %s %s %s\n", names[r.SourceID], r.Type, names[r.TargetID])
		}
	}

	opts := append([]ai.GenerateOption{
		ai.WithSystemPrompts(overviewPrompt),
		ai.WithTemperature(extractTemperature),
	}, s.opts...)

	var overview string
	err := util.RetryErrWithContext(ctx, maxRetries, func(ctx context.Context) error {
		var err error
		overview, err = s.client.GenerateCompletion(ctx, sb.String(), opts...)
		return err
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(overview), nil
}
