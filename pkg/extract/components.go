package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/paperflow-ai/paperflow/internal/util"
	"github.com/paperflow-ai/paperflow/pkg/ai"
	"github.com/paperflow-ai/paperflow/pkg/logger"
	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

// ComponentExtractor produces the workflow component set of a paper.
type ComponentExtractor interface {
	Extract(ctx context.Context, structure *PaperStructure, text string) ([]workflow.Component, error)
}

type extractedDetail struct {
	Key   string `json:"key" jsonschema_description:"Name of the configuration value"`
	Value string `json:"value" jsonschema_description:"The configuration value as written in the paper"`
}

type extractedMetric struct {
	Name  string  `json:"name" jsonschema_description:"Name of the reported metric"`
	Value float64 `json:"value" jsonschema_description:"Numeric value of the metric"`
}

type extractedComponent struct {
	Name        string            `json:"name" jsonschema_description:"Component name as it appears in the paper"`
	Type        string            `json:"type" jsonschema_description:"One of the allowed component types"`
	Description string            `json:"description" jsonschema_description:"What the component does in this paper"`
	Details     []extractedDetail `json:"details" jsonschema_description:"Configuration values of the component"`
	Metrics     []extractedMetric `json:"metrics" jsonschema_description:"Numeric results reported for the component"`
	Importance  int               `json:"importance" jsonschema_description:"Centrality of the component from 0 to 100"`
	IsNovel     bool              `json:"is_novel" jsonschema_description:"Whether the component is a contribution of the authors"`
	Parent      string            `json:"parent" jsonschema_description:"Name of the containing component, or empty"`
}

type extractedComponentList struct {
	Components []extractedComponent `json:"components" jsonschema_description:"Workflow components found in the section"`
}

// AIComponentExtractor extracts components per section with bounded
// parallelism and merges the results, deduplicating by name.
type AIComponentExtractor struct {
	client      ai.Client
	opts        []ai.GenerateOption
	parallel    int
	tokenBudget int
}

// NewAIComponentExtractorParams configures an AIComponentExtractor. Options
// are applied to every generation call.
type NewAIComponentExtractorParams struct {
	Client   ai.Client
	Parallel int
	Options  []ai.GenerateOption
}

// NewAIComponentExtractor creates a component extractor backed by the given AI client.
func NewAIComponentExtractor(params NewAIComponentExtractorParams) *AIComponentExtractor {
	parallel := params.Parallel
	if parallel <= 0 {
		parallel = 2
	}
	return &AIComponentExtractor{
		client:      params.Client,
		opts:        params.Options,
		parallel:    parallel,
		tokenBudget: DefaultPromptTokenBudget,
	}
}

// Extract runs component extraction over every section of the paper. When no
// sections are available it falls back to a single pass over the full text.
func (e *AIComponentExtractor) Extract(
	ctx context.Context,
	structure *PaperStructure,
	text string,
) ([]workflow.Component, error) {
	sections := structure.Sections
	if len(sections) == 0 {
		sections = []Section{{Name: "Full Text", Content: text}}
	}

	results := make([][]extractedComponent, len(sections))
	resultsMtx := sync.Mutex{}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallel)

	for i, section := range sections {
		idx := i
		sec := section
		g.Go(func() error {
			logger.Debug("[Extract] Processing section", "name", sec.Name, "number", idx+1, "total", len(sections))

			content, err := TruncateTokens(sec.Content, e.tokenBudget)
			if err != nil {
				return err
			}

			prompt := fmt.Sprintf("Section %q of the paper:\n\n%s", sec.Name, content)
			opts := append([]ai.GenerateOption{
				ai.WithSystemPrompts(componentPrompt),
				ai.WithTemperature(extractTemperature),
			}, e.opts...)

			var list extractedComponentList
			err = util.RetryErrWithContext(gCtx, maxRetries, func(ctx context.Context) error {
				return e.client.GenerateCompletionWithFormat(
					ctx,
					"workflow_components",
					"Workflow components extracted from a paper section",
					prompt,
					&list,
					opts...,
				)
			})
			if err != nil {
				return fmt.Errorf("section %q: %w", sec.Name, err)
			}

			resultsMtx.Lock()
			results[idx] = list.Components
			resultsMtx.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mergeComponents(sections, results)
}

// mergeComponents flattens per-section results into a deduplicated component
// list with assigned ids and parent names resolved to ids.
func mergeComponents(sections []Section, results [][]extractedComponent) ([]workflow.Component, error) {
	components := make([]workflow.Component, 0)
	byName := make(map[string]int)
	parentNames := make(map[string]string)

	for sectionIdx, extracted := range results {
		for _, ec := range extracted {
			name := strings.TrimSpace(ec.Name)
			if name == "" {
				continue
			}

			nameKey := strings.ToLower(name)
			if _, seen := byName[nameKey]; seen {
				continue
			}

			id, err := gonanoid.New()
			if err != nil {
				return nil, fmt.Errorf("nanoid: %w", err)
			}

			componentType := workflow.ComponentType(strings.ToLower(strings.TrimSpace(ec.Type)))
			if !workflow.KnownComponentType(componentType) {
				componentType = workflow.ComponentTypeOther
			}

			component := workflow.Component{
				ID:            id,
				Type:          componentType,
				Name:          name,
				Description:   strings.TrimSpace(ec.Description),
				SourceSection: sections[sectionIdx].Name,
				Importance:    clampImportance(ec.Importance),
				IsNovel:       ec.IsNovel,
			}

			if len(ec.Details) > 0 {
				component.Details = make(map[string]string, len(ec.Details))
				for _, d := range ec.Details {
					if strings.TrimSpace(d.Key) == "" {
						continue
					}
					component.Details[d.Key] = d.Value
				}
			}

			if len(ec.Metrics) > 0 {
				component.Metrics = make(map[string]float64, len(ec.Metrics))
				for _, m := range ec.Metrics {
					if strings.TrimSpace(m.Name) == "" {
						continue
					}
					component.Metrics[m.Name] = m.Value
				}
			}

			if parent := strings.TrimSpace(ec.Parent); parent != "" {
				parentNames[nameKey] = strings.ToLower(parent)
			}

			byName[nameKey] = len(components)
			components = append(components, component)
		}
	}

	// Resolve parent references by name. Unresolved or self-referencing
	// parents are dropped rather than propagated as dangling ids.
	for nameKey, parentKey := range parentNames {
		childIdx := byName[nameKey]
		parentIdx, ok := byName[parentKey]
		if !ok || parentIdx == childIdx {
			continue
		}
		components[childIdx].Parent = components[parentIdx].ID
	}

	return components, nil
}

func clampImportance(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
