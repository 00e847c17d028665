package extract

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/paperflow-ai/paperflow/internal/util"
	"github.com/paperflow-ai/paperflow/pkg/ai"
)

// minSectionLength filters out segmentation noise such as isolated headings
// or page furniture.
const minSectionLength = 100

// Section is one logical segment of a paper.
type Section struct {
	Name    string
	Content string
}

// PaperStructure is the result of structure analysis: a lightweight
// characterization of the paper plus its section segmentation.
type PaperStructure struct {
	Title     string
	PaperType string
	Domain    string
	Sections  []Section
}

// StructureAnalyzer segments a paper into sections and characterizes it.
type StructureAnalyzer interface {
	Analyze(ctx context.Context, text string) (*PaperStructure, error)
}

type paperCharacterization struct {
	Title     string `json:"title" jsonschema_description:"The exact title of the paper"`
	PaperType string `json:"paper_type" jsonschema_description:"Short phrase naming the type of paper"`
	Domain    string `json:"domain" jsonschema_description:"Short phrase naming the research domain"`
}

// AIStructureAnalyzer characterizes the paper with a structured AI call and
// segments it into sections on heading boundaries.
type AIStructureAnalyzer struct {
	client      ai.Client
	opts        []ai.GenerateOption
	tokenBudget int
}

// NewAIStructureAnalyzer creates a structure analyzer backed by the given AI
// client. Extra opts are applied to every generation call.
func NewAIStructureAnalyzer(client ai.Client, opts ...ai.GenerateOption) *AIStructureAnalyzer {
	return &AIStructureAnalyzer{
		client:      client,
		opts:        opts,
		tokenBudget: DefaultPromptTokenBudget,
	}
}

// Analyze characterizes the paper and splits it into sections. Sections
// shorter than minSectionLength characters are dropped.
func (a *AIStructureAnalyzer) Analyze(ctx context.Context, text string) (*PaperStructure, error) {
	prompt, err := TruncateTokens(text, a.tokenBudget)
	if err != nil {
		return nil, err
	}

	opts := append([]ai.GenerateOption{
		ai.WithSystemPrompts(characterizePrompt),
		ai.WithTemperature(extractTemperature),
	}, a.opts...)

	var characterization paperCharacterization
	err = util.RetryErrWithContext(ctx, maxRetries, func(ctx context.Context) error {
		return a.client.GenerateCompletionWithFormat(
			ctx,
			"paper_characterization",
			"Title, type, and domain of a research paper",
			prompt,
			&characterization,
			opts...,
		)
	})
	if err != nil {
		return nil, err
	}

	return &PaperStructure{
		Title:     strings.TrimSpace(characterization.Title),
		PaperType: strings.TrimSpace(characterization.PaperType),
		Domain:    strings.TrimSpace(characterization.Domain),
		Sections:  SplitSections(text),
	}, nil
}

var headingPattern = regexp.MustCompile(`(?m)^(?:#{1,4}\s+.+|(?:\d+|[IVXL]+)\.\s+[A-Z].{2,80})$`)

// SplitSections segments paper text into sections on markdown and numbered
// headings. Content before the first heading becomes the "Preamble" section.
// Sections shorter than minSectionLength characters are ignored.
func SplitSections(text string) []Section {
	matches := headingPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		content := strings.TrimSpace(text)
		if utf8.RuneCountInString(content) < minSectionLength {
			return nil
		}
		return []Section{{Name: "Full Text", Content: content}}
	}

	sections := make([]Section, 0, len(matches)+1)
	appendSection := func(name, content string) {
		content = strings.TrimSpace(content)
		if utf8.RuneCountInString(content) < minSectionLength {
			return
		}
		sections = append(sections, Section{Name: name, Content: content})
	}

	if matches[0][0] > 0 {
		appendSection("Preamble", text[:matches[0][0]])
	}

	for i, match := range matches {
		heading := strings.TrimSpace(text[match[0]:match[1]])
		heading = strings.TrimLeft(heading, "# ")

		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		appendSection(heading, text[match[1]:end])
	}

	return sections
}
