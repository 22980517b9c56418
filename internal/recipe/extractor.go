package recipe

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"
	"time"

	"nutrition-planner/internal/llm"
	"nutrition-planner/internal/shared"
)

//go:embed extractor_prompt.md
var extractorPrompt string

var extractorTmpl = template.Must(template.New("extractor").Parse(extractorPrompt))

const agentExtractor = "Extractor"

// ErrNoRecipe is returned when the source text does not contain a recipe.
var ErrNoRecipe = errors.New("no recipe found in page")

// Source is the cleaned text of a web page.
type Source struct {
	URL   string
	Title string
	Text  string
}

// Extract asks the model to structure the recipe found in src. The returned
// recipe has no ID yet.
func Extract(ctx context.Context, textGen llm.TextGenerator, src Source) (Recipe, shared.AgentMeta, error) {
	start := time.Now()

	var buf bytes.Buffer
	if err := extractorTmpl.Execute(&buf, src); err != nil {
		return Recipe{}, shared.AgentMeta{}, fmt.Errorf("failed to render extractor prompt: %w", err)
	}

	llmResp, err := textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return Recipe{}, shared.AgentMeta{AgentName: agentExtractor}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	meta := shared.AgentMeta{
		AgentName: agentExtractor,
		Usage:     llmResp.Usage,
		Latency:   time.Since(start),
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(llm.StripCodeFence(llmResp.Content)), &rec); err != nil {
		return Recipe{}, meta, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}
	if rec.Name == "" || len(rec.Ingredients) == 0 {
		return Recipe{}, meta, ErrNoRecipe
	}
	return rec, meta, nil
}
