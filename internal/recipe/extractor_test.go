package recipe

import (
	"context"
	"errors"
	"testing"

	"nutrition-planner/internal/llm"
	"nutrition-planner/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockTextGenerator struct {
	response string
	err      error
	prompt   string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.prompt = prompt
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	return llm.ContentResponse{Content: m.response, Usage: shared.TokenUsage{PromptTokens: 300, CompletionTokens: 80}}, nil
}

func TestExtract(t *testing.T) {
	ctx := context.Background()
	src := Source{URL: "https://example.com/quiche", Title: "Quiche lorraine", Text: "Ingrédients: 3 oeufs, 200g lardons"}

	t.Run("Success", func(t *testing.T) {
		gen := &MockTextGenerator{response: "```json\n" + `{
			"name": "Quiche lorraine",
			"ingredients": [{"item": "oeufs", "quantity": "3"}, {"item": "lardons", "quantity": "200g"}],
			"steps": ["Mélanger", "Cuire 35 min"],
			"calories": 520
		}` + "\n```"}

		rec, meta, err := Extract(ctx, gen, src)
		require.NoError(t, err)

		assert.Equal(t, "Quiche lorraine", rec.Name)
		assert.Empty(t, rec.ID)
		assert.Len(t, rec.Ingredients, 2)
		assert.Equal(t, 520, rec.Calories)
		assert.Equal(t, "Extractor", meta.AgentName)
		assert.Equal(t, 300, meta.Usage.PromptTokens)

		assert.Contains(t, gen.prompt, "Source: https://example.com/quiche")
		assert.Contains(t, gen.prompt, "Page title: Quiche lorraine")
		assert.Contains(t, gen.prompt, "200g lardons")
	})

	t.Run("NoRecipe", func(t *testing.T) {
		gen := &MockTextGenerator{response: `{"name": ""}`}
		_, meta, err := Extract(ctx, gen, src)
		assert.ErrorIs(t, err, ErrNoRecipe)
		assert.Equal(t, 80, meta.Usage.CompletionTokens)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		gen := &MockTextGenerator{response: "Sorry, I can't."}
		_, _, err := Extract(ctx, gen, src)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal LLM response")
	})

	t.Run("LLMError", func(t *testing.T) {
		gen := &MockTextGenerator{err: errors.New("timeout")}
		_, meta, err := Extract(ctx, gen, src)
		require.Error(t, err)
		assert.Equal(t, "Extractor", meta.AgentName)
	})
}
