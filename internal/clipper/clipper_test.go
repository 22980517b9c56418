package clipper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nutrition-planner/internal/llm"
	"nutrition-planner/internal/recipe"
	"nutrition-planner/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---
type MockRecipeSaver struct {
	Saved       map[string]recipe.Recipe
	ShouldError bool
}

func (m *MockRecipeSaver) Save(ctx context.Context, userID string, rec recipe.Recipe) error {
	if m.ShouldError {
		return errors.New("mock db error")
	}
	if m.Saved == nil {
		m.Saved = map[string]recipe.Recipe{}
	}
	m.Saved[userID+"/"+rec.ID] = rec
	return nil
}

type MockTextGenerator struct {
	Response    string
	ShouldError bool
	Prompt      string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Prompt = prompt
	if m.ShouldError {
		return llm.ContentResponse{}, errors.New("mock ai error")
	}
	return llm.ContentResponse{Content: m.Response, Usage: shared.TokenUsage{PromptTokens: 10, CompletionTokens: 20}}, nil
}

const dirtyPage = `
<html>
	<head><title>Tasty Recipe | Blog</title><script>alert('bad');</script></head>
	<body>
		<nav>Home About</nav>
		<h1>Tasty Recipe</h1>
		<div class="ads">Buy stuff!</div>
		<p>Mix   flour
		and water.</p>
		<script>more_bad_stuff()</script>
		<footer>Copyright 2024</footer>
	</body>
</html>`

const extracted = `{"name": "Tasty Recipe", "ingredients": [{"item": "flour", "quantity": "200g"}, {"item": "water", "quantity": "10cl"}], "steps": ["Mix flour and water."], "calories": 300}`

func newPageServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(dirtyPage))
	}))
	t.Cleanup(ts.Close)
	return ts
}

// --- Tests ---

func TestFetchAndCleanHTML(t *testing.T) {
	ts := newPageServer(t)
	c := NewClipper(&MockRecipeSaver{}, &MockTextGenerator{})

	src, err := c.fetchAndCleanHTML(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Equal(t, "Tasty Recipe | Blog", src.Title)
	assert.Equal(t, ts.URL, src.URL)
	assert.NotContains(t, src.Text, "alert('bad')")
	assert.NotContains(t, src.Text, "Buy stuff!")
	assert.NotContains(t, src.Text, "Copyright")
	assert.NotContains(t, src.Text, "Home About")
	assert.Contains(t, src.Text, "Tasty Recipe Mix flour and water.")
}

func TestClipURL(t *testing.T) {
	ctx := context.Background()
	ts := newPageServer(t)

	t.Run("Success", func(t *testing.T) {
		saver := &MockRecipeSaver{}
		gen := &MockTextGenerator{Response: extracted}
		c := NewClipper(saver, gen)

		rec, meta, err := c.ClipURL(ctx, "alice", ts.URL+"/tasty")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(rec.ID, "tasty-recipe-"))
		assert.Len(t, rec.Ingredients, 2)
		assert.Equal(t, "Extractor", meta.AgentName)
		assert.Contains(t, gen.Prompt, "Mix flour and water.")
		assert.Contains(t, saver.Saved, "alice/"+rec.ID)

		again, _, err := c.ClipURL(ctx, "alice", ts.URL+"/tasty")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, again.ID, "same URL keeps the same ID")

		other, _, err := c.ClipURL(ctx, "bob", ts.URL+"/tasty")
		require.NoError(t, err)
		assert.NotEqual(t, rec.ID, other.ID)
	})

	t.Run("InvalidURL", func(t *testing.T) {
		c := NewClipper(&MockRecipeSaver{}, &MockTextGenerator{})
		for _, bad := range []string{"", "not a url", "ftp://example.com/x", "/relative"} {
			_, _, err := c.ClipURL(ctx, "alice", bad)
			assert.ErrorIs(t, err, ErrInvalidURL, bad)
		}
	})

	t.Run("FetchError", func(t *testing.T) {
		c := NewClipper(&MockRecipeSaver{}, &MockTextGenerator{Response: extracted})
		_, _, err := c.ClipURL(ctx, "alice", ts.URL+"/missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("AIError", func(t *testing.T) {
		c := NewClipper(&MockRecipeSaver{}, &MockTextGenerator{ShouldError: true})
		_, _, err := c.ClipURL(ctx, "alice", ts.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ai extraction failed")
	})

	t.Run("NoRecipeOnPage", func(t *testing.T) {
		c := NewClipper(&MockRecipeSaver{}, &MockTextGenerator{Response: `{"name": ""}`})
		_, _, err := c.ClipURL(ctx, "alice", ts.URL)
		assert.ErrorIs(t, err, recipe.ErrNoRecipe)
	})

	t.Run("SaveError", func(t *testing.T) {
		c := NewClipper(&MockRecipeSaver{ShouldError: true}, &MockTextGenerator{Response: extracted})
		_, meta, err := c.ClipURL(ctx, "alice", ts.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save recipe")
		assert.Equal(t, 10, meta.Usage.PromptTokens)
	})
}
