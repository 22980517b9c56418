package clipper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nutrition-planner/internal/llm"
	"nutrition-planner/internal/recipe"
	"nutrition-planner/internal/shared"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxTextRunes bounds the page text sent to the model.
const maxTextRunes = 20000

// ErrInvalidURL is returned for anything that is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid recipe URL")

// RecipeSaver stores clipped recipes in the user's recipe book.
type RecipeSaver interface {
	Save(ctx context.Context, userID string, rec recipe.Recipe) error
}

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	recipes    RecipeSaver
	textGen    llm.TextGenerator
	httpClient *http.Client
}

// NewClipper creates a new Clipper instance.
func NewClipper(recipes RecipeSaver, textGen llm.TextGenerator) *Clipper {
	return &Clipper{
		recipes:    recipes,
		textGen:    textGen,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ClipURL fetches the URL, extracts the recipe using AI, and saves it to the
// user's recipe book. Clipping the same URL twice replaces the first copy.
func (c *Clipper) ClipURL(ctx context.Context, userID, rawURL string) (*recipe.Recipe, shared.AgentMeta, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, shared.AgentMeta{}, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	src, err := c.fetchAndCleanHTML(ctx, u.String())
	if err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	rec, meta, err := recipe.Extract(ctx, c.textGen, src)
	if err != nil {
		return nil, meta, fmt.Errorf("ai extraction failed: %w", err)
	}
	rec.ID = recipeID(userID, u.String(), rec.Name)

	if err := c.recipes.Save(ctx, userID, rec); err != nil {
		return nil, meta, fmt.Errorf("failed to save recipe: %w", err)
	}

	log.Info().Str("user_id", userID).Str("recipe_id", rec.ID).Str("url", u.String()).Msg("recipe clipped")
	return &rec, meta, nil
}

// recipeID is stable per (user, URL) so re-clipping overwrites.
func recipeID(userID, sourceURL, name string) string {
	suffix := uuid.NewSHA1(uuid.NameSpaceURL, []byte(userID+" "+sourceURL)).String()[:8]
	if slug := recipe.Slug(name); slug != "" {
		return slug + "-" + suffix
	}
	return "clip-" + suffix
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, pageURL string) (recipe.Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return recipe.Source{}, err
	}
	req.Header.Set("User-Agent", "nutrition-planner/1.0 (+recipe clipper)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return recipe.Source{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return recipe.Source{}, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return recipe.Source{}, err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	// Remove noise to save LLM tokens
	doc.Find("script, style, noscript, nav, header, footer, iframe, form, aside, .ads, #ads, .comments").Remove()

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if runes := []rune(text); len(runes) > maxTextRunes {
		text = string(runes[:maxTextRunes])
	}

	return recipe.Source{URL: pageURL, Title: title, Text: text}, nil
}
