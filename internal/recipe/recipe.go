package recipe

import (
	"fmt"
	"strings"
)

// Ingredient is an ingredient as authored by the model: a free-text quantity
// ("400g", "2", "1 pincée") next to an item name. Normalization happens later.
type Ingredient struct {
	Item     string `json:"item"`
	Quantity string `json:"quantity"`
}

// Recipe is a generated or clipped recipe. Recipes are immutable once created.
type Recipe struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Steps       []string     `json:"steps"`
	Ingredients []Ingredient `json:"ingredients"`
	Calories    int          `json:"calories"`
}

// Summary renders a one-line description used as LLM context.
func (r Recipe) Summary() string {
	items := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		items = append(items, strings.TrimSpace(ing.Quantity+" "+ing.Item))
	}
	return fmt.Sprintf("%s (%d kcal): %s", r.Name, r.Calories, strings.Join(items, ", "))
}

// Slug builds a stable identifier from a recipe name.
func Slug(name string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		case !dash && sb.Len() > 0:
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
