package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrRecipeNotFound is returned when a recipe ID is not in the recipe book.
var ErrRecipeNotFound = errors.New("recipe not found")

// Repository is a database-backed recipe book (clipped favorites per user).
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts or replaces a recipe in a user's book. Recipe IDs are scoped
// by user: the same ID in another book is a different recipe.
func (r *Repository) Save(ctx context.Context, userID string, rec Recipe) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe to JSON: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO recipes (id, user_id, data, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, userID, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save recipe %s: %w", rec.ID, err)
	}
	return nil
}

// Get retrieves a recipe from a user's book.
func (r *Repository) Get(ctx context.Context, userID, id string) (*Recipe, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM recipes WHERE user_id = ? AND id = ?`, userID, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}
	return &rec, nil
}

// List returns the user's recipe book, oldest first.
func (r *Repository) List(ctx context.Context, userID string) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, data FROM recipes WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []Recipe{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}
		var rec Recipe
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			log.Warn().Err(err).Str("recipe_id", id).Msg("skipping recipe with invalid JSON")
			continue
		}
		recipes = append(recipes, rec)
	}
	return recipes, rows.Err()
}
