package recipe

import (
	"context"
	"path/filepath"
	"testing"

	"nutrition-planner/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Salade Niçoise", "salade-ni-oise"},
		{"  Chicken & Rice Bowl ", "chicken-rice-bowl"},
		{"Overnight oats!", "overnight-oats"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.name))
		})
	}
}

func TestRecipeSummary(t *testing.T) {
	r := Recipe{
		Name:     "Riz au poulet",
		Calories: 650,
		Ingredients: []Ingredient{
			{Item: "riz", Quantity: "200g"},
			{Item: "poulet", Quantity: "1"},
		},
	}
	assert.Equal(t, "Riz au poulet (650 kcal): 200g riz, 1 poulet", r.Summary())
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "recipes.db"))
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db.SQL)
	rec := Recipe{
		ID:          "porridge",
		Name:        "Porridge",
		Steps:       []string{"Boil milk", "Add oats"},
		Ingredients: []Ingredient{{Item: "flocons d'avoine", Quantity: "50g"}},
		Calories:    320,
	}

	t.Run("Save and Get", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "alice", rec))

		got, err := repo.Get(ctx, "alice", "porridge")
		require.NoError(t, err)
		assert.Equal(t, rec, *got)
	})

	t.Run("Get NotFound", func(t *testing.T) {
		_, err := repo.Get(ctx, "alice", "missing")
		assert.ErrorIs(t, err, ErrRecipeNotFound)

		_, err = repo.Get(ctx, "bob", "porridge")
		assert.ErrorIs(t, err, ErrRecipeNotFound, "another user's book is not searched")
	})

	t.Run("List is scoped by user", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "bob", Recipe{ID: "toast", Name: "Toast"}))

		alice, err := repo.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, alice, 1)
		assert.Equal(t, "porridge", alice[0].ID)

		nobody, err := repo.List(ctx, "carol")
		require.NoError(t, err)
		assert.Empty(t, nobody)
	})

	t.Run("Same ID in two books", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "alice", Recipe{ID: "tarte", Name: "Tarte aux pommes"}))
		require.NoError(t, repo.Save(ctx, "bob", Recipe{ID: "tarte", Name: "Tarte salée"}))

		alice, err := repo.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, alice, 2)
		assert.Equal(t, "tarte", alice[1].ID)

		got, err := repo.Get(ctx, "alice", "tarte")
		require.NoError(t, err)
		assert.Equal(t, "Tarte aux pommes", got.Name)

		got, err = repo.Get(ctx, "bob", "tarte")
		require.NoError(t, err)
		assert.Equal(t, "Tarte salée", got.Name)
	})
}
