package planner

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"nutrition-planner/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *PlanRepository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPlanRepository(db.SQL)
}

func TestPlanRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	older := validPlan()
	older.UserID = "alice"
	older.CreatedAt = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	newer := validPlan()
	newer.UserID = "alice"
	newer.Request = "more fish"
	newer.CreatedAt = time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	other := validPlan()
	other.UserID = "bob"

	olderID, err := repo.Save(ctx, older)
	require.NoError(t, err)
	newerID, err := repo.Save(ctx, newer)
	require.NoError(t, err)
	_, err = repo.Save(ctx, other)
	require.NoError(t, err)

	assert.Equal(t, olderID, older.ID)
	assert.NotEqual(t, olderID, newerID)

	t.Run("Get", func(t *testing.T) {
		got, err := repo.Get(ctx, olderID)
		require.NoError(t, err)
		assert.Equal(t, olderID, got.ID)
		assert.Equal(t, "alice", got.UserID)
		assert.Len(t, got.Days, PlanDays)
		assert.Equal(t, older.Recipes, got.Recipes)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		_, err := repo.Get(ctx, 9999)
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("Latest", func(t *testing.T) {
		got, err := repo.Latest(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, newerID, got.ID)
		assert.Equal(t, "more fish", got.Request)

		_, err = repo.Latest(ctx, "carol")
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("ListRecentByUserID", func(t *testing.T) {
		plans, err := repo.ListRecentByUserID(ctx, "alice", 1)
		require.NoError(t, err)
		require.Len(t, plans, 1)
		assert.Equal(t, newerID, plans[0].ID)

		all, err := repo.ListByUserID(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("Upsert replaces in place", func(t *testing.T) {
		revised, err := repo.Get(ctx, olderID)
		require.NoError(t, err)
		revised.Days[0].Dinner = ""
		require.NoError(t, repo.Upsert(ctx, revised))

		got, err := repo.Get(ctx, olderID)
		require.NoError(t, err)
		assert.Equal(t, "", got.Days[0].Dinner)

		all, err := repo.ListByUserID(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("Upsert with explicit ID inserts", func(t *testing.T) {
		restored := validPlan()
		restored.ID = 500
		restored.UserID = "dave"
		require.NoError(t, repo.Upsert(ctx, restored))

		got, err := repo.Get(ctx, 500)
		require.NoError(t, err)
		assert.Equal(t, "dave", got.UserID)
	})

	t.Run("Owner", func(t *testing.T) {
		owner, err := repo.Owner(ctx, olderID)
		require.NoError(t, err)
		assert.Equal(t, "alice", owner)

		_, err = repo.Owner(ctx, 9999)
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})
}
