package tracker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"nutrition-planner/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db.SQL)
	repo.now = func() time.Time { return time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC) }
	return repo
}

func TestAddWeight(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	t.Run("DefaultsFilled", func(t *testing.T) {
		w := &Weight{UserID: "alice", Kg: 72.5}
		require.NoError(t, repo.AddWeight(ctx, w))

		_, err := uuid.Parse(w.ID)
		assert.NoError(t, err)
		assert.Equal(t, "2026-10-19", w.Date)
		assert.False(t, w.CreatedAt.IsZero())
	})

	t.Run("Validation", func(t *testing.T) {
		tests := []struct {
			name  string
			entry *Weight
			field string
		}{
			{"too light", &Weight{UserID: "alice", Kg: 5}, "Kg"},
			{"too heavy", &Weight{UserID: "alice", Kg: 900}, "Kg"},
			{"missing user", &Weight{Kg: 70}, "UserID"},
			{"bad date", &Weight{UserID: "alice", Kg: 70, Date: "19/10/2026"}, "Date"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := repo.AddWeight(ctx, tt.entry)
				require.ErrorIs(t, err, ErrInvalidEntry)
				assert.Contains(t, err.Error(), tt.field)
			})
		}
	})

	weights, err := repo.ListWeights(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, weights, 1, "invalid entries are not stored")
}

func TestAddWorkoutAndHydration(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.AddWorkout(ctx, &Workout{UserID: "alice", Date: "2026-10-18", Kind: "run", Minutes: 30, Calories: 300}))
	require.NoError(t, repo.AddWorkout(ctx, &Workout{UserID: "alice", Date: "2026-10-19", Kind: "yoga", Minutes: 45, Notes: "morning"}))
	require.ErrorIs(t, repo.AddWorkout(ctx, &Workout{UserID: "alice", Kind: "run", Minutes: 0}), ErrInvalidEntry)
	require.ErrorIs(t, repo.AddWorkout(ctx, &Workout{UserID: "alice", Minutes: 10}), ErrInvalidEntry)

	require.NoError(t, repo.AddHydration(ctx, &Hydration{UserID: "alice", Ml: 250}))
	require.NoError(t, repo.AddHydration(ctx, &Hydration{UserID: "alice", Ml: 500}))
	require.ErrorIs(t, repo.AddHydration(ctx, &Hydration{UserID: "alice", Ml: 9000}), ErrInvalidEntry)

	workouts, err := repo.ListWorkouts(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, workouts, 2)
	assert.Equal(t, "run", workouts[0].Kind)
	assert.Equal(t, "morning", workouts[1].Notes)

	hydration, err := repo.ListHydration(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, hydration, 2)

	other, err := repo.ListHydration(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDailySummary(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.AddWeight(ctx, &Weight{UserID: "alice", Date: "2026-10-10", Kg: 74}))
	require.NoError(t, repo.AddWeight(ctx, &Weight{UserID: "alice", Date: "2026-10-17", Kg: 73.2}))
	require.NoError(t, repo.AddWeight(ctx, &Weight{UserID: "alice", Date: "2026-10-25", Kg: 72}))
	require.NoError(t, repo.AddWorkout(ctx, &Workout{UserID: "alice", Date: "2026-10-19", Kind: "run", Minutes: 30, Calories: 300}))
	require.NoError(t, repo.AddWorkout(ctx, &Workout{UserID: "alice", Date: "2026-10-19", Kind: "bike", Minutes: 60, Calories: 500}))
	require.NoError(t, repo.AddHydration(ctx, &Hydration{UserID: "alice", Date: "2026-10-19", Ml: 250}))
	require.NoError(t, repo.AddHydration(ctx, &Hydration{UserID: "alice", Date: "2026-10-19", Ml: 750}))
	require.NoError(t, repo.AddHydration(ctx, &Hydration{UserID: "alice", Date: "2026-10-20", Ml: 300}))

	s, err := repo.DailySummary(ctx, "alice", "2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Workouts)
	assert.Equal(t, 90, s.WorkoutMinutes)
	assert.Equal(t, 800, s.WorkoutCalories)
	assert.Equal(t, 1000, s.HydrationMl)
	require.NotNil(t, s.WeightKg)
	assert.Equal(t, 73.2, *s.WeightKg)

	empty, err := repo.DailySummary(ctx, "bob", "2026-10-19")
	require.NoError(t, err)
	assert.Zero(t, empty.Workouts)
	assert.Nil(t, empty.WeightKg)

	_, err = repo.DailySummary(ctx, "alice", "yesterday")
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := newTestRepo(t)

	require.NoError(t, src.AddWeight(ctx, &Weight{UserID: "alice", Kg: 70}))
	require.NoError(t, src.AddWorkout(ctx, &Workout{UserID: "alice", Kind: "swim", Minutes: 40}))
	require.NoError(t, src.AddHydration(ctx, &Hydration{UserID: "alice", Ml: 330}))

	exported, err := src.Export(ctx, "alice")
	require.NoError(t, err)

	dst := newTestRepo(t)
	require.NoError(t, dst.Import(ctx, *exported))
	require.NoError(t, dst.Import(ctx, *exported), "importing twice overwrites by ID")

	again, err := dst.Export(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, again.Weights, 1)
	require.Len(t, again.Workouts, 1)
	require.Len(t, again.Hydration, 1)
	assert.Equal(t, exported.Weights[0].ID, again.Weights[0].ID)
	assert.Equal(t, "swim", again.Workouts[0].Kind)
	assert.Equal(t, 330, again.Hydration[0].Ml)
}
