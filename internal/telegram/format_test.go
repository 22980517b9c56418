package telegram

import (
	"strings"
	"testing"
	"time"

	"nutrition-planner/internal/app"
	"nutrition-planner/internal/metrics"
	"nutrition-planner/internal/planner"
	"nutrition-planner/internal/recipe"
	"nutrition-planner/internal/shopping"
	"nutrition-planner/internal/tracker"

	"github.com/stretchr/testify/assert"
)

func TestFormatPlan(t *testing.T) {
	days := make([]planner.DayPlan, planner.PlanDays)
	for i := range days {
		days[i] = planner.DayPlan{Day: i, Breakfast: "oats", Dinner: "soup"}
	}
	plan := &planner.MealPlan{
		StartDate: time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC),
		Days:      days,
		Recipes: map[string]recipe.Recipe{
			"oats": {ID: "oats", Name: "Overnight_oats", Calories: 350},
			"soup": {ID: "soup", Name: "Leek soup", Calories: 400},
		},
	}

	out := formatPlan(plan)

	assert.Contains(t, out, "📅 *30-Day Meal Plan*")
	assert.Contains(t, out, "*Mon 26 Oct* (750 kcal)")
	assert.Contains(t, out, "• breakfast: Overnight\\_oats")
	assert.Contains(t, out, "• dinner: Leek soup")
	assert.Contains(t, out, "and 23 more days")
	assert.Contains(t, out, "📖 2 recipes")
	assert.Contains(t, out, "*Sun 01 Nov*")
	assert.NotContains(t, out, "Mon 02 Nov", "only the first week is shown")
}

func TestFormatShoppingList(t *testing.T) {
	entries := []shopping.Entry{
		{Key: shopping.NewKey("poulet", "piece"), DisplayName: "poulet", Amount: 2, Unit: "piece"},
		{Key: shopping.NewKey("riz", "g"), DisplayName: "riz", Amount: 500, Unit: "g"},
	}
	list := &app.ShoppingList{
		PlanID:  1,
		Entries: entries,
		Checked: map[string]bool{entries[1].Key.String(): true},
	}

	out := formatShoppingList(list)
	lines := strings.Split(strings.TrimSpace(out), "\n")

	assert.Equal(t, "🛒 *Shopping List*", lines[0])
	assert.Equal(t, "⬜ 1. poulet: 2 piece", lines[2])
	assert.Equal(t, "✅ 2. riz: 500 g", lines[3])

	assert.Equal(t, "🛒 Your shopping list is empty.", formatShoppingList(&app.ShoppingList{}))
}

func TestFormatSummary(t *testing.T) {
	kg := 68.4
	s := &app.DaySummary{
		Summary: tracker.Summary{
			Date:            "2026-10-19",
			WeightKg:        &kg,
			Workouts:        1,
			WorkoutMinutes:  30,
			WorkoutCalories: 300,
			HydrationMl:     1250,
		},
		PlannedMeals:    []string{"lunch: Riz au poulet"},
		PlannedCalories: 650,
	}

	out := formatSummary(s)

	assert.Contains(t, out, "*2026-10-19*")
	assert.Contains(t, out, "Weight: 68.4 kg")
	assert.Contains(t, out, "Water: 1250 ml")
	assert.Contains(t, out, "Workouts: 1 (30 min, 300 kcal)")
	assert.Contains(t, out, "*Planned* (650 kcal)")
	assert.Contains(t, out, "• lunch: Riz au poulet")
}

func TestFormatMetrics(t *testing.T) {
	out := formatMetrics(nil, metrics.SysHealth{AllocMB: 3, SysMB: 10, Goroutines: 7, DataDiskSize: "1.2 MB"})
	assert.Contains(t, out, "_No data yet_")
	assert.Contains(t, out, "RAM: 3MB (Alloc) / 10MB (Sys)")

	out = formatMetrics([]metrics.DailyUsage{{Date: "2026-10-19", TotalPrompt: 100, TotalCompletion: 50, TotalExecution: 2}}, metrics.SysHealth{})
	assert.Contains(t, out, "*2026-10-19*: 150 tokens (2 execs)")
}
