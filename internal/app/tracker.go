package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutrition-planner/internal/planner"
	"nutrition-planner/internal/tracker"
)

// DaySummary is the tracker summary of a day next to what the plan schedules.
type DaySummary struct {
	tracker.Summary
	PlanID          int64    `json:"plan_id,omitempty"`
	PlannedMeals    []string `json:"planned_meals,omitempty"`
	PlannedCalories int      `json:"planned_calories"`
}

// AddWeight records a weight measurement.
func (a *App) AddWeight(ctx context.Context, w *tracker.Weight) error {
	return a.trackerRepo.AddWeight(ctx, w)
}

// AddWorkout records a workout.
func (a *App) AddWorkout(ctx context.Context, w *tracker.Workout) error {
	return a.trackerRepo.AddWorkout(ctx, w)
}

// AddHydration records a hydration entry.
func (a *App) AddHydration(ctx context.Context, h *tracker.Hydration) error {
	return a.trackerRepo.AddHydration(ctx, h)
}

// Weights lists a user's weight history.
func (a *App) Weights(ctx context.Context, userID string) ([]tracker.Weight, error) {
	return a.trackerRepo.ListWeights(ctx, userID)
}

// Workouts lists a user's workouts.
func (a *App) Workouts(ctx context.Context, userID string) ([]tracker.Workout, error) {
	return a.trackerRepo.ListWorkouts(ctx, userID)
}

// Hydration lists a user's hydration entries.
func (a *App) Hydration(ctx context.Context, userID string) ([]tracker.Hydration, error) {
	return a.trackerRepo.ListHydration(ctx, userID)
}

// Today returns the current date in tracker format.
func (a *App) Today() string {
	return a.now().Format(tracker.DateLayout)
}

// DailySummary totals a day of tracking and, when the latest plan has a start
// date covering that day, adds the meals and calories it schedules.
func (a *App) DailySummary(ctx context.Context, userID, date string) (*DaySummary, error) {
	if date == "" {
		date = a.Today()
	}
	s, err := a.trackerRepo.DailySummary(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	out := &DaySummary{Summary: *s}

	plan, err := a.planRepo.Latest(ctx, userID)
	switch {
	case errors.Is(err, planner.ErrPlanNotFound):
		return out, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load latest plan: %w", err)
	}

	day, ok := planDayIndex(plan, date)
	if !ok {
		return out, nil
	}

	out.PlanID = plan.ID
	out.PlannedCalories = plan.DayCalories(day)
	for _, slot := range planner.Slots {
		if r, ok := plan.Recipe(plan.Days[day].RecipeID(slot)); ok {
			out.PlannedMeals = append(out.PlannedMeals, fmt.Sprintf("%s: %s", slot, r.Name))
		}
	}
	return out, nil
}

// planDayIndex maps a calendar date onto a plan day.
func planDayIndex(plan *planner.MealPlan, date string) (int, bool) {
	if plan.StartDate.IsZero() {
		return 0, false
	}
	d, err := time.Parse(tracker.DateLayout, date)
	if err != nil {
		return 0, false
	}
	start := plan.StartDate.UTC().Truncate(24 * time.Hour)
	i := int(d.Sub(start).Hours() / 24)
	if d.Before(start) || i >= len(plan.Days) {
		return 0, false
	}
	return i, true
}
