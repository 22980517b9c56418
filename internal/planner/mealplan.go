package planner

import (
	"errors"
	"fmt"
	"time"

	"nutrition-planner/internal/recipe"
)

// PlanDays is the horizon of a generated plan.
const PlanDays = 30

// ErrInvalidPlan marks a plan that is structurally unusable.
var ErrInvalidPlan = errors.New("invalid meal plan")

// MealSlot is one of the four meals of a day.
type MealSlot string

const (
	SlotBreakfast MealSlot = "breakfast"
	SlotLunch     MealSlot = "lunch"
	SlotSnack     MealSlot = "snack"
	SlotDinner    MealSlot = "dinner"
)

// Slots lists meal slots in the order they are eaten.
var Slots = []MealSlot{SlotBreakfast, SlotLunch, SlotSnack, SlotDinner}

// DayPlan assigns recipes to the meal slots of one day. An empty ID means the
// slot is absent.
type DayPlan struct {
	Day       int    `json:"day"`
	Breakfast string `json:"breakfast,omitempty"`
	Lunch     string `json:"lunch,omitempty"`
	Snack     string `json:"snack,omitempty"`
	Dinner    string `json:"dinner,omitempty"`
}

// RecipeID returns the recipe referenced by a slot.
func (d DayPlan) RecipeID(slot MealSlot) string {
	switch slot {
	case SlotBreakfast:
		return d.Breakfast
	case SlotLunch:
		return d.Lunch
	case SlotSnack:
		return d.Snack
	case SlotDinner:
		return d.Dinner
	}
	return ""
}

// RecipeIDs returns the non-empty slot references in slot order. A recipe used
// in two slots appears twice.
func (d DayPlan) RecipeIDs() []string {
	ids := make([]string, 0, len(Slots))
	for _, slot := range Slots {
		if id := d.RecipeID(slot); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// MealPlan is a 30-day plan together with the catalog of recipes it references.
type MealPlan struct {
	ID        int64                    `json:"id,omitempty"`
	UserID    string                   `json:"user_id"`
	StartDate time.Time                `json:"start_date"` // display only, zero when unset
	Days      []DayPlan                `json:"days"`
	Recipes   map[string]recipe.Recipe `json:"recipes"`
	Request   string                   `json:"request,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

// DayDate returns the calendar date of day i, or false when the plan has no start date.
func (p *MealPlan) DayDate(i int) (time.Time, bool) {
	if p.StartDate.IsZero() {
		return time.Time{}, false
	}
	return p.StartDate.AddDate(0, 0, i), true
}

// Recipe looks up a catalog entry.
func (p *MealPlan) Recipe(id string) (recipe.Recipe, bool) {
	r, ok := p.Recipes[id]
	return r, ok
}

// DayCalories sums the calories of every slot of day i.
func (p *MealPlan) DayCalories(i int) int {
	if i < 0 || i >= len(p.Days) {
		return 0
	}
	total := 0
	for _, id := range p.Days[i].RecipeIDs() {
		total += p.Recipes[id].Calories
	}
	return total
}

// Validate checks the structure a generated plan must have before it is stored:
// PlanDays days indexed 0..PlanDays-1 in order, catalog keys matching recipe IDs,
// and every slot resolving to a catalog recipe.
func (p *MealPlan) Validate() error {
	if len(p.Days) != PlanDays {
		return fmt.Errorf("%w: expected %d days, got %d", ErrInvalidPlan, PlanDays, len(p.Days))
	}
	for key, r := range p.Recipes {
		if key == "" || key != r.ID {
			return fmt.Errorf("%w: catalog key %q does not match recipe ID %q", ErrInvalidPlan, key, r.ID)
		}
	}
	for i, d := range p.Days {
		if d.Day != i {
			return fmt.Errorf("%w: day at position %d has index %d", ErrInvalidPlan, i, d.Day)
		}
		for _, slot := range Slots {
			id := d.RecipeID(slot)
			if id == "" {
				continue
			}
			if _, ok := p.Recipes[id]; !ok {
				return fmt.Errorf("%w: day %d %s references unknown recipe %q", ErrInvalidPlan, i, slot, id)
			}
		}
	}
	return nil
}
