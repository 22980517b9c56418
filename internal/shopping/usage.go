package shopping

import "nutrition-planner/internal/planner"

// CountUsage counts how many meal slots reference each recipe. Each slot
// counts on its own, so a recipe served at breakfast and snack on the same day
// counts twice. Unreferenced recipes are absent from the result.
func CountUsage(days []planner.DayPlan) map[string]int {
	usage := make(map[string]int)
	for _, d := range days {
		for _, id := range d.RecipeIDs() {
			usage[id]++
		}
	}
	return usage
}
