package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nutrition-planner/internal/app"
	"nutrition-planner/internal/metrics"
	"nutrition-planner/internal/planner"
)

const helpText = `🥗 *Nutrition Planner*

Send me what you would like to eat and I will plan the next 30 days.
Send a recipe link to add it to your recipe book.

/shopping - shopping list of your latest plan
/check 3 - tick or untick item 3 of the list
/revise - change your latest plan
/today - today's summary
/weight 72.5 - log your weight
/water 250 - log a drink (ml)
/workout run 30 [kcal] - log a workout (minutes)
/backup - back up your data
/restore - restore your latest backup`

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// formatPlan renders a plan overview: a week of meals and the catalog size.
func formatPlan(plan *planner.MealPlan) string {
	var sb strings.Builder
	sb.WriteString("📅 *30-Day Meal Plan*\n\n")

	days := plan.Days
	if len(days) > 7 {
		days = days[:7]
	}
	for _, d := range days {
		label := fmt.Sprintf("Day %d", d.Day+1)
		if date, ok := plan.DayDate(d.Day); ok {
			label = date.Format("Mon 02 Jan")
		}
		sb.WriteString(fmt.Sprintf("*%s* (%d kcal)\n", label, plan.DayCalories(d.Day)))
		for _, slot := range planner.Slots {
			if r, ok := plan.Recipe(d.RecipeID(slot)); ok {
				sb.WriteString(fmt.Sprintf("• %s: %s\n", slot, esc(r.Name)))
			}
		}
		sb.WriteString("\n")
	}
	if len(plan.Days) > len(days) {
		sb.WriteString(fmt.Sprintf("_…and %d more days._\n", len(plan.Days)-len(days)))
	}
	sb.WriteString(fmt.Sprintf("📖 %d recipes in this plan.", len(plan.Recipes)))
	return sb.String()
}

// formatShoppingList renders a numbered list; numbers are what /check expects.
func formatShoppingList(list *app.ShoppingList) string {
	if len(list.Entries) == 0 {
		return "🛒 Your shopping list is empty."
	}
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	for i, e := range list.Entries {
		mark := "⬜"
		if list.Checked[e.Key.String()] {
			mark = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s %d. %s: %s %s\n", mark, i+1, esc(e.DisplayName), e.FormatAmount(), esc(e.Unit)))
	}
	return sb.String()
}

func formatSummary(s *app.DaySummary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *%s*\n\n", s.Date))
	if s.WeightKg != nil {
		sb.WriteString(fmt.Sprintf("⚖️ Weight: %s kg\n", strconv.FormatFloat(*s.WeightKg, 'f', -1, 64)))
	}
	sb.WriteString(fmt.Sprintf("💧 Water: %d ml\n", s.HydrationMl))
	sb.WriteString(fmt.Sprintf("🏃 Workouts: %d (%d min, %d kcal)\n", s.Workouts, s.WorkoutMinutes, s.WorkoutCalories))
	if len(s.PlannedMeals) > 0 {
		sb.WriteString(fmt.Sprintf("\n🍽 *Planned* (%d kcal)\n", s.PlannedCalories))
		for _, m := range s.PlannedMeals {
			sb.WriteString("• " + esc(m) + "\n")
		}
	}
	return sb.String()
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	return sb.String()
}

// nextMonday is the default start date of a plan asked for over chat.
func nextMonday(now time.Time) time.Time {
	days := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	y, m, d := now.AddDate(0, 0, days).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
