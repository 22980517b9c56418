package planner

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"nutrition-planner/internal/llm"
	"nutrition-planner/internal/recipe"
	"nutrition-planner/internal/shared"
)

//go:embed planner_prompt.md
var plannerPrompt string

//go:embed reviser_prompt.md
var reviserPrompt string

var (
	plannerTmpl = template.Must(template.New("planner").Parse(plannerPrompt))
	reviserTmpl = template.Must(template.New("reviser").Parse(reviserPrompt))
)

const (
	agentPlanner = "Planner"
	agentReviser = "PlanReviser"
)

// Profile carries the household preferences that shape a plan.
type Profile struct {
	Calories  int
	Household int
	Diet      string
	Favorites []recipe.Recipe
}

// Planner turns a conversation with the language model into meal plans.
type Planner struct {
	textGen llm.TextGenerator
	now     func() time.Time
}

// NewPlanner creates a new Planner instance.
func NewPlanner(textGen llm.TextGenerator) *Planner {
	return &Planner{textGen: textGen, now: time.Now}
}

type promptData struct {
	Days        int
	LastDay     int
	Household   int
	Calories    int
	Diet        string
	StartDate   string
	Request     string
	Favorites   []recipe.Recipe
	CurrentPlan string
	Feedback    string
}

// rawPlan is the JSON shape the model is asked to produce.
type rawPlan struct {
	Recipes []recipe.Recipe `json:"recipes"`
	Days    []DayPlan       `json:"days"`
}

// GeneratePlan asks the model for a new 30-day plan. The returned meta is
// populated whenever the model was called, even if its answer was unusable.
func (p *Planner) GeneratePlan(
	ctx context.Context,
	userID string,
	request string,
	profile Profile,
	start time.Time,
) (*MealPlan, shared.AgentMeta, error) {
	data := newPromptData(request, profile)
	if !start.IsZero() {
		data.StartDate = start.Format("2006-01-02 (Monday)")
	}

	prompt, err := render(plannerTmpl, data)
	if err != nil {
		return nil, shared.AgentMeta{}, err
	}

	plan, meta, err := p.run(ctx, agentPlanner, prompt)
	if err != nil {
		return nil, meta, err
	}

	plan.UserID = userID
	plan.Request = request
	plan.StartDate = start
	plan.CreatedAt = p.now().UTC()
	return plan, meta, nil
}

// RevisePlan applies conversational feedback to an existing plan. Identity,
// owner and start date are carried over from current.
func (p *Planner) RevisePlan(
	ctx context.Context,
	current *MealPlan,
	feedback string,
	profile Profile,
) (*MealPlan, shared.AgentMeta, error) {
	currentJSON, err := json.MarshalIndent(toRaw(current), "", "  ")
	if err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("failed to marshal current plan: %w", err)
	}

	data := newPromptData(current.Request, profile)
	data.CurrentPlan = string(currentJSON)
	data.Feedback = feedback

	prompt, err := render(reviserTmpl, data)
	if err != nil {
		return nil, shared.AgentMeta{}, err
	}

	plan, meta, err := p.run(ctx, agentReviser, prompt)
	if err != nil {
		return nil, meta, err
	}

	plan.ID = current.ID
	plan.UserID = current.UserID
	plan.StartDate = current.StartDate
	plan.Request = strings.TrimSpace(current.Request + "\n" + feedback)
	plan.CreatedAt = p.now().UTC()
	return plan, meta, nil
}

func (p *Planner) run(ctx context.Context, agent, prompt string) (*MealPlan, shared.AgentMeta, error) {
	start := time.Now()
	resp, err := p.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, shared.AgentMeta{AgentName: agent}, fmt.Errorf("failed to generate meal plan from LLM: %w", err)
	}

	meta := shared.AgentMeta{
		AgentName: agent,
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}

	plan, err := parsePlan(resp.Content)
	if err != nil {
		return nil, meta, err
	}
	return plan, meta, nil
}

func newPromptData(request string, profile Profile) promptData {
	household := profile.Household
	if household < 1 {
		household = 1
	}
	return promptData{
		Days:      PlanDays,
		LastDay:   PlanDays - 1,
		Household: household,
		Calories:  profile.Calories,
		Diet:      profile.Diet,
		Request:   request,
		Favorites: profile.Favorites,
	}
}

func render(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// parsePlan decodes the model output into a validated plan.
func parsePlan(content string) (*MealPlan, error) {
	var raw rawPlan
	if err := json.Unmarshal([]byte(llm.StripCodeFence(content)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse meal plan JSON: %w. Response: %s", err, content)
	}

	catalog := make(map[string]recipe.Recipe, len(raw.Recipes))
	for _, r := range raw.Recipes {
		if r.ID == "" {
			r.ID = recipe.Slug(r.Name)
		}
		if r.ID == "" {
			return nil, fmt.Errorf("%w: recipe without ID or name", ErrInvalidPlan)
		}
		if _, dup := catalog[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate recipe ID %q", ErrInvalidPlan, r.ID)
		}
		catalog[r.ID] = r
	}

	plan := &MealPlan{
		Days:    normalizeDays(raw.Days),
		Recipes: catalog,
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// normalizeDays orders days by their index when the indices form a valid
// permutation; otherwise the model's order is kept and indices are rewritten.
func normalizeDays(days []DayPlan) []DayPlan {
	out := make([]DayPlan, len(days))
	copy(out, days)

	seen := make(map[int]bool, len(out))
	valid := true
	for _, d := range out {
		if d.Day < 0 || d.Day >= len(out) || seen[d.Day] {
			valid = false
			break
		}
		seen[d.Day] = true
	}

	if valid {
		sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
		return out
	}
	for i := range out {
		out[i].Day = i
	}
	return out
}

func toRaw(p *MealPlan) rawPlan {
	ids := make([]string, 0, len(p.Recipes))
	for id := range p.Recipes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	raw := rawPlan{Days: p.Days}
	for _, id := range ids {
		raw.Recipes = append(raw.Recipes, p.Recipes[id])
	}
	return raw
}
