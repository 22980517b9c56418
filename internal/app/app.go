package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"nutrition-planner/internal/backup"
	"nutrition-planner/internal/clipper"
	"nutrition-planner/internal/config"
	"nutrition-planner/internal/database"
	"nutrition-planner/internal/llm"
	"nutrition-planner/internal/metrics"
	"nutrition-planner/internal/planner"
	"nutrition-planner/internal/recipe"
	"nutrition-planner/internal/shared"
	"nutrition-planner/internal/shopping"
	"nutrition-planner/internal/storage"
	"nutrition-planner/internal/tracker"

	"github.com/rs/zerolog/log"
)

// maxFavorites caps how many saved recipes are offered to the planner.
const maxFavorites = 10

// ErrInvalidItemKey is returned when a check-off refers to a malformed row key.
var ErrInvalidItemKey = errors.New("invalid shopping list item key")

// App holds the application's dependencies. Every surface (CLI, HTTP API,
// Telegram bot) goes through it.
type App struct {
	cfg          *config.Config
	db           *database.DB
	mealPlanner  *planner.Planner
	planRepo     *planner.PlanRepository
	recipeRepo   *recipe.Repository
	checkRepo    *shopping.CheckRepository
	trackerRepo  *tracker.Repository
	clipper      *clipper.Clipper
	backup       *backup.Service
	metricsStore *metrics.Store
	now          func() time.Time

	listsMu sync.Mutex
	lists   map[int64]cachedList
}

// cachedList memoizes an aggregation for one version of a plan.
type cachedList struct {
	version time.Time
	entries []shopping.Entry
}

// NewApp creates and initializes a new App instance. backupClient may be nil.
func NewApp(
	cfg *config.Config,
	db *database.DB,
	textGen llm.TextGenerator,
	snapshots *storage.SnapshotStore,
	backupClient backup.Client,
) *App {
	recipeRepo := recipe.NewRepository(db.SQL)
	return &App{
		cfg:          cfg,
		db:           db,
		mealPlanner:  planner.NewPlanner(textGen),
		planRepo:     planner.NewPlanRepository(db.SQL),
		recipeRepo:   recipeRepo,
		checkRepo:    shopping.NewCheckRepository(db.SQL),
		trackerRepo:  tracker.NewRepository(db.SQL),
		clipper:      clipper.NewClipper(recipeRepo, textGen),
		backup:       backup.NewService(db.SQL, snapshots, backupClient, cfg.BackupKeepLocal),
		metricsStore: metrics.NewStore(db.SQL),
		now:          time.Now,
		lists:        make(map[int64]cachedList),
	}
}

// DB returns the database the app was built on.
func (a *App) DB() *database.DB {
	return a.db
}

// recordMeta persists agent usage; failures only warn.
func (a *App) recordMeta(ctx context.Context, meta shared.AgentMeta) {
	if meta.AgentName == "" {
		return
	}
	log.Debug().
		Str("agent", meta.AgentName).
		Str("model", meta.Usage.Model).
		Int("tokens", meta.Usage.Total()).
		Dur("latency", meta.Latency).
		Msg("agent executed")
	if err := a.metricsStore.RecordMeta(ctx, meta); err != nil {
		log.Warn().Err(err).Str("agent", meta.AgentName).Msg("failed to record metrics")
	}
}

// Profile builds the planning profile of a user from defaults and the recipe book.
func (a *App) Profile(ctx context.Context, userID string) planner.Profile {
	profile := planner.Profile{
		Calories:  a.cfg.DefaultCalories,
		Household: a.cfg.DefaultHousehold,
		Diet:      a.cfg.DefaultDiet,
	}

	favorites, err := a.recipeRepo.List(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to load favorite recipes")
		return profile
	}
	if len(favorites) > maxFavorites {
		favorites = favorites[len(favorites)-maxFavorites:]
	}
	profile.Favorites = favorites
	return profile
}

// GeneratePlan asks the planner for a new 30-day plan and stores it.
func (a *App) GeneratePlan(ctx context.Context, userID, request string, start time.Time) (*planner.MealPlan, error) {
	plan, meta, err := a.mealPlanner.GeneratePlan(ctx, userID, request, a.Profile(ctx, userID), start)
	a.recordMeta(ctx, meta)
	metrics.RecordPlan("generate", err)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	if _, err := a.planRepo.Save(ctx, plan); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID).Int64("plan_id", plan.ID).Int("recipes", len(plan.Recipes)).Msg("meal plan generated")
	return plan, nil
}

// RevisePlan applies feedback to a stored plan and replaces it.
func (a *App) RevisePlan(ctx context.Context, planID int64, feedback string) (*planner.MealPlan, error) {
	current, err := a.planRepo.Get(ctx, planID)
	if err != nil {
		return nil, err
	}

	revised, meta, err := a.mealPlanner.RevisePlan(ctx, current, feedback, a.Profile(ctx, current.UserID))
	a.recordMeta(ctx, meta)
	metrics.RecordPlan("revise", err)
	if err != nil {
		return nil, fmt.Errorf("failed to revise plan: %w", err)
	}

	if err := a.planRepo.Upsert(ctx, revised); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", revised.UserID).Int64("plan_id", revised.ID).Msg("meal plan revised")
	return revised, nil
}

// Plan returns a stored plan.
func (a *App) Plan(ctx context.Context, planID int64) (*planner.MealPlan, error) {
	return a.planRepo.Get(ctx, planID)
}

// LatestPlan returns the newest plan of a user.
func (a *App) LatestPlan(ctx context.Context, userID string) (*planner.MealPlan, error) {
	return a.planRepo.Latest(ctx, userID)
}

// ShoppingList is an aggregated list with its check-off state.
type ShoppingList struct {
	PlanID  int64            `json:"plan_id"`
	Entries []shopping.Entry `json:"entries"`
	Checked map[string]bool  `json:"-"`
}

// ShoppingList aggregates the ingredients of a plan. The aggregation is
// memoized per plan version; check-off state is always read fresh.
func (a *App) ShoppingList(ctx context.Context, planID int64) (*ShoppingList, error) {
	plan, err := a.planRepo.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	checked, err := a.checkRepo.Checked(ctx, planID)
	if err != nil {
		return nil, err
	}
	return &ShoppingList{PlanID: planID, Entries: a.aggregate(plan), Checked: checked}, nil
}

// LatestShoppingList is ShoppingList for the user's newest plan.
func (a *App) LatestShoppingList(ctx context.Context, userID string) (*ShoppingList, error) {
	plan, err := a.planRepo.Latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	return a.ShoppingList(ctx, plan.ID)
}

// aggregate returns a copy of the plan's memoized list, so callers may modify it.
func (a *App) aggregate(plan *planner.MealPlan) []shopping.Entry {
	a.listsMu.Lock()
	defer a.listsMu.Unlock()

	if cached, ok := a.lists[plan.ID]; ok && cached.version.Equal(plan.CreatedAt) {
		return slices.Clone(cached.entries)
	}

	entries := shopping.Aggregate(plan)
	metrics.RecordShoppingList(len(entries))
	a.lists[plan.ID] = cachedList{version: plan.CreatedAt, entries: entries}
	return slices.Clone(entries)
}

// ToggleCheck marks or unmarks a row of a plan's shopping list.
func (a *App) ToggleCheck(ctx context.Context, planID int64, itemKey string, checked bool) error {
	if _, ok := shopping.ParseKey(itemKey); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidItemKey, itemKey)
	}
	if _, err := a.planRepo.Get(ctx, planID); err != nil {
		return err
	}
	return a.checkRepo.SetChecked(ctx, planID, itemKey, checked)
}

// ExportShoppingList writes a plan's list as an XLSX spreadsheet.
func (a *App) ExportShoppingList(ctx context.Context, planID int64, w io.Writer) error {
	list, err := a.ShoppingList(ctx, planID)
	if err != nil {
		return err
	}
	return shopping.WriteXLSX(w, list.Entries, list.Checked)
}

// ClipRecipe imports a recipe from a web page into the user's recipe book.
func (a *App) ClipRecipe(ctx context.Context, userID, url string) (*recipe.Recipe, error) {
	rec, meta, err := a.clipper.ClipURL(ctx, userID, url)
	a.recordMeta(ctx, meta)
	return rec, err
}

// Recipes lists the user's recipe book.
func (a *App) Recipes(ctx context.Context, userID string) ([]recipe.Recipe, error) {
	return a.recipeRepo.List(ctx, userID)
}

// PushBackup snapshots the user's data to the cloud, or locally as fallback.
func (a *App) PushBackup(ctx context.Context, userID string) (*backup.PushResult, error) {
	result, err := a.backup.Push(ctx, userID)
	if err != nil {
		return nil, err
	}
	source := backup.SourceLocal
	if result.Remote {
		source = backup.SourceRemote
	}
	metrics.RecordBackup("push", source)
	return result, nil
}

// PullBackup restores the user's newest snapshot.
func (a *App) PullBackup(ctx context.Context, userID string) (*backup.PullResult, error) {
	result, err := a.backup.Pull(ctx, userID)
	if err != nil {
		return nil, err
	}
	metrics.RecordBackup("pull", result.Source)

	a.listsMu.Lock()
	a.lists = make(map[int64]cachedList)
	a.listsMu.Unlock()
	return result, nil
}

// UsageReport returns agent token usage for the last days.
func (a *App) UsageReport(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	return a.metricsStore.GetDailyUsage(ctx, days)
}

// CleanupMetrics deletes agent metrics older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	return a.metricsStore.Cleanup(ctx, days)
}

// SysHealth reports process and storage health.
func (a *App) SysHealth() metrics.SysHealth {
	return metrics.GetSysHealth(a.cfg.DatabasePath, a.cfg.SnapshotDir)
}
