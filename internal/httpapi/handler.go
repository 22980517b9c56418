package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"nutrition-planner/internal/app"
	"nutrition-planner/internal/backup"
	"nutrition-planner/internal/clipper"
	"nutrition-planner/internal/planner"
	"nutrition-planner/internal/recipe"
	"nutrition-planner/internal/tracker"
)

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler serves the JSON API on top of app.App.
type Handler struct {
	app *app.App
}

// NewHandler creates a new Handler instance.
func NewHandler(a *app.App) *Handler {
	return &Handler{app: a}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, planner.ErrPlanNotFound),
		errors.Is(err, recipe.ErrRecipeNotFound),
		errors.Is(err, backup.ErrNoSnapshot):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrInvalidEntry),
		errors.Is(err, app.ErrInvalidItemKey),
		errors.Is(err, clipper.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, planner.ErrInvalidPlan),
		errors.Is(err, recipe.ErrNoRecipe):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", GetRequestID(c)).Str("path", c.FullPath()).Msg("request failed")
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}

func planID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, fmt.Errorf("invalid plan id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "system": h.app.SysHealth()})
}

// CreatePlanRequest is the body of POST /api/users/:user/plans.
type CreatePlanRequest struct {
	Request   string `json:"request" binding:"required"`
	StartDate string `json:"start_date"`
}

// CreatePlan handles POST /api/users/:user/plans.
func (h *Handler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var start time.Time
	if req.StartDate != "" {
		var err error
		if start, err = time.Parse(tracker.DateLayout, req.StartDate); err != nil {
			badRequest(c, fmt.Errorf("start_date must be YYYY-MM-DD"))
			return
		}
	}

	plan, err := h.app.GeneratePlan(c.Request.Context(), c.Param("user"), req.Request, start)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// LatestPlan handles GET /api/users/:user/plans/latest.
func (h *Handler) LatestPlan(c *gin.Context) {
	plan, err := h.app.LatestPlan(c.Request.Context(), c.Param("user"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GetPlan handles GET /api/plans/:id.
func (h *Handler) GetPlan(c *gin.Context) {
	id, ok := planID(c)
	if !ok {
		return
	}
	plan, err := h.app.Plan(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// RevisePlanRequest is the body of POST /api/plans/:id/revise.
type RevisePlanRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

// RevisePlan handles POST /api/plans/:id/revise.
func (h *Handler) RevisePlan(c *gin.Context) {
	id, ok := planID(c)
	if !ok {
		return
	}
	var req RevisePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	plan, err := h.app.RevisePlan(c.Request.Context(), id, req.Feedback)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// ShoppingItem is one row of a shopping list as served to clients. Key is
// the opaque identifier to send back when checking the row off.
type ShoppingItem struct {
	Key     string  `json:"key"`
	Name    string  `json:"name"`
	Amount  float64 `json:"amount"`
	Unit    string  `json:"unit"`
	Checked bool    `json:"checked"`
}

// ShoppingListResponse is the body of the shopping list endpoints.
type ShoppingListResponse struct {
	PlanID int64          `json:"plan_id"`
	Items  []ShoppingItem `json:"items"`
}

func newShoppingListResponse(list *app.ShoppingList) ShoppingListResponse {
	resp := ShoppingListResponse{PlanID: list.PlanID, Items: make([]ShoppingItem, 0, len(list.Entries))}
	for _, e := range list.Entries {
		key := e.Key.String()
		resp.Items = append(resp.Items, ShoppingItem{
			Key:     key,
			Name:    e.DisplayName,
			Amount:  e.Amount,
			Unit:    e.Unit,
			Checked: list.Checked[key],
		})
	}
	return resp
}

// ShoppingList handles GET /api/plans/:id/shopping-list.
func (h *Handler) ShoppingList(c *gin.Context) {
	id, ok := planID(c)
	if !ok {
		return
	}
	list, err := h.app.ShoppingList(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newShoppingListResponse(list))
}

// LatestShoppingList handles GET /api/users/:user/shopping-list.
func (h *Handler) LatestShoppingList(c *gin.Context) {
	list, err := h.app.LatestShoppingList(c.Request.Context(), c.Param("user"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newShoppingListResponse(list))
}

// ExportShoppingList handles GET /api/plans/:id/shopping-list.xlsx.
func (h *Handler) ExportShoppingList(c *gin.Context) {
	id, ok := planID(c)
	if !ok {
		return
	}
	// Resolve the plan first so a missing one still gets a JSON 404.
	if _, err := h.app.Plan(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="shopping-%d.xlsx"`, id))
	if err := h.app.ExportShoppingList(c.Request.Context(), id, c.Writer); err != nil {
		log.Error().Err(err).Int64("plan_id", id).Msg("failed to write spreadsheet")
	}
}

// SetCheckRequest is the body of PUT /api/plans/:id/shopping-list/checks.
type SetCheckRequest struct {
	Key     string `json:"key" binding:"required"`
	Checked bool   `json:"checked"`
}

// SetCheck handles PUT /api/plans/:id/shopping-list/checks.
func (h *Handler) SetCheck(c *gin.Context) {
	id, ok := planID(c)
	if !ok {
		return
	}
	var req SetCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.app.ToggleCheck(c.Request.Context(), id, req.Key, req.Checked); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddWeight handles POST /api/users/:user/weights.
func (h *Handler) AddWeight(c *gin.Context) {
	var w tracker.Weight
	if err := c.ShouldBindJSON(&w); err != nil {
		badRequest(c, err)
		return
	}
	w.UserID = c.Param("user")
	if err := h.app.AddWeight(c.Request.Context(), &w); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// ListWeights handles GET /api/users/:user/weights.
func (h *Handler) ListWeights(c *gin.Context) {
	list, err := h.app.Weights(c.Request.Context(), c.Param("user"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// AddWorkout handles POST /api/users/:user/workouts.
func (h *Handler) AddWorkout(c *gin.Context) {
	var w tracker.Workout
	if err := c.ShouldBindJSON(&w); err != nil {
		badRequest(c, err)
		return
	}
	w.UserID = c.Param("user")
	if err := h.app.AddWorkout(c.Request.Context(), &w); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// ListWorkouts handles GET /api/users/:user/workouts.
func (h *Handler) ListWorkouts(c *gin.Context) {
	list, err := h.app.Workouts(c.Request.Context(), c.Param("user"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// AddHydration handles POST /api/users/:user/hydration.
func (h *Handler) AddHydration(c *gin.Context) {
	var e tracker.Hydration
	if err := c.ShouldBindJSON(&e); err != nil {
		badRequest(c, err)
		return
	}
	e.UserID = c.Param("user")
	if err := h.app.AddHydration(c.Request.Context(), &e); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// ListHydration handles GET /api/users/:user/hydration.
func (h *Handler) ListHydration(c *gin.Context) {
	list, err := h.app.Hydration(c.Request.Context(), c.Param("user"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// DailySummary handles GET /api/users/:user/summary?date=YYYY-MM-DD.
func (h *Handler) DailySummary(c *gin.Context) {
	s, err := h.app.DailySummary(c.Request.Context(), c.Param("user"), c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// ClipRequest is the body of POST /api/users/:user/recipes/clip.
type ClipRequest struct {
	URL string `json:"url" binding:"required"`
}

// ClipRecipe handles POST /api/users/:user/recipes/clip.
func (h *Handler) ClipRecipe(c *gin.Context) {
	var req ClipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := h.app.ClipRecipe(c.Request.Context(), c.Param("user"), req.URL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// ListRecipes handles GET /api/users/:user/recipes.
func (h *Handler) ListRecipes(c *gin.Context) {
	list, err := h.app.Recipes(c.Request.Context(), c.Param("user"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// PushBackup handles POST /api/users/:user/backup/push.
func (h *Handler) PushBackup(c *gin.Context) {
	result, err := h.app.PushBackup(c.Request.Context(), c.Param("user"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PullBackup handles POST /api/users/:user/backup/pull.
func (h *Handler) PullBackup(c *gin.Context) {
	result, err := h.app.PullBackup(c.Request.Context(), c.Param("user"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
