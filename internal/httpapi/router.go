package httpapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nutrition-planner/internal/app"
	"nutrition-planner/internal/metrics"
)

// RouterConfig holds router configuration options.
type RouterConfig struct {
	CORSOrigins []string

	// Webhook, when set, is mounted at POST /webhook (Telegram).
	Webhook gin.HandlerFunc

	// Receiver serves the cloud side of backups when non-nil.
	Receiver *Receiver
}

// NewRouter creates the gin engine serving the JSON API.
func NewRouter(a *app.App, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	allowedOrigins := cfg.CORSOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader, "Content-Disposition"},
		MaxAge:        86400,
	}))

	router.Use(
		RequestID(),
		Recovery(),
		metrics.GinMiddleware(),
		Compression(),
		RequestLogger(),
	)

	h := NewHandler(a)
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.Webhook != nil {
		router.POST("/webhook", cfg.Webhook)
	}
	if cfg.Receiver != nil {
		cfg.Receiver.Register(router)
	}

	api := router.Group("/api")
	{
		users := api.Group("/users/:user")
		users.POST("/plans", h.CreatePlan)
		users.GET("/plans/latest", h.LatestPlan)
		users.GET("/shopping-list", h.LatestShoppingList)

		users.POST("/weights", h.AddWeight)
		users.GET("/weights", h.ListWeights)
		users.POST("/workouts", h.AddWorkout)
		users.GET("/workouts", h.ListWorkouts)
		users.POST("/hydration", h.AddHydration)
		users.GET("/hydration", h.ListHydration)
		users.GET("/summary", h.DailySummary)

		users.POST("/recipes/clip", h.ClipRecipe)
		users.GET("/recipes", h.ListRecipes)

		users.POST("/backup/push", h.PushBackup)
		users.POST("/backup/pull", h.PullBackup)

		plans := api.Group("/plans/:id")
		plans.GET("", h.GetPlan)
		plans.POST("/revise", h.RevisePlan)
		plans.GET("/shopping-list", h.ShoppingList)
		plans.GET("/shopping-list.xlsx", h.ExportShoppingList)
		plans.PUT("/shopping-list/checks", h.SetCheck)
	}

	return router
}
