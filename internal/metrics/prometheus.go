package metrics

import (
	"strconv"
	"time"

	"nutrition-planner/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks HTTP request duration by method, path, and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestTotal tracks total HTTP requests by method, path, and status code.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	// PlansGenerated counts plan generations and revisions by outcome.
	PlansGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meal_plans_generated_total",
			Help: "Total number of meal plans generated or revised",
		},
		[]string{"kind", "status"},
	)

	// ShoppingListsBuilt counts aggregations.
	ShoppingListsBuilt = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopping_lists_built_total",
			Help: "Total number of shopping lists aggregated from plans",
		},
	)

	// ShoppingListRows tracks the row count of aggregated lists.
	ShoppingListRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shopping_list_rows",
			Help:    "Number of rows in aggregated shopping lists",
			Buckets: []float64{0, 10, 25, 50, 100, 200, 400},
		},
	)

	// LLMTokens counts tokens consumed per agent and direction.
	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total number of LLM tokens consumed",
		},
		[]string{"agent", "type"},
	)

	// BackupsTotal counts backup pushes and pulls by destination.
	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backups_total",
			Help: "Total number of backup operations",
		},
		[]string{"operation", "source"},
	)
)

// GinMiddleware returns a Gin middleware that collects HTTP metrics.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		statusCode := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		HTTPRequestDuration.WithLabelValues(method, path, statusCode).Observe(time.Since(start).Seconds())
		HTTPRequestTotal.WithLabelValues(method, path, statusCode).Inc()
	}
}

// RecordPlan records the outcome of a generation ("generate") or revision ("revise").
func RecordPlan(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	PlansGenerated.WithLabelValues(kind, status).Inc()
}

// RecordShoppingList records one aggregation.
func RecordShoppingList(rows int) {
	ShoppingListsBuilt.Inc()
	ShoppingListRows.Observe(float64(rows))
}

// ObserveTokens adds an execution's token usage to LLMTokens.
func ObserveTokens(meta shared.AgentMeta) {
	LLMTokens.WithLabelValues(meta.AgentName, "prompt").Add(float64(meta.Usage.PromptTokens))
	LLMTokens.WithLabelValues(meta.AgentName, "completion").Add(float64(meta.Usage.CompletionTokens))
}

// RecordBackup records a backup operation ("push" or "pull") and where it went.
func RecordBackup(operation, source string) {
	BackupsTotal.WithLabelValues(operation, source).Inc()
}
