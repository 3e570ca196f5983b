package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"foodlog/controllers"
	"foodlog/middlewares"
	"foodlog/services"
)

// Deps is everything the router hands to controllers.
type Deps struct {
	Sessions  *services.SessionRegistry
	FoodLogs  *controllers.FoodLogController
	Images    *controllers.ImageAnalysisController
	Realtime  *controllers.RealtimeController
	Gatherer  prometheus.Gatherer
	Log       zerolog.Logger
	MaxUpload int64
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.MaxUpload > 0 {
		// multipart overhead on top of the image itself
		r.MaxMultipartMemory = d.MaxUpload + 1<<20
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/")
	api.Use(middlewares.Session(d.Sessions), middlewares.RequestLogger(d.Log))
	{
		api.POST("/food-logs", d.FoodLogs.Create)
		api.GET("/food-logs", d.FoodLogs.List)
		api.GET("/food-logs/summary", d.FoodLogs.Summary)
		api.DELETE("/food-logs/:id", d.FoodLogs.Delete)
		api.POST("/food-logs/snap", d.Images.Snap)

		api.POST("/image-analysis", d.Images.Analyze)

		api.GET("/quick-actions", controllers.ListQuickActions)
		api.POST("/quick-actions/:action", controllers.ExpandQuickAction)

		if d.Realtime != nil {
			api.GET("/ws/food-logs", d.Realtime.FoodLogsWS)
		}
	}
	return r
}
