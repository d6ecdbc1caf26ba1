package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/media-fetch-go/api/handlers"
	"github.com/yourusername/media-fetch-go/api/middleware"
	"github.com/yourusername/media-fetch-go/internal/domain"
	"github.com/yourusername/media-fetch-go/pkg/logger"
)

// Services bundles what the HTTP layer drives
type Services struct {
	Session  handlers.SessionController
	History  handlers.RunHistory
	Catalog  handlers.FormatFetcher
	Binaries domain.BinaryLocator
	Required []string // binaries that must be locatable for /ready
	Defaults *domain.DownloadConfig
	LogsDir  string
}

// SetupRouter sets up the HTTP router
func SetupRouter(svc Services, logAdapter *logger.LoggerAdapter) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	log := logAdapter.Session()

	// Middleware
	router.Use(middleware.Logger(logAdapter))
	router.Use(middleware.Recovery(logAdapter))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(svc.Session, svc.Binaries, svc.Required...)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Session endpoints
		sessionHandler := handlers.NewSessionHandler(svc.Session, svc.Defaults, log)
		eventsHandler := handlers.NewEventsWebSocketHandler(svc.Session, log)
		session := v1.Group("/session")
		{
			session.GET("", sessionHandler.Status)
			session.GET("/result", sessionHandler.Result)
			session.GET("/events", eventsHandler.HandleWebSocket)
			session.POST("/start", sessionHandler.Start)
			session.POST("/pause", sessionHandler.Pause)
			session.POST("/resume", sessionHandler.Resume)
			session.POST("/toggle", sessionHandler.Toggle)
			session.POST("/stop", sessionHandler.Stop)
		}

		// Locator inspection
		formatHandler := handlers.NewFormatHandler(svc.Catalog, log)
		v1.GET("/classify", formatHandler.Classify)
		v1.GET("/formats", formatHandler.Formats)

		// Run history
		runHandler := handlers.NewRunHandler(svc.History)
		runs := v1.Group("/runs")
		{
			runs.GET("", runHandler.ListRuns)
			runs.GET("/stats", runHandler.GetStats)
			runs.GET("/:id", runHandler.GetRun)
		}

		// Log endpoints
		logHandler := handlers.NewLogHandler(svc.LogsDir)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
