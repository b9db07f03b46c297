package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "daicho/docs"
	"daicho/internal/config"
	"daicho/internal/handler"
	"daicho/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
// Health checks and the swagger UI are public; artifact downloads are
// guarded by their signed token rather than the API key.
func Setup(
	cfg *config.Config,
	healthH *handler.HealthHandler,
	pipelineH *handler.PipelineHandler,
	masterH *handler.MasterHandler,
	runH *handler.RunHandler,
	artifactH *handler.ArtifactHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// Artifact downloads authenticate with their token query parameter
	v1.GET("/artifacts/:id", artifactH.Download)

	// Everything else requires the API key when one is configured
	protected := v1.Group("")
	protected.Use(middleware.APIKeyAuth(cfg.Server.APIKeyHash))

	// Stateless pipeline steps
	protected.POST("/classify", pipelineH.Classify)
	protected.POST("/normalize", pipelineH.Normalize)
	protected.POST("/layout/plan", pipelineH.PlanLayout)

	// Hierarchy masters
	masters := protected.Group("/masters")
	masters.GET("", masterH.List)
	masters.POST("/validate", masterH.Validate)

	// Persisted pipeline runs
	runs := protected.Group("/runs")
	runs.POST("", runH.Create)
	runs.GET("", runH.List)
	runs.GET("/:id", runH.GetByID)
	runs.GET("/:id/records", runH.ListRecords)
	runs.GET("/:id/corrections", runH.ListCorrections)
	runs.GET("/:id/export", runH.ExportCSV)

	return r
}
