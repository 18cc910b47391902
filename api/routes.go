package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/audioscribe/transcriber-api/api/health"
	"github.com/audioscribe/transcriber-api/api/transcriptions"
	"github.com/audioscribe/transcriber-api/api/types"
	"github.com/audioscribe/transcriber-api/api/version"
	_ "github.com/audioscribe/transcriber-api/docs/swagger"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once) error {
	if deps == nil {
		deps = &types.Dependencies{}
	}

	// Public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, deps)

	// Swagger documentation
	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	docsGroup := engine.Group("/docs")
	docsGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	engine.NoRoute(NotFoundHandler())

	// API v1 routes
	v1 := engine.Group("/api/v1")

	// Transcription creation triggers uploads and FFmpeg work, so keep the
	// limit conservative (2 req/s, burst of 5)
	transcriptionGroup := v1.Group("/transcriptions")
	transcriptionGroup.Use(PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, 2, 5))
	transcriptions.RegisterRoutes(transcriptionGroup, deps)

	return nil
}

// NotFoundHandler returns a JSON 404 for unmatched routes
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Status:  types.StatusError,
			Message: "Route not found",
		})
	}
}
