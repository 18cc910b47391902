package transcriptions

import (
	"github.com/gin-gonic/gin"

	"github.com/audioscribe/transcriber-api/api/types"
)

// RegisterRoutes registers all transcription routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.POST("", Create(deps))
	router.GET("", List(deps))
	router.GET("/:id", Get(deps))
	router.GET("/:id/download", Download(deps))
	router.POST("/:id/resume", Resume(deps))
	router.DELETE("/:id", Delete(deps))
}
