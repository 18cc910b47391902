package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Get handles version requests
// @Summary      Service information
// @Description  Returns service name and version
// @Tags         version
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       / [get]
func Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "Transcriber API",
			"version":     "1.0.0",
			"description": "Resumable segmented audio transcription",
			"status":      "running",
		})
	}
}
