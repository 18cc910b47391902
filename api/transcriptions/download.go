package transcriptions

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/audioscribe/transcriber-api/api/types"
	"github.com/audioscribe/transcriber-api/internal/models"
)

// Download serves the merged SRT file of a completed job
// @Summary      Download SRT
// @Description  Returns the merged subtitle file, named after the source audio.
// @Tags         transcriptions
// @Produce      plain
// @Param        id path string true "Job ID"
// @Success      200 {string} string "SRT content"
// @Failure      404 {object} types.ErrorResponse
// @Failure      409 {object} types.ErrorResponse "Job not completed yet"
// @Router       /api/v1/transcriptions/{id}/download [get]
func Download(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")

		job, err := deps.JobStore.GetJob(c.Request.Context(), jobID)
		if err != nil {
			respondStoreError(c, err)
			return
		}

		if job.Status != models.JobStatusCompleted {
			c.JSON(http.StatusConflict, types.ErrorResponse{
				Status:  types.StatusError,
				Message: fmt.Sprintf("Job is %s, not completed", job.Status),
			})
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", srtFileName(job.FileName)))
		c.Data(http.StatusOK, "application/x-subrip", []byte(job.Result))
	}
}

// srtFileName swaps the audio extension for .srt, keeping the base name
func srtFileName(audioName string) string {
	base := audioName
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	if base == "" {
		base = "transcription"
	}
	return base + ".srt"
}
