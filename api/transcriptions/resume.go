package transcriptions

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/audioscribe/transcriber-api/api/types"
	"github.com/audioscribe/transcriber-api/internal/models"
)

// Resume restarts an interrupted job at its first unprocessed segment
// @Summary      Resume transcription job
// @Description  Validates the job is resumable, then continues it in the background. Already-transcribed
// @Description  segments are never re-sent.
// @Tags         transcriptions
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      202 {object} types.JobQueuedResponse
// @Failure      404 {object} types.ErrorResponse
// @Failure      409 {object} types.ErrorResponse "Job completed or claimed by another run"
// @Router       /api/v1/transcriptions/{id}/resume [post]
func Resume(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")

		// Status alone decides resumability
		status, err := deps.JobStore.GetJobStatus(c.Request.Context(), jobID)
		if err != nil {
			respondStoreError(c, err)
			return
		}

		if status == models.JobStatusCompleted {
			c.JSON(http.StatusConflict, types.ErrorResponse{
				Status: types.StatusError, Message: "Job already completed",
			})
			return
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()

			if _, err := deps.Pipeline.Resume(ctx, jobID, progressLogger(jobID)); err != nil {
				log.Printf("[ERROR] Job %s: resume failed: %v", jobID, err)
			}
		}()

		c.JSON(http.StatusAccepted, types.JobQueuedResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusQueued, Message: "Resume started"},
			JobID:        jobID,
		})
	}
}
