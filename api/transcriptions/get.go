package transcriptions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/audioscribe/transcriber-api/api/types"
	"github.com/audioscribe/transcriber-api/internal/services/jobstore"
)

// Get returns one job with its segment progress
// @Summary      Get transcription job
// @Description  Returns job status, per-segment progress counts and, once completed, subtitle statistics.
// @Tags         transcriptions
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200 {object} types.JobDetailResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/transcriptions/{id} [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")

		job, err := deps.JobStore.GetJob(c.Request.Context(), jobID)
		if err != nil {
			respondStoreError(c, err)
			return
		}

		c.JSON(http.StatusOK, types.JobDetailResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Job:          types.NewJobDetail(job),
		})
	}
}

// respondStoreError maps jobstore errors to HTTP status codes
func respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, jobstore.ErrJobNotFound):
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Status: types.StatusError, Message: "Job not found",
		})
	case errors.Is(err, jobstore.ErrInvalidJobKey):
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Status: types.StatusError, Message: "Invalid job ID",
		})
	case errors.Is(err, jobstore.ErrJobClaimed):
		c.JSON(http.StatusConflict, types.ErrorResponse{
			Status: types.StatusError, Message: "Job is being processed by another run",
		})
	default:
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Status: types.StatusError, Message: "Storage error", Error: err.Error(),
		})
	}
}
