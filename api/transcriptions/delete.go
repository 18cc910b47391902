package transcriptions

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/audioscribe/transcriber-api/api/types"
)

// Delete removes a job and its stored segments
// @Summary      Delete transcription job
// @Tags         transcriptions
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200 {object} types.BaseResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/transcriptions/{id} [delete]
func Delete(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")

		if err := deps.JobStore.DeleteJob(c.Request.Context(), jobID); err != nil {
			respondStoreError(c, err)
			return
		}

		c.JSON(http.StatusOK, types.BaseResponse{
			Status:  types.StatusOK,
			Message: "Job deleted",
		})
	}
}
