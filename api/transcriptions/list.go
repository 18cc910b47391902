package transcriptions

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/audioscribe/transcriber-api/api/types"
	"github.com/audioscribe/transcriber-api/internal/models"
)

// List returns stored jobs, newest first
// @Summary      List transcription jobs
// @Description  Lists jobs newest first. Pass resumable=true to get only jobs that can be picked up again.
// @Tags         transcriptions
// @Produce      json
// @Param        limit query int false "Maximum jobs to return" default(50)
// @Param        resumable query bool false "Only resumable jobs"
// @Success      200 {object} types.JobListResponse
// @Router       /api/v1/transcriptions [get]
func List(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			jobs []*models.Job
			err  error
		)

		if c.Query("resumable") == "true" {
			jobs, err = deps.JobStore.ListResumable(c.Request.Context())
		} else {
			limit := 50
			if raw := c.Query("limit"); raw != "" {
				if parsed, perr := strconv.Atoi(raw); perr == nil && parsed > 0 {
					limit = parsed
				}
			}
			jobs, err = deps.JobStore.ListJobs(c.Request.Context(), limit)
		}

		if err != nil {
			respondStoreError(c, err)
			return
		}

		summaries := make([]types.JobSummary, 0, len(jobs))
		for _, job := range jobs {
			summaries = append(summaries, types.NewJobSummary(job))
		}

		c.JSON(http.StatusOK, types.JobListResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Jobs:         summaries,
			Count:        len(summaries),
		})
	}
}
