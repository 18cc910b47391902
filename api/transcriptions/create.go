package transcriptions

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/audioscribe/transcriber-api/api/types"
	"github.com/audioscribe/transcriber-api/internal/models"
	"github.com/audioscribe/transcriber-api/internal/services/pipeline"
)

// jobTimeout bounds one background pipeline run. Long recordings with many
// segments and retry backoff can legitimately take a while.
const jobTimeout = 4 * time.Hour

// CreateRequest is the JSON body for URL-based transcription requests
type CreateRequest struct {
	URL   string `json:"url" binding:"required"`
	Model string `json:"model"`
}

// Create accepts an audio file (multipart) or a media URL (JSON) and starts
// the transcription pipeline in the background
// @Summary      Start a transcription
// @Description  Accepts a multipart audio upload (field "file", optional field "model") or a JSON body with a media URL.
// @Description  Returns 202 with the job ID. The same file and model always map to the same job, so re-submitting
// @Description  an interrupted upload resumes it instead of starting over.
// @Tags         transcriptions
// @Accept       mpfd
// @Accept       json
// @Produce      json
// @Param        file formData file false "Audio file to transcribe"
// @Param        model formData string false "Speech model override"
// @Success      202 {object} types.JobQueuedResponse
// @Failure      400 {object} types.ErrorResponse
// @Router       /api/v1/transcriptions [post]
func Create(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Pipeline == nil {
			c.JSON(http.StatusInternalServerError, types.ErrorResponse{
				Status: types.StatusError, Message: "Transcription pipeline not available",
			})
			return
		}

		if strings.HasPrefix(c.ContentType(), "application/json") {
			createFromURL(c, deps)
			return
		}
		createFromUpload(c, deps)
	}
}

func createFromUpload(c *gin.Context, deps *types.Dependencies) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Status: types.StatusError, Message: "Missing audio file", Error: err.Error(),
		})
		return
	}

	model := defaultedModel(c.PostForm("model"), deps)

	tempPath := filepath.Join(tempDir(deps), "media_upload_"+filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Status: types.StatusError, Message: "Failed to store upload", Error: err.Error(),
		})
		return
	}

	source := pipeline.Source{
		Path: tempPath,
		Name: file.Filename,
		Size: file.Size,
	}
	jobID := models.NewJobID(source.Name, source.Size, source.LastModified, model)

	runInBackground(deps, jobID, model, source, tempPath)

	c.JSON(http.StatusAccepted, types.JobQueuedResponse{
		BaseResponse: types.BaseResponse{Status: types.StatusQueued, Message: "Transcription started"},
		JobID:        jobID,
	})
}

func createFromURL(c *gin.Context, deps *types.Dependencies) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Status: types.StatusError, Message: "Invalid request body", Error: err.Error(),
		})
		return
	}

	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Status: types.StatusError, Message: "Invalid media URL",
		})
		return
	}

	if deps.Downloader == nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Status: types.StatusError, Message: "Downloader not available",
		})
		return
	}

	model := defaultedModel(req.Model, deps)

	name := path.Base(parsed.Path)
	if name == "" || name == "/" || name == "." {
		name = parsed.Host
	}

	// Remote files key by name only; size and mtime are unknown up front
	source := pipeline.Source{Name: name}
	jobID := models.NewJobID(source.Name, 0, 0, model)

	downloader := deps.Downloader
	mediaURL := req.URL
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		result, err := downloader.DownloadWithRetry(ctx, mediaURL, 2)
		if err != nil {
			log.Printf("[ERROR] Job %s: download failed: %v", jobID, err)
			return
		}
		defer os.Remove(result.FilePath)

		src := pipeline.Source{Path: result.FilePath, Name: name}
		if _, err := deps.Pipeline.Process(ctx, src, model, progressLogger(jobID)); err != nil {
			log.Printf("[ERROR] Job %s: pipeline failed: %v", jobID, err)
		}
	}()

	c.JSON(http.StatusAccepted, types.JobQueuedResponse{
		BaseResponse: types.BaseResponse{Status: types.StatusQueued, Message: "Download and transcription started"},
		JobID:        jobID,
	})
}

// runInBackground kicks off the pipeline for a stored upload and cleans up
// the temp file when the run ends
func runInBackground(deps *types.Dependencies, jobID, model string, source pipeline.Source, tempPath string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		defer os.Remove(tempPath)

		if _, err := deps.Pipeline.Process(ctx, source, model, progressLogger(jobID)); err != nil {
			log.Printf("[ERROR] Job %s: pipeline failed: %v", jobID, err)
		}
	}()
}

func progressLogger(jobID string) func(string) {
	return func(msg string) {
		log.Printf("[INFO] Job %s: %s", jobID, msg)
	}
}

func defaultedModel(model string, deps *types.Dependencies) string {
	if model != "" {
		return model
	}
	if deps.Config != nil && deps.Config.Transcription.Model != "" {
		return deps.Config.Transcription.Model
	}
	return "gemini-flash-latest"
}

func tempDir(deps *types.Dependencies) string {
	if deps.Config != nil && deps.Config.Storage.TempDir != "" {
		return deps.Config.Storage.TempDir
	}
	return os.TempDir()
}
