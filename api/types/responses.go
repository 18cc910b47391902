package types

import (
	"github.com/audioscribe/transcriber-api/internal/models"
	"github.com/audioscribe/transcriber-api/pkg/subtitle"
)

// Status constants for API responses
const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusProcessing = "processing"
	StatusQueued     = "queued"
)

// BaseResponse contains fields common to all API responses
type BaseResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for detailed error information
type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// JobSummary is the list-view shape of a job, without segments or result
type JobSummary struct {
	ID        string `json:"id"`
	FileName  string `json:"fileName"`
	FileSize  int64  `json:"fileSize"`
	Model     string `json:"model"`
	Status    string `json:"status"`
	Step      string `json:"step"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"errorType,omitempty"`
	Resumable bool   `json:"resumable"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// JobDetail is the single-job shape with segment progress and, for
// completed jobs, subtitle statistics
type JobDetail struct {
	JobSummary
	SegmentCount   int             `json:"segmentCount"`
	ProcessedCount int             `json:"processedCount"`
	TimeMap        []float64       `json:"timeMap,omitempty"`
	Stats          *subtitle.Stats `json:"stats,omitempty"`
}

// JobListResponse for the jobs listing endpoint
type JobListResponse struct {
	BaseResponse
	Jobs  []JobSummary `json:"jobs"`
	Count int          `json:"count"`
}

// JobDetailResponse for single-job endpoints
type JobDetailResponse struct {
	BaseResponse
	Job JobDetail `json:"job"`
}

// JobQueuedResponse acknowledges an accepted transcription request
type JobQueuedResponse struct {
	BaseResponse
	JobID string `json:"jobId"`
}

// NewJobSummary maps a stored job to its list shape
func NewJobSummary(job *models.Job) JobSummary {
	return JobSummary{
		ID:        job.ID,
		FileName:  job.FileName,
		FileSize:  job.FileSize,
		Model:     job.Model,
		Status:    string(job.Status),
		Step:      string(job.Step),
		Error:     job.Error,
		ErrorType: job.ErrorType,
		Resumable: job.IsResumable(),
		CreatedAt: job.CreatedAt.Unix(),
		UpdatedAt: job.UpdatedAt.Unix(),
	}
}

// NewJobDetail maps a stored job to its detail shape
func NewJobDetail(job *models.Job) JobDetail {
	detail := JobDetail{
		JobSummary:   NewJobSummary(job),
		SegmentCount: len(job.Segments),
		TimeMap:      job.TimeMap,
	}

	for _, seg := range job.Segments {
		if seg.Processed {
			detail.ProcessedCount++
		}
	}

	if job.Status == models.JobStatusCompleted && job.Result != "" {
		stats := subtitle.GetStats(job.Result)
		detail.Stats = &stats
	}

	return detail
}
