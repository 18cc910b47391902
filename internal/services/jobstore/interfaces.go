package jobstore

import (
	"context"

	"github.com/audioscribe/transcriber-api/internal/models"
)

// Service defines the business logic interface for job persistence
type Service interface {
	// Create and retrieval
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	GetJobStatus(ctx context.Context, jobID string) (models.JobStatus, error)

	// Progress writes (used by the transcription driver after each segment)
	SaveJob(ctx context.Context, job *models.Job) error
	SaveSegment(ctx context.Context, segment *models.Segment) error
	UpdateStatus(ctx context.Context, jobID string, status models.JobStatus, step models.JobStep) error
	CompleteJob(ctx context.Context, jobID string, result string) error
	FailJob(ctx context.Context, jobID string, jobErr *models.StructuredJobError) error

	// Resume lease
	ClaimJob(ctx context.Context, jobID string) (*models.Job, error)
	ReleaseJob(ctx context.Context, jobID string) error

	// Listing and maintenance
	ListJobs(ctx context.Context, limit int) ([]*models.Job, error)
	ListByStatus(ctx context.Context, statuses ...models.JobStatus) ([]*models.Job, error)
	ListResumable(ctx context.Context) ([]*models.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	ExpireStaleJobs(ctx context.Context) (int64, error)
}
