package jobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/audioscribe/transcriber-api/internal/models"
)

// Repository errors
var (
	ErrJobNotFound   = errors.New("job not found")
	ErrJobClaimed    = errors.New("job already claimed by another run")
	ErrInvalidJobKey = errors.New("invalid job key")
)

// Repository defines the interface for job persistence
type Repository interface {
	CreateJob(ctx context.Context, job *models.Job) error

	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context, limit int) ([]*models.Job, error)
	ListByStatus(ctx context.Context, statuses []models.JobStatus) ([]*models.Job, error)

	SaveJob(ctx context.Context, job *models.Job) error
	SaveSegment(ctx context.Context, segment *models.Segment) error
	UpdateStatus(ctx context.Context, id string, status models.JobStatus, step models.JobStep) error
	CompleteJob(ctx context.Context, id string, result string) error
	FailJobWithDetails(ctx context.Context, id string, errorType models.JobErrorType, errorCode, errorMsg, errorDetails string) error

	ClaimJob(ctx context.Context, id string, staleBefore time.Time) (*models.Job, error)
	ReleaseJob(ctx context.Context, id string) error

	DeleteJob(ctx context.Context, id string) error
	ExpireJobs(ctx context.Context, olderThan time.Time) (int64, error)
}

// repository implements Repository interface
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new job repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

// CreateJob creates a new job with its segments
func (r *repository) CreateJob(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetJob retrieves a job and its segments, ordered by segment index
func (r *repository) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).
		Preload("Segments", func(db *gorm.DB) *gorm.DB {
			return db.Order("segments.`index` ASC")
		}).
		First(&job, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return &job, nil
}

// ListJobs retrieves jobs newest first, without segment blobs
func (r *repository) ListJobs(ctx context.Context, limit int) ([]*models.Job, error) {
	var jobs []*models.Job
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&jobs).Error
	return jobs, err
}

// ListByStatus retrieves jobs matching any of the given statuses
func (r *repository) ListByStatus(ctx context.Context, statuses []models.JobStatus) ([]*models.Job, error) {
	var jobs []*models.Job
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, err
}

// SaveJob persists the full job record including segments
func (r *repository) SaveJob(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(job).Error
}

// SaveSegment persists one segment's progress
func (r *repository) SaveSegment(ctx context.Context, segment *models.Segment) error {
	return r.db.WithContext(ctx).Save(segment).Error
}

// UpdateStatus updates status and pipeline step without touching segments
func (r *repository) UpdateStatus(ctx context.Context, id string, status models.JobStatus, step models.JobStep) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if step != "" {
		updates["step"] = step
	}

	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("updating job status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// CompleteJob marks a job as completed and stores the merged result
func (r *repository) CompleteJob(ctx context.Context, id string, resultText string) error {
	updates := map[string]interface{}{
		"status":     models.JobStatusCompleted,
		"step":       models.JobStepCompleted,
		"result":     resultText,
		"claimed_at": nil,
		"error":      "",
	}

	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Updates(updates)

	if res.Error != nil {
		return fmt.Errorf("completing job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// FailJobWithDetails marks a job as errored with classification information
func (r *repository) FailJobWithDetails(ctx context.Context, id string, errorType models.JobErrorType, errorCode, errorMsg, errorDetails string) error {
	updates := map[string]interface{}{
		"status":        models.JobStatusError,
		"error":         errorMsg,
		"error_type":    string(errorType),
		"error_code":    errorCode,
		"error_details": errorDetails,
		"claimed_at":    nil,
	}

	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failing job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// ClaimJob takes the resume lease on a job. The claim only succeeds when no
// other run holds a fresh lease; the conditional update is the atomicity
// guard, not a row lock.
func (r *repository) ClaimJob(ctx context.Context, id string, staleBefore time.Time) (*models.Job, error) {
	now := time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Where("claimed_at IS NULL OR claimed_at < ?", staleBefore).
		Update("claimed_at", &now)

	if result.Error != nil {
		return nil, fmt.Errorf("claiming job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the job does not exist or someone else holds the lease
		if _, err := r.GetJob(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrJobClaimed
	}

	return r.GetJob(ctx, id)
}

// ReleaseJob clears the resume lease
func (r *repository) ReleaseJob(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Update("claimed_at", nil)

	if result.Error != nil {
		return fmt.Errorf("releasing job: %w", result.Error)
	}
	return nil
}

// DeleteJob removes a job and its segments
func (r *repository) DeleteJob(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("job_id = ?", id).Delete(&models.Segment{}).Error; err != nil {
			return fmt.Errorf("deleting segments: %w", err)
		}

		result := tx.Unscoped().Delete(&models.Job{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("deleting job: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrJobNotFound
		}
		return nil
	})
}

// ExpireJobs deletes stale processing jobs outright. An abandoned job
// carries every segment blob, so expiry reclaims the space instead of
// leaving a dead job resumable forever.
func (r *repository) ExpireJobs(ctx context.Context, olderThan time.Time) (int64, error) {
	var expired int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := tx.Model(&models.Job{}).
			Where("status = ?", models.JobStatusProcessing).
			Where("updated_at < ?", olderThan).
			Pluck("id", &ids).Error
		if err != nil {
			return fmt.Errorf("finding expired jobs: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Unscoped().Where("job_id IN ?", ids).Delete(&models.Segment{}).Error; err != nil {
			return fmt.Errorf("deleting expired segments: %w", err)
		}

		result := tx.Unscoped().Where("id IN ?", ids).Delete(&models.Job{})
		if result.Error != nil {
			return fmt.Errorf("deleting expired jobs: %w", result.Error)
		}
		expired = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}
