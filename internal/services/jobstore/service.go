package jobstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/audioscribe/transcriber-api/internal/models"
)

const (
	// DefaultJobExpiry bounds how long a processing job stays resumable
	DefaultJobExpiry = 24 * time.Hour

	// DefaultLeaseExpiry bounds how long a resume lease blocks other runs
	DefaultLeaseExpiry = 10 * time.Minute
)

type service struct {
	repo        Repository
	jobExpiry   time.Duration
	leaseExpiry time.Duration
}

// Option configures the jobstore service
type Option func(*service)

// WithJobExpiry overrides how old a processing job may get before the
// expiry sweep marks it errored
func WithJobExpiry(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.jobExpiry = d
		}
	}
}

// WithLeaseExpiry overrides how long a resume lease is honored
func WithLeaseExpiry(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.leaseExpiry = d
		}
	}
}

// NewService creates a new jobstore service
func NewService(repo Repository, opts ...Option) Service {
	s := &service{
		repo:        repo,
		jobExpiry:   DefaultJobExpiry,
		leaseExpiry: DefaultLeaseExpiry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// validateKey rejects malformed job identifiers before they reach storage.
// A valid key always has the name_size_timestamp_model shape produced by
// models.NewJobID.
func validateKey(jobID string) error {
	if jobID == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidJobKey)
	}
	if strings.Count(jobID, "_") < 3 {
		return fmt.Errorf("%w: %q", ErrInvalidJobKey, jobID)
	}
	return nil
}

func (s *service) CreateJob(ctx context.Context, job *models.Job) error {
	if err := validateKey(job.ID); err != nil {
		return err
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return fmt.Errorf("creating job: %w", err)
	}

	log.Printf("[DEBUG] Created job %s with %d segment(s)", job.ID, len(job.Segments))
	return nil
}

func (s *service) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	if err := validateKey(jobID); err != nil {
		return nil, err
	}
	return s.repo.GetJob(ctx, jobID)
}

func (s *service) GetJobStatus(ctx context.Context, jobID string) (models.JobStatus, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	return job.Status, nil
}

// SaveJob persists the full job. A failed write gets exactly one retry; the
// second failure is returned as a persistence error because continuing
// without durable progress would silently discard completed work.
func (s *service) SaveJob(ctx context.Context, job *models.Job) error {
	if err := validateKey(job.ID); err != nil {
		return err
	}

	err := s.repo.SaveJob(ctx, job)
	if err == nil {
		return nil
	}

	log.Printf("[WARN] Job %s save failed, retrying once: %v", job.ID, err)
	if err = s.repo.SaveJob(ctx, job); err != nil {
		return models.NewPersistenceError("save_failed",
			"failed to persist job progress", err.Error(), err)
	}
	return nil
}

// SaveSegment persists one segment with the same retry-once contract
func (s *service) SaveSegment(ctx context.Context, segment *models.Segment) error {
	err := s.repo.SaveSegment(ctx, segment)
	if err == nil {
		return nil
	}

	log.Printf("[WARN] Segment %d of job %s save failed, retrying once: %v",
		segment.Index, segment.JobID, err)
	if err = s.repo.SaveSegment(ctx, segment); err != nil {
		return models.NewPersistenceError("save_segment_failed",
			"failed to persist segment progress", err.Error(), err)
	}
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, jobID string, status models.JobStatus, step models.JobStep) error {
	if err := validateKey(jobID); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, jobID, status, step)
}

func (s *service) CompleteJob(ctx context.Context, jobID string, result string) error {
	if err := validateKey(jobID); err != nil {
		return err
	}

	if err := s.repo.CompleteJob(ctx, jobID, result); err != nil {
		return err
	}

	log.Printf("[INFO] Job %s completed", jobID)
	return nil
}

func (s *service) FailJob(ctx context.Context, jobID string, jobErr *models.StructuredJobError) error {
	if err := validateKey(jobID); err != nil {
		return err
	}

	log.Printf("[ERROR] Job %s failed (%s/%s): %s", jobID, jobErr.Type, jobErr.Code, jobErr.Message)
	return s.repo.FailJobWithDetails(ctx, jobID, jobErr.Type, jobErr.Code, jobErr.Message, jobErr.Details)
}

// ClaimJob takes the resume lease for this run. Leases older than the lease
// expiry are treated as abandoned, so a crashed run never wedges its job.
func (s *service) ClaimJob(ctx context.Context, jobID string) (*models.Job, error) {
	if err := validateKey(jobID); err != nil {
		return nil, err
	}

	staleBefore := time.Now().UTC().Add(-s.leaseExpiry)
	job, err := s.repo.ClaimJob(ctx, jobID, staleBefore)
	if err != nil {
		if errors.Is(err, ErrJobClaimed) {
			log.Printf("[WARN] Job %s is claimed by another run", jobID)
		}
		return nil, err
	}

	return job, nil
}

func (s *service) ReleaseJob(ctx context.Context, jobID string) error {
	if err := validateKey(jobID); err != nil {
		return err
	}
	return s.repo.ReleaseJob(ctx, jobID)
}

func (s *service) ListJobs(ctx context.Context, limit int) ([]*models.Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

func (s *service) ListByStatus(ctx context.Context, statuses ...models.JobStatus) ([]*models.Job, error) {
	return s.repo.ListByStatus(ctx, statuses)
}

func (s *service) ListResumable(ctx context.Context) ([]*models.Job, error) {
	return s.ListByStatus(ctx, models.JobStatusProcessing, models.JobStatusError)
}

func (s *service) DeleteJob(ctx context.Context, jobID string) error {
	if err := validateKey(jobID); err != nil {
		return err
	}

	if err := s.repo.DeleteJob(ctx, jobID); err != nil {
		return err
	}

	log.Printf("[DEBUG] Deleted job %s", jobID)
	return nil
}

// ExpireStaleJobs deletes processing jobs that have sat untouched past
// the expiry window, segments included. Intended to run once per process
// at startup.
func (s *service) ExpireStaleJobs(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.jobExpiry)
	expired, err := s.repo.ExpireJobs(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		log.Printf("[INFO] Deleted %d expired job(s) older than %v", expired, s.jobExpiry)
	}
	return expired, nil
}
