package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/audioscribe/transcriber-api/internal/models"
	"github.com/audioscribe/transcriber-api/internal/services/jobstore"
	"github.com/audioscribe/transcriber-api/internal/services/segmenter"
	"github.com/audioscribe/transcriber-api/internal/services/transcriber"
	apperrors "github.com/audioscribe/transcriber-api/pkg/errors"
	"github.com/audioscribe/transcriber-api/pkg/ffmpeg"
	"github.com/audioscribe/transcriber-api/pkg/subtitle"
)

type service struct {
	store      jobstore.Service
	splitter   segmenter.Service
	driver     transcriber.Service
	normalizer AudioNormalizer

	apiKey       string
	defaultModel string
	tempDir      string

	expireOnce sync.Once
}

// NewService wires the pipeline stages together
func NewService(
	store jobstore.Service,
	splitter segmenter.Service,
	driver transcriber.Service,
	normalizer AudioNormalizer,
	apiKey, defaultModel, tempDir string,
) Service {
	return &service{
		store:        store,
		splitter:     splitter,
		driver:       driver,
		normalizer:   normalizer,
		apiKey:       apiKey,
		defaultModel: defaultModel,
		tempDir:      tempDir,
	}
}

// sweepExpired runs the stale-job sweep exactly once per process
func (s *service) sweepExpired(ctx context.Context) {
	s.expireOnce.Do(func() {
		if _, err := s.store.ExpireStaleJobs(ctx); err != nil {
			log.Printf("[WARN] Stale job sweep failed: %v", err)
		}
	})
}

func (s *service) Process(ctx context.Context, source Source, model string, onProgress transcriber.ProgressFunc) (*models.Job, error) {
	if s.apiKey == "" {
		return nil, apperrors.MissingFieldError("gemini api key")
	}
	if source.Path == "" || source.Name == "" {
		return nil, apperrors.MissingFieldError("source file")
	}
	if model == "" {
		model = s.defaultModel
	}

	s.sweepExpired(ctx)

	jobID := models.NewJobID(source.Name, source.Size, source.LastModified, model)

	existing, err := s.store.GetJob(ctx, jobID)
	if err == nil {
		if existing.IsTerminal() {
			log.Printf("[INFO] Job %s already completed, returning cached result", jobID)
			return existing, nil
		}
		log.Printf("[INFO] Resuming existing job %s", jobID)
		return s.resume(ctx, existing, onProgress)
	}
	if !errors.Is(err, jobstore.ErrJobNotFound) {
		return nil, err
	}

	job, err := s.prepare(ctx, source, jobID, model, onProgress)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, job, onProgress)
}

func (s *service) Resume(ctx context.Context, jobID string, onProgress transcriber.ProgressFunc) (*models.Job, error) {
	if s.apiKey == "" {
		return nil, apperrors.MissingFieldError("gemini api key")
	}

	s.sweepExpired(ctx)

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	return s.resume(ctx, job, onProgress)
}

// prepare normalizes the source audio, splits it and persists the new job
// with every segment unprocessed
func (s *service) prepare(ctx context.Context, source Source, jobID, model string, onProgress transcriber.ProgressFunc) (*models.Job, error) {
	report(onProgress, "normalizing audio")

	normalized, err := s.normalizer.Normalize(ctx, source.Path, ffmpeg.ProcessingOptions{TempDir: s.tempDir})
	if err != nil {
		return nil, models.NewInputError("normalize_failed",
			"failed to normalize audio", err.Error(), err)
	}
	if !normalized.Copied {
		defer os.Remove(normalized.Path)
	}

	report(onProgress, "splitting audio at silence boundaries")

	split, err := s.splitter.Split(ctx, normalized.Path, normalized.MimeType)
	if err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:        jobID,
		FileName:  source.Name,
		FileSize:  source.Size,
		Model:     model,
		Timestamp: source.LastModified,
		Status:    models.JobStatusProcessing,
		Step:      models.JobStepTranscribe,
		TimeMap:   split.TimeMap,
	}
	for i, seg := range split.Segments {
		job.Segments = append(job.Segments, models.Segment{
			JobID:    jobID,
			Index:    i,
			Blob:     seg.Data,
			MimeType: seg.MimeType,
		})
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	log.Printf("[INFO] Created job %s: %d segment(s), %.1fs of audio", jobID, len(job.Segments), split.Duration)
	return job, nil
}

// resume validates the stored job and re-enters the run loop
func (s *service) resume(ctx context.Context, job *models.Job, onProgress transcriber.ProgressFunc) (*models.Job, error) {
	if job.IsTerminal() {
		return job, nil
	}
	if !job.IsResumable() {
		return nil, apperrors.ValidationError("status", fmt.Sprintf("job %s is not resumable (status %s)", job.ID, job.Status))
	}

	if job.Status == models.JobStatusError {
		job.ClearError()
		if err := s.store.UpdateStatus(ctx, job.ID, models.JobStatusProcessing, job.Step); err != nil {
			return nil, err
		}
	}

	return s.run(ctx, job, onProgress)
}

// run drives a claimed job through transcription and merge. Any failure
// marks the job errored but leaves its per-segment progress intact.
func (s *service) run(ctx context.Context, job *models.Job, onProgress transcriber.ProgressFunc) (*models.Job, error) {
	claimed, err := s.store.ClaimJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	job = claimed

	if err := s.driver.RunSegments(ctx, job, onProgress); err != nil {
		// An interrupted run is not a failed job. Drop the lease and leave
		// the status processing so the next run picks it up.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.release(job.ID)
			return nil, err
		}
		s.markFailed(ctx, job.ID, err)
		return nil, err
	}

	// Merge only runs over a fully transcribed job. Anything less means a
	// logic error upstream; halt without erroring so the job stays
	// resumable and never emits a partial transcript.
	if !job.AllSegmentsProcessed() {
		s.release(job.ID)
		return nil, models.NewSegmentationError("incomplete_segments",
			"not all segments processed before merge", "", nil)
	}

	if err := s.store.UpdateStatus(ctx, job.ID, models.JobStatusProcessing, models.JobStepMerge); err != nil {
		s.release(job.ID)
		return nil, err
	}
	job.Step = models.JobStepMerge

	report(onProgress, "merging segments")

	results := make([]subtitle.SegmentResult, 0, len(job.Segments))
	for _, seg := range job.Segments {
		results = append(results, subtitle.SegmentResult{Index: seg.Index, Text: seg.Transcription})
	}

	merged := subtitle.MergeSegments(results, job.TimeMap)
	srt := subtitle.ToSRT(merged)

	if err := s.store.CompleteJob(ctx, job.ID, srt); err != nil {
		s.release(job.ID)
		return nil, err
	}

	job.Status = models.JobStatusCompleted
	job.Step = models.JobStepCompleted
	job.Result = srt
	job.ClaimedAt = nil
	return job, nil
}

// release drops the resume lease without touching job status. Runs on a
// fresh context because the caller's may already be cancelled.
func (s *service) release(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.store.ReleaseJob(ctx, jobID); err != nil {
		log.Printf("[WARN] Failed to release lease on job %s: %v", jobID, err)
	}
}

// markFailed records the failure with its classification when available
func (s *service) markFailed(ctx context.Context, jobID string, err error) {
	var jobErr *models.StructuredJobError
	if !errors.As(err, &jobErr) {
		jobErr = models.NewTerminalError("unknown", err.Error(), "", err)
	}

	if failErr := s.store.FailJob(ctx, jobID, jobErr); failErr != nil {
		log.Printf("[ERROR] Failed to record job %s failure: %v", jobID, failErr)
	}
}

func report(onProgress transcriber.ProgressFunc, message string) {
	if onProgress != nil {
		onProgress(message)
	}
}
