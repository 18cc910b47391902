package transcriber

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/audioscribe/transcriber-api/internal/models"
	"github.com/audioscribe/transcriber-api/internal/services/engine"
	"github.com/audioscribe/transcriber-api/internal/services/jobstore"
	"github.com/audioscribe/transcriber-api/pkg/config"
)

type service struct {
	engine engine.Service
	store  jobstore.Service

	prompt     string
	maxRetries int
	retryDelay time.Duration
}

// NewService creates a transcription driver
func NewService(eng engine.Service, store jobstore.Service, cfg config.TranscriptionConfig) Service {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 4
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}

	prompt := cfg.Prompt
	if prompt == "" {
		prompt = config.DefaultPrompt
	}

	return &service{
		engine:     eng,
		store:      store,
		prompt:     prompt,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// RunSegments uploads and transcribes every unprocessed segment in index
// order. Progress is persisted after each segment. The first segment that
// exhausts its retries stops the whole run; later segments are never
// attempted out of order.
func (s *service) RunSegments(ctx context.Context, job *models.Job, onProgress ProgressFunc) error {
	total := len(job.Segments)

	for i := range job.Segments {
		seg := &job.Segments[i]
		if seg.Processed {
			log.Printf("[DEBUG] Job %s: segment %d/%d already processed, skipping", job.ID, seg.Index+1, total)
			continue
		}

		if err := s.processSegment(ctx, job, seg, total, onProgress); err != nil {
			return err
		}
	}

	return nil
}

func (s *service) processSegment(ctx context.Context, job *models.Job, seg *models.Segment, total int, onProgress ProgressFunc) error {
	report(onProgress, fmt.Sprintf("uploading segment %d/%d", seg.Index+1, total))

	handle, err := retryWithBackoff(ctx, s.maxRetries, s.retryDelay, func() (engine.FileHandle, error) {
		return s.engine.Upload(ctx, seg.Blob, seg.MimeType)
	})
	if err != nil {
		return models.NewNetworkError("upload_failed",
			fmt.Sprintf("failed to upload segment %d", seg.Index), err.Error(), err)
	}
	seg.UploadedFileID = handle.Name

	report(onProgress, fmt.Sprintf("transcribing segment %d/%d", seg.Index+1, total))

	text, err := retryWithBackoff(ctx, s.maxRetries, s.retryDelay, func() (string, error) {
		return s.engine.Transcribe(ctx, handle, job.Model, s.prompt)
	})
	if err != nil {
		return models.NewNetworkError("transcribe_failed",
			fmt.Sprintf("failed to transcribe segment %d", seg.Index), err.Error(), err)
	}

	seg.Transcription = text
	seg.Processed = true

	if err := s.store.SaveSegment(ctx, seg); err != nil {
		return err
	}

	log.Printf("[INFO] Job %s: segment %d/%d transcribed (%d chars)", job.ID, seg.Index+1, total, len(text))
	return nil
}

func report(onProgress ProgressFunc, message string) {
	if onProgress != nil {
		onProgress(message)
	}
}

// retryWithBackoff retries fn with exponential delays. maxRetries of 4 at a
// 2s base yields waits of 2s, 4s, 8s and 16s between the five attempts.
func retryWithBackoff[T any](ctx context.Context, maxRetries int, baseDelay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			log.Printf("[WARN] Attempt %d failed, retrying in %v: %v", attempt, delay, lastErr)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}

	return zero, fmt.Errorf("all %d attempts failed: %w", maxRetries+1, lastErr)
}
