package transcriber

import (
	"context"

	"github.com/audioscribe/transcriber-api/internal/models"
)

// ProgressFunc receives human-readable progress messages as segments move
// through upload and transcription
type ProgressFunc func(message string)

// Service drives segment transcription for a job, strictly in index order,
// persisting after every segment so a crash resumes at the first
// unprocessed index.
type Service interface {
	RunSegments(ctx context.Context, job *models.Job, onProgress ProgressFunc) error
}
