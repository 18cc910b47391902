package pipeline

import (
	"context"

	"github.com/audioscribe/transcriber-api/internal/models"
	"github.com/audioscribe/transcriber-api/internal/services/transcriber"
	"github.com/audioscribe/transcriber-api/pkg/ffmpeg"
)

// Source identifies the audio file to transcribe. Name, Size and
// LastModified feed the job identity, so the same file resumes its
// existing job instead of starting a new one.
type Source struct {
	Path         string
	Name         string
	Size         int64
	LastModified int64 // Unix milliseconds
}

// AudioNormalizer is the FFmpeg transcode step the pipeline runs before
// segmentation. *ffmpeg.FFmpeg satisfies it.
type AudioNormalizer interface {
	Normalize(ctx context.Context, inputPath string, options ffmpeg.ProcessingOptions) (*ffmpeg.NormalizeResult, error)
}

// Service runs the whole transcription pipeline: normalize, segment,
// transcribe, merge.
type Service interface {
	// Process transcribes a source file. If a resumable job already exists
	// for the same source and model it is resumed; a completed job is
	// returned as-is.
	Process(ctx context.Context, source Source, model string, onProgress transcriber.ProgressFunc) (*models.Job, error)

	// Resume picks up an existing job at its first unprocessed segment.
	Resume(ctx context.Context, jobID string, onProgress transcriber.ProgressFunc) (*models.Job, error)
}
