package segmenter

import (
	"context"

	"github.com/audioscribe/transcriber-api/pkg/ffmpeg"
)

// AudioAnalyzer is the subset of FFmpeg operations splitting needs.
// *ffmpeg.FFmpeg satisfies it; tests substitute a fake.
type AudioAnalyzer interface {
	GetMetadata(ctx context.Context, inputPath string) (*ffmpeg.AudioMetadata, error)
	DetectSilence(ctx context.Context, inputPath string, windowStart, windowEnd, thresholdDB, minSilenceDuration float64) ([]ffmpeg.SilenceInterval, error)
	ExtractCopy(ctx context.Context, inputPath string, startSec, endSec float64, outputPath string) error
}

// Service splits audio into segments along silence boundaries
type Service interface {
	Split(ctx context.Context, audioPath string, mimeType string) (*SplitResult, error)
}

// SegmentData is one extracted audio slice ready for upload
type SegmentData struct {
	Data     []byte
	MimeType string
}

// SplitResult holds the segments and the absolute start offset of each one.
// TimeMap[0] is always 0 and TimeMap has exactly one entry per segment.
type SplitResult struct {
	Segments []SegmentData
	TimeMap  []float64
	Duration float64
	Split    bool // false when the audio fit in a single segment
}
