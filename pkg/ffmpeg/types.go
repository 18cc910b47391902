package ffmpeg

import "time"

// AudioMetadata represents metadata extracted from an audio file
type AudioMetadata struct {
	Duration   float64 `json:"duration"`    // Duration in seconds
	SampleRate int     `json:"sample_rate"` // Sample rate in Hz
	Channels   int     `json:"channels"`    // Number of audio channels
	Bitrate    int     `json:"bitrate"`     // Bitrate in bits per second
	Format     string  `json:"format"`      // Container format (mp3, wav, etc.)
	Codec      string  `json:"codec"`       // Audio codec
	Size       int64   `json:"size"`        // File size in bytes
}

// NormalizeResult describes the canonical audio produced by Normalize.
type NormalizeResult struct {
	Path     string // Path to the normalized file (may equal the input)
	Name     string // Suggested file name with the canonical extension
	MimeType string // MIME type of the normalized audio
	Copied   bool   // True when the input was already canonical and reused
}

// SilenceInterval is one detected quiet span. Times are relative to the
// analyzed window, not the whole file.
type SilenceInterval struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// ProcessingOptions defines options for audio processing
type ProcessingOptions struct {
	TempDir     string        `json:"temp_dir"`     // Directory for intermediate files
	MaxDuration time.Duration `json:"max_duration"` // Maximum duration to process, 0 = unlimited
}

// DefaultProcessingOptions returns sensible defaults for audio processing
func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		TempDir:     "/tmp",
		MaxDuration: 0,
	}
}
