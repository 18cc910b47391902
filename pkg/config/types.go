package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Environment   string              `mapstructure:"environment"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Processing    ProcessingConfig    `mapstructure:"processing"`
	Segmenter     SegmenterConfig     `mapstructure:"segmenter"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Gemini        GeminiConfig        `mapstructure:"gemini"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig holds SQLite settings for the job cache
type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	Verbose bool   `mapstructure:"verbose"`
}

// StorageConfig holds temp/working directory settings
type StorageConfig struct {
	TempDir         string        `mapstructure:"temp_dir"`
	MaxTempAge      time.Duration `mapstructure:"max_temp_age"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// ProcessingConfig holds ffmpeg and job maintenance settings
type ProcessingConfig struct {
	FFmpegPath    string        `mapstructure:"ffmpeg_path"`
	FFprobePath   string        `mapstructure:"ffprobe_path"`
	FFmpegTimeout time.Duration `mapstructure:"ffmpeg_timeout"`
	JobExpiry     time.Duration `mapstructure:"job_expiry"`
}

// SegmenterConfig holds silence-aware segmentation parameters
type SegmenterConfig struct {
	SegmentDuration    float64 `mapstructure:"segment_duration"`     // seconds per segment target
	SearchRange        float64 `mapstructure:"search_range"`         // seconds searched around each target
	SilenceThreshold   float64 `mapstructure:"silence_threshold"`    // dB below which audio counts as silence
	MinSilenceDuration float64 `mapstructure:"min_silence_duration"` // seconds of quiet to qualify
}

// TranscriptionConfig holds model and retry settings for the driver
type TranscriptionConfig struct {
	Model      string        `mapstructure:"model"`
	Prompt     string        `mapstructure:"prompt"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// GeminiConfig holds credentials and endpoints for the speech engine
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}
