package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// DefaultPrompt is the instruction sent alongside every audio segment. It
// directs the engine to emit the bracketed timestamp lines the subtitle
// merger understands.
const DefaultPrompt = "Transcribe the audio. Split at natural phrase boundaries. " +
	"Each line should not contain more than 15 words. " +
	"Output with start and end timestamps. " +
	"For example: [00:00:00:500-00:00:02:000] Hello, this is a test."

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		setDefaults()

		// Environment variable overrides
		viper.SetEnvPrefix("TRANSCRIBER")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		configPath := filepath.Clean("./config/settings.yaml")
		viper.SetConfigFile(configPath)

		if err := viper.ReadInConfig(); err != nil {
			// Missing config file is fine - defaults and env vars apply
			if !os.IsNotExist(err) {
				initErr = fmt.Errorf("error reading config file %s: %w", configPath, err)
				return
			}
		}

		if err := validate(); err != nil {
			initErr = fmt.Errorf("invalid configuration: %w", err)
		}
	})

	return initErr
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetFloat64 returns a float config value
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// validate validates the configuration using Viper values
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	if viper.GetString("database.path") == "" {
		fmt.Println("Warning: No database path configured, jobs will not survive restarts")
	}

	if viper.GetString("gemini.api_key") == "" {
		fmt.Println("Warning: Gemini API key not configured, transcription requests will fail")
	}

	// Auto-correct nonsense segmentation values rather than failing startup
	if viper.GetFloat64("segmenter.segment_duration") <= 0 {
		viper.Set("segmenter.segment_duration", 300.0)
	}
	if viper.GetFloat64("segmenter.search_range") <= 0 {
		viper.Set("segmenter.search_range", 30.0)
	}
	if viper.GetFloat64("segmenter.min_silence_duration") <= 0 {
		viper.Set("segmenter.min_silence_duration", 0.5)
	}
	if viper.GetInt("transcription.max_retries") < 0 {
		viper.Set("transcription.max_retries", 4)
	}

	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Segmenter.SegmentDuration <= 0 {
		c.Segmenter.SegmentDuration = 300
	}
	if c.Segmenter.SearchRange <= 0 {
		c.Segmenter.SearchRange = 30
	}
	if c.Transcription.MaxRetries < 0 {
		c.Transcription.MaxRetries = 4
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)
	viper.SetDefault("server.max_upload_bytes", int64(2*1024*1024*1024))

	// Database defaults
	viper.SetDefault("database.path", "./data/transcriber.db")
	viper.SetDefault("database.verbose", false)

	// Storage defaults
	viper.SetDefault("storage.temp_dir", "./tmp")
	viper.SetDefault("storage.max_temp_age", 24*time.Hour)
	viper.SetDefault("storage.cleanup_interval", 1*time.Hour)

	// Processing defaults
	viper.SetDefault("processing.ffmpeg_path", "ffmpeg")
	viper.SetDefault("processing.ffprobe_path", "ffprobe")
	viper.SetDefault("processing.ffmpeg_timeout", 5*time.Minute)
	viper.SetDefault("processing.job_expiry", 24*time.Hour)

	// Segmenter defaults
	viper.SetDefault("segmenter.segment_duration", 300.0)
	viper.SetDefault("segmenter.search_range", 30.0)
	viper.SetDefault("segmenter.silence_threshold", -30.0)
	viper.SetDefault("segmenter.min_silence_duration", 0.5)

	// Transcription defaults
	viper.SetDefault("transcription.model", "gemini-flash-latest")
	viper.SetDefault("transcription.prompt", DefaultPrompt)
	viper.SetDefault("transcription.max_retries", 4)
	viper.SetDefault("transcription.retry_delay", 2*time.Second)

	// Gemini defaults
	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	viper.SetDefault("gemini.timeout", 5*time.Minute)
}
