package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestInitSetsDefaults(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if got := GetFloat64("segmenter.segment_duration"); got != 300 {
		t.Errorf("segment_duration default = %v, want 300", got)
	}
	if got := GetFloat64("segmenter.search_range"); got != 30 {
		t.Errorf("search_range default = %v, want 30", got)
	}
	if got := GetFloat64("segmenter.silence_threshold"); got != -30 {
		t.Errorf("silence_threshold default = %v, want -30", got)
	}
	if got := GetFloat64("segmenter.min_silence_duration"); got != 0.5 {
		t.Errorf("min_silence_duration default = %v, want 0.5", got)
	}
	if got := GetInt("transcription.max_retries"); got != 4 {
		t.Errorf("max_retries default = %v, want 4", got)
	}
	if got := GetString("transcription.prompt"); got != DefaultPrompt {
		t.Errorf("prompt default mismatch: %q", got)
	}
}

func TestGetConfigUnmarshal(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	cfg, err := GetConfig()
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Segmenter.SegmentDuration != 300 {
		t.Errorf("Segmenter.SegmentDuration = %v, want 300", cfg.Segmenter.SegmentDuration)
	}
	if cfg.Transcription.Model == "" {
		t.Error("Transcription.Model should have a default")
	}
}

func TestValidateAutocorrects(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Segmenter.SegmentDuration = -1
	cfg.Segmenter.SearchRange = 0
	cfg.Transcription.MaxRetries = -5

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Segmenter.SegmentDuration != 300 {
		t.Errorf("SegmentDuration not corrected: %v", cfg.Segmenter.SegmentDuration)
	}
	if cfg.Segmenter.SearchRange != 30 {
		t.Errorf("SearchRange not corrected: %v", cfg.Segmenter.SearchRange)
	}
	if cfg.Transcription.MaxRetries != 4 {
		t.Errorf("MaxRetries not corrected: %v", cfg.Transcription.MaxRetries)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestEnvOverride(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	t.Setenv("TRANSCRIBER_TRANSCRIPTION_MODEL", "gemini-2.5-pro")
	viper.AutomaticEnv()
	if got := GetString("transcription.model"); got != "gemini-2.5-pro" {
		t.Errorf("env override not applied, got %q", got)
	}
}
