package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/audioscribe/transcriber-api/pkg/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "transcriber-api",
	Short: "Resumable audio transcription server",
	Long: `Transcriber API - A resumable segmented audio transcription service

Long audio files are normalized with FFmpeg, split at silence boundaries,
transcribed segment by segment through the Gemini API, and merged back
into a single SRT. Per-segment progress is persisted, so an interrupted
job resumes from its first unprocessed segment instead of starting over.

Features:
  • Silence-aware segmentation near configurable duration targets
  • Durable per-segment progress in SQLite
  • Automatic retry with exponential backoff on transient failures
  • Timestamp remapping so merged subtitles match the source audio
  • HTTP API and one-shot CLI modes`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd returns the root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

// loadConfig initializes the configuration. Commands that need settings
// call this at the top of their RunE so that version and help stay usable
// without a config file.
func loadConfig() (*config.Config, error) {
	if err := config.Init(); err != nil {
		return nil, fmt.Errorf("error initializing config: %w", err)
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}
