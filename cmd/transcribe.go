package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/audioscribe/transcriber-api/internal/services/pipeline"
)

var (
	transcribeModel  string
	transcribeOutput string
)

// transcribeCmd represents the transcribe command
var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Transcribe a single audio file",
	Long: `Transcribe a local audio file and write the merged SRT next to it.

The file is normalized, split at silence boundaries, and transcribed
segment by segment. Progress survives interruption: running the same
command again resumes from the first unprocessed segment.

Example:
  transcriber-api transcribe lecture.mp3
  transcriber-api transcribe lecture.mp3 --model gemini-2.5-pro
  transcriber-api transcribe lecture.mp3 --output /tmp/lecture.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().StringVar(&transcribeModel, "model", "", "transcription model (overrides config)")
	transcribeCmd.Flags().StringVarP(&transcribeOutput, "output", "o", "", "output SRT path (default: input with .srt extension)")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	audioPath := args[0]
	info, err := os.Stat(audioPath)
	if err != nil {
		return fmt.Errorf("cannot read audio file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", audioPath)
	}

	services, err := buildStack(cfg)
	if err != nil {
		return err
	}
	defer services.db.Close()

	// Duration is advisory; probing can fail on exotic containers without
	// blocking the transcription itself
	if duration := services.ffmpeg.GetDuration(cmd.Context(), audioPath); duration > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Audio duration: %.1fs\n", duration)
	}

	source := pipeline.Source{
		Path:         audioPath,
		Name:         filepath.Base(audioPath),
		Size:         info.Size(),
		LastModified: info.ModTime().UnixMilli(),
	}

	job, err := services.pipeline.Process(cmd.Context(), source, transcribeModel, func(message string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", message)
	})
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	outputPath := transcribeOutput
	if outputPath == "" {
		ext := filepath.Ext(audioPath)
		outputPath = strings.TrimSuffix(audioPath, ext) + ".srt"
	}
	if err := os.WriteFile(outputPath, []byte(job.Result), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (job %s)\n", outputPath, job.ID)
	return nil
}
