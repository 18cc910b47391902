package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/audioscribe/transcriber-api/internal/database"
	"github.com/audioscribe/transcriber-api/internal/services/cleanup"
	"github.com/audioscribe/transcriber-api/internal/services/engine"
	"github.com/audioscribe/transcriber-api/internal/services/jobstore"
	"github.com/audioscribe/transcriber-api/internal/services/pipeline"
	"github.com/audioscribe/transcriber-api/internal/services/segmenter"
	"github.com/audioscribe/transcriber-api/internal/services/transcriber"
	"github.com/audioscribe/transcriber-api/pkg/config"
	"github.com/audioscribe/transcriber-api/pkg/download"
	"github.com/audioscribe/transcriber-api/pkg/ffmpeg"
)

// stack holds the wired service graph shared by serve and the one-shot
// CLI commands.
type stack struct {
	db         *database.DB
	store      jobstore.Service
	pipeline   pipeline.Service
	downloader *download.Downloader
	cleaner    *cleanup.Service
	ffmpeg     *ffmpeg.FFmpeg
}

// buildStack constructs the full service graph from configuration. The
// caller owns the database handle and must Close it.
func buildStack(cfg *config.Config) (*stack, error) {
	db, err := database.Initialize(cfg.Database.Path, cfg.Database.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.MigrateAll(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	ff := ffmpeg.New(cfg.Processing.FFmpegPath, cfg.Processing.FFprobePath, cfg.Processing.FFmpegTimeout)
	if err := ff.ValidateBinaries(); err != nil {
		log.Printf("[WARN] FFmpeg validation failed, audio processing will not work: %v", err)
	}

	tempDir := cfg.Storage.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	store := jobstore.NewService(
		jobstore.NewRepository(db.DB),
		jobstore.WithJobExpiry(cfg.Processing.JobExpiry),
	)

	splitter := segmenter.NewService(ff, tempDir, cfg.Segmenter)
	speech := engine.NewGeminiClient(cfg.Gemini)
	driver := transcriber.NewService(speech, store, cfg.Transcription)

	pipe := pipeline.NewService(
		store,
		splitter,
		driver,
		ff,
		cfg.Gemini.APIKey,
		cfg.Transcription.Model,
		tempDir,
	)

	dlOpts := download.DefaultOptions()
	if cfg.Server.MaxUploadBytes > 0 {
		dlOpts.MaxSize = cfg.Server.MaxUploadBytes
	}
	dlOpts.TempDir = tempDir

	return &stack{
		db:         db,
		store:      store,
		pipeline:   pipe,
		downloader: download.NewDownloader(dlOpts),
		cleaner:    cleanup.NewService(tempDir, cfg.Storage.MaxTempAge, cfg.Storage.CleanupInterval),
		ffmpeg:     ff,
	}, nil
}
