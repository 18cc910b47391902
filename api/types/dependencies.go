package types

import (
	"github.com/audioscribe/transcriber-api/internal/database"
	"github.com/audioscribe/transcriber-api/internal/services/jobstore"
	"github.com/audioscribe/transcriber-api/internal/services/pipeline"
	"github.com/audioscribe/transcriber-api/pkg/config"
	"github.com/audioscribe/transcriber-api/pkg/download"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB         *database.DB
	JobStore   jobstore.Service
	Pipeline   pipeline.Service
	Downloader *download.Downloader
	Config     *config.Config
}
