package transcriber

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioscribe/transcriber-api/internal/database"
	"github.com/audioscribe/transcriber-api/internal/models"
	"github.com/audioscribe/transcriber-api/internal/services/engine"
	"github.com/audioscribe/transcriber-api/internal/services/jobstore"
	"github.com/audioscribe/transcriber-api/pkg/config"
)

type fakeEngine struct {
	uploadCalls     int
	transcribeCalls int
	uploadFails     int // fail this many uploads before succeeding
	transcribeFails int
	uploadErr       error
	transcribeErr   error
	text            string
}

func (f *fakeEngine) Upload(ctx context.Context, data []byte, mimeType string) (engine.FileHandle, error) {
	f.uploadCalls++
	if f.uploadErr != nil {
		return engine.FileHandle{}, f.uploadErr
	}
	if f.uploadCalls <= f.uploadFails {
		return engine.FileHandle{}, errors.New("upload hiccup")
	}
	return engine.FileHandle{Name: "files/ok", URI: "uri://ok", MimeType: mimeType, State: "ACTIVE"}, nil
}

func (f *fakeEngine) Transcribe(ctx context.Context, file engine.FileHandle, model, prompt string) (string, error) {
	f.transcribeCalls++
	if f.transcribeErr != nil {
		return "", f.transcribeErr
	}
	if f.transcribeCalls <= f.transcribeFails {
		return "", errors.New("transcribe hiccup")
	}
	if f.text != "" {
		return f.text, nil
	}
	return "[00:00:00:000-00:00:02:000] hello", nil
}

func setup(t *testing.T, eng engine.Service, maxRetries int) (Service, jobstore.Service) {
	t.Helper()

	db, err := database.Initialize(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, db.MigrateAll())
	t.Cleanup(func() { db.Close() })

	store := jobstore.NewService(jobstore.NewRepository(db.DB))
	driver := NewService(eng, store, config.TranscriptionConfig{
		Model:      "gemini-flash-latest",
		MaxRetries: maxRetries,
		RetryDelay: time.Millisecond,
	})
	return driver, store
}

func seededJob(t *testing.T, store jobstore.Service, segmentCount int) *models.Job {
	t.Helper()

	job := &models.Job{
		ID:       "talk.mp3_100_1_gemini-flash-latest",
		FileName: "talk.mp3",
		Model:    "gemini-flash-latest",
		Status:   models.JobStatusProcessing,
		Step:     models.JobStepTranscribe,
		TimeMap:  models.TimeMap{0},
	}
	for i := 0; i < segmentCount; i++ {
		job.Segments = append(job.Segments, models.Segment{
			JobID: job.ID, Index: i, Blob: []byte{byte(i)}, MimeType: "audio/mpeg",
		})
		if i > 0 {
			job.TimeMap = append(job.TimeMap, float64(i)*300)
		}
	}
	require.NoError(t, store.CreateJob(context.Background(), job))

	fetched, err := store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	return fetched
}

func TestRunSegmentsProcessesInOrder(t *testing.T) {
	eng := &fakeEngine{}
	driver, store := setup(t, eng, 4)
	job := seededJob(t, store, 3)

	var progress []string
	err := driver.RunSegments(context.Background(), job, func(msg string) {
		progress = append(progress, msg)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, eng.uploadCalls)
	assert.Equal(t, 3, eng.transcribeCalls)
	assert.Equal(t, []string{
		"uploading segment 1/3", "transcribing segment 1/3",
		"uploading segment 2/3", "transcribing segment 2/3",
		"uploading segment 3/3", "transcribing segment 3/3",
	}, progress)

	// Every segment's progress is durable
	reloaded, err := store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	for _, seg := range reloaded.Segments {
		assert.True(t, seg.Processed)
		assert.NotEmpty(t, seg.Transcription)
		assert.Equal(t, "files/ok", seg.UploadedFileID)
	}
}

func TestRunSegmentsSkipsProcessed(t *testing.T) {
	eng := &fakeEngine{}
	driver, store := setup(t, eng, 4)
	job := seededJob(t, store, 2)

	// Simulate a previous run that finished segment 0
	job.Segments[0].Processed = true
	job.Segments[0].Transcription = "[00:00:00:000-00:00:01:000] done"
	require.NoError(t, store.SaveSegment(context.Background(), &job.Segments[0]))

	err := driver.RunSegments(context.Background(), job, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, eng.uploadCalls, "processed segment must not be re-uploaded")
	assert.Equal(t, 1, eng.transcribeCalls, "processed segment must not be re-transcribed")

	reloaded, err := store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "[00:00:00:000-00:00:01:000] done", reloaded.Segments[0].Transcription)
}

func TestRunSegmentsRetriesTransientFailures(t *testing.T) {
	eng := &fakeEngine{uploadFails: 2, transcribeFails: 1}
	driver, store := setup(t, eng, 4)
	job := seededJob(t, store, 1)

	err := driver.RunSegments(context.Background(), job, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, eng.uploadCalls, "two failures then success")
	assert.Equal(t, 2, eng.transcribeCalls, "one failure then success")
}

func TestRunSegmentsFailStopAfterExhaustion(t *testing.T) {
	eng := &fakeEngine{transcribeErr: errors.New("persistent 503")}
	driver, store := setup(t, eng, 4)
	job := seededJob(t, store, 3)

	err := driver.RunSegments(context.Background(), job, nil)
	require.Error(t, err)

	// maxRetries 4 means exactly 5 attempts, then stop
	assert.Equal(t, 5, eng.transcribeCalls)
	assert.Equal(t, 1, eng.uploadCalls, "later segments must not be attempted")

	var jobErr *models.StructuredJobError
	require.ErrorAs(t, err, &jobErr)
	assert.Equal(t, models.ErrorTypeNetwork, jobErr.Type)
	assert.Equal(t, "transcribe_failed", jobErr.Code)
}

func TestRunSegmentsContextCancellation(t *testing.T) {
	eng := &fakeEngine{uploadErr: errors.New("unreachable")}
	driver, store := setup(t, eng, 10)
	job := seededJob(t, store, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := driver.RunSegments(ctx, job, nil)
	require.Error(t, err)
	assert.LessOrEqual(t, eng.uploadCalls, 1, "cancelled context must stop retrying")
}
