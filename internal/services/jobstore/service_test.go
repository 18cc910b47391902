package jobstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioscribe/transcriber-api/internal/database"
	"github.com/audioscribe/transcriber-api/internal/models"
)

func newStore(t *testing.T, opts ...Option) Service {
	t.Helper()

	db, err := database.Initialize(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, db.MigrateAll())
	t.Cleanup(func() { db.Close() })

	return NewService(NewRepository(db.DB), opts...)
}

func testJob(id string, segmentCount int) *models.Job {
	job := &models.Job{
		ID:        id,
		FileName:  "talk.mp3",
		FileSize:  2048,
		Model:     "gemini-flash-latest",
		Timestamp: time.Now().UnixMilli(),
		Status:    models.JobStatusProcessing,
		Step:      models.JobStepTranscribe,
		TimeMap:   models.TimeMap{0},
	}
	for i := 0; i < segmentCount; i++ {
		job.Segments = append(job.Segments, models.Segment{
			JobID:    id,
			Index:    i,
			Blob:     []byte{byte(i)},
			MimeType: "audio/mpeg",
		})
		if i > 0 {
			job.TimeMap = append(job.TimeMap, float64(i)*300)
		}
	}
	return job
}

func TestCreateAndGetJob(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job := testJob("talk.mp3_2048_1_gemini-flash-latest", 3)
	require.NoError(t, store.CreateJob(ctx, job))

	fetched, err := store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, fetched.ID)
	assert.Len(t, fetched.Segments, 3)
	assert.Equal(t, models.TimeMap{0, 300, 600}, fetched.TimeMap)

	// Segments come back sorted by index with blobs intact
	for i, seg := range fetched.Segments {
		assert.Equal(t, i, seg.Index)
		assert.Equal(t, []byte{byte(i)}, seg.Blob)
	}
}

func TestGetJobNotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.GetJob(context.Background(), "missing.mp3_1_1_model")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestKeyValidation(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.GetJob(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidJobKey)

	_, err = store.GetJob(ctx, "not-a-job-key")
	assert.ErrorIs(t, err, ErrInvalidJobKey)

	err = store.CreateJob(ctx, &models.Job{ID: "bad"})
	assert.ErrorIs(t, err, ErrInvalidJobKey)
}

func TestSaveSegmentProgress(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job := testJob("talk.mp3_2048_2_gemini-flash-latest", 2)
	require.NoError(t, store.CreateJob(ctx, job))

	fetched, err := store.GetJob(ctx, job.ID)
	require.NoError(t, err)

	seg := &fetched.Segments[0]
	seg.Processed = true
	seg.Transcription = "[00:00:00:000-00:00:02:000] hello"
	require.NoError(t, store.SaveSegment(ctx, seg))

	reloaded, err := store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Segments[0].Processed)
	assert.Equal(t, seg.Transcription, reloaded.Segments[0].Transcription)
	assert.False(t, reloaded.Segments[1].Processed)
}

func TestCompleteJob(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job := testJob("talk.mp3_2048_3_gemini-flash-latest", 1)
	require.NoError(t, store.CreateJob(ctx, job))

	srt := "1\n00:00:00,000 --> 00:00:02,000\nhello\n"
	require.NoError(t, store.CompleteJob(ctx, job.ID, srt))

	fetched, err := store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, fetched.Status)
	assert.Equal(t, models.JobStepCompleted, fetched.Step)
	assert.Equal(t, srt, fetched.Result)
	assert.Nil(t, fetched.ClaimedAt)
}

func TestFailJob(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job := testJob("talk.mp3_2048_4_gemini-flash-latest", 1)
	require.NoError(t, store.CreateJob(ctx, job))

	jobErr := models.NewNetworkError("transcribe_failed", "transcription failed", "status 503", nil)
	require.NoError(t, store.FailJob(ctx, job.ID, jobErr))

	fetched, err := store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusError, fetched.Status)
	assert.Equal(t, "network", fetched.ErrorType)
	assert.Equal(t, "transcribe_failed", fetched.ErrorCode)
	assert.Equal(t, "transcription failed", fetched.Error)
}

func TestClaimJobLease(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job := testJob("talk.mp3_2048_5_gemini-flash-latest", 1)
	require.NoError(t, store.CreateJob(ctx, job))

	claimed, err := store.ClaimJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, claimed.ClaimedAt)

	// A second claim while the lease is fresh must be rejected
	_, err = store.ClaimJob(ctx, job.ID)
	assert.ErrorIs(t, err, ErrJobClaimed)

	// Releasing frees the lease for the next claim
	require.NoError(t, store.ReleaseJob(ctx, job.ID))
	_, err = store.ClaimJob(ctx, job.ID)
	assert.NoError(t, err)
}

func TestClaimJobStaleLease(t *testing.T) {
	store := newStore(t, WithLeaseExpiry(time.Nanosecond))
	ctx := context.Background()

	job := testJob("talk.mp3_2048_6_gemini-flash-latest", 1)
	require.NoError(t, store.CreateJob(ctx, job))

	_, err := store.ClaimJob(ctx, job.ID)
	require.NoError(t, err)

	// With a nanosecond lease expiry the first claim is already stale
	time.Sleep(time.Millisecond)
	_, err = store.ClaimJob(ctx, job.ID)
	assert.NoError(t, err, "stale lease should not block a new claim")
}

func TestListResumable(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	processing := testJob("a.mp3_1_1_model", 1)
	require.NoError(t, store.CreateJob(ctx, processing))

	errored := testJob("b.mp3_1_1_model", 1)
	errored.Status = models.JobStatusError
	require.NoError(t, store.CreateJob(ctx, errored))

	done := testJob("c.mp3_1_1_model", 1)
	done.Status = models.JobStatusCompleted
	require.NoError(t, store.CreateJob(ctx, done))

	resumable, err := store.ListResumable(ctx)
	require.NoError(t, err)
	assert.Len(t, resumable, 2)
	for _, j := range resumable {
		assert.True(t, j.IsResumable())
	}

	completed, err := store.ListByStatus(ctx, models.JobStatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, done.ID, completed[0].ID)
}

func TestDeleteJobRemovesSegments(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job := testJob("talk.mp3_2048_7_gemini-flash-latest", 2)
	require.NoError(t, store.CreateJob(ctx, job))
	require.NoError(t, store.DeleteJob(ctx, job.ID))

	_, err := store.GetJob(ctx, job.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)

	assert.ErrorIs(t, store.DeleteJob(ctx, job.ID), ErrJobNotFound)
}

func TestExpireStaleJobs(t *testing.T) {
	store := newStore(t, WithJobExpiry(time.Nanosecond))
	ctx := context.Background()

	job := testJob("talk.mp3_2048_8_gemini-flash-latest", 1)
	require.NoError(t, store.CreateJob(ctx, job))

	time.Sleep(time.Millisecond)
	expired, err := store.ExpireStaleJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	// The job and its segment blobs are gone, not flagged
	_, err = store.GetJob(ctx, job.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)

	resumable, err := store.ListResumable(ctx)
	require.NoError(t, err)
	assert.Empty(t, resumable)
}

func TestExpireSkipsErroredJobs(t *testing.T) {
	store := newStore(t, WithJobExpiry(time.Nanosecond))
	ctx := context.Background()

	job := testJob("talk.mp3_2048_12_gemini-flash-latest", 1)
	job.Status = models.JobStatusError
	require.NoError(t, store.CreateJob(ctx, job))

	time.Sleep(time.Millisecond)
	expired, err := store.ExpireStaleJobs(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)

	_, err = store.GetJob(ctx, job.ID)
	require.NoError(t, err)
}

func TestExpireSkipsFreshJobs(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job := testJob("talk.mp3_2048_9_gemini-flash-latest", 1)
	require.NoError(t, store.CreateJob(ctx, job))

	expired, err := store.ExpireStaleJobs(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
}
