package transcriptions

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioscribe/transcriber-api/api/types"
	"github.com/audioscribe/transcriber-api/internal/database"
	"github.com/audioscribe/transcriber-api/internal/models"
	"github.com/audioscribe/transcriber-api/internal/services/jobstore"
	"github.com/audioscribe/transcriber-api/internal/services/pipeline"
	"github.com/audioscribe/transcriber-api/internal/services/transcriber"
	"github.com/audioscribe/transcriber-api/pkg/config"
)

type stubPipeline struct {
	processCalls atomic.Int32
	resumeCalls  atomic.Int32
}

func (s *stubPipeline) Process(ctx context.Context, source pipeline.Source, model string, onProgress transcriber.ProgressFunc) (*models.Job, error) {
	s.processCalls.Add(1)
	return &models.Job{ID: models.NewJobID(source.Name, source.Size, source.LastModified, model)}, nil
}

func (s *stubPipeline) Resume(ctx context.Context, jobID string, onProgress transcriber.ProgressFunc) (*models.Job, error) {
	s.resumeCalls.Add(1)
	return &models.Job{ID: jobID}, nil
}

func setupRouter(t *testing.T) (*gin.Engine, jobstore.Service, *stubPipeline) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Initialize(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, db.MigrateAll())
	t.Cleanup(func() { db.Close() })

	store := jobstore.NewService(jobstore.NewRepository(db.DB))
	pipe := &stubPipeline{}

	cfg := &config.Config{}
	cfg.Storage.TempDir = t.TempDir()
	cfg.Transcription.Model = "gemini-flash-latest"

	deps := &types.Dependencies{
		DB:       db,
		JobStore: store,
		Pipeline: pipe,
		Config:   cfg,
	}

	router := gin.New()
	group := router.Group("/api/v1/transcriptions")
	RegisterRoutes(group, deps)
	return router, store, pipe
}

func seedJob(t *testing.T, store jobstore.Service, id string, status models.JobStatus) *models.Job {
	t.Helper()

	job := &models.Job{
		ID:       id,
		FileName: "lecture.mp3",
		FileSize: 2048,
		Model:    "gemini-flash-latest",
		Status:   status,
		Step:     models.JobStepTranscribe,
		TimeMap:  models.TimeMap{0, 300},
		Segments: []models.Segment{
			{JobID: id, Index: 0, Blob: []byte{1}, MimeType: "audio/mpeg", Processed: true, Transcription: "[00:00:01:000-00:00:02:000] a"},
			{JobID: id, Index: 1, Blob: []byte{2}, MimeType: "audio/mpeg"},
		},
	}
	if status == models.JobStatusCompleted {
		job.Step = models.JobStepCompleted
		job.Result = "1\n00:00:01,000 --> 00:00:02,000\na\n"
		for i := range job.Segments {
			job.Segments[i].Processed = true
		}
	}
	require.NoError(t, store.CreateJob(context.Background(), job))
	return job
}

func TestGetJobDetail(t *testing.T) {
	router, store, _ := setupRouter(t)
	job := seedJob(t, store, "lecture.mp3_2048_1_gemini-flash-latest", models.JobStatusProcessing)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/transcriptions/"+job.ID, nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp types.JobDetailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, job.ID, resp.Job.ID)
	assert.Equal(t, 2, resp.Job.SegmentCount)
	assert.Equal(t, 1, resp.Job.ProcessedCount)
	assert.Nil(t, resp.Job.Stats, "stats only appear on completed jobs")
}

func TestGetJobNotFound(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/transcriptions/missing.mp3_1_1_model", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJobInvalidID(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/transcriptions/garbage", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCompletedJobIncludesStats(t *testing.T) {
	router, store, _ := setupRouter(t)
	job := seedJob(t, store, "lecture.mp3_2048_2_gemini-flash-latest", models.JobStatusCompleted)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/transcriptions/"+job.ID, nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp types.JobDetailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Job.Stats)
	assert.Equal(t, 1, resp.Job.Stats.CueCount)
	assert.InDelta(t, 2.0, resp.Job.Stats.Duration, 0.001)
}

func TestListJobs(t *testing.T) {
	router, store, _ := setupRouter(t)
	seedJob(t, store, "a.mp3_1_1_model", models.JobStatusProcessing)
	seedJob(t, store, "b.mp3_1_1_model", models.JobStatusCompleted)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/transcriptions", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp types.JobListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestListResumableOnly(t *testing.T) {
	router, store, _ := setupRouter(t)
	seedJob(t, store, "a.mp3_1_1_model", models.JobStatusProcessing)
	seedJob(t, store, "b.mp3_1_1_model", models.JobStatusCompleted)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/transcriptions?resumable=true", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp types.JobListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "a.mp3_1_1_model", resp.Jobs[0].ID)
}

func TestDownloadCompletedJob(t *testing.T) {
	router, store, _ := setupRouter(t)
	job := seedJob(t, store, "lecture.mp3_2048_3_gemini-flash-latest", models.JobStatusCompleted)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/transcriptions/"+job.ID+"/download", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), `"lecture.srt"`)
	assert.Contains(t, w.Body.String(), "00:00:01,000 --> 00:00:02,000")
}

func TestDownloadIncompleteJobConflict(t *testing.T) {
	router, store, _ := setupRouter(t)
	job := seedJob(t, store, "lecture.mp3_2048_4_gemini-flash-latest", models.JobStatusProcessing)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/transcriptions/"+job.ID+"/download", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestResumeErroredJob(t *testing.T) {
	router, store, pipe := setupRouter(t)
	job := seedJob(t, store, "lecture.mp3_2048_5_gemini-flash-latest", models.JobStatusError)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/transcriptions/"+job.ID+"/resume", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	// Resume runs in the background
	assert.Eventually(t, func() bool { return pipe.resumeCalls.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestResumeCompletedJobConflict(t *testing.T) {
	router, store, pipe := setupRouter(t)
	job := seedJob(t, store, "lecture.mp3_2048_6_gemini-flash-latest", models.JobStatusCompleted)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/transcriptions/"+job.ID+"/resume", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, pipe.resumeCalls.Load())
}

func TestDeleteJob(t *testing.T) {
	router, store, _ := setupRouter(t)
	job := seedJob(t, store, "lecture.mp3_2048_7_gemini-flash-latest", models.JobStatusCompleted)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/api/v1/transcriptions/"+job.ID, nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	_, err := store.GetJob(context.Background(), job.ID)
	assert.ErrorIs(t, err, jobstore.ErrJobNotFound)
}

func TestCreateUploadAccepted(t *testing.T) {
	router, _, pipe := setupRouter(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "talk.mp3")
	require.NoError(t, err)
	_, err = part.Write([]byte("audio bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("model", "gemini-pro"))
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/transcriptions", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp types.JobQueuedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.NewJobID("talk.mp3", 11, 0, "gemini-pro"), resp.JobID)
	assert.Equal(t, types.StatusQueued, resp.Status)

	assert.Eventually(t, func() bool { return pipe.processCalls.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestCreateMissingFile(t *testing.T) {
	router, _, _ := setupRouter(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/transcriptions", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateInvalidURL(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/transcriptions",
		strings.NewReader(`{"url":"ftp://example.com/a.mp3"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
