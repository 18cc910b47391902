package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewJobID(t *testing.T) {
	id := NewJobID("my talk.mp3", 1024, 1700000000000, "gemini-flash-latest")
	want := "my+talk.mp3_1024_1700000000000_gemini-flash-latest"
	if id != want {
		t.Errorf("NewJobID = %q, want %q", id, want)
	}

	// Same inputs must always derive the same ID
	if NewJobID("my talk.mp3", 1024, 1700000000000, "gemini-flash-latest") != id {
		t.Error("expected deterministic job ID")
	}

	// Different model yields a different job
	other := NewJobID("my talk.mp3", 1024, 1700000000000, "gemini-pro")
	if other == id {
		t.Error("expected model to be part of job identity")
	}
}

func TestNewJobIDEscapesModel(t *testing.T) {
	id := NewJobID("talk.mp3", 10, 20, "models/gemini 2.5")
	want := "talk.mp3_10_20_models%2Fgemini+2.5"
	if id != want {
		t.Errorf("NewJobID = %q, want %q", id, want)
	}
}

func TestTimeMapRoundTrip(t *testing.T) {
	m := TimeMap{0, 299.5, 601.2}

	value, err := m.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var restored TimeMap
	if err := restored.Scan(value); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(restored) != 3 || restored[0] != 0 || restored[1] != 299.5 || restored[2] != 601.2 {
		t.Errorf("round trip mismatch: %v", restored)
	}
}

func TestTimeMapScanNil(t *testing.T) {
	var m TimeMap
	if err := m.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil TimeMap, got %v", m)
	}
}

func TestTimeMapScanString(t *testing.T) {
	// SQLite sometimes hands JSON columns back as string
	var m TimeMap
	if err := m.Scan("[0,300]"); err != nil {
		t.Fatalf("Scan(string) failed: %v", err)
	}
	if len(m) != 2 || m[1] != 300 {
		t.Errorf("unexpected TimeMap: %v", m)
	}
}

func TestJobIsResumable(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   bool
	}{
		{JobStatusProcessing, true},
		{JobStatusError, true},
		{JobStatusCompleted, false},
	}

	for _, tt := range tests {
		j := &Job{Status: tt.status}
		if got := j.IsResumable(); got != tt.want {
			t.Errorf("IsResumable with status %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestAllSegmentsProcessed(t *testing.T) {
	j := &Job{}
	if j.AllSegmentsProcessed() {
		t.Error("job with no segments should not count as processed")
	}

	j.Segments = []Segment{
		{Index: 0, Processed: true},
		{Index: 1, Processed: false},
	}
	if j.AllSegmentsProcessed() {
		t.Error("expected false with one unprocessed segment")
	}

	j.Segments[1].Processed = true
	if !j.AllSegmentsProcessed() {
		t.Error("expected true with all segments processed")
	}
}

func TestSetAndClearError(t *testing.T) {
	j := &Job{Status: JobStatusProcessing}
	j.SetErrorDetails(ErrorTypeNetwork, "upload_failed", "upload failed", "status 503")

	if j.Status != JobStatusError {
		t.Errorf("expected error status, got %s", j.Status)
	}
	if j.ErrorType != "network" || j.ErrorCode != "upload_failed" {
		t.Errorf("error classification not set: %+v", j)
	}

	j.ClearError()
	if j.Status != JobStatusProcessing || j.Error != "" || j.ErrorType != "" {
		t.Errorf("expected clean job after ClearError: %+v", j)
	}
}

func TestStructuredJobErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := NewNetworkError("transcribe_failed", "transcription failed", "", inner)

	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to expose the original error")
	}
	if err.Error() != "transcription failed" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestJobJSONOmitsBlob(t *testing.T) {
	j := Job{
		ID:       "test_1_1_model",
		FileName: "test.mp3",
		Segments: []Segment{{Index: 0, Blob: []byte{0x01, 0x02}, MimeType: "audio/mpeg"}},
	}

	data, err := json.Marshal(j)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	segs := decoded["segments"].([]interface{})
	seg := segs[0].(map[string]interface{})
	if _, present := seg["Blob"]; present {
		t.Error("segment blob must not leak into JSON responses")
	}
	if _, present := seg["blob"]; present {
		t.Error("segment blob must not leak into JSON responses")
	}
}

func TestClaimedAtLease(t *testing.T) {
	now := time.Now()
	j := &Job{Status: JobStatusProcessing, ClaimedAt: &now}

	if j.ClaimedAt == nil {
		t.Fatal("expected lease to be set")
	}
}
