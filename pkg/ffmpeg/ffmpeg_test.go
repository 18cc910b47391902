package ffmpeg

import (
	"testing"
)

func TestParseSilenceDetect(t *testing.T) {
	stderr := `[silencedetect @ 0x7f8] silence_start: 12.345
[silencedetect @ 0x7f8] silence_end: 13.501 | silence_duration: 1.156
[silencedetect @ 0x7f8] silence_start: 40.2
[silencedetect @ 0x7f8] silence_end: 41.0 | silence_duration: 0.8
size=N/A time=00:01:00.00 bitrate=N/A speed= 512x`

	intervals := parseSilenceDetect(stderr, 60)
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(intervals))
	}

	if intervals[0].Start != 12.345 || intervals[0].End != 13.501 || intervals[0].Duration != 1.156 {
		t.Errorf("first interval = %+v", intervals[0])
	}
	if intervals[1].Start != 40.2 || intervals[1].End != 41.0 {
		t.Errorf("second interval = %+v", intervals[1])
	}
}

func TestParseSilenceDetectTrailingSilence(t *testing.T) {
	// silencedetect emits no silence_end when silence runs off the window
	stderr := `[silencedetect @ 0x7f8] silence_start: 55.5`

	intervals := parseSilenceDetect(stderr, 60)
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(intervals))
	}
	if intervals[0].End != 60 || intervals[0].Duration != 4.5 {
		t.Errorf("trailing interval = %+v, want end=60 duration=4.5", intervals[0])
	}
}

func TestParseSilenceDetectNegativeStartClamped(t *testing.T) {
	stderr := `[silencedetect @ 0x7f8] silence_start: -0.011
[silencedetect @ 0x7f8] silence_end: 0.6 | silence_duration: 0.611`

	intervals := parseSilenceDetect(stderr, 60)
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(intervals))
	}
	if intervals[0].Start != 0 {
		t.Errorf("start = %v, want clamped to 0", intervals[0].Start)
	}
}

func TestParseSilenceDetectEmpty(t *testing.T) {
	if got := parseSilenceDetect("frame=100 fps=0.0", 30); len(got) != 0 {
		t.Errorf("expected no intervals, got %+v", got)
	}
}

func TestIsCanonicalFormat(t *testing.T) {
	tests := []struct {
		format string
		want   bool
	}{
		{"mp3", true},
		{"wav", true},
		{"ogg", true},
		{"mov,mp4,m4a,3gp,3g2,mj2", false},
		{"matroska,webm", false},
	}
	for _, tt := range tests {
		if got := isCanonicalFormat(tt.format); got != tt.want {
			t.Errorf("isCanonicalFormat(%q) = %v, want %v", tt.format, got, tt.want)
		}
	}
}

func TestMimeTypeForFormat(t *testing.T) {
	if got := mimeTypeForFormat("mp3"); got != "audio/mpeg" {
		t.Errorf("mimeTypeForFormat(mp3) = %q", got)
	}
	if got := mimeTypeForFormat("mystery"); got != "application/octet-stream" {
		t.Errorf("mimeTypeForFormat(mystery) = %q", got)
	}
}

func TestValidateBinariesMissing(t *testing.T) {
	f := New("definitely-not-ffmpeg-binary", "definitely-not-ffprobe-binary", 0)
	if err := f.ValidateBinaries(); err == nil {
		t.Error("expected error for missing binaries")
	}
}
