package segmenter

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/audioscribe/transcriber-api/internal/models"
	"github.com/audioscribe/transcriber-api/pkg/config"
	"github.com/audioscribe/transcriber-api/pkg/ffmpeg"
)

type service struct {
	analyzer AudioAnalyzer
	tempDir  string

	segmentDuration    float64
	searchRange        float64
	silenceThreshold   float64
	minSilenceDuration float64
}

// NewService creates a segmenter using the given analyzer and tuning
func NewService(analyzer AudioAnalyzer, tempDir string, cfg config.SegmenterConfig) Service {
	return &service{
		analyzer:           analyzer,
		tempDir:            tempDir,
		segmentDuration:    cfg.SegmentDuration,
		searchRange:        cfg.SearchRange,
		silenceThreshold:   cfg.SilenceThreshold,
		minSilenceDuration: cfg.MinSilenceDuration,
	}
}

// Split divides the audio at silence boundaries near each segment duration
// multiple. Audio that fits in one segment is returned whole without any
// FFmpeg cutting.
func (s *service) Split(ctx context.Context, audioPath string, mimeType string) (*SplitResult, error) {
	meta, err := s.analyzer.GetMetadata(ctx, audioPath)
	if err != nil {
		return nil, models.NewInputError("probe_failed",
			"failed to read audio metadata", err.Error(), err)
	}

	duration := meta.Duration
	if duration <= s.segmentDuration {
		data, err := os.ReadFile(audioPath)
		if err != nil {
			return nil, models.NewInputError("read_failed",
				"failed to read audio file", err.Error(), err)
		}
		return &SplitResult{
			Segments: []SegmentData{{Data: data, MimeType: mimeType}},
			TimeMap:  []float64{0},
			Duration: duration,
			Split:    false,
		}, nil
	}

	cuts := s.findCutPoints(ctx, audioPath, duration)
	log.Printf("[DEBUG] Splitting %s (%.1fs) into %d segment(s)", filepath.Base(audioPath), duration, len(cuts)+1)

	segments, err := s.extractSegments(ctx, audioPath, cuts, mimeType)
	if err != nil {
		return nil, err
	}

	timeMap := append([]float64{0}, cuts...)
	return &SplitResult{
		Segments: segments,
		TimeMap:  timeMap,
		Duration: duration,
		Split:    true,
	}, nil
}

// findCutPoints returns one strictly increasing cut per segment duration
// multiple below the total duration
func (s *service) findCutPoints(ctx context.Context, audioPath string, duration float64) []float64 {
	var cuts []float64
	prevCut := 0.0

	for target := s.segmentDuration; target < duration; target += s.segmentDuration {
		windowStart := target - s.searchRange
		if windowStart < prevCut {
			windowStart = prevCut
		}
		windowEnd := target + s.searchRange
		if windowEnd > duration {
			windowEnd = duration
		}

		cut := s.pickCut(ctx, audioPath, target, windowStart, windowEnd)
		if cut <= prevCut {
			cut = target
		}
		if cut >= duration {
			break
		}

		cuts = append(cuts, cut)
		prevCut = cut
	}

	return cuts
}

// pickCut finds the midpoint of the longest silence in the window. No
// silence means the raw target; a failed detection falls back to the
// window midpoint so one bad window never aborts the whole split.
func (s *service) pickCut(ctx context.Context, audioPath string, target, windowStart, windowEnd float64) float64 {
	intervals, err := s.analyzer.DetectSilence(ctx, audioPath, windowStart, windowEnd,
		s.silenceThreshold, s.minSilenceDuration)
	if err != nil {
		log.Printf("[WARN] Silence detection failed near %.1fs, cutting at window midpoint: %v", target, err)
		return (windowStart + windowEnd) / 2
	}

	if len(intervals) == 0 {
		return target
	}

	best := intervals[0]
	for _, iv := range intervals[1:] {
		if iv.Duration > best.Duration {
			best = iv
		}
	}

	// Interval times are window-local
	return windowStart + (best.Start+best.End)/2
}

// extractSegments cuts the audio at each cut point with stream copy
func (s *service) extractSegments(ctx context.Context, audioPath string, cuts []float64, mimeType string) ([]SegmentData, error) {
	bounds := append([]float64{0}, cuts...)
	ext := filepath.Ext(audioPath)

	segments := make([]SegmentData, 0, len(bounds))
	for i, start := range bounds {
		end := 0.0 // to end of file
		if i+1 < len(bounds) {
			end = bounds[i+1]
		}

		outPath := filepath.Join(s.tempDir, fmt.Sprintf("segment_%d_%d%s", os.Getpid(), i, ext))
		if err := s.analyzer.ExtractCopy(ctx, audioPath, start, end, outPath); err != nil {
			return nil, models.NewSegmentationError("extract_failed",
				fmt.Sprintf("failed to extract segment %d", i), err.Error(), err)
		}

		data, err := os.ReadFile(outPath)
		os.Remove(outPath)
		if err != nil {
			return nil, models.NewSegmentationError("read_failed",
				fmt.Sprintf("failed to read segment %d", i), err.Error(), err)
		}

		segments = append(segments, SegmentData{Data: data, MimeType: mimeType})
	}

	return segments, nil
}

var _ AudioAnalyzer = (*ffmpeg.FFmpeg)(nil)
