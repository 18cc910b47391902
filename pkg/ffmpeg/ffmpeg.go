// Package ffmpeg wraps the ffmpeg and ffprobe binaries for the operations
// the transcription pipeline needs: normalizing arbitrary media to a small
// mono MP3, probing duration, detecting silence windows, and cutting
// segments without re-encoding.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Container formats the transcription engine accepts directly; inputs in one
// of these skip the normalize transcode entirely.
var canonicalFormats = map[string]bool{
	"mp3":  true,
	"wav":  true,
	"aac":  true,
	"ogg":  true,
	"flac": true,
	"aiff": true,
}

// FFmpeg wraps ffmpeg and ffprobe functionality
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// New creates a new FFmpeg instance
func New(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
	}
}

// ValidateBinaries checks if ffmpeg and ffprobe are available
func (f *FFmpeg) ValidateBinaries() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}
	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, f.ffprobePath)
	}
	return nil
}

// Normalize converts any audio or video input into the canonical upload
// encoding: 16 kHz mono MP3 at 16 kbps. Inputs already in a supported audio
// container are returned as-is so short, well-formed files pay no transcode
// cost.
func (f *FFmpeg) Normalize(ctx context.Context, inputPath string, options ProcessingOptions) (*NormalizeResult, error) {
	metadata, err := f.GetMetadata(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	if options.MaxDuration > 0 && time.Duration(metadata.Duration)*time.Second > options.MaxDuration {
		return nil, fmt.Errorf("%w: duration %.1fs exceeds limit %.1fs",
			ErrAudioTooLong, metadata.Duration, options.MaxDuration.Seconds())
	}

	baseName := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	if isCanonicalFormat(metadata.Format) {
		return &NormalizeResult{
			Path:     inputPath,
			Name:     filepath.Base(inputPath),
			MimeType: mimeTypeForFormat(metadata.Format),
			Copied:   true,
		}, nil
	}

	outputPath := filepath.Join(options.TempDir, "normalized_"+baseName+".mp3")
	args := []string{
		"-i", inputPath,
		"-vn", // Drop any video stream
		"-c:a", "libmp3lame",
		"-ac", "1",
		"-ar", "16000",
		"-b:a", "16k",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, NewProcessingError("normalize", inputPath, err, stderr.String())
	}

	return &NormalizeResult{
		Path:     outputPath,
		Name:     baseName + ".mp3",
		MimeType: "audio/mpeg",
		Copied:   false,
	}, nil
}

// DetectSilence runs ffmpeg's silencedetect filter over the window
// [windowStart, windowEnd] of the input. Returned intervals are in
// window-local time, matching the -ss seek origin; callers translate them
// to absolute time themselves.
func (f *FFmpeg) DetectSilence(ctx context.Context, inputPath string, windowStart, windowEnd, thresholdDB, minSilenceDuration float64) ([]SilenceInterval, error) {
	args := []string{
		"-ss", formatSeconds(windowStart),
		"-to", formatSeconds(windowEnd),
		"-i", inputPath,
		"-af", fmt.Sprintf("silencedetect=noise=%gdB:d=%g", thresholdDB, minSilenceDuration),
		"-f", "null",
		"-",
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, NewProcessingError("silence_detection", inputPath, err, stderr.String())
	}

	return parseSilenceDetect(stderr.String(), windowEnd-windowStart), nil
}

// ExtractCopy cuts [startSec, endSec) out of the input into outputPath
// using stream copy, so no quality is lost and the cut is cheap. An endSec
// of zero or less means "through the end of the file".
func (f *FFmpeg) ExtractCopy(ctx context.Context, inputPath string, startSec, endSec float64, outputPath string) error {
	args := []string{
		"-i", inputPath,
		"-ss", formatSeconds(startSec),
	}
	if endSec > 0 {
		args = append(args, "-to", formatSeconds(endSec))
	}
	args = append(args,
		"-c", "copy",
		"-y",
		outputPath,
	)

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return NewProcessingError("segment_extraction", inputPath, err, stderr.String())
	}
	return nil
}

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[\d.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?[\d.]+)\s*\|\s*silence_duration:\s*([\d.]+)`)
)

// parseSilenceDetect extracts intervals from silencedetect's stderr log.
// A trailing silence_start with no matching silence_end means silence ran to
// the end of the window; it is closed at windowLen.
func parseSilenceDetect(stderr string, windowLen float64) []SilenceInterval {
	var intervals []SilenceInterval
	var pendingStart *float64

	for _, line := range strings.Split(stderr, "\n") {
		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			start, err := strconv.ParseFloat(m[1], 64)
			if err == nil {
				if start < 0 {
					start = 0
				}
				pendingStart = &start
			}
			continue
		}

		if m := silenceEndRe.FindStringSubmatch(line); m != nil && pendingStart != nil {
			end, err1 := strconv.ParseFloat(m[1], 64)
			duration, err2 := strconv.ParseFloat(m[2], 64)
			if err1 == nil && err2 == nil {
				intervals = append(intervals, SilenceInterval{
					Start:    *pendingStart,
					End:      end,
					Duration: duration,
				})
			}
			pendingStart = nil
		}
	}

	if pendingStart != nil && windowLen > *pendingStart {
		intervals = append(intervals, SilenceInterval{
			Start:    *pendingStart,
			End:      windowLen,
			Duration: windowLen - *pendingStart,
		})
	}

	return intervals
}

func isCanonicalFormat(format string) bool {
	// ffprobe reports compound demuxer names like "ogg" or "mov,mp4,m4a,3gp,3g2,mj2"
	for _, part := range strings.Split(format, ",") {
		if canonicalFormats[strings.TrimSpace(part)] {
			return true
		}
	}
	return false
}

func mimeTypeForFormat(format string) string {
	switch {
	case strings.Contains(format, "mp3"):
		return "audio/mpeg"
	case strings.Contains(format, "wav"):
		return "audio/wav"
	case strings.Contains(format, "aac"):
		return "audio/aac"
	case strings.Contains(format, "ogg"):
		return "audio/ogg"
	case strings.Contains(format, "flac"):
		return "audio/flac"
	case strings.Contains(format, "aiff"):
		return "audio/aiff"
	default:
		return "application/octet-stream"
	}
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
