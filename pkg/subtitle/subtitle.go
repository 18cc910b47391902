// Package subtitle merges per-segment raw transcripts into one timeline and
// serializes the result to SubRip format.
//
// Raw transcripts carry bracketed ranges of the form
// "[<start>-<end>] text"; start and end are flexible timecodes handled by
// pkg/timecode. Segment texts use timestamps local to their own audio chunk,
// so merging shifts every bracket by the segment's start offset in the
// original recording before concatenation.
package subtitle

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/audioscribe/transcriber-api/pkg/timecode"
)

var (
	bracketRe = regexp.MustCompile(`\[([^\]]*?)\]`)
	cueLineRe = regexp.MustCompile(`^\[(.+?)-(.+?)\]\s*(.+)$`)
	srtTimeRe = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2}),(\d{3})`)
)

// SegmentResult is one segment's raw transcription, tagged with the segment
// index it belongs to.
type SegmentResult struct {
	Index int
	Text  string
}

// AdjustTimestamps shifts every bracketed [start-end] range in rawText
// forward by offsetSeconds. Brackets that do not contain two parseable
// timecodes are left exactly as written.
func AdjustTimestamps(rawText string, offsetSeconds float64) string {
	if rawText == "" || offsetSeconds == 0 {
		return rawText
	}

	return bracketRe.ReplaceAllStringFunc(rawText, func(match string) string {
		inner := match[1 : len(match)-1]
		startStr, endStr, ok := strings.Cut(inner, "-")
		if !ok {
			return match
		}

		start, err := timecode.Parse(startStr)
		if err != nil {
			return match
		}
		end, err := timecode.Parse(endStr)
		if err != nil {
			return match
		}

		start = timecode.Shift(start, offsetSeconds)
		end = timecode.Shift(end, offsetSeconds)
		return "[" + timecode.Format(start) + "-" + timecode.Format(end) + "]"
	})
}

// MergeSegments rebuilds a single raw transcript from per-segment results.
// Results are consumed in segment-index order; empty texts are skipped
// without a placeholder. Each segment's brackets are shifted by that
// segment's entry in timeMap (seconds from the start of the original audio).
func MergeSegments(results []SegmentResult, timeMap []float64) string {
	adjusted := make([]string, 0, len(results))

	for _, result := range results {
		if result.Text == "" {
			continue
		}

		var offset float64
		if result.Index >= 0 && result.Index < len(timeMap) {
			offset = timeMap[result.Index]
		}

		adjusted = append(adjusted, AdjustTimestamps(result.Text, offset))
	}

	return strings.Join(adjusted, "\n")
}

// ToSRT converts a merged raw transcript to SubRip text. Lines that match
// the bracketed cue shape become numbered cues in order of appearance; other
// lines are dropped. If nothing matches, the trimmed input is returned
// verbatim so a plain-text transcription is never silently emptied.
func ToSRT(rawText string) string {
	if rawText == "" {
		return ""
	}
	if !IsSubtitleText(rawText) {
		return strings.TrimSpace(rawText)
	}

	var cues []string
	idx := 1

	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := cueLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		start, err := timecode.Parse(m[1])
		if err != nil {
			continue
		}
		end, err := timecode.Parse(m[2])
		if err != nil {
			continue
		}

		cues = append(cues, fmt.Sprintf("%d\n%s --> %s\n%s\n",
			idx, timecode.FormatSRT(start), timecode.FormatSRT(end), m[3]))
		idx++
	}

	if len(cues) == 0 {
		return strings.TrimSpace(rawText)
	}
	return strings.TrimSpace(strings.Join(cues, "\n"))
}

// IsSubtitleText reports whether at least one line of text carries the
// bracketed cue shape.
func IsSubtitleText(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if cueLineRe.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

// Stats summarizes a serialized SRT document.
type Stats struct {
	LineCount int     `json:"line_count"`
	CueCount  int     `json:"cue_count"`
	Duration  float64 `json:"duration"` // seconds covered by the last cue end
}

// GetStats scans SRT text and reports cue count and covered duration.
func GetStats(srtText string) Stats {
	var stats Stats
	if srtText == "" {
		return stats
	}

	for _, line := range strings.Split(srtText, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.LineCount++

		m := srtTimeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		stats.CueCount++

		end := timecode.Timecode{
			Hours:        atoi(m[5]),
			Minutes:      atoi(m[6]),
			Seconds:      atoi(m[7]),
			Milliseconds: atoi(m[8]),
		}
		if sec := end.TotalSeconds(); sec > stats.Duration {
			stats.Duration = sec
		}
	}

	return stats
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
