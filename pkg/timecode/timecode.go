// Package timecode parses, shifts and formats the flexible bracketed
// timecodes emitted by the transcription engine.
//
// The engine is prompted to write timestamps as colon separated fields read
// right to left: milliseconds, seconds, minutes, hours. Leading fields may be
// omitted, so "5:30:250", "30:250" and "00:05:30:250" are all valid.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Timecode is a parsed timestamp. Fields are not bounds-checked against each
// other; "90" is a valid seconds value and carries into minutes only when the
// timecode is shifted.
type Timecode struct {
	Hours        int
	Minutes      int
	Seconds      int
	Milliseconds int
}

// Parse parses a flexible timecode string. Between two and four colon
// separated numeric fields are accepted. The last field is milliseconds and
// is scaled by its digit count: one digit means tenths ("5" -> 500ms), two
// digits hundredths ("60" -> 600ms), three digits are taken as-is.
func Parse(s string) (Timecode, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 4 {
		return Timecode{}, fmt.Errorf("timecode %q: expected 2-4 fields, got %d", s, len(parts))
	}

	fields := make([]int, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Timecode{}, fmt.Errorf("timecode %q: invalid field %q", s, p)
		}
		fields[i] = n
	}

	tc := Timecode{
		Milliseconds: scaleMilliseconds(strings.TrimSpace(parts[len(parts)-1]), fields[len(fields)-1]),
		Seconds:      fields[len(fields)-2],
	}
	if len(fields) >= 3 {
		tc.Minutes = fields[len(fields)-3]
	}
	if len(fields) == 4 {
		tc.Hours = fields[0]
	}
	return tc, nil
}

// scaleMilliseconds pads short millisecond fields up to three digits worth of
// precision: "5" -> 500, "60" -> 600, "123" -> 123.
func scaleMilliseconds(raw string, value int) int {
	switch len(raw) {
	case 1:
		return value * 100
	case 2:
		return value * 10
	default:
		return value
	}
}

// Shift moves a timecode forward by offsetSeconds. The hours, minutes and
// seconds fields are recomputed from the total; the milliseconds field is
// carried over untouched, matching the engine's own timestamp arithmetic.
func Shift(tc Timecode, offsetSeconds float64) Timecode {
	total := tc.Hours*3600 + tc.Minutes*60 + tc.Seconds + int(offsetSeconds)
	if total < 0 {
		total = 0
	}
	return Timecode{
		Hours:        total / 3600,
		Minutes:      (total % 3600) / 60,
		Seconds:      total % 60,
		Milliseconds: tc.Milliseconds,
	}
}

// Format renders a timecode in the bracketed-transcript form HH:MM:SS:mmm.
func Format(tc Timecode) string {
	return fmt.Sprintf("%02d:%02d:%02d:%03d", clampZero(tc.Hours), clampZero(tc.Minutes), clampZero(tc.Seconds), clampZero(tc.Milliseconds))
}

// FormatSRT renders a timecode in the SubRip form HH:MM:SS,mmm.
func FormatSRT(tc Timecode) string {
	return fmt.Sprintf("%02d:%02d:%02d,%03d", clampZero(tc.Hours), clampZero(tc.Minutes), clampZero(tc.Seconds), clampZero(tc.Milliseconds))
}

// TotalSeconds returns the timecode as fractional seconds.
func (tc Timecode) TotalSeconds() float64 {
	return float64(tc.Hours*3600+tc.Minutes*60+tc.Seconds) + float64(tc.Milliseconds)/1000
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
