package transcript

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

const timestampPattern = `\d{2,}:\d{2}:\d{2}\.\d{3}`

const maxDuration = time.Duration(math.MaxInt64)

var timestampRe = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2})\.(\d{3})$`)

// FormatTimestamp renders a second offset as HH:MM:SS.mmm. The sub-second part
// is truncated to milliseconds after quantizing to microseconds, so values such
// as 1.001 survive float error. Hours are not wrapped. Negative input is clamped
// to zero and values past the int64 microsecond range, +Inf included, saturate.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	micros := math.Round(seconds * 1e6)
	if micros >= math.MaxInt64 {
		return formatMillis(math.MaxInt64 / 1000)
	}
	return formatMillis(int64(micros) / 1000)
}

// FormatDuration renders d with the same layout as FormatTimestamp.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return formatMillis(d.Milliseconds())
}

func formatMillis(total int64) string {
	hours := total / 3_600_000
	minutes := (total / 60_000) % 60
	secs := (total / 1000) % 60
	millis := total % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
}

// ParseTimestamp parses an HH:MM:SS.mmm value. Hours beyond the time.Duration
// range saturate at the largest Duration.
func ParseTimestamp(value string) (time.Duration, error) {
	m := timestampRe.FindStringSubmatch(value)
	if m == nil {
		return 0, fmt.Errorf("parse timestamp %q: expected HH:MM:SS.mmm", value)
	}
	hours, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	minutes, _ := strconv.Atoi(m[2])
	secs, _ := strconv.Atoi(m[3])
	millis, _ := strconv.Atoi(m[4])
	if minutes > 59 || secs > 59 {
		return 0, fmt.Errorf("parse timestamp %q: minutes and seconds must be below 60", value)
	}
	if hours >= int64(maxDuration/time.Hour) {
		return maxDuration, nil
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(secs)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// FormatRange renders the bracketed range that prefixes an annotated segment.
func FormatRange(start, end float64) string {
	return "[" + FormatTimestamp(start) + " --> " + FormatTimestamp(end) + "]"
}
