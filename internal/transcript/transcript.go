package transcript

import (
	"strings"
	"time"
)

// Segment is one recognized utterance span.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Range returns the bracketed "[start --> end]" label for the segment.
func (s Segment) Range() string {
	return "[" + FormatDuration(s.Start) + " --> " + FormatDuration(s.End) + "]"
}

// Transcript is the result handed back to callers. When Timestamped is false the
// flattened Text is the answer; otherwise Segments is.
type Transcript struct {
	Text        string
	Segments    []Segment
	Timestamped bool
}

// SegmentsCopy returns a copy of the segments so callers cannot mutate the
// transcript they were given.
func (t Transcript) SegmentsCopy() []Segment {
	if len(t.Segments) == 0 {
		return []Segment{}
	}
	out := make([]Segment, len(t.Segments))
	copy(out, t.Segments)
	return out
}

// String renders the requested view: annotated text when timestamped, plain text otherwise.
func (t Transcript) String() string {
	if t.Timestamped {
		return Annotate(t.Segments)
	}
	return t.Text
}

// FromAnnotated derives a transcript view from the canonical annotated text.
func FromAnnotated(annotated string, timestamped bool) Transcript {
	segments := ParseAnnotated(annotated)
	return Transcript{
		Text:        PlainText(segments),
		Segments:    segments,
		Timestamped: timestamped,
	}
}

// PlainText joins segment texts with single spaces.
func PlainText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Annotate renders segments in the annotated form, one "[range]  text" block per
// line.
func Annotate(segments []Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(seg.Range())
		b.WriteString("  ")
		b.WriteString(strings.TrimSpace(seg.Text))
	}
	return b.String()
}
