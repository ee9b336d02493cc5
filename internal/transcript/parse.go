package transcript

import (
	"regexp"
	"strings"
	"time"
)

// headerRe matches a complete "[start --> end]" range. Brackets that do not form
// a complete range are ordinary text.
var headerRe = regexp.MustCompile(`\[(` + timestampPattern + `) --> (` + timestampPattern + `)\]`)

type header struct {
	from, to   int
	start, end time.Duration
}

// ParseAnnotated splits annotated text into segments in input order. A
// segment's text runs from the end of its range header to the next header or the
// end of input, with surrounding whitespace trimmed. Input without any header
// yields an empty slice.
func ParseAnnotated(annotated string) []Segment {
	headers := findHeaders(annotated)
	segments := make([]Segment, 0, len(headers))
	for i, h := range headers {
		textEnd := len(annotated)
		if i+1 < len(headers) {
			textEnd = headers[i+1].from
		}
		segments = append(segments, Segment{
			Start: h.start,
			End:   h.end,
			Text:  strings.TrimSpace(annotated[h.to:textEnd]),
		})
	}
	return segments
}

// findHeaders returns the range headers whose timestamps parse. A header with
// out-of-range fields (for example 00:75:00.000) stays part of the text.
func findHeaders(annotated string) []header {
	matches := headerRe.FindAllStringSubmatchIndex(annotated, -1)
	headers := make([]header, 0, len(matches))
	for _, m := range matches {
		start, err := ParseTimestamp(annotated[m[2]:m[3]])
		if err != nil {
			continue
		}
		end, err := ParseTimestamp(annotated[m[4]:m[5]])
		if err != nil {
			continue
		}
		headers = append(headers, header{from: m[0], to: m[1], start: start, end: end})
	}
	return headers
}
