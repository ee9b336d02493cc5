package api

import (
	"unicode/utf8"

	"scribe/internal/preflight"
	"scribe/internal/transcript"
	"scribe/internal/transcriptcache"
)

// FromTranscript converts a transcript into its response payload.
func FromTranscript(t transcript.Transcript) TranscriptionResponse {
	resp := TranscriptionResponse{Transcription: t.String()}
	if !t.Timestamped {
		return resp
	}
	resp.Segments = make([]Segment, 0, len(t.Segments))
	for _, seg := range t.Segments {
		resp.Segments = append(resp.Segments, Segment{
			Start:        transcript.FormatDuration(seg.Start),
			End:          transcript.FormatDuration(seg.End),
			StartSeconds: seg.Start.Seconds(),
			EndSeconds:   seg.End.Seconds(),
			Text:         seg.Text,
		})
	}
	return resp
}

// FromCacheEntries converts stored entries into listing rows.
func FromCacheEntries(entries []transcriptcache.Entry) []CacheEntry {
	out := make([]CacheEntry, 0, len(entries))
	for _, entry := range entries {
		row := CacheEntry{
			Key:          entry.Key,
			Source:       entry.Source,
			SegmentCount: entry.SegmentCount,
			Characters:   utf8.RuneCountInString(entry.Transcript),
		}
		if !entry.CreatedAt.IsZero() {
			row.CreatedAt = entry.CreatedAt.Format(dateTimeFormat)
		}
		if !entry.UpdatedAt.IsZero() {
			row.UpdatedAt = entry.UpdatedAt.Format(dateTimeFormat)
		}
		out = append(out, row)
	}
	return out
}

// FromPreflight converts preflight results into dependency rows.
func FromPreflight(results []preflight.Result) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(results))
	for _, r := range results {
		out = append(out, DependencyStatus{
			Name:      r.Name,
			Optional:  r.Optional,
			Available: r.Passed,
			Detail:    r.Detail,
		})
	}
	return out
}
