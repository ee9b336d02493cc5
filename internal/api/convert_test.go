package api

import (
	"testing"
	"time"

	"scribe/internal/preflight"
	"scribe/internal/transcript"
	"scribe/internal/transcriptcache"
)

func TestFromTranscriptPlain(t *testing.T) {
	resp := FromTranscript(transcript.Transcript{Text: "hello world", Segments: []transcript.Segment{{Text: "hello"}}})
	if resp.Transcription != "hello world" {
		t.Fatalf("unexpected transcription %q", resp.Transcription)
	}
	if resp.Segments != nil {
		t.Fatal("plain view must not include segments")
	}
}

func TestFromTranscriptTimestamped(t *testing.T) {
	tr := transcript.Transcript{
		Segments: []transcript.Segment{
			{Start: 0, End: 1500 * time.Millisecond, Text: "hello"},
			{Start: 1500 * time.Millisecond, End: 2 * time.Second, Text: "world"},
		},
		Timestamped: true,
	}
	resp := FromTranscript(tr)
	if len(resp.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(resp.Segments))
	}
	if resp.Segments[0].End != "00:00:01.500" || resp.Segments[0].EndSeconds != 1.5 {
		t.Fatalf("unexpected segment %#v", resp.Segments[0])
	}
	want := "[00:00:00.000 --> 00:00:01.500]  hello\n[00:00:01.500 --> 00:00:02.000]  world"
	if resp.Transcription != want {
		t.Fatalf("unexpected annotated text %q", resp.Transcription)
	}
}

func TestFromCacheEntries(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := FromCacheEntries([]transcriptcache.Entry{{Key: "video/a", Transcript: "héllo", Source: "remote", SegmentCount: 1, CreatedAt: created}})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Characters != 5 || rows[0].CreatedAt != "2024-05-01T12:00:00.000Z" || rows[0].UpdatedAt != "" {
		t.Fatalf("unexpected row %#v", rows[0])
	}
}

func TestFromPreflight(t *testing.T) {
	deps := FromPreflight([]preflight.Result{{Name: "uvx", Passed: true, Detail: "/usr/bin/uvx"}, {Name: "yt-dlp", Optional: true}})
	if len(deps) != 2 || !deps[0].Available || deps[1].Available || !deps[1].Optional {
		t.Fatalf("unexpected dependencies %#v", deps)
	}
}
