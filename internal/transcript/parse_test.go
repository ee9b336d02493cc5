package transcript

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestParseAnnotatedPreservesOrderAndText(t *testing.T) {
	type block struct {
		start, end string
		text       string
	}
	blocks := []block{
		{"00:00:00.000", "00:00:02.500", "Hello there."},
		{"00:00:02.500", "00:00:05.125", "General Kenobi!"},
		{"00:00:05.125", "00:00:04.000", "Out of order stays put."},
		{"101:00:00.000", "101:00:01.999", "Long recordings keep full hours."},
	}
	var b strings.Builder
	for _, blk := range blocks {
		fmt.Fprintf(&b, "[%s --> %s]  %s", blk.start, blk.end, blk.text)
	}

	segments := ParseAnnotated(b.String())
	if len(segments) != len(blocks) {
		t.Fatalf("expected %d segments, got %d", len(blocks), len(segments))
	}
	for i, seg := range segments {
		if seg.Text != blocks[i].text {
			t.Errorf("segment %d text = %q, want %q", i, seg.Text, blocks[i].text)
		}
		if got := FormatDuration(seg.Start); got != blocks[i].start {
			t.Errorf("segment %d start = %q, want %q", i, got, blocks[i].start)
		}
		if got := FormatDuration(seg.End); got != blocks[i].end {
			t.Errorf("segment %d end = %q, want %q", i, got, blocks[i].end)
		}
	}
}

func TestParseAnnotatedEmpty(t *testing.T) {
	segments := ParseAnnotated("")
	if segments == nil {
		t.Fatal("expected empty, non-nil slice")
	}
	if len(segments) != 0 {
		t.Fatalf("expected no segments, got %d", len(segments))
	}
	if got := ParseAnnotated("plain text without any ranges"); len(got) != 0 {
		t.Fatalf("expected no segments for unannotated text, got %d", len(got))
	}
}

func TestParseAnnotatedKeepsStrayBrackets(t *testing.T) {
	input := "[00:00:01.000 --> 00:00:02.000]  see [note 1] and [00:00 --> later]" +
		"[00:00:02.000 --> 00:00:03.000]  done ["
	segments := ParseAnnotated(input)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d: %#v", len(segments), segments)
	}
	if segments[0].Text != "see [note 1] and [00:00 --> later]" {
		t.Fatalf("unexpected first text %q", segments[0].Text)
	}
	if segments[1].Text != "done [" {
		t.Fatalf("unexpected second text %q", segments[1].Text)
	}
}

func TestParseAnnotatedTreatsInvalidRangeAsText(t *testing.T) {
	input := "[00:00:01.000 --> 00:00:02.000]  before [00:75:00.000 --> 00:76:00.000]  after"
	segments := ParseAnnotated(input)
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if !strings.Contains(segments[0].Text, "after") {
		t.Fatalf("expected invalid header to stay in text, got %q", segments[0].Text)
	}
}

func TestAnnotateRoundTrip(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 1500 * time.Millisecond, Text: "one"},
		{Start: 1500 * time.Millisecond, End: 3 * time.Second, Text: "two [x]"},
	}
	annotated := Annotate(segments)
	want := "[00:00:00.000 --> 00:00:01.500]  one\n[00:00:01.500 --> 00:00:03.000]  two [x]"
	if annotated != want {
		t.Fatalf("Annotate = %q, want %q", annotated, want)
	}
	parsed := ParseAnnotated(annotated)
	if len(parsed) != len(segments) {
		t.Fatalf("expected %d segments after round trip, got %d", len(segments), len(parsed))
	}
	for i := range segments {
		if parsed[i] != segments[i] {
			t.Fatalf("segment %d changed: %#v vs %#v", i, parsed[i], segments[i])
		}
	}
}

func TestFromAnnotatedViews(t *testing.T) {
	annotated := "[00:00:00.000 --> 00:00:01.000]  Hello\n[00:00:01.000 --> 00:00:02.000]  world"

	plain := FromAnnotated(annotated, false)
	if plain.Timestamped {
		t.Fatal("expected plain view")
	}
	if plain.String() != "Hello world" {
		t.Fatalf("unexpected plain text %q", plain.String())
	}

	timed := FromAnnotated(annotated, true)
	if !timed.Timestamped || len(timed.Segments) != 2 {
		t.Fatalf("unexpected timestamped view %#v", timed)
	}
	if timed.String() != annotated {
		t.Fatalf("expected annotated rendering, got %q", timed.String())
	}

	copied := timed.SegmentsCopy()
	copied[0].Text = "mutated"
	if timed.Segments[0].Text != "Hello" {
		t.Fatal("SegmentsCopy must not alias the transcript")
	}
}
