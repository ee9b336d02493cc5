package transcriptcache_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"scribe/internal/testsupport"
	"scribe/internal/transcriptcache"
)

func TestSetAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "media/abc"); err != nil || ok {
		t.Fatalf("expected miss on empty cache, got ok=%v err=%v", ok, err)
	}

	annotated := "[00:00:00.000 --> 00:00:01.000]  hello"
	if err := store.Set(ctx, transcriptcache.Entry{Key: "media/abc", Transcript: annotated, Source: "upload", SegmentCount: 1}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok, err := store.Get(ctx, "media/abc")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if value != annotated {
		t.Fatalf("unexpected value %q", value)
	}

	if err := store.Set(ctx, transcriptcache.Entry{Key: "media/abc", Transcript: "", Source: "upload"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, ok, err = store.Get(ctx, "media/abc")
	if err != nil || !ok || value != "" {
		t.Fatalf("expected empty transcript to be a hit, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestSetDerivesSegmentCount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	annotated := "[00:00:00.000 --> 00:00:01.500]  Hello there.\n[00:00:01.500 --> 00:00:03.000]  General Kenobi!"
	entries := []transcriptcache.Entry{
		{Key: "media/zero", Transcript: annotated, Source: "upload"},
		{Key: "media/wrong", Transcript: annotated, Source: "upload", SegmentCount: 7},
		{Key: "media/empty", Transcript: "", Source: "upload", SegmentCount: 3},
	}
	for _, entry := range entries {
		if err := store.Set(ctx, entry); err != nil {
			t.Fatalf("Set %s: %v", entry.Key, err)
		}
	}

	listed, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := map[string]int{"media/zero": 2, "media/wrong": 2, "media/empty": 0}
	if len(listed) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(listed))
	}
	for _, entry := range listed {
		if entry.SegmentCount != want[entry.Key] {
			t.Fatalf("%s: expected %d segments, got %d", entry.Key, want[entry.Key], entry.SegmentCount)
		}
	}
}

func TestSetRequiresKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCache(t, cfg)
	if err := store.Set(context.Background(), transcriptcache.Entry{Transcript: "x"}); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestListRemoveClearCount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	testsupport.SeedTranscript(t, store, "media/one", "a")
	testsupport.SeedTranscript(t, store, "video/two", "b")
	testsupport.SeedTranscript(t, store, "video/three", "c")

	count, err := store.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("expected 3 entries, got %d err=%v", count, err)
	}
	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 listed entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.CreatedAt.IsZero() || entry.Source != "seed" {
			t.Fatalf("unexpected entry %#v", entry)
		}
	}

	removed, err := store.Remove(ctx, "video/two")
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v err=%v", removed, err)
	}
	removed, err = store.Remove(ctx, "video/two")
	if err != nil || removed {
		t.Fatalf("expected second removal to report nothing, got %v err=%v", removed, err)
	}

	cleared, err := store.Clear(ctx)
	if err != nil || cleared != 2 {
		t.Fatalf("expected 2 cleared, got %d err=%v", cleared, err)
	}
	if count, _ := store.Count(ctx); count != 0 {
		t.Fatalf("expected empty cache, got %d", count)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := transcriptcache.Open(cfg.Paths.CachePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	testsupport.SeedTranscript(t, store, "video/abc123", "kept")
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenCache(t, cfg)
	value, ok, err := reopened.Get(context.Background(), "video/abc123")
	if err != nil || !ok || value != "kept" {
		t.Fatalf("expected persisted entry, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestDisabledStore(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutCache())
	store := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	if store.Enabled() {
		t.Fatal("expected disabled store for empty path")
	}
	if err := store.Set(ctx, transcriptcache.Entry{Key: "media/x", Transcript: "t"}); err != nil {
		t.Fatalf("Set on disabled store: %v", err)
	}
	if _, ok, err := store.Get(ctx, "media/x"); ok || err != nil {
		t.Fatalf("expected disabled store to miss, got ok=%v err=%v", ok, err)
	}
	if count, err := store.Count(ctx); count != 0 || err != nil {
		t.Fatalf("unexpected count %d err=%v", count, err)
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := transcriptcache.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := transcriptcache.Open(path); !errors.Is(err, transcriptcache.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
