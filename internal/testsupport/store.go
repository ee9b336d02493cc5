package testsupport

import (
	"context"
	"testing"

	"scribe/internal/config"
	"scribe/internal/transcriptcache"
)

// MustOpenCache opens the transcript cache for tests and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *transcriptcache.Store {
	t.Helper()

	store, err := transcriptcache.Open(cfg.Paths.CachePath)
	if err != nil {
		t.Fatalf("transcriptcache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedTranscript stores an annotated transcript under key.
func SeedTranscript(t testing.TB, store *transcriptcache.Store, key, annotated string) {
	t.Helper()

	if err := store.Set(context.Background(), transcriptcache.Entry{Key: key, Transcript: annotated, Source: "seed"}); err != nil {
		t.Fatalf("store.Set: %v", err)
	}
}
