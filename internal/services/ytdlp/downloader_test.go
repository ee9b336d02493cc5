package ytdlp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"scribe/internal/services"
)

func TestResolveReturnsID(t *testing.T) {
	d := New(Config{})
	var gotName string
	var gotArgs []string
	d.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte("\nYoutube abc123\n"), nil
	})

	id, err := d.Resolve(context.Background(), " https://www.youtube.com/watch?v=abc123 ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id != "youtube/abc123" {
		t.Fatalf("unexpected id %q", id)
	}
	if gotName != DefaultBinary {
		t.Fatalf("unexpected binary %q", gotName)
	}
	if idx := slices.Index(gotArgs, "--print"); idx < 0 || gotArgs[idx+1] != "%(extractor_key)s %(id)s" {
		t.Fatalf("expected extractor in resolve output: %v", gotArgs)
	}
	if !slices.Contains(gotArgs, "--skip-download") {
		t.Fatalf("resolve must not download: %v", gotArgs)
	}
	if gotArgs[len(gotArgs)-1] != "https://www.youtube.com/watch?v=abc123" {
		t.Fatalf("expected trimmed url as final arg: %v", gotArgs)
	}
}

func TestResolveRejectsInvalidURL(t *testing.T) {
	d := New(Config{})
	called := false
	d.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		called = true
		return nil, nil
	})
	for _, raw := range []string{"", "not a url", "ftp://example.com/video", "https://"} {
		if _, err := d.Resolve(context.Background(), raw); !errors.Is(err, services.ErrValidation) {
			t.Errorf("Resolve(%q) = %v, want ErrValidation", raw, err)
		}
	}
	if called {
		t.Fatal("yt-dlp must not run for invalid urls")
	}
}

func TestResolveFailures(t *testing.T) {
	d := New(Config{})
	d.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("ERROR: Video unavailable")
	})
	if _, err := d.Resolve(context.Background(), "https://example.com/v"); !errors.Is(err, services.ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed, got %v", err)
	}

	for _, out := range []string{"Generic ../../etc/passwd\n", "../x abc123\n", "abc123\n", "Youtube \n"} {
		d.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte(out), nil
		})
		if _, err := d.Resolve(context.Background(), "https://example.com/v"); !errors.Is(err, services.ErrDownloadFailed) {
			t.Fatalf("expected %q to be rejected, got %v", out, err)
		}
	}
}

func TestResolveQualifiesIDBySite(t *testing.T) {
	d := New(Config{})
	d.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if args[len(args)-1] == "https://vimeo.com/76979871" {
			return []byte("Vimeo 76979871\n"), nil
		}
		return []byte("Dailymotion 76979871\n"), nil
	})
	first, err := d.Resolve(context.Background(), "https://vimeo.com/76979871")
	if err != nil {
		t.Fatalf("Resolve vimeo: %v", err)
	}
	second, err := d.Resolve(context.Background(), "https://www.dailymotion.com/video/76979871")
	if err != nil {
		t.Fatalf("Resolve dailymotion: %v", err)
	}
	if first == second {
		t.Fatalf("ids from different sites collided: %q", first)
	}
	if first != "vimeo/76979871" || second != "dailymotion/76979871" {
		t.Fatalf("unexpected ids %q and %q", first, second)
	}
}

func TestDownloadReturnsPath(t *testing.T) {
	dir := t.TempDir()
	d := New(Config{Binary: "/usr/local/bin/yt-dlp", Format: "bestaudio"})
	var gotArgs []string
	d.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		path := filepath.Join(dir, "abc123.m4a")
		if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
			return nil, err
		}
		return []byte(path + "\n"), nil
	})

	path, err := d.Download(context.Background(), "https://example.com/v", dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if path != filepath.Join(dir, "abc123.m4a") {
		t.Fatalf("unexpected path %q", path)
	}
	if idx := slices.Index(gotArgs, "-f"); idx < 0 || gotArgs[idx+1] != "bestaudio" {
		t.Fatalf("expected configured format: %v", gotArgs)
	}
	if idx := slices.Index(gotArgs, "-o"); idx < 0 || gotArgs[idx+1] != filepath.Join(dir, "%(id)s.%(ext)s") {
		t.Fatalf("expected output template in dir: %v", gotArgs)
	}
}

func TestDownloadRejectsPathOutsideDir(t *testing.T) {
	dir := t.TempDir()
	d := New(Config{})
	d.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("/tmp/elsewhere.m4a\n"), nil
	})
	if _, err := d.Download(context.Background(), "https://example.com/v", dir); !errors.Is(err, services.ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed, got %v", err)
	}
}

func TestRunAppliesTimeout(t *testing.T) {
	d := New(Config{Timeout: time.Minute})
	d.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Fatal("expected deadline on yt-dlp context")
		}
		return []byte("Generic id1\n"), nil
	})
	if _, err := d.Resolve(context.Background(), "https://example.com/v"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
}
