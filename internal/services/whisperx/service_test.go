package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"scribe/internal/services"
)

func argValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func writeSource(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestTranscribeBuildsAllViews(t *testing.T) {
	source := writeSource(t, "clip.mp3")
	svc := NewService(Config{Model: "small", Language: "English"})

	var gotName string
	var gotArgs []string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		payload := `{"segments":[{"text":" Hello there. ","start":0,"end":1.5},{"text":"General Kenobi!","start":1.5,"end":3.001}]}`
		return os.WriteFile(filepath.Join(argValue(args, "--output_dir"), "clip.json"), []byte(payload), 0o644)
	})

	result, err := svc.Transcribe(context.Background(), source)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotName != UVXCommand {
		t.Fatalf("expected uvx launcher, got %q", gotName)
	}
	if !slices.Contains(gotArgs, source) {
		t.Fatalf("expected source in args: %v", gotArgs)
	}
	if argValue(gotArgs, "--model") != "small" || argValue(gotArgs, "--language") != "en" {
		t.Fatalf("unexpected model/language args: %v", gotArgs)
	}
	if argValue(gotArgs, "--output_format") != "json" {
		t.Fatalf("expected json output format: %v", gotArgs)
	}
	if argValue(gotArgs, "--device") != CPUDevice {
		t.Fatalf("expected cpu device: %v", gotArgs)
	}

	if result.FullText != "Hello there. General Kenobi!" {
		t.Fatalf("unexpected full text %q", result.FullText)
	}
	wantStamps := []string{"[00:00:00.000 --> 00:00:01.500]", "[00:00:01.500 --> 00:00:03.001]"}
	if !slices.Equal(result.Timestamps, wantStamps) {
		t.Fatalf("unexpected timestamps %v", result.Timestamps)
	}
	wantCombined := "[00:00:00.000 --> 00:00:01.500]  Hello there.\n[00:00:01.500 --> 00:00:03.001]  General Kenobi!"
	if result.Combined != wantCombined {
		t.Fatalf("unexpected combined text %q", result.Combined)
	}
	if len(result.Segments) != 2 || result.Segments[1].Text != "General Kenobi!" {
		t.Fatalf("unexpected segments %#v", result.Segments)
	}

	entries, err := os.ReadDir(filepath.Dir(source))
	if err != nil {
		t.Fatalf("read source dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected scratch output to be removed, found %d entries", len(entries))
	}
}

func TestTranscribeCUDAAndPyannoteArgs(t *testing.T) {
	source := writeSource(t, "clip.wav")
	svc := NewService(Config{CUDAEnabled: true, VADMethod: VADMethodPyannote, HFToken: "hf", UVXBinary: "/opt/uvx"})

	var gotName string
	var gotArgs []string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotName, gotArgs = name, args
		return os.WriteFile(filepath.Join(argValue(args, "--output_dir"), "clip.json"), []byte(`{"segments":[]}`), 0o644)
	})

	result, err := svc.Transcribe(context.Background(), source)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotName != "/opt/uvx" {
		t.Fatalf("expected configured launcher, got %q", gotName)
	}
	if argValue(gotArgs, "--device") != CUDADevice || argValue(gotArgs, "--index-url") != CUDAIndexURL {
		t.Fatalf("expected cuda args: %v", gotArgs)
	}
	if argValue(gotArgs, "--hf_token") != "hf" || argValue(gotArgs, "--vad_method") != VADMethodPyannote {
		t.Fatalf("expected pyannote args: %v", gotArgs)
	}
	if result.Combined != "" || result.FullText != "" || len(result.Segments) != 0 {
		t.Fatalf("expected empty result for silent media, got %#v", result)
	}
}

func TestTranscribeClassifiesNoAudio(t *testing.T) {
	source := writeSource(t, "clip.mp4")
	svc := NewService(Config{})
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("uvx: exit status 1: RuntimeError: Failed to load audio: Output file #0 does not contain any stream")
	})

	_, err := svc.Transcribe(context.Background(), source)
	if !errors.Is(err, services.ErrNoAudioTrack) {
		t.Fatalf("expected ErrNoAudioTrack, got %v", err)
	}
}

func TestTranscribeClassifiesOtherFailures(t *testing.T) {
	source := writeSource(t, "clip.mp3")
	svc := NewService(Config{})
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("uvx: exit status 1: CUDA out of memory")
	})

	_, err := svc.Transcribe(context.Background(), source)
	if !errors.Is(err, services.ErrRecognitionFailed) {
		t.Fatalf("expected ErrRecognitionFailed, got %v", err)
	}
	if errors.Is(err, services.ErrNoAudioTrack) {
		t.Fatal("generic failure must not be classified as missing audio")
	}
}

func TestTranscribeMissingOutputIsRecognitionFailure(t *testing.T) {
	source := writeSource(t, "clip.mp3")
	svc := NewService(Config{})
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error { return nil })

	_, err := svc.Transcribe(context.Background(), source)
	if !errors.Is(err, services.ErrRecognitionFailed) {
		t.Fatalf("expected ErrRecognitionFailed, got %v", err)
	}
}

func TestTranscribeCancelled(t *testing.T) {
	source := writeSource(t, "clip.mp3")
	svc := NewService(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		cancel()
		return errors.New("signal: killed")
	})

	_, err := svc.Transcribe(ctx, source)
	if !errors.Is(err, context.Canceled) || !errors.Is(err, services.ErrRecognitionFailed) {
		t.Fatalf("expected cancelled recognition failure, got %v", err)
	}
	entries, _ := os.ReadDir(filepath.Dir(source))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "whisperx-") {
			t.Fatalf("scratch dir %s left behind", entry.Name())
		}
	}
}

func TestClassifyFailure(t *testing.T) {
	noAudio := []string{
		"no audio stream present",
		"Stream map '0:a' matches no streams.",
		"input has NO AUDIO TRACK",
	}
	for _, msg := range noAudio {
		if err := ClassifyFailure(errors.New(msg)); !errors.Is(err, services.ErrNoAudioTrack) {
			t.Errorf("ClassifyFailure(%q) = %v, want ErrNoAudioTrack", msg, err)
		}
	}
	for _, msg := range []string{"segmentation fault", "model download failed", ""} {
		if err := ClassifyFailure(errors.New(msg)); !errors.Is(err, services.ErrRecognitionFailed) {
			t.Errorf("ClassifyFailure(%q) = %v, want ErrRecognitionFailed", msg, err)
		}
	}
	if ClassifyFailure(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
	already := services.Wrap(services.ErrNoAudioTrack, "x", "y", "", nil)
	if ClassifyFailure(already) != already {
		t.Fatal("expected classified error to pass through unchanged")
	}
}

func TestSupportedExtension(t *testing.T) {
	for _, name := range []string{"a.mp3", "b.WAV", "c.m4a", "d.mp4", "e.flac", " f.Mp3 "} {
		if !SupportedExtension(name) {
			t.Errorf("expected %q to be supported", name)
		}
	}
	for _, name := range []string{"clip.txt", "clip", "clip.ogg", "mp3", ".mp3.txt"} {
		if SupportedExtension(name) {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func TestLanguageCode(t *testing.T) {
	cases := map[string]string{
		"English": "en",
		"fre":     "fr",
		"deu":     "de",
		" de ":    "de",
		"en-US":   "en",
		"pt_BR":   "pt",
		"swe":     "sv",
		"xx":      "xx",
		"klingon": "",
		"":        "",
	}
	for in, want := range cases {
		if got := LanguageCode(in); got != want {
			t.Errorf("LanguageCode(%q) = %q, want %q", in, got, want)
		}
	}
}
