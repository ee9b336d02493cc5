package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"scribe/internal/services"
)

// Defaults applied when Config leaves a field empty.
const (
	DefaultBinary = "yt-dlp"
	DefaultFormat = "bestaudio[ext=m4a]/bestaudio[ext=mp4]/bestaudio"
)

// resolveTemplate prints the extractor next to the id. Ids are only unique
// within one site.
const resolveTemplate = "%(extractor_key)s %(id)s"

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Config captures yt-dlp settings.
type Config struct {
	Binary  string
	Format  string
	Timeout time.Duration
}

// CommandRunner executes a command and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Downloader wraps the yt-dlp executable.
type Downloader struct {
	cfg    Config
	runner CommandRunner
}

// New constructs a Downloader.
func New(cfg Config) *Downloader {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if strings.TrimSpace(cfg.Format) == "" {
		cfg.Format = DefaultFormat
	}
	return &Downloader{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (d *Downloader) WithCommandRunner(runner CommandRunner) {
	d.runner = runner
}

// Binary returns the yt-dlp executable name.
func (d *Downloader) Binary() string {
	return d.cfg.Binary
}

// Resolve returns the stable video identifier for rawURL without downloading
// any media. The identifier is qualified by the lowercased extractor name,
// for example "youtube/abc123".
func (d *Downloader) Resolve(ctx context.Context, rawURL string) (string, error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		return "", err
	}
	out, err := d.run(ctx, "--no-playlist", "--skip-download", "--no-warnings", "--print", resolveTemplate, target)
	if err != nil {
		return "", services.Wrap(services.ErrDownloadFailed, "yt-dlp", "resolve", "unable to resolve video", err)
	}
	line := firstLine(out)
	extractor, id, ok := strings.Cut(line, " ")
	extractor = strings.ToLower(strings.TrimSpace(extractor))
	id = strings.TrimSpace(id)
	if !ok || !videoIDPattern.MatchString(extractor) || !videoIDPattern.MatchString(id) {
		return "", services.Wrap(services.ErrDownloadFailed, "yt-dlp", "resolve", fmt.Sprintf("unexpected video id %q", line), nil)
	}
	return extractor + "/" + id, nil
}

// Download fetches the audio-only stream of rawURL into dir and returns the
// written file path.
func (d *Downloader) Download(ctx context.Context, rawURL, dir string) (string, error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(dir) == "" {
		return "", services.Wrap(services.ErrValidation, "yt-dlp", "download", "destination directory required", nil)
	}
	template := filepath.Join(dir, "%(id)s.%(ext)s")
	out, err := d.run(ctx,
		"--no-playlist",
		"--no-warnings",
		"--no-part",
		"-f", d.cfg.Format,
		"-o", template,
		"--print", "after_move:filepath",
		target,
	)
	if err != nil {
		return "", services.Wrap(services.ErrDownloadFailed, "yt-dlp", "download", "unable to download audio", err)
	}
	path := firstLine(out)
	if path == "" {
		return "", services.Wrap(services.ErrDownloadFailed, "yt-dlp", "download", "yt-dlp reported no output file", nil)
	}
	if rel, err := filepath.Rel(dir, path); err != nil || strings.HasPrefix(rel, "..") {
		return "", services.Wrap(services.ErrDownloadFailed, "yt-dlp", "download", fmt.Sprintf("output %q escaped %q", path, dir), nil)
	}
	return path, nil
}

func (d *Downloader) run(ctx context.Context, args ...string) ([]byte, error) {
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}
	if d.runner != nil {
		return d.runner(ctx, d.cfg.Binary, args...)
	}
	cmd := exec.CommandContext(ctx, d.cfg.Binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", d.cfg.Binary, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// ValidateURL checks that rawURL is an absolute http(s) URL and returns it
// trimmed.
func ValidateURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", services.Wrap(services.ErrValidation, "yt-dlp", "validate url", "url required", nil)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "yt-dlp", "validate url", "malformed url", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", services.Wrap(services.ErrValidation, "yt-dlp", "validate url", fmt.Sprintf("unsupported scheme %q", parsed.Scheme), nil)
	}
	if parsed.Host == "" {
		return "", services.Wrap(services.ErrValidation, "yt-dlp", "validate url", "url has no host", nil)
	}
	return trimmed, nil
}

func firstLine(out []byte) string {
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
