package transcription

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/services/whisperx"
	"scribe/internal/transcript"
	"scribe/internal/transcriptcache"
)

// Source labels recorded on cache entries and log lines.
const (
	SourceUpload = "upload"
	SourceRemote = "remote"
)

// Recognizer turns a local media file into a transcript. Errors must already
// carry services.ErrNoAudioTrack or services.ErrRecognitionFailed, as
// whisperx.ClassifyFailure produces; the service passes them through as is.
type Recognizer interface {
	Transcribe(ctx context.Context, path string) (whisperx.Result, error)
}

// Downloader resolves remote media to a stable identifier and fetches its audio.
// Resolve must return an id that is unique across sites.
type Downloader interface {
	Resolve(ctx context.Context, url string) (string, error)
	Download(ctx context.Context, url, dir string) (string, error)
}

// Cache is the transcript store seen by the service.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, entry transcriptcache.Entry) error
}

// Options tunes the service.
type Options struct {
	// WorkDir holds temporary media. Empty uses the OS temp directory.
	WorkDir string
	// MaxConcurrent bounds simultaneous recognitions. Values below one mean one.
	MaxConcurrent int
	// Timeout bounds a single recognition. Zero disables it.
	Timeout time.Duration
}

// UploadRequest is an uploaded media payload.
type UploadRequest struct {
	Content    []byte
	Filename   string
	Timestamps bool
}

// RemoteRequest references media hosted on a video-sharing site.
type RemoteRequest struct {
	URL        string
	Timestamps bool
}

// Service orchestrates transcription requests.
type Service struct {
	opts       Options
	recognizer Recognizer
	downloader Downloader
	cache      Cache
	logger     *slog.Logger
	slots      *semaphore.Weighted
	active     atomic.Int64

	removeFile func(string) error
	removeAll  func(string) error
}

// NewService wires a Service. A nil cache disables caching; a nil downloader
// makes TranscribeRemote fail with a configuration error.
func NewService(opts Options, recognizer Recognizer, downloader Downloader, cache Cache, logger *slog.Logger) *Service {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if strings.TrimSpace(opts.WorkDir) == "" {
		opts.WorkDir = os.TempDir()
	}
	if cache == nil {
		cache = noCache{}
	}
	return &Service{
		opts:       opts,
		recognizer: recognizer,
		downloader: downloader,
		cache:      cache,
		logger:     logging.NewComponentLogger(logger, "transcription"),
		slots:      semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		removeFile: os.Remove,
		removeAll:  os.RemoveAll,
	}
}

// Active returns the number of recognitions currently running.
func (s *Service) Active() int64 {
	return s.active.Load()
}

// MaxConcurrent returns the recognition slot count.
func (s *Service) MaxConcurrent() int {
	return s.opts.MaxConcurrent
}

// UploadKey derives the cache key for uploaded bytes. The filename plays no part.
func UploadKey(content []byte) string {
	sum := sha256.Sum256(content)
	return "media/" + hex.EncodeToString(sum[:])
}

// RemoteKey derives the cache key for a resolved remote video. videoID is the
// extractor-qualified id returned by Downloader.Resolve, such as "youtube/abc123".
func RemoteKey(videoID string) string {
	return "video/" + videoID
}

// TranscribeUpload transcribes uploaded bytes, consulting the cache first.
func (s *Service) TranscribeUpload(ctx context.Context, req UploadRequest) (transcript.Transcript, error) {
	ctx = services.WithSource(ctx, SourceUpload)
	logger := logging.WithContext(ctx, s.logger)

	ext := mediaExtension(req.Filename)
	if !whisperx.SupportedExtension(req.Filename) {
		return transcript.Transcript{}, unsupportedMedia("validate upload", req.Filename)
	}
	if len(req.Content) == 0 {
		return transcript.Transcript{}, services.Wrap(services.ErrValidation, "transcription", "validate upload", "upload is empty", nil)
	}

	key := UploadKey(req.Content)
	logger = logger.With(logging.String(logging.FieldCacheKey, key))
	if annotated, ok := s.lookup(ctx, logger, key); ok {
		return transcript.FromAnnotated(annotated, req.Timestamps), nil
	}

	var result whisperx.Result
	err := s.withTempFile(logger, ext, req.Content, func(path string) error {
		var recErr error
		result, recErr = s.recognize(ctx, logger, path)
		return recErr
	})
	if err != nil {
		return transcript.Transcript{}, err
	}

	s.store(ctx, logger, key, SourceUpload, result)
	return transcript.FromAnnotated(result.Combined, req.Timestamps), nil
}

// TranscribeRemote resolves, downloads, and transcribes remote media, consulting
// the cache by video id before any download.
func (s *Service) TranscribeRemote(ctx context.Context, req RemoteRequest) (transcript.Transcript, error) {
	ctx = services.WithSource(ctx, SourceRemote)
	logger := logging.WithContext(ctx, s.logger)

	if s.downloader == nil {
		return transcript.Transcript{}, services.Wrap(services.ErrConfiguration, "transcription", "remote", "no downloader configured", nil)
	}

	videoID, err := s.downloader.Resolve(ctx, req.URL)
	if err != nil {
		return transcript.Transcript{}, downloadFailure("resolve", err)
	}
	key := RemoteKey(videoID)
	logger = logger.With(logging.String(logging.FieldCacheKey, key))
	if annotated, ok := s.lookup(ctx, logger, key); ok {
		return transcript.FromAnnotated(annotated, req.Timestamps), nil
	}

	var result whisperx.Result
	err = s.withTempDir(logger, "remote-", func(dir string) error {
		path, dlErr := s.downloader.Download(ctx, req.URL, dir)
		if dlErr != nil {
			return downloadFailure("download", dlErr)
		}
		if !whisperx.SupportedExtension(path) {
			return unsupportedMedia("validate download", path)
		}
		logger.Debug("remote media downloaded", logging.String("path", path))
		var recErr error
		result, recErr = s.recognize(ctx, logger, path)
		return recErr
	})
	if err != nil {
		return transcript.Transcript{}, err
	}

	s.store(ctx, logger, key, SourceRemote, result)
	return transcript.FromAnnotated(result.Combined, req.Timestamps), nil
}

// recognize runs the recognizer inside a worker slot.
func (s *Service) recognize(ctx context.Context, logger *slog.Logger, path string) (whisperx.Result, error) {
	if s.recognizer == nil {
		return whisperx.Result{}, services.Wrap(services.ErrConfiguration, "transcription", "recognize", "no recognizer configured", nil)
	}
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return whisperx.Result{}, services.Wrap(services.ErrRecognitionFailed, "transcription", "acquire slot", "cancelled while waiting for a recognizer", err)
	}
	defer s.slots.Release(1)
	s.active.Add(1)
	defer s.active.Add(-1)

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	started := time.Now()
	result, err := s.recognizer.Transcribe(ctx, path)
	if err != nil {
		logger.Info("recognition failed",
			logging.String("reason", services.Kind(err)),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
		return whisperx.Result{}, err
	}
	logger.Info("recognition completed",
		logging.Int("segments", len(result.Segments)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// lookup consults the cache. Read failures and corrupt entries are reported
// as misses.
func (s *Service) lookup(ctx context.Context, logger *slog.Logger, key string) (string, bool) {
	value, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logging.WarnWithContext(logger, "transcript cache read failed", "cache_read_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check cache_path permissions and disk health"),
			logging.String(logging.FieldImpact, "transcribing without cache"),
		)
		return "", false
	}
	if !ok {
		logger.Info("transcript cache decision", logging.Args(logging.DecisionAttrs("transcript_cache", "miss", "no entry for key")...)...)
		return "", false
	}
	if strings.TrimSpace(value) != "" && len(transcript.ParseAnnotated(value)) == 0 {
		logging.WarnWithContext(logger, "transcript cache entry unreadable", "cache_entry_corrupt",
			logging.Int("length", len(value)),
			logging.String(logging.FieldErrorHint, "entry will be replaced; run 'scribe cache remove' if this repeats"),
			logging.String(logging.FieldImpact, "transcribing again"),
		)
		return "", false
	}
	logger.Info("transcript cache decision", logging.Args(logging.DecisionAttrs("transcript_cache", "hit", "content previously transcribed")...)...)
	return value, true
}

// store writes the result to the cache. The write outlives a cancelled request
// so finished work is not recognized twice.
func (s *Service) store(ctx context.Context, logger *slog.Logger, key, source string, result whisperx.Result) {
	entry := transcriptcache.Entry{
		Key:        key,
		Transcript: result.Combined,
		Source:     source,
	}
	if err := s.cache.Set(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(logger, "transcript cache write failed", "cache_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check cache_path permissions and free disk space"),
			logging.String(logging.FieldImpact, "next identical request will transcribe again"),
		)
	}
}

func mediaExtension(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
}

func unsupportedMedia(operation, name string) error {
	ext := mediaExtension(name)
	if ext == "" {
		ext = "(none)"
	}
	return services.Wrap(services.ErrUnsupportedMediaType, "transcription", operation,
		fmt.Sprintf("extension %s not in %s", ext, strings.Join(whisperx.SupportedExtensions(), ", ")), nil)
}

func downloadFailure(operation string, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrDownloadFailed),
		errors.Is(err, services.ErrUnsupportedMediaType):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrDownloadFailed, "transcription", operation, "interrupted", err)
	default:
		return services.Wrap(services.ErrDownloadFailed, "transcription", operation, "", err)
	}
}

type noCache struct{}

func (noCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }

func (noCache) Set(context.Context, transcriptcache.Entry) error { return nil }
