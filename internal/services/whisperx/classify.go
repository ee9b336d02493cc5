package whisperx

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"scribe/internal/services"
)

// supportedExtensions is the closed set of accepted media suffixes.
var supportedExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".m4a":  {},
	".mp4":  {},
	".flac": {},
}

// SupportedExtension reports whether name ends in an accepted media suffix.
// Matching is case-insensitive.
func SupportedExtension(name string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(strings.TrimSpace(name)))]
	return ok
}

// SupportedExtensions lists the accepted suffixes for messages and help text.
func SupportedExtensions() []string {
	return []string{".mp3", ".wav", ".m4a", ".mp4", ".flac"}
}

// noAudioSignatures are fragments emitted by ffmpeg (which WhisperX uses to load
// audio) when a file has no decodable audio stream.
var noAudioSignatures = []string{
	"no audio stream present",
	"does not contain any stream",
	"stream map '0:a' matches no streams",
	"no audio track",
}

// ClassifyFailure tags a recognizer error with the right marker. Errors that are
// already classified are returned unchanged.
func ClassifyFailure(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, services.ErrNoAudioTrack) || errors.Is(err, services.ErrRecognitionFailed) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrRecognitionFailed, "whisperx", "transcribe", "recognition interrupted", err)
	}
	lower := strings.ToLower(err.Error())
	for _, signature := range noAudioSignatures {
		if strings.Contains(lower, signature) {
			return services.Wrap(services.ErrNoAudioTrack, "whisperx", "transcribe", "media has no audio stream", err)
		}
	}
	return services.Wrap(services.ErrRecognitionFailed, "whisperx", "transcribe", "", err)
}
