package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestWrapKeepsMarkerAndCause(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrRecognitionFailed, "whisperx", "transcribe", "WhisperX exited", cause)
	if !errors.Is(err, ErrRecognitionFailed) {
		t.Fatalf("expected marker to be preserved: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved: %v", err)
	}
	if !strings.Contains(err.Error(), "whisperx: transcribe: WhisperX exited") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		nil: http.StatusOK,
		Wrap(ErrUnsupportedMediaType, "upload", "", "", nil): http.StatusUnsupportedMediaType,
		Wrap(ErrNoAudioTrack, "whisperx", "", "", nil):       http.StatusUnprocessableEntity,
		Wrap(ErrValidation, "remote", "", "", nil):           http.StatusBadRequest,
		Wrap(ErrDownloadFailed, "ytdlp", "", "", nil):        http.StatusBadGateway,
		Wrap(ErrRecognitionFailed, "whisperx", "", "", nil):  http.StatusInternalServerError,
		fmt.Errorf("wait: %w", context.DeadlineExceeded):     http.StatusGatewayTimeout,
	}
	for err, want := range cases {
		if got := HTTPStatus(err); got != want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", err, got, want)
		}
	}
}

func TestKind(t *testing.T) {
	if got := Kind(Wrap(ErrNoAudioTrack, "", "", "", nil)); got != "no_audio_track" {
		t.Fatalf("unexpected kind %q", got)
	}
	if got := Kind(errors.New("boom")); got != "internal" {
		t.Fatalf("unexpected kind %q", got)
	}
}
