package daemon

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"scribe/internal/logging"
	"scribe/internal/testsupport"
	"scribe/internal/transcription"
)

func newTestAPIServer(t *testing.T) *apiServer {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Server.MaxUploadMB = 1
	cache := testsupport.MustOpenCache(t, cfg)
	svc := transcription.NewService(transcription.Options{WorkDir: cfg.Paths.WorkDir}, nil, nil, cache, logging.NewNop())
	d, err := New(cfg, cache, svc, logging.NewNop(), "test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d.api
}

func TestUploadRejectsOversizeBody(t *testing.T) {
	srv := newTestAPIServer(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(uploadField, "clip.mp3")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("a"), 2<<20)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	srv := newTestAPIServer(t)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/queue", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAcceptableContentType(t *testing.T) {
	cases := map[string]bool{
		"":                         true,
		"audio/mpeg":               true,
		"video/mp4; codecs=avc1":   true,
		"application/octet-stream": true,
		"text/plain":               false,
		"application/json":         false,
		"audio/":                   false,
	}
	for value, want := range cases {
		if got := acceptableContentType(value); got != want {
			t.Errorf("acceptableContentType(%q) = %v, want %v", value, got, want)
		}
	}
}

func TestParseFlag(t *testing.T) {
	for _, value := range []string{"1", "true", "TRUE"} {
		if got, err := parseFlag(value); err != nil || !got {
			t.Fatalf("parseFlag(%q) = %v, %v", value, got, err)
		}
	}
	if got, err := parseFlag(""); err != nil || got {
		t.Fatalf("empty flag should be false, got %v %v", got, err)
	}
	if _, err := parseFlag("sometimes"); err == nil {
		t.Fatal("expected invalid flag to fail")
	}
}
