package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"scribe/internal/api"
	"scribe/internal/services"
	"scribe/internal/transcription"
)

const (
	uploadField         = "file"
	multipartMemory     = 32 << 20
	remoteBodyLimit     = 64 << 10
	kindPayloadTooLarge = "payload_too_large"
)

func (s *apiServer) handleTranscribeUpload(w http.ResponseWriter, r *http.Request) {
	timestamps, err := parseFlag(r.URL.Query().Get("timestamps"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "validation", err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.writeBodyError(w, r, err, fmt.Sprintf("expected multipart form with a %q field", uploadField))
		return
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "validation", fmt.Sprintf("multipart field %q is required", uploadField))
		return
	}
	defer file.Close()

	if !acceptableContentType(header.Header.Get("Content-Type")) {
		s.writeError(w, r, http.StatusUnsupportedMediaType, "unsupported_media_type",
			fmt.Sprintf("content type %q is not audio or video", header.Header.Get("Content-Type")))
		return
	}
	content, err := io.ReadAll(file)
	if err != nil {
		s.writeBodyError(w, r, err, "unable to read upload")
		return
	}

	result, err := s.daemon.svc.TranscribeUpload(r.Context(), transcription.UploadRequest{
		Content:    content,
		Filename:   header.Filename,
		Timestamps: timestamps,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromTranscript(result))
}

func (s *apiServer) handleTranscribeRemote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, remoteBodyLimit)
	var req api.RemoteTranscriptionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.writeBodyError(w, r, err, "expected JSON body {\"url\": ..., \"timestamps\": ...}")
		return
	}

	result, err := s.daemon.svc.TranscribeRemote(r.Context(), transcription.RemoteRequest{
		URL:        req.URL,
		Timestamps: req.Timestamps,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromTranscript(result))
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.ServerStatus{
		Version:              s.daemon.version,
		Running:              status.Running,
		PID:                  status.PID,
		LockFilePath:         status.LockFilePath,
		CacheEnabled:         status.CacheEnabled,
		CachePath:            status.CachePath,
		CacheEntries:         status.CacheEntries,
		ActiveTranscriptions: status.Active,
		MaxConcurrent:        status.MaxConcurrent,
		Dependencies:         api.FromPreflight(status.Dependencies),
	})
}

func (s *apiServer) handleCacheList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.daemon.cache.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.CacheListResponse{Entries: api.FromCacheEntries(entries)})
}

func (s *apiServer) handleCacheRemove(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.PathValue("key"))
	if key == "" {
		s.writeError(w, r, http.StatusBadRequest, "validation", "cache key is required")
		return
	}
	removed, err := s.daemon.cache.Remove(r.Context(), key)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !removed {
		s.writeError(w, r, http.StatusNotFound, "not_found", fmt.Sprintf("no cache entry %q", key))
		return
	}
	s.writeJSON(w, http.StatusOK, api.CacheRemoveResponse{Removed: 1})
}

func (s *apiServer) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	removed, err := s.daemon.cache.Clear(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.CacheRemoveResponse{Removed: removed})
}

// writeBodyError reports request body problems, distinguishing oversize bodies.
func (s *apiServer) writeBodyError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, kindPayloadTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	s.writeError(w, r, http.StatusBadRequest, "validation", message)
}

// acceptableContentType admits audio and video parts plus the generic types
// clients send when they do not sniff.
func acceptableContentType(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mediaType, "audio/"), strings.HasPrefix(mediaType, "video/"):
		return true
	case mediaType == "application/octet-stream":
		return true
	default:
		return false
	}
}

func parseFlag(value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, services.Wrap(services.ErrValidation, "api", "parse timestamps", fmt.Sprintf("invalid boolean %q", value), nil)
	}
	return parsed, nil
}
