// Package services defines shared utilities consumed by the transcription
// orchestrator, the HTTP API, and the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request correlation identifiers and the media
//     source kind for logging.
//   - Structured error markers plus the Wrap helper, so failures carry one
//     classification from the point they are detected to the API response.
//   - Subpackages wrapping the external command-line tools (WhisperX, yt-dlp).
//
// Use these helpers when wiring new integrations so error handling and
// observability stay uniform across the service.
package services
