// Package daemon hosts the scribe HTTP server.
//
// A Daemon owns the transcript cache handle, the transcription service, and a
// file lock that keeps a second server from sharing the same work directory and
// cache. Requests are authenticated with an optional bearer token, tagged with
// a request id that is echoed in X-Request-ID and attached to every log line,
// and mapped to status codes through services.HTTPStatus.
package daemon
