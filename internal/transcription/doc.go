// Package transcription coordinates uploads and remote media through the
// transcript cache and the speech recognizer.
//
// Both entry points follow the same shape: validate, derive a cache key, look
// the key up, and on a miss materialize the media into a uniquely named
// temporary object under the work directory, recognize it, store the annotated
// result, and hand back either the flattened text or the timestamped segments.
// Temporary objects are removed exactly once on every exit path, including
// cancellation. The cache is best effort: read and write failures are logged
// and never fail a request.
package transcription
