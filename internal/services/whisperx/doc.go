// Package whisperx adapts the WhisperX command-line recognizer.
//
// The service runs WhisperX through uvx against a local media file, reads the
// JSON segment output, and returns the transcript in three shapes: flattened
// text, formatted range labels, and the annotated form that the cache stores.
//
// Failures are classified here and only here. An error whose output carries a
// known audio-extraction signature becomes services.ErrNoAudioTrack; anything
// else becomes services.ErrRecognitionFailed.
package whisperx
