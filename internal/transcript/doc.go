// Package transcript holds the transcript data model and the text formats that
// carry it between the recognizer, the cache, and API callers.
//
// The annotated form places a "[HH:MM:SS.mmm --> HH:MM:SS.mmm]" range in front
// of every segment. It is the canonical cached representation: ParseAnnotated
// turns it back into segments and the flattened text view is derived from
// those segments.
package transcript
