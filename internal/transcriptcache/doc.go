// Package transcriptcache persists finished transcripts in SQLite, keyed by
// content hash or remote video id.
//
// Values are the annotated transcript text exactly as it was stored. The store
// never evicts. Opening with an empty path yields a disabled store that reports
// every lookup as a miss and discards writes, which lets the service run without
// a cache.
package transcriptcache
