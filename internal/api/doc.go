// Package api defines the JSON payloads exchanged with the scribe HTTP server
// and a small client for the CLI.
package api
