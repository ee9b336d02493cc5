// Package main hosts the scribe CLI entrypoint and command graph.
//
// The Cobra command tree runs the HTTP server, transcribes local files and
// remote videos in-process, inspects and prunes the transcript cache, and
// scaffolds configuration. Configuration is resolved once per invocation so
// subcommands only deal with presentation.
package main
