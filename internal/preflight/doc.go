// Package preflight provides readiness checks for the external tools and
// filesystem paths scribe depends on.
//
// The same checks back "scribe check", the server's startup log, and the
// dependency section of the status endpoint.
package preflight
