// Package preflight provides the startup checks the worker runs before it
// polls for messages.
//
// Directory access for the workspace and state directories and the ffmpeg
// and ffprobe binaries are blocking: a failure stops `vodconverter run`
// before any message is received. Catalog reachability is advisory; it is
// logged but the worker starts anyway, since status calls already tolerate
// an unavailable catalog.
package preflight
