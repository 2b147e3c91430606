// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and Parse decodes its document. Result helpers expose
// the first video stream height (used to pick the rendition ladder), stream
// counts and container duration.
package ffprobe
