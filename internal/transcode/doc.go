// Package transcode turns a source video into the fixed H.264/MP4 rendition
// ladder (480p, 720p, 1080p) using ffprobe and ffmpeg.
//
// Only rungs no taller than the source are produced. ConvertAll fans out one
// ffmpeg process per rung and fails fast: the first error cancels the rest,
// and nothing is returned until every process has exited.
package transcode
