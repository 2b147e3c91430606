// Package logs reads the worker's mirrored log file.
//
// Tail returns the last N lines or resumes from a byte offset, optionally
// waiting for new output. Filters narrow JSON log lines to one job or episode
// using the structured keys emitted by the logging package.
package logs
