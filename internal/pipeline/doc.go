// Package pipeline converts a single queued upload into published renditions.
//
// A run moves through received, started, staged, transcoded, purged,
// uploaded, notified and cleaned. Each step's failure jumps to the failure
// path, which removes the workspace, acknowledges the message and reports
// CONVERSION_FAILED so a bad message is never redelivered. A successful run
// returns nil and leaves the acknowledgment to the caller.
//
// Purging deletes everything under the asset folder before the new
// renditions are uploaded under a fresh path token, so at most one rendition
// set is live per asset.
package pipeline
