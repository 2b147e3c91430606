// Package catalog talks to the streaming catalog API: it reports upload
// process status transitions and publishes the rendition path token and
// quality list on the asset.
//
// Every call is an independent, bounded HTTP request. Failures are returned
// wrapped in services.ErrNotify so the pipeline can log them without
// changing a job's outcome.
package catalog
