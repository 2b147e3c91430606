// Package metrics exports worker activity to Prometheus and serves the
// scrape and health endpoints.
package metrics
