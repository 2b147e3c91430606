// Package config loads, normalizes, and validates converter configuration.
//
// It supplies repository defaults, expands user paths, reads TOML files, loads
// a .env file when present, and honours the deployment environment variables
// (AWS_REGION, SQS_VIDEO_CONVERTER_QUEUE_URL, STREAMING_BASE_URL, MD5_SECRET and
// friends) as fallbacks. Missing required values fail Load so the worker never
// starts half configured.
package config
