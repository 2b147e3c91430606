// Package blobstore adapts object storage for the conversion pipeline.
//
// Two drivers implement Store: S3Store on aws-sdk-go-v2 (multipart uploads
// through feature/s3/manager, paginated listing, batched deletes) and
// MinioStore on minio-go. Missing objects map to services.ErrNotFound and
// every other failure to services.ErrStore.
package blobstore
