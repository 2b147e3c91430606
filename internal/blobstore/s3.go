package blobstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"vodconverter/internal/logging"
	"vodconverter/internal/services"
)

// maxDeleteBatch is the S3 DeleteObjects per-request limit.
const maxDeleteBatch = 1000

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Store implements Store on an S3-compatible bucket.
type S3Store struct {
	client   S3API
	uploader *manager.Uploader
	bucket   string
	logger   *slog.Logger
}

// NewS3 returns a Store backed by bucket.
func NewS3(client S3API, bucket string, opts UploadOptions, logger *slog.Logger) *S3Store {
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = opts.partSizeBytes()
		u.Concurrency = opts.concurrency()
		u.LeavePartsOnError = false
	})
	return &S3Store{
		client:   client,
		uploader: uploader,
		bucket:   bucket,
		logger:   logging.NewComponentLogger(logger, "blobstore"),
	}
}

func (s *S3Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, services.Wrap(services.ErrNotFound, "blobstore", "download", key, err)
		}
		return nil, services.Wrap(services.ErrStore, "blobstore", "download", key, err)
	}
	return out.Body, nil
}

func (s *S3Store) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, services.Wrap(services.ErrStore, "blobstore", "list", prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}

func (s *S3Store) DeleteMany(ctx context.Context, keys []string) error {
	var failed []string
	var reason string
	for _, batch := range chunk(keys, maxDeleteBatch) {
		ids := make([]types.ObjectIdentifier, 0, len(batch))
		for _, key := range batch {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(key)})
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return services.Wrap(services.ErrStore, "blobstore", "delete", "batch request", err)
		}
		for _, e := range out.Errors {
			failed = append(failed, aws.ToString(e.Key))
			if reason == "" {
				reason = aws.ToString(e.Code) + ": " + aws.ToString(e.Message)
			}
		}
	}
	if len(failed) > 0 {
		return services.Wrap(services.ErrStore, "blobstore", "delete", "", &DeleteError{Failed: failed, Reason: reason})
	}
	return nil
}

func (s *S3Store) Upload(ctx context.Context, key, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return services.Wrap(services.ErrStore, "blobstore", "upload", "open "+localPath, err)
	}
	defer file.Close()

	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(ContentType),
	})
	if err != nil {
		return services.Wrap(services.ErrStore, "blobstore", "upload", key, err)
	}
	logging.WithContext(ctx, s.logger).Info("object uploaded",
		logging.String("key", key),
		logging.String("location", result.Location),
	)
	return nil
}
