package blobstore

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"vodconverter/internal/logging"
	"vodconverter/internal/services"
)

// MinioOptions configures a MinIO connection.
type MinioOptions struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	UseSSL          bool
	Upload          UploadOptions
}

// MinioStore implements Store with the MinIO client.
type MinioStore struct {
	client *minio.Client
	bucket string
	upload UploadOptions
	logger *slog.Logger
}

// NewMinio connects to a MinIO (or other S3-compatible) server.
func NewMinio(opts MinioOptions, bucket string, logger *slog.Logger) (*MinioStore, error) {
	host, secure := splitEndpoint(opts.Endpoint, opts.UseSSL)
	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "blobstore", "minio", "create client", err)
	}
	return &MinioStore{
		client: client,
		bucket: bucket,
		upload: opts.Upload,
		logger: logging.NewComponentLogger(logger, "blobstore"),
	}, nil
}

// splitEndpoint accepts "host:port" or a URL and reports whether TLS is used.
func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	endpoint = strings.TrimSpace(endpoint)
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	default:
		return strings.TrimSuffix(endpoint, "/"), useSSL
	}
}

func isMinioNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

func (s *MinioStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "blobstore", "download", key, err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller reads.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isMinioNotFound(err) {
			return nil, services.Wrap(services.ErrNotFound, "blobstore", "download", key, err)
		}
		return nil, services.Wrap(services.ErrStore, "blobstore", "download", key, err)
	}
	return obj, nil
}

func (s *MinioStore) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, services.Wrap(services.ErrStore, "blobstore", "list", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *MinioStore) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	objects := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objects <- minio.ObjectInfo{Key: key}
	}
	close(objects)

	var failed []string
	var reason string
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		failed = append(failed, rerr.ObjectName)
		if reason == "" && rerr.Err != nil {
			reason = rerr.Err.Error()
		}
	}
	if len(failed) > 0 {
		return services.Wrap(services.ErrStore, "blobstore", "delete", "", &DeleteError{Failed: failed, Reason: reason})
	}
	return nil
}

func (s *MinioStore) Upload(ctx context.Context, key, localPath string) error {
	info, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: ContentType,
		PartSize:    uint64(s.upload.partSizeBytes()),
		NumThreads:  uint(s.upload.concurrency()),
	})
	if err != nil {
		return services.Wrap(services.ErrStore, "blobstore", "upload", key, err)
	}
	logging.WithContext(ctx, s.logger).Info("object uploaded",
		logging.String("key", key),
		logging.Int64("size", info.Size),
	)
	return nil
}
