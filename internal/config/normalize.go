package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAWS()
	c.normalizeStorage()
	if err := c.normalizeQueue(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeKeys()
	c.normalizeTranscode()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.WorkspaceDir, err = expandPath(strings.TrimSpace(c.Paths.WorkspaceDir)); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAWS() {
	c.AWS.Region = envFallback(c.AWS.Region, "AWS_REGION")
	c.AWS.Endpoint = envFallback(c.AWS.Endpoint, "AWS_ENDPOINT")
	c.AWS.AccessKeyID = envFallback(c.AWS.AccessKeyID, "AWS_ACCESS_KEY_ID")
	c.AWS.SecretAccessKey = envFallback(c.AWS.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
}

func (c *Config) normalizeStorage() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = defaultStorageDriver
	}
	c.Storage.Bucket = envFallback(c.Storage.Bucket, "S3_BUCKET")
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = defaultBucket
	}
	c.Storage.Endpoint = envFallback(c.Storage.Endpoint, "S3_ENDPOINT")
}

func (c *Config) normalizeQueue() error {
	c.Queue.Driver = strings.ToLower(strings.TrimSpace(c.Queue.Driver))
	if c.Queue.Driver == "" {
		c.Queue.Driver = defaultQueueDriver
	}
	c.Queue.QueueURL = envFallback(c.Queue.QueueURL, "SQS_VIDEO_CONVERTER_QUEUE_URL")
	c.Queue.RedisAddr = envFallback(c.Queue.RedisAddr, "REDIS_ADDR")
	c.Queue.RedisKey = strings.TrimSpace(c.Queue.RedisKey)
	if c.Queue.RedisKey == "" {
		c.Queue.RedisKey = defaultRedisKey
	}
	if value, ok := os.LookupEnv("VIDEO_CONVERTER_CONSUMER_POLLING_WAIT_TIME_MS"); ok && strings.TrimSpace(value) != "" {
		ms, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("VIDEO_CONVERTER_CONSUMER_POLLING_WAIT_TIME_MS: %w", err)
		}
		c.Queue.PollingWaitTimeMS = ms
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	c.Catalog.BaseURL = strings.TrimRight(envFallback(c.Catalog.BaseURL, "STREAMING_BASE_URL"), "/")
}

func (c *Config) normalizeKeys() {
	if strings.TrimSpace(c.Keys.Secret) == "" {
		if value, ok := os.LookupEnv("MD5_SECRET"); ok {
			c.Keys.Secret = value
		}
	}
}

func (c *Config) normalizeTranscode() {
	c.Transcode.FFmpegPath = strings.TrimSpace(c.Transcode.FFmpegPath)
	if c.Transcode.FFmpegPath == "" {
		c.Transcode.FFmpegPath = defaultFFmpegPath
	}
	c.Transcode.FFprobePath = strings.TrimSpace(c.Transcode.FFprobePath)
	if c.Transcode.FFprobePath == "" {
		c.Transcode.FFprobePath = defaultFFprobePath
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(envFallback(c.Logging.Level, "LOG_LEVEL"))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// envFallback returns the trimmed value, or the named environment variable when
// the value is empty.
func envFallback(value, key string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	if env, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(env)
	}
	return ""
}
