package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Required values depend on the
// selected storage and queue drivers.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateKeys(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStorage() error {
	switch c.Storage.Driver {
	case "s3":
		if err := c.requireAWS("storage.driver = \"s3\""); err != nil {
			return err
		}
	case "minio":
		if c.StorageEndpoint() == "" {
			return errors.New("storage.endpoint (or AWS_ENDPOINT) must be set when storage.driver is \"minio\"")
		}
		if c.AWS.AccessKeyID == "" || c.AWS.SecretAccessKey == "" {
			return errors.New("aws.access_key_id and aws.secret_access_key must be set when storage.driver is \"minio\"")
		}
	default:
		return fmt.Errorf("storage.driver: unsupported value %q (expected s3 or minio)", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return errors.New("storage.bucket must be set")
	}
	if c.Storage.PartSizeMiB < 5 {
		return errors.New("storage.part_size_mib must be at least 5")
	}
	return ensurePositiveMap(map[string]int{
		"storage.upload_concurrency": c.Storage.UploadConcurrency,
	})
}

func (c *Config) validateQueue() error {
	switch c.Queue.Driver {
	case "sqs":
		if c.Queue.QueueURL == "" {
			return errors.New("queue.queue_url is required. Set SQS_VIDEO_CONVERTER_QUEUE_URL or edit the config file (create with 'vodconverter config init')")
		}
		if err := c.requireAWS("queue.driver = \"sqs\""); err != nil {
			return err
		}
		if c.Queue.WaitTimeSeconds < 0 || c.Queue.WaitTimeSeconds > 20 {
			return errors.New("queue.wait_time_seconds must be between 0 and 20")
		}
		if c.Queue.MaxMessages < 1 || c.Queue.MaxMessages > 10 {
			return errors.New("queue.max_messages must be between 1 and 10")
		}
		if c.Queue.VisibilityTimeout < 0 {
			return errors.New("queue.visibility_timeout must not be negative")
		}
	case "redis":
		if c.Queue.RedisAddr == "" {
			return errors.New("queue.redis_addr (or REDIS_ADDR) must be set when queue.driver is \"redis\"")
		}
	default:
		return fmt.Errorf("queue.driver: unsupported value %q (expected sqs or redis)", c.Queue.Driver)
	}
	if c.Queue.PollingWaitTimeMS < 0 {
		return errors.New("queue.polling_wait_time_ms must not be negative")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.BaseURL == "" {
		return errors.New("catalog.base_url is required. Set STREAMING_BASE_URL or edit the config file")
	}
	parsed, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("catalog.base_url %q must be an absolute URL", c.Catalog.BaseURL)
	}
	if c.Catalog.MaxRedirects < 0 {
		return errors.New("catalog.max_redirects must not be negative")
	}
	return ensurePositiveMap(map[string]int{
		"catalog.request_timeout": c.Catalog.RequestTimeout,
	})
}

func (c *Config) validateKeys() error {
	if c.Keys.Secret == "" {
		return errors.New("keys.secret is required. Set MD5_SECRET or edit the config file")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.concurrency":          c.Workflow.Concurrency,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.JobTimeout < 0 {
		return errors.New("workflow.job_timeout must not be negative")
	}
	if c.Workflow.StaleWorkspaceHours < 0 {
		return errors.New("workflow.stale_workspace_hours must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func (c *Config) requireAWS(reason string) error {
	if c.AWS.Region == "" {
		return fmt.Errorf("aws.region (or AWS_REGION) must be set when %s", reason)
	}
	if c.AWS.AccessKeyID == "" || c.AWS.SecretAccessKey == "" {
		return fmt.Errorf("aws.access_key_id and aws.secret_access_key (or AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY) must be set when %s", reason)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
