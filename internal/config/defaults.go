package config

const (
	defaultWorkspaceDir        = ""
	defaultStateDir            = "~/.local/share/vodconverter"
	defaultStorageDriver       = "s3"
	defaultBucket              = "videos-bucket"
	defaultPartSizeMiB         = 5
	defaultUploadConcurrency   = 4
	defaultQueueDriver         = "sqs"
	defaultPollingWaitTimeMS   = 1000
	defaultWaitTimeSeconds     = 20
	defaultMaxMessages         = 1
	defaultRedisKey            = "video-converter"
	defaultCatalogTimeout      = 5
	defaultCatalogMaxRedirects = 5
	defaultFFmpegPath          = "ffmpeg"
	defaultFFprobePath         = "ffprobe"
	defaultConcurrency         = 1
	defaultErrorRetryInterval  = 10
	defaultStaleWorkspaceHours = 24
	defaultLogFormat           = "auto"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			StateDir:     defaultStateDir,
		},
		Storage: Storage{
			Driver:            defaultStorageDriver,
			Bucket:            defaultBucket,
			UsePathStyle:      true,
			PartSizeMiB:       defaultPartSizeMiB,
			UploadConcurrency: defaultUploadConcurrency,
		},
		Queue: Queue{
			Driver:            defaultQueueDriver,
			PollingWaitTimeMS: defaultPollingWaitTimeMS,
			WaitTimeSeconds:   defaultWaitTimeSeconds,
			MaxMessages:       defaultMaxMessages,
			RedisKey:          defaultRedisKey,
		},
		Catalog: Catalog{
			RequestTimeout: defaultCatalogTimeout,
			MaxRedirects:   defaultCatalogMaxRedirects,
		},
		Transcode: Transcode{
			FFmpegPath:        defaultFFmpegPath,
			FFprobePath:       defaultFFprobePath,
			FailOnEmptyLadder: true,
		},
		Workflow: Workflow{
			Concurrency:         defaultConcurrency,
			ErrorRetryInterval:  defaultErrorRetryInterval,
			StaleWorkspaceHours: defaultStaleWorkspaceHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
