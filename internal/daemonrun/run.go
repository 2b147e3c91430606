package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"vodconverter/internal/awsclient"
	"vodconverter/internal/blobstore"
	"vodconverter/internal/catalog"
	"vodconverter/internal/config"
	"vodconverter/internal/keys"
	"vodconverter/internal/ledger"
	"vodconverter/internal/logging"
	"vodconverter/internal/metrics"
	"vodconverter/internal/pipeline"
	"vodconverter/internal/preflight"
	"vodconverter/internal/queue"
	"vodconverter/internal/transcode"
	"vodconverter/internal/workflow"
	"vodconverter/internal/workspace"
)

const shutdownTimeout = 10 * time.Second

// Options configures worker process runtime behavior.
type Options struct {
	LogLevel string
	// SkipPreflight starts without directory and binary checks.
	SkipPreflight bool
}

// Run starts the converter worker and blocks until SIGINT/SIGTERM or ctx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	if !opts.SkipPreflight {
		if err := runPreflight(signalCtx, cfg, logger); err != nil {
			return err
		}
	}

	ws := workspace.New(cfg.WorkspaceRoot(), logger)
	if err := ws.Lock(cfg.LockPath()); err != nil {
		return err
	}
	defer func() { _ = ws.Unlock() }()
	sweepStaleWorkspaces(signalCtx, ws, cfg, logger)

	journal, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		logger.Error("open job ledger", logging.Error(err))
		return err
	}
	defer journal.Close()
	if n, err := journal.MarkAbandoned(signalCtx); err != nil {
		logger.Warn("ledger cleanup failed", logging.Error(err))
	} else if n > 0 {
		logger.Info("marked abandoned jobs", logging.Int64("count", n))
	}

	rt, err := buildRuntime(signalCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = rt.consumer.Close() }()

	recorder := metrics.New()
	conv, err := pipeline.New(pipeline.Dependencies{
		Workspace:  ws,
		Transcoder: transcode.New(cfg.Transcode.FFmpegPath, cfg.Transcode.FFprobePath, logger),
		Store:      rt.store,
		Keys:       keys.New(cfg.Keys.Secret),
		Catalog:    rt.catalog,
		Acker:      rt.consumer,
		Journal:    journal,
		Observer:   recorder,
		Logger:     logger,
	}, pipeline.Options{
		FailOnEmptyLadder: cfg.Transcode.FailOnEmptyLadder,
		JobTimeout:        cfg.JobTimeout(),
	})
	if err != nil {
		return err
	}

	manager := workflow.NewManager(rt.consumer, conv, workflow.Options{
		Concurrency:        cfg.Workflow.Concurrency,
		PollingWait:        cfg.PollingWait(),
		ErrorRetryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
	}, logger)

	if cfg.Metrics.Bind != "" {
		srv, err := metrics.NewServer(cfg.Metrics.Bind, recorder, func() (bool, string) {
			h := manager.Health()
			return h.Ready, h.Detail
		}, logger)
		if err != nil {
			return err
		}
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := manager.Start(signalCtx); err != nil {
		return err
	}
	logger.Info("vodconverter worker running",
		logging.String(logging.FieldEventType, "worker_started"),
		logging.String("queue_driver", cfg.Queue.Driver),
		logging.String("storage_driver", cfg.Storage.Driver),
		logging.String("bucket", cfg.Storage.Bucket),
		logging.Int("concurrency", cfg.Workflow.Concurrency),
	)

	<-signalCtx.Done()
	logger.Info("vodconverter worker shutting down")
	manager.Stop()
	status := manager.Status()
	logger.Info("worker stopped",
		logging.Int64("processed", status.Processed),
		logging.Int64("failed", status.Failed),
	)
	return nil
}

func runPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	results := preflight.RunAll(ctx, cfg)
	for _, r := range results {
		attrs := []logging.Attr{
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
		}
		switch {
		case r.Passed:
			logger.Debug("preflight passed", logging.Args(attrs...)...)
		case r.Advisory:
			logging.WarnWithContext(logger, "preflight advisory failed", "preflight_advisory", append(attrs,
				logging.String(logging.FieldImpact, "status updates may fail until the service is reachable"),
			)...)
		default:
			logging.ErrorWithContext(logger, "preflight failed", "preflight_failed", attrs...)
		}
	}
	return preflight.Summarize(results)
}

func sweepStaleWorkspaces(ctx context.Context, ws *workspace.Manager, cfg *config.Config, logger *slog.Logger) {
	if cfg.Workflow.StaleWorkspaceHours <= 0 {
		return
	}
	result := ws.SweepStale(ctx, time.Duration(cfg.Workflow.StaleWorkspaceHours)*time.Hour)
	if len(result.Removed) > 0 || len(result.Errors) > 0 {
		logger.Info("stale workspace sweep finished",
			logging.Int("removed", len(result.Removed)),
			logging.Int("failed", len(result.Errors)),
		)
	}
}

type clients struct {
	store    blobstore.Store
	consumer queue.Consumer
	catalog  catalog.Notifier
}

// buildRuntime constructs the process-wide clients once at startup.
func buildRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*clients, error) {
	rt := &clients{}
	uploadOpts := blobstore.UploadOptions{
		PartSizeMiB: cfg.Storage.PartSizeMiB,
		Concurrency: cfg.Storage.UploadConcurrency,
	}

	needsAWS := cfg.Storage.Driver == "s3" || cfg.Queue.Driver == queue.DriverSQS
	var deps queue.Dependencies
	deps.Logger = logger
	if needsAWS {
		awsCfg, err := awsclient.Load(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		if cfg.Storage.Driver == "s3" {
			client := awsclient.NewS3(awsCfg, cfg.StorageEndpoint(), cfg.Storage.UsePathStyle)
			rt.store = blobstore.NewS3(client, cfg.Storage.Bucket, uploadOpts, logger)
		}
		if cfg.Queue.Driver == queue.DriverSQS {
			deps.SQS = awsclient.NewSQS(awsCfg, cfg.AWS.Endpoint)
		}
	}

	if cfg.Storage.Driver == "minio" {
		store, err := blobstore.NewMinio(blobstore.MinioOptions{
			Endpoint:        cfg.StorageEndpoint(),
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Region:          cfg.AWS.Region,
			UseSSL:          cfg.Storage.UseSSL,
			Upload:          uploadOpts,
		}, cfg.Storage.Bucket, logger)
		if err != nil {
			return nil, err
		}
		rt.store = store
	}
	if rt.store == nil {
		return nil, errors.New("no blob store configured")
	}

	consumer, err := queue.New(cfg.Queue, deps)
	if err != nil {
		return nil, err
	}
	rt.consumer = consumer

	client, err := catalog.New(catalog.Options{
		BaseURL:      cfg.Catalog.BaseURL,
		Timeout:      cfg.CatalogTimeout(),
		MaxRedirects: cfg.Catalog.MaxRedirects,
	}, logger)
	if err != nil {
		_ = consumer.Close()
		return nil, err
	}
	rt.catalog = client
	return rt, nil
}
