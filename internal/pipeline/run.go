package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"vodconverter/internal/catalog"
	"vodconverter/internal/ledger"
	"vodconverter/internal/logging"
	"vodconverter/internal/queue"
	"vodconverter/internal/services"
	"vodconverter/internal/transcode"
	"vodconverter/internal/workspace"
)

// run is the mutable state of one Handle call.
type run struct {
	p      *Pipeline
	msg    queue.Message
	req    Request
	logger *slog.Logger

	journalID  int64
	state      State
	started    time.Time
	stateSince time.Time
	dir        string
	token      string
	qualities  []string
}

func (p *Pipeline) newRun(ctx context.Context, msg queue.Message, req Request) *run {
	now := time.Now()
	r := &run{
		p:          p,
		msg:        msg,
		req:        req,
		logger:     logging.WithContext(ctx, p.logger),
		state:      StateReceived,
		started:    now,
		stateSince: now,
	}
	if p.deps.Observer != nil {
		p.deps.Observer.JobStarted()
	}
	if p.deps.Journal != nil {
		id, err := p.deps.Journal.Begin(ctx, ledger.Job{
			MessageID: msg.ID,
			JobID:     req.JobID,
			AssetID:   req.AssetID,
			SourceKey: req.SourceKey,
			State:     StateReceived.String(),
		})
		if err != nil {
			r.ledgerWarn(err)
		}
		r.journalID = id
	}
	return r
}

func (r *run) execute(ctx context.Context) error {
	r.logger.Info("conversion started", logging.String("source_key", r.req.SourceKey))
	r.reportStatus(ctx, catalog.StatusStarted)
	r.advance(ctx, StateStarted)

	jobCtx := ctx
	if r.p.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, r.p.opts.JobTimeout)
		defer cancel()
	}

	source, err := r.stage(jobCtx)
	if err != nil {
		return err
	}
	r.advance(ctx, StateStaged)

	outputs, err := r.transcode(jobCtx, source)
	if err != nil {
		return err
	}
	r.advance(ctx, StateTranscoded)

	if err := r.purge(jobCtx); err != nil {
		return err
	}
	r.advance(ctx, StatePurged)

	if err := r.upload(jobCtx, outputs); err != nil {
		return err
	}
	r.advance(ctx, StateUploaded)

	// The renditions are live from here on; the catalog must learn about
	// them even if the worker is stopping.
	notifyCtx := context.WithoutCancel(ctx)
	r.reportStatus(notifyCtx, catalog.StatusCompleted)
	r.publishMetadata(notifyCtx)
	r.advance(ctx, StateNotified)

	r.p.deps.Workspace.Remove(r.dir)
	r.dir = ""
	r.advance(ctx, StateCleaned)
	return nil
}

// stage creates the workspace and streams the source object into it.
func (r *run) stage(ctx context.Context) (string, error) {
	dir, err := r.p.deps.Workspace.Create()
	if err != nil {
		return "", err
	}
	r.dir = dir

	body, err := r.p.deps.Store.Download(ctx, r.req.SourceKey)
	if err != nil {
		return "", err
	}
	defer body.Close()

	source := workspace.SourcePath(dir)
	n, err := r.p.deps.Workspace.WriteBinary(source, body)
	if err != nil {
		return "", err
	}
	r.logger.Debug("source staged", logging.String("path", source), logging.Int64("bytes", n))
	return source, nil
}

func (r *run) transcode(ctx context.Context, source string) ([]transcode.Output, error) {
	height, err := r.p.deps.Transcoder.Probe(ctx, source)
	if err != nil {
		return nil, err
	}
	qualities := r.p.deps.Transcoder.SelectQualities(height)
	if len(qualities) == 0 {
		if r.p.opts.FailOnEmptyLadder {
			return nil, services.Wrap(services.ErrEmptyLadder, "pipeline", "transcode",
				fmt.Sprintf("source height %d is below the lowest rung", height), nil)
		}
		logging.WarnWithContext(r.logger, "source below lowest rung; publishing no renditions", "empty_ladder",
			logging.Int("height", height),
			logging.String(logging.FieldImpact, "asset will have no playable renditions"),
			logging.String(logging.FieldErrorHint, "set transcode.fail_on_empty_ladder to reject such sources"),
		)
	}
	r.logger.Info("quality ladder selected",
		logging.Int("height", height),
		logging.Strings("qualities", transcode.Names(qualities)),
	)
	return r.p.deps.Transcoder.ConvertAll(ctx, source, r.dir, qualities)
}

// purge removes every earlier publication under the asset folder.
func (r *run) purge(ctx context.Context) error {
	prefix := r.p.deps.Keys.FolderPrefix(r.req.AssetID)
	existing, err := r.p.deps.Store.ListByPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		r.logger.Debug("no prior renditions", logging.String("prefix", prefix))
		return nil
	}
	if err := r.p.deps.Store.DeleteMany(ctx, existing); err != nil {
		return services.Wrap(services.ErrStore, "pipeline", "purge", prefix, err)
	}
	r.logger.Info("prior renditions purged", logging.String("prefix", prefix), logging.Int("count", len(existing)))
	return nil
}

func (r *run) upload(ctx context.Context, outputs []transcode.Output) error {
	r.token = r.p.deps.Keys.RenditionPathToken()
	group, groupCtx := errgroup.WithContext(ctx)
	for _, out := range outputs {
		key := r.p.deps.Keys.StorageKey(r.req.AssetID, r.token, out.Quality.FileName())
		group.Go(func() error {
			if err := r.p.deps.Store.Upload(groupCtx, key, out.Path); err != nil {
				return err
			}
			r.logger.Info("rendition uploaded", logging.String("quality", out.Quality.Name), logging.String("key", key))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	qualities := make([]transcode.Quality, 0, len(outputs))
	for _, out := range outputs {
		qualities = append(qualities, out.Quality)
	}
	r.qualities = transcode.Names(qualities)
	if r.p.deps.Observer != nil {
		r.p.deps.Observer.AddRenditions(len(outputs))
	}
	return nil
}

func (r *run) publishMetadata(ctx context.Context) {
	meta := catalog.Metadata{FilePath: r.token, Qualities: r.qualities}
	if err := r.p.deps.Catalog.PublishMetadata(ctx, r.req.AssetID, meta); err != nil {
		r.notifyWarn("metadata publish failed", err)
	}
}

func (r *run) reportStatus(ctx context.Context, status catalog.Status) {
	if err := r.p.deps.Catalog.ReportStatus(ctx, r.req.JobID, status); err != nil {
		r.notifyWarn("status report failed", err, logging.String("status", string(status)))
	}
}

func (r *run) advance(ctx context.Context, next State) {
	now := time.Now()
	elapsed := now.Sub(r.stateSince)
	r.state = next
	r.stateSince = now
	r.logger.Debug("state reached", logging.String(logging.FieldState, next.String()), logging.Duration("elapsed", elapsed))
	if r.p.deps.Observer != nil {
		r.p.deps.Observer.ObserveTransition(next.String(), elapsed)
	}
	if r.p.deps.Journal != nil && r.journalID != 0 {
		if err := r.p.deps.Journal.Advance(context.WithoutCancel(ctx), r.journalID, next.String()); err != nil {
			r.ledgerWarn(err)
		}
	}
}

func (r *run) succeed(ctx context.Context) {
	elapsed := time.Since(r.started)
	r.logger.Info("conversion completed",
		logging.String("path_token", r.token),
		logging.Strings("qualities", r.qualities),
		logging.Duration("elapsed", elapsed),
	)
	if r.p.deps.Journal != nil && r.journalID != 0 {
		if err := r.p.deps.Journal.Complete(context.WithoutCancel(ctx), r.journalID, r.state.String(), r.token, r.qualities); err != nil {
			r.ledgerWarn(err)
		}
	}
	if r.p.deps.Observer != nil {
		r.p.deps.Observer.JobFinished(OutcomeCompleted, elapsed)
	}
}

// fail removes the workspace, acknowledges the message and reports
// CONVERSION_FAILED, in that order. Ack and status use a context detached
// from cancellation so a timed-out or shutting-down job still terminates.
func (r *run) fail(ctx context.Context, cause error) {
	failedAt := r.state
	if r.dir != "" {
		r.p.deps.Workspace.Remove(r.dir)
		r.dir = ""
	}

	kind := services.Kind(cause)
	logging.ErrorWithContext(r.logger, "conversion failed", "conversion_failed",
		logging.Error(cause),
		logging.String(logging.FieldErrorKind, kind),
		logging.String(logging.FieldState, failedAt.String()),
		logging.Duration("elapsed", time.Since(r.started)),
		logging.String(logging.FieldErrorHint, hintFor(kind)),
	)

	detached := context.WithoutCancel(ctx)
	if err := r.p.deps.Acker.Ack(detached, r.msg); err != nil {
		logging.WarnWithContext(r.logger, "ack after failure failed", "ack_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "message may be redelivered and converted again"),
		)
	}
	r.reportStatus(detached, catalog.StatusFailed)

	if r.p.deps.Journal != nil && r.journalID != 0 {
		if err := r.p.deps.Journal.Fail(detached, r.journalID, failedAt.String(), kind, cause.Error()); err != nil {
			r.ledgerWarn(err)
		}
	}
	if r.p.deps.Observer != nil {
		r.p.deps.Observer.JobFinished(OutcomeFailed, time.Since(r.started))
	}
}

func (r *run) notifyWarn(msg string, err error, attrs ...logging.Attr) {
	attrs = append(attrs,
		logging.Error(err),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.String(logging.FieldImpact, "catalog state may be stale for this job"),
		logging.String(logging.FieldErrorHint, "check catalog.base_url reachability"),
	)
	logging.WarnWithContext(r.logger, msg, "catalog_notify_failed", attrs...)
}

func (r *run) ledgerWarn(err error) {
	logging.WarnWithContext(r.logger, "ledger write failed", "ledger_write_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "job history incomplete"),
		logging.String(logging.FieldErrorHint, "check state_dir permissions and disk space"),
	)
}

func hintFor(kind string) string {
	switch kind {
	case "not_found":
		return "source object is missing from the bucket"
	case "store":
		return "check bucket access and storage credentials"
	case "workspace":
		return "check workspace_dir free space and permissions"
	case "probe":
		return "source may not contain a video stream"
	case "transcode":
		return "see the ffmpeg output in the error"
	case "empty_ladder":
		return "source resolution is below 480p"
	case "timeout":
		return "raise workflow.job_timeout or check storage throughput"
	case "canceled":
		return "worker was stopping; the upload should be resent"
	default:
		return "check logs for details"
	}
}
