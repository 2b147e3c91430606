package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"vodconverter/internal/blobstore"
	"vodconverter/internal/catalog"
	"vodconverter/internal/ledger"
	"vodconverter/internal/logging"
	"vodconverter/internal/queue"
	"vodconverter/internal/services"
	"vodconverter/internal/transcode"
)

// Workspace owns the per-job scratch directory.
type Workspace interface {
	Create() (string, error)
	WriteBinary(path string, r io.Reader) (int64, error)
	Remove(path string)
}

// Transcoder probes the source and renders the ladder.
type Transcoder interface {
	Probe(ctx context.Context, path string) (int, error)
	SelectQualities(sourceHeight int) []transcode.Quality
	ConvertAll(ctx context.Context, src, outDir string, qualities []transcode.Quality) ([]transcode.Output, error)
}

// KeyDeriver names an asset's storage folder and publications.
type KeyDeriver interface {
	RenditionPathToken() string
	FolderPrefix(assetID int64) string
	StorageKey(assetID int64, token, fileName string) string
}

// Acknowledger removes a message from its transport.
type Acknowledger interface {
	Ack(ctx context.Context, msg queue.Message) error
}

// Journal records job history. Errors are logged and never fail a job.
type Journal interface {
	Begin(ctx context.Context, job ledger.Job) (int64, error)
	Advance(ctx context.Context, id int64, state string) error
	Complete(ctx context.Context, id int64, state, pathToken string, qualities []string) error
	Fail(ctx context.Context, id int64, state, kind, message string) error
}

// Observer receives timing and outcome signals.
type Observer interface {
	JobStarted()
	JobFinished(outcome string, elapsed time.Duration)
	MessageRejected()
	ObserveTransition(state string, elapsed time.Duration)
	AddRenditions(n int)
}

// Dependencies are the collaborators a Pipeline composes. Journal and
// Observer are optional.
type Dependencies struct {
	Workspace  Workspace
	Transcoder Transcoder
	Store      blobstore.Store
	Keys       KeyDeriver
	Catalog    catalog.Notifier
	Acker      Acknowledger
	Journal    Journal
	Observer   Observer
	Logger     *slog.Logger
}

// Options tune job behaviour.
type Options struct {
	// FailOnEmptyLadder fails sources shorter than the lowest rung instead of
	// publishing zero renditions.
	FailOnEmptyLadder bool
	// JobTimeout bounds download through upload. Zero disables it.
	JobTimeout time.Duration
}

// Pipeline converts one message's source into published renditions.
type Pipeline struct {
	deps   Dependencies
	opts   Options
	logger *slog.Logger
	tracer trace.Tracer
}

// New validates deps and returns a Pipeline.
func New(deps Dependencies, opts Options) (*Pipeline, error) {
	switch {
	case deps.Workspace == nil:
		return nil, errors.New("pipeline: workspace is required")
	case deps.Transcoder == nil:
		return nil, errors.New("pipeline: transcoder is required")
	case deps.Store == nil:
		return nil, errors.New("pipeline: blob store is required")
	case deps.Keys == nil:
		return nil, errors.New("pipeline: key deriver is required")
	case deps.Catalog == nil:
		return nil, errors.New("pipeline: catalog notifier is required")
	case deps.Acker == nil:
		return nil, errors.New("pipeline: acknowledger is required")
	}
	return &Pipeline{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(deps.Logger, "pipeline"),
		tracer: otel.Tracer("vodconverter/pipeline"),
	}, nil
}

// Handle runs one message to a terminal state.
//
// A nil return means the job completed and the caller must acknowledge msg.
// On any error the pipeline has already removed the workspace, acknowledged
// msg and, when the request parsed, reported CONVERSION_FAILED.
func (p *Pipeline) Handle(ctx context.Context, msg queue.Message) error {
	ctx = services.WithMessageID(ctx, msg.ID)
	if len(msg.Attributes) > 0 {
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Attributes))
	}
	ctx, span := p.tracer.Start(ctx, "pipeline.handle",
		trace.WithAttributes(attribute.String("messaging.message.id", msg.ID)))
	defer span.End()
	ctx = services.WithRequestID(ctx, correlationID(span))

	req, err := ParseRequest(msg.Body)
	if err != nil {
		p.reject(ctx, msg, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed message")
		return err
	}

	ctx = services.WithJobID(ctx, req.JobID)
	ctx = services.WithAssetID(ctx, req.AssetID)
	span.SetAttributes(
		attribute.String("vod.job_id", req.JobID),
		attribute.Int64("vod.asset_id", req.AssetID),
		attribute.String("vod.source_key", req.SourceKey),
	)

	r := p.newRun(ctx, msg, req)
	if err := r.execute(ctx); err != nil {
		r.fail(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, services.Kind(err))
		return err
	}
	r.succeed(ctx)
	span.SetStatus(codes.Ok, "")
	return nil
}

// correlationID reuses the producer's trace id when one was propagated.
func correlationID(span trace.Span) string {
	if sc := span.SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return uuid.NewString()
}

// reject drops a message whose body cannot be trusted. No status is reported
// because there is no usable job id.
func (p *Pipeline) reject(ctx context.Context, msg queue.Message, cause error) {
	logger := logging.WithContext(ctx, p.logger)
	logging.ErrorWithContext(logger, "malformed message dropped", "message_rejected",
		logging.Error(cause),
		logging.String(logging.FieldErrorKind, services.Kind(cause)),
		logging.Int("body_bytes", len(msg.Body)),
		logging.String(logging.FieldErrorHint, "fix the producer; the message will not be retried"),
	)

	detached := context.WithoutCancel(ctx)
	if err := p.deps.Acker.Ack(detached, msg); err != nil {
		logging.WarnWithContext(logger, "ack of malformed message failed", "ack_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "message may be redelivered and rejected again"),
		)
	}
	if p.deps.Journal != nil {
		id, err := p.deps.Journal.Begin(detached, ledger.Job{MessageID: msg.ID, State: StateReceived.String()})
		if err == nil {
			err = p.deps.Journal.Fail(detached, id, StateReceived.String(), services.Kind(cause), cause.Error())
		}
		if err != nil {
			logger.Warn("ledger write failed", logging.Error(err))
		}
	}
	if p.deps.Observer != nil {
		p.deps.Observer.MessageRejected()
	}
}
