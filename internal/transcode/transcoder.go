package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"vodconverter/internal/logging"
	"vodconverter/internal/media/ffprobe"
	"vodconverter/internal/services"
)

type probeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Output is a finished rendition on local disk.
type Output struct {
	Quality Quality
	Path    string
}

// Transcoder probes sources and renders the quality ladder with ffmpeg.
type Transcoder struct {
	ffmpeg  string
	ffprobe string
	run     commandRunner
	probe   probeFunc
	logger  *slog.Logger
}

// Option customises a Transcoder.
type Option func(*Transcoder)

// WithCommandRunner replaces the ffmpeg executor.
func WithCommandRunner(r func(ctx context.Context, name string, args ...string) error) Option {
	return func(t *Transcoder) {
		if r != nil {
			t.run = r
		}
	}
}

// WithProbe replaces the ffprobe inspector.
func WithProbe(fn func(ctx context.Context, binary, path string) (ffprobe.Result, error)) Option {
	return func(t *Transcoder) {
		if fn != nil {
			t.probe = fn
		}
	}
}

// New builds a Transcoder using the given binaries.
func New(ffmpegBinary, ffprobeBinary string, logger *slog.Logger, opts ...Option) *Transcoder {
	t := &Transcoder{
		ffmpeg:  ffmpegBinary,
		ffprobe: ffprobeBinary,
		run:     defaultCommandRunner,
		probe:   ffprobe.Inspect,
		logger:  logging.NewComponentLogger(logger, "transcode"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Probe returns the pixel height of the source's video stream.
func (t *Transcoder) Probe(ctx context.Context, path string) (int, error) {
	result, err := t.probe(ctx, t.ffprobe, path)
	if err != nil {
		return 0, services.Wrap(services.ErrProbe, "transcode", "probe", filepath.Base(path), err)
	}
	height, ok := result.VideoHeight()
	if !ok {
		return 0, services.Wrap(services.ErrProbe, "transcode", "probe", "no video stream with a height", nil)
	}
	logging.WithContext(ctx, t.logger).Debug("source probed",
		logging.Int("height", height),
		logging.Any("duration_seconds", result.DurationSeconds()),
	)
	return height, nil
}

// SelectQualities returns the ladder rungs the source height supports.
func (t *Transcoder) SelectQualities(sourceHeight int) []Quality {
	return SelectQualities(sourceHeight)
}

// ConvertAll renders every quality concurrently into outDir. The first
// failure cancels the others; ConvertAll returns only after every ffmpeg
// process has exited. Outputs follow the order of qualities.
func (t *Transcoder) ConvertAll(ctx context.Context, src, outDir string, qualities []Quality) ([]Output, error) {
	outputs := make([]Output, len(qualities))
	group, groupCtx := errgroup.WithContext(ctx)
	logger := logging.WithContext(ctx, t.logger)

	for i, q := range qualities {
		dst := filepath.Join(outDir, q.FileName())
		group.Go(func() error {
			started := time.Now()
			logger.Info("rendition started", logging.String("quality", q.Name))
			if err := t.run(groupCtx, t.ffmpeg, BuildArgs(src, dst, q)...); err != nil {
				return services.Wrap(services.ErrTranscode, "transcode", "convert", "quality "+q.Name, err)
			}
			logger.Info("rendition finished",
				logging.String("quality", q.Name),
				logging.Duration("elapsed", time.Since(started)),
			)
			outputs[i] = Output{Quality: q, Path: dst}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, services.Wrap(services.ErrTimeout, "transcode", "convert", "job deadline reached", ctx.Err())
		case ctx.Err() != nil:
			return nil, fmt.Errorf("transcode: convert: job canceled: %w", ctx.Err())
		}
		return nil, err
	}
	return outputs, nil
}
