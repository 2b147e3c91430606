package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"vodconverter/internal/media/ffprobe"
)

// FakeProbe returns a probe func reporting a single video stream of height.
// A height <= 0 reports an audio-only source.
func FakeProbe(height int) func(context.Context, string, string) (ffprobe.Result, error) {
	return func(context.Context, string, string) (ffprobe.Result, error) {
		if height <= 0 {
			return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "audio", CodecName: "aac"}}}, nil
		}
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{CodecType: "video", CodecName: "h264", Width: height * 16 / 9, Height: height}},
			Format:  ffprobe.Format{Duration: "12.5"},
		}, nil
	}
}

// FakeFFmpeg writes a small file at the destination argument of each call.
// Calls whose destination contains FailOn return an error instead.
type FakeFFmpeg struct {
	FailOn string

	mu    sync.Mutex
	calls [][]string
}

// Run satisfies the transcoder command runner signature.
func (f *FakeFFmpeg) Run(ctx context.Context, _ string, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), args...))
	f.mu.Unlock()

	if len(args) == 0 {
		return errors.New("no arguments")
	}
	dst := args[len(args)-1]
	if f.FailOn != "" && strings.Contains(dst, f.FailOn) {
		return fmt.Errorf("exit status 1: simulated encoder failure for %s", dst)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(dst, []byte("rendition:"+dst), 0o644)
}

// Calls returns the argument lists ffmpeg was invoked with.
func (f *FakeFFmpeg) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}
