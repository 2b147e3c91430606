package workflow_test

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vodconverter/internal/logging"
	"vodconverter/internal/queue"
	"vodconverter/internal/testsupport"
	"vodconverter/internal/workflow"
)

func newManager(consumer queue.Consumer, handler workflow.Handler, concurrency int) *workflow.Manager {
	return workflow.NewManager(consumer, handler, workflow.Options{
		Concurrency:        concurrency,
		PollingWait:        5 * time.Millisecond,
		ErrorRetryInterval: 5 * time.Millisecond,
	}, logging.NewNop())
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestManagerAcksOnlySuccessfulMessages(t *testing.T) {
	consumer := &testsupport.ChannelConsumer{}
	consumer.Push(
		queue.Message{ID: "ok-1"},
		queue.Message{ID: "bad"},
		queue.Message{ID: "ok-2"},
	)
	var handled sync.Map
	handler := workflow.HandlerFunc(func(_ context.Context, msg queue.Message) error {
		handled.Store(msg.ID, true)
		if msg.ID == "bad" {
			return errors.New("conversion failed")
		}
		return nil
	})

	mgr := newManager(consumer, handler, 1)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool {
		s := mgr.Status()
		return s.Processed+s.Failed == 3
	})
	mgr.Stop()

	acked := consumer.Acked()
	sort.Strings(acked)
	if !reflect.DeepEqual(acked, []string{"ok-1", "ok-2"}) {
		t.Fatalf("acked = %v", acked)
	}
	status := mgr.Status()
	if status.Running || status.Processed != 2 || status.Failed != 1 || status.LastError == "" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestManagerBoundsConcurrency(t *testing.T) {
	consumer := &testsupport.ChannelConsumer{}
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		consumer.Push(queue.Message{ID: id})
	}

	var inFlight, peak atomic.Int32
	handler := workflow.HandlerFunc(func(context.Context, queue.Message) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	})

	mgr := newManager(consumer, handler, 2)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool { return mgr.Status().Processed == 6 })
	mgr.Stop()

	if got := peak.Load(); got != 2 {
		t.Fatalf("peak concurrency = %d, want 2", got)
	}
}

func TestManagerRetriesAfterReceiveError(t *testing.T) {
	consumer := &testsupport.ChannelConsumer{ReceiveErr: errors.New("throttled")}
	consumer.Push(queue.Message{ID: "later"})
	handler := workflow.HandlerFunc(func(context.Context, queue.Message) error { return nil })

	mgr := newManager(consumer, handler, 1)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool { return mgr.Status().Processed == 1 })
	mgr.Stop()

	if status := mgr.Status(); status.LastError != "throttled" {
		t.Fatalf("expected receive error recorded, got %+v", status)
	}
}

func TestManagerStopCancelsInFlightJobs(t *testing.T) {
	consumer := &testsupport.ChannelConsumer{}
	consumer.Push(queue.Message{ID: "long"})
	started := make(chan struct{})
	handler := workflow.HandlerFunc(func(ctx context.Context, _ queue.Message) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	mgr := newManager(consumer, handler, 1)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-started
	if h := mgr.Health(); !h.Ready {
		t.Fatalf("expected ready health, got %+v", h)
	}
	if active := mgr.Status().Active; len(active) != 1 || active[0].MessageID != "long" {
		t.Fatalf("expected active job, got %+v", active)
	}

	mgr.Stop()
	status := mgr.Status()
	if status.Failed != 1 || len(status.Active) != 0 {
		t.Fatalf("unexpected status after stop %+v", status)
	}
	if h := mgr.Health(); h.Ready {
		t.Fatal("stopped manager must not report ready")
	}
}

func TestManagerStartTwice(t *testing.T) {
	mgr := newManager(&testsupport.ChannelConsumer{}, workflow.HandlerFunc(func(context.Context, queue.Message) error { return nil }), 1)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()
	if err := mgr.Start(context.Background()); err == nil {
		t.Fatal("expected error on second Start")
	}
}

func TestManagerExitsWhenConsumerClosed(t *testing.T) {
	consumer := &testsupport.ChannelConsumer{}
	_ = consumer.Close()
	mgr := newManager(consumer, workflow.HandlerFunc(func(context.Context, queue.Message) error { return nil }), 1)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool { return mgr.Status().LastError != "" })
	mgr.Stop()
}
