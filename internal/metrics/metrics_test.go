package metrics_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"vodconverter/internal/logging"
	"vodconverter/internal/metrics"
)

func TestRecorderCounts(t *testing.T) {
	rec := metrics.New()
	rec.JobStarted()
	rec.JobStarted()
	rec.ObserveTransition("staged", 2*time.Second)
	rec.AddRenditions(3)
	rec.JobFinished("completed", time.Minute)
	rec.MessageRejected()

	expected := `
# HELP vodconverter_active_jobs Jobs currently being processed.
# TYPE vodconverter_active_jobs gauge
vodconverter_active_jobs 1
# HELP vodconverter_jobs_total Conversion jobs by terminal outcome.
# TYPE vodconverter_jobs_total counter
vodconverter_jobs_total{outcome="completed"} 1
vodconverter_jobs_total{outcome="rejected"} 1
# HELP vodconverter_renditions_uploaded_total Rendition files uploaded to the blob store.
# TYPE vodconverter_renditions_uploaded_total counter
vodconverter_renditions_uploaded_total 3
`
	err := testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected),
		"vodconverter_active_jobs", "vodconverter_jobs_total", "vodconverter_renditions_uploaded_total")
	if err != nil {
		t.Fatal(err)
	}
	if n := testutil.CollectAndCount(rec.Registry(), "vodconverter_transition_duration_seconds"); n != 1 {
		t.Fatalf("expected one transition series, got %d", n)
	}
}

func TestServerEndpoints(t *testing.T) {
	rec := metrics.New()
	rec.AddRenditions(2)
	var healthy atomic.Bool
	srv, err := metrics.NewServer("127.0.0.1:0", rec, func() (bool, string) {
		if healthy.Load() {
			return true, "running"
		}
		return false, "stopped"
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	srv.Start()
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	base := "http://" + srv.Addr()
	body := get(t, base+"/metrics", http.StatusOK)
	if !strings.Contains(body, "vodconverter_renditions_uploaded_total 2") {
		t.Fatalf("metrics missing counter:\n%s", body)
	}

	if body := get(t, base+"/healthz", http.StatusServiceUnavailable); !strings.Contains(body, "stopped") {
		t.Fatalf("unexpected health body %q", body)
	}
	healthy.Store(true)
	if body := get(t, base+"/healthz", http.StatusOK); !strings.Contains(body, `"healthy":true`) {
		t.Fatalf("unexpected health body %q", body)
	}
}

func get(t *testing.T, url string, wantStatus int) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: status %d, want %d", url, resp.StatusCode, wantStatus)
	}
	return string(data)
}
