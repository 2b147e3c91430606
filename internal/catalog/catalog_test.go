package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"vodconverter/internal/catalog"
	"vodconverter/internal/logging"
	"vodconverter/internal/services"
)

type recorded struct {
	method string
	path   string
	body   string
	header http.Header
}

func newServer(t *testing.T, status int) (*httptest.Server, chan recorded) {
	t.Helper()
	calls := make(chan recorded, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls <- recorded{method: r.Method, path: r.URL.Path, body: string(body), header: r.Header.Clone()}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func newClient(t *testing.T, base string) *catalog.Client {
	t.Helper()
	client, err := catalog.New(catalog.Options{BaseURL: base + "/", Timeout: time.Second, MaxRedirects: 5}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestReportStatusSendsPut(t *testing.T) {
	srv, calls := newServer(t, http.StatusNoContent)
	client := newClient(t, srv.URL)

	ctx := services.WithRequestID(context.Background(), "corr-1")
	if err := client.ReportStatus(ctx, "proc-9", catalog.StatusStarted); err != nil {
		t.Fatalf("ReportStatus: %v", err)
	}
	call := <-calls
	if call.method != http.MethodPut || call.path != "/upload-process/proc-9/status" {
		t.Fatalf("unexpected request %s %s", call.method, call.path)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(call.body), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "CONVERSION_STARTED" {
		t.Fatalf("unexpected body %v", body)
	}
	if call.header.Get("Content-Type") != "application/json" || call.header.Get("X-Correlation-ID") != "corr-1" {
		t.Fatalf("unexpected headers %v", call.header)
	}
}

func TestPublishMetadataSendsPatch(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK)
	client := newClient(t, srv.URL)

	meta := catalog.Metadata{FilePath: "tok", Qualities: []string{"480", "720"}}
	if err := client.PublishMetadata(context.Background(), 12, meta); err != nil {
		t.Fatalf("PublishMetadata: %v", err)
	}
	call := <-calls
	if call.method != http.MethodPatch || call.path != "/episode/12/metadata" {
		t.Fatalf("unexpected request %s %s", call.method, call.path)
	}
	if call.body != `{"filePath":"tok","qualities":["480","720"]}` {
		t.Fatalf("unexpected body %s", call.body)
	}

	if err := client.PublishMetadata(context.Background(), 12, catalog.Metadata{FilePath: "tok"}); err != nil {
		t.Fatalf("PublishMetadata: %v", err)
	}
	if call := <-calls; !strings.Contains(call.body, `"qualities":[]`) {
		t.Fatalf("expected empty qualities array, got %s", call.body)
	}
}

func TestNon2xxIsNotifyError(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError)
	client := newClient(t, srv.URL)
	err := client.ReportStatus(context.Background(), "p", catalog.StatusFailed)
	if !errors.Is(err, services.ErrNotify) {
		t.Fatalf("expected notify error, got %v", err)
	}
	if !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected status code in error, got %v", err)
	}
}

func TestRedirectLimit(t *testing.T) {
	var hops atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops.Add(1)
		http.Redirect(w, r, srv.URL+"/loop", http.StatusTemporaryRedirect)
	}))
	defer srv.Close()

	client, err := catalog.New(catalog.Options{BaseURL: srv.URL, Timeout: time.Second, MaxRedirects: 2}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.ReportStatus(context.Background(), "p", catalog.StatusCompleted); !errors.Is(err, services.ErrNotify) {
		t.Fatalf("expected notify error, got %v", err)
	}
	if hops.Load() != 3 {
		t.Fatalf("expected 3 requests (1 + 2 redirects), got %d", hops.Load())
	}
}

func TestTimeoutIsBounded(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client, err := catalog.New(catalog.Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = client.ReportStatus(context.Background(), "p", catalog.StatusStarted)
	if !errors.Is(err, services.ErrTimeout) || !errors.Is(err, services.ErrNotify) {
		t.Fatalf("expected timeout notify error, got %v", err)
	}
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := catalog.New(catalog.Options{BaseURL: "catalog"}, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
