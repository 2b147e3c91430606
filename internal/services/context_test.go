package services_test

import (
	"context"
	"testing"

	"vodconverter/internal/services"
)

func TestContextHelpersRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, "job-1")
	ctx = services.WithAssetID(ctx, 42)
	ctx = services.WithMessageID(ctx, "msg-9")
	ctx = services.WithState(ctx, "staged")
	ctx = services.WithRequestID(ctx, "req-1")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != "job-1" {
		t.Fatalf("unexpected job id %q %v", id, ok)
	}
	if id, ok := services.AssetIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected asset id %d %v", id, ok)
	}
	if id, ok := services.MessageIDFromContext(ctx); !ok || id != "msg-9" {
		t.Fatalf("unexpected message id %q %v", id, ok)
	}
	if state, ok := services.StateFromContext(ctx); !ok || state != "staged" {
		t.Fatalf("unexpected state %q %v", state, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-1" {
		t.Fatalf("unexpected request id %q %v", rid, ok)
	}
}

func TestContextHelpersIgnoreEmptyValues(t *testing.T) {
	ctx := services.WithJobID(context.Background(), "")
	ctx = services.WithState(ctx, "")
	if _, ok := services.JobIDFromContext(ctx); ok {
		t.Fatal("expected no job id")
	}
	if _, ok := services.StateFromContext(ctx); ok {
		t.Fatal("expected no state")
	}
	if _, ok := services.AssetIDFromContext(ctx); ok {
		t.Fatal("expected no asset id")
	}
}
