package services_test

import (
	"context"
	"testing"

	"sftpsync/internal/services"
)

func TestRunContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id on empty context")
	}

	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithPhase(ctx, "upload")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id %q (ok=%v)", id, ok)
	}
	if phase, ok := services.PhaseFromContext(ctx); !ok || phase != "upload" {
		t.Fatalf("unexpected phase %q (ok=%v)", phase, ok)
	}

	if services.WithPhase(ctx, "") != ctx {
		t.Fatal("expected empty phase to leave context unchanged")
	}
}
