package services_test

import (
	"context"
	"testing"

	"dailybread/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithDate(ctx, "2026-02-05")
	ctx = services.WithMode(ctx, "devotional")
	ctx = services.WithCode(ctx, "KJV")
	ctx = services.WithStep(ctx, "narration")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if date, ok := services.DateFromContext(ctx); !ok || date != "2026-02-05" {
		t.Fatalf("unexpected date: %v %v", date, ok)
	}
	if mode, ok := services.ModeFromContext(ctx); !ok || mode != "devotional" {
		t.Fatalf("unexpected mode: %v %v", mode, ok)
	}
	if code, ok := services.CodeFromContext(ctx); !ok || code != "KJV" {
		t.Fatalf("unexpected code: %v %v", code, ok)
	}
	if step, ok := services.StepFromContext(ctx); !ok || step != "narration" {
		t.Fatalf("unexpected step: %v %v", step, ok)
	}
}

func TestStepBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStep(ctx, "")
	if _, ok := services.StepFromContext(ctx); ok {
		t.Fatal("expected no step value")
	}
}
