package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"dailybread/internal/progress"
)

func TestFormatProgressLineNoColor(t *testing.T) {
	got := formatProgressLine(progress.Event{
		Kind:    progress.KindProgress,
		Day:     5,
		Total:   28,
		Date:    "2026-02-05",
		Step:    "narrate",
		Code:    "KJV",
		Message: "narrated KJV (12 kB)",
	}, false)
	want := "[ 5/28] 2026-02-05 narrate KJV: narrated KJV (12 kB)"
	if got != want {
		t.Fatalf("formatProgressLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestFormatProgressLineError(t *testing.T) {
	got := formatProgressLine(progress.Event{
		Kind:    progress.KindError,
		Date:    "2026-02-05",
		Step:    "day",
		Message: "day generation failed",
		Err:     errors.New("llm unavailable"),
	}, false)
	want := "2026-02-05 day: ERROR day generation failed: llm unavailable"
	if got != want {
		t.Fatalf("formatProgressLine mismatch\n got: %q\nwant: %q", got, want)
	}

	colored := formatProgressLine(progress.Event{Kind: progress.KindError, Message: "boom"}, true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red error line, got %q", colored)
	}
}

func TestProgressPrinterWritesLines(t *testing.T) {
	var buf bytes.Buffer
	printer := newProgressPrinter(&buf)
	if printer.colorize {
		t.Fatal("buffers must not be colorized")
	}
	printer.Emit(context.Background(), progress.Event{Kind: progress.KindProgress, Step: "day", Message: "nothing to generate"})
	printer.Emit(context.Background(), progress.Event{Kind: progress.KindComplete, Step: "month", Message: "month complete"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if lines[1] != "month: month complete" {
		t.Fatalf("unexpected line %q", lines[1])
	}
}

func TestRenderTableWithFooter(t *testing.T) {
	out := renderTableWithFooter(
		[]string{"Mode", "Failed"},
		[][]string{{"devotional"}},
		[]string{"total", "0"},
		[]columnAlignment{alignLeft, alignRight},
	)
	requireContains(t, out, "devotional")
	requireContains(t, out, "TOTAL")
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}
