package telemetry_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"dailybread/internal/telemetry"
	"dailybread/internal/testsupport"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Telemetry.Enabled = false

	shutdown, err := telemetry.Setup(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if _, err := os.Stat(telemetry.TracePath(cfg.Paths.LogDir, time.Now())); !os.IsNotExist(err) {
		t.Fatalf("expected no trace file, stat err = %v", err)
	}
}

func TestSetupWritesSpansToLogDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.ServiceName = "dailybread-test"

	shutdown, err := telemetry.Setup(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	_, span := telemetry.Tracer().Start(context.Background(), "day")
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	data, err := os.ReadFile(telemetry.TracePath(cfg.Paths.LogDir, time.Now()))
	if err != nil {
		t.Fatalf("read trace file: %v", err)
	}
	if !strings.Contains(string(data), `"Name":"day"`) {
		t.Fatalf("expected span in trace file, got %s", data)
	}
}
