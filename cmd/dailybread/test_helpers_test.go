package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dailybread/internal/config"
	"dailybread/internal/content"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, base)

	cfg, _, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if !exists {
		t.Fatalf("expected config at %s", configPath)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func (e *cliTestEnv) openStore(t *testing.T) *content.Store {
	t.Helper()
	store, err := content.Open(e.cfg)
	if err != nil {
		t.Fatalf("content.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path, base string) {
	t.Helper()
	body := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
storage_dir = %q

[logging]
format = "json"
level = "error"

[pipeline]
primary_code = "KJV"

[[pipeline.translations]]
code = "KJV"
language = "en"

[[pipeline.translations]]
code = "RVR1960"
language = "es"

[storage]
backend = "local"
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "storage"),
	)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
