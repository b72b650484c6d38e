package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Observability.LogLevel != "info" || cfg.Observability.PrometheusPath != "/metrics" {
		t.Fatalf("observability defaults = %+v", cfg.Observability)
	}
	if cfg.Upstream.URL == "" {
		t.Fatal("upstream url default missing")
	}
	if cfg.Upstream.Timeout() != 30*time.Second || cfg.Upstream.TestTimeout() != 10*time.Second {
		t.Fatalf("upstream timeouts = %v / %v", cfg.Upstream.Timeout(), cfg.Upstream.TestTimeout())
	}
	if cfg.Admission.MaxPerMinute != 10 || cfg.Admission.MaxPerHour != 100 {
		t.Fatalf("admission defaults = %+v", cfg.Admission)
	}
	if cfg.Admission.BlockDuration() != time.Hour {
		t.Fatalf("BlockDuration = %v", cfg.Admission.BlockDuration())
	}
	if len(cfg.Allowlist) != 2 || cfg.Allowlist[0] != "127.0.0.1" || cfg.Allowlist[1] != "::1" {
		t.Fatalf("allowlist default = %v", cfg.Allowlist)
	}
	if cfg.Server.MaxBody() != 64<<10 {
		t.Fatalf("MaxBody = %d", cfg.Server.MaxBody())
	}
}

func TestLoad_ParsesValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  addr: ":9999"
  max_body_bytes: 2048
observability:
  log_level: "debug"
upstream:
  url: "http://chat.internal/chat"
  timeout_ms: 1500
  test_timeout_ms: 500
admission:
  max_per_minute: 3
  max_per_hour: 30
  block_duration_sec: 120
allowlist:
  - "10.0.0.1"
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":9999" || cfg.Server.MaxBody() != 2048 {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Upstream.URL != "http://chat.internal/chat" {
		t.Fatalf("url = %q", cfg.Upstream.URL)
	}
	if cfg.Upstream.Timeout() != 1500*time.Millisecond || cfg.Upstream.TestTimeout() != 500*time.Millisecond {
		t.Fatalf("timeouts = %v / %v", cfg.Upstream.Timeout(), cfg.Upstream.TestTimeout())
	}
	if cfg.Admission.MaxPerMinute != 3 || cfg.Admission.MaxPerHour != 30 {
		t.Fatalf("admission = %+v", cfg.Admission)
	}
	if cfg.Admission.BlockDuration() != 2*time.Minute {
		t.Fatalf("BlockDuration = %v", cfg.Admission.BlockDuration())
	}
	if len(cfg.Allowlist) != 1 || cfg.Allowlist[0] != "10.0.0.1" {
		t.Fatalf("allowlist = %v", cfg.Allowlist)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [not a map\n")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
