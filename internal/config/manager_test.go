package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestManagerParseJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{
		"webhook": {"url": "https://example.invalid/hook", "label": "ops", "batch_delay": "5s"},
		"intake": {"enabled": true, "address": "127.0.0.1:0", "token": "s3cret"},
		"logging": {"level": "debug", "console": true, "file": {"enabled": false, "path": ""}},
		"journal": {"driver": "file", "path": "journal.jsonl"},
		"maintenance": {"flush_schedule": "*/5 * * * *", "prune_max_age": "24h"}
	}`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Webhook.URL != "https://example.invalid/hook" {
		t.Fatalf("webhook.url = %q", cfg.Webhook.URL)
	}
	if cfg.Webhook.Label != "ops" || cfg.Webhook.BatchDelay != "5s" {
		t.Fatalf("webhook = %+v", cfg.Webhook)
	}
	if !cfg.Intake.Enabled || cfg.Intake.Token != "s3cret" {
		t.Fatalf("intake = %+v", cfg.Intake)
	}
	if cfg.Journal == nil || cfg.Journal.Driver != "file" {
		t.Fatalf("journal = %+v", cfg.Journal)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get did not return the committed config")
	}
}

func TestManagerParseYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
webhook:
  url: https://example.invalid/hook
  environment: staging
logging:
  level: info
  console: true
  file:
    enabled: false
    path: ""
`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Webhook.Environment != "staging" {
		t.Fatalf("webhook.environment = %q", cfg.Webhook.Environment)
	}
	if cfg.Logging.Level != "info" || !cfg.Logging.Console {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
}

func TestManagerRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"webhok": {"url": "x"}}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestManagerRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"webhook": {"url": "x"}}{"extra": true}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "10s", want: 10 * time.Second},
		{raw: " 1m ", want: time.Minute},
		{raw: "", want: 0},
		{raw: "500ms", want: 500 * time.Millisecond},
		{raw: "-5s", wantErr: true},
		{raw: "nope", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDurationField("f", tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseDurationField(%q): expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDurationField(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("ParseDurationField(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	got, err := ParseDurationOrDefault("f", "", 7*time.Second)
	if err != nil || got != 7*time.Second {
		t.Fatalf("got %v, %v; want 7s, nil", got, err)
	}
	got, err = ParseDurationOrDefault("f", "3s", 7*time.Second)
	if err != nil || got != 3*time.Second {
		t.Fatalf("got %v, %v; want 3s, nil", got, err)
	}
}

func TestSummarizeChange(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{
		Webhook: WebhookConfig{URL: "https://a", Label: "ops"},
		Logging: LoggingConfig{Level: "info"},
	}
	newCfg := &Config{
		Webhook: WebhookConfig{URL: "https://b", Label: "ops"},
		Logging: LoggingConfig{Level: "debug"},
		Intake:  IntakeConfig{Enabled: true, Token: "secret"},
	}

	changed, attrs := SummarizeChange(oldCfg, newCfg)
	want := []string{"intake", "logging", "webhook"}
	if len(changed) != len(want) {
		t.Fatalf("changed = %v, want %v", changed, want)
	}
	for i := range want {
		if changed[i] != want[i] {
			t.Fatalf("changed = %v, want %v", changed, want)
		}
	}
	if len(attrs) == 0 {
		t.Fatal("expected attrs for changed sections")
	}
}

func TestSummarizeChangeNoChange(t *testing.T) {
	t.Parallel()
	cfg := &Config{Webhook: WebhookConfig{URL: "https://a"}}
	changed, _ := SummarizeChange(cfg, cfg)
	if len(changed) != 0 {
		t.Fatalf("changed = %v, want empty", changed)
	}
}
