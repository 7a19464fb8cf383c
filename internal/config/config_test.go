package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.NSP.InsecureSkipVerify {
		t.Error("expected TLS verification off by default")
	}
	if cfg.NSP.RequestTimeout != 30*time.Second {
		t.Errorf("expected 30s request timeout, got %v", cfg.NSP.RequestTimeout)
	}
	if cfg.Pipeline.Timezone != "UTC" {
		t.Errorf("expected UTC default timezone, got %s", cfg.Pipeline.Timezone)
	}
	if cfg.Pipeline.RetentionDays != 90 {
		t.Errorf("expected 90 day retention, got %d", cfg.Pipeline.RetentionDays)
	}
	if cfg.Pipeline.RenewalInterval != 30*time.Minute {
		t.Errorf("expected 30m renewal interval, got %v", cfg.Pipeline.RenewalInterval)
	}
	if cfg.Health.ListenAddr != ":8090" {
		t.Errorf("expected :8090 health addr, got %s", cfg.Health.ListenAddr)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
nsp:
  host: nsp.example.net
  rate_limit: 120

kafka:
  keystore_path: /etc/faultmon/keystore.p12
  ca_path: /etc/faultmon/ca.pem

database:
  url: postgres://faultmon@db:5432/faultmon

pipeline:
  timezone: Asia/Dhaka
  retention_days: 30
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.NSP.Host != "nsp.example.net" {
		t.Errorf("host = %s", cfg.NSP.Host)
	}
	if cfg.NSP.RateLimit != 120 {
		t.Errorf("rate limit = %d", cfg.NSP.RateLimit)
	}
	if cfg.Pipeline.RetentionDays != 30 {
		t.Errorf("retention days = %d", cfg.Pipeline.RetentionDays)
	}
	// Values absent from the file keep their defaults.
	if cfg.NSP.RequestTimeout != 30*time.Second {
		t.Errorf("request timeout = %v", cfg.NSP.RequestTimeout)
	}
	if cfg.Pipeline.RenewalInterval != 30*time.Minute {
		t.Errorf("renewal interval = %v", cfg.Pipeline.RenewalInterval)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("NSP_HOST", "env-host.example.net")
	t.Setenv("KAFKA_BROKER", "broker:9193")
	t.Setenv("FAULTMON_TIMEZONE", "Europe/Stockholm")

	cfg := DefaultConfig()
	cfg.NSP.Host = "file-host.example.net"
	if err := cfg.ApplyEnvOverrides(); err != nil {
		t.Fatalf("ApplyEnvOverrides: %v", err)
	}

	if cfg.NSP.Host != "env-host.example.net" {
		t.Errorf("expected env to override file, got %s", cfg.NSP.Host)
	}
	if cfg.Kafka.Broker != "broker:9193" {
		t.Errorf("broker = %s", cfg.Kafka.Broker)
	}
	if cfg.Pipeline.Timezone != "Europe/Stockholm" {
		t.Errorf("timezone = %s", cfg.Pipeline.Timezone)
	}
	// Untouched fields keep their values.
	if cfg.Pipeline.RetentionDays != 90 {
		t.Errorf("retention days = %d", cfg.Pipeline.RetentionDays)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.NSP.Host = "nsp.example.net"
		cfg.Kafka.KeystorePath = "/etc/faultmon/keystore.p12"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing host", func(c *Config) { c.NSP.Host = "" }, "nsp.host"},
		{"missing keystore", func(c *Config) { c.Kafka.KeystorePath = "" }, "kafka.keystore_path"},
		{"missing database", func(c *Config) { c.Database.URL = "" }, "database.url"},
		{"zero retention", func(c *Config) { c.Pipeline.RetentionDays = 0 }, "retention_days"},
		{"bad timezone", func(c *Config) { c.Pipeline.Timezone = "Mars/Olympus" }, "timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestDerivedEndpoints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NSP.Host = "nsp.example.net"

	if got, want := cfg.AuthURL(), "https://nsp.example.net:8443/rest-gateway/rest/api/v1/auth/token"; got != want {
		t.Errorf("AuthURL = %s, want %s", got, want)
	}
	if got, want := cfg.RevocationURL(), "https://nsp.example.net:8443/rest-gateway/rest/api/v1/auth/revocation"; got != want {
		t.Errorf("RevocationURL = %s, want %s", got, want)
	}
	if got, want := cfg.SubscriptionsURL(), "https://nsp.example.net:8443/nbi-notification/api/v1/notifications/subscriptions"; got != want {
		t.Errorf("SubscriptionsURL = %s, want %s", got, want)
	}
	if got, want := cfg.Broker(), "nsp.example.net:9193"; got != want {
		t.Errorf("Broker = %s, want %s", got, want)
	}

	cfg.Kafka.Broker = "other:9193"
	if got := cfg.Broker(); got != "other:9193" {
		t.Errorf("Broker override = %s", got)
	}
}

func TestGroupID(t *testing.T) {
	cfg := DefaultConfig()

	got := cfg.GroupID()
	if !strings.HasPrefix(got, "nsp-python-") {
		t.Errorf("default group id %q lacks the nsp-python- prefix", got)
	}

	cfg.Kafka.GroupID = "custom-group"
	if got := cfg.GroupID(); got != "custom-group" {
		t.Errorf("group id override = %s", got)
	}
}
