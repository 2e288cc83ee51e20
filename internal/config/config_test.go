package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "surfacerecon.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
limits:
  max_urls: 100
timeouts:
  probe: 7s
scope:
  allowed_domains: ["example.com", "*.example.com"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.Limits.MaxURLs != 100 {
		t.Errorf("expected max_urls 100, got %d", cfg.Limits.MaxURLs)
	}
	if cfg.Timeouts.Probe != 7*time.Second {
		t.Errorf("expected probe 7s, got %s", cfg.Timeouts.Probe)
	}
	if cfg.Limits.ResolveBatch != defaults.Limits.ResolveBatch {
		t.Errorf("expected default resolve batch, got %d", cfg.Limits.ResolveBatch)
	}
	if cfg.Timeouts.DNS != defaults.Timeouts.DNS {
		t.Errorf("expected default dns timeout, got %s", cfg.Timeouts.DNS)
	}
	if len(cfg.Scope.AllowedDomains) != 2 {
		t.Errorf("expected scope domains, got %v", cfg.Scope.AllowedDomains)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SURFACERECON_LIMITS_PORT_SCAN_HOSTS", "3")
	t.Setenv("VIRUSTOTAL_API_KEY", "vt-key")

	cfg, err := Load(writeConfig(t, "user_agent: test-agent\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Limits.PortScanHosts != 3 {
		t.Errorf("expected env override 3, got %d", cfg.Limits.PortScanHosts)
	}
	if cfg.Sources.VirusTotalKey != "vt-key" {
		t.Errorf("expected provider env key, got %q", cfg.Sources.VirusTotalKey)
	}
	if cfg.UserAgent != "test-agent" {
		t.Errorf("expected user agent from file, got %q", cfg.UserAgent)
	}
}

func TestLoadAppliesProfile(t *testing.T) {
	cfg, err := Load(writeConfig(t, "profile: quick\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Limits.PortScanHosts != 3 || cfg.Limits.MaxURLs != 1000 {
		t.Errorf("expected quick limits, got %+v", cfg.Limits)
	}

	if _, err := Load(writeConfig(t, "profile: turbo\n")); err == nil || !strings.Contains(err.Error(), "unknown profile") {
		t.Errorf("expected unknown profile error, got %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero batch", func(c *Config) { c.Limits.ResolveBatch = 0 }, "resolve_batch must be positive"},
		{"zero probe timeout", func(c *Config) { c.Timeouts.Probe = 0 }, "timeouts.probe must be positive"},
		{"no dns servers", func(c *Config) { c.DNS.Servers = nil }, "dns.servers cannot be empty"},
		{"bad cidr", func(c *Config) { c.Scope.AllowedCIDRs = []string{"10.0.0.0/33"} }, "scope.allowed_cidrs"},
		{"no scan limit", func(c *Config) { c.Timeouts.Scan = 0 }, ""},
	}
	for _, tc := range testCases {
		cfg := DefaultConfig()
		tc.mutate(cfg)
		err := cfg.Validate()
		switch {
		case tc.want == "" && err != nil:
			t.Errorf("%s: unexpected error %v", tc.name, err)
		case tc.want != "" && (err == nil || !strings.Contains(err.Error(), tc.want)):
			t.Errorf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surfacerecon.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write default: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defaults := DefaultConfig()
	if cfg.Timeouts.Scan != defaults.Timeouts.Scan || cfg.Archives.CommonCrawlIndex != defaults.Archives.CommonCrawlIndex {
		t.Errorf("default config did not round-trip: %+v", cfg)
	}
}

func TestWriteOmitsKeysAndKeepsProfile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Profile = "deep"
	cfg.Sources.VirusTotalKey = "secret"
	cfg.Archives.URLScanKey = "secret"

	path := filepath.Join(t.TempDir(), "surfacerecon.yaml")
	if err := Write(path, cfg); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("expected api keys to be omitted, got:\n%s", data)
	}
	if cfg.Sources.VirusTotalKey != "secret" {
		t.Error("expected caller's config to be left untouched")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Profile != "deep" || loaded.Limits.PortScanPorts != 64 {
		t.Errorf("expected deep profile limits, got %s %+v", loaded.Profile, loaded.Limits)
	}
}
