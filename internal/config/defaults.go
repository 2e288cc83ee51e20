package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultUserAgent is sent on every outbound HTTP request
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		ScanDir:   "scans",
		DBPath:    "surfacerecon.db",
		UserAgent: DefaultUserAgent,
		Timeouts: TimeoutConfig{
			Scan:    30 * time.Minute,
			Source:  15 * time.Second,
			DNS:     3 * time.Second,
			Probe:   5 * time.Second,
			Archive: 20 * time.Second,
			Fetch:   10 * time.Second,
			Path:    3 * time.Second,
			Port:    2 * time.Second,
		},
		Limits: LimitConfig{
			ResolveBatch:     50,
			ProbeConcurrency: 20,
			FetchConcurrency: 10,
			BodyCap:          50 * 1024,
			MaxURLs:          5000,
			MaxScripts:       100,
			PathScanHosts:    20,
			PortScanHosts:    10,
			PortScanPorts:    20,
		},
		DNS: DNSConfig{
			Servers: []string{
				"8.8.8.8:53",
				"1.1.1.1:53",
				"8.8.4.4:53",
				"1.0.0.1:53",
			},
		},
		Sources: SourcesConfig{
			Wordlist:     true,
			CrtSh:        true,
			HackerTarget: true,
			AlienVault:   true,
			CertSpotter:  true,
		},
		Archives: ArchivesConfig{
			Wayback:          true,
			CommonCrawl:      true,
			CommonCrawlIndex: "CC-MAIN-2024-10",
			AlienVault:       true,
			URLScan:          true,
		},
		Server: ServerConfig{
			Addr: ":3000",
		},
	}
}

// Profile is a named bundle of limits. Profiles never skip phases.
type Profile struct {
	Name        string
	Description string
	Apply       func(*LimitConfig)
}

var profiles = map[string]Profile{
	"quick": {
		Name:        "quick",
		Description: "Small request volume: few hosts for path and port scans, fewer archived URLs",
		Apply: func(l *LimitConfig) {
			l.MaxURLs = 1000
			l.MaxScripts = 20
			l.PathScanHosts = 5
			l.PortScanHosts = 3
			l.PortScanPorts = 10
		},
	},
	"standard": {
		Name:        "standard",
		Description: "Default limits",
		Apply:       func(l *LimitConfig) {},
	},
	"deep": {
		Name:        "deep",
		Description: "More hosts and ports per scan, full script analysis",
		Apply: func(l *LimitConfig) {
			l.MaxScripts = 300
			l.PathScanHosts = 50
			l.PortScanHosts = 25
			l.PortScanPorts = 64
		},
	},
}

// ApplyProfile overlays a named profile's limits onto cfg.
func ApplyProfile(cfg *Config, name string) error {
	p, ok := profiles[name]
	if !ok {
		return fmt.Errorf("unknown profile %q (available: quick, standard, deep)", name)
	}
	p.Apply(&cfg.Limits)
	cfg.Profile = name
	return nil
}

// Profiles returns the available profile definitions.
func Profiles() map[string]Profile {
	out := make(map[string]Profile, len(profiles))
	for k, v := range profiles {
		out[k] = v
	}
	return out
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	return Write(path, DefaultConfig())
}

// Write marshals cfg as YAML to path. Keys loaded from the environment are
// never written.
func Write(path string, cfg *Config) error {
	out := *cfg
	out.Sources.SecurityTrailsKey = ""
	out.Sources.VirusTotalKey = ""
	out.Archives.URLScanKey = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
