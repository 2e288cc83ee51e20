package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	ScanDir   string         `mapstructure:"scan_dir" yaml:"scan_dir"`
	DBPath    string         `mapstructure:"db_path" yaml:"db_path"`
	UserAgent string         `mapstructure:"user_agent" yaml:"user_agent"`
	Profile   string         `mapstructure:"profile" yaml:"profile"`
	Timeouts  TimeoutConfig  `mapstructure:"timeouts" yaml:"timeouts"`
	Limits    LimitConfig    `mapstructure:"limits" yaml:"limits"`
	DNS       DNSConfig      `mapstructure:"dns" yaml:"dns"`
	Sources   SourcesConfig  `mapstructure:"sources" yaml:"sources"`
	Archives  ArchivesConfig `mapstructure:"archives" yaml:"archives"`
	Server    ServerConfig   `mapstructure:"server" yaml:"server"`
	Notify    NotifyConfig   `mapstructure:"notify" yaml:"notify"`
	Scope     ScopeConfig    `mapstructure:"scope" yaml:"scope"`
}

// TimeoutConfig holds per-operation timeouts. Every network call carries one.
type TimeoutConfig struct {
	Scan    time.Duration `mapstructure:"scan" yaml:"scan"`
	Source  time.Duration `mapstructure:"source" yaml:"source"`
	DNS     time.Duration `mapstructure:"dns" yaml:"dns"`
	Probe   time.Duration `mapstructure:"probe" yaml:"probe"`
	Archive time.Duration `mapstructure:"archive" yaml:"archive"`
	Fetch   time.Duration `mapstructure:"fetch" yaml:"fetch"`
	Path    time.Duration `mapstructure:"path" yaml:"path"`
	Port    time.Duration `mapstructure:"port" yaml:"port"`
}

// LimitConfig caps concurrency and request volume per phase
type LimitConfig struct {
	ResolveBatch     int   `mapstructure:"resolve_batch" yaml:"resolve_batch"`
	ProbeConcurrency int   `mapstructure:"probe_concurrency" yaml:"probe_concurrency"`
	FetchConcurrency int   `mapstructure:"fetch_concurrency" yaml:"fetch_concurrency"`
	BodyCap          int64 `mapstructure:"body_cap" yaml:"body_cap"`
	MaxURLs          int   `mapstructure:"max_urls" yaml:"max_urls"`
	MaxScripts       int   `mapstructure:"max_scripts" yaml:"max_scripts"`
	PathScanHosts    int   `mapstructure:"path_scan_hosts" yaml:"path_scan_hosts"`
	PortScanHosts    int   `mapstructure:"port_scan_hosts" yaml:"port_scan_hosts"`
	PortScanPorts    int   `mapstructure:"port_scan_ports" yaml:"port_scan_ports"`
}

// DNSConfig lists the resolvers queried for A/AAAA records
type DNSConfig struct {
	Servers []string `mapstructure:"servers" yaml:"servers"`
}

// SourcesConfig toggles passive hostname sources. Keyed sources are enabled
// only when their key is set.
type SourcesConfig struct {
	Wordlist          bool   `mapstructure:"wordlist" yaml:"wordlist"`
	CrtSh             bool   `mapstructure:"crtsh" yaml:"crtsh"`
	HackerTarget      bool   `mapstructure:"hackertarget" yaml:"hackertarget"`
	AlienVault        bool   `mapstructure:"alienvault" yaml:"alienvault"`
	CertSpotter       bool   `mapstructure:"certspotter" yaml:"certspotter"`
	SecurityTrailsKey string `mapstructure:"securitytrails_key" yaml:"securitytrails_key,omitempty"`
	VirusTotalKey     string `mapstructure:"virustotal_key" yaml:"virustotal_key,omitempty"`
}

// ArchivesConfig toggles historical URL indexes
type ArchivesConfig struct {
	Wayback          bool   `mapstructure:"wayback" yaml:"wayback"`
	CommonCrawl      bool   `mapstructure:"commoncrawl" yaml:"commoncrawl"`
	CommonCrawlIndex string `mapstructure:"commoncrawl_index" yaml:"commoncrawl_index"`
	AlienVault       bool   `mapstructure:"alienvault" yaml:"alienvault"`
	URLScan          bool   `mapstructure:"urlscan" yaml:"urlscan"`
	URLScanKey       string `mapstructure:"urlscan_key" yaml:"urlscan_key,omitempty"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	Sync bool   `mapstructure:"sync" yaml:"sync"`
}

// NotifyConfig configures completion notifications
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
}

// ScopeConfig restricts which targets and addresses may be scanned.
// Empty lists allow everything.
type ScopeConfig struct {
	AllowedDomains []string `mapstructure:"allowed_domains" yaml:"allowed_domains"`
	AllowedCIDRs   []string `mapstructure:"allowed_cidrs" yaml:"allowed_cidrs"`
}

// envBindings maps config keys to the provider-specific environment variables
// that operators already have set for other tooling.
var envBindings = map[string]string{
	"sources.securitytrails_key": "SECURITYTRAILS_API_KEY",
	"sources.virustotal_key":     "VIRUSTOTAL_API_KEY",
	"archives.urlscan_key":       "URLSCAN_API_KEY",
}

// Load reads configuration from a YAML file layered over DefaultConfig.
// If path is empty, searches for surfacerecon.yaml in the current directory,
// ./configs and ~/.config/surfacerecon/; a missing file then means defaults.
// Environment variables SURFACERECON_<SECTION>_<KEY> override any key.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("surfacerecon")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Seed viper with the defaults so every key is known to AutomaticEnv.
	defaults, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, "SURFACERECON_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if path != "" {
		// Use explicit path
		v.SetConfigFile(path)
	} else {
		// Search for config in default locations
		v.SetConfigName("surfacerecon")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		homeDir, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "surfacerecon"))
		}
	}

	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Profile != "" {
		if err := ApplyProfile(cfg, cfg.Profile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.ScanDir == "" {
		errs = append(errs, errors.New("scan_dir cannot be empty"))
	}

	if c.Limits.ResolveBatch <= 0 {
		errs = append(errs, errors.New("resolve_batch must be positive"))
	}

	if c.Limits.ProbeConcurrency <= 0 {
		errs = append(errs, errors.New("probe_concurrency must be positive"))
	}

	if c.Limits.FetchConcurrency <= 0 {
		errs = append(errs, errors.New("fetch_concurrency must be positive"))
	}

	if c.Limits.BodyCap <= 0 {
		errs = append(errs, errors.New("body_cap must be positive"))
	}

	if c.Limits.MaxURLs <= 0 {
		errs = append(errs, errors.New("max_urls must be positive"))
	}

	if c.Limits.PathScanHosts < 0 || c.Limits.PortScanHosts < 0 || c.Limits.PortScanPorts < 0 {
		errs = append(errs, errors.New("scan host and port limits cannot be negative"))
	}

	timeouts := map[string]time.Duration{
		"source":  c.Timeouts.Source,
		"dns":     c.Timeouts.DNS,
		"probe":   c.Timeouts.Probe,
		"archive": c.Timeouts.Archive,
		"fetch":   c.Timeouts.Fetch,
		"path":    c.Timeouts.Path,
		"port":    c.Timeouts.Port,
	}
	for _, name := range []string{"source", "dns", "probe", "archive", "fetch", "path", "port"} {
		if timeouts[name] <= 0 {
			errs = append(errs, fmt.Errorf("timeouts.%s must be positive", name))
		}
	}

	if c.Timeouts.Scan < 0 {
		errs = append(errs, errors.New("timeouts.scan cannot be negative"))
	}

	if len(c.DNS.Servers) == 0 {
		errs = append(errs, errors.New("dns.servers cannot be empty"))
	}

	for _, cidr := range c.Scope.AllowedCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errs = append(errs, fmt.Errorf("scope.allowed_cidrs: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}
