package pipeline

import (
	"net/http"

	"github.com/hakim/surfacerecon/internal/analyzer"
	"github.com/hakim/surfacerecon/internal/config"
	"github.com/hakim/surfacerecon/internal/discovery"
	"github.com/hakim/surfacerecon/internal/harvest"
	"github.com/hakim/surfacerecon/internal/httpprobe"
	"github.com/hakim/surfacerecon/internal/pathscan"
	"github.com/hakim/surfacerecon/internal/portscan"
)

// ComponentsFromConfig wires the network-backed phase implementations.
func ComponentsFromConfig(cfg *config.Config) Components {
	t, l := cfg.Timeouts, cfg.Limits

	// Probing, path scanning and script fetching share one transport so
	// connections to live hosts are reused across phases.
	transport := httpprobe.NewTransport(t.Probe, true)
	hostClient := httpprobe.NewClient(transport)

	// Passive sources and archives get their own client; their per-call
	// deadlines come from the phase timeouts.
	apiClient := &http.Client{Transport: http.DefaultTransport}

	return Components{
		Enumerator: discovery.NewAggregator(t.Source, cfg.Sources.Wordlist,
			discovery.SourcesFromConfig(cfg, apiClient)...),
		Resolver: discovery.NewResolver(
			discovery.NewDNSLookup(cfg.DNS.Servers, t.DNS), l.ResolveBatch, t.DNS*2),
		Prober: httpprobe.NewProber(httpprobe.Options{
			Timeout:     t.Probe,
			BodyCap:     l.BodyCap,
			UserAgent:   cfg.UserAgent,
			Concurrency: l.ProbeConcurrency,
			Transport:   transport,
		}),
		Harvester: harvest.NewHarvester(t.Archive, l.MaxURLs, l.FetchConcurrency,
			harvest.IndexesFromConfig(cfg, apiClient)...),
		Fetcher: analyzer.NewFetcher(hostClient, t.Fetch, l.BodyCap, cfg.UserAgent, l.FetchConcurrency),
		Paths: pathscan.NewScanner(hostClient, pathscan.Options{
			Timeout:     t.Path,
			BodyCap:     l.BodyCap,
			UserAgent:   cfg.UserAgent,
			Concurrency: l.FetchConcurrency,
			MaxHosts:    l.PathScanHosts,
		}),
		Ports: portscan.NewScanner(t.Port, l.ProbeConcurrency, l.PortScanHosts, l.PortScanPorts),
	}
}

// NewFromConfig builds an orchestrator from configuration. Fields already set
// in opts take precedence over the configured values.
func NewFromConfig(cfg *config.Config, opts Options) *Orchestrator {
	if opts.Timeout == 0 {
		opts.Timeout = cfg.Timeouts.Scan
	}
	if opts.MaxScripts == 0 {
		opts.MaxScripts = cfg.Limits.MaxScripts
	}
	if opts.Scope == nil {
		opts.Scope = NewScope(cfg.Scope)
	}
	if opts.Notifier == nil {
		opts.Notifier = NewNotifier(cfg.Notify.WebhookURL)
	}
	return New(ComponentsFromConfig(cfg), opts)
}
