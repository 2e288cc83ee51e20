package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hakim/surfacerecon/internal/analyzer"
	"github.com/hakim/surfacerecon/internal/discovery"
	"github.com/hakim/surfacerecon/internal/models"
)

// Enumerator produces candidate hostnames for a domain.
type Enumerator interface {
	Discover(ctx context.Context, domain string) ([]string, []string)
}

// HostResolver keeps the candidates that resolve.
type HostResolver interface {
	Resolve(ctx context.Context, candidates []string, onBatch func(done, total int)) []models.ResolvedHost
}

// EndpointProber finds hosts serving HTTP(S).
type EndpointProber interface {
	ProbeAll(ctx context.Context, hosts []string) []models.LiveEndpoint
}

// URLHarvester collects historical URLs for live hosts.
type URLHarvester interface {
	Harvest(ctx context.Context, domain string, hosts []string) models.HarvestResult
}

// ContentFetcher downloads documents for analysis.
type ContentFetcher interface {
	FetchAll(ctx context.Context, urls []string) []analyzer.Document
}

// PathScanner probes sensitive paths on live endpoints.
type PathScanner interface {
	ScanAll(ctx context.Context, endpoints []models.LiveEndpoint) []models.PathResult
}

// PortScanner probes common ports on live hosts.
type PortScanner interface {
	ScanAll(ctx context.Context, hosts []string) []models.OpenPort
}

// Summarizer turns a finished report into free-text commentary.
type Summarizer interface {
	Summarize(ctx context.Context, report *models.ScanReport) (string, error)
}

// Recorder observes phase and scan outcomes, e.g. for metrics.
type Recorder interface {
	PhaseCompleted(phase models.Phase, elapsed time.Duration, count int, err error)
	ScanFinished(report *models.ScanReport)
}

// Components are the phase implementations. A nil component makes its phase
// a no-op that records a zero count.
type Components struct {
	Enumerator Enumerator
	Resolver   HostResolver
	Prober     EndpointProber
	Harvester  URLHarvester
	Fetcher    ContentFetcher
	Paths      PathScanner
	Ports      PortScanner
}

// Options tune a run.
type Options struct {
	// Timeout caps the whole scan. Zero means no limit beyond the caller's context.
	Timeout time.Duration
	// MaxScripts caps the number of script files fetched for analysis.
	MaxScripts int
	Scope      *ScopeConfig
	Summarizer Summarizer
	Recorder   Recorder
	Notifier   *Notifier
	// OnProgress is called at the start of every phase and once at done.
	OnProgress func(phase models.Phase, percent int)
}

// Orchestrator runs the phases of one scan in a fixed order.
type Orchestrator struct {
	c    Components
	opts Options

	mu      sync.Mutex
	phase   models.Phase
	percent int
}

// New creates an orchestrator.
func New(c Components, opts Options) *Orchestrator {
	if opts.MaxScripts <= 0 {
		opts.MaxScripts = 100
	}
	return &Orchestrator{c: c, opts: opts}
}

// WithProgress returns an orchestrator sharing the same components with its
// own progress state and callback. Use one per concurrent scan.
func (o *Orchestrator) WithProgress(fn func(phase models.Phase, percent int)) *Orchestrator {
	opts := o.opts
	opts.OnProgress = fn
	return &Orchestrator{c: o.c, opts: opts}
}

// Progress returns the current phase and percent complete.
func (o *Orchestrator) Progress() (models.Phase, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase, o.percent
}

func (o *Orchestrator) setProgress(phase models.Phase, percent int) {
	o.mu.Lock()
	if percent < o.percent {
		percent = o.percent
	}
	o.phase, o.percent = phase, percent
	o.mu.Unlock()

	if o.opts.OnProgress != nil {
		o.opts.OnProgress(phase, percent)
	}
}

type phaseFunc func(ctx context.Context, r *models.ScanReport) (int, error)

// Run executes every phase for domain and returns the report. The report is
// non-nil whenever the domain is valid, including on failure or cancellation:
//   - ErrInvalidDomain / ErrOutOfScope: rejected before any phase (nil report)
//   - *PhaseError: a phase errored or panicked; status failed
//   - ErrScanCancelled: ctx ended; phases not yet started never start; status partial
func (o *Orchestrator) Run(ctx context.Context, domain string) (*models.ScanReport, error) {
	d, err := o.Validate(domain)
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	report := models.NewScanReport(d)
	report.Status = models.StatusRunning
	fmt.Printf("[*] Scan %s started for %s\n", report.ID, d)

	phases := map[models.Phase]phaseFunc{
		models.PhaseEnumeration:     o.enumerate,
		models.PhaseResolution:      o.resolve,
		models.PhaseProbing:         o.probe,
		models.PhaseURLHarvest:      o.harvest,
		models.PhaseContentAnalysis: o.analyze,
		models.PhasePathScan:        o.scanPaths,
		models.PhasePortScan:        o.scanPorts,
	}

	total := len(models.Phases)
	for i, phase := range models.Phases {
		if err := runCtx.Err(); err != nil {
			return o.finish(ctx, report, models.StatusPartial, fmt.Errorf("%w before %s: %w", ErrScanCancelled, phase, err))
		}

		o.setProgress(phase, i*100/total)
		fmt.Printf("[*] Phase %d/%d: %s\n", i+1, total, phase)

		start := time.Now()
		count, phaseErr := runPhaseIsolated(runCtx, phase, phases[phase], report)
		elapsed := time.Since(start)

		stat := models.PhaseStat{Phase: phase, Count: count, Duration: elapsed}
		if phaseErr != nil {
			stat.Error = phaseErr.Error()
		}
		report.Phases = append(report.Phases, stat)

		if o.opts.Recorder != nil {
			o.opts.Recorder.PhaseCompleted(phase, elapsed, count, phaseErr)
		}

		if phaseErr != nil {
			fmt.Printf("[!] Phase %s failed (%s): %v\n", phase, elapsed.Round(time.Millisecond), phaseErr)
			return o.finish(ctx, report, models.StatusFailed, &PhaseError{Phase: phase, Err: phaseErr})
		}
		fmt.Printf("[+] Phase %s complete: %d (%s)\n", phase, count, elapsed.Round(time.Millisecond))
	}

	// The last phase may have been cut short
	if err := runCtx.Err(); err != nil {
		return o.finish(ctx, report, models.StatusPartial, fmt.Errorf("%w during %s: %w", ErrScanCancelled, models.PhasePortScan, err))
	}

	o.setProgress(models.PhaseDone, 100)
	return o.finish(ctx, report, models.StatusComplete, nil)
}

// Validate normalizes domain and checks it against the configured scope
// without running anything.
func (o *Orchestrator) Validate(domain string) (string, error) {
	d, err := discovery.ValidateDomain(domain)
	if err != nil {
		return "", err
	}
	if err := o.opts.Scope.ValidateTarget(d); err != nil {
		return "", err
	}
	return d, nil
}

// runPhaseIsolated runs a phase inside a deferred recover so a panic is
// returned as an error rather than crashing the process.
func runPhaseIsolated(ctx context.Context, phase models.Phase, fn phaseFunc, r *models.ScanReport) (count int, retErr error) {
	defer func() {
		if rec := recover(); rec != nil {
			retErr = fmt.Errorf("phase %q panicked: %v", phase, rec)
		}
	}()
	return fn(ctx, r)
}

func (o *Orchestrator) finish(ctx context.Context, r *models.ScanReport, status models.ScanStatus, runErr error) (*models.ScanReport, error) {
	completed := time.Now()
	r.Status = status
	r.CompletedAt = &completed
	r.Duration = completed.Sub(r.StartedAt)

	Summarize(r)

	// Commentary is best-effort and only for scans that ran to completion
	if status == models.StatusComplete && o.opts.Summarizer != nil {
		text, err := o.opts.Summarizer.Summarize(context.WithoutCancel(ctx), r)
		if err != nil {
			r.AddWarning(fmt.Sprintf("summarizer unavailable: %v", err))
		} else {
			r.Commentary = text
		}
	}

	if o.opts.Recorder != nil {
		o.opts.Recorder.ScanFinished(r)
	}

	if o.opts.Notifier != nil {
		if err := o.opts.Notifier.SendCompletion(context.WithoutCancel(ctx), r); err != nil {
			fmt.Printf("[!] Warning: notification failed: %v\n", err)
		}
	}

	fmt.Printf("[*] Scan %s finished in %s: %s\n", r.ID, r.Duration.Round(time.Millisecond), r.Status)
	return r, runErr
}

func (o *Orchestrator) enumerate(ctx context.Context, r *models.ScanReport) (int, error) {
	if o.c.Enumerator == nil {
		r.Candidates = []string{r.Domain}
		return 1, nil
	}

	candidates, warnings := o.c.Enumerator.Discover(ctx, r.Domain)
	for _, w := range warnings {
		r.AddWarning(w)
	}

	// The target itself is always a candidate
	if !contains(candidates, r.Domain) {
		candidates = append([]string{r.Domain}, candidates...)
	}
	r.Candidates = candidates
	return len(candidates), nil
}

func (o *Orchestrator) resolve(ctx context.Context, r *models.ScanReport) (int, error) {
	if o.c.Resolver == nil {
		return 0, nil
	}

	resolved := o.c.Resolver.Resolve(ctx, r.Candidates, func(done, total int) {
		fmt.Printf("[*] Resolved %d/%d candidates\n", done, total)
	})

	kept, dropped := o.opts.Scope.FilterHosts(resolved)
	if dropped > 0 {
		r.AddWarning(fmt.Sprintf("%d resolved hosts outside allowed CIDRs were skipped", dropped))
	}

	r.Resolved = kept
	return len(kept), nil
}

func (o *Orchestrator) probe(ctx context.Context, r *models.ScanReport) (int, error) {
	if o.c.Prober == nil || len(r.Resolved) == 0 {
		return 0, nil
	}

	hosts := make([]string, len(r.Resolved))
	for i, h := range r.Resolved {
		hosts[i] = h.Hostname
	}

	r.Live = o.c.Prober.ProbeAll(ctx, hosts)
	return len(r.Live), nil
}

func (o *Orchestrator) harvest(ctx context.Context, r *models.ScanReport) (int, error) {
	if o.c.Harvester == nil || len(r.Live) == 0 {
		return 0, nil
	}

	r.URLs = o.c.Harvester.Harvest(ctx, r.Domain, liveHosts(r.Live))
	return r.URLs.Total, nil
}

func (o *Orchestrator) analyze(ctx context.Context, r *models.ScanReport) (int, error) {
	before := len(r.Findings)

	for _, ep := range r.Live {
		loc := models.Location{Hostname: ep.Hostname, Path: "/", URL: ep.URL}
		r.Findings = append(r.Findings, analyzer.Scan(loc, ep.Body)...)
	}

	if o.c.Fetcher != nil {
		scripts := o.scriptURLs(r)
		if len(scripts) > 0 {
			fmt.Printf("[*] Analyzing %d script files\n", len(scripts))
			docs := o.c.Fetcher.FetchAll(ctx, scripts)
			r.Findings = append(r.Findings, analyzer.ScanAll(docs)...)
		}
	}

	return len(r.Findings) - before, nil
}

// scriptURLs collects in-scope script URLs from harvested URLs and live page
// markup, deduplicated and capped at MaxScripts.
func (o *Orchestrator) scriptURLs(r *models.ScanReport) []string {
	seen := make(map[string]bool)
	var urls []string
	add := func(u string) {
		if len(urls) >= o.opts.MaxScripts || seen[u] {
			return
		}
		seen[u] = true
		urls = append(urls, u)
	}

	for _, h := range r.URLs.ByCategory(models.CategoryScript) {
		add(h.URL)
	}
	for _, ep := range r.Live {
		for _, s := range ep.Scripts {
			if hostInDomain(s, r.Domain) {
				add(s)
			}
		}
	}
	return urls
}

func (o *Orchestrator) scanPaths(ctx context.Context, r *models.ScanReport) (int, error) {
	if o.c.Paths == nil || len(r.Live) == 0 {
		return 0, nil
	}

	r.PathResults = o.c.Paths.ScanAll(ctx, r.Live)
	for _, pr := range r.PathResults {
		r.Findings = append(r.Findings, pr.Findings...)
	}
	return len(r.PathResults), nil
}

func (o *Orchestrator) scanPorts(ctx context.Context, r *models.ScanReport) (int, error) {
	if o.c.Ports == nil || len(r.Live) == 0 {
		return 0, nil
	}

	r.OpenPorts = o.c.Ports.ScanAll(ctx, liveHosts(r.Live))
	return len(r.OpenPorts), nil
}

// liveHosts returns unique live hostnames in endpoint order.
func liveHosts(live []models.LiveEndpoint) []string {
	seen := make(map[string]bool, len(live))
	hosts := make([]string, 0, len(live))
	for _, ep := range live {
		if !seen[ep.Hostname] {
			seen[ep.Hostname] = true
			hosts = append(hosts, ep.Hostname)
		}
	}
	return hosts
}

func hostInDomain(rawURL, domain string) bool {
	rest, ok := strings.CutPrefix(rawURL, "https://")
	if !ok {
		rest, ok = strings.CutPrefix(rawURL, "http://")
	}
	if !ok {
		return false
	}
	host, _, _ := strings.Cut(rest, "/")
	host, _, _ = strings.Cut(host, ":")
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
