package pathscan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/hakim/surfacerecon/internal/analyzer"
	"github.com/hakim/surfacerecon/internal/models"
)

// Scanner requests curated sensitive paths on live endpoints.
type Scanner struct {
	client      *http.Client
	timeout     time.Duration
	bodyCap     int64
	userAgent   string
	concurrency int
	maxHosts    int
}

// Options configures a Scanner.
type Options struct {
	Timeout     time.Duration
	BodyCap     int64
	UserAgent   string
	Concurrency int
	// MaxHosts limits ScanAll to the first N endpoints. Zero means no limit.
	MaxHosts int
}

// NewScanner creates a scanner. client must not follow redirects; a
// redirect to a login page is not a hit.
func NewScanner(client *http.Client, opts Options) *Scanner {
	if opts.BodyCap <= 0 {
		opts.BodyCap = 50 * 1024
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 10
	}
	return &Scanner{
		client:      client,
		timeout:     opts.Timeout,
		bodyCap:     opts.BodyCap,
		userAgent:   opts.UserAgent,
		concurrency: opts.Concurrency,
		maxHosts:    opts.MaxHosts,
	}
}

// ScanPaths requests each path once on the endpoint's scheme. Only 200
// responses are reported; their bodies are run through the analyzer.
func (s *Scanner) ScanPaths(ctx context.Context, ep models.LiveEndpoint, paths []string) []models.PathResult {
	slots := make([]*models.PathResult, len(paths))

	p := pool.New().WithMaxGoroutines(s.concurrency)
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		p.Go(func() {
			slots[i] = s.check(context.WithoutCancel(ctx), ep, path)
		})
	}
	p.Wait()

	var results []models.PathResult
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results
}

func (s *Scanner) check(ctx context.Context, ep models.LiveEndpoint, path string) *models.PathResult {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	scheme := ep.Scheme
	if scheme == "" {
		scheme = "https"
	}
	target := (&url.URL{Scheme: scheme, Host: ep.Hostname, Path: path}).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, s.bodyCap))
	fmt.Printf("[+] Found %s\n", target)

	loc := models.Location{Hostname: ep.Hostname, Path: path, URL: target}
	return &models.PathResult{
		URL:        target,
		Hostname:   ep.Hostname,
		Path:       path,
		StatusCode: resp.StatusCode,
		Findings:   analyzer.Scan(loc, string(body)),
	}
}

// ScanAll scans DefaultPaths on the first MaxHosts endpoints, in order.
func (s *Scanner) ScanAll(ctx context.Context, endpoints []models.LiveEndpoint) []models.PathResult {
	if s.maxHosts > 0 && len(endpoints) > s.maxHosts {
		endpoints = endpoints[:s.maxHosts]
	}

	var results []models.PathResult
	for _, ep := range endpoints {
		if ctx.Err() != nil {
			fmt.Printf("[!] Path scan stopped: %v\n", ctx.Err())
			break
		}
		fmt.Printf("[*] Scanning %d paths on %s\n", len(DefaultPaths), ep.Hostname)
		results = append(results, s.ScanPaths(ctx, ep, DefaultPaths)...)
	}
	return results
}
