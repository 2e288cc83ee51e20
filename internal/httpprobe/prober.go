package httpprobe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/hakim/surfacerecon/internal/models"
)

// Options configures a Prober.
type Options struct {
	// Timeout bounds each single request, body included.
	Timeout time.Duration
	// BodyCap is the maximum number of body bytes kept per response.
	BodyCap     int64
	UserAgent   string
	Concurrency int
	// VerifyTLS enables certificate verification. Off by default since
	// misconfigured certificates are common on the hosts we look for.
	VerifyTLS bool
	// Transport overrides the HTTP transport. Used by tests.
	Transport http.RoundTripper
}

// Prober checks whether hosts serve HTTP(S).
type Prober struct {
	client      *http.Client
	timeout     time.Duration
	bodyCap     int64
	userAgent   string
	concurrency int
}

// NewProber creates a prober. Redirects are never followed.
func NewProber(opts Options) *Prober {
	transport := opts.Transport
	if transport == nil {
		transport = NewTransport(opts.Timeout, !opts.VerifyTLS)
	}
	if opts.BodyCap <= 0 {
		opts.BodyCap = 50 * 1024
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 20
	}

	return &Prober{
		client:      NewClient(transport),
		timeout:     opts.Timeout,
		bodyCap:     opts.BodyCap,
		userAgent:   opts.UserAgent,
		concurrency: opts.Concurrency,
	}
}

// NewTransport returns the transport shared by the probing phases.
func NewTransport(timeout time.Duration, insecure bool) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: timeout,
		}).DialContext,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: insecure},
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
	}
}

// NewClient wraps a transport in a client that returns the first response
// instead of following redirects.
func NewClient(transport http.RoundTripper) *http.Client {
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Probe tries HTTPS, then HTTP only if HTTPS produced no response at all.
// Any status code counts as live.
func (p *Prober) Probe(ctx context.Context, host string) (*models.LiveEndpoint, bool) {
	ep, err := p.fetch(ctx, "https", host)
	if err == nil {
		return ep, true
	}

	ep, err = p.fetch(ctx, "http", host)
	if err == nil {
		return ep, true
	}

	return nil, false
}

func (p *Prober) fetch(ctx context.Context, scheme, host string) (*models.LiveEndpoint, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	target := &url.URL{Scheme: scheme, Host: host, Path: "/"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// A truncated body still means the host answered
	body, _ := io.ReadAll(io.LimitReader(resp.Body, p.bodyCap))
	elapsed := time.Since(start)

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[http.CanonicalHeaderKey(k)] = resp.Header.Get(k)
	}

	ep := &models.LiveEndpoint{
		Hostname:     host,
		Scheme:       scheme,
		URL:          target.String(),
		StatusCode:   resp.StatusCode,
		Headers:      headers,
		Body:         string(body),
		BodySize:     len(body),
		ResponseTime: elapsed,
	}
	ep.Title, ep.Scripts = parsePage(ep.Body, target)
	ep.Technologies = DetectTechnologies(headers, ep.Body)

	return ep, nil
}

// ProbeAll probes hosts with bounded concurrency and returns the live ones
// in input order. Hosts not yet dispatched when ctx is cancelled are skipped.
func (p *Prober) ProbeAll(ctx context.Context, hosts []string) []models.LiveEndpoint {
	slots := make([]*models.LiveEndpoint, len(hosts))

	wp := pool.New().WithMaxGoroutines(p.concurrency)
	for i, host := range hosts {
		if ctx.Err() != nil {
			fmt.Printf("[!] Probing stopped after %d/%d hosts: %v\n", i, len(hosts), ctx.Err())
			break
		}
		wp.Go(func() {
			if ep, ok := p.Probe(context.WithoutCancel(ctx), host); ok {
				slots[i] = ep
			}
		})
	}
	wp.Wait()

	live := make([]models.LiveEndpoint, 0, len(hosts))
	for _, ep := range slots {
		if ep != nil {
			live = append(live, *ep)
		}
	}
	return live
}
