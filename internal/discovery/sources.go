package discovery

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hakim/surfacerecon/internal/config"
)

// maxSourceBody caps how much of a passive-source response is read.
const maxSourceBody = 16 << 20

// Source is a passive hostname data source. Fetch returns raw hostnames;
// normalization and scoping are the aggregator's job.
type Source interface {
	Name() string
	Fetch(ctx context.Context, domain string) ([]string, error)
}

// ErrBadStatus is returned when a source answers with a non-2xx status.
var ErrBadStatus = errors.New("unexpected status")

// httpSource is a Source backed by one HTTP GET and a payload parser.
type httpSource struct {
	name      string
	endpoint  func(domain string) string
	header    http.Header
	parse     func(body []byte, domain string) ([]string, error)
	client    *http.Client
	userAgent string
}

func (s *httpSource) Name() string { return s.name }

func (s *httpSource) Fetch(ctx context.Context, domain string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(domain), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", s.name, err)
	}
	for k, vals := range s.header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %w %d", s.name, ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBody))
	if err != nil {
		return nil, fmt.Errorf("%s: reading body: %w", s.name, err)
	}

	hosts, err := s.parse(body, domain)
	if err != nil {
		return nil, fmt.Errorf("%s: malformed payload: %w", s.name, err)
	}
	return hosts, nil
}

// SourceOptions are shared by every HTTP-backed source.
type SourceOptions struct {
	Client    *http.Client
	UserAgent string
	// BaseURL replaces the scheme and host of every source endpoint. Tests
	// point it at a local server.
	BaseURL string
}

func (o SourceOptions) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return http.DefaultClient
}

func (o SourceOptions) rebase(raw string) string {
	if o.BaseURL == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	base, err := url.Parse(o.BaseURL)
	if err != nil {
		return raw
	}
	u.Scheme = base.Scheme
	u.Host = base.Host
	return u.String()
}

func (o SourceOptions) newSource(name string, endpoint func(string) string, header http.Header, parse func([]byte, string) ([]string, error)) Source {
	return &httpSource{
		name:      name,
		endpoint:  func(d string) string { return o.rebase(endpoint(d)) },
		header:    header,
		parse:     parse,
		client:    o.client(),
		userAgent: o.UserAgent,
	}
}

// NewCrtShSource queries the crt.sh certificate-transparency mirror.
func NewCrtShSource(opts SourceOptions) Source {
	return opts.newSource("crtsh", func(d string) string {
		return "https://crt.sh/?q=%25." + url.QueryEscape(d) + "&output=json"
	}, nil, parseCrtSh)
}

// NewHackerTargetSource queries the HackerTarget host search.
func NewHackerTargetSource(opts SourceOptions) Source {
	return opts.newSource("hackertarget", func(d string) string {
		return "https://api.hackertarget.com/hostsearch/?q=" + url.QueryEscape(d)
	}, nil, parseHackerTarget)
}

// NewAlienVaultSource queries AlienVault OTX passive DNS.
func NewAlienVaultSource(opts SourceOptions) Source {
	return opts.newSource("alienvault", func(d string) string {
		return "https://otx.alienvault.com/api/v1/indicators/domain/" + url.PathEscape(d) + "/passive_dns"
	}, nil, parseAlienVault)
}

// NewCertSpotterSource queries the CertSpotter issuance API.
func NewCertSpotterSource(opts SourceOptions) Source {
	return opts.newSource("certspotter", func(d string) string {
		return "https://api.certspotter.com/v1/issuances?domain=" + url.QueryEscape(d) + "&include_subdomains=true&expand=dns_names"
	}, nil, parseCertSpotter)
}

// NewSecurityTrailsSource queries SecurityTrails. Requires an API key.
func NewSecurityTrailsSource(opts SourceOptions, apiKey string) Source {
	return opts.newSource("securitytrails", func(d string) string {
		return "https://api.securitytrails.com/v1/domain/" + url.PathEscape(d) + "/subdomains"
	}, http.Header{"APIKEY": []string{apiKey}}, parseSecurityTrails)
}

// NewVirusTotalSource queries VirusTotal domain relationships. Requires an API key.
func NewVirusTotalSource(opts SourceOptions, apiKey string) Source {
	return opts.newSource("virustotal", func(d string) string {
		return "https://www.virustotal.com/api/v3/domains/" + url.PathEscape(d) + "/subdomains?limit=40"
	}, http.Header{"X-Apikey": []string{apiKey}}, parseVirusTotal)
}

// SourcesFromConfig builds the enabled passive sources. Keyed sources without
// a key are left out.
func SourcesFromConfig(cfg *config.Config, client *http.Client) []Source {
	opts := SourceOptions{Client: client, UserAgent: cfg.UserAgent}

	var sources []Source
	if cfg.Sources.CrtSh {
		sources = append(sources, NewCrtShSource(opts))
	}
	if cfg.Sources.HackerTarget {
		sources = append(sources, NewHackerTargetSource(opts))
	}
	if cfg.Sources.AlienVault {
		sources = append(sources, NewAlienVaultSource(opts))
	}
	if cfg.Sources.CertSpotter {
		sources = append(sources, NewCertSpotterSource(opts))
	}
	if cfg.Sources.SecurityTrailsKey != "" {
		sources = append(sources, NewSecurityTrailsSource(opts, cfg.Sources.SecurityTrailsKey))
	}
	if cfg.Sources.VirusTotalKey != "" {
		sources = append(sources, NewVirusTotalSource(opts, cfg.Sources.VirusTotalKey))
	}
	return sources
}

func parseCrtSh(body []byte, _ string) ([]string, error) {
	var entries []struct {
		NameValue string `json:"name_value"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}

	var hosts []string
	for _, e := range entries {
		// name_value holds one SAN per line
		for _, name := range strings.Split(e.NameValue, "\n") {
			if name = strings.TrimSpace(name); name != "" {
				hosts = append(hosts, name)
			}
		}
	}
	return hosts, nil
}

func parseHackerTarget(body []byte, _ string) ([]string, error) {
	// Errors come back as plain text with a 200 status
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("error")) ||
		bytes.Contains(body, []byte("API count exceeded")) {
		return nil, fmt.Errorf("%s", strings.TrimSpace(string(body)))
	}

	var hosts []string
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		host, _, _ := strings.Cut(line, ",")
		hosts = append(hosts, host)
	}
	return hosts, scanner.Err()
}

func parseAlienVault(body []byte, _ string) ([]string, error) {
	var payload struct {
		PassiveDNS []struct {
			Hostname string `json:"hostname"`
		} `json:"passive_dns"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	hosts := make([]string, 0, len(payload.PassiveDNS))
	for _, r := range payload.PassiveDNS {
		hosts = append(hosts, r.Hostname)
	}
	return hosts, nil
}

func parseCertSpotter(body []byte, _ string) ([]string, error) {
	var issuances []struct {
		DNSNames []string `json:"dns_names"`
	}
	if err := json.Unmarshal(body, &issuances); err != nil {
		return nil, err
	}

	var hosts []string
	for _, iss := range issuances {
		hosts = append(hosts, iss.DNSNames...)
	}
	return hosts, nil
}

func parseSecurityTrails(body []byte, domain string) ([]string, error) {
	var payload struct {
		Subdomains []string `json:"subdomains"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	// SecurityTrails returns labels relative to the queried domain
	hosts := make([]string, 0, len(payload.Subdomains))
	for _, label := range payload.Subdomains {
		hosts = append(hosts, label+"."+domain)
	}
	return hosts, nil
}

func parseVirusTotal(body []byte, _ string) ([]string, error) {
	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	hosts := make([]string, 0, len(payload.Data))
	for _, d := range payload.Data {
		hosts = append(hosts, d.ID)
	}
	return hosts, nil
}
