package harvest

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

	"github.com/hakim/surfacerecon/internal/config"
)

const maxIndexBody = 16 << 20

// Index is a historical URL index queried per host.
type Index interface {
	Name() string
	Fetch(ctx context.Context, host string) ([]string, error)
}

// ErrBadStatus is returned when an index answers with a non-2xx status.
var ErrBadStatus = errors.New("unexpected status")

type httpIndex struct {
	name      string
	endpoint  func(host string) string
	header    http.Header
	parse     func(body []byte) ([]string, error)
	client    *http.Client
	userAgent string
}

func (x *httpIndex) Name() string { return x.name }

func (x *httpIndex) Fetch(ctx context.Context, host string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, x.endpoint(host), nil)
	if err != nil {
		return nil, err
	}
	for k, vals := range x.header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if x.userAgent != "" {
		req.Header.Set("User-Agent", x.userAgent)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w %d", ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIndexBody))
	if err != nil {
		return nil, err
	}
	return x.parse(body)
}

// IndexOptions are shared by every HTTP-backed index.
type IndexOptions struct {
	Client    *http.Client
	UserAgent string
	// BaseURL replaces the scheme and host of every index endpoint.
	BaseURL string
}

func (o IndexOptions) newIndex(name string, endpoint func(string) string, header http.Header, parse func([]byte) ([]string, error)) Index {
	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &httpIndex{
		name: name,
		endpoint: func(h string) string {
			raw := endpoint(h)
			if o.BaseURL == "" {
				return raw
			}
			u, err := url.Parse(raw)
			base, berr := url.Parse(o.BaseURL)
			if err != nil || berr != nil {
				return raw
			}
			u.Scheme, u.Host = base.Scheme, base.Host
			return u.String()
		},
		header:    header,
		parse:     parse,
		client:    client,
		userAgent: o.UserAgent,
	}
}

// NewWaybackIndex queries the Wayback Machine CDX API.
func NewWaybackIndex(opts IndexOptions) Index {
	return opts.newIndex("wayback", func(h string) string {
		return "http://web.archive.org/cdx/search/cdx?url=*." + url.QueryEscape(h) + "&output=json&fl=original&collapse=urlkey"
	}, nil, parseWayback)
}

// NewCommonCrawlIndex queries one CommonCrawl collection, e.g. CC-MAIN-2024-10.
func NewCommonCrawlIndex(opts IndexOptions, collection string) Index {
	return opts.newIndex("commoncrawl", func(h string) string {
		return "http://index.commoncrawl.org/" + collection + "-index?url=*." + url.QueryEscape(h) + "&output=json"
	}, nil, parseCommonCrawl)
}

// NewAlienVaultIndex queries the AlienVault OTX url_list.
func NewAlienVaultIndex(opts IndexOptions) Index {
	return opts.newIndex("otx", func(h string) string {
		return "https://otx.alienvault.com/api/v1/indicators/domain/" + url.PathEscape(h) + "/url_list?limit=100"
	}, nil, parseAlienVault)
}

// NewURLScanIndex queries urlscan.io search. apiKey may be empty.
func NewURLScanIndex(opts IndexOptions, apiKey string) Index {
	var header http.Header
	if apiKey != "" {
		header = http.Header{"Api-Key": []string{apiKey}}
	}
	return opts.newIndex("urlscan", func(h string) string {
		return "https://urlscan.io/api/v1/search/?q=domain:" + url.QueryEscape(h)
	}, header, parseURLScan)
}

// IndexesFromConfig builds the enabled archive indexes.
func IndexesFromConfig(cfg *config.Config, client *http.Client) []Index {
	opts := IndexOptions{Client: client, UserAgent: cfg.UserAgent}

	var indexes []Index
	if cfg.Archives.Wayback {
		indexes = append(indexes, NewWaybackIndex(opts))
	}
	if cfg.Archives.CommonCrawl && cfg.Archives.CommonCrawlIndex != "" {
		indexes = append(indexes, NewCommonCrawlIndex(opts, cfg.Archives.CommonCrawlIndex))
	}
	if cfg.Archives.URLScan {
		indexes = append(indexes, NewURLScanIndex(opts, cfg.Archives.URLScanKey))
	}
	if cfg.Archives.AlienVault {
		indexes = append(indexes, NewAlienVaultIndex(opts))
	}
	return indexes
}

func parseWayback(body []byte) ([]string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, err
	}

	var urls []string
	for i, row := range rows {
		// first row is the field header
		if i == 0 || len(row) == 0 {
			continue
		}
		urls = append(urls, row[0])
	}
	return urls, nil
}

func parseCommonCrawl(body []byte) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, err
		}
		if rec.URL != "" {
			urls = append(urls, rec.URL)
		}
	}
	return urls, scanner.Err()
}

func parseAlienVault(body []byte) ([]string, error) {
	var payload struct {
		URLList []struct {
			URL string `json:"url"`
		} `json:"url_list"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(payload.URLList))
	for _, u := range payload.URLList {
		urls = append(urls, u.URL)
	}
	return urls, nil
}

func parseURLScan(body []byte) ([]string, error) {
	var payload struct {
		Results []struct {
			Page struct {
				URL string `json:"url"`
			} `json:"page"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(payload.Results))
	for _, r := range payload.Results {
		urls = append(urls, r.Page.URL)
	}
	return urls, nil
}
