package analyzer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/hakim/surfacerecon/internal/models"
)

// Document is fetched content with the location it came from.
type Document struct {
	Location models.Location
	Content  string
}

// Fetcher downloads content for analysis with bounded concurrency.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	bodyCap     int64
	userAgent   string
	concurrency int
}

// NewFetcher creates a fetcher. Only 200 responses are returned as documents.
func NewFetcher(client *http.Client, timeout time.Duration, bodyCap int64, userAgent string, concurrency int) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if bodyCap <= 0 {
		bodyCap = 50 * 1024
	}
	if concurrency <= 0 {
		concurrency = 10
	}
	return &Fetcher{
		client:      client,
		timeout:     timeout,
		bodyCap:     bodyCap,
		userAgent:   userAgent,
		concurrency: concurrency,
	}
}

// Fetch retrieves one URL. Non-200 statuses are reported as errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.bodyCap))
	if err != nil && len(body) == 0 {
		return nil, err
	}

	return &Document{
		Location: models.Location{Hostname: u.Hostname(), Path: u.RequestURI(), URL: rawURL},
		Content:  string(body),
	}, nil
}

// FetchAll retrieves urls and returns the successful documents in input
// order. URLs not yet dispatched when ctx is cancelled are skipped.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []Document {
	slots := make([]*Document, len(urls))

	p := pool.New().WithMaxGoroutines(f.concurrency)
	for i, u := range urls {
		if ctx.Err() != nil {
			break
		}
		p.Go(func() {
			doc, err := f.Fetch(context.WithoutCancel(ctx), u)
			if err != nil {
				return
			}
			slots[i] = doc
		})
	}
	p.Wait()

	docs := make([]Document, 0, len(urls))
	for _, d := range slots {
		if d != nil {
			docs = append(docs, *d)
		}
	}
	return docs
}

// ScanAll scans every document and concatenates the findings.
func ScanAll(docs []Document) []models.Finding {
	var findings []models.Finding
	for _, d := range docs {
		findings = append(findings, Scan(d.Location, d.Content)...)
	}
	return findings
}
