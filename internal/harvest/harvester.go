package harvest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/hakim/surfacerecon/internal/models"
)

// SampleSize is the number of URLs kept in HarvestResult.Sample.
const SampleSize = 50

// Harvester collects historical URLs for live hosts from archive indexes.
type Harvester struct {
	indexes     []Index
	timeout     time.Duration
	maxURLs     int
	concurrency int
}

// NewHarvester creates a harvester. maxURLs caps the retained URL list.
func NewHarvester(timeout time.Duration, maxURLs, concurrency int, indexes ...Index) *Harvester {
	if maxURLs <= 0 {
		maxURLs = 5000
	}
	if concurrency <= 0 {
		concurrency = 10
	}
	return &Harvester{
		indexes:     indexes,
		timeout:     timeout,
		maxURLs:     maxURLs,
		concurrency: concurrency,
	}
}

type query struct {
	host  string
	index Index
	urls  []string
	err   error
}

// Harvest queries every index for every host. A failing (host, index) pair
// contributes nothing. URLs are deduplicated by exact string; Total counts
// unique URLs before the cap.
func (h *Harvester) Harvest(ctx context.Context, domain string, hosts []string) models.HarvestResult {
	queries := make([]query, 0, len(hosts)*len(h.indexes))
	for _, host := range hosts {
		for _, idx := range h.indexes {
			queries = append(queries, query{host: host, index: idx})
		}
	}

	p := pool.New().WithMaxGoroutines(h.concurrency)
	for i := range queries {
		if ctx.Err() != nil {
			fmt.Printf("[!] URL harvest stopped after %d/%d queries: %v\n", i, len(queries), ctx.Err())
			break
		}
		p.Go(func() {
			q := &queries[i]
			q.urls, q.err = h.fetch(ctx, q.index, q.host)
		})
	}
	p.Wait()

	seen := make(map[string]struct{})
	var retained []models.HarvestedURL
	for _, q := range queries {
		if q.err != nil {
			fmt.Printf("[!] %s failed for %s: %v\n", q.index.Name(), q.host, q.err)
			continue
		}
		for _, raw := range q.urls {
			raw = strings.TrimSpace(raw)
			if raw == "" || !belongsTo(raw, q.host) {
				continue
			}
			if _, ok := seen[raw]; ok {
				continue
			}
			seen[raw] = struct{}{}
			if len(retained) < h.maxURLs {
				retained = append(retained, models.HarvestedURL{
					URL:      raw,
					Source:   q.index.Name(),
					Hostname: q.host,
				})
			}
		}
	}

	result := models.HarvestResult{
		Total:       len(seen),
		Categorized: make(map[models.Category][]models.HarvestedURL),
		Sample:      []string{},
	}
	for i := range retained {
		retained[i].Category = Categorize(retained[i].URL)
		result.Categorized[retained[i].Category] = append(result.Categorized[retained[i].Category], retained[i])
		if i < SampleSize {
			result.Sample = append(result.Sample, retained[i].URL)
		}
	}

	fmt.Printf("[+] Harvested %d unique URLs for %s (%d retained)\n", result.Total, domain, len(retained))
	return result
}

func (h *Harvester) fetch(ctx context.Context, idx Index, host string) (urls []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	callCtx := context.WithoutCancel(ctx)
	if h.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, h.timeout)
		defer cancel()
	}
	return idx.Fetch(callCtx, host)
}

// belongsTo reports whether rawURL's host is host or one of its subdomains.
func belongsTo(rawURL, host string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	h := strings.ToLower(u.Hostname())
	host = strings.ToLower(host)
	return h == host || strings.HasSuffix(h, "."+host)
}
