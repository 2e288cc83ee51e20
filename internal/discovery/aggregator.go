package discovery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// Aggregator merges wordlist expansion and passive sources into one
// deduplicated candidate set.
type Aggregator struct {
	sources     []Source
	useWordlist bool
	timeout     time.Duration
}

// NewAggregator creates an aggregator. timeout bounds each source call.
func NewAggregator(timeout time.Duration, useWordlist bool, sources ...Source) *Aggregator {
	return &Aggregator{
		sources:     sources,
		useWordlist: useWordlist,
		timeout:     timeout,
	}
}

// Sources returns the names of the configured passive sources.
func (a *Aggregator) Sources() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name()
	}
	return names
}

type sourceResult struct {
	hosts []string
	err   error
}

// Discover returns the sorted candidate set for domain and one warning per
// source that failed. A failing source contributes nothing; the bare domain
// is always a member.
func (a *Aggregator) Discover(ctx context.Context, domain string) ([]string, []string) {
	domain = normalizeHost(domain)
	set := map[string]struct{}{domain: {}}

	if a.useWordlist {
		for _, h := range ExpandWordlist(domain) {
			set[h] = struct{}{}
		}
	}

	results := make([]sourceResult, len(a.sources))
	p := pool.New().WithMaxGoroutines(len(a.sources) + 1)
	for i, src := range a.sources {
		if ctx.Err() != nil {
			results[i].err = ctx.Err()
			continue
		}
		p.Go(func() {
			results[i] = a.fetch(ctx, src, domain)
		})
	}
	p.Wait()

	var warnings []string
	for i, src := range a.sources {
		r := results[i]
		if r.err != nil {
			fmt.Printf("[!] Source %s unavailable: %v\n", src.Name(), r.err)
			warnings = append(warnings, fmt.Sprintf("source %s unavailable: %v", src.Name(), r.err))
			continue
		}

		added := 0
		for _, raw := range r.hosts {
			h := normalizeHost(raw)
			if h == "" || !inScope(h, domain) {
				continue
			}
			if _, ok := set[h]; !ok {
				set[h] = struct{}{}
				added++
			}
		}
		fmt.Printf("[+] %s: %d hostnames (%d new)\n", src.Name(), len(r.hosts), added)
	}

	candidates := make([]string, 0, len(set))
	for h := range set {
		candidates = append(candidates, h)
	}
	sort.Strings(candidates)

	return candidates, warnings
}

// fetch runs one source with its own deadline. A source already dispatched is
// allowed to finish even if the scan is cancelled meanwhile.
func (a *Aggregator) fetch(ctx context.Context, src Source, domain string) (res sourceResult) {
	defer func() {
		if r := recover(); r != nil {
			res = sourceResult{err: fmt.Errorf("panic: %v", r)}
		}
	}()

	callCtx := context.WithoutCancel(ctx)
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, a.timeout)
		defer cancel()
	}

	hosts, err := src.Fetch(callCtx, domain)
	return sourceResult{hosts: hosts, err: err}
}
