package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/miekg/dns"
	"github.com/sourcegraph/conc/pool"

	"github.com/hakim/surfacerecon/internal/models"
)

// Lookup answers a single-type address query for a hostname.
type Lookup interface {
	Lookup(ctx context.Context, host string, qtype uint16) ([]string, error)
}

// errNoAnswer is returned when every server failed or answered without data.
var errNoAnswer = errors.New("no answer from any DNS server")

// DNSLookup queries a list of DNS servers in order until one answers.
type DNSLookup struct {
	servers []string
	client  *dns.Client
}

// NewDNSLookup creates a miekg/dns backed lookup.
func NewDNSLookup(servers []string, timeout time.Duration) *DNSLookup {
	if len(servers) == 0 {
		servers = []string{"8.8.8.8:53", "1.1.1.1:53"}
	}
	return &DNSLookup{
		servers: servers,
		client:  &dns.Client{Timeout: timeout},
	}
}

// Lookup implements Lookup for dns.TypeA and dns.TypeAAAA.
func (l *DNSLookup) Lookup(ctx context.Context, host string, qtype uint16) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	var lastErr error = errNoAnswer
	for _, server := range l.servers {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, _, err := l.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode == dns.RcodeNameError {
			// NXDOMAIN is authoritative; asking another server won't help
			return nil, fmt.Errorf("%s: %s", host, dns.RcodeToString[resp.Rcode])
		}
		if resp.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("%s: %s from %s", host, dns.RcodeToString[resp.Rcode], server)
			continue
		}

		var addrs []string
		for _, ans := range resp.Answer {
			switch rr := ans.(type) {
			case *dns.A:
				addrs = append(addrs, rr.A.String())
			case *dns.AAAA:
				addrs = append(addrs, rr.AAAA.String())
			}
		}
		return addrs, nil
	}

	return nil, lastErr
}

// Resolver resolves candidate hostnames in fixed-size batches.
type Resolver struct {
	lookup    Lookup
	batchSize int
	timeout   time.Duration
}

// NewResolver creates a resolver. timeout bounds each hostname's lookups.
func NewResolver(lookup Lookup, batchSize int, timeout time.Duration) *Resolver {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Resolver{
		lookup:    lookup,
		batchSize: batchSize,
		timeout:   timeout,
	}
}

// Resolve returns the candidates that have at least one A or AAAA address, in
// input order. Lookup errors mean "does not resolve". Cancellation is checked
// before each batch; a batch already dispatched runs to completion. onBatch,
// if set, is called after every batch with the number of candidates processed.
func (r *Resolver) Resolve(ctx context.Context, candidates []string, onBatch func(done, total int)) []models.ResolvedHost {
	slots := make([]*models.ResolvedHost, len(candidates))

	for start := 0; start < len(candidates); start += r.batchSize {
		if ctx.Err() != nil {
			fmt.Printf("[!] Resolution stopped after %d/%d candidates: %v\n", start, len(candidates), ctx.Err())
			break
		}

		end := min(start+r.batchSize, len(candidates))

		p := pool.New().WithMaxGoroutines(r.batchSize)
		for i := start; i < end; i++ {
			p.Go(func() {
				slots[i] = r.resolveOne(ctx, candidates[i])
			})
		}
		p.Wait()

		if onBatch != nil {
			onBatch(end, len(candidates))
		}
	}

	resolved := make([]models.ResolvedHost, 0, len(candidates))
	for _, h := range slots {
		if h != nil {
			resolved = append(resolved, *h)
		}
	}
	return resolved
}

func (r *Resolver) resolveOne(ctx context.Context, host string) *models.ResolvedHost {
	lookupCtx := context.WithoutCancel(ctx)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(lookupCtx, r.timeout)
		defer cancel()
	}

	v4, _ := r.lookup.Lookup(lookupCtx, host, dns.TypeA)
	v6, _ := r.lookup.Lookup(lookupCtx, host, dns.TypeAAAA)

	if len(v4) == 0 && len(v6) == 0 {
		return nil
	}

	method := "A+AAAA"
	switch {
	case len(v6) == 0:
		method = "A"
	case len(v4) == 0:
		method = "AAAA"
	}

	addrs := make([]string, 0, len(v4)+len(v6))
	addrs = append(addrs, v4...)
	addrs = append(addrs, v6...)

	return &models.ResolvedHost{
		Hostname:  host,
		Addresses: addrs,
		Method:    method,
	}
}
