package portscan

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/hakim/surfacerecon/internal/models"
)

// Scanner performs TCP connect scans.
type Scanner struct {
	dialer      *net.Dialer
	concurrency int
	maxHosts    int
	maxPorts    int
}

// NewScanner creates a scanner. maxHosts and maxPorts bound ScanAll; zero
// means no limit.
func NewScanner(timeout time.Duration, concurrency, maxHosts, maxPorts int) *Scanner {
	if concurrency <= 0 {
		concurrency = 20
	}
	return &Scanner{
		dialer:      &net.Dialer{Timeout: timeout},
		concurrency: concurrency,
		maxHosts:    maxHosts,
		maxPorts:    maxPorts,
	}
}

// ScanPorts returns the ports on host that accept a TCP connection, in the
// order given. Refused and timed-out ports are omitted.
func (s *Scanner) ScanPorts(ctx context.Context, host string, ports []int) []models.OpenPort {
	open := make([]bool, len(ports))

	p := pool.New().WithMaxGoroutines(s.concurrency)
	for i, port := range ports {
		if ctx.Err() != nil {
			break
		}
		p.Go(func() {
			open[i] = s.probe(context.WithoutCancel(ctx), host, port)
		})
	}
	p.Wait()

	var results []models.OpenPort
	for i, ok := range open {
		if !ok {
			continue
		}
		results = append(results, models.OpenPort{
			Hostname: host,
			Port:     ports[i],
			Service:  ServiceName(ports[i]),
		})
	}
	return results
}

func (s *Scanner) probe(ctx context.Context, host string, port int) bool {
	conn, err := s.dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// ScanAll scans the first maxPorts of CommonPorts on the first maxHosts hosts.
func (s *Scanner) ScanAll(ctx context.Context, hosts []string) []models.OpenPort {
	ports := CommonPorts
	if s.maxPorts > 0 && len(ports) > s.maxPorts {
		ports = ports[:s.maxPorts]
	}
	if s.maxHosts > 0 && len(hosts) > s.maxHosts {
		hosts = hosts[:s.maxHosts]
	}

	var results []models.OpenPort
	for _, host := range hosts {
		if ctx.Err() != nil {
			fmt.Printf("[!] Port scan stopped: %v\n", ctx.Err())
			break
		}
		found := s.ScanPorts(ctx, host, ports)
		for _, p := range found {
			fmt.Printf("[+] %s:%d open (%s)\n", host, p.Port, p.Service)
		}
		results = append(results, found...)
	}
	return results
}
