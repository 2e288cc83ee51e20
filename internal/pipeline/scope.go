package pipeline

import (
	"fmt"
	"net"
	"strings"

	"github.com/hakim/surfacerecon/internal/config"
	"github.com/hakim/surfacerecon/internal/models"
)

// ScopeConfig defines allowed scanning boundaries.
// An empty ScopeConfig (no rules) allows any target.
type ScopeConfig struct {
	// AllowedDomains lists domains the target must match.
	// "*.example.com" matches any subdomain of example.com at any depth;
	// "example.com" matches only itself.
	AllowedDomains []string

	// AllowedCIDRs lists ranges a resolved address must fall within.
	AllowedCIDRs []string

	networks []*net.IPNet
}

// NewScope builds a ScopeConfig from configuration. Invalid CIDRs are
// rejected by config validation and ignored here.
func NewScope(cfg config.ScopeConfig) *ScopeConfig {
	s := &ScopeConfig{
		AllowedDomains: cfg.AllowedDomains,
		AllowedCIDRs:   cfg.AllowedCIDRs,
	}
	for _, cidr := range cfg.AllowedCIDRs {
		if _, network, err := net.ParseCIDR(cidr); err == nil {
			s.networks = append(s.networks, network)
		}
	}
	return s
}

// ValidateTarget checks if a domain is within scope.
func (s *ScopeConfig) ValidateTarget(target string) error {
	if s == nil || len(s.AllowedDomains) == 0 {
		return nil
	}
	for _, pattern := range s.AllowedDomains {
		if domainMatches(target, pattern) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (allowed: %s)", ErrOutOfScope, target, strings.Join(s.AllowedDomains, ", "))
}

// ValidateIP checks if an IP is within any allowed CIDR range.
func (s *ScopeConfig) ValidateIP(ip string) error {
	if s == nil || len(s.AllowedCIDRs) == 0 {
		return nil
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return fmt.Errorf("scope: %q is not a valid IP address", ip)
	}
	for _, network := range s.networks {
		if network.Contains(parsed) {
			return nil
		}
	}
	return fmt.Errorf("%w: IP %q (allowed: %s)", ErrOutOfScope, ip, strings.Join(s.AllowedCIDRs, ", "))
}

// FilterHosts keeps resolved hosts with at least one in-scope address and
// narrows their address lists to the in-scope ones.
func (s *ScopeConfig) FilterHosts(hosts []models.ResolvedHost) (kept []models.ResolvedHost, dropped int) {
	if s == nil || len(s.AllowedCIDRs) == 0 {
		return hosts, 0
	}

	kept = make([]models.ResolvedHost, 0, len(hosts))
	for _, h := range hosts {
		var addrs []string
		for _, a := range h.Addresses {
			if s.ValidateIP(a) == nil {
				addrs = append(addrs, a)
			}
		}
		if len(addrs) == 0 {
			dropped++
			continue
		}
		h.Addresses = addrs
		kept = append(kept, h)
	}
	return kept, dropped
}

// domainMatches returns true when target satisfies the scope pattern.
// Comparison is case-insensitive.
func domainMatches(target, pattern string) bool {
	target = strings.ToLower(strings.TrimSuffix(target, "."))
	pattern = strings.ToLower(pattern)

	if !strings.HasPrefix(pattern, "*.") {
		return target == pattern
	}

	suffix := pattern[2:]
	return strings.HasSuffix(target, "."+suffix) && len(target) > len(suffix)+1
}
