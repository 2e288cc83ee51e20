package discovery

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ErrInvalidDomain is returned for targets that are not registrable domain names.
var ErrInvalidDomain = errors.New("invalid domain")

var domainPattern = regexp.MustCompile(`^([a-zA-Z0-9][-a-zA-Z0-9]*\.)+[a-zA-Z]{2,}$`)

// ValidateDomain normalizes a scan target and checks that it is a domain name
// below a public suffix. "example.co.uk" is accepted, "co.uk" is not.
func ValidateDomain(domain string) (string, error) {
	d := normalizeHost(domain)
	if d == "" || !domainPattern.MatchString(d) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}

	if _, err := publicsuffix.EffectiveTLDPlusOne(d); err != nil {
		return "", fmt.Errorf("%w: %q is a public suffix", ErrInvalidDomain, domain)
	}

	return d, nil
}

// normalizeHost lowercases, trims whitespace and trailing dots, and strips a
// leading wildcard label. Returns "" for entries that cannot be hostnames.
func normalizeHost(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	h = strings.TrimSuffix(h, ".")
	h = strings.TrimPrefix(h, "*.")

	if h == "" || strings.ContainsAny(h, " */:@\t") {
		return ""
	}

	return h
}

// inScope reports whether host is domain or one of its subdomains.
func inScope(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
