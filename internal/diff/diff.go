// Package diff computes the delta between two scan reports of the same domain.
// It answers what is new or gone since the previous run: resolved hosts,
// live endpoints, open ports, sensitive paths and findings.
package diff

import (
	"fmt"
	"sort"

	"github.com/hakim/surfacerecon/internal/models"
)

// Result holds the delta between a current and a previous report. All slice
// fields are non-nil so callers can range over them unconditionally.
type Result struct {
	Domain     string
	CurrentID  string
	PreviousID string

	NewHosts     []string
	RemovedHosts []string

	NewEndpoints     []string
	RemovedEndpoints []string

	NewPorts    []models.OpenPort
	ClosedPorts []models.OpenPort

	NewPaths     []models.PathResult
	RemovedPaths []models.PathResult

	NewFindings      []models.Finding
	ResolvedFindings []models.Finding

	// Summary counts
	CurrentHostCount     int
	PreviousHostCount    int
	CurrentPortCount     int
	PreviousPortCount    int
	CurrentFindingCount  int
	PreviousFindingCount int
}

// Empty reports whether nothing changed between the two reports.
func (r *Result) Empty() bool {
	return len(r.NewHosts)+len(r.RemovedHosts)+
		len(r.NewEndpoints)+len(r.RemovedEndpoints)+
		len(r.NewPorts)+len(r.ClosedPorts)+
		len(r.NewPaths)+len(r.RemovedPaths)+
		len(r.NewFindings)+len(r.ResolvedFindings) == 0
}

// Compute calculates the delta between current and previous. previous may be
// nil for the first scan of a domain, in which case everything is new.
func Compute(current, previous *models.ScanReport) *Result {
	if previous == nil {
		previous = models.NewScanReport(current.Domain)
	}

	dr := &Result{
		Domain:     current.Domain,
		CurrentID:  current.ID,
		PreviousID: previous.ID,
	}

	dr.NewHosts, dr.RemovedHosts = diffKeys(hostnames(current.Resolved), hostnames(previous.Resolved))
	dr.NewEndpoints, dr.RemovedEndpoints = diffKeys(endpointURLs(current.Live), endpointURLs(previous.Live))
	dr.NewPorts, dr.ClosedPorts = diffBy(current.OpenPorts, previous.OpenPorts, portKey)
	dr.NewPaths, dr.RemovedPaths = diffBy(current.PathResults, previous.PathResults, func(p models.PathResult) string { return p.URL })
	dr.NewFindings, dr.ResolvedFindings = diffBy(current.Findings, previous.Findings, findingKey)

	dr.CurrentHostCount = len(current.Resolved)
	dr.PreviousHostCount = len(previous.Resolved)
	dr.CurrentPortCount = len(current.OpenPorts)
	dr.PreviousPortCount = len(previous.OpenPorts)
	dr.CurrentFindingCount = len(current.Findings)
	dr.PreviousFindingCount = len(previous.Findings)

	return dr
}

// portKey format: "host:port"
func portKey(p models.OpenPort) string {
	return fmt.Sprintf("%s:%d", p.Hostname, p.Port)
}

// findingKey format: "pattern::url". Match values are ignored so a rotated
// secret at the same place is not reported as new.
func findingKey(f models.Finding) string {
	return fmt.Sprintf("%s::%s", f.Pattern, f.Location.URL)
}

func hostnames(hosts []models.ResolvedHost) []string {
	out := make([]string, len(hosts))
	for i, h := range hosts {
		out[i] = h.Hostname
	}
	return out
}

func endpointURLs(live []models.LiveEndpoint) []string {
	out := make([]string, len(live))
	for i, ep := range live {
		out[i] = ep.URL
	}
	return out
}

// diffKeys returns sorted added and removed strings.
func diffKeys(current, previous []string) (added, removed []string) {
	added, removed = diffBy(current, previous, func(s string) string { return s })
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

// diffBy returns items of current whose key is absent from previous and vice
// versa, each in their original order and deduplicated by key.
func diffBy[T any](current, previous []T, key func(T) string) (added, removed []T) {
	added, removed = []T{}, []T{}

	prevKeys := make(map[string]bool, len(previous))
	for _, v := range previous {
		prevKeys[key(v)] = true
	}
	currKeys := make(map[string]bool, len(current))
	for _, v := range current {
		currKeys[key(v)] = true
	}

	seen := make(map[string]bool)
	for _, v := range current {
		k := key(v)
		if !prevKeys[k] && !seen[k] {
			seen[k] = true
			added = append(added, v)
		}
	}

	seen = make(map[string]bool)
	for _, v := range previous {
		k := key(v)
		if !currKeys[k] && !seen[k] {
			seen[k] = true
			removed = append(removed, v)
		}
	}
	return added, removed
}
