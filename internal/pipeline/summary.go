package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hakim/surfacerecon/internal/models"
	"github.com/hakim/surfacerecon/internal/portscan"
)

var (
	outdatedMarkers = []string{"apache/1", "iis/6", "php/5"}
	hiddenMarkers   = []string{"admin", "private", "internal", "secret", "hidden"}
)

// Summarize fills r.Summary from the phase outputs collected so far. Warnings
// already on the report (e.g. source failures) are kept.
func Summarize(r *models.ScanReport) {
	s := &r.Summary
	s.Candidates = len(r.Candidates)
	s.Resolved = len(r.Resolved)
	s.URLs = r.URLs.Total
	s.Findings = len(r.Findings)
	s.SensitivePaths = len(r.PathResults)
	s.OpenPorts = len(r.OpenPorts)

	s.LiveEndpoints = make([]string, 0, len(r.Live))
	for _, ep := range r.Live {
		s.LiveEndpoints = append(s.LiveEndpoints, ep.URL)
	}

	s.SeverityCounts = make(map[models.Severity]int)
	for _, f := range r.Findings {
		s.SeverityCounts[f.Severity]++
	}

	s.Technologies = uniqueTechnologies(r.Live)

	for _, f := range r.Findings {
		if f.Severity == models.SeverityCritical {
			r.AddWarning(fmt.Sprintf("critical %s exposed at %s", f.Pattern, f.Location.URL))
		}
	}

	for _, t := range s.Technologies {
		name := strings.ToLower(t.Name)
		for _, m := range outdatedMarkers {
			if strings.Contains(name, m) {
				r.AddWarning(fmt.Sprintf("outdated technology detected: %s", t.Name))
				break
			}
		}
	}

	for _, ep := range r.Live {
		host := strings.ToLower(ep.Hostname)
		for _, m := range hiddenMarkers {
			if strings.Contains(host, m) {
				r.AddWarning(fmt.Sprintf("potentially sensitive host is reachable: %s", ep.Hostname))
				break
			}
		}
	}

	for _, p := range r.OpenPorts {
		if portscan.Exposed(p.Port) {
			r.AddWarning(fmt.Sprintf("%s exposed on %s:%d", p.Service, p.Hostname, p.Port))
		}
	}
}

// uniqueTechnologies returns each technology name once, sorted by name.
func uniqueTechnologies(live []models.LiveEndpoint) []models.Technology {
	seen := make(map[string]bool)
	techs := []models.Technology{}
	for _, ep := range live {
		for _, t := range ep.Technologies {
			if seen[t.Name] {
				continue
			}
			seen[t.Name] = true
			techs = append(techs, t)
		}
	}
	sort.Slice(techs, func(i, j int) bool { return techs[i].Name < techs[j].Name })
	return techs
}
