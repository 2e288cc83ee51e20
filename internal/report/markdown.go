package report

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hakim/surfacerecon/internal/models"
)

// Markdown renders a scan report as a markdown document.
func Markdown(r *models.ScanReport) string {
	var b strings.Builder

	// Header
	b.WriteString("# Reconnaissance Report\n\n")
	b.WriteString(fmt.Sprintf("**Domain:** %s\n", r.Domain))
	b.WriteString(fmt.Sprintf("**Scan ID:** %s\n", r.ID))
	b.WriteString(fmt.Sprintf("**Started:** %s\n", r.StartedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	b.WriteString(fmt.Sprintf("**Status:** %s | **Duration:** %s\n\n", r.Status, r.Duration.Round(time.Second)))

	writeSummary(&b, r)
	writePhases(&b, r.Phases)
	writeWarnings(&b, r.Summary.Warnings)
	writeLive(&b, r.Live)
	writeFindings(&b, r.Findings)
	writePaths(&b, r.PathResults)
	writePorts(&b, r.OpenPorts)
	writeURLs(&b, r.URLs)

	if r.Commentary != "" {
		b.WriteString("## Analyst Notes\n\n")
		b.WriteString(r.Commentary)
		b.WriteString("\n")
	}

	return b.String()
}

// WriteMarkdown renders r and writes it to outputPath.
func WriteMarkdown(r *models.ScanReport, outputPath string) error {
	return writeFile(outputPath, Markdown(r))
}

func writeSummary(b *strings.Builder, r *models.ScanReport) {
	s := r.Summary
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Count |\n")
	b.WriteString("|--------|-------|\n")
	b.WriteString(fmt.Sprintf("| Candidates | %d |\n", s.Candidates))
	b.WriteString(fmt.Sprintf("| Resolved | %d |\n", s.Resolved))
	b.WriteString(fmt.Sprintf("| Live endpoints | %d |\n", len(s.LiveEndpoints)))
	b.WriteString(fmt.Sprintf("| Harvested URLs | %d |\n", s.URLs))
	b.WriteString(fmt.Sprintf("| Findings | %d |\n", s.Findings))
	b.WriteString(fmt.Sprintf("| Sensitive paths | %d |\n", s.SensitivePaths))
	b.WriteString(fmt.Sprintf("| Open ports | %d |\n", s.OpenPorts))
	b.WriteString("\n")

	if s.Findings > 0 {
		b.WriteString("| Severity | Findings |\n")
		b.WriteString("|----------|----------|\n")
		for _, sev := range models.SeverityOrder {
			b.WriteString(fmt.Sprintf("| %s | %d |\n", sev, s.SeverityCounts[sev]))
		}
		b.WriteString("\n")
	}
}

func writePhases(b *strings.Builder, phases []models.PhaseStat) {
	b.WriteString("## Phases\n\n")
	b.WriteString("| Phase | Count | Duration | Error |\n")
	b.WriteString("|-------|-------|----------|-------|\n")
	for _, p := range phases {
		b.WriteString(fmt.Sprintf("| %s | %d | %s | %s |\n", p.Phase, p.Count, p.Duration.Round(time.Millisecond), p.Error))
	}
	b.WriteString("\n")
}

func writeWarnings(b *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	b.WriteString("## Warnings\n\n")
	for _, w := range warnings {
		b.WriteString(fmt.Sprintf("- %s\n", w))
	}
	b.WriteString("\n")
}

func writeLive(b *strings.Builder, live []models.LiveEndpoint) {
	b.WriteString("## Live Endpoints\n\n")
	if len(live) == 0 {
		b.WriteString("None found.\n\n")
		return
	}
	b.WriteString("| URL | Status | Title | Technologies | Response |\n")
	b.WriteString("|-----|--------|-------|--------------|----------|\n")
	for _, ep := range live {
		techs := make([]string, len(ep.Technologies))
		for i, t := range ep.Technologies {
			techs[i] = t.Name
		}
		b.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s |\n",
			ep.URL, ep.StatusCode, escapeCell(ep.Title), strings.Join(techs, ", "), ep.ResponseTime.Round(time.Millisecond)))
	}
	b.WriteString("\n")
}

func writeFindings(b *strings.Builder, findings []models.Finding) {
	b.WriteString("## Findings\n\n")
	if len(findings) == 0 {
		b.WriteString("None found.\n\n")
		return
	}

	sorted := make([]models.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return severityRank(sorted[i].Severity) < severityRank(sorted[j].Severity)
	})

	b.WriteString("| Severity | Pattern | Location | Matches | Confidence |\n")
	b.WriteString("|----------|---------|----------|---------|------------|\n")
	for _, f := range sorted {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %.2f |\n",
			f.Severity, f.Pattern, f.Location.URL, len(f.Matches), f.Confidence))
	}
	b.WriteString("\n")
}

func writePaths(b *strings.Builder, paths []models.PathResult) {
	if len(paths) == 0 {
		return
	}
	b.WriteString("## Sensitive Paths\n\n")
	for _, p := range paths {
		b.WriteString(fmt.Sprintf("- %s (%d findings)\n", p.URL, len(p.Findings)))
	}
	b.WriteString("\n")
}

func writePorts(b *strings.Builder, ports []models.OpenPort) {
	if len(ports) == 0 {
		return
	}
	b.WriteString("## Open Ports\n\n")
	b.WriteString("| Host | Port | Service |\n")
	b.WriteString("|------|------|---------|\n")
	for _, p := range ports {
		b.WriteString(fmt.Sprintf("| %s | %d | %s |\n", p.Hostname, p.Port, p.Service))
	}
	b.WriteString("\n")
}

func writeURLs(b *strings.Builder, h models.HarvestResult) {
	if h.Total == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("## Historical URLs (%d unique)\n\n", h.Total))
	cats := make([]string, 0, len(h.Categorized))
	for c := range h.Categorized {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)
	for _, c := range cats {
		b.WriteString(fmt.Sprintf("- %s: %d\n", c, len(h.Categorized[models.Category(c)])))
	}
	b.WriteString("\n")
}

func severityRank(s models.Severity) int {
	for i, sev := range models.SeverityOrder {
		if sev == s {
			return i
		}
	}
	return len(models.SeverityOrder)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func writeFile(outputPath, content string) error {
	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", outputPath, err)
	}
	return nil
}
