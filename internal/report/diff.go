package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/hakim/surfacerecon/internal/diff"
	"github.com/hakim/surfacerecon/internal/models"
)

// DiffMarkdown renders the delta between two scans.
func DiffMarkdown(r *diff.Result) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Scan Diff Report: %s\n\n", r.Domain))
	b.WriteString(fmt.Sprintf("**Date:** %s\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC")))
	b.WriteString(fmt.Sprintf("**Current:** %s | **Previous:** %s\n\n", r.CurrentID, r.PreviousID))

	if r.Empty() {
		b.WriteString("No changes detected.\n")
		return b.String()
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Category | Previous | Current | Change |\n")
	b.WriteString("|----------|----------|---------|--------|\n")
	b.WriteString(fmt.Sprintf("| Hosts | %d | %d | %s |\n",
		r.PreviousHostCount, r.CurrentHostCount, formatChange(len(r.NewHosts), len(r.RemovedHosts))))
	b.WriteString(fmt.Sprintf("| Open Ports | %d | %d | %s |\n",
		r.PreviousPortCount, r.CurrentPortCount, formatChange(len(r.NewPorts), len(r.ClosedPorts))))
	b.WriteString(fmt.Sprintf("| Findings | %d | %d | %s |\n\n",
		r.PreviousFindingCount, r.CurrentFindingCount, formatChange(len(r.NewFindings), len(r.ResolvedFindings))))

	writeList(&b, "New Hosts", "+", r.NewHosts)
	writeList(&b, "Removed Hosts", "-", r.RemovedHosts)
	writeList(&b, "New Endpoints", "+", r.NewEndpoints)
	writeList(&b, "Removed Endpoints", "-", r.RemovedEndpoints)
	writePortChanges(&b, "New Ports", "+", r.NewPorts)
	writePortChanges(&b, "Closed Ports", "-", r.ClosedPorts)

	paths := make([]string, len(r.NewPaths))
	for i, p := range r.NewPaths {
		paths[i] = p.URL
	}
	writeList(&b, "New Sensitive Paths", "+", paths)

	writeFindingChanges(&b, "New Findings", "+", r.NewFindings)
	writeFindingChanges(&b, "Resolved Findings", "-", r.ResolvedFindings)

	return b.String()
}

// WriteDiffMarkdown renders r and writes it to outputPath.
func WriteDiffMarkdown(r *diff.Result, outputPath string) error {
	return writeFile(outputPath, DiffMarkdown(r))
}

func writeList(b *strings.Builder, title, sign string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("## %s (%s%d)\n\n", title, sign, len(items)))
	for _, it := range items {
		b.WriteString(fmt.Sprintf("- %s\n", it))
	}
	b.WriteString("\n")
}

func writePortChanges(b *strings.Builder, title, sign string, ports []models.OpenPort) {
	if len(ports) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("## %s (%s%d)\n\n", title, sign, len(ports)))
	for _, p := range ports {
		b.WriteString(fmt.Sprintf("- %s:%d (%s)\n", p.Hostname, p.Port, p.Service))
	}
	b.WriteString("\n")
}

func writeFindingChanges(b *strings.Builder, title, sign string, findings []models.Finding) {
	if len(findings) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("## %s (%s%d)\n\n", title, sign, len(findings)))
	for _, f := range findings {
		b.WriteString(fmt.Sprintf("- [%s] %s at %s\n", f.Severity, f.Pattern, f.Location.URL))
	}
	b.WriteString("\n")
}

func formatChange(added, removed int) string {
	if added == 0 && removed == 0 {
		return "none"
	}
	parts := make([]string, 0, 2)
	if added > 0 {
		parts = append(parts, fmt.Sprintf("+%d", added))
	}
	if removed > 0 {
		parts = append(parts, fmt.Sprintf("-%d", removed))
	}
	return strings.Join(parts, " / ")
}
