package report

import (
	"strings"
	"testing"

	"github.com/hakim/surfacerecon/internal/diff"
	"github.com/hakim/surfacerecon/internal/models"
)

func TestMarkdownOrdersFindingsBySeverity(t *testing.T) {
	r := models.NewScanReport("example.com")
	r.Status = models.StatusComplete
	r.Findings = []models.Finding{
		{Pattern: "email", Severity: models.SeverityMedium, Location: models.Location{URL: "https://example.com"}},
		{Pattern: "awsKey", Severity: models.SeverityCritical, Location: models.Location{URL: "https://example.com/app.js"}},
	}
	r.Summary.Findings = 2
	r.Live = []models.LiveEndpoint{{URL: "https://example.com", StatusCode: 200, Title: "a|b"}}

	md := Markdown(r)

	if !strings.Contains(md, "**Domain:** example.com") {
		t.Error("missing domain header")
	}
	if strings.Index(md, "| CRITICAL | awsKey") > strings.Index(md, "| MEDIUM | email") {
		t.Error("expected critical findings first")
	}
	if !strings.Contains(md, `a\|b`) {
		t.Error("expected pipe in title to be escaped")
	}
}

func TestDiffMarkdown(t *testing.T) {
	prev := models.NewScanReport("example.com")
	curr := models.NewScanReport("example.com")
	curr.Resolved = []models.ResolvedHost{{Hostname: "new.example.com"}}

	md := DiffMarkdown(diff.Compute(curr, prev))
	if !strings.Contains(md, "## New Hosts (+1)") || !strings.Contains(md, "- new.example.com") {
		t.Errorf("unexpected diff markdown:\n%s", md)
	}

	if md := DiffMarkdown(diff.Compute(prev, prev)); !strings.Contains(md, "No changes detected.") {
		t.Errorf("expected no changes, got:\n%s", md)
	}
}

func TestFormatChange(t *testing.T) {
	testCases := []struct {
		added, removed int
		expected       string
	}{
		{0, 0, "none"},
		{2, 0, "+2"},
		{1, 3, "+1 / -3"},
	}
	for _, tc := range testCases {
		if got := formatChange(tc.added, tc.removed); got != tc.expected {
			t.Errorf("expected %q, got %q", tc.expected, got)
		}
	}
}
