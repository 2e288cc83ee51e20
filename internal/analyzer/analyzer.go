package analyzer

import (
	"strings"

	"github.com/hakim/surfacerecon/internal/models"
)

// MaxMatches is the number of sample matches kept per finding.
const MaxMatches = 5

// contextRadius is how much text around the first match goes into Context.
const contextRadius = 50

// Scan runs every pattern against content and returns one finding per
// pattern that matched, in pattern table order. It performs no I/O and is
// deterministic.
func Scan(loc models.Location, content string) []models.Finding {
	if content == "" {
		return nil
	}

	var findings []models.Finding
	for _, p := range Patterns {
		idx := p.Regexp.FindAllStringIndex(content, MaxMatches)
		if len(idx) == 0 {
			continue
		}

		matches := make([]string, len(idx))
		for i, m := range idx {
			matches[i] = content[m[0]:m[1]]
		}

		findings = append(findings, models.Finding{
			Pattern:    p.ID,
			Matches:    matches,
			Confidence: p.Confidence,
			Severity:   p.Severity,
			Location:   loc,
			Context:    snippet(content, idx[0][0], idx[0][1]),
		})
	}
	return findings
}

func snippet(content string, start, end int) string {
	from := max(0, start-contextRadius)
	to := min(len(content), end+contextRadius)
	s := strings.ToValidUTF8(content[from:to], "")
	s = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(s)
	return strings.TrimSpace(s)
}

// CountBySeverity tallies findings per severity.
func CountBySeverity(findings []models.Finding) map[models.Severity]int {
	counts := make(map[models.Severity]int, len(models.SeverityOrder))
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}
