package models

import (
	"time"

	"github.com/google/uuid"
)

// PhaseStat records the outcome of one pipeline phase
type PhaseStat struct {
	Phase    Phase         `json:"phase"`
	Count    int           `json:"count"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Summary is the overall digest of a scan
type Summary struct {
	Candidates     int              `json:"candidates"`
	Resolved       int              `json:"resolved"`
	LiveEndpoints  []string         `json:"live_endpoints"`
	URLs           int              `json:"urls"`
	Findings       int              `json:"findings"`
	SeverityCounts map[Severity]int `json:"severity_counts"`
	SensitivePaths int              `json:"sensitive_paths"`
	OpenPorts      int              `json:"open_ports"`
	Technologies   []Technology     `json:"technologies"`
	Warnings       []string         `json:"warnings"`
}

// ScanReport aggregates every phase output of a single scan
type ScanReport struct {
	ID          string         `json:"id"`
	Domain      string         `json:"domain"`
	Status      ScanStatus     `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Duration    time.Duration  `json:"duration"`
	Phases      []PhaseStat    `json:"phases"`
	Candidates  []string       `json:"candidates"`
	Resolved    []ResolvedHost `json:"resolved"`
	Live        []LiveEndpoint `json:"live"`
	URLs        HarvestResult  `json:"urls"`
	Findings    []Finding      `json:"findings"`
	PathResults []PathResult   `json:"path_results"`
	OpenPorts   []OpenPort     `json:"open_ports"`
	Summary     Summary        `json:"summary"`
	Commentary  string         `json:"commentary,omitempty"`
}

// NewScanReport creates a report with initialized metadata
func NewScanReport(domain string) *ScanReport {
	return &ScanReport{
		ID:          uuid.New().String(),
		Domain:      domain,
		StartedAt:   time.Now(),
		Status:      StatusPending,
		Phases:      []PhaseStat{},
		Candidates:  []string{},
		Resolved:    []ResolvedHost{},
		Live:        []LiveEndpoint{},
		URLs:        HarvestResult{Categorized: map[Category][]HarvestedURL{}},
		Findings:    []Finding{},
		PathResults: []PathResult{},
		OpenPorts:   []OpenPort{},
		Summary: Summary{
			LiveEndpoints:  []string{},
			SeverityCounts: map[Severity]int{},
			Technologies:   []Technology{},
			Warnings:       []string{},
		},
	}
}

// AddWarning appends a free-text warning to the summary
func (r *ScanReport) AddWarning(msg string) {
	r.Summary.Warnings = append(r.Summary.Warnings, msg)
}

// Phase returns the recorded stat for a phase, if it ran
func (r *ScanReport) Phase(p Phase) (PhaseStat, bool) {
	for _, s := range r.Phases {
		if s.Phase == p {
			return s, true
		}
	}
	return PhaseStat{}, false
}
