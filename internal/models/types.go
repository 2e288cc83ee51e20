package models

// ScanStatus represents the current state of a scan
type ScanStatus string

const (
	StatusPending  ScanStatus = "pending"
	StatusRunning  ScanStatus = "running"
	StatusComplete ScanStatus = "complete"
	StatusPartial  ScanStatus = "partial"
	StatusFailed   ScanStatus = "failed"
)

// Severity represents the severity level of a finding
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// SeverityOrder lists severities most severe first.
var SeverityOrder = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
}

// Category classifies a harvested URL. A URL belongs to exactly one category.
type Category string

const (
	CategoryScript Category = "script"
	CategoryStyle  Category = "style"
	CategoryImage  Category = "image"
	CategoryAPI    Category = "api"
	CategoryAdmin  Category = "admin"
	CategoryBackup Category = "backup"
	CategoryConfig Category = "config"
	CategoryOther  Category = "other"
)

// Phase names one step of the reconnaissance pipeline.
type Phase string

const (
	PhaseEnumeration     Phase = "enumeration"
	PhaseResolution      Phase = "resolution"
	PhaseProbing         Phase = "probing"
	PhaseURLHarvest      Phase = "url_harvest"
	PhaseContentAnalysis Phase = "content_analysis"
	PhasePathScan        Phase = "path_scan"
	PhasePortScan        Phase = "port_scan"
	PhaseDone            Phase = "done"
)

// Phases is the fixed execution order. PhaseDone is terminal and not executed.
var Phases = []Phase{
	PhaseEnumeration,
	PhaseResolution,
	PhaseProbing,
	PhaseURLHarvest,
	PhaseContentAnalysis,
	PhasePathScan,
	PhasePortScan,
}
