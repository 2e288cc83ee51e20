package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/hakim/surfacerecon/internal/models"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-]+`)

// SanitizeTarget replaces characters unsafe for filesystem paths
func SanitizeTarget(target string) string {
	return unsafeChars.ReplaceAllString(target, "_")
}

// ScanDirPath returns {baseDir}/{domain}_{YYYYMMDD}_{HHMMSS}
func ScanDirPath(baseDir, domain string, startedAt time.Time) string {
	dirName := fmt.Sprintf("%s_%s", SanitizeTarget(domain), startedAt.Format("20060102_150405"))
	return filepath.Join(baseDir, dirName)
}

// CreateScanDir creates a scan directory with reports/ and raw/ subdirectories
func CreateScanDir(baseDir, domain string, startedAt time.Time) (string, error) {
	scanPath := ScanDirPath(baseDir, domain, startedAt)
	for _, dir := range []string{"reports", "raw"} {
		if err := os.MkdirAll(filepath.Join(scanPath, dir), 0755); err != nil {
			return "", err
		}
	}
	return scanPath, nil
}

// WriteReportFiles writes raw/report.json and, when markdown is non-empty,
// reports/summary.md into a fresh scan directory. Returns the directory.
func WriteReportFiles(baseDir string, r *models.ScanReport, markdown string) (string, error) {
	scanPath, err := CreateScanDir(baseDir, r.Domain, r.StartedAt)
	if err != nil {
		return "", fmt.Errorf("creating scan dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(scanPath, "raw", "report.json"), data, 0644); err != nil {
		return "", err
	}

	if markdown != "" {
		if err := os.WriteFile(filepath.Join(scanPath, "reports", "summary.md"), []byte(markdown), 0644); err != nil {
			return "", err
		}
	}
	return scanPath, nil
}
