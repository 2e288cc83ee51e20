package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hakim/surfacerecon/internal/models"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "db", "surfacerecon.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndListReports(t *testing.T) {
	s := openStore(t)

	older := models.NewScanReport("example.com")
	older.StartedAt = time.Now().Add(-time.Hour)
	newer := models.NewScanReport("example.com")
	other := models.NewScanReport("example.org")

	for _, r := range []*models.ScanReport{older, newer, other, newer} {
		if err := s.SaveReport(r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	reports, err := s.ListReports("example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reports) != 2 || reports[0].ID != newer.ID || reports[1].ID != older.ID {
		t.Errorf("expected newest first without duplicates, got %d reports", len(reports))
	}

	got, err := s.GetReport(other.ID)
	if err != nil || got.Domain != "example.org" {
		t.Errorf("get: %v %+v", err, got)
	}

	a, b, err := s.LatestPair("example.com")
	if err != nil || a.ID != newer.ID || b.ID != older.ID {
		t.Errorf("unexpected pair: %v", err)
	}
	if _, _, err := s.LatestPair("example.org"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetReportMissing(t *testing.T) {
	s := openStore(t)
	if _, err := s.GetReport("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWriteReportFiles(t *testing.T) {
	base := t.TempDir()
	r := models.NewScanReport("example.com")
	r.StartedAt = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	dir, err := WriteReportFiles(base, r, "# report\n")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(dir) != "example.com_20240301_123000" {
		t.Errorf("unexpected dir %s", dir)
	}
	for _, f := range []string{"raw/report.json", "reports/summary.md"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}
}

func TestSanitizeTarget(t *testing.T) {
	if got := SanitizeTarget("a b/c:d.example.com"); got != "a_b_c_d.example.com" {
		t.Errorf("got %q", got)
	}
}
