package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hakim/surfacerecon/internal/models"
)

func TestCollectorExposesScanMetrics(t *testing.T) {
	c := New()
	c.PhaseCompleted(models.PhaseProbing, 2*time.Second, 3, nil)
	c.PhaseCompleted(models.PhasePathScan, time.Second, 0, errors.New("boom"))

	r := models.NewScanReport("example.com")
	r.Status = models.StatusFailed
	r.Findings = []models.Finding{{Pattern: "awsKey", Severity: models.SeverityCritical}}
	c.ScanFinished(r)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`surfacerecon_phase_items_total{phase="probing"} 3`,
		`surfacerecon_phase_errors_total{phase="path_scan"} 1`,
		`surfacerecon_scans_total{status="failed"} 1`,
		`surfacerecon_findings_total{severity="CRITICAL"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in exposition", want)
		}
	}
}
