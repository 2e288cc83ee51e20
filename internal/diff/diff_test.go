package diff

import (
	"reflect"
	"testing"

	"github.com/hakim/surfacerecon/internal/models"
)

func report(hosts []string, ports []int, findings ...models.Finding) *models.ScanReport {
	r := models.NewScanReport("example.com")
	for _, h := range hosts {
		r.Resolved = append(r.Resolved, models.ResolvedHost{Hostname: h})
		r.Live = append(r.Live, models.LiveEndpoint{Hostname: h, URL: "https://" + h})
	}
	for _, p := range ports {
		r.OpenPorts = append(r.OpenPorts, models.OpenPort{Hostname: "example.com", Port: p})
	}
	r.Findings = append(r.Findings, findings...)
	return r
}

func TestCompute(t *testing.T) {
	aws := models.Finding{Pattern: "awsKey", Location: models.Location{URL: "https://example.com"}}
	email := models.Finding{Pattern: "email", Location: models.Location{URL: "https://example.com"}}

	previous := report([]string{"example.com", "old.example.com"}, []int{80, 22}, email)
	current := report([]string{"example.com", "new.example.com"}, []int{80, 6379}, aws, email)

	dr := Compute(current, previous)

	testCases := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"new hosts", dr.NewHosts, []string{"new.example.com"}},
		{"removed hosts", dr.RemovedHosts, []string{"old.example.com"}},
		{"new endpoints", dr.NewEndpoints, []string{"https://new.example.com"}},
		{"new ports", dr.NewPorts, []models.OpenPort{{Hostname: "example.com", Port: 6379}}},
		{"closed ports", dr.ClosedPorts, []models.OpenPort{{Hostname: "example.com", Port: 22}}},
		{"new findings", dr.NewFindings, []models.Finding{aws}},
		{"resolved findings", dr.ResolvedFindings, []models.Finding{}},
	}
	for _, tc := range testCases {
		if !reflect.DeepEqual(tc.got, tc.expected) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.expected, tc.got)
		}
	}

	if dr.Empty() {
		t.Error("expected a non-empty diff")
	}
	if dr.CurrentFindingCount != 2 || dr.PreviousFindingCount != 1 {
		t.Errorf("unexpected counts %d/%d", dr.CurrentFindingCount, dr.PreviousFindingCount)
	}
}

func TestComputeIdentical(t *testing.T) {
	r := report([]string{"example.com"}, []int{443})
	if dr := Compute(r, r); !dr.Empty() {
		t.Errorf("expected empty diff, got %+v", dr)
	}
}

func TestComputeFirstScan(t *testing.T) {
	dr := Compute(report([]string{"example.com"}, nil), nil)
	if !reflect.DeepEqual(dr.NewHosts, []string{"example.com"}) || len(dr.RemovedHosts) != 0 {
		t.Errorf("expected everything new, got %+v", dr)
	}
}
