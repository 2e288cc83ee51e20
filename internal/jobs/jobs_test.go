package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hakim/surfacerecon/internal/models"
)

func waitFor(t *testing.T, m *Manager, id string, state State) Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, err := m.Get(id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if j.State == state {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s", id, state)
	return Job{}
}

func TestManagerCompletesJob(t *testing.T) {
	release := make(chan struct{})
	m := NewManager(context.Background(), func(_ context.Context, domain string, progress ProgressFunc) (*models.ScanReport, error) {
		progress(models.PhaseResolution, 14)
		<-release
		progress(models.PhaseProbing, 28)
		return models.NewScanReport(domain), nil
	}, Hooks{})

	id := m.Submit("example.com")
	running := waitFor(t, m, id, StateRunning)
	if running.Result != nil {
		t.Error("running job should have no result")
	}

	close(release)
	done := waitFor(t, m, id, StateCompleted)
	if done.Progress != 100 || done.Result == nil || done.Result.Domain != "example.com" {
		t.Errorf("unexpected completed job %+v", done)
	}
}

func TestManagerRecordsFailure(t *testing.T) {
	var started, finished int
	m := NewManager(context.Background(), func(context.Context, string, ProgressFunc) (*models.ScanReport, error) {
		return nil, errors.New("phase probing failed: boom")
	}, Hooks{OnStart: func() { started++ }, OnDone: func() { finished++ }})

	id := m.Submit("example.com")
	j := waitFor(t, m, id, StateFailed)
	if j.Error != "phase probing failed: boom" {
		t.Errorf("unexpected error %q", j.Error)
	}

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if started != 1 || finished != 1 {
		t.Errorf("expected hooks 1/1, got %d/%d", started, finished)
	}
}

func TestManagerUnknownJob(t *testing.T) {
	m := NewManager(context.Background(), nil, Hooks{})
	if _, err := m.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestShutdownCancelsRunningJobs(t *testing.T) {
	m := NewManager(context.Background(), func(ctx context.Context, domain string, _ ProgressFunc) (*models.ScanReport, error) {
		<-ctx.Done()
		return models.NewScanReport(domain), ctx.Err()
	}, Hooks{})

	id := m.Submit("example.com")
	waitFor(t, m, id, StateRunning)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	j, _ := m.Get(id)
	if j.State != StateFailed || j.Result == nil {
		t.Errorf("expected failed job with partial result, got %+v", j)
	}
}
