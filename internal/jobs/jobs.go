// Package jobs keeps an in-memory registry of asynchronous scans.
package jobs

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hakim/surfacerecon/internal/models"
)

// State is the lifecycle state of a job.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Job is a snapshot of one scan job.
type Job struct {
	ID        string             `json:"jobId"`
	Domain    string             `json:"domain"`
	State     State              `json:"state"`
	Phase     models.Phase       `json:"phase,omitempty"`
	Progress  int                `json:"progress"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Result    *models.ScanReport `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// ProgressFunc reports phase progress from inside a running job.
type ProgressFunc func(phase models.Phase, percent int)

// Runner performs the scan for a job.
type Runner func(ctx context.Context, domain string, progress ProgressFunc) (*models.ScanReport, error)

// Hooks observe job starts and ends. Both are optional.
type Hooks struct {
	OnStart func()
	OnDone  func()
}

// Manager owns every job and runs each in its own goroutine.
type Manager struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	run    Runner
	hooks  Hooks
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ErrNotFound is returned for unknown job ids.
var ErrNotFound = errors.New("job not found")

// NewManager creates a manager whose jobs run under ctx.
func NewManager(ctx context.Context, run Runner, hooks Hooks) *Manager {
	ctx, cancel := context.WithCancel(ctx)
	return &Manager{
		jobs:   make(map[string]*Job),
		run:    run,
		hooks:  hooks,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit queues a scan for domain and returns its job id immediately.
func (m *Manager) Submit(domain string) string {
	now := time.Now()
	job := &Job{
		ID:        uuid.New().String(),
		Domain:    domain,
		State:     StateQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	if m.hooks.OnStart != nil {
		m.hooks.OnStart()
	}

	m.wg.Add(1)
	go m.execute(job.ID, domain)

	log.Printf("[jobs] queued job=%s domain=%s", job.ID, domain)
	return job.ID
}

func (m *Manager) execute(id, domain string) {
	defer m.wg.Done()
	if m.hooks.OnDone != nil {
		defer m.hooks.OnDone()
	}

	m.update(id, func(j *Job) { j.State = StateRunning })

	report, err := m.run(m.ctx, domain, func(phase models.Phase, percent int) {
		m.update(id, func(j *Job) {
			j.Phase = phase
			if percent > j.Progress {
				j.Progress = percent
			}
		})
	})

	m.update(id, func(j *Job) {
		j.Result = report
		if err != nil {
			j.State = StateFailed
			j.Error = err.Error()
			log.Printf("[jobs] job=%s failed: %v", id, err)
			return
		}
		j.State = StateCompleted
		j.Progress = 100
		log.Printf("[jobs] job=%s completed", id)
	})
}

func (m *Manager) update(id string, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		fn(j)
		j.UpdatedAt = time.Now()
	}
}

// Get returns a copy of the job.
func (m *Manager) Get(id string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *j, nil
}

// List returns copies of all jobs, newest first.
func (m *Manager) List() []Job {
	m.mu.RLock()
	out := make([]Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, *j)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out
}

// Shutdown cancels running jobs and waits for them to return or for ctx to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
