// Package jobs tracks background document jobs and polls the backend
// for their status until each one reaches a terminal state.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/access2chakri-ai/docushield-sub000/internal/core/domain"
	"github.com/access2chakri-ai/docushield-sub000/internal/core/ports"
	"github.com/access2chakri-ai/docushield-sub000/internal/observability/metrics"
)

const service = "docushield-client"

type trackedEntry struct {
	job      domain.TrackedJob
	inFlight bool
}

// Coordinator owns the tracked-job set and the shared polling loop. The
// loop runs only while the set is non-empty; jobs poll concurrently with
// each other but never concurrently with themselves.
type Coordinator struct {
	source   ports.JobStatusSource
	notifier ports.Notifier
	logger   *slog.Logger
	metrics  *metrics.ClientMetrics
	interval time.Duration
	limiter  *rate.Limiter

	mu      sync.Mutex
	jobs    map[string]*trackedEntry
	running bool
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewCoordinator builds an idle coordinator. A nil limiter means polls
// are paced by the tick interval alone.
func NewCoordinator(
	source ports.JobStatusSource,
	notifier ports.Notifier,
	logger *slog.Logger,
	m *metrics.ClientMetrics,
	interval time.Duration,
	limiter *rate.Limiter,
) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Coordinator{
		source:   source,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
		interval: interval,
		limiter:  limiter,
		jobs:     make(map[string]*trackedEntry),
	}
}

// Register adds a job to the tracked set and starts the polling loop if
// it was idle. Registering an already-tracked job is a no-op, so retried
// uploads cannot double-track.
func (c *Coordinator) Register(jobID, label string) {
	if jobID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if _, ok := c.jobs[jobID]; ok {
		return
	}

	c.jobs[jobID] = &trackedEntry{job: domain.TrackedJob{
		ID:           jobID,
		Label:        label,
		Status:       domain.JobProcessing,
		RegisteredAt: time.Now(),
	}}
	c.metrics.SetTrackedJobs(len(c.jobs))
	c.logger.Info("job_registered", "job_id", jobID, "label", label, "tracked", len(c.jobs))

	c.startLoopLocked()
}

// Unregister drops a job without waiting for a terminal status. Unknown
// ids are ignored.
func (c *Coordinator) Unregister(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.jobs[jobID]; !ok {
		return
	}
	delete(c.jobs, jobID)
	c.metrics.SetTrackedJobs(len(c.jobs))
	c.logger.Info("job_unregistered", "job_id", jobID, "tracked", len(c.jobs))
	c.stopLoopIfEmptyLocked()
}

// Tracked returns the number of jobs still being polled.
func (c *Coordinator) Tracked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.jobs)
}

// Jobs returns a snapshot of the tracked set.
func (c *Coordinator) Jobs() []domain.TrackedJob {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.TrackedJob, 0, len(c.jobs))
	for _, entry := range c.jobs {
		out = append(out, entry.job)
	}
	return out
}

// Stop cancels the polling loop and waits for in-flight polls to
// return. The coordinator accepts no registrations afterwards.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.closed = true
	if c.running {
		c.cancel()
		c.running = false
	}
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Coordinator) startLoopLocked() {
	if c.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.running = true

	c.wg.Add(1)
	go c.loop(ctx)
}

func (c *Coordinator) stopLoopIfEmptyLocked() {
	if c.running && len(c.jobs) == 0 {
		c.cancel()
		c.running = false
	}
}

func (c *Coordinator) loop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick launches one poll per tracked job that has no poll in flight. A
// slow backend therefore delays that job's next poll instead of stacking
// duplicate requests.
func (c *Coordinator) tick(ctx context.Context) {
	c.mu.Lock()
	due := make([]string, 0, len(c.jobs))
	for id, entry := range c.jobs {
		if entry.inFlight {
			continue
		}
		entry.inFlight = true
		due = append(due, id)
	}
	c.mu.Unlock()

	for _, id := range due {
		c.wg.Add(1)
		go c.poll(ctx, id)
	}
}

func (c *Coordinator) poll(ctx context.Context, jobID string) {
	defer c.wg.Done()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.clearInFlight(jobID)
			return
		}
	}

	status, err := c.source.JobStatus(ctx, jobID)
	if err != nil {
		c.metrics.RecordPoll(service, "error")
		c.logger.Warn("job_poll_failed", "job_id", jobID, "error", err)
		c.clearInFlight(jobID)
		return
	}
	c.metrics.RecordPoll(service, "success")

	c.mu.Lock()
	entry, ok := c.jobs[jobID]
	if !ok {
		// Unregistered while the poll was in flight.
		c.mu.Unlock()
		return
	}
	entry.inFlight = false
	entry.job.Status = status

	if !status.Terminal() {
		c.mu.Unlock()
		return
	}

	// Removing the job before notifying guarantees at most one
	// notification per terminal transition.
	job := entry.job
	delete(c.jobs, jobID)
	c.metrics.SetTrackedJobs(len(c.jobs))
	c.stopLoopIfEmptyLocked()
	c.mu.Unlock()

	c.logger.Info("job_finished", "job_id", job.ID, "label", job.Label, "status", string(job.Status))
	c.notify(job)
}

func (c *Coordinator) clearInFlight(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.jobs[jobID]; ok {
		entry.inFlight = false
	}
}

func (c *Coordinator) notify(job domain.TrackedJob) {
	if c.notifier == nil {
		return
	}

	label := job.Label
	if label == "" {
		label = job.ID
	}

	n := domain.Notification{
		Category: domain.CategoryJob,
	}
	switch job.Status {
	case domain.JobCompleted:
		n.Kind = domain.NotifySuccess
		n.Title = "Processing complete"
		n.Message = label + " finished processing"
	default:
		n.Kind = domain.NotifyError
		n.Title = "Processing failed"
		n.Message = label + " failed to process"
	}
	c.notifier.Push(n)
}
