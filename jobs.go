package main

import (
	"context"
	"sync"
	"time"
)

const defaultJobPollInterval = 10 * time.Second

// JobPoller maintains the running-jobs list on a fixed short interval while
// started. Each refresh replaces the list wholesale; job identity is stable
// by id and the count is small, so there is no incremental merge. A job that
// disappears between refreshes has simply finished and aged out server-side.
type JobPoller struct {
	gateway  Gateway
	interval time.Duration

	mu      sync.Mutex
	jobs    []Job
	lastErr error
	polled  bool
	cancel  context.CancelFunc
}

func NewJobPoller(gateway Gateway, interval time.Duration) *JobPoller {
	if interval <= 0 {
		interval = defaultJobPollInterval
	}
	return &JobPoller{gateway: gateway, interval: interval}
}

// Start begins polling until Stop. Starting an already running poller is a
// no-op.
func (p *JobPoller) Start() {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mu.Unlock()

	go p.loop(ctx)
}

func (p *JobPoller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (p *JobPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *JobPoller) loop(ctx context.Context) {
	p.Refresh(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// Refresh performs one poll immediately. A failed poll keeps the previous
// list in place and is retried on the next tick.
func (p *JobPoller) Refresh(ctx context.Context) error {
	jobs, err := p.gateway.ListJobs(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err != nil {
		return err
	}
	p.jobs = jobs
	p.polled = true
	return nil
}

// Jobs returns the most recent running-jobs list.
func (p *JobPoller) Jobs() []Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobs
}

// Polled reports whether at least one refresh has succeeded.
func (p *JobPoller) Polled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polled
}

func (p *JobPoller) LastErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
