// Package jobs runs fire-and-forget work, such as decision emails, on a
// small in-process worker pool so request handlers never wait on it.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	JobLeaveDecisionEmail = "leave_decision_email"

	defaultQueueSize = 128
	defaultTimeout   = 30 * time.Second
)

type EventRecorder interface {
	RecordEvent(name string)
}

type Service struct {
	Events  EventRecorder
	Timeout time.Duration

	queue   chan job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

type job struct {
	Type string
	Run  func(context.Context) error
}

func New(size int) *Service {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Service{
		Timeout: defaultTimeout,
		queue:   make(chan job, size),
	}
}

// Start launches the workers. They exit once Stop has drained the queue.
func (s *Service) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

// Enqueue schedules run and reports whether it was accepted. A full queue or
// a stopped service drops the job.
func (s *Service) Enqueue(jobType string, run func(context.Context) error) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		slog.Warn("job dropped after stop", "jobType", jobType)
		s.record(jobType + "_dropped")
		return false
	}
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		s.record(jobType + "_dropped")
		return false
	}
}

// RunNow executes run on the caller's goroutine with the same bookkeeping.
func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) error) error {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// Stop refuses new jobs and waits for queued ones to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.queue)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Service) worker() {
	defer s.wg.Done()
	for j := range s.queue {
		if err := s.runJob(context.Background(), j); err != nil {
			slog.Warn("job run failed", "jobType", j.Type, "err", err)
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) error {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := j.Run(ctx)
	if err != nil {
		s.record(j.Type + "_failed")
		return err
	}
	s.record(j.Type + "_completed")
	slog.Debug("job completed", "jobType", j.Type, "durationMs", time.Since(start).Milliseconds())
	return nil
}

func (s *Service) record(name string) {
	if s.Events != nil {
		s.Events.RecordEvent(name)
	}
}
