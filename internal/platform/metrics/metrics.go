package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	clientErrors    uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu     sync.Mutex
	events map[string]uint64
}

func New() *Collector {
	return &Collector{events: map[string]uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	switch {
	case status >= 500:
		atomic.AddUint64(&c.errorRequests, 1)
	case status >= 400:
		atomic.AddUint64(&c.clientErrors, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordEvent counts a named ledger outcome such as leave_approved.
func (c *Collector) RecordEvent(name string) {
	c.mu.Lock()
	c.events[name]++
	c.mu.Unlock()
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	clientErrs := atomic.LoadUint64(&c.clientErrors)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":     total,
		"errorsTotal":       errs,
		"clientErrorsTotal": clientErrs,
		"rateLimitedTotal":  limited,
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
		"events":            c.Events(),
	}
}

// Events copies the event counters.
func (c *Collector) Events() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.events))
	for name, n := range c.events {
		out[name] = n
	}
	return out
}
