package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Collector keeps process-local request and notification counters.
type Collector struct {
	totalRequests   uint64
	clientErrors    uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu            sync.Mutex
	notifications map[string]*NotificationCount
}

type NotificationCount struct {
	Sent   uint64 `json:"sent"`
	Failed uint64 `json:"failed"`
}

type Snapshot struct {
	RequestsTotal     uint64                       `json:"requestsTotal"`
	ClientErrorsTotal uint64                       `json:"clientErrorsTotal"`
	ErrorsTotal       uint64                       `json:"errorsTotal"`
	RateLimitedTotal  uint64                       `json:"rateLimitedTotal"`
	AvgDurationMs     float64                      `json:"avgDurationMs"`
	TotalDurationMs   uint64                       `json:"totalDurationMs"`
	Notifications     map[string]NotificationCount `json:"notifications"`
}

func New() *Collector {
	return &Collector{notifications: map[string]*NotificationCount{}}
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

// RecordNotification matches the notifications.Dispatcher Observe hook.
func (c *Collector) RecordNotification(ntype string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	count, ok := c.notifications[ntype]
	if !ok {
		count = &NotificationCount{}
		c.notifications[ntype] = count
	}
	if err != nil {
		count.Failed++
		return
	}
	count.Sent++
}

func (c *Collector) Snapshot() Snapshot {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	types := make([]string, 0, len(c.notifications))
	for ntype := range c.notifications {
		types = append(types, ntype)
	}
	sort.Strings(types)
	notifications := make(map[string]NotificationCount, len(types))
	for _, ntype := range types {
		notifications[ntype] = *c.notifications[ntype]
	}
	c.mu.Unlock()

	return Snapshot{
		RequestsTotal:     total,
		ClientErrorsTotal: atomic.LoadUint64(&c.clientErrors),
		ErrorsTotal:       atomic.LoadUint64(&c.errorRequests),
		RateLimitedTotal:  atomic.LoadUint64(&c.rateLimited),
		AvgDurationMs:     avg,
		TotalDurationMs:   totalMs,
		Notifications:     notifications,
	}
}
