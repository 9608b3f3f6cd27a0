package stats

import (
	"sync"
	"time"
)

// VisitEvent records one public resolve of a short code.
type VisitEvent struct {
	Code      string    `json:"code"`
	VisitedAt time.Time `json:"visited_at"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Referer   string    `json:"referer"`
}

// Collector accepts events off the request path. Implementations must never
// block the resolve handler.
type Collector interface {
	Collect(event VisitEvent)
	Close()
}

// ChannelCollector buffers events in-process; paired with Consumer.
// The mutex keeps a Collect racing Close off the closed channel.
type ChannelCollector struct {
	ch     chan VisitEvent
	mu     sync.Mutex
	closed bool
}

func NewChannelCollector(bufferSize int) *ChannelCollector {
	return &ChannelCollector{
		ch: make(chan VisitEvent, bufferSize),
	}
}

func (c *ChannelCollector) Collect(event VisitEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- event:
	default:
		// buffer full, drop; visit stats are best effort
	}
}

func (c *ChannelCollector) Events() <-chan VisitEvent {
	return c.ch
}

func (c *ChannelCollector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}
