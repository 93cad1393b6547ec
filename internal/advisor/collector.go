package advisor

import (
	"sync"
	"time"

	"github.com/rshade/commitpilot/internal/engine"
)

// Call is one captured advisory API call.
type Call struct {
	Category      engine.Category
	Term          string
	PaymentOption string
	Err           string
	Duration      time.Duration
	At            time.Time
}

// CallCollector captures advisory API calls for debugging. It is an explicit
// object scoped to one fetch pass, so test isolation never depends on
// resetting shared state. A nil collector records nothing.
type CallCollector struct {
	mu    sync.Mutex
	calls []Call
}

// NewCallCollector returns an empty collector.
func NewCallCollector() *CallCollector {
	return &CallCollector{}
}

// Record appends a captured call. Safe for concurrent use and on a nil
// receiver.
func (c *CallCollector) Record(call Call) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

// Calls returns a copy of the captured calls.
func (c *CallCollector) Calls() []Call {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}
