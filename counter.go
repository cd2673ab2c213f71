package lockfree

import "go.uber.org/atomic"

// Counter is an internally synchronized int64, meant as the value type
// for concurrent per-key aggregation. The map only synchronizes the
// publication of an entry, never the value inside it; Counter makes the
// value itself safe to mutate from any number of goroutines.
//
// The zero Counter is ready to use.
type Counter struct {
	n atomic.Int64
}

// Add adds delta to the counter and returns the new total.
func (c *Counter) Add(delta int64) int64 {
	return c.n.Add(delta)
}

// Load returns the current total.
func (c *Counter) Load() int64 {
	return c.n.Load()
}
