package metrics

import (
	"sort"
	"sync"
	"time"
)

// OpStat aggregates the records of one entity/operation pair.
type OpStat struct {
	Entity    string
	Operation string
	Calls     int64
	Total     time.Duration
	Max       time.Duration
}

// Mean returns the average duration per call.
func (s OpStat) Mean() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Calls)
}

type opKey struct {
	entity    string
	operation string
}

// Counter tallies calls and time per entity and operation in memory.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Counter struct {
	mu    sync.Mutex
	stats map[opKey]*OpStat
}

// NewCounter creates an empty Counter.
func NewCounter() *Counter {
	return &Counter{stats: make(map[opKey]*OpStat)}
}

// Record adds one call.
func (c *Counter) Record(entity, operation string, elapsed time.Duration, _ ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := opKey{entity, operation}
	s, ok := c.stats[k]
	if !ok {
		s = &OpStat{Entity: entity, Operation: operation}
		c.stats[k] = s
	}
	s.Calls++
	s.Total += elapsed
	if elapsed > s.Max {
		s.Max = elapsed
	}
}

// Snapshot returns a copy of the tallies ordered by entity, then operation.
func (c *Counter) Snapshot() []OpStat {
	c.mu.Lock()
	out := make([]OpStat, 0, len(c.stats))
	for _, s := range c.stats {
		out = append(out, *s)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Entity != out[j].Entity {
			return out[i].Entity < out[j].Entity
		}
		return out[i].Operation < out[j].Operation
	})
	return out
}

// Calls returns the number of calls recorded for entity and operation.
func (c *Counter) Calls(entity, operation string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.stats[opKey{entity, operation}]; ok {
		return s.Calls
	}
	return 0
}

// Reset clears all tallies.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = make(map[opKey]*OpStat)
}
