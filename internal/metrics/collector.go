// Package metrics records the duration of data-access operations.
//
// The DAO calls Collector.Record once after every driver call. Collectors
// are passed in explicitly; there is no ambient per-goroutine state.
package metrics

import "time"

// Collector receives one record per completed operation.
//
// Implementations must be safe for concurrent use.
type Collector interface {
	Record(entity, operation string, elapsed time.Duration, params ...any)
}

// Nop discards every record.
type Nop struct{}

// Record does nothing.
func (Nop) Record(string, string, time.Duration, ...any) {}

type multi []Collector

// Multi fans records out to every collector in order. Nil entries are
// skipped; with no collectors left, Multi returns Nop.
func Multi(collectors ...Collector) Collector {
	var m multi
	for _, c := range collectors {
		if c != nil {
			m = append(m, c)
		}
	}
	switch len(m) {
	case 0:
		return Nop{}
	case 1:
		return m[0]
	default:
		return m
	}
}

func (m multi) Record(entity, operation string, elapsed time.Duration, params ...any) {
	for _, c := range m {
		c.Record(entity, operation, elapsed, params...)
	}
}
