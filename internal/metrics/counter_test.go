package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter_Record(t *testing.T) {
	c := NewCounter()
	c.Record("Account", "find", 10*time.Millisecond)
	c.Record("Account", "find", 30*time.Millisecond)
	c.Record("Account", "count", 5*time.Millisecond)
	c.Record("Tag", "find", time.Millisecond)

	snap := c.Snapshot()
	require.Len(t, snap, 3)

	assert.Equal(t, OpStat{Entity: "Account", Operation: "count", Calls: 1, Total: 5 * time.Millisecond, Max: 5 * time.Millisecond}, snap[0])
	assert.Equal(t, "find", snap[1].Operation)
	assert.Equal(t, int64(2), snap[1].Calls)
	assert.Equal(t, 40*time.Millisecond, snap[1].Total)
	assert.Equal(t, 30*time.Millisecond, snap[1].Max)
	assert.Equal(t, 20*time.Millisecond, snap[1].Mean())
	assert.Equal(t, "Tag", snap[2].Entity)

	assert.Equal(t, int64(2), c.Calls("Account", "find"))
	assert.Equal(t, int64(0), c.Calls("Account", "update"))
}

func TestCounter_Reset(t *testing.T) {
	c := NewCounter()
	c.Record("A", "find", time.Millisecond)
	c.Reset()
	assert.Empty(t, c.Snapshot())
	assert.Equal(t, time.Duration(0), OpStat{}.Mean())
}

func TestCounter_ThreadSafety(t *testing.T) {
	c := NewCounter()

	const goroutines = 20
	const perGoroutine = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				c.Record("A", "find", time.Millisecond)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines*perGoroutine), c.Calls("A", "find"))
}

type recordingCollector struct {
	entities []string
}

func (r *recordingCollector) Record(entity, _ string, _ time.Duration, _ ...any) {
	r.entities = append(r.entities, entity)
}

func TestMulti(t *testing.T) {
	a, b := &recordingCollector{}, &recordingCollector{}

	m := Multi(a, nil, b)
	m.Record("X", "find", time.Millisecond)

	assert.Equal(t, []string{"X"}, a.entities)
	assert.Equal(t, []string{"X"}, b.entities)

	assert.Equal(t, Nop{}, Multi())
	assert.Equal(t, Nop{}, Multi(nil, nil))
	assert.Same(t, a, Multi(nil, a))

	assert.NotPanics(t, func() { Nop{}.Record("X", "find", 0) })
}
