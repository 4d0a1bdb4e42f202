package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClock_AdvancesPerCall(t *testing.T) {
	clock := NewFakeClock(epoch, 150*time.Millisecond)

	start := clock.Now()
	end := clock.Now()
	assert.Equal(t, epoch, start)
	assert.Equal(t, 150*time.Millisecond, end.Sub(start))
	assert.Equal(t, epoch.Add(300*time.Millisecond), clock.Current())
}

func TestFakeClock_SetStepAndReset(t *testing.T) {
	clock := NewFakeClock(epoch, time.Second)
	clock.Now()
	clock.SetStep(time.Millisecond)
	clock.Now()
	assert.Equal(t, epoch.Add(time.Second+time.Millisecond), clock.Current())

	clock.Reset()
	assert.Equal(t, epoch, clock.Current())
}

func TestFakeClock_ThreadSafety(t *testing.T) {
	clock := NewFakeClock(epoch, time.Millisecond)

	const goroutines = 50
	const callsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				clock.Now()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, epoch.Add(goroutines*callsPerGoroutine*time.Millisecond), clock.Current())
}
