package monitoring

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewGoroutineMonitor_BaselineMatchesCurrent(t *testing.T) {
	gm := NewGoroutineMonitor(zerolog.Nop())
	metrics := gm.GetMetrics()
	assert.Equal(t, metrics.Baseline, metrics.Current)
	assert.Zero(t, metrics.Growth)
}

func TestGoroutineMonitor_Check_TracksGrowthAndPeak(t *testing.T) {
	gm := NewGoroutineMonitor(zerolog.Nop())

	var wg sync.WaitGroup
	block := make(chan struct{})
	wg.Add(8)
	for i := 0; i < 8; i++ {
		go func() {
			defer wg.Done()
			<-block
		}()
	}

	metrics := gm.Check()
	assert.Greater(t, metrics.Current, metrics.Baseline)
	assert.GreaterOrEqual(t, metrics.Peak, metrics.Current)

	close(block)
	wg.Wait()
}

func TestGoroutineMonitor_RegisterComponent(t *testing.T) {
	gm := NewGoroutineMonitor(zerolog.Nop())
	gm.RegisterComponent("tournament", 4)

	metrics := gm.GetMetrics()
	assert.Equal(t, 4, metrics.ComponentCounts["tournament"])
}

func TestGoroutineMonitor_StartStop(t *testing.T) {
	gm := NewGoroutineMonitor(zerolog.Nop())
	gm.Start()
	gm.Stop()
}
