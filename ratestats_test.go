package framecadence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateUnavailableWithoutSamples(t *testing.T) {
	r := NewRateStatistics(1000, 1000)
	_, ok := r.Rate(0)
	assert.False(t, ok)
}

func TestRateUnavailableWithSingleSampleInGrowingWindow(t *testing.T) {
	r := NewRateStatistics(1000, 1000)
	r.Update(1, 0)
	_, ok := r.Rate(0)
	assert.False(t, ok)
	_, ok = r.Rate(500)
	assert.False(t, ok)
}

func TestRateInGrowingWindow(t *testing.T) {
	r := NewRateStatistics(1000, 1000)
	for i := int64(0); i != 10; i++ {
		r.Update(1, i*10)
	}
	// 10 events over an active window of 91 ms, rounded: 10000/91 + 0.5.
	rate, ok := r.Rate(90)
	assert.True(t, ok)
	assert.Equal(t, int64(110), rate)
}

func TestRateInFullWindow(t *testing.T) {
	r := NewRateStatistics(1000, 1000)
	for i := int64(0); i != 100; i++ {
		r.Update(1, i*10)
	}
	rate, ok := r.Rate(999)
	assert.True(t, ok)
	assert.Equal(t, int64(100), rate)
}

func TestOldSamplesFallOutOfWindow(t *testing.T) {
	r := NewRateStatistics(1000, 1000)
	for i := int64(0); i != 100; i++ {
		r.Update(1, i*10)
	}
	// At 1009 the bucket recorded at 0 is outside the window.
	rate, ok := r.Rate(1009)
	assert.True(t, ok)
	assert.Equal(t, int64(99), rate)

	// Far in the future everything fell out.
	_, ok = r.Rate(10_000)
	assert.False(t, ok)
}

func TestCountsAccumulatePerBucket(t *testing.T) {
	r := NewRateStatistics(1000, 1000)
	r.Update(2, 0)
	r.Update(3, 0)
	r.Update(5, 999)
	rate, ok := r.Rate(999)
	assert.True(t, ok)
	assert.Equal(t, int64(10), rate)
}

func TestResetDropsAllSamples(t *testing.T) {
	r := NewRateStatistics(1000, 1000)
	for i := int64(0); i != 100; i++ {
		r.Update(1, i*10)
	}
	r.Reset()
	_, ok := r.Rate(999)
	assert.False(t, ok)

	// The window grows from scratch again.
	r.Update(1, 1000)
	_, ok = r.Rate(1000)
	assert.False(t, ok)
}
