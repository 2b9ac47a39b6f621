package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStoreAggregatesEqualValues(t *testing.T) {
	store := NewStore()
	store.Add("channel", 5)
	store.Add("channel", 5)
	store.Add("channel", 4)
	assert.Equal(t, []Sample{{Value: 5, Count: 2}, {Value: 4, Count: 1}}, store.Samples("channel"))
}

func TestStoreKeepsChannelsSeparate(t *testing.T) {
	store := NewStore()
	store.Add("a", 1)
	store.Add("b", 2)
	assert.Equal(t, []Sample{{Value: 1, Count: 1}}, store.Samples("a"))
	assert.Equal(t, []Sample{{Value: 2, Count: 1}}, store.Samples("b"))
}

func TestStoreReturnsNilForUnknownChannel(t *testing.T) {
	store := NewStore()
	assert.Nil(t, store.Samples("never-recorded"))
}

func TestStoreRecordsBools(t *testing.T) {
	store := NewStore()
	store.AddBool("channel", true)
	store.AddBool("channel", false)
	store.AddBool("channel", true)
	assert.Equal(t, []Sample{{Value: 1, Count: 2}, {Value: 0, Count: 1}}, store.Samples("channel"))
}

func TestDiscardDropsSamples(t *testing.T) {
	r := Discard()
	r.Add("channel", 1)
	r.AddBool("channel", true)
}

func TestMetricName(t *testing.T) {
	for channel, want := range map[string]string{
		"Screenshare.FrameRateConstraints.Exists":               "screenshare_frame_rate_constraints_exists",
		"Screenshare.FrameRateConstraints.Max.Value":            "screenshare_frame_rate_constraints_max_value",
		"Screenshare.FrameRateConstraints.MinLessThanMax.Min":   "screenshare_frame_rate_constraints_min_less_than_max_min",
		"Screenshare.FrameRateConstraints.60MinPlusMaxMinusOne": "screenshare_frame_rate_constraints_60_min_plus_max_minus_one",
	} {
		assert.Equal(t, want, MetricName(channel), "channel %v", channel)
	}
}

func TestPrometheusRecorderRegistersHistogramsLazily(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := NewPrometheusRecorder(registry)

	assert.Equal(t, 0, testutil.CollectAndCount(registry))

	recorder.Add("Screenshare.FrameRateConstraints.Max.Value", 5)
	recorder.AddBool("Screenshare.FrameRateConstraints.Exists", true)
	recorder.Add("Screenshare.FrameRateConstraints.Max.Value", 4)

	assert.Equal(t, 2, testutil.CollectAndCount(registry))
}
