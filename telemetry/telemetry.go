// Package telemetry records samples on named histogram channels. The
// channel names form a stable namespace owned by the code emitting the
// samples; recorders only route them to a backend.
package telemetry

import (
	"strings"
	"sync"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
)

// A Recorder accepts samples on named channels. Implementations must be safe
// for concurrent use.
type Recorder interface {
	Add(channel string, value float64)
	AddBool(channel string, value bool)
}

type discard struct{}

func (discard) Add(string, float64) {}

func (discard) AddBool(string, bool) {}

// Discard returns a Recorder dropping all samples.
func Discard() Recorder {
	return discard{}
}

// Sample is one recorded value and the number of times it was recorded.
type Sample struct {
	Value float64
	Count int
}

// Store is an in-memory Recorder aggregating equal values per channel. It is
// used by tests and by embedders that ship samples through their own
// telemetry transport.
type Store struct {
	mu      sync.Mutex
	samples map[string][]Sample
}

func NewStore() *Store {
	return &Store{
		samples: map[string][]Sample{},
	}
}

func (s *Store) Add(channel string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.samples[channel] {
		if s.samples[channel][i].Value == value {
			s.samples[channel][i].Count++
			return
		}
	}
	s.samples[channel] = append(s.samples[channel], Sample{Value: value, Count: 1})
}

func (s *Store) AddBool(channel string, value bool) {
	v := 0.0
	if value {
		v = 1.0
	}
	s.Add(channel, v)
}

// Samples returns the aggregated samples of channel in first-recorded order,
// or nil if the channel never saw a sample.
func (s *Store) Samples(channel string) []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	samples := s.samples[channel]
	if samples == nil {
		return nil
	}
	out := make([]Sample, len(samples))
	copy(out, samples)
	return out
}

// PrometheusRecorder mirrors each channel into a prometheus histogram
// registered on first use. Channel names are converted to snake_case metric
// names ("Screenshare.FrameRateConstraints.Max.Value" becomes
// "screenshare_frame_rate_constraints_max_value").
type PrometheusRecorder struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	histograms map[string]prometheus.Histogram
}

// NewPrometheusRecorder creates a recorder registering on registerer, or on
// the default registerer if nil.
func NewPrometheusRecorder(registerer prometheus.Registerer) *PrometheusRecorder {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &PrometheusRecorder{
		registerer: registerer,
		histograms: map[string]prometheus.Histogram{},
	}
}

func (p *PrometheusRecorder) Add(channel string, value float64) {
	p.histogram(channel).Observe(value)
}

func (p *PrometheusRecorder) AddBool(channel string, value bool) {
	v := 0.0
	if value {
		v = 1.0
	}
	p.Add(channel, v)
}

func (p *PrometheusRecorder) histogram(channel string) prometheus.Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.histograms[channel]; ok {
		return h
	}
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    MetricName(channel),
		Help:    "Samples recorded on the " + channel + " telemetry channel.",
		Buckets: prometheus.LinearBuckets(0, 5, 13),
	})
	p.registerer.MustRegister(h)
	p.histograms[channel] = h
	return h
}

// MetricName converts a dotted camel-case channel name into a snake_case
// prometheus metric name.
func MetricName(channel string) string {
	var b strings.Builder
	var prev rune
	for i, r := range channel {
		switch {
		case r == '.':
			b.WriteRune('_')
		case unicode.IsUpper(r):
			if i > 0 && prev != '.' && !unicode.IsUpper(prev) {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsDigit(r) && i > 0 && unicode.IsLetter(prev):
			b.WriteRune('_')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}
