package framecadence

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mengelbart/framecadence/fieldtrial"
	"github.com/mengelbart/framecadence/telemetry"
)

// ZeroHertzFieldTrial gates zero-hertz screenshare cadence. Unless the trial
// is set to "Enabled", SetZeroHertzModeEnabled(true) leaves the cadence in
// passthrough and only arms telemetry recording.
const ZeroHertzFieldTrial = "ZeroHertzScreenshare"

// FrameRateAveragingWindowSizeMS is the sliding window of the input
// framerate estimator.
const FrameRateAveragingWindowSizeMS = 1000

// Telemetry channels sampled on the first frame after zero-hertz mode was
// requested. The names are a fixed family; renaming one breaks downstream
// telemetry consumers.
const (
	ChannelConstraintsExists               = "Screenshare.FrameRateConstraints.Exists"
	ChannelConstraintsMinExists            = "Screenshare.FrameRateConstraints.Min.Exists"
	ChannelConstraintsMinValue             = "Screenshare.FrameRateConstraints.Min.Value"
	ChannelConstraintsMaxExists            = "Screenshare.FrameRateConstraints.Max.Exists"
	ChannelConstraintsMaxValue             = "Screenshare.FrameRateConstraints.Max.Value"
	ChannelConstraintsMinUnsetMax          = "Screenshare.FrameRateConstraints.MinUnset.Max"
	ChannelConstraintsMinLtMaxMin          = "Screenshare.FrameRateConstraints.MinLessThanMax.Min"
	ChannelConstraintsMinLtMaxMax          = "Screenshare.FrameRateConstraints.MinLessThanMax.Max"
	ChannelConstraints60MinPlusMaxMinusOne = "Screenshare.FrameRateConstraints.60MinPlusMaxMinusOne"
)

const frameRateUnavailable = -1

// Adapter shapes the temporal stream of video frames between a producer and
// a consumer. In passthrough mode frames are forwarded as they arrive; in
// zero-hertz mode (screenshare sources) they are forwarded under a cadence
// derived from the constrained maximum framerate, repeating the most recent
// frame while the producer is idle.
//
// All adapter state lives on the task queue passed to New. OnFrame,
// InputFrameRateFPS and OnDiscardedFrame may be called from any goroutine;
// the remaining methods enqueue their work onto the queue.
type Adapter struct {
	clock Clock
	queue TaskQueue

	zeroHertzTrialEnabled bool
	recorder              telemetry.Recorder

	// Only touched from queue tasks.
	callback            Callback
	inputFramerate      *RateStatistics
	lastConstraints     *Constraints
	zeroHertzRequested  bool
	zeroHertz           *zeroHertzMode
	passthrough         *passthroughMode
	reportedConstraints bool

	pending      atomic.Int64
	frameRateFPS atomic.Int64
	closed       atomic.Bool
}

type Option func(*Adapter)

// WithFieldTrials overrides the process-default field trials for this
// adapter. The zero-hertz trial state is sampled once, at construction.
func WithFieldTrials(trials fieldtrial.Trials) Option {
	return func(a *Adapter) {
		a.zeroHertzTrialEnabled = trials.Enabled(ZeroHertzFieldTrial)
	}
}

// WithTelemetryRecorder routes constraint samples to r instead of dropping
// them.
func WithTelemetryRecorder(r telemetry.Recorder) Option {
	return func(a *Adapter) {
		a.recorder = r
	}
}

// New creates an adapter bound to clock and queue. The queue stays owned by
// the caller; Close invalidates the adapter's scheduled work but does not
// stop the queue.
func New(clock Clock, queue TaskQueue, opts ...Option) *Adapter {
	a := &Adapter{
		clock:                 clock,
		queue:                 queue,
		zeroHertzTrialEnabled: fieldtrial.Default().Enabled(ZeroHertzFieldTrial),
		recorder:              telemetry.Discard(),
		inputFramerate:        NewRateStatistics(FrameRateAveragingWindowSizeMS, 1000),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.passthrough = &passthroughMode{adapter: a}
	a.frameRateFPS.Store(frameRateUnavailable)
	return a
}

// Initialize binds the consumer callback, replacing any previous one. A nil
// callback suppresses deliveries while framerate tracking keeps working.
func (a *Adapter) Initialize(callback Callback) {
	a.queue.Post(func() {
		a.callback = callback
	})
}

// OnFrame accepts a frame from the producer. The frame is counted as
// pending immediately; the active mode decides when the consumer sees it.
func (a *Adapter) OnFrame(frame VideoFrame) {
	postTime := a.clock.Now()
	a.pending.Add(1)
	a.queue.Post(func() {
		framesPending := int(a.pending.Add(-1)) + 1
		a.processFrame(postTime, framesPending, frame)
	})
}

// OnDiscardedFrame forwards a producer-side discard to the consumer. It does
// not affect the pending count or the framerate estimate.
func (a *Adapter) OnDiscardedFrame() {
	a.queue.Post(func() {
		if a.callback != nil {
			a.callback.OnDiscardedFrame()
		}
	})
}

// OnConstraintsChanged stores the source's framerate range. A positive
// MaxFPS (re)derives the zero-hertz cadence period.
func (a *Adapter) OnConstraintsChanged(constraints Constraints) {
	a.queue.Post(func() {
		a.lastConstraints = &constraints
		a.reconfigureMode()
	})
}

// SetZeroHertzModeEnabled requests or revokes zero-hertz cadence. The
// request also arms constraint telemetry, independently of the field trial.
func (a *Adapter) SetZeroHertzModeEnabled(enabled bool) {
	a.queue.Post(func() {
		a.zeroHertzRequested = enabled
		a.reconfigureMode()
	})
}

// UpdateFrameRate recomputes the framerate published by InputFrameRateFPS:
// the configured maximum under active zero-hertz cadence, the windowed
// arrival rate otherwise.
func (a *Adapter) UpdateFrameRate() {
	nowMS := a.clock.Now().UnixMilli()
	a.queue.Post(func() {
		if a.zeroHertz != nil {
			a.frameRateFPS.Store(int64(a.zeroHertz.maxFPS))
			return
		}
		rate, ok := a.inputFramerate.Rate(nowMS)
		if !ok {
			rate = frameRateUnavailable
		}
		a.frameRateFPS.Store(rate)
	})
}

// InputFrameRateFPS returns the most recently published input framerate.
// The second result is false while the latest UpdateFrameRate found no
// measurable rate, or before any UpdateFrameRate ran.
func (a *Adapter) InputFrameRateFPS() (int64, bool) {
	fps := a.frameRateFPS.Load()
	if fps == frameRateUnavailable {
		return 0, false
	}
	return fps, true
}

// Close invalidates scheduled repeats and detaches the callback. Both take
// effect when Close's own queue task runs: tasks posted before it, including
// frame deliveries, still run first. The task queue itself stays with its
// owner.
func (a *Adapter) Close() {
	a.closed.Store(true)
	a.queue.Post(func() {
		if a.zeroHertz != nil {
			a.zeroHertz.stop()
			a.zeroHertz = nil
		}
		a.callback = nil
	})
}

func (a *Adapter) processFrame(postTime time.Time, framesPending int, frame VideoFrame) {
	a.maybeReportFrameRateConstraints()
	a.inputFramerate.Update(1, postTime.UnixMilli())
	if a.zeroHertz != nil {
		a.zeroHertz.onFrame(postTime, framesPending, frame)
		return
	}
	a.passthrough.onFrame(postTime, framesPending, frame)
}

func (a *Adapter) reconfigureMode() {
	maxFPS := 0.0
	if a.lastConstraints != nil && a.lastConstraints.MaxFPS != nil {
		maxFPS = *a.lastConstraints.MaxFPS
	}
	active := a.zeroHertzTrialEnabled && a.zeroHertzRequested && maxFPS > 0
	if !active {
		if a.zeroHertz != nil {
			a.zeroHertz.stop()
			a.zeroHertz = nil
			slog.Info("frame cadence: zero-hertz deactivated")
		}
		return
	}
	if a.zeroHertz == nil {
		a.zeroHertz = newZeroHertzMode(a, maxFPS)
		slog.Info("frame cadence: zero-hertz activated", "max-fps", maxFPS)
		return
	}
	a.zeroHertz.setMaxFPS(maxFPS)
	slog.Info("frame cadence: zero-hertz reconfigured", "max-fps", maxFPS)
}

// maybeReportFrameRateConstraints samples the constraint telemetry channels
// once per adapter, on the first frame after zero-hertz was requested.
func (a *Adapter) maybeReportFrameRateConstraints() {
	if !a.zeroHertzRequested || a.reportedConstraints {
		return
	}
	a.reportedConstraints = true
	a.recorder.AddBool(ChannelConstraintsExists, a.lastConstraints != nil)
	if a.lastConstraints == nil {
		return
	}
	c := a.lastConstraints
	a.recorder.AddBool(ChannelConstraintsMinExists, c.MinFPS != nil)
	a.recorder.AddBool(ChannelConstraintsMaxExists, c.MaxFPS != nil)
	if c.MinFPS != nil {
		a.recorder.Add(ChannelConstraintsMinValue, *c.MinFPS)
	}
	if c.MaxFPS != nil {
		a.recorder.Add(ChannelConstraintsMaxValue, *c.MaxFPS)
	}
	if c.MinFPS == nil && c.MaxFPS != nil {
		a.recorder.Add(ChannelConstraintsMinUnsetMax, *c.MaxFPS)
	}
	if c.MinFPS != nil && c.MaxFPS != nil {
		if *c.MinFPS < *c.MaxFPS {
			a.recorder.Add(ChannelConstraintsMinLtMaxMin, *c.MinFPS)
			a.recorder.Add(ChannelConstraintsMinLtMaxMax, *c.MaxFPS)
		}
		a.recorder.Add(ChannelConstraints60MinPlusMaxMinusOne, 60**c.MinFPS+*c.MaxFPS-1)
	}
}
