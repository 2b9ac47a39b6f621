package framecadence

import (
	"log/slog"
	"time"
)

// zeroHertzMode forwards frames under a fixed cadence of one period per
// 1/maxFPS seconds. An arriving frame is held for one period so a newer
// frame can supersede it; while the producer stays idle, the most recent
// frame is re-delivered every period with synthesized timestamps.
//
// Scheduled deliveries carry a generation token instead of being removed
// from the queue: a task whose token no longer matches finds itself
// superseded and returns without delivering.
type zeroHertzMode struct {
	adapter *Adapter
	maxFPS  float64
	period  time.Duration

	queued     *queuedFrame
	generation uint64
}

// queuedFrame is the most recent producer frame plus the timestamps it
// arrived with. repeats counts deliveries of this frame so far: 0 before the
// original delivery, 1 before the first repeat.
type queuedFrame struct {
	frame       VideoFrame
	timestampUS int64
	ntpTimeMS   int64
	repeats     int64
}

func newZeroHertzMode(adapter *Adapter, maxFPS float64) *zeroHertzMode {
	z := &zeroHertzMode{adapter: adapter}
	z.setMaxFPS(maxFPS)
	return z
}

func (z *zeroHertzMode) setMaxFPS(maxFPS float64) {
	z.maxFPS = maxFPS
	z.period = time.Duration(float64(time.Second) / maxFPS)
}

func (z *zeroHertzMode) onFrame(postTime time.Time, _ int, frame VideoFrame) {
	// The new frame supersedes any pending repeat and restarts the cadence
	// relative to its own arrival.
	z.generation++
	z.queued = &queuedFrame{
		frame:       frame,
		timestampUS: frame.TimestampUS,
		ntpTimeMS:   frame.NtpTimeMS,
	}
	z.scheduleDelivery(z.generation, postTime.Add(z.period))
}

func (z *zeroHertzMode) scheduleDelivery(generation uint64, at time.Time) {
	delay := at.Sub(z.adapter.clock.Now())
	slog.Debug("frame cadence: delivery scheduled", "delay", delay, "repeats", z.queued.repeats)
	z.adapter.queue.PostDelayed(delay, func() {
		z.deliverAndReschedule(generation, at)
	})
}

func (z *zeroHertzMode) deliverAndReschedule(generation uint64, scheduled time.Time) {
	if generation != z.generation {
		return
	}
	q := z.queued
	frame := q.frame
	if q.timestampUS != 0 && q.ntpTimeMS != 0 {
		// Repeats carry monotonic timestamps advanced by one cadence period
		// each. Unset (zero) timestamps are forwarded verbatim so downstream
		// defaulting still applies.
		frame.TimestampUS = q.timestampUS + q.repeats*z.period.Microseconds()
		frame.NtpTimeMS = q.ntpTimeMS + q.repeats*z.period.Milliseconds()
	}
	if z.adapter.callback != nil {
		z.adapter.callback.OnFrame(z.adapter.clock.Now(), 1, frame)
	}
	q.repeats++
	z.scheduleDelivery(generation, scheduled.Add(z.period))
}

// stop invalidates the pending delivery and drops the stored frame.
func (z *zeroHertzMode) stop() {
	z.generation++
	z.queued = nil
}
