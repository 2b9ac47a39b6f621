package framecadence

import (
	"time"
)

// ntpEpochOffsetMS is the offset between the NTP epoch (1900-01-01) and the
// Unix epoch (1970-01-01) in milliseconds.
const ntpEpochOffsetMS = 2_208_988_800_000

// VideoFrame is a single video frame travelling from a producer to a
// consumer. The adapter reads and, for repeated deliveries, rewrites the two
// timestamps; the payload is forwarded untouched. A timestamp with value
// zero is treated as unset and never rewritten.
type VideoFrame struct {
	// TimestampUS is the render timestamp in microseconds in the capture
	// clock domain.
	TimestampUS int64

	// NtpTimeMS is the capture time in milliseconds since the NTP epoch.
	NtpTimeMS int64

	// Data is the opaque frame payload.
	Data []byte
}

// Callback is the consumer side of the adapter. All methods are invoked on
// the adapter's task queue; consumers that need a different execution
// context must hop off it themselves.
type Callback interface {
	// OnFrame delivers a frame. postTime is the adapter clock's time at
	// delivery and framesPending the number of producer frames scheduled
	// for processing, including this one.
	OnFrame(postTime time.Time, framesPending int, frame VideoFrame)

	// OnDiscardedFrame mirrors a frame discarded on the producer side.
	OnDiscardedFrame()
}

// Constraints is the framerate range reported by a video track source. Nil
// fields are unset. MaxFPS bounds the zero-hertz cadence; MinFPS is only
// recorded in telemetry.
type Constraints struct {
	MinFPS *float64
	MaxFPS *float64
}

// FPS is a convenience for building Constraints literals.
func FPS(v float64) *float64 {
	return &v
}

// NtpTimeMS converts t to milliseconds since the NTP epoch.
func NtpTimeMS(t time.Time) int64 {
	return t.UnixMilli() + ntpEpochOffsetMS
}
