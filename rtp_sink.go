package framecadence

import (
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"

	"github.com/mengelbart/framecadence/logging"
)

// RTPSink is a consumer callback that packetizes every delivered frame into
// RTP and writes the marshaled packets to an io.Writer (typically a UDP
// conn). The RTP timestamp advances by the wall-clock distance between the
// delivered frames' render timestamps, so zero-hertz repeats keep the media
// clock moving at the cadence.
type RTPSink struct {
	packetizer rtp.Packetizer
	clockRate  uint32
	writer     io.Writer
	trace      *logging.RTPLogger

	payloadType uint8
	ssrc        uint32
	mtu         uint16

	lastTimestampUS int64
	fallbackStep    time.Duration

	discarded atomic.Int64
}

type RTPSinkOption func(*RTPSink)

func RTPSinkPayloadType(pt uint8) RTPSinkOption {
	return func(s *RTPSink) {
		s.payloadType = pt
	}
}

func RTPSinkSSRC(ssrc uint32) RTPSinkOption {
	return func(s *RTPSink) {
		s.ssrc = ssrc
	}
}

// RTPSinkTrace logs every outgoing packet through l.
func RTPSinkTrace(l *logging.RTPLogger) RTPSinkOption {
	return func(s *RTPSink) {
		s.trace = l
	}
}

// NewRTPSink creates a sink writing VP8 RTP packets to w. fallbackStep is
// the media-clock advance used for frames with unset render timestamps.
func NewRTPSink(w io.Writer, fallbackStep time.Duration, opts ...RTPSinkOption) *RTPSink {
	s := &RTPSink{
		clockRate:    90_000,
		writer:       w,
		payloadType:  96,
		mtu:          1200,
		fallbackStep: fallbackStep,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.packetizer = rtp.NewPacketizer(s.mtu, s.payloadType, s.ssrc, &codecs.VP8Payloader{}, rtp.NewRandomSequencer(), s.clockRate)
	return s
}

// OnFrame implements Callback. It runs on the adapter queue.
func (s *RTPSink) OnFrame(postTime time.Time, framesPending int, frame VideoFrame) {
	step := s.fallbackStep
	if frame.TimestampUS != 0 && s.lastTimestampUS != 0 && frame.TimestampUS > s.lastTimestampUS {
		step = time.Duration(frame.TimestampUS-s.lastTimestampUS) * time.Microsecond
	}
	if frame.TimestampUS != 0 {
		s.lastTimestampUS = frame.TimestampUS
	}
	samples := uint32(step.Seconds() * float64(s.clockRate))
	// Advance the media clock before packetizing, so this frame's RTP
	// timestamp lies step after the previous frame's.
	s.packetizer.SkipSamples(samples)
	packets := s.packetizer.Packetize(frame.Data, 0)
	for _, pkt := range packets {
		if s.trace != nil {
			s.trace.LogRTPPacket(&pkt.Header, pkt.Payload, nil)
		}
		buf, err := pkt.Marshal()
		if err != nil {
			slog.Error("failed to marshal RTP packet", "error", err)
			return
		}
		if _, err := s.writer.Write(buf); err != nil {
			slog.Error("failed to send RTP packet", "error", err)
			return
		}
	}
	slog.Debug("forwarded frame as RTP", "packets", len(packets), "frames-pending", framesPending, "post-time", postTime)
}

// OnDiscardedFrame implements Callback.
func (s *RTPSink) OnDiscardedFrame() {
	s.discarded.Add(1)
}

// Discarded returns the number of discards mirrored so far.
func (s *RTPSink) Discarded() int64 {
	return s.discarded.Load()
}
