package framecadence

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4/pkg/media/ivfwriter"
)

// IVFSink is a consumer callback that stores every delivered frame in an
// IVF file. Zero-hertz repeats end up as real frames in the file, which
// makes the shaped cadence visible to ordinary media tooling.
type IVFSink struct {
	writer     *ivfwriter.IVFWriter
	packetizer rtp.Packetizer
	clockRate  uint32
	step       time.Duration

	frames    int64
	discarded int64
}

// NewIVFSink creates a sink writing VP8 frames to w. step is the media-clock
// advance per delivered frame, typically the cadence period.
func NewIVFSink(w io.Writer, step time.Duration) (*IVFSink, error) {
	ivfWriter, err := ivfwriter.NewWith(w)
	if err != nil {
		return nil, fmt.Errorf("failed to create IVF writer: %w", err)
	}
	const clockRate = 90_000
	return &IVFSink{
		writer:     ivfWriter,
		packetizer: rtp.NewPacketizer(1200, 96, 0, &codecs.VP8Payloader{}, rtp.NewRandomSequencer(), clockRate),
		clockRate:  clockRate,
		step:       step,
	}, nil
}

// OnFrame implements Callback. It runs on the adapter queue.
func (s *IVFSink) OnFrame(_ time.Time, _ int, frame VideoFrame) {
	samples := uint32(s.step.Seconds() * float64(s.clockRate))
	for _, pkt := range s.packetizer.Packetize(frame.Data, samples) {
		if err := s.writer.WriteRTP(pkt); err != nil {
			slog.Error("failed to write frame to IVF file", "error", err)
			return
		}
	}
	s.frames++
}

// OnDiscardedFrame implements Callback.
func (s *IVFSink) OnDiscardedFrame() {
	s.discarded++
}

// Close finalizes the IVF header.
func (s *IVFSink) Close() error {
	slog.Info("IVF sink closing", "frames", s.frames, "discarded", s.discarded)
	return s.writer.Close()
}
