package framecadence

import (
	"fmt"
	"io"
	"time"

	"github.com/mengelbart/y4m"
)

// FrameSource produces video frames for an adapter.
type FrameSource interface {
	// ReadFrame returns the next frame, stamped with capture-clock and NTP
	// timestamps. io.EOF marks the end of the stream.
	ReadFrame() (VideoFrame, error)

	// FrameDuration is the source's native frame spacing.
	FrameDuration() time.Duration
}

// Y4MSource reads raw frames from a y4m stream and stamps them with the
// current capture time.
type Y4MSource struct {
	reader *y4m.Reader
	header *y4m.StreamHeader
	clock  Clock

	frameDuration time.Duration
}

func NewY4MSource(r io.Reader, clock Clock) (*Y4MSource, error) {
	y4mReader, y4mHeader, err := y4m.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse y4m stream: %w", err)
	}
	fps := float64(y4mHeader.FrameRate.Numerator) / float64(y4mHeader.FrameRate.Denominator)
	return &Y4MSource{
		reader:        y4mReader,
		header:        y4mHeader,
		clock:         clock,
		frameDuration: time.Duration(float64(time.Second) / fps),
	}, nil
}

func (s *Y4MSource) ReadFrame() (VideoFrame, error) {
	data, _, err := s.reader.ReadNextFrame()
	if err != nil {
		return VideoFrame{}, err
	}
	now := s.clock.Now()
	return VideoFrame{
		TimestampUS: now.UnixMicro(),
		NtpTimeMS:   NtpTimeMS(now),
		Data:        data,
	}, nil
}

func (s *Y4MSource) FrameDuration() time.Duration {
	return s.frameDuration
}
