package framecadence

import (
	"fmt"
	"io"
	"time"

	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
)

// IVFSource reads pre-encoded frames from an IVF container and stamps them
// with the current capture time.
type IVFSource struct {
	reader *ivfreader.IVFReader
	header *ivfreader.IVFFileHeader
	closer io.Closer
	clock  Clock

	frameDuration time.Duration
}

func NewIVFSource(rc io.ReadCloser, clock Clock) (*IVFSource, error) {
	ivfReader, ivfHeader, err := ivfreader.NewWith(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse IVF stream: %w", err)
	}
	return &IVFSource{
		reader: ivfReader,
		header: ivfHeader,
		closer: rc,
		clock:  clock,
		frameDuration: time.Duration(
			float64(time.Second) * float64(ivfHeader.TimebaseNumerator) / float64(ivfHeader.TimebaseDenominator),
		),
	}, nil
}

func (s *IVFSource) ReadFrame() (VideoFrame, error) {
	payload, _, err := s.reader.ParseNextFrame()
	if err != nil {
		return VideoFrame{}, err
	}
	now := s.clock.Now()
	return VideoFrame{
		TimestampUS: now.UnixMicro(),
		NtpTimeMS:   NtpTimeMS(now),
		Data:        payload,
	}, nil
}

func (s *IVFSource) FrameDuration() time.Duration {
	return s.frameDuration
}

func (s *IVFSource) Close() error {
	return s.closer.Close()
}
