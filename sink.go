package framecadence

import (
	"log/slog"
	"time"
)

// LogSink is a consumer callback that only logs deliveries. It is the
// default sink of the CLI and doubles as a template for embedders.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) OnFrame(postTime time.Time, framesPending int, frame VideoFrame) {
	s.logger.Info("frame delivered",
		"post-time", postTime,
		"frames-pending", framesPending,
		"timestamp-us", frame.TimestampUS,
		"ntp-time-ms", frame.NtpTimeMS,
		"payload-length", len(frame.Data),
	)
}

func (s *LogSink) OnDiscardedFrame() {
	s.logger.Info("frame discarded")
}
