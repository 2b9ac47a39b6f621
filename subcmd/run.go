package subcmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mengelbart/framecadence"
	"github.com/mengelbart/framecadence/cmdmain"
	"github.com/mengelbart/framecadence/fieldtrial"
	"github.com/mengelbart/framecadence/flags"
	"github.com/mengelbart/framecadence/logging"
	"github.com/mengelbart/framecadence/telemetry"
)

func init() {
	cmdmain.RegisterSubCmd("run", func() cmdmain.SubCmd { return new(Run) })
}

type Run struct{}

// Help implements cmdmain.SubCmd.
func (r *Run) Help() string {
	return "Run a cadence-shaping pipeline over a media file"
}

// Exec implements cmdmain.SubCmd.
func (r *Run) Exec(cmd string, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)

	flags.RegisterInto(fs, []flags.FlagName{
		flags.SourceLocationFlag,
		flags.SourceTypeFlag,
		flags.SinkTypeFlag,
		flags.SinkLocationFlag,
		flags.UDPAddrFlag,
		flags.MaxFPSFlag,
		flags.MinFPSFlag,
		flags.ZeroHertzFlag,
		flags.FieldTrialsFlag,
		flags.DurationFlag,
		flags.IdleAfterFlag,
		flags.MetricsAddrFlag,
		flags.TraceRTPSendFlag,
	}...)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Run a cadence-shaping pipeline

Usage:
	%s run [flags]

Flags:
`, cmd)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr)
	}
	fs.Parse(args)

	if flags.SourceLocation == "" {
		fmt.Fprintf(os.Stderr, "Flag -%v is required\n", flags.SourceLocationFlag)
		fs.Usage()
		os.Exit(1)
	}

	if err := fieldtrial.Set(flags.FieldTrials); err != nil {
		return fmt.Errorf("failed to parse field trials: %w", err)
	}

	if flags.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(flags.MetricsAddr, mux); err != nil {
				slog.Error("metrics endpoint failed", "error", err)
			}
		}()
	}

	clock := framecadence.SystemClock()
	queue := framecadence.NewTaskQueue()
	defer queue.Close()

	source, err := openSource(clock)
	if err != nil {
		return err
	}

	// With an active zero-hertz cadence the consumer sees deliveries spaced
	// by the cadence period rather than the source's native frame duration.
	step := source.FrameDuration()
	if flags.ZeroHertz && flags.MaxFPS > 0 {
		step = time.Duration(float64(time.Second) / flags.MaxFPS)
	}
	callback, closeSink, err := openSink(step)
	if err != nil {
		return err
	}
	defer closeSink()

	adapter := framecadence.New(clock, queue,
		framecadence.WithTelemetryRecorder(telemetry.NewPrometheusRecorder(nil)),
	)
	defer adapter.Close()
	adapter.Initialize(callback)

	constraints := framecadence.Constraints{}
	if flags.MinFPS > 0 {
		constraints.MinFPS = framecadence.FPS(flags.MinFPS)
	}
	if flags.MaxFPS > 0 {
		constraints.MaxFPS = framecadence.FPS(flags.MaxFPS)
	}
	adapter.OnConstraintsChanged(constraints)
	adapter.SetZeroHertzModeEnabled(flags.ZeroHertz)

	ctx := context.Background()
	var cancel context.CancelFunc
	if flags.Duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(flags.Duration)*time.Second)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return produce(ctx, source, adapter)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if fps, ok := adapter.InputFrameRateFPS(); ok {
		slog.Info("pipeline finished", "input-frame-rate", fps)
	}
	return nil
}

// produce feeds frames from source into the adapter at the source's native
// frame rate until the source is drained or the context ends.
func produce(ctx context.Context, source framecadence.FrameSource, adapter *framecadence.Adapter) error {
	limiter := rate.NewLimiter(rate.Every(source.FrameDuration()), 1)
	produced := uint(0)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}
		frame, err := source.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				slog.Info("source drained", "frames", produced)
				return nil
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}
		adapter.OnFrame(frame)
		adapter.UpdateFrameRate()
		produced++
		if flags.IdleAfter > 0 && produced >= flags.IdleAfter {
			// Let the zero-hertz repeats take over until the run ends.
			slog.Info("producer idling", "frames", produced)
			<-ctx.Done()
			return ctx.Err()
		}
	}
}

func openSource(clock framecadence.Clock) (framecadence.FrameSource, error) {
	file, err := os.Open(flags.SourceLocation)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	switch flags.SourceType {
	case 0:
		return framecadence.NewIVFSource(file, clock)
	case 1:
		return framecadence.NewY4MSource(file, clock)
	}
	file.Close()
	return nil, fmt.Errorf("unknown source type: %v", flags.SourceType)
}

func openSink(step time.Duration) (framecadence.Callback, func() error, error) {
	switch flags.SinkType {
	case 0:
		return framecadence.NewLogSink(nil), func() error { return nil }, nil
	case 1:
		file, err := os.Create(flags.SinkLocation)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create sink file: %w", err)
		}
		sink, err := framecadence.NewIVFSink(file, step)
		if err != nil {
			file.Close()
			return nil, nil, err
		}
		return sink, func() error {
			if err := sink.Close(); err != nil {
				return err
			}
			return file.Close()
		}, nil
	case 2:
		conn, err := net.Dial("udp", flags.UDPAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to dial udp sink: %w", err)
		}
		opts := []framecadence.RTPSinkOption{}
		if flags.TraceRTPSend {
			opts = append(opts, framecadence.RTPSinkTrace(logging.NewRTPLogger("rtp-sink", nil)))
		}
		return framecadence.NewRTPSink(conn, step, opts...), conn.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown sink type: %v", flags.SinkType)
}
