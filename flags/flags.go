// Package flags implements command-line flags for framecadence.
//
// The design idea is taken from [upspin.io/flags], but most of the code is
// modified. This package uses a slightly modified version of [RegisterInto]
// and the internal [flags]-map. See [Upspin LICENSE] for upspins copyright
// and license information.
//
// [upspin.io/flags]: https://github.com/upspin/upspin/tree/334f107fe3d98225d7adfbb35b74e066fbca9875/flags
// [Upspin LICENSE]: https://github.com/upspin/upspin/blob/334f107fe3d98225d7adfbb35b74e066fbca9875/LICENSE
package flags

import (
	"flag"
	"fmt"
)

type FlagName string

// flag keys
const (
	SourceLocationFlag FlagName = "source-location"
	SourceTypeFlag     FlagName = "source-type"

	SinkTypeFlag     FlagName = "sink-type"
	SinkLocationFlag FlagName = "sink-location"
	UDPAddrFlag      FlagName = "udp-address"

	MaxFPSFlag       FlagName = "max-fps"
	MinFPSFlag       FlagName = "min-fps"
	ZeroHertzFlag    FlagName = "zero-hertz"
	FieldTrialsFlag  FlagName = "field-trials"
	DurationFlag     FlagName = "duration"
	IdleAfterFlag    FlagName = "idle-after"
	MetricsAddrFlag  FlagName = "metrics-address"
	TraceRTPSendFlag FlagName = "trace-rtp-send"
)

// Flag vars
var (
	// SourceLocation is the input media file
	SourceLocation = ""

	// SourceType selects the input parser (0: ivf, 1: y4m)
	SourceType = uint(0)

	// SinkType selects the consumer (0: log, 1: ivf file, 2: rtp over udp)
	SinkType = uint(0)

	SinkLocation = "out.ivf"

	UDPAddr = "127.0.0.1:5000"

	// MaxFPS is the maximum framerate constraint handed to the adapter
	MaxFPS = float64(0)

	// MinFPS is the minimum framerate constraint handed to the adapter
	MinFPS = float64(0)

	ZeroHertz = false

	// FieldTrials in the form "Name/Value/Name2/Value2/"
	FieldTrials = "ZeroHertzScreenshare/Enabled/"

	// Duration is the total pipeline run time in seconds, 0 means until EOF
	Duration = uint(0)

	// IdleAfter stops the producer after this many frames to demonstrate
	// zero-hertz repeats, 0 means never
	IdleAfter = uint(0)

	// MetricsAddr is the listen address of the prometheus endpoint, empty
	// string disables it
	MetricsAddr = ""

	TraceRTPSend = false
)

type flagVar func(*flag.FlagSet)

func stringVar(p *string, name FlagName, defaultValue *string, usage string) func(*flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		fs.StringVar(p, string(name), *defaultValue, usage)
	}
}

func uintVar(p *uint, name FlagName, defaultValue *uint, usage string) func(*flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		fs.UintVar(p, string(name), *defaultValue, usage)
	}
}

func boolVar(p *bool, name FlagName, defaultValue *bool, usage string) func(*flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		fs.BoolVar(p, string(name), *defaultValue, usage)
	}
}

func float64Var(p *float64, name FlagName, defaultValue *float64, usage string) func(*flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		fs.Float64Var(p, string(name), *defaultValue, usage)
	}
}

var flags = map[FlagName]flagVar{
	SourceLocationFlag: stringVar(&SourceLocation, SourceLocationFlag, &SourceLocation, "Input media file"),
	SourceTypeFlag:     uintVar(&SourceType, SourceTypeFlag, &SourceType, "Source type (0: ivf, 1: y4m)"),

	SinkTypeFlag:     uintVar(&SinkType, SinkTypeFlag, &SinkType, "Sink type (0: log only, 1: ivf file, requires <sink-location>, 2: rtp over udp, requires <udp-address>)"),
	SinkLocationFlag: stringVar(&SinkLocation, SinkLocationFlag, &SinkLocation, "Location for the ivf sink (if <sink-type> is 1)"),
	UDPAddrFlag:      stringVar(&UDPAddr, UDPAddrFlag, &UDPAddr, "Remote address for the rtp sink (if <sink-type> is 2)"),

	MaxFPSFlag:      float64Var(&MaxFPS, MaxFPSFlag, &MaxFPS, "Maximum framerate constraint, 0 means unconstrained"),
	MinFPSFlag:      float64Var(&MinFPS, MinFPSFlag, &MinFPS, "Minimum framerate constraint, 0 means unset"),
	ZeroHertzFlag:   boolVar(&ZeroHertz, ZeroHertzFlag, &ZeroHertz, "Request zero-hertz cadence (screenshare sources)"),
	FieldTrialsFlag: stringVar(&FieldTrials, FieldTrialsFlag, &FieldTrials, "Field trial string, e.g. ZeroHertzScreenshare/Enabled/"),
	DurationFlag:    uintVar(&Duration, DurationFlag, &Duration, "Run time in seconds, 0 runs until the source is drained"),
	IdleAfterFlag:   uintVar(&IdleAfter, IdleAfterFlag, &IdleAfter, "Stop producing after this many frames and let repeats take over, 0 never idles"),
	MetricsAddrFlag: stringVar(&MetricsAddr, MetricsAddrFlag, &MetricsAddr, "Listen address of the prometheus metrics endpoint, empty disables it"),

	TraceRTPSendFlag: boolVar(&TraceRTPSend, TraceRTPSendFlag, &TraceRTPSend, "Log outgoing RTP packets"),
}

func RegisterInto(fs *flag.FlagSet, names ...FlagName) {
	if len(names) == 0 {
		for _, f := range flags {
			f(fs)
		}
	} else {
		for _, n := range names {
			f, ok := flags[n]
			if !ok {
				panic(fmt.Sprintf("unknown flag: %q", n))
			}
			f(fs)
		}
	}
}
