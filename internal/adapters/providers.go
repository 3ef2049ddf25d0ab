package adapters

import (
	"log/slog"

	"github.com/google/wire"
	"github.com/trebuchet-org/deltasim/internal/adapters/abi"
	"github.com/trebuchet-org/deltasim/internal/adapters/anvil"
	"github.com/trebuchet-org/deltasim/internal/adapters/blockchain"
	internalconfig "github.com/trebuchet-org/deltasim/internal/adapters/config"
	"github.com/trebuchet-org/deltasim/internal/adapters/metrics"
	"github.com/trebuchet-org/deltasim/internal/adapters/progress"
	"github.com/trebuchet-org/deltasim/internal/adapters/tracer"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

// ProgressMode selects how simulation progress is reported
type ProgressMode string

const (
	// ProgressSpinner draws a terminal spinner, for interactive commands
	ProgressSpinner ProgressMode = "spinner"
	// ProgressLog writes progress to the debug log
	ProgressLog ProgressMode = "log"
)

// ProvideClientDialer provides the JSON-RPC dialer used for fork clients
func ProvideClientDialer() anvil.ClientDialer {
	return blockchain.DialForkClient
}

// ProvideProgressSink provides the progress sink for mode
func ProvideProgressSink(mode ProgressMode, log *slog.Logger) usecase.ProgressSink {
	if mode == ProgressSpinner {
		return progress.NewSpinnerProgressReporter()
	}
	return progress.NewLogSink(log)
}

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	internalconfig.NewNetworkRegistry,
	wire.Bind(new(usecase.NetworkRegistry), new(*internalconfig.NetworkRegistry)),
)

// ForkSet provides the fork manager and its process and RPC plumbing
var ForkSet = wire.NewSet(
	anvil.NewExecLauncher,
	wire.Bind(new(anvil.Launcher), new(*anvil.ExecLauncher)),

	ProvideClientDialer,

	anvil.NewForkManager,
	wire.Bind(new(usecase.ForkProvider), new(*anvil.ForkManager)),
	wire.Bind(new(usecase.ForkController), new(*anvil.ForkManager)),
)

// TraceSet provides tracing and decoding implementations
var TraceSet = wire.NewSet(
	tracer.NewTracer,
	wire.Bind(new(usecase.CallTracer), new(*tracer.Tracer)),

	abi.NewLogParser,
	wire.Bind(new(usecase.LogDecoder), new(*abi.LogParser)),

	abi.NewCalldataDecoder,
	wire.Bind(new(usecase.CalldataDecoder), new(*abi.CalldataDecoder)),
)

// MetricsSet provides the Prometheus recorder
var MetricsSet = wire.NewSet(
	metrics.NewRecorder,
	wire.Bind(new(usecase.MetricsRecorder), new(*metrics.Recorder)),
)

// ProgressSet provides progress reporting
var ProgressSet = wire.NewSet(
	ProvideProgressSink,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	ConfigSet,
	ForkSet,
	TraceSet,
	MetricsSet,
	ProgressSet,
)
