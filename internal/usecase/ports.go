package usecase

import (
	"context"
	"time"

	"github.com/trebuchet-org/deltasim/internal/domain"
)

// ForkClient is the RPC surface of a running fork
type ForkClient interface {
	// TraceCall executes tx with the callTracer and returns the call tree
	TraceCall(ctx context.Context, tx domain.TransactionParams) (*domain.CallTrace, error)
	// Call executes tx with eth_call and returns the return data
	Call(ctx context.Context, tx domain.TransactionParams) ([]byte, error)
	// BlockNumber returns the fork's latest block number
	BlockNumber(ctx context.Context) (uint64, error)
	Close()
}

// ForkProvider hands out clients for ready forks, starting them if needed
type ForkProvider interface {
	ClientFor(ctx context.Context, networkID string) (ForkClient, error)
}

// ForkController administers the set of live forks
type ForkController interface {
	RefreshFork(ctx context.Context, networkID string) (*RefreshOutcome, error)
	GetAllForkStatuses() []domain.ForkState
}

// RefreshOutcome describes the fork serving a network after a refresh
type RefreshOutcome struct {
	NetworkID   string
	Port        int
	BlockNumber uint64
	// Degraded is set when the replacement failed and the old fork was kept
	Degraded bool
	// Warning is the replacement's startup error when Degraded is set
	Warning string
}

// NetworkRegistry resolves configured networks
type NetworkRegistry interface {
	Networks() []domain.NetworkConfig
	Network(id string) (domain.NetworkConfig, error)
}

// CallTracer executes one transaction against a fork
type CallTracer interface {
	TraceCall(ctx context.Context, client ForkClient, tx domain.TransactionParams) (*domain.TraceResult, error)
	ExtractNativeTransfers(trace *domain.CallTrace) []domain.NativeTransfer
}

// LogDecoder turns raw logs into typed transfer and approval records
type LogDecoder interface {
	Parse(logs []domain.TraceLog) *domain.ParsedLogs
}

// CalldataDecoder describes top-level transaction input
type CalldataDecoder interface {
	DecodeCalldata(data string) *domain.DecodedInput
}

// Simulation outcomes used for metrics labels
const (
	OutcomeSuccess  = "success"
	OutcomeReverted = "reverted"
	OutcomeFailed   = "failed"
)

// MetricsRecorder records service metrics
type MetricsRecorder interface {
	ObserveSimulation(networkID, outcome string, duration time.Duration)
	ForkSpawned(networkID string, ok bool)
	ForkRefreshed(networkID, outcome string)
	SetForksRunning(n int)
}

// NopMetrics discards all metrics
type NopMetrics struct{}

func (NopMetrics) ObserveSimulation(string, string, time.Duration) {}
func (NopMetrics) ForkSpawned(string, bool)                        {}
func (NopMetrics) ForkRefreshed(string, string)                    {}
func (NopMetrics) SetForksRunning(int)                             {}

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage   string
	Message string
	Spinner bool
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// Simulation stages reported through ProgressSink
const (
	StageAcquiringFork = "Acquiring fork"
	StageTracing       = "Tracing"
	StageDecoding      = "Decoding"
	StageAggregating   = "Aggregating"
	StageCompleted     = "Completed"
)
