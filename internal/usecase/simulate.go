package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/trebuchet-org/deltasim/internal/domain"
)

// SimulateOutcome is the result of one simulation. Response is always set.
// Failure carries the cause when the simulation could not run, so callers
// can tell bad input from an unavailable fork. A reverted transaction is
// not a failure.
type SimulateOutcome struct {
	Response *domain.SimulateResponse
	Failure  error
}

func (o *SimulateOutcome) metricsOutcome() string {
	switch {
	case o.Failure != nil:
		return OutcomeFailed
	case !o.Response.Success:
		return OutcomeReverted
	default:
		return OutcomeSuccess
	}
}

// Simulator runs a transaction on a fork and reports its asset and approval effects
type Simulator struct {
	forks    ForkProvider
	tracer   CallTracer
	decoder  LogDecoder
	calldata CalldataDecoder
	metrics  MetricsRecorder
	progress ProgressSink
	log      *slog.Logger
}

// NewSimulator creates a new Simulator use case
func NewSimulator(
	forks ForkProvider,
	tracer CallTracer,
	decoder LogDecoder,
	calldata CalldataDecoder,
	metrics MetricsRecorder,
	progress ProgressSink,
	log *slog.Logger,
) *Simulator {
	if progress == nil {
		progress = NopProgress{}
	}
	return &Simulator{
		forks:    forks,
		tracer:   tracer,
		decoder:  decoder,
		calldata: calldata,
		metrics:  metrics,
		progress: progress,
		log:      log.With("component", "Simulator"),
	}
}

// Run simulates req. It never fails: reverts and errors at any stage,
// panics included, are reported in the response with success=false.
func (s *Simulator) Run(ctx context.Context, req domain.SimulateRequest) (out *SimulateOutcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Simulation panicked", "network", req.NetworkID, "panic", r, "stack", string(debug.Stack()))
			out = failed(fmt.Errorf("internal error: %v", r))
		}
		s.metrics.ObserveSimulation(req.NetworkID, out.metricsOutcome(), time.Since(start))
	}()

	return s.run(ctx, req)
}

func (s *Simulator) run(ctx context.Context, req domain.SimulateRequest) *SimulateOutcome {
	s.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageAcquiringFork,
		Message: fmt.Sprintf("Acquiring fork for %s", req.NetworkID),
		Spinner: true,
	})
	client, err := s.forks.ClientFor(ctx, req.NetworkID)
	if err != nil {
		s.log.Warn("Fork unavailable", "network", req.NetworkID, "error", err)
		s.progress.OnProgress(ctx, ProgressEvent{Stage: StageCompleted, Message: "Fork unavailable"})
		return failed(err)
	}

	s.progress.OnProgress(ctx, ProgressEvent{Stage: StageTracing, Message: "Tracing transaction", Spinner: true})
	// A trace call runs to completion once issued, even if the request goes away
	trace, err := s.tracer.TraceCall(context.WithoutCancel(ctx), client, req.Tx)
	if err != nil {
		s.progress.OnProgress(ctx, ProgressEvent{Stage: StageCompleted, Message: "Trace failed"})
		return failed(fmt.Errorf("failed to trace transaction: %w", err))
	}

	decodedInput := s.calldata.DecodeCalldata(req.Tx.Data)

	if !trace.Success {
		s.log.Debug("Transaction reverted", "network", req.NetworkID, "reason", trace.RevertReason)
		resp := domain.NewFailureResponse(trace.RevertReason)
		resp.GasUsed = optional(trace.GasUsed)
		resp.DecodedInput = decodedInput
		s.progress.OnProgress(ctx, ProgressEvent{Stage: StageCompleted, Message: "Transaction reverted"})
		return &SimulateOutcome{Response: resp}
	}

	s.progress.OnProgress(ctx, ProgressEvent{Stage: StageDecoding, Message: "Decoding logs", Spinner: true})
	native := s.tracer.ExtractNativeTransfers(trace.CallTrace)
	parsed := s.decoder.Parse(trace.Logs)
	if len(parsed.Skipped) > 0 {
		s.log.Warn("Skipped malformed logs", "network", req.NetworkID, "count", len(parsed.Skipped))
	}

	s.progress.OnProgress(ctx, ProgressEvent{Stage: StageAggregating, Message: "Aggregating balance changes", Spinner: true})
	changes := domain.AssetChanges{
		Native:  orEmpty(native),
		ERC20:   orEmpty(parsed.Transfers.ERC20),
		ERC721:  orEmpty(parsed.Transfers.ERC721),
		ERC1155: orEmpty(parsed.Transfers.ERC1155),
	}
	involved, deltas, err := domain.AggregateDeltas(changes)
	if err != nil {
		s.progress.OnProgress(ctx, ProgressEvent{Stage: StageCompleted, Message: "Aggregation failed"})
		return failed(fmt.Errorf("failed to aggregate deltas: %w", err))
	}
	approvals, approvalsByAddress := domain.AggregateApprovals(parsed.Approvals)

	s.progress.OnProgress(ctx, ProgressEvent{Stage: StageCompleted, Message: "Simulation complete"})

	return &SimulateOutcome{Response: &domain.SimulateResponse{
		Success:            true,
		GasUsed:            optional(trace.GasUsed),
		InvolvedAddresses:  involved,
		AssetChanges:       changes,
		DeltasByAddress:    deltas,
		Approvals:          approvals,
		ApprovalsByAddress: approvalsByAddress,
		DecodedInput:       decodedInput,
	}}
}

func failed(err error) *SimulateOutcome {
	return &SimulateOutcome{
		Response: domain.NewFailureResponse(err.Error()),
		Failure:  err,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
