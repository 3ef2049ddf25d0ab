package tracer

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/deltasim/internal/adapters/abi"
	"github.com/trebuchet-org/deltasim/internal/domain"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

// Tracer executes a transaction against a fork and normalizes the result
type Tracer struct {
	log *slog.Logger
}

// NewTracer creates a new tracer
func NewTracer(log *slog.Logger) *Tracer {
	return &Tracer{
		log: log.With("component", "Tracer"),
	}
}

// TraceCall traces tx with debug_traceCall. When the fork cannot trace it
// falls back to eth_call, which only tells success from revert. An eth_call
// error is reported as a revert carrying the error message.
func (t *Tracer) TraceCall(ctx context.Context, client usecase.ForkClient, tx domain.TransactionParams) (*domain.TraceResult, error) {
	trace, err := client.TraceCall(ctx, tx)
	if err == nil {
		return fromCallTrace(trace), nil
	}

	t.log.Warn("debug_traceCall failed, falling back to eth_call", "error", err)

	_, err = client.Call(ctx, tx)
	if err != nil {
		return &domain.TraceResult{
			Success:      false,
			RevertReason: revertReasonFromError(err),
		}, nil
	}

	return &domain.TraceResult{Success: true}, nil
}

func fromCallTrace(trace *domain.CallTrace) *domain.TraceResult {
	result := &domain.TraceResult{
		Success:   !trace.Failed(),
		GasUsed:   decimalQuantity(trace.GasUsed),
		CallTrace: trace,
		Logs:      FlattenLogs(trace),
		Traced:    true,
	}

	if !result.Success {
		payload := trace.Output
		if payload == "" || payload == "0x" {
			payload = trace.RevertReason
		}
		result.RevertReason = abi.DecodeRevertReason(payload)
	}

	return result
}

// revertReasonFromError decodes revert data attached to an RPC error,
// falling back to the error message
func revertReasonFromError(err error) string {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(string); ok && strings.HasPrefix(data, "0x") && len(data) > 2 {
			return abi.DecodeRevertReason(data)
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return abi.DefaultRevertReason
}

// FlattenLogs collects logs depth-first, a frame's own logs before its children's
func FlattenLogs(trace *domain.CallTrace) []domain.TraceLog {
	logs := []domain.TraceLog{}
	if trace == nil {
		return logs
	}

	var walk func(frame *domain.CallTrace)
	walk = func(frame *domain.CallTrace) {
		logs = append(logs, frame.Logs...)
		for i := range frame.Calls {
			walk(&frame.Calls[i])
		}
	}
	walk(trace)

	return logs
}

// ExtractNativeTransfers records every frame that moves a nonzero value to a
// destination. Frames under a reverted ancestor are included as well.
func (t *Tracer) ExtractNativeTransfers(trace *domain.CallTrace) []domain.NativeTransfer {
	transfers := []domain.NativeTransfer{}
	if trace == nil {
		return transfers
	}

	var walk func(frame *domain.CallTrace)
	walk = func(frame *domain.CallTrace) {
		if frame.To != "" && frame.Value != "" {
			value, ok := parseQuantity(frame.Value)
			if !ok {
				t.log.Debug("Ignoring unparsable frame value", "from", frame.From, "to", frame.To, "value", frame.Value)
			} else if value.Sign() > 0 {
				transfers = append(transfers, domain.NativeTransfer{
					From:   strings.ToLower(frame.From),
					To:     strings.ToLower(frame.To),
					Amount: value.String(),
				})
			}
		}
		for i := range frame.Calls {
			walk(&frame.Calls[i])
		}
	}
	walk(trace)

	return transfers
}

func decimalQuantity(hex string) string {
	v, ok := parseQuantity(hex)
	if !ok {
		return ""
	}
	return v.String()
}

func parseQuantity(s string) (*big.Int, bool) {
	if len(s) <= 2 || !strings.HasPrefix(strings.ToLower(s), "0x") {
		return nil, false
	}
	return new(big.Int).SetString(s[2:], 16)
}

var _ usecase.CallTracer = (*Tracer)(nil)
