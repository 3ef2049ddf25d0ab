package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/deltasim/internal/adapters/abi"
	"github.com/trebuchet-org/deltasim/internal/adapters/tracer"
	"github.com/trebuchet-org/deltasim/internal/domain"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

const (
	alice = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	bob   = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	token = "0xcccccccccccccccccccccccccccccccccccccccc"
)

func padTopic(addr string) string {
	return "0x000000000000000000000000" + addr[2:]
}

func TestSimulator_EndToEndERC20Transfer(t *testing.T) {
	ctx := context.Background()
	tx := domain.TransactionParams{
		From: "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		To:   "0xCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC",
		// transfer(bob, 100)
		Data: "0xa9059cbb" +
			"000000000000000000000000bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb" +
			"0000000000000000000000000000000000000000000000000000000000000064",
	}

	client := new(MockForkClient)
	client.On("TraceCall", mock.Anything, tx).Return(&domain.CallTrace{
		Type:    "CALL",
		From:    alice,
		To:      token,
		Value:   "0x0",
		GasUsed: "0xc9a5",
		Logs: []domain.TraceLog{{
			Address: "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC",
			Topics:  []string{abi.TransferTopic.Hex(), padTopic(alice), padTopic(bob)},
			Data:    "0x0000000000000000000000000000000000000000000000000000000000000064",
		}},
	}, nil)

	forks := new(MockForkProvider)
	forks.On("ClientFor", mock.Anything, "sepolia").Return(client, nil)

	metrics := &recordingMetrics{}
	progress := &MockProgressSink{}
	log := testLogger()

	sim := usecase.NewSimulator(
		forks,
		tracer.NewTracer(log),
		abi.NewLogParser(log),
		abi.NewCalldataDecoder(log),
		metrics,
		progress,
		log,
	)

	out := sim.Run(ctx, domain.SimulateRequest{NetworkID: "sepolia", Tx: tx})
	require.NoError(t, out.Failure)

	resp := out.Response
	assert.True(t, resp.Success)
	assert.Nil(t, resp.RevertReason)
	require.NotNil(t, resp.GasUsed)
	assert.Equal(t, "51621", *resp.GasUsed)

	assert.Equal(t, []domain.ERC20Transfer{{Token: token, From: alice, To: bob, Amount: "100"}}, resp.AssetChanges.ERC20)
	assert.Empty(t, resp.AssetChanges.Native)
	assert.NotNil(t, resp.AssetChanges.ERC721)
	assert.Equal(t, domain.DeltasByAddress{
		alice: {token: "-100"},
		bob:   {token: "+100"},
	}, resp.DeltasByAddress)
	assert.Equal(t, []string{alice, bob, token}, resp.InvolvedAddresses)
	assert.Empty(t, resp.ApprovalsByAddress)

	require.NotNil(t, resp.DecodedInput)
	assert.Equal(t, "transfer", resp.DecodedInput.Method)
	assert.Equal(t, bob, resp.DecodedInput.Args["to"])
	assert.Equal(t, "100", resp.DecodedInput.Args["amount"])

	assert.Equal(t, []string{
		usecase.StageAcquiringFork,
		usecase.StageTracing,
		usecase.StageDecoding,
		usecase.StageAggregating,
		usecase.StageCompleted,
	}, progress.stages())
	assert.Equal(t, []string{"sepolia:success"}, metrics.outcomes)
}

func newSimulator(forks usecase.ForkProvider, tr usecase.CallTracer, dec usecase.LogDecoder, metrics usecase.MetricsRecorder) *usecase.Simulator {
	return usecase.NewSimulator(forks, tr, dec, nopCalldata{}, metrics, nil, testLogger())
}

func TestSimulator_Reverted(t *testing.T) {
	ctx := context.Background()
	tx := domain.TransactionParams{From: alice, To: token}
	client := new(MockForkClient)

	forks := new(MockForkProvider)
	forks.On("ClientFor", mock.Anything, "sepolia").Return(client, nil)

	tr := new(MockCallTracer)
	tr.On("TraceCall", mock.Anything, client, tx).Return(&domain.TraceResult{
		Success:      false,
		RevertReason: "ERC20: insufficient balance",
		GasUsed:      "23000",
		Traced:       true,
	}, nil)

	dec := new(MockLogDecoder)
	metrics := &recordingMetrics{}

	out := newSimulator(forks, tr, dec, metrics).Run(ctx, domain.SimulateRequest{NetworkID: "sepolia", Tx: tx})

	assert.NoError(t, out.Failure)
	assert.False(t, out.Response.Success)
	require.NotNil(t, out.Response.RevertReason)
	assert.Equal(t, "ERC20: insufficient balance", *out.Response.RevertReason)
	assert.Equal(t, "23000", *out.Response.GasUsed)
	assert.Empty(t, out.Response.InvolvedAddresses)
	assert.Empty(t, out.Response.AssetChanges.ERC20)
	assert.Empty(t, out.Response.DeltasByAddress)

	dec.AssertNotCalled(t, "Parse", mock.Anything)
	tr.AssertNotCalled(t, "ExtractNativeTransfers", mock.Anything)
	assert.Equal(t, []string{"sepolia:reverted"}, metrics.outcomes)
}

func TestSimulator_Failures(t *testing.T) {
	ctx := context.Background()
	tx := domain.TransactionParams{From: alice, To: token}

	t.Run("fork unavailable", func(t *testing.T) {
		startErr := &domain.StartupTimeoutError{NetworkID: "sepolia", Port: 9545, Timeout: 30 * time.Second}
		forks := new(MockForkProvider)
		forks.On("ClientFor", mock.Anything, "sepolia").Return(nil, startErr)
		metrics := &recordingMetrics{}

		out := newSimulator(forks, new(MockCallTracer), new(MockLogDecoder), metrics).
			Run(ctx, domain.SimulateRequest{NetworkID: "sepolia", Tx: tx})

		assert.ErrorIs(t, out.Failure, startErr)
		assert.False(t, out.Response.Success)
		assert.Contains(t, *out.Response.RevertReason, "Failed to start fork")
		assert.Nil(t, out.Response.GasUsed)
		assert.Equal(t, []string{"sepolia:failed"}, metrics.outcomes)
	})

	t.Run("unknown network", func(t *testing.T) {
		forks := new(MockForkProvider)
		forks.On("ClientFor", mock.Anything, "mainnet").
			Return(nil, &domain.ConfigurationError{NetworkID: "mainnet", Err: domain.ErrUnknownNetwork})

		out := newSimulator(forks, new(MockCallTracer), new(MockLogDecoder), usecase.NopMetrics{}).
			Run(ctx, domain.SimulateRequest{NetworkID: "mainnet", Tx: tx})

		var cfgErr *domain.ConfigurationError
		assert.ErrorAs(t, out.Failure, &cfgErr)
		assert.Equal(t, "Unknown network: mainnet", *out.Response.RevertReason)
	})

	t.Run("trace error", func(t *testing.T) {
		client := new(MockForkClient)
		forks := new(MockForkProvider)
		forks.On("ClientFor", mock.Anything, "sepolia").Return(client, nil)
		tr := new(MockCallTracer)
		traceErr := errors.New("tracer unavailable")
		tr.On("TraceCall", mock.Anything, client, tx).Return(nil, traceErr)

		out := newSimulator(forks, tr, new(MockLogDecoder), usecase.NopMetrics{}).
			Run(ctx, domain.SimulateRequest{NetworkID: "sepolia", Tx: tx})

		assert.ErrorIs(t, out.Failure, traceErr)
		assert.False(t, out.Response.Success)
		assert.Equal(t, "failed to trace transaction: tracer unavailable", *out.Response.RevertReason)
	})

	t.Run("trace outlives a canceled request", func(t *testing.T) {
		reqCtx, cancel := context.WithCancel(context.Background())
		cancel()

		client := new(MockForkClient)
		forks := new(MockForkProvider)
		forks.On("ClientFor", mock.Anything, "sepolia").Return(client, nil)
		tr := new(MockCallTracer)
		live := mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil })
		tr.On("TraceCall", live, client, tx).Return(&domain.TraceResult{Success: true, Logs: []domain.TraceLog{}}, nil)
		tr.On("ExtractNativeTransfers", mock.Anything).Return([]domain.NativeTransfer(nil))
		dec := new(MockLogDecoder)
		dec.On("Parse", mock.Anything).Return(&domain.ParsedLogs{})

		out := newSimulator(forks, tr, dec, usecase.NopMetrics{}).
			Run(reqCtx, domain.SimulateRequest{NetworkID: "sepolia", Tx: tx})

		require.NoError(t, out.Failure)
		assert.True(t, out.Response.Success)
		tr.AssertExpectations(t)
	})

	t.Run("aggregation error", func(t *testing.T) {
		client := new(MockForkClient)
		forks := new(MockForkProvider)
		forks.On("ClientFor", mock.Anything, "sepolia").Return(client, nil)
		tr := new(MockCallTracer)
		tr.On("TraceCall", mock.Anything, client, tx).Return(&domain.TraceResult{Success: true, Logs: []domain.TraceLog{}}, nil)
		tr.On("ExtractNativeTransfers", mock.Anything).Return([]domain.NativeTransfer{{From: alice, To: bob, Amount: "not-a-number"}})
		dec := new(MockLogDecoder)
		dec.On("Parse", mock.Anything).Return(&domain.ParsedLogs{})

		out := newSimulator(forks, tr, dec, usecase.NopMetrics{}).
			Run(ctx, domain.SimulateRequest{NetworkID: "sepolia", Tx: tx})

		require.Error(t, out.Failure)
		assert.Contains(t, *out.Response.RevertReason, "failed to aggregate deltas")
	})

	t.Run("panic is contained", func(t *testing.T) {
		client := new(MockForkClient)
		forks := new(MockForkProvider)
		forks.On("ClientFor", mock.Anything, "sepolia").Return(client, nil)
		tr := new(MockCallTracer)
		tr.On("TraceCall", mock.Anything, client, tx).Return(&domain.TraceResult{Success: true}, nil)
		tr.On("ExtractNativeTransfers", mock.Anything).Return(nil)
		dec := new(MockLogDecoder)
		dec.On("Parse", mock.Anything).Run(func(mock.Arguments) { panic("boom") })
		metrics := &recordingMetrics{}

		out := newSimulator(forks, tr, dec, metrics).
			Run(ctx, domain.SimulateRequest{NetworkID: "sepolia", Tx: tx})

		require.Error(t, out.Failure)
		assert.Equal(t, "internal error: boom", *out.Response.RevertReason)
		assert.Equal(t, []string{"sepolia:failed"}, metrics.outcomes)
	})
}

func TestSimulator_FallbackSuccessHasNoGas(t *testing.T) {
	ctx := context.Background()
	tx := domain.TransactionParams{From: alice, To: bob, Value: "0x1"}
	client := new(MockForkClient)

	forks := new(MockForkProvider)
	forks.On("ClientFor", mock.Anything, "localhost").Return(client, nil)
	tr := new(MockCallTracer)
	tr.On("TraceCall", mock.Anything, client, tx).Return(&domain.TraceResult{Success: true, Logs: []domain.TraceLog{}}, nil)
	tr.On("ExtractNativeTransfers", (*domain.CallTrace)(nil)).Return([]domain.NativeTransfer{})
	dec := new(MockLogDecoder)
	dec.On("Parse", []domain.TraceLog{}).Return(&domain.ParsedLogs{})

	out := newSimulator(forks, tr, dec, usecase.NopMetrics{}).
		Run(ctx, domain.SimulateRequest{NetworkID: "localhost", Tx: tx})

	require.NoError(t, out.Failure)
	assert.True(t, out.Response.Success)
	assert.Nil(t, out.Response.GasUsed)
	assert.Equal(t, []string{}, out.Response.InvolvedAddresses)
	assert.NotNil(t, out.Response.AssetChanges.ERC1155)
	assert.NotNil(t, out.Response.Approvals.OperatorApprovals)
}

func TestSimulator_ReportsNetworkErrorMessage(t *testing.T) {
	forks := new(MockForkProvider)
	forks.On("ClientFor", mock.Anything, "sepolia").Return(nil, errors.New("connection reset"))

	out := newSimulator(forks, new(MockCallTracer), new(MockLogDecoder), usecase.NopMetrics{}).
		Run(context.Background(), domain.SimulateRequest{NetworkID: "sepolia"})

	assert.Equal(t, "connection reset", *out.Response.RevertReason)
}
