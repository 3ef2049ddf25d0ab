package tracer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/deltasim/internal/domain"
)

// MockForkClient is a mock implementation of usecase.ForkClient
type MockForkClient struct {
	mock.Mock
}

func (m *MockForkClient) TraceCall(ctx context.Context, tx domain.TransactionParams) (*domain.CallTrace, error) {
	args := m.Called(ctx, tx)
	if trace := args.Get(0); trace != nil {
		return trace.(*domain.CallTrace), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockForkClient) Call(ctx context.Context, tx domain.TransactionParams) ([]byte, error) {
	args := m.Called(ctx, tx)
	if out := args.Get(0); out != nil {
		return out.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockForkClient) BlockNumber(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockForkClient) Close() {}

type dataError struct {
	msg  string
	data interface{}
}

func (e *dataError) Error() string          { return e.msg }
func (e *dataError) ErrorData() interface{} { return e.data }

func newTestTracer() *Tracer {
	return NewTracer(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func logAt(addr string) domain.TraceLog {
	return domain.TraceLog{Address: addr, Topics: []string{}, Data: "0x"}
}

var tx = domain.TransactionParams{From: "0xa", To: "0xb"}

func TestTraceCall_Success(t *testing.T) {
	client := new(MockForkClient)
	client.On("TraceCall", mock.Anything, tx).Return(&domain.CallTrace{
		Type:    "CALL",
		From:    "0xa",
		To:      "0xb",
		GasUsed: "0xc350",
		Logs:    []domain.TraceLog{logAt("0x1")},
		Calls: []domain.CallTrace{
			{
				Logs:  []domain.TraceLog{logAt("0x2")},
				Calls: []domain.CallTrace{{Logs: []domain.TraceLog{logAt("0x3")}}},
			},
			{Logs: []domain.TraceLog{logAt("0x4")}},
		},
	}, nil)

	result, err := newTestTracer().TraceCall(context.Background(), client, tx)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Traced)
	assert.Equal(t, "50000", result.GasUsed)
	assert.Empty(t, result.RevertReason)

	addrs := make([]string, 0, len(result.Logs))
	for _, l := range result.Logs {
		addrs = append(addrs, l.Address)
	}
	assert.Equal(t, []string{"0x1", "0x2", "0x3", "0x4"}, addrs)
	client.AssertNotCalled(t, "Call", mock.Anything, mock.Anything)
}

func TestTraceCall_Reverted(t *testing.T) {
	tests := []struct {
		name     string
		trace    *domain.CallTrace
		expected string
	}{
		{
			name: "panic output",
			trace: &domain.CallTrace{
				Error:  "execution reverted",
				Output: "0x4e487b710000000000000000000000000000000000000000000000000000000000000011",
			},
			expected: "Arithmetic overflow/underflow",
		},
		{
			name:     "revert reason without output",
			trace:    &domain.CallTrace{RevertReason: "Ownable: caller is not the owner"},
			expected: "Ownable: caller is not the owner",
		},
		{
			name:     "bare error",
			trace:    &domain.CallTrace{Error: "execution reverted", Output: "0x"},
			expected: "Transaction reverted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockForkClient)
			client.On("TraceCall", mock.Anything, tx).Return(tt.trace, nil)

			result, err := newTestTracer().TraceCall(context.Background(), client, tx)

			require.NoError(t, err)
			assert.False(t, result.Success)
			assert.Equal(t, tt.expected, result.RevertReason)
		})
	}
}

func TestTraceCall_FallbackSuccess(t *testing.T) {
	client := new(MockForkClient)
	client.On("TraceCall", mock.Anything, tx).Return(nil, errors.New("method not found"))
	client.On("Call", mock.Anything, tx).Return([]byte{}, nil)

	result, err := newTestTracer().TraceCall(context.Background(), client, tx)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.Traced)
	assert.Nil(t, result.CallTrace)
	assert.Empty(t, result.Logs)
	assert.Empty(t, result.GasUsed)
}

func TestTraceCall_FallbackRevert(t *testing.T) {
	t.Run("revert data is decoded", func(t *testing.T) {
		client := new(MockForkClient)
		client.On("TraceCall", mock.Anything, tx).Return(nil, errors.New("method not found"))
		client.On("Call", mock.Anything, tx).Return(nil, &dataError{
			msg:  "execution reverted",
			data: "0x4e487b710000000000000000000000000000000000000000000000000000000000000012",
		})

		result, err := newTestTracer().TraceCall(context.Background(), client, tx)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "Division by zero", result.RevertReason)
	})

	t.Run("plain error message is kept", func(t *testing.T) {
		client := new(MockForkClient)
		client.On("TraceCall", mock.Anything, tx).Return(nil, errors.New("method not found"))
		client.On("Call", mock.Anything, tx).Return(nil, errors.New("insufficient funds for transfer"))

		result, err := newTestTracer().TraceCall(context.Background(), client, tx)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "insufficient funds for transfer", result.RevertReason)
	})
}

func TestTraceCall_TransportFailure(t *testing.T) {
	client := new(MockForkClient)
	client.On("TraceCall", mock.Anything, tx).Return(nil, errors.New("connection reset by peer"))
	client.On("Call", mock.Anything, tx).Return(nil, errors.New("connection reset by peer"))

	result, err := newTestTracer().TraceCall(context.Background(), client, tx)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "connection reset by peer", result.RevertReason)
	client.AssertExpectations(t)
}

func TestExtractNativeTransfers(t *testing.T) {
	trace := &domain.CallTrace{
		From:  "0xAAAA",
		To:    "0xBBBB",
		Value: "0xa",
		Calls: []domain.CallTrace{
			{From: "0xbbbb", To: "0xcccc", Value: "0x0"},
			{From: "0xbbbb", Value: "0x5"},
			{
				From:  "0xbbbb",
				To:    "0xdddd",
				Value: "0x3",
				Error: "execution reverted",
				Calls: []domain.CallTrace{{From: "0xdddd", To: "0xeeee", Value: "0x1"}},
			},
			{From: "0xbbbb", To: "0xffff", Value: "garbage"},
		},
	}

	transfers := newTestTracer().ExtractNativeTransfers(trace)

	assert.Equal(t, []domain.NativeTransfer{
		{From: "0xaaaa", To: "0xbbbb", Amount: "10"},
		{From: "0xbbbb", To: "0xdddd", Amount: "3"},
		{From: "0xdddd", To: "0xeeee", Amount: "1"},
	}, transfers)

	assert.Empty(t, newTestTracer().ExtractNativeTransfers(nil))
}

func TestFlattenLogs_Nil(t *testing.T) {
	assert.Empty(t, FlattenLogs(nil))
}
