package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/trebuchet-org/deltasim/internal/domain"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockForkProvider is a mock implementation of ForkProvider
type MockForkProvider struct {
	mock.Mock
}

func (m *MockForkProvider) ClientFor(ctx context.Context, networkID string) (usecase.ForkClient, error) {
	args := m.Called(ctx, networkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(usecase.ForkClient), args.Error(1)
}

// MockForkClient is a mock implementation of ForkClient
type MockForkClient struct {
	mock.Mock
}

func (m *MockForkClient) TraceCall(ctx context.Context, tx domain.TransactionParams) (*domain.CallTrace, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CallTrace), args.Error(1)
}

func (m *MockForkClient) Call(ctx context.Context, tx domain.TransactionParams) ([]byte, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockForkClient) BlockNumber(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockForkClient) Close() {}

// MockCallTracer is a mock implementation of CallTracer
type MockCallTracer struct {
	mock.Mock
}

func (m *MockCallTracer) TraceCall(ctx context.Context, client usecase.ForkClient, tx domain.TransactionParams) (*domain.TraceResult, error) {
	args := m.Called(ctx, client, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TraceResult), args.Error(1)
}

func (m *MockCallTracer) ExtractNativeTransfers(trace *domain.CallTrace) []domain.NativeTransfer {
	args := m.Called(trace)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.NativeTransfer)
}

// MockLogDecoder is a mock implementation of LogDecoder
type MockLogDecoder struct {
	mock.Mock
}

func (m *MockLogDecoder) Parse(logs []domain.TraceLog) *domain.ParsedLogs {
	args := m.Called(logs)
	return args.Get(0).(*domain.ParsedLogs)
}

// MockForkController is a mock implementation of ForkController
type MockForkController struct {
	mock.Mock
}

func (m *MockForkController) RefreshFork(ctx context.Context, networkID string) (*usecase.RefreshOutcome, error) {
	args := m.Called(ctx, networkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.RefreshOutcome), args.Error(1)
}

func (m *MockForkController) GetAllForkStatuses() []domain.ForkState {
	args := m.Called()
	return args.Get(0).([]domain.ForkState)
}

// staticRegistry serves a fixed network list
type staticRegistry []domain.NetworkConfig

func (r staticRegistry) Networks() []domain.NetworkConfig { return r }

func (r staticRegistry) Network(id string) (domain.NetworkConfig, error) {
	for _, n := range r {
		if n.ID == id {
			return n, nil
		}
	}
	return domain.NetworkConfig{}, &domain.ConfigurationError{NetworkID: id, Err: domain.ErrUnknownNetwork}
}

// nopCalldata never recognizes calldata
type nopCalldata struct{}

func (nopCalldata) DecodeCalldata(string) *domain.DecodedInput { return nil }

// MockProgressSink records progress events
type MockProgressSink struct {
	events []usecase.ProgressEvent
}

func (m *MockProgressSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	m.events = append(m.events, event)
}

func (m *MockProgressSink) Info(message string)  {}
func (m *MockProgressSink) Error(message string) {}

func (m *MockProgressSink) stages() []string {
	stages := make([]string, 0, len(m.events))
	for _, e := range m.events {
		stages = append(stages, e.Stage)
	}
	return stages
}

// recordingMetrics counts simulation outcomes
type recordingMetrics struct {
	usecase.NopMetrics
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingMetrics) ObserveSimulation(networkID, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, networkID+":"+outcome)
}
