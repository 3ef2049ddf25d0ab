package anvil

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/trebuchet-org/deltasim/internal/domain"
	"github.com/trebuchet-org/deltasim/internal/domain/config"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

const (
	defaultBasePort        = 9545
	defaultBindHost        = "127.0.0.1"
	defaultStartupTimeout  = 30 * time.Second
	defaultPollInterval    = 100 * time.Millisecond
	defaultTerminateGrace  = 3 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// ClientDialer connects to a fork's RPC endpoint
type ClientDialer func(ctx context.Context, url string) (usecase.ForkClient, error)

// ForkManager supervises one anvil fork per network. Creation and refresh
// are single-flight per network: concurrent callers share one outcome.
type ForkManager struct {
	cfg      config.ForkConfig
	networks usecase.NetworkRegistry
	launcher Launcher
	dial     ClientDialer
	metrics  usecase.MetricsRecorder
	log      *slog.Logger

	// ctx is canceled on shutdown and bounds every spawn
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	forks    map[string]*managedFork
	inflight map[string]*flight
	nextPort int
	closed   bool

	refreshStop chan struct{}
	refreshDone chan struct{}

	wg sync.WaitGroup
}

// NewForkManager creates a new fork manager
func NewForkManager(
	cfg *config.RuntimeConfig,
	networks usecase.NetworkRegistry,
	launcher Launcher,
	dial ClientDialer,
	metrics usecase.MetricsRecorder,
	log *slog.Logger,
) *ForkManager {
	forkCfg := withDefaults(cfg.Fork)
	ctx, cancel := context.WithCancel(context.Background())

	return &ForkManager{
		cfg:      forkCfg,
		networks: networks,
		launcher: launcher,
		dial:     dial,
		metrics:  metrics,
		log:      log.With("component", "ForkManager"),
		ctx:      ctx,
		cancel:   cancel,
		forks:    make(map[string]*managedFork),
		inflight: make(map[string]*flight),
		nextPort: forkCfg.BasePort,
	}
}

func withDefaults(cfg config.ForkConfig) config.ForkConfig {
	if cfg.BasePort == 0 {
		cfg.BasePort = defaultBasePort
	}
	if cfg.BindHost == "" {
		cfg.BindHost = defaultBindHost
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = defaultStartupTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.TerminateGrace <= 0 {
		cfg.TerminateGrace = defaultTerminateGrace
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	return cfg
}

// GetOrCreateFork returns the running fork for networkID, starting one if
// needed. If a refresh is in flight the caller waits for its outcome.
func (m *ForkManager) GetOrCreateFork(ctx context.Context, networkID string) (*Fork, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, domain.ErrShutdown
	}

	if fl, ok := m.inflight[networkID]; ok {
		m.mu.Unlock()
		res, err := fl.wait(ctx)
		if err != nil {
			return nil, err
		}
		return res.fork, nil
	}

	if f, ok := m.forks[networkID]; ok && f.status == domain.ForkStatusRunning {
		f.lastActivity = time.Now()
		handle := f.handle
		m.mu.Unlock()
		return handle, nil
	}

	network, err := m.resolveNetwork(networkID)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	fl := m.startFlightLocked(network)
	m.mu.Unlock()

	res, err := fl.wait(ctx)
	if err != nil {
		return nil, err
	}
	return res.fork, nil
}

// ClientFor returns the RPC client of the ready fork for networkID
func (m *ForkManager) ClientFor(ctx context.Context, networkID string) (usecase.ForkClient, error) {
	fork, err := m.GetOrCreateFork(ctx, networkID)
	if err != nil {
		return nil, err
	}
	return fork.Client, nil
}

// RefreshFork replaces the fork for networkID with a freshly started one.
// The new fork is health-checked before the old one is stopped. If the new
// fork fails while the old one is still serving, the old one is kept and
// the outcome is marked degraded.
func (m *ForkManager) RefreshFork(ctx context.Context, networkID string) (*usecase.RefreshOutcome, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, domain.ErrShutdown
	}

	fl, ok := m.inflight[networkID]
	if !ok {
		network, err := m.resolveNetwork(networkID)
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
		fl = m.startFlightLocked(network)
	}
	m.mu.Unlock()

	res, err := fl.wait(ctx)
	if err != nil {
		return nil, err
	}
	return &usecase.RefreshOutcome{
		NetworkID:   networkID,
		Port:        res.fork.Port,
		BlockNumber: res.fork.BlockNumber,
		Degraded:    res.degraded,
		Warning:     res.warning,
	}, nil
}

// resolveNetwork validates networkID before anything is spawned. Callers must hold m.mu.
func (m *ForkManager) resolveNetwork(networkID string) (domain.NetworkConfig, error) {
	network, err := m.networks.Network(networkID)
	if err != nil {
		return domain.NetworkConfig{}, err
	}
	if !network.HasUpstream() {
		return domain.NetworkConfig{}, &domain.ConfigurationError{NetworkID: networkID, Err: domain.ErrMissingUpstream}
	}
	return network, nil
}

// GetForkStatus returns a snapshot of one network's fork
func (m *ForkManager) GetForkStatus(networkID string) domain.ForkState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forkStatusLocked(networkID)
}

// GetAllForkStatuses returns snapshots of every tracked fork, sorted by network id
func (m *ForkManager) GetAllForkStatuses() []domain.ForkState {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := lo.Uniq(append(lo.Keys(m.forks), lo.Keys(m.inflight)...))
	slices.Sort(ids)

	return lo.Map(ids, func(id string, _ int) domain.ForkState {
		return m.forkStatusLocked(id)
	})
}

func (m *ForkManager) forkStatusLocked(networkID string) domain.ForkState {
	if f, ok := m.forks[networkID]; ok {
		return f.state()
	}
	if _, ok := m.inflight[networkID]; ok {
		return domain.ForkState{NetworkID: networkID, Status: domain.ForkStatusStarting}
	}
	return domain.ForkState{NetworkID: networkID, Status: domain.ForkStatusIdle}
}

// StartPeriodicRefresh refreshes every tracked network each interval, one
// network at a time. A zero or negative interval disables it.
func (m *ForkManager) StartPeriodicRefresh(interval time.Duration) {
	if interval <= 0 {
		m.log.Info("Periodic fork refresh disabled")
		return
	}

	m.mu.Lock()
	if m.closed || m.refreshStop != nil {
		m.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	m.refreshStop, m.refreshDone = stop, done
	m.mu.Unlock()

	m.log.Info("Starting periodic fork refresh", "interval", interval)

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.refreshAll(stop)
			}
		}
	}()
}

// StopPeriodicRefresh stops the refresh timer and waits for a running pass to end
func (m *ForkManager) StopPeriodicRefresh() {
	m.mu.Lock()
	stop, done := m.refreshStop, m.refreshDone
	m.refreshStop, m.refreshDone = nil, nil
	m.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (m *ForkManager) refreshAll(stop <-chan struct{}) {
	m.mu.Lock()
	ids := lo.Keys(m.forks)
	m.mu.Unlock()
	slices.Sort(ids)

	for _, id := range ids {
		select {
		case <-stop:
			return
		default:
		}

		outcome, err := m.RefreshFork(m.ctx, id)
		if err != nil {
			m.log.Warn("Periodic fork refresh failed", "network", id, "error", err)
			continue
		}
		if outcome.Degraded {
			m.log.Warn("Periodic fork refresh kept existing fork", "network", id, "warning", outcome.Warning)
		}
	}
}
