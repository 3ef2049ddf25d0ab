package anvil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/trebuchet-org/deltasim/internal/domain"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

type forkEvent string

const (
	eventSpawn   forkEvent = "spawn"
	eventReady   forkEvent = "ready"
	eventRefresh forkEvent = "refresh"
	eventRestore forkEvent = "restore"
	eventFail    forkEvent = "fail"
	eventExit    forkEvent = "exit"
)

// transitions is the fork lifecycle. Events missing for a status are ignored.
// error is terminal: a new fork is created to restart the cycle.
var transitions = map[domain.ForkStatus]map[forkEvent]domain.ForkStatus{
	domain.ForkStatusIdle: {
		eventSpawn: domain.ForkStatusStarting,
		eventFail:  domain.ForkStatusError,
	},
	domain.ForkStatusStarting: {
		eventReady: domain.ForkStatusRunning,
		eventFail:  domain.ForkStatusError,
		eventExit:  domain.ForkStatusIdle,
	},
	domain.ForkStatusRunning: {
		eventRefresh: domain.ForkStatusRefreshing,
		eventFail:    domain.ForkStatusError,
		eventExit:    domain.ForkStatusIdle,
	},
	domain.ForkStatusRefreshing: {
		eventRestore: domain.ForkStatusRunning,
		eventFail:    domain.ForkStatusError,
		eventExit:    domain.ForkStatusIdle,
	},
	domain.ForkStatusError: {},
}

func nextStatus(current domain.ForkStatus, event forkEvent) (domain.ForkStatus, bool) {
	next, ok := transitions[current][event]
	return next, ok
}

// Fork is a ready fork handed out to callers. It is immutable.
type Fork struct {
	NetworkID   string
	Port        int
	URL         string
	BlockNumber uint64
	Client      usecase.ForkClient
}

// managedFork is one supervised fork process. Mutable fields are guarded
// by ForkManager.mu; exited is closed by the supervisor once the process
// has exited, after exitErr is set.
type managedFork struct {
	networkID    string
	port         int
	status       domain.ForkStatus
	blockNumber  uint64
	lastActivity time.Time
	errMessage   string
	handle       *Fork

	stop     chan struct{}
	stopOnce sync.Once
	exited   chan struct{}
	exitErr  error
}

func newManagedFork(networkID string, port int) *managedFork {
	return &managedFork{
		networkID: networkID,
		port:      port,
		status:    domain.ForkStatusIdle,
		stop:      make(chan struct{}),
		exited:    make(chan struct{}),
	}
}

func (f *managedFork) state() domain.ForkState {
	s := domain.ForkState{
		NetworkID:   f.networkID,
		Status:      f.status,
		Port:        f.port,
		BlockNumber: f.blockNumber,
		Error:       f.errMessage,
	}
	if !f.lastActivity.IsZero() {
		t := f.lastActivity
		s.LastActivity = &t
	}
	return s
}

// requestStop asks the supervisor to terminate the process
func (f *managedFork) requestStop() {
	f.stopOnce.Do(func() { close(f.stop) })
}

func (f *managedFork) hasExited() bool {
	select {
	case <-f.exited:
		return true
	default:
		return false
	}
}

// transition applies event to f. Callers must hold m.mu.
func (m *ForkManager) transition(f *managedFork, event forkEvent) bool {
	next, ok := nextStatus(f.status, event)
	if !ok {
		m.log.Debug("Ignoring fork event", "network", f.networkID, "port", f.port, "status", f.status, "event", event)
		return false
	}
	m.log.Debug("Fork transition", "network", f.networkID, "port", f.port, "from", f.status, "to", next)
	f.status = next
	m.metrics.SetForksRunning(m.countServingLocked())
	return true
}

func (m *ForkManager) countServingLocked() int {
	n := 0
	for _, f := range m.forks {
		if f.status.IsServing() {
			n++
		}
	}
	return n
}

// spawn launches a new fork for network and waits until it answers
// eth_blockNumber. The returned fork is always non-nil; on error it is in
// the error status and its process has been asked to stop.
func (m *ForkManager) spawn(ctx context.Context, network domain.NetworkConfig) (*managedFork, error) {
	m.mu.Lock()
	f := newManagedFork(network.ID, m.allocatePortLocked())
	m.transition(f, eventSpawn)
	m.mu.Unlock()

	m.log.Info("Starting fork", "network", network.ID, "port", f.port)

	proc, err := m.launcher.Launch(LaunchSpec{
		NetworkID: network.ID,
		ForkURL:   network.RPCURL,
		Host:      m.cfg.BindHost,
		Port:      f.port,
	})
	if err != nil {
		close(f.exited)
		perr := &domain.ProcessError{NetworkID: network.ID, Port: f.port, Err: err}
		m.failFork(f, perr)
		return f, perr
	}
	go m.supervise(f, proc)

	client, block, err := m.awaitReady(ctx, f)
	if err != nil {
		m.failFork(f, err)
		f.requestStop()
		return f, err
	}

	m.mu.Lock()
	ready := m.transition(f, eventReady)
	if ready {
		f.blockNumber = block
		f.lastActivity = time.Now()
		f.handle = &Fork{
			NetworkID:   network.ID,
			Port:        f.port,
			URL:         m.forkURL(f.port),
			BlockNumber: block,
			Client:      client,
		}
	}
	m.mu.Unlock()

	if !ready {
		client.Close()
		perr := &domain.ProcessError{NetworkID: network.ID, Port: f.port, Err: errors.New("process exited during startup")}
		m.failFork(f, perr)
		return f, perr
	}

	m.metrics.ForkSpawned(network.ID, true)
	m.log.Info("Fork ready", "network", network.ID, "port", f.port, "block", block)
	return f, nil
}

func (m *ForkManager) failFork(f *managedFork, err error) {
	m.mu.Lock()
	m.transition(f, eventFail)
	f.errMessage = err.Error()
	m.mu.Unlock()

	m.metrics.ForkSpawned(f.networkID, false)
	m.log.Error("Fork failed to start", "network", f.networkID, "port", f.port, "error", err)
}

// awaitReady polls eth_blockNumber until it succeeds or the startup timeout elapses
func (m *ForkManager) awaitReady(ctx context.Context, f *managedFork) (usecase.ForkClient, uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.StartupTimeout)
	defer cancel()

	client, err := m.dial(ctx, m.forkURL(f.port))
	if err != nil {
		return nil, 0, &domain.ProcessError{NetworkID: f.networkID, Port: f.port, Err: err}
	}

	var block uint64
	probe := func() error {
		if f.hasExited() {
			return backoff.Permanent(&domain.ProcessError{
				NetworkID: f.networkID,
				Port:      f.port,
				Err:       fmt.Errorf("process exited during startup: %v", f.exitErr),
			})
		}
		n, err := client.BlockNumber(ctx)
		if err != nil {
			return err
		}
		block = n
		return nil
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(m.cfg.PollInterval), ctx)
	if err := backoff.Retry(probe, policy); err != nil {
		client.Close()

		var perr *domain.ProcessError
		if errors.As(err, &perr) {
			return nil, 0, perr
		}
		if m.ctx.Err() != nil {
			return nil, 0, &domain.ProcessError{NetworkID: f.networkID, Port: f.port, Err: domain.ErrShutdown}
		}
		return nil, 0, &domain.StartupTimeoutError{NetworkID: f.networkID, Port: f.port, Timeout: m.cfg.StartupTimeout}
	}

	return client, block, nil
}

// supervise exclusively owns proc. It escalates a stop request from
// SIGTERM to SIGKILL after the grace window and records the exit.
func (m *ForkManager) supervise(f *managedFork, proc Process) {
	waitErr := make(chan error, 1)
	go func() {
		waitErr <- proc.Wait()
	}()

	stop := f.stop
	var kill <-chan time.Time
	for {
		select {
		case err := <-waitErr:
			f.exitErr = err
			close(f.exited)

			m.mu.Lock()
			m.transition(f, eventExit)
			m.mu.Unlock()

			m.log.Info("Fork process exited", "network", f.networkID, "port", f.port, "pid", proc.Pid(), "error", err)
			return

		case <-stop:
			stop = nil
			if err := proc.Signal(syscall.SIGTERM); err != nil {
				m.log.Debug("Failed to signal fork process", "network", f.networkID, "pid", proc.Pid(), "error", err)
			}
			kill = time.After(m.cfg.TerminateGrace)

		case <-kill:
			kill = nil
			m.log.Warn("Fork did not exit after SIGTERM, killing", "network", f.networkID, "port", f.port, "pid", proc.Pid())
			if err := proc.Kill(); err != nil {
				m.log.Debug("Failed to kill fork process", "network", f.networkID, "pid", proc.Pid(), "error", err)
			}
		}
	}
}

// retire stops a replaced fork and closes its client once it has exited
func (m *ForkManager) retire(f *managedFork) {
	f.requestStop()

	m.mu.Lock()
	var client usecase.ForkClient
	if f.handle != nil {
		client = f.handle.Client
	}
	m.mu.Unlock()

	if client == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		select {
		case <-f.exited:
		case <-time.After(m.cfg.TerminateGrace + m.cfg.ShutdownTimeout):
		}
		client.Close()
	}()
}

func (m *ForkManager) allocatePortLocked() int {
	port := m.nextPort
	m.nextPort++
	return port
}

func (m *ForkManager) forkURL(port int) string {
	return fmt.Sprintf("http://%s:%d", m.cfg.BindHost, port)
}
