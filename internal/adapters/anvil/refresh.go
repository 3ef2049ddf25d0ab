package anvil

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/trebuchet-org/deltasim/internal/domain"
	"golang.org/x/sync/errgroup"
)

// flight is one in-progress create or refresh for a network. Every caller
// that finds it in ForkManager.inflight waits for the same outcome.
type flight struct {
	done   chan struct{}
	result *flightResult
	err    error
}

type flightResult struct {
	fork     *Fork
	degraded bool
	warning  string
}

func (fl *flight) wait(ctx context.Context) (*flightResult, error) {
	select {
	case <-fl.done:
		return fl.result, fl.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// startFlightLocked registers and starts a flight for network. Callers must hold m.mu.
func (m *ForkManager) startFlightLocked(network domain.NetworkConfig) *flight {
	fl := &flight{done: make(chan struct{})}
	m.inflight[network.ID] = fl

	m.wg.Add(1)
	go m.runFlight(fl, network)

	return fl
}

func (m *ForkManager) runFlight(fl *flight, network domain.NetworkConfig) {
	defer m.wg.Done()

	result, err := m.replace(network)

	m.mu.Lock()
	delete(m.inflight, network.ID)
	fl.result, fl.err = result, err
	m.mu.Unlock()

	close(fl.done)
}

// replace starts a new fork for network and swaps it in for the current
// one, if any. The current fork keeps serving until the new one is ready.
func (m *ForkManager) replace(network domain.NetworkConfig) (*flightResult, error) {
	m.mu.Lock()
	prev := m.forks[network.ID]
	refreshing := prev != nil && m.transition(prev, eventRefresh)
	m.mu.Unlock()

	if refreshing {
		m.log.Info("Refreshing fork", "network", network.ID, "previous_port", prev.port)
	}

	f, err := m.spawn(m.ctx, network)
	if err != nil {
		m.mu.Lock()
		if refreshing && prev.status == domain.ForkStatusRefreshing && !m.closed {
			m.transition(prev, eventRestore)
			handle := prev.handle
			m.mu.Unlock()

			m.log.Warn("Fork refresh degraded, keeping existing fork", "network", network.ID, "port", prev.port, "error", err)
			m.metrics.ForkRefreshed(network.ID, "degraded")
			return &flightResult{fork: handle, degraded: true, warning: err.Error()}, nil
		}

		m.forks[network.ID] = f
		m.mu.Unlock()

		if prev != nil {
			m.retire(prev)
		}
		if refreshing {
			m.metrics.ForkRefreshed(network.ID, "failed")
		}
		return nil, err
	}

	m.mu.Lock()
	m.forks[network.ID] = f
	m.metrics.SetForksRunning(m.countServingLocked())
	closed := m.closed
	handle := f.handle
	m.mu.Unlock()

	if prev != nil {
		m.retire(prev)
	}
	if refreshing {
		m.metrics.ForkRefreshed(network.ID, "ok")
		m.log.Info("Fork refreshed", "network", network.ID, "port", f.port, "previous_port", prev.port, "block", handle.BlockNumber)
	}

	if closed {
		f.requestStop()
		return nil, domain.ErrShutdown
	}
	return &flightResult{fork: handle}, nil
}

// Shutdown stops periodic refresh and every fork process. Processes that
// ignore SIGTERM are killed after the terminate grace period; Shutdown
// returns an error if some are still alive after the shutdown timeout.
func (m *ForkManager) Shutdown() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	flights := lo.Values(m.inflight)
	m.mu.Unlock()

	m.log.Info("Shutting down forks")
	m.cancel()
	m.StopPeriodicRefresh()

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ShutdownTimeout)
	defer cancel()

	for _, fl := range flights {
		_, _ = fl.wait(ctx)
	}

	m.mu.Lock()
	forks := lo.Values(m.forks)
	m.mu.Unlock()

	var g errgroup.Group
	for _, f := range forks {
		f.requestStop()
		g.Go(func() error {
			return m.awaitExit(ctx, f)
		})
	}

	g.Go(func() error {
		return waitGroupContext(ctx, &m.wg)
	})

	if err := g.Wait(); err != nil {
		m.log.Error("Fork shutdown incomplete", "error", err)
		return err
	}
	m.log.Info("All forks stopped")
	return nil
}

func (m *ForkManager) awaitExit(ctx context.Context, f *managedFork) error {
	m.mu.Lock()
	handle := f.handle
	m.mu.Unlock()

	defer func() {
		if handle != nil {
			handle.Client.Close()
		}
	}()

	select {
	case <-f.exited:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("fork %s on port %d did not exit: %w", f.networkID, f.port, ctx.Err())
	}
}

func waitGroupContext(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background fork tasks did not finish: %w", ctx.Err())
	}
}
