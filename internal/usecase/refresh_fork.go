package usecase

import (
	"context"
	"fmt"
	"log/slog"
)

// RefreshForkResult is the operator-facing outcome of a forced refresh
type RefreshForkResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RefreshFork replaces one network's fork with a fresh one
type RefreshFork struct {
	forks    ForkController
	networks NetworkRegistry
	log      *slog.Logger
}

// NewRefreshFork creates a new RefreshFork use case
func NewRefreshFork(forks ForkController, networks NetworkRegistry, log *slog.Logger) *RefreshFork {
	return &RefreshFork{
		forks:    forks,
		networks: networks,
		log:      log.With("component", "RefreshFork"),
	}
}

// Run refreshes the fork for networkID. An error means the network has no
// fork afterwards or does not exist; a refresh that kept the previous fork
// succeeds with a warning in the message.
func (uc *RefreshFork) Run(ctx context.Context, networkID string) (*RefreshForkResult, error) {
	if _, err := uc.networks.Network(networkID); err != nil {
		return nil, err
	}

	uc.log.Info("Refresh requested", "network", networkID)

	outcome, err := uc.forks.RefreshFork(ctx, networkID)
	if err != nil {
		return nil, err
	}

	if outcome.Degraded {
		return &RefreshForkResult{
			Success: true,
			Message: fmt.Sprintf("Fork refresh failed, still serving previous fork on port %d: %s", outcome.Port, outcome.Warning),
		}, nil
	}

	return &RefreshForkResult{
		Success: true,
		Message: fmt.Sprintf("Fork refreshed on port %d at block %d", outcome.Port, outcome.BlockNumber),
	}, nil
}
