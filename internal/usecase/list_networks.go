package usecase

import (
	"context"

	"github.com/trebuchet-org/deltasim/internal/domain"
)

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Networks []NetworkStatus
}

// NetworkStatus is a configured network plus the state of its fork
type NetworkStatus struct {
	Network     domain.NetworkConfig
	HasUpstream bool
	Fork        *domain.ForkState
}

// ListNetworks is a use case for listing available networks
type ListNetworks struct {
	networks NetworkRegistry
	forks    ForkController
}

// NewListNetworks creates a new ListNetworks use case. forks may be nil
// when no fork manager is running.
func NewListNetworks(networks NetworkRegistry, forks ForkController) *ListNetworks {
	return &ListNetworks{
		networks: networks,
		forks:    forks,
	}
}

// Run executes the use case
func (uc *ListNetworks) Run(ctx context.Context) (*ListNetworksResult, error) {
	states := map[string]domain.ForkState{}
	if uc.forks != nil {
		for _, s := range uc.forks.GetAllForkStatuses() {
			states[s.NetworkID] = s
		}
	}

	configured := uc.networks.Networks()
	networks := make([]NetworkStatus, 0, len(configured))
	for _, n := range configured {
		status := NetworkStatus{
			Network:     n,
			HasUpstream: n.HasUpstream(),
		}
		if s, ok := states[n.ID]; ok {
			status.Fork = &s
		}
		networks = append(networks, status)
	}

	return &ListNetworksResult{
		Networks: networks,
	}, nil
}
