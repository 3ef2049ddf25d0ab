package config

import (
	"github.com/trebuchet-org/deltasim/internal/domain"
	"github.com/trebuchet-org/deltasim/internal/domain/config"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

// NetworkRegistry serves the immutable network list loaded at startup
type NetworkRegistry struct {
	networks []domain.NetworkConfig
	byID     map[string]domain.NetworkConfig
}

// NewNetworkRegistry creates a registry over cfg.Networks
func NewNetworkRegistry(cfg *config.RuntimeConfig) *NetworkRegistry {
	r := &NetworkRegistry{
		networks: make([]domain.NetworkConfig, len(cfg.Networks)),
		byID:     make(map[string]domain.NetworkConfig, len(cfg.Networks)),
	}
	copy(r.networks, cfg.Networks)
	for _, n := range r.networks {
		r.byID[n.ID] = n
	}
	return r
}

// Networks returns every configured network in configuration order
func (r *NetworkRegistry) Networks() []domain.NetworkConfig {
	out := make([]domain.NetworkConfig, len(r.networks))
	copy(out, r.networks)
	return out
}

// Network resolves a network id
func (r *NetworkRegistry) Network(id string) (domain.NetworkConfig, error) {
	n, ok := r.byID[id]
	if !ok {
		return domain.NetworkConfig{}, &domain.ConfigurationError{NetworkID: id, Err: domain.ErrUnknownNetwork}
	}
	return n, nil
}

var _ usecase.NetworkRegistry = (*NetworkRegistry)(nil)
