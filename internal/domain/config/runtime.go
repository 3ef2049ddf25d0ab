package config

import (
	"time"

	"github.com/trebuchet-org/deltasim/internal/domain"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and adapters and contains all resolved settings
type RuntimeConfig struct {
	// HTTP server settings
	Host string
	Port int

	// Logging settings
	LogLevel  string
	LogFormat string // "text" or "json"

	Fork ForkConfig

	// Networks is the immutable list of forkable networks
	Networks []domain.NetworkConfig
	// NetworksSource is the file the networks were loaded from, empty for defaults
	NetworksSource string
}

// ForkConfig holds fork process supervision settings
type ForkConfig struct {
	AnvilPath       string
	BindHost        string
	BasePort        int
	LogDir          string
	StartupTimeout  time.Duration
	PollInterval    time.Duration
	RefreshInterval time.Duration
	TerminateGrace  time.Duration
	ShutdownTimeout time.Duration
}
