package app

import (
	"log/slog"

	"github.com/trebuchet-org/deltasim/internal/adapters/anvil"
	"github.com/trebuchet-org/deltasim/internal/adapters/metrics"
	"github.com/trebuchet-org/deltasim/internal/api"
	"github.com/trebuchet-org/deltasim/internal/domain/config"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Use cases
	Simulator    *usecase.Simulator
	ForkHealth   *usecase.ForkHealth
	ListNetworks *usecase.ListNetworks
	RefreshFork  *usecase.RefreshFork

	// Adapters with a lifecycle owned by the commands
	Forks   *anvil.ForkManager
	Metrics *metrics.Recorder
	Server  *api.Server
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	simulator *usecase.Simulator,
	forkHealth *usecase.ForkHealth,
	listNetworks *usecase.ListNetworks,
	refreshFork *usecase.RefreshFork,
	forks *anvil.ForkManager,
	recorder *metrics.Recorder,
	server *api.Server,
) (*App, error) {
	return &App{
		Config:       cfg,
		Log:          log,
		Simulator:    simulator,
		ForkHealth:   forkHealth,
		ListNetworks: listNetworks,
		RefreshFork:  refreshFork,
		Forks:        forks,
		Metrics:      recorder,
		Server:       server,
	}, nil
}

// ProvideHandlers collects the use cases served over HTTP
func ProvideHandlers(
	simulator *usecase.Simulator,
	forkHealth *usecase.ForkHealth,
	listNetworks *usecase.ListNetworks,
	refreshFork *usecase.RefreshFork,
	recorder *metrics.Recorder,
) api.Handlers {
	return api.Handlers{
		Simulator:    simulator,
		ForkHealth:   forkHealth,
		ListNetworks: listNetworks,
		RefreshFork:  refreshFork,
		Metrics:      recorder.Handler(),
	}
}
