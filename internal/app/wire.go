//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/deltasim/internal/adapters"
	"github.com/trebuchet-org/deltasim/internal/api"
	"github.com/trebuchet-org/deltasim/internal/config"
	"github.com/trebuchet-org/deltasim/internal/logging"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, mode adapters.ProgressMode) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewSimulator,
		usecase.NewForkHealth,
		usecase.NewListNetworks,
		usecase.NewRefreshFork,

		// HTTP
		ProvideHandlers,
		api.NewServer,

		// App
		NewApp,
	)
	return nil, nil
}
