package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/deltasim/internal/adapters"
	"github.com/trebuchet-org/deltasim/internal/app"
	"github.com/trebuchet-org/deltasim/internal/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deltasim",
		Short: "Transaction simulator reporting per-address asset deltas",
		Long: `deltasim simulates EVM transactions against local anvil forks of
configured networks and reports the resulting native and token balance
changes and approvals for every address involved.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsApp(cmd) {
				return nil
			}

			workDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			v := config.SetupViper(workDir, cmd)

			appInstance, err := app.InitApp(v, progressMode(cmd))
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().String("networks-file", "", "TOML or YAML file listing forkable networks")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	serveCmd := NewServeCmd()
	serveCmd.GroupID = "main"
	rootCmd.AddCommand(serveCmd)

	simulateCmd := NewSimulateCmd()
	simulateCmd.GroupID = "main"
	rootCmd.AddCommand(simulateCmd)

	networksCmd := NewNetworksCmd()
	networksCmd.GroupID = "management"
	rootCmd.AddCommand(networksCmd)

	healthCmd := NewHealthCmd()
	healthCmd.GroupID = "management"
	rootCmd.AddCommand(healthCmd)

	refreshCmd := NewRefreshForkCmd()
	refreshCmd.GroupID = "management"
	rootCmd.AddCommand(refreshCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// needsApp reports whether cmd runs against a locally built app. Commands
// that only talk to a running server or print static output skip it.
func needsApp(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion", "health", "refresh-fork":
		return false
	}
	return cmd.Runnable()
}

func progressMode(cmd *cobra.Command) adapters.ProgressMode {
	if cmd.Name() != "simulate" {
		return adapters.ProgressLog
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return adapters.ProgressLog
	}
	return adapters.ProgressSpinner
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
