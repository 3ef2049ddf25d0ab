package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/deltasim/internal/cli/render"
	"github.com/trebuchet-org/deltasim/internal/domain/config"
	"github.com/trebuchet-org/deltasim/internal/logging"
)

// NewHealthCmd creates the health command
func NewHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show the fork status of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFromFlags(cmd)
			if err != nil {
				return err
			}

			report, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}
			return render.NewHealthRenderer(cmd.OutOrStdout()).Render(report)
		},
	}

	cmd.Flags().String("server", defaultServerURL, "Base URL of the deltasim server")
	return cmd
}

// NewRefreshForkCmd creates the refresh-fork command
func NewRefreshForkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh-fork <network>",
		Short: "Replace a network's fork on a running server",
		Long: `Ask a running server to start a fresh fork of the network at the
upstream head. The old fork keeps serving until the new one is ready; if
the new one fails the old one is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFromFlags(cmd)
			if err != nil {
				return err
			}

			result, err := client.RefreshFork(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("refresh failed: %s", result.Message)
			}

			fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess(result.Message))
			return nil
		},
	}

	cmd.Flags().String("server", defaultServerURL, "Base URL of the deltasim server")
	return cmd
}

func clientFromFlags(cmd *cobra.Command) (*serverClient, error) {
	server, err := cmd.Flags().GetString("server")
	if err != nil {
		return nil, err
	}
	return newServerClient(server, clientLogger(cmd)), nil
}

// clientLogger builds a logger from the global log flags for commands that run without an app
func clientLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return logging.NewLogger(&config.RuntimeConfig{LogLevel: level, LogFormat: format})
}
