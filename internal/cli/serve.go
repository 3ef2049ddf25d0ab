package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/deltasim/internal/config"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation HTTP server",
		Long: `Start the HTTP API. Forks are started lazily on the first simulation
for a network and refreshed periodically so they track the upstream head.

Stop with Ctrl-C: in-flight requests are drained and every fork process is
terminated before exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app.Log.Info("Starting deltasim",
				"version", config.Version,
				"addr", app.Server.Addr(),
				"networks", len(app.Config.Networks),
				"networks_source", app.Config.NetworksSource,
			)

			app.Forks.StartPeriodicRefresh(app.Config.Fork.RefreshInterval)

			serveErr := app.Server.ListenAndServe(ctx)
			stop()

			if err := app.Forks.Shutdown(); err != nil {
				if serveErr == nil {
					serveErr = fmt.Errorf("failed to stop forks: %w", err)
				}
			}
			return serveErr
		},
	}

	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().Int("port", 9000, "HTTP listen port")
	addForkFlags(cmd)
	cmd.Flags().Duration("refresh-interval", 60*time.Second, "Interval between fork refreshes (0 disables)")

	return cmd
}

// addForkFlags adds the flags controlling fork processes
func addForkFlags(cmd *cobra.Command) {
	cmd.Flags().String("anvil-path", "anvil", "Path to the anvil binary")
	cmd.Flags().Int("base-port", 9545, "First local port assigned to forks")
	cmd.Flags().Duration("startup-timeout", 30*time.Second, "Maximum time to wait for a fork to become ready")
	cmd.Flags().String("fork-log-dir", "", "Directory for fork process logs (discarded when empty)")
}
