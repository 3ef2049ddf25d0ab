package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/deltasim/internal/cli/render"
	"github.com/trebuchet-org/deltasim/internal/domain"
)

// NewSimulateCmd creates the simulate command
func NewSimulateCmd() *cobra.Command {
	var (
		networkID string
		tx        domain.TransactionParams
		asJSON    bool
		full      bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate one transaction against a local fork",
		Long: `Start a fork of the given network, simulate the transaction and print
the resulting balance changes and approvals. The fork is stopped afterwards.

Numeric values are 0x-prefixed hex quantities.`,
		Example: `  deltasim simulate -n sepolia --from 0xabc... --to 0xdef... --value 0xde0b6b3a7640000
  deltasim simulate -n localhost --from 0xabc... --to 0xtoken... --data 0xa9059cbb... --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			req := domain.SimulateRequest{NetworkID: networkID, Tx: tx}
			if err := req.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer func() {
				if err := app.Forks.Shutdown(); err != nil {
					app.Log.Warn("Fork shutdown incomplete", "error", err)
				}
			}()

			out := app.Simulator.Run(ctx, req)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(out.Response); err != nil {
					return fmt.Errorf("failed to encode response: %w", err)
				}
			} else if out.Failure == nil {
				if err := render.NewSimulationRenderer(cmd.OutOrStdout(), networkID, full).Render(out.Response); err != nil {
					return err
				}
			}

			if out.Failure != nil {
				return fmt.Errorf("simulation failed: %w", out.Failure)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&networkID, "network", "n", "", "Network to fork (e.g. sepolia)")
	cmd.Flags().StringVar(&tx.From, "from", "", "Sender address")
	cmd.Flags().StringVar(&tx.To, "to", "", "Recipient address (empty for contract creation)")
	cmd.Flags().StringVar(&tx.Data, "data", "", "Calldata as 0x-prefixed hex")
	cmd.Flags().StringVar(&tx.Value, "value", "", "Value in wei as a hex quantity")
	cmd.Flags().StringVar(&tx.Gas, "gas", "", "Gas limit as a hex quantity")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw response document")
	cmd.Flags().BoolVar(&full, "full", false, "Print full addresses")
	addForkFlags(cmd)

	_ = cmd.MarkFlagRequired("network")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}
