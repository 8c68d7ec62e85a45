package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mcoot/placeledger/internal/ledger"
	"github.com/mcoot/placeledger/internal/services/mutation"
	"github.com/mcoot/placeledger/internal/services/session"
)

var (
	cfg     *Config
	client  *ledger.Client
	current *session.Session
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "placectl",
		Short: "Operator tool for place balances on the device ledger",
		Long: `placectl reads devices from the balance ledger and deposits to or withdraws
from a single place on a device.

Amounts are validated before anything is sent: they must be positive, use '.' or ','
as the decimal separator and have at most two decimal places. A withdrawal larger
than the place's balance is refused without contacting the ledger.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			client = ledger.NewClient(cfg.LedgerConfig(), logger)
			current = session.New(client, mutation.New(client, logger), logger)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.LedgerURL, "ledger", cfg.LedgerURL, "Ledger base URL (env: "+envLedgerURL+")")
	rootCmd.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Ledger request timeout (env: "+envTimeout+")")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json (env: "+envOutput+")")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Log ledger requests to stderr")

	// Add subcommands
	rootCmd.AddCommand(newDevicesCmd())
	rootCmd.AddCommand(newPlaceCmd())
	rootCmd.AddCommand(newAmountCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		NewOutput(cfg.Output, rootCmd.OutOrStdout(), rootCmd.ErrOrStderr()).PrintError(err)
		stop()
		os.Exit(1)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
