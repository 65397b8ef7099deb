package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/Mohsinsiddi/w3pilot/internal/config"
	"github.com/Mohsinsiddi/w3pilot/internal/logging"
	"github.com/Mohsinsiddi/w3pilot/internal/telemetry"
	"github.com/Mohsinsiddi/w3pilot/internal/ui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3pilot/cmd.Version=1.2.3" .
var Version = "0.3.0"

var (
	cfgDir  string
	cfg     *config.Config
	log     *logrus.Logger
	verbose bool

	stopTracing telemetry.Shutdown
)

var rootCmd = &cobra.Command{
	Use:   "w3pilot",
	Short: "Multichain transactions with policy-driven gas",
	Long: `w3pilot sends transactions on EVM networks through a wallet.

  It moves the wallet to the right network (adding it when the wallet does
  not know it), checks the balance, picks gas from a live quote or the
  per-chain policy table, and follows the transaction to its receipt.

The wallet is either the built-in keychain signer or an external endpoint
set with: w3pilot config set-provider <url>`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config in %s: %w", cfg.Dir(), err)
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		log, err = logging.New(level, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		stopTracing, err = telemetry.InitTracer(cmd.Context(), cfg.OTLPEndpoint)
		if err != nil {
			log.WithError(err).Warn("Tracing disabled")
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if stopTracing == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), config.RPCSelectTimeout)
		defer cancel()
		if err := stopTracing(ctx); err != nil {
			log.WithError(err).Debug("Flushing traces failed")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(cmd.OutOrStdout(), ui.Banner())
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $W3PILOT_CONFIG_DIR or ~/.w3pilot)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		chainsCmd,
		gasCmd,
		switchCmd,
		sendCmd,
		walletCmd,
		faucetCmd,
		configCmd,
	)
}
