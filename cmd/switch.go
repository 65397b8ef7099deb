package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/w3pilot/internal/config"
	"github.com/Mohsinsiddi/w3pilot/internal/ui"
	"github.com/spf13/cobra"
)

var switchCmd = &cobra.Command{
	Use:   "switch [chain]",
	Short: "Move the wallet to another network",
	Long: `Switch the wallet's active network, adding it to the wallet first when the
wallet does not know it. Without an argument a picker is shown. The chosen
network becomes the default for later commands.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry()
		home, err := resolveChain(reg, "")
		if err != nil {
			return err
		}

		name := ""
		if len(args) == 1 {
			name = args[0]
		} else {
			name, err = ui.Pick("Switch network", ui.ChainItems(reg.All(), home.ChainID))
			if err != nil {
				return err
			}
			if name == "" {
				return nil
			}
		}
		target, err := resolveChain(reg, name)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCSelectTimeout)
		defer cancel()
		s, err := openSession(ctx, home, reg)
		if err != nil {
			return err
		}
		defer s.close()

		if err := s.engine.Coordinator().EnsureChain(ctx, target.ChainID); err != nil {
			return err
		}
		cfg.DefaultChain = target.Name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Wallet is on "+ui.ChainName(target.DisplayName)))
		return nil
	},
}
