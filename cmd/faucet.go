package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/w3pilot/internal/chain"
	"github.com/Mohsinsiddi/w3pilot/internal/ui"
	"github.com/spf13/cobra"
)

var faucetCmd = &cobra.Command{
	Use:   "faucet [chain]",
	Short: "Show testnet faucet links",
	Long: `Without an argument, list every testnet that has an official faucet.
With a chain, show where to get that chain's test currency.

Examples:
  w3pilot faucet
  w3pilot faucet avalanche-fuji
  w3pilot faucet 11155111`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry()
		if len(args) == 1 {
			c, err := resolveChain(reg, args[0])
			if err != nil {
				return err
			}
			return showFaucet(cmd, c)
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Testnet", Width: 22},
			{Title: "Currency", Width: 9},
			{Title: "Faucet", Width: 48},
		})
		for _, c := range reg.Testnets() {
			if c.FaucetURL == "" {
				continue
			}
			t.AddRow(c.DisplayName, c.NativeCurrencySymbol, c.FaucetURL)
		}
		fmt.Fprint(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

func showFaucet(cmd *cobra.Command, c *chain.Config) error {
	out := cmd.OutOrStdout()
	if !c.IsTestnet {
		return fmt.Errorf("%s is a mainnet; faucets only exist for testnets", c.DisplayName)
	}
	if c.FaucetURL == "" {
		fmt.Fprintln(out, ui.Warn("No official faucet for "+c.DisplayName+". Bridge test funds from its parent network."))
		return nil
	}
	fmt.Fprintln(out, ui.KeyValueBlock(c.DisplayName, [][2]string{
		{"Faucet", c.FaucetURL},
		{"Currency", c.NativeCurrencySymbol},
		{"Explorer", c.Explorer()},
	}))
	return nil
}
