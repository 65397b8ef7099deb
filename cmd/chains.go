package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Mohsinsiddi/w3pilot/internal/gas"
	"github.com/Mohsinsiddi/w3pilot/internal/ui"
	"github.com/spf13/cobra"
)

var chainsTestnetOnly bool

var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "Inspect supported networks",
}

var chainsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry()
		chains := reg.All()
		if chainsTestnetOnly {
			chains = reg.Testnets()
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 18},
			{Title: "Display", Width: 22},
			{Title: "Chain ID", Width: 10},
			{Title: "Currency", Width: 9},
			{Title: "Type", Width: 8},
		})
		for _, c := range chains {
			kind := "mainnet"
			if c.IsTestnet {
				kind = "testnet"
			}
			t.AddRow(c.Name, c.DisplayName, strconv.FormatInt(c.ChainID, 10), c.NativeCurrencySymbol, kind)
		}
		out := cmd.OutOrStdout()
		fmt.Fprint(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d networks, default %s", len(chains), cfg.DefaultChain)))
		return nil
	},
}

var chainsShowCmd = &cobra.Command{
	Use:   "show [chain]",
	Short: "Show one network's registry and gas policy entries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		c, err := resolveChain(newRegistry(), name)
		if err != nil {
			return err
		}
		table := gas.NewTable()
		auto := table.AutoGas(c.ChainID)

		pairs := [][2]string{
			{"Name", c.Name},
			{"Chain ID", strconv.FormatInt(c.ChainID, 10)},
			{"Currency", fmt.Sprintf("%s (%d decimals)", c.NativeCurrencySymbol, c.NativeCurrencyDecimals)},
			{"RPC URLs", strings.Join(c.RPCURLs, "\n"+strings.Repeat(" ", 21))},
			{"Explorer", c.Explorer()},
			{"Max gas price", auto.MaxPrice + " gwei"},
		}
		if c.IsTestnet && c.FaucetURL != "" {
			pairs = append(pairs, [2]string{"Faucet", c.FaucetURL})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock(c.DisplayName, pairs))
		return nil
	},
}

func init() {
	chainsListCmd.Flags().BoolVar(&chainsTestnetOnly, "testnet", false, "only list testnets")
	chainsCmd.AddCommand(chainsListCmd, chainsShowCmd)
}
