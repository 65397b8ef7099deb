package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/w3pilot/internal/chain"
	"github.com/Mohsinsiddi/w3pilot/internal/config"
	"github.com/Mohsinsiddi/w3pilot/internal/gas"
	"github.com/Mohsinsiddi/w3pilot/internal/ui"
	"github.com/spf13/cobra"
)

var (
	gasChain    string
	gasCategory string
	gasSpeed    string
	gasTo       string
	gasValue    string
)

var gasCmd = &cobra.Command{
	Use:   "gas",
	Short: "Gas policy and live quotes",
}

var gasPolicyCmd = &cobra.Command{
	Use:   "policy [chain]",
	Short: "Show a chain's static gas policy",
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
		fmt.Fprint(cmd.OutOrStdout(), renderPolicy(gas.NewTable(), c))
		return nil
	},
}

func renderPolicy(table *gas.Table, c *chain.Config) string {
	auto := table.AutoGas(c.ChainID)
	out := ui.StyleTitle.Render(c.DisplayName+" gas policy") + "\n"

	tiers := ui.NewTable([]ui.Column{{Title: "Speed", Width: 10}, {Title: "Price (gwei)", Width: 14}, {Title: "Multiplier", Width: 10}})
	for _, s := range gas.Speeds {
		tiers.AddRow(s.String(), table.PriceTier(c.ChainID, s), s.Multiplier())
	}
	out += tiers.Render() + "\n"

	limits := ui.NewTable([]ui.Column{{Title: "Category", Width: 18}, {Title: "Gas limit", Width: 10}, {Title: "Est. cost", Width: 14}})
	for _, cat := range gas.Categories {
		limits.AddRow(string(cat), table.GasLimit(c.ChainID, cat), table.EstimatedUSD(c.ChainID, cat))
	}
	out += limits.Render() + "\n"

	out += ui.Meta(fmt.Sprintf("fallback %s gwei, max %s gwei, estimate multiplier %s",
		auto.FallbackPrice, auto.MaxPrice, auto.SafetyMultiplier)) + "\n"
	return out
}

var gasQuoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Resolve gas for a transaction without sending it",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry()
		target, err := resolveChain(reg, gasChain)
		if err != nil {
			return err
		}
		category, err := gas.ParseCategory(gasCategory)
		if err != nil {
			return err
		}
		speed, err := speedOrDefault(gasSpeed)
		if err != nil {
			return err
		}
		to, err := parseRecipient(gasTo)
		if err != nil {
			return err
		}
		value, err := chain.ParseUnits(orZero(gasValue), target.NativeCurrencyDecimals)
		if err != nil {
			return fmt.Errorf("invalid --value: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCSelectTimeout)
		defer cancel()
		s, err := openSession(ctx, target, reg)
		if err != nil {
			return err
		}
		defer s.close()
		if err := s.engine.Coordinator().EnsureChain(ctx, target.ChainID); err != nil {
			return err
		}
		accounts, err := s.provider.Accounts(ctx)
		if err != nil {
			return err
		}
		q := gas.Query{ChainID: target.ChainID, Category: category, Speed: speed, To: to, Value: value}
		if len(accounts) > 0 {
			q.From = accounts[0]
		}
		quote, err := s.engine.Resolver().Resolve(ctx, q)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock(target.DisplayName+" · "+string(category)+" · "+speed.String(), quotePairs(quote, target)))
		return nil
	},
}

func quotePairs(q gas.Quote, c *chain.Config) [][2]string {
	price := chain.FormatGwei(q.GasPrice) + " gwei"
	if q.Capped {
		price += " (capped)"
	}
	return [][2]string{
		{"Gas limit", strconv.FormatUint(q.GasLimit, 10) + " (" + string(q.LimitSource) + ")"},
		{"Gas price", price + " (" + string(q.PriceSource) + ")"},
		{"Max fee", chain.FormatUnits(q.MaxFee(), c.NativeCurrencyDecimals) + " " + c.NativeCurrencySymbol},
	}
}

func speedOrDefault(s string) (gas.Speed, error) {
	if s == "" {
		s = cfg.DefaultSpeed
	}
	return gas.ParseSpeed(s)
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func init() {
	gasQuoteCmd.Flags().StringVar(&gasChain, "chain", "", "chain slug or id (default: config)")
	gasQuoteCmd.Flags().StringVar(&gasCategory, "category", string(gas.CategoryTransfer), "transaction category")
	gasQuoteCmd.Flags().StringVar(&gasSpeed, "speed", "", "slow|standard|fast|instant (default: config)")
	gasQuoteCmd.Flags().StringVar(&gasTo, "to", "", "recipient, improves the live estimate")
	gasQuoteCmd.Flags().StringVar(&gasValue, "value", "", "amount in the native currency")
	gasCmd.AddCommand(gasPolicyCmd, gasQuoteCmd)
}
