package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/w3pilot/internal/gas"
	"github.com/Mohsinsiddi/w3pilot/internal/rpc"
	"github.com/Mohsinsiddi/w3pilot/internal/ui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"list"},
	Short:   "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.StyleTitle.Render("Current configuration"))
		fmt.Fprintln(out, string(data))
		fmt.Fprintln(out, ui.Meta("Config directory: "+cfg.Dir()))
		return nil
	},
}

// setter builds a "config set-*" command that validates, assigns and saves
// a single value.
func setter(use, short string, apply func(string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apply(args[0]); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success(short+": "+args[0]))
			return nil
		},
	}
}

var (
	configSetChainCmd = setter("set-default-chain <chain>", "Default chain set", func(v string) error {
		c, err := resolveChain(newRegistry(), v)
		if err != nil {
			return err
		}
		cfg.DefaultChain = c.Name
		return nil
	})
	configSetSpeedCmd = setter("set-speed <slow|standard|fast|instant>", "Default speed set", func(v string) error {
		s, err := gas.ParseSpeed(v)
		if err != nil {
			return err
		}
		cfg.DefaultSpeed = s.String()
		return nil
	})
	configSetAlgorithmCmd = setter("set-rpc-algorithm <fastest|round-robin|failover>", "RPC algorithm set", func(v string) error {
		s, err := rpc.ParseStrategy(v)
		if err != nil {
			return err
		}
		cfg.RPCAlgorithm = string(s)
		return nil
	})
	configSetProviderCmd = setter("set-provider <url|none>", "Wallet provider set", func(v string) error {
		if v == "none" {
			v = ""
		}
		cfg.ProviderURL = v
		return nil
	})
	configSetLogLevelCmd = setter("set-log-level <level>", "Log level set", func(v string) error {
		if _, err := logrus.ParseLevel(v); err != nil {
			return err
		}
		cfg.LogLevel = v
		return nil
	})
	configSetReceiptAttemptsCmd = setter("set-receipt-attempts <n>", "Receipt attempts set", func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("receipt attempts must be a positive integer, got %q", v)
		}
		cfg.ReceiptAttempts = n
		return nil
	})
)

var configAddRPCCmd = &cobra.Command{
	Use:   "add-rpc <chain> <url>",
	Short: "Prefer a custom RPC URL for a chain",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := resolveChain(newRegistry(), args[0])
		if err != nil {
			return err
		}
		if err := cfg.AddRPC(c.Name, args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("RPC %s added for %s", args[1], c.Name)))
		return nil
	},
}

var configRemoveRPCCmd = &cobra.Command{
	Use:   "remove-rpc <chain> <url>",
	Short: "Remove a custom RPC URL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := resolveChain(newRegistry(), args[0])
		if err != nil {
			return err
		}
		if err := cfg.RemoveRPC(c.Name, args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("RPC %s removed from %s", args[1], c.Name)))
		return nil
	},
}

func init() {
	configCmd.AddCommand(
		configShowCmd,
		configSetChainCmd,
		configSetSpeedCmd,
		configSetAlgorithmCmd,
		configSetProviderCmd,
		configSetLogLevelCmd,
		configSetReceiptAttemptsCmd,
		configAddRPCCmd,
		configRemoveRPCCmd,
	)
}
