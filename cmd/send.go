package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/Mohsinsiddi/w3pilot/internal/chain"
	"github.com/Mohsinsiddi/w3pilot/internal/config"
	"github.com/Mohsinsiddi/w3pilot/internal/engine"
	"github.com/Mohsinsiddi/w3pilot/internal/gas"
	"github.com/Mohsinsiddi/w3pilot/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

// sendFlags are the raw flag values of the send command.
type sendFlags struct {
	to       string
	value    string
	data     string
	category string
	speed    string
	gasLimit uint64
	gasPrice string // gwei
	chain    string
	deploy   bool
	plain    bool
}

var sendOpts sendFlags

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a transaction through the wallet",
	Long: `Send native currency, call a contract or deploy one.

The wallet is moved to --chain first (default: the configured chain). Gas
comes from --gas-limit/--gas-price when given, otherwise from the wallet's
live estimate, otherwise from the chain's gas policy. Prices never exceed
the chain's policy maximum.

Examples:
  w3pilot send --to 0xdEaD… --value 0.01 --chain avalanche-fuji
  w3pilot send --to 0xToken… --data 0xa9059cbb… --category token-transfer --speed fast
  w3pilot send --deploy --data 0x6080… --chain base-sepolia`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry()
		req, target, err := buildRequest(reg, sendOpts)
		if err != nil {
			return err
		}
		home, err := resolveChain(reg, "")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.SendTimeout)
		defer cancel()
		s, err := openSession(ctx, home, reg)
		if err != nil {
			return err
		}
		defer s.close()

		var res *engine.Result
		if sendOpts.plain {
			res, err = runPlain(ctx, s.engine, req, cmd.OutOrStdout())
		} else {
			res, err = ui.RunProgress(ctx, s.engine, req, "Sending on "+target.DisplayName,
				tea.WithOutput(cmd.OutOrStdout()), tea.WithInput(cmd.InOrStdin()))
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Transaction", resultPairs(res, target)))
		return nil
	},
}

// buildRequest turns flags into an engine request for the target chain.
func buildRequest(reg *chain.Registry, f sendFlags) (engine.Request, *chain.Config, error) {
	var req engine.Request
	target, err := resolveChain(reg, f.chain)
	if err != nil {
		return req, nil, err
	}
	req.TargetChainID = target.ChainID
	req.ValueNative = f.value

	if f.deploy {
		if f.to != "" {
			return req, nil, fmt.Errorf("--deploy and --to are mutually exclusive")
		}
		req.Category = gas.CategoryDeployment
	} else {
		if f.to == "" {
			return req, nil, fmt.Errorf("--to is required (or --deploy)")
		}
		if req.To, err = parseRecipient(f.to); err != nil {
			return req, nil, err
		}
		req.Category = gas.CategoryTransfer
		if f.category != "" {
			if req.Category, err = gas.ParseCategory(f.category); err != nil {
				return req, nil, err
			}
		}
	}

	if f.data != "" {
		if req.Data, err = hexutil.Decode(f.data); err != nil {
			return req, nil, fmt.Errorf("invalid --data: %w", err)
		}
	}
	if req.Speed, err = speedOrDefault(f.speed); err != nil {
		return req, nil, err
	}
	if f.gasLimit > 0 {
		limit := f.gasLimit
		req.GasLimit = &limit
	}
	if f.gasPrice != "" {
		if req.GasPrice, err = chain.ParseGwei(f.gasPrice); err != nil {
			return req, nil, fmt.Errorf("invalid --gas-price: %w", err)
		}
	}
	return req, target, nil
}

// parseRecipient validates an optional hex address.
func parseRecipient(s string) (*common.Address, error) {
	if s == "" {
		return nil, nil
	}
	if !common.IsHexAddress(s) {
		return nil, fmt.Errorf("invalid address %q", s)
	}
	addr := common.HexToAddress(s)
	return &addr, nil
}

// runPlain executes without the progress view, printing each phase.
func runPlain(ctx context.Context, e *engine.Engine, req engine.Request, out io.Writer) (*engine.Result, error) {
	unsubscribe := e.Subscribe(func(t engine.Transition) {
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("  %s → %s", t.From, t.To)))
	})
	defer unsubscribe()
	return e.Execute(ctx, req)
}

func resultPairs(r *engine.Result, c *chain.Config) [][2]string {
	status := string(r.Status)
	if !r.Confirmed() {
		status = "submitted (receipt not seen yet)"
	}
	pairs := [][2]string{
		{"Network", c.DisplayName},
		{"From", r.From.Hex()},
		{"Hash", r.TransactionHash.Hex()},
		{"Status", status},
	}
	if r.Confirmed() {
		pairs = append(pairs, [2]string{"Block", r.BlockNumber.String()})
	}
	if r.GasUsed != nil {
		pairs = append(pairs, [2]string{"Gas used", strconv.FormatUint(*r.GasUsed, 10)})
	}
	pairs = append(pairs, quotePairs(r.Quote, c)...)
	if r.ExplorerURL != "" {
		pairs = append(pairs, [2]string{"Explorer", r.ExplorerURL})
	}
	return pairs
}

func init() {
	f := sendCmd.Flags()
	f.StringVar(&sendOpts.to, "to", "", "recipient address")
	f.StringVar(&sendOpts.value, "value", "", "amount in the native currency, e.g. 0.01")
	f.StringVar(&sendOpts.data, "data", "", "hex calldata or contract bytecode")
	f.StringVar(&sendOpts.category, "category", "", "transfer|token-transfer|nft-mint|contract-call|complex-contract")
	f.StringVar(&sendOpts.speed, "speed", "", "slow|standard|fast|instant (default: config)")
	f.Uint64Var(&sendOpts.gasLimit, "gas-limit", 0, "gas limit override")
	f.StringVar(&sendOpts.gasPrice, "gas-price", "", "gas price override in gwei")
	f.StringVar(&sendOpts.chain, "chain", "", "chain slug or id (default: config)")
	f.BoolVar(&sendOpts.deploy, "deploy", false, "deploy --data as a contract")
	f.BoolVar(&sendOpts.plain, "plain", false, "print phases as lines instead of the live view")
}
