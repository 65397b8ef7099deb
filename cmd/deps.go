package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/99designs/keyring"
	"github.com/Mohsinsiddi/w3pilot/internal/chain"
	"github.com/Mohsinsiddi/w3pilot/internal/engine"
	"github.com/Mohsinsiddi/w3pilot/internal/gas"
	"github.com/Mohsinsiddi/w3pilot/internal/provider"
	"github.com/Mohsinsiddi/w3pilot/internal/rpc"
	"github.com/Mohsinsiddi/w3pilot/internal/ui"
	"github.com/Mohsinsiddi/w3pilot/internal/wallet"
)

// envKeyringPassword unlocks the file keyring without a prompt.
const envKeyringPassword = "W3PILOT_KEYRING_PASSWORD"

// newRegistry returns the built-in networks with the user's custom RPCs
// placed ahead of the built-in ones.
func newRegistry() *chain.Registry {
	all := slices.Clone(chain.NewRegistry().All())
	for i := range all {
		all[i].RPCURLs = cfg.RPCsFor(all[i].Name, all[i].RPCURLs)
	}
	return chain.NewRegistryFrom(all)
}

// resolveChain looks up a chain by slug or id, falling back to the
// configured default.
func resolveChain(reg *chain.Registry, nameOrID string) (*chain.Config, error) {
	if nameOrID == "" {
		nameOrID = cfg.DefaultChain
	}
	c, err := reg.Resolve(nameOrID)
	if err != nil {
		return nil, fmt.Errorf("unknown chain %q; run `w3pilot chains list` to see all chains", nameOrID)
	}
	return c, nil
}

func keyringPassword() keyring.PromptFunc {
	if pw := os.Getenv(envKeyringPassword); pw != "" {
		return keyring.FixedStringPrompt(pw)
	}
	return keyring.TerminalPrompt
}

// newBook opens the account book backed by wallets.json and the keychain.
func newBook() (*wallet.Book, error) {
	keys, err := wallet.OpenKeychain(cfg.KeyringDir(), keyringPassword())
	if err != nil {
		return nil, err
	}
	return wallet.NewBook(
		wallet.WithStore(wallet.NewFileStore(cfg.AccountsPath())),
		wallet.WithKeyStore(keys),
	), nil
}

// session is a provider plus the engine driving it.
type session struct {
	provider provider.Provider
	engine   *engine.Engine
	registry *chain.Registry
	close    func()
}

// openSession connects to the configured wallet. home is where the
// built-in signer starts; an external wallet stays on its own chain.
func openSession(ctx context.Context, home *chain.Config, reg *chain.Registry) (*session, error) {
	p, closeFn, err := openProvider(ctx, home)
	if err != nil {
		return nil, err
	}
	eng := engine.New(p,
		engine.WithRegistry(reg),
		engine.WithPolicy(gas.NewTable()),
		engine.WithLogger(log),
		engine.WithReceiptPolicy(engine.ReceiptPolicy{
			Attempts: cfg.ReceiptAttempts,
			Interval: cfg.ReceiptWait(),
		}),
	)
	return &session{provider: p, engine: eng, registry: reg, close: closeFn}, nil
}

func openProvider(ctx context.Context, home *chain.Config) (provider.Provider, func(), error) {
	if cfg.ProviderURL != "" {
		p, err := provider.DialRPC(ctx, cfg.ProviderURL,
			provider.WithRateLimit(cfg.RateLimit, 1),
			provider.WithRPCLogger(log),
		)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	}

	book, err := newBook()
	if err != nil {
		return nil, nil, err
	}
	if err := requireSigner(book); err != nil {
		return nil, nil, err
	}
	strategy, err := rpc.ParseStrategy(cfg.RPCAlgorithm)
	if err != nil {
		return nil, nil, err
	}
	opts := []provider.LocalOption{
		provider.WithPicker(rpc.NewPicker(strategy)),
		provider.WithLocalLogger(log),
	}
	if cfg.ConfirmBeforeSend {
		opts = append(opts, provider.WithConfirm(ui.PromptConfirm(stdinConfirm)))
	}
	p := provider.NewLocal(book, *home, opts...)
	return p, p.Close, nil
}

// requireSigner checks the book can name the account Local will sign with.
func requireSigner(book *wallet.Book) error {
	_, err := book.Default()
	switch {
	case errors.Is(err, wallet.ErrNoAccounts):
		return fmt.Errorf("no signing account; add one with `w3pilot wallet import <name>`")
	case err != nil:
		return fmt.Errorf("loading accounts: %w", err)
	}
	return nil
}

// stdinConfirm asks on the terminal when no progress view is running.
func stdinConfirm(_ context.Context, chainID int64, tx provider.TxParams) error {
	to := "a new contract"
	if tx.To != nil {
		to = tx.To.Hex()
	}
	prompt := fmt.Sprintf("Sign transaction on chain %d to %s (gas %d @ %s gwei)?",
		chainID, to, tx.Gas, chain.FormatGwei(tx.GasPrice))
	if !ui.Confirm(os.Stdin, os.Stderr, prompt) {
		return ui.ErrDeclined
	}
	return nil
}

// renderError formats classified engine errors with their hint on a
// separate line.
func renderError(err error) string {
	var ce *engine.Error
	if !errors.As(err, &ce) {
		return ui.Err(err.Error())
	}
	out := ui.Err(fmt.Sprintf("%s: %s", ce.Kind, ce.Message))
	if ce.Hint != "" {
		out += "\n" + ui.Hint(ce.Hint)
	}
	return out
}
