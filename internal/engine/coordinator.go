package engine

import (
	"context"
	"errors"

	"github.com/Mohsinsiddi/w3pilot/internal/chain"
	"github.com/Mohsinsiddi/w3pilot/internal/provider"
	"github.com/sirupsen/logrus"
)

// Coordinator moves the wallet onto a target chain, registering the chain
// with the wallet first when the wallet does not know it.
type Coordinator struct {
	registry *chain.Registry
	provider provider.Provider
	log      logrus.FieldLogger
}

func NewCoordinator(registry *chain.Registry, p provider.Provider, log logrus.FieldLogger) *Coordinator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Coordinator{registry: registry, provider: p, log: log}
}

// EnsureChain makes target the wallet's active chain. Chains missing from the
// registry fail with UnsupportedChain before the wallet is contacted.
func (c *Coordinator) EnsureChain(ctx context.Context, target int64) error {
	cfg, err := c.registry.Lookup(target)
	if err != nil {
		return newError(KindUnsupportedChain, target, err, "Chain %d is not supported.", target)
	}
	current, err := c.provider.ChainID(ctx)
	if err != nil {
		return newError(KindWalletNotConnected, target, err, "Could not read the wallet's current chain.")
	}
	return c.switchFrom(ctx, current, cfg)
}

func (c *Coordinator) switchFrom(ctx context.Context, current int64, cfg *chain.Config) error {
	if current == cfg.ChainID {
		return nil
	}
	log := c.log.WithFields(logrus.Fields{"from_chain": current, "chain_id": cfg.ChainID})

	err := c.provider.SwitchChain(ctx, cfg.ChainID)
	if err == nil {
		log.Info("Switched wallet chain")
		return nil
	}
	if !provider.IsUnrecognizedChain(err) {
		return c.switchFailed(cfg, err)
	}

	log.Info("Wallet does not know chain, adding it")
	if err := c.provider.AddChain(ctx, *cfg); err != nil {
		return c.switchFailed(cfg, err)
	}
	if err := c.provider.SwitchChain(ctx, cfg.ChainID); err != nil {
		return c.switchFailed(cfg, err)
	}
	log.Info("Added and switched wallet chain")
	return nil
}

func (c *Coordinator) switchFailed(cfg *chain.Config, err error) *Error {
	out := newError(KindChainSwitchFailed, cfg.ChainID, err, "Could not switch the wallet to %s: %s", cfg.DisplayName, providerMessage(err))
	out.Code = provider.Code(err)
	return out
}

func providerMessage(err error) string {
	if pe, ok := provider.FromError(err); ok {
		return pe.Message
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
