package chain

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

// ErrChainNotFound is returned when a chain is not in the registry.
var ErrChainNotFound = errors.New("chain not found")

// Config holds all metadata for a single EVM network. Mainnets and their
// testnets are separate entries since each has its own chain ID.
type Config struct {
	ChainID                int64    `json:"chain_id"`
	Name                   string   `json:"name"`
	DisplayName            string   `json:"display_name"`
	NativeCurrencySymbol   string   `json:"native_currency_symbol"`
	NativeCurrencyDecimals int      `json:"native_currency_decimals"`
	RPCURLs                []string `json:"rpc_urls"`
	ExplorerBaseURLs       []string `json:"explorer_base_urls"`
	// FaucetURL is the official faucet for testnets (empty = none).
	FaucetURL string `json:"faucet_url,omitempty"`
	IsTestnet bool   `json:"is_testnet"`
}

// Registry is a read-only chain table indexed by chain ID and name.
type Registry struct {
	chains []Config
	byID   map[int64]*Config
	byName map[string]*Config
}

// NewRegistry returns the registry of every built-in network.
func NewRegistry() *Registry {
	return NewRegistryFrom(allChains())
}

// NewRegistryFrom builds a registry over a caller-supplied table. Later
// entries with a duplicate chain ID replace earlier ones.
func NewRegistryFrom(chains []Config) *Registry {
	r := &Registry{
		chains: make([]Config, 0, len(chains)),
		byID:   make(map[int64]*Config, len(chains)),
		byName: make(map[string]*Config, len(chains)),
	}
	seen := make(map[int64]int, len(chains))
	for _, c := range chains {
		if i, dup := seen[c.ChainID]; dup {
			r.chains[i] = c
			continue
		}
		seen[c.ChainID] = len(r.chains)
		r.chains = append(r.chains, c)
	}
	for i := range r.chains {
		c := &r.chains[i]
		r.byID[c.ChainID] = c
		if c.Name != "" {
			r.byName[strings.ToLower(c.Name)] = c
		}
	}
	return r
}

// All returns every chain in registry order.
func (r *Registry) All() []Config {
	return r.chains
}

// Testnets returns the testnet entries sorted by name.
func (r *Registry) Testnets() []Config {
	var out []Config
	for _, c := range r.chains {
		if c.IsTestnet {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a chain by its numeric chain ID.
func (r *Registry) Lookup(id int64) (*Config, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// Has reports whether id is a registered chain.
func (r *Registry) Has(id int64) bool {
	_, ok := r.byID[id]
	return ok
}

// ByName finds a chain by its slug (e.g. "avalanche-fuji").
func (r *Registry) ByName(name string) (*Config, error) {
	c, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// Resolve accepts either a slug or a decimal chain ID.
func (r *Registry) Resolve(nameOrID string) (*Config, error) {
	if id, ok := parseChainID(nameOrID); ok {
		return r.Lookup(id)
	}
	return r.ByName(nameOrID)
}

// PrimaryRPC returns the first RPC URL, or "" when none is configured.
func (c Config) PrimaryRPC() string {
	if len(c.RPCURLs) == 0 {
		return ""
	}
	return c.RPCURLs[0]
}

// Explorer returns the primary explorer base URL without a trailing slash.
func (c Config) Explorer() string {
	if len(c.ExplorerBaseURLs) == 0 {
		return ""
	}
	return strings.TrimRight(c.ExplorerBaseURLs[0], "/")
}

// ExplorerTxURL links a transaction hash on the primary explorer.
func (c Config) ExplorerTxURL(hash string) string {
	base := c.Explorer()
	if base == "" {
		return ""
	}
	return base + "/tx/" + hash
}

func parseChainID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// --- chain data ---

func allChains() []Config {
	return []Config{
		// Ethereum
		{
			ChainID: 1, Name: "ethereum", DisplayName: "Ethereum",
			NativeCurrencySymbol: "ETH", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://eth.llamarpc.com", "https://ethereum-rpc.publicnode.com"},
			ExplorerBaseURLs: []string{"https://etherscan.io", "https://eth.blockscout.com"},
		},
		{
			ChainID: 11155111, Name: "sepolia", DisplayName: "Sepolia",
			NativeCurrencySymbol: "ETH", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://rpc.sepolia.org", "https://sepolia.gateway.tenderly.co"},
			ExplorerBaseURLs: []string{"https://sepolia.etherscan.io", "https://eth-sepolia.blockscout.com"},
			FaucetURL:        "https://sepoliafaucet.com",
			IsTestnet:        true,
		},
		// Base
		{
			ChainID: 8453, Name: "base", DisplayName: "Base",
			NativeCurrencySymbol: "ETH", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://mainnet.base.org", "https://base.llamarpc.com"},
			ExplorerBaseURLs: []string{"https://basescan.org", "https://base.blockscout.com"},
		},
		{
			ChainID: 84532, Name: "base-sepolia", DisplayName: "Base Sepolia",
			NativeCurrencySymbol: "ETH", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://sepolia.base.org"},
			ExplorerBaseURLs: []string{"https://sepolia.basescan.org", "https://base-sepolia.blockscout.com"},
			FaucetURL:        "https://www.alchemy.com/faucets/base-sepolia",
			IsTestnet:        true,
		},
		// Polygon
		{
			ChainID: 137, Name: "polygon", DisplayName: "Polygon",
			NativeCurrencySymbol: "POL", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://polygon-bor-rpc.publicnode.com", "https://polygon-pokt.nodies.app"},
			ExplorerBaseURLs: []string{"https://polygonscan.com", "https://polygon.blockscout.com"},
		},
		{
			ChainID: 80002, Name: "polygon-amoy", DisplayName: "Polygon Amoy",
			NativeCurrencySymbol: "POL", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://rpc-amoy.polygon.technology"},
			ExplorerBaseURLs: []string{"https://amoy.polygonscan.com", "https://polygon-amoy.blockscout.com"},
			FaucetURL:        "https://faucet.polygon.technology",
			IsTestnet:        true,
		},
		// Arbitrum
		{
			ChainID: 42161, Name: "arbitrum", DisplayName: "Arbitrum One",
			NativeCurrencySymbol: "ETH", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://arb1.arbitrum.io/rpc", "https://arbitrum.llamarpc.com"},
			ExplorerBaseURLs: []string{"https://arbiscan.io", "https://arbitrum.blockscout.com"},
		},
		{
			ChainID: 421614, Name: "arbitrum-sepolia", DisplayName: "Arbitrum Sepolia",
			NativeCurrencySymbol: "ETH", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://sepolia-rollup.arbitrum.io/rpc"},
			ExplorerBaseURLs: []string{"https://sepolia.arbiscan.io", "https://arbitrum-sepolia.blockscout.com"},
			FaucetURL:        "https://www.alchemy.com/faucets/arbitrum-sepolia",
			IsTestnet:        true,
		},
		// Optimism
		{
			ChainID: 10, Name: "optimism", DisplayName: "OP Mainnet",
			NativeCurrencySymbol: "ETH", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://mainnet.optimism.io", "https://optimism.llamarpc.com"},
			ExplorerBaseURLs: []string{"https://optimistic.etherscan.io", "https://optimism.blockscout.com"},
		},
		{
			ChainID: 11155420, Name: "optimism-sepolia", DisplayName: "OP Sepolia",
			NativeCurrencySymbol: "ETH", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://sepolia.optimism.io"},
			ExplorerBaseURLs: []string{"https://sepolia-optimism.etherscan.io", "https://optimism-sepolia.blockscout.com"},
			FaucetURL:        "https://www.alchemy.com/faucets/optimism-sepolia",
			IsTestnet:        true,
		},
		// BNB Chain
		{
			ChainID: 56, Name: "bnb", DisplayName: "BNB Smart Chain",
			NativeCurrencySymbol: "BNB", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://bsc-dataseed.binance.org", "https://bsc-rpc.publicnode.com"},
			ExplorerBaseURLs: []string{"https://bscscan.com"},
		},
		{
			ChainID: 97, Name: "bnb-testnet", DisplayName: "BNB Smart Chain Testnet",
			NativeCurrencySymbol: "tBNB", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://data-seed-prebsc-1-s1.binance.org:8545", "https://bsc-testnet-rpc.publicnode.com"},
			ExplorerBaseURLs: []string{"https://testnet.bscscan.com"},
			FaucetURL:        "https://www.bnbchain.org/en/testnet-faucet",
			IsTestnet:        true,
		},
		// Avalanche C-Chain
		{
			ChainID: 43114, Name: "avalanche", DisplayName: "Avalanche C-Chain",
			NativeCurrencySymbol: "AVAX", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://api.avax.network/ext/bc/C/rpc", "https://avalanche-c-chain-rpc.publicnode.com"},
			ExplorerBaseURLs: []string{"https://snowtrace.io", "https://avalanche.blockscout.com"},
		},
		{
			ChainID: 43113, Name: "avalanche-fuji", DisplayName: "Avalanche Fuji",
			NativeCurrencySymbol: "AVAX", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://api.avax-test.network/ext/bc/C/rpc", "https://avalanche-fuji-c-chain-rpc.publicnode.com"},
			ExplorerBaseURLs: []string{"https://testnet.snowtrace.io", "https://avalanche-fuji.blockscout.com"},
			FaucetURL:        "https://faucet.avax.network",
			IsTestnet:        true,
		},
		// Linea
		{
			ChainID: 59144, Name: "linea", DisplayName: "Linea",
			NativeCurrencySymbol: "ETH", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://rpc.linea.build", "https://linea-rpc.publicnode.com"},
			ExplorerBaseURLs: []string{"https://lineascan.build", "https://linea.blockscout.com"},
		},
		{
			ChainID: 59141, Name: "linea-sepolia", DisplayName: "Linea Sepolia",
			NativeCurrencySymbol: "ETH", NativeCurrencyDecimals: 18,
			RPCURLs:          []string{"https://rpc.sepolia.linea.build"},
			ExplorerBaseURLs: []string{"https://sepolia.lineascan.build", "https://linea-sepolia.blockscout.com"},
			FaucetURL:        "https://www.infura.io/faucet/linea",
			IsTestnet:        true,
		},
	}
}
