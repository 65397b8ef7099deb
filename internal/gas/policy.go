package gas

// Generic fallbacks used when a chain is missing from the policy table or an
// entry is incomplete. Prices are in gwei.
const (
	DefaultGasLimit         = "100000"
	DefaultGasPrice         = "20"
	DefaultMaxPrice         = "500"
	DefaultSafetyMultiplier = "1.2"
	DefaultEstimatedUSD     = "unknown"
)

// AutoGas bounds the dynamic price path for one chain.
type AutoGas struct {
	FallbackPrice    string `json:"fallback_price"`    // gwei, used when a tier is missing
	MaxPrice         string `json:"max_price"`         // gwei, resolved prices are clamped to this
	SafetyMultiplier string `json:"safety_multiplier"` // applied to live gas-limit estimates
}

// Policy is the static gas configuration for one chain.
type Policy struct {
	ChainID      int64               `json:"chain_id"`
	GasLimits    map[Category]string `json:"gas_limits"`
	PriceTiers   map[Speed]string    `json:"price_tiers"` // gwei
	AutoGas      AutoGas             `json:"auto_gas"`
	EstimatedUSD map[Category]string `json:"estimated_usd"`
}

// Table is a read-only policy lookup keyed by chain ID.
type Table struct {
	byID map[int64]*Policy
}

// NewTable returns the built-in policy table.
func NewTable() *Table {
	return NewTableFrom(allPolicies())
}

// NewTableFrom builds a table over caller-supplied policies (test fixtures).
func NewTableFrom(policies []Policy) *Table {
	t := &Table{byID: make(map[int64]*Policy, len(policies))}
	for i := range policies {
		p := policies[i]
		t.byID[p.ChainID] = &p
	}
	return t
}

// Policy returns the raw policy for a chain.
func (t *Table) Policy(chainID int64) (*Policy, bool) {
	p, ok := t.byID[chainID]
	return p, ok
}

// ChainIDs returns every chain ID with a policy entry.
func (t *Table) ChainIDs() []int64 {
	ids := make([]int64, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	return ids
}

// GasLimit returns the static gas limit for (chain, category), falling back
// to DefaultGasLimit.
func (t *Table) GasLimit(chainID int64, c Category) string {
	if p, ok := t.byID[chainID]; ok {
		if v := p.GasLimits[c]; v != "" {
			return v
		}
	}
	return DefaultGasLimit
}

// PriceTier returns the static gas price (gwei) for (chain, speed). A known
// chain without that tier uses its AutoGas fallback price.
func (t *Table) PriceTier(chainID int64, s Speed) string {
	p, ok := t.byID[chainID]
	if !ok {
		return DefaultGasPrice
	}
	if v := p.PriceTiers[s]; v != "" {
		return v
	}
	return t.AutoGas(chainID).FallbackPrice
}

// AutoGas returns the chain's auto-gas settings with empty fields filled
// from the generic defaults.
func (t *Table) AutoGas(chainID int64) AutoGas {
	out := AutoGas{
		FallbackPrice:    DefaultGasPrice,
		MaxPrice:         DefaultMaxPrice,
		SafetyMultiplier: DefaultSafetyMultiplier,
	}
	p, ok := t.byID[chainID]
	if !ok {
		return out
	}
	if p.AutoGas.FallbackPrice != "" {
		out.FallbackPrice = p.AutoGas.FallbackPrice
	}
	if p.AutoGas.MaxPrice != "" {
		out.MaxPrice = p.AutoGas.MaxPrice
	}
	if p.AutoGas.SafetyMultiplier != "" {
		out.SafetyMultiplier = p.AutoGas.SafetyMultiplier
	}
	return out
}

// EstimatedUSD returns the human-readable cost band for a category.
func (t *Table) EstimatedUSD(chainID int64, c Category) string {
	if p, ok := t.byID[chainID]; ok {
		if v := p.EstimatedUSD[c]; v != "" {
			return v
		}
	}
	return DefaultEstimatedUSD
}

// --- policy data ---

// baseLimits are the gas limits shared by plain EVM chains.
func baseLimits() map[Category]string {
	return map[Category]string{
		CategoryTransfer:        "21000",
		CategoryTokenTransfer:   "65000",
		CategoryNFTMint:         "150000",
		CategoryContractCall:    "200000",
		CategoryComplexContract: "500000",
		CategoryDeployment:      "1500000",
	}
}

// rollupLimits are higher because L2 estimates include L1 data costs.
func rollupLimits() map[Category]string {
	return map[Category]string{
		CategoryTransfer:        "100000",
		CategoryTokenTransfer:   "250000",
		CategoryNFTMint:         "400000",
		CategoryContractCall:    "500000",
		CategoryComplexContract: "1200000",
		CategoryDeployment:      "4000000",
	}
}

func tiers(slow, standard, fast, instant string) map[Speed]string {
	return map[Speed]string{
		SpeedSlow:     slow,
		SpeedStandard: standard,
		SpeedFast:     fast,
		SpeedInstant:  instant,
	}
}

func usd(transfer, token, mint, call, complexCall, deploy string) map[Category]string {
	return map[Category]string{
		CategoryTransfer:        transfer,
		CategoryTokenTransfer:   token,
		CategoryNFTMint:         mint,
		CategoryContractCall:    call,
		CategoryComplexContract: complexCall,
		CategoryDeployment:      deploy,
	}
}

func testnetUSD() map[Category]string {
	return usd("free (testnet)", "free (testnet)", "free (testnet)", "free (testnet)", "free (testnet)", "free (testnet)")
}

func allPolicies() []Policy {
	return []Policy{
		// Ethereum
		{
			ChainID: 1, GasLimits: baseLimits(),
			PriceTiers:   tiers("8", "12", "18", "30"),
			AutoGas:      AutoGas{FallbackPrice: "15", MaxPrice: "200", SafetyMultiplier: "1.2"},
			EstimatedUSD: usd("$0.50-$2", "$1-$5", "$3-$12", "$4-$15", "$10-$40", "$30-$120"),
		},
		{
			ChainID: 11155111, GasLimits: baseLimits(),
			PriceTiers:   tiers("1", "2", "3", "5"),
			AutoGas:      AutoGas{FallbackPrice: "2", MaxPrice: "100", SafetyMultiplier: "1.2"},
			EstimatedUSD: testnetUSD(),
		},
		// Base
		{
			ChainID: 8453, GasLimits: rollupLimits(),
			PriceTiers:   tiers("0.005", "0.01", "0.02", "0.05"),
			AutoGas:      AutoGas{FallbackPrice: "0.01", MaxPrice: "5", SafetyMultiplier: "1.2"},
			EstimatedUSD: usd("<$0.01", "$0.01-$0.03", "$0.02-$0.05", "$0.02-$0.08", "$0.05-$0.20", "$0.20-$1"),
		},
		{
			ChainID: 84532, GasLimits: rollupLimits(),
			PriceTiers:   tiers("0.001", "0.002", "0.005", "0.01"),
			AutoGas:      AutoGas{FallbackPrice: "0.002", MaxPrice: "2", SafetyMultiplier: "1.2"},
			EstimatedUSD: testnetUSD(),
		},
		// Polygon
		{
			ChainID: 137, GasLimits: baseLimits(),
			PriceTiers:   tiers("30", "40", "60", "100"),
			AutoGas:      AutoGas{FallbackPrice: "50", MaxPrice: "1000", SafetyMultiplier: "1.2"},
			EstimatedUSD: usd("<$0.01", "$0.01", "$0.01-$0.03", "$0.01-$0.05", "$0.05-$0.10", "$0.10-$0.50"),
		},
		{
			ChainID: 80002, GasLimits: baseLimits(),
			PriceTiers:   tiers("25", "30", "40", "60"),
			AutoGas:      AutoGas{FallbackPrice: "30", MaxPrice: "500", SafetyMultiplier: "1.2"},
			EstimatedUSD: testnetUSD(),
		},
		// Arbitrum
		{
			ChainID: 42161, GasLimits: rollupLimits(),
			PriceTiers:   tiers("0.01", "0.01", "0.02", "0.05"),
			AutoGas:      AutoGas{FallbackPrice: "0.1", MaxPrice: "10", SafetyMultiplier: "1.2"},
			EstimatedUSD: usd("$0.01-$0.05", "$0.02-$0.10", "$0.05-$0.20", "$0.05-$0.25", "$0.10-$0.50", "$0.50-$3"),
		},
		{
			ChainID: 421614, GasLimits: rollupLimits(),
			PriceTiers:   tiers("0.1", "0.1", "0.2", "0.5"),
			AutoGas:      AutoGas{FallbackPrice: "0.1", MaxPrice: "10", SafetyMultiplier: "1.2"},
			EstimatedUSD: testnetUSD(),
		},
		// Optimism
		{
			ChainID: 10, GasLimits: rollupLimits(),
			PriceTiers:   tiers("0.001", "0.002", "0.005", "0.01"),
			AutoGas:      AutoGas{FallbackPrice: "0.01", MaxPrice: "5", SafetyMultiplier: "1.2"},
			EstimatedUSD: usd("<$0.01", "$0.01-$0.03", "$0.02-$0.06", "$0.02-$0.08", "$0.05-$0.20", "$0.20-$1"),
		},
		{
			ChainID: 11155420, GasLimits: rollupLimits(),
			PriceTiers:   tiers("0.001", "0.002", "0.005", "0.01"),
			AutoGas:      AutoGas{FallbackPrice: "0.002", MaxPrice: "2", SafetyMultiplier: "1.2"},
			EstimatedUSD: testnetUSD(),
		},
		// BNB Chain
		{
			ChainID: 56, GasLimits: baseLimits(),
			PriceTiers:   tiers("1", "1", "3", "5"),
			AutoGas:      AutoGas{FallbackPrice: "3", MaxPrice: "50", SafetyMultiplier: "1.2"},
			EstimatedUSD: usd("$0.01-$0.03", "$0.03-$0.08", "$0.08-$0.20", "$0.10-$0.30", "$0.30-$0.80", "$1-$3"),
		},
		{
			ChainID: 97, GasLimits: baseLimits(),
			PriceTiers:   tiers("5", "10", "15", "20"),
			AutoGas:      AutoGas{FallbackPrice: "10", MaxPrice: "100", SafetyMultiplier: "1.2"},
			EstimatedUSD: testnetUSD(),
		},
		// Avalanche C-Chain
		{
			ChainID: 43114, GasLimits: baseLimits(),
			PriceTiers:   tiers("25", "27", "30", "40"),
			AutoGas:      AutoGas{FallbackPrice: "27", MaxPrice: "300", SafetyMultiplier: "1.2"},
			EstimatedUSD: usd("$0.02-$0.05", "$0.05-$0.15", "$0.10-$0.30", "$0.15-$0.40", "$0.40-$1", "$1-$4"),
		},
		{
			ChainID: 43113, GasLimits: baseLimits(),
			PriceTiers:   tiers("25", "27", "30", "40"),
			AutoGas:      AutoGas{FallbackPrice: "27", MaxPrice: "300", SafetyMultiplier: "1.2"},
			EstimatedUSD: testnetUSD(),
		},
		// Linea
		{
			ChainID: 59144, GasLimits: rollupLimits(),
			PriceTiers:   tiers("0.05", "0.1", "0.2", "0.5"),
			AutoGas:      AutoGas{FallbackPrice: "0.1", MaxPrice: "10", SafetyMultiplier: "1.2"},
			EstimatedUSD: usd("<$0.01", "$0.01-$0.05", "$0.03-$0.10", "$0.03-$0.12", "$0.10-$0.40", "$0.50-$2"),
		},
		{
			ChainID: 59141, GasLimits: rollupLimits(),
			PriceTiers:   tiers("0.05", "0.1", "0.2", "0.5"),
			AutoGas:      AutoGas{FallbackPrice: "0.1", MaxPrice: "10", SafetyMultiplier: "1.2"},
			EstimatedUSD: testnetUSD(),
		},
	}
}
