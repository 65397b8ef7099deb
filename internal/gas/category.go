// Package gas holds the static gas-policy table and the resolver that turns
// a transaction category and speed tier into a concrete gas limit and price.
package gas

import (
	"fmt"
	"strings"
)

// Category classifies a transaction for gas-limit defaults.
type Category string

const (
	CategoryTransfer        Category = "transfer"
	CategoryTokenTransfer   Category = "token-transfer"
	CategoryNFTMint         Category = "nft-mint"
	CategoryContractCall    Category = "contract-call"
	CategoryComplexContract Category = "complex-contract"
	CategoryDeployment      Category = "deployment"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryTransfer,
	CategoryTokenTransfer,
	CategoryNFTMint,
	CategoryContractCall,
	CategoryComplexContract,
	CategoryDeployment,
}

// ParseCategory accepts the kebab-case name of a category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown transaction category %q", s)
}

// Speed is an urgency tier. Tiers are ordered: Slow < Standard < Fast < Instant.
// The zero value is not a tier; Normalize maps it to Standard.
type Speed int

const (
	SpeedSlow Speed = iota + 1
	SpeedStandard
	SpeedFast
	SpeedInstant
)

// Speeds lists every tier from cheapest to most urgent.
var Speeds = []Speed{SpeedSlow, SpeedStandard, SpeedFast, SpeedInstant}

var speedNames = [...]string{"slow", "standard", "fast", "instant"}

// speedMultipliers scale the live network price per tier.
var speedMultipliers = [...]string{"0.9", "1.0", "1.2", "1.5"}

// Valid reports whether s is one of the four tiers.
func (s Speed) Valid() bool {
	return s >= SpeedSlow && s <= SpeedInstant
}

// Normalize returns s, or Standard when s is not a tier.
func (s Speed) Normalize() Speed {
	if !s.Valid() {
		return SpeedStandard
	}
	return s
}

func (s Speed) String() string {
	if !s.Valid() {
		return fmt.Sprintf("speed(%d)", int(s))
	}
	return speedNames[s-1]
}

// Multiplier returns the decimal factor applied to the live gas price.
func (s Speed) Multiplier() string {
	return speedMultipliers[s.Normalize()-1]
}

// ParseSpeed accepts a tier name; an empty string means Standard.
func ParseSpeed(s string) (Speed, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return SpeedStandard, nil
	}
	for i, n := range speedNames {
		if n == name {
			return Speed(i + 1), nil
		}
	}
	return SpeedStandard, fmt.Errorf("unknown speed tier %q (slow|standard|fast|instant)", s)
}
