package chain

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// ErrInvalidAmount is returned for malformed or negative decimal amounts.
var ErrInvalidAmount = errors.New("invalid amount")

// decimalRe accepts plain decimals only. big.Rat alone would also take
// "0x10", "1/2", "1e2" and signs.
var decimalRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

func parseDecimal(s string) (*big.Rat, bool) {
	if !decimalRe.MatchString(s) {
		return nil, false
	}
	return new(big.Rat).SetString(s)
}

// ParseUnits converts a decimal string ("0.001") into integer base units
// using the given number of decimals. Digits beyond the precision are
// rejected rather than rounded.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, amount)
	}
	r, ok := parseDecimal(s)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, amount)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))
	if !r.IsInt() {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, amount, decimals)
	}
	return new(big.Int).Set(r.Num()), nil
}

// FormatUnits renders base units as a decimal string with trailing zeros trimmed.
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	if decimals <= 0 {
		return v.String()
	}
	neg := v.Sign() < 0
	digits := new(big.Int).Abs(v).String()
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}
	whole, frac := digits[:len(digits)-decimals], strings.TrimRight(digits[len(digits)-decimals:], "0")
	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

// ParseGwei converts a gwei decimal string ("1.5") into wei.
func ParseGwei(gwei string) (*big.Int, error) {
	return ParseUnits(gwei, 9)
}

// FormatGwei renders a wei amount in gwei.
func FormatGwei(wei *big.Int) string {
	return FormatUnits(wei, 9)
}

// GweiToWei converts a whole-gwei integer to wei.
func GweiToWei(gwei uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(gwei), big.NewInt(params.GWei))
}

// ScaleRat multiplies v by the decimal factor (e.g. "1.2"), truncating toward zero.
func ScaleRat(v *big.Int, factor string) (*big.Int, error) {
	f, ok := parseDecimal(strings.TrimSpace(factor))
	if !ok || f.Sign() <= 0 {
		return nil, fmt.Errorf("%w: multiplier %q", ErrInvalidAmount, factor)
	}
	r := new(big.Rat).Mul(new(big.Rat).SetInt(v), f)
	return new(big.Int).Quo(r.Num(), r.Denom()), nil
}
