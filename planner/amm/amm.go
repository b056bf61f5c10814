// Package amm implements the integer pool math used for quoting. Amounts are
// in the asset's minor unit; every division truncates toward zero unless the
// function says otherwise.
package amm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// BpsDenominator is 100% expressed in basis points.
const BpsDenominator = 10_000

var (
	ErrOverflow         = errors.New("amount overflows 256 bits")
	ErrInvalidFee       = errors.New("fee must be below 10000 bps")
	ErrInsufficientPool = errors.New("requested output exceeds pool reserve")
)

var bpsDen = uint256.NewInt(BpsDenominator)

// AmountOut returns the constant-product output for amountIn against
// (reserveIn, reserveOut) with a pool fee of feeBps:
//
//	out = in*(1e4-fee)*rOut / (rIn*1e4 + in*(1e4-fee))
//
// An empty side yields zero output; liquidity errors are left to validation.
func AmountOut(amountIn, reserveIn, reserveOut *uint256.Int, feeBps uint32) (*uint256.Int, error) {
	if feeBps >= BpsDenominator {
		return nil, ErrInvalidFee
	}
	if amountIn.IsZero() || reserveIn.IsZero() || reserveOut.IsZero() {
		return new(uint256.Int), nil
	}

	inWithFee, overflow := new(uint256.Int).MulOverflow(amountIn, uint256.NewInt(uint64(BpsDenominator-feeBps)))
	if overflow {
		return nil, ErrOverflow
	}
	scaledReserve, overflow := new(uint256.Int).MulOverflow(reserveIn, bpsDen)
	if overflow {
		return nil, ErrOverflow
	}
	denominator, overflow := new(uint256.Int).AddOverflow(scaledReserve, inWithFee)
	if overflow {
		return nil, ErrOverflow
	}

	out, overflow := new(uint256.Int).MulDivOverflow(inWithFee, reserveOut, denominator)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// AmountIn returns the input needed to take amountOut out of the pool. It
// rounds up, so the result always buys at least amountOut.
func AmountIn(amountOut, reserveIn, reserveOut *uint256.Int, feeBps uint32) (*uint256.Int, error) {
	if feeBps >= BpsDenominator {
		return nil, ErrInvalidFee
	}
	if amountOut.IsZero() {
		return new(uint256.Int), nil
	}
	if reserveIn.IsZero() || !amountOut.Lt(reserveOut) {
		return nil, ErrInsufficientPool
	}

	numerator, overflow := new(uint256.Int).MulOverflow(reserveIn, amountOut)
	if overflow {
		return nil, ErrOverflow
	}
	remaining := new(uint256.Int).Sub(reserveOut, amountOut)
	denominator, overflow := new(uint256.Int).MulOverflow(remaining, uint256.NewInt(uint64(BpsDenominator-feeBps)))
	if overflow {
		return nil, ErrOverflow
	}

	in, overflow := new(uint256.Int).MulDivOverflow(numerator, bpsDen, denominator)
	if overflow {
		return nil, ErrOverflow
	}
	return in.AddUint64(in, 1), nil
}

// ApplyBps returns amount*(1e4-bps)/1e4, truncated.
func ApplyBps(amount *uint256.Int, bps uint32) *uint256.Int {
	if bps >= BpsDenominator {
		return new(uint256.Int)
	}
	out, _ := new(uint256.Int).MulDivOverflow(amount, uint256.NewInt(uint64(BpsDenominator-bps)), bpsDen)
	return out
}

// ScaleBps returns amount*bps/1e4 rounded up. Used for padding estimates,
// where rounding down would under-reserve.
func ScaleBps(amount *uint256.Int, bps uint32) *uint256.Int {
	if amount.IsZero() {
		return new(uint256.Int)
	}
	product, overflow := new(uint256.Int).MulOverflow(amount, uint256.NewInt(uint64(bps)))
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	out, rem := new(uint256.Int).DivMod(product, bpsDen, new(uint256.Int))
	if !rem.IsZero() {
		out.AddUint64(out, 1)
	}
	return out
}

// ToDecimal converts a minor-unit amount into a decimal in major units.
func ToDecimal(amount *uint256.Int, decimals int) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount.ToBig(), -int32(decimals))
}

// FromDecimal converts a decimal in major units into minor units, truncating
// any precision beyond decimals.
func FromDecimal(d decimal.Decimal, decimals int) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %s", d.String())
	}
	scaled := d.Shift(int32(decimals)).Truncate(0)
	out, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// ParseAmount parses a base-10 minor-unit amount.
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty amount")
	}
	if s[0] == '-' {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	out, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	return out, nil
}

// MustAmount is ParseAmount for constants and tests.
func MustAmount(s string) *uint256.Int {
	out, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return out
}

// Rate returns (toAmount / 10^toDecimals) / (fromAmount / 10^fromDecimals).
// A zero input gives a zero rate.
func Rate(fromAmount *uint256.Int, fromDecimals int, toAmount *uint256.Int, toDecimals int) decimal.Decimal {
	from := ToDecimal(fromAmount, fromDecimals)
	if from.IsZero() {
		return decimal.Zero
	}
	return ToDecimal(toAmount, toDecimals).DivRound(from, 18)
}

// PriceImpact returns 1 - executed/spot for one hop, where spot is the
// fee-free marginal price at the current reserves. An empty pool has an impact
// of 1.
func PriceImpact(amountIn, amountOut, reserveIn, reserveOut *uint256.Int) decimal.Decimal {
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return decimal.NewFromInt(1)
	}
	if amountIn.IsZero() {
		return decimal.Zero
	}
	spot := decimal.NewFromBigInt(amountIn.ToBig(), 0).
		Mul(decimal.NewFromBigInt(reserveOut.ToBig(), 0)).
		DivRound(decimal.NewFromBigInt(reserveIn.ToBig(), 0), 18)
	if spot.IsZero() {
		return decimal.Zero
	}
	impact := decimal.NewFromInt(1).Sub(decimal.NewFromBigInt(amountOut.ToBig(), 0).DivRound(spot, 18))
	if impact.IsNegative() {
		return decimal.Zero
	}
	return impact
}

// CombineImpact folds per-hop impacts into the impact of the whole route.
func CombineImpact(impacts ...decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	kept := one
	for _, i := range impacts {
		kept = kept.Mul(one.Sub(i))
	}
	return one.Sub(kept)
}

// Rescale moves an amount between two decimal scales, truncating when the
// target scale is coarser.
func Rescale(amount *uint256.Int, fromDecimals, toDecimals int) *uint256.Int {
	out := new(uint256.Int).Set(amount)
	switch {
	case toDecimals > fromDecimals:
		factor := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(toDecimals-fromDecimals)))
		out.Mul(out, factor)
	case toDecimals < fromDecimals:
		factor := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(fromDecimals-toDecimals)))
		out.Div(out, factor)
	}
	return out
}

// RescaleUp is Rescale rounding up, so the result never falls short of amount.
func RescaleUp(amount *uint256.Int, fromDecimals, toDecimals int) *uint256.Int {
	if toDecimals >= fromDecimals {
		return Rescale(amount, fromDecimals, toDecimals)
	}
	factor := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(fromDecimals-toDecimals)))
	out, rem := new(uint256.Int).DivMod(amount, factor, new(uint256.Int))
	if !rem.IsZero() {
		out.AddUint64(out, 1)
	}
	return out
}
