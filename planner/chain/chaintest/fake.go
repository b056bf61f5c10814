// Package chaintest provides an in-memory implementation of every chain
// collaborator for tests.
package chaintest

import (
	"context"
	"fmt"
	"sync"

	"github.com/Cogwheel-Validator/spectra-planner/planner/chain"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	_ chain.Caller          = (*Fake)(nil)
	_ chain.DirectQuoter    = (*Fake)(nil)
	_ chain.BalanceProvider = (*Fake)(nil)
	_ chain.PriceFeed       = (*Fake)(nil)
)

type poolKey struct {
	chain, in, out string
}

type balanceKey struct {
	address, asset string
}

// Fake answers from maps filled by the test. Unknown pools read as zero
// reserves, unknown balances as zero and unknown call kinds cost DefaultFee.
type Fake struct {
	mu sync.Mutex

	reserves map[poolKey][2]*uint256.Int
	fees     map[chain.CallKind]*uint256.Int
	balances map[balanceKey]*uint256.Int
	prices   map[string]decimal.Decimal
	direct   map[poolKey]*uint256.Int

	DefaultFee *uint256.Int

	// Errors returned by the matching method when set.
	BuildErr   error
	FeeErr     error
	ReserveErr error
	BalanceErr error
	QuoteErr   error
	PriceErr   error

	Built        []chain.Call
	Payers       []string
	ReserveReads int
	BalanceReads int
}

func New() *Fake {
	return &Fake{
		reserves:   make(map[poolKey][2]*uint256.Int),
		fees:       make(map[chain.CallKind]*uint256.Int),
		balances:   make(map[balanceKey]*uint256.Int),
		prices:     make(map[string]decimal.Decimal),
		direct:     make(map[poolKey]*uint256.Int),
		DefaultFee: new(uint256.Int),
	}
}

// SetPool stores reserves for both trade directions.
func (f *Fake) SetPool(chainSlug, assetA, assetB string, reserveA, reserveB uint64) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, b := uint256.NewInt(reserveA), uint256.NewInt(reserveB)
	f.reserves[poolKey{chainSlug, assetA, assetB}] = [2]*uint256.Int{a, b}
	f.reserves[poolKey{chainSlug, assetB, assetA}] = [2]*uint256.Int{b, a}
	return f
}

func (f *Fake) SetFee(kind chain.CallKind, fee uint64) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fees[kind] = uint256.NewInt(fee)
	return f
}

func (f *Fake) SetBalance(address, asset string, amount uint64) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[balanceKey{address, asset}] = uint256.NewInt(amount)
	return f
}

func (f *Fake) SetPrice(priceID, price string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[priceID] = decimal.RequireFromString(price)
	return f
}

// SetDirectQuote fixes the QuoteExactIn answer for one direction, whatever
// the input amount.
func (f *Fake) SetDirectQuote(chainSlug, assetIn, assetOut string, out uint64) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct[poolKey{chainSlug, assetIn, assetOut}] = uint256.NewInt(out)
	return f
}

func (f *Fake) BuildCall(_ context.Context, chainSlug string, kind chain.CallKind, params map[string]string) (chain.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.BuildErr != nil {
		return chain.Call{}, f.BuildErr
	}
	call := chain.Call{
		Chain:   chainSlug,
		Kind:    kind,
		Params:  params,
		Payload: fmt.Sprintf("0x%s:%s:%d", chainSlug, kind, len(f.Built)),
	}
	f.Built = append(f.Built, call)
	return call, nil
}

func (f *Fake) EstimateFee(_ context.Context, call chain.Call, payer string) (chain.AmountData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FeeErr != nil {
		return chain.AmountData{}, f.FeeErr
	}
	f.Payers = append(f.Payers, payer)
	fee, ok := f.fees[call.Kind]
	if !ok {
		fee = f.DefaultFee
	}
	return chain.AmountData{Value: new(uint256.Int).Set(fee)}, nil
}

func (f *Fake) QueryReserve(_ context.Context, chainSlug, assetIn, assetOut string) (*uint256.Int, *uint256.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ReserveReads++
	if f.ReserveErr != nil {
		return nil, nil, f.ReserveErr
	}
	r, ok := f.reserves[poolKey{chainSlug, assetIn, assetOut}]
	if !ok {
		return new(uint256.Int), new(uint256.Int), nil
	}
	return new(uint256.Int).Set(r[0]), new(uint256.Int).Set(r[1]), nil
}

func (f *Fake) QuoteExactIn(_ context.Context, chainSlug, assetIn, assetOut string, _ *uint256.Int) (*uint256.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.QuoteErr != nil {
		return nil, f.QuoteErr
	}
	out, ok := f.direct[poolKey{chainSlug, assetIn, assetOut}]
	if !ok {
		return nil, fmt.Errorf("no direct quote for %s/%s on %s", assetIn, assetOut, chainSlug)
	}
	return new(uint256.Int).Set(out), nil
}

func (f *Fake) LiveBalance(_ context.Context, address, asset string) (*uint256.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BalanceReads++
	if f.BalanceErr != nil {
		return nil, f.BalanceErr
	}
	v, ok := f.balances[balanceKey{address, asset}]
	if !ok {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Set(v), nil
}

func (f *Fake) Price(_ context.Context, priceID string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PriceErr != nil {
		return decimal.Decimal{}, f.PriceErr
	}
	p, ok := f.prices[priceID]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("token price for %s not found", priceID)
	}
	return p, nil
}
