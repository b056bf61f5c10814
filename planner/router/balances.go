package router

import (
	"context"
	"fmt"

	"github.com/Cogwheel-Validator/spectra-planner/planner/chain"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/holiman/uint256"
)

// balanceSheet reads each balance at most once per planning request. It is
// never shared between requests.
type balanceSheet struct {
	provider chain.BalanceProvider
	address  string
	chainOf  func(asset string) string
	cache    map[string]*uint256.Int
}

func (p *Planner) newBalanceSheet(address string) *balanceSheet {
	return &balanceSheet{
		provider: p.balances,
		address:  address,
		chainOf: func(asset string) string {
			a, _ := p.catalog.Asset(asset)
			return a.Chain
		},
		cache: make(map[string]*uint256.Int),
	}
}

// known reports whether balances can be read at all.
func (b *balanceSheet) known() bool {
	return b.provider != nil && b.address != ""
}

// get returns the balance of asset, or zero when the payer is unknown.
func (b *balanceSheet) get(ctx context.Context, asset string) (*uint256.Int, error) {
	if v, ok := b.cache[asset]; ok {
		return v, nil
	}
	if !b.known() {
		return new(uint256.Int), nil
	}
	v, err := b.provider.LiveBalance(ctx, b.address, asset)
	if err != nil {
		return nil, errs.ChainQuery(b.chainOf(asset), fmt.Errorf("balance of %s: %w", asset, err))
	}
	if v == nil {
		v = new(uint256.Int)
	}
	b.cache[asset] = v
	return v, nil
}

// snapshot returns the balances of the given assets.
func (b *balanceSheet) snapshot(ctx context.Context, assets ...string) (map[string]*uint256.Int, error) {
	out := make(map[string]*uint256.Int, len(assets))
	for _, a := range assets {
		v, err := b.get(ctx, a)
		if err != nil {
			return nil, err
		}
		out[a] = v
	}
	return out, nil
}
