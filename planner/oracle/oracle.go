// Package oracle reads two-sided pool reserves for an ordered asset pair.
package oracle

import (
	"context"
	"fmt"

	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	"github.com/Cogwheel-Validator/spectra-planner/planner/chain"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/holiman/uint256"
)

// PoolReserve is a reserve snapshot oriented in trade direction. It is a value
// type; never mutate the sides after construction.
type PoolReserve struct {
	AssetIn    string
	AssetOut   string
	ReserveIn  *uint256.Int
	ReserveOut *uint256.Int
}

// Empty reports whether either side of the pool is zero.
func (r PoolReserve) Empty() bool {
	return r.ReserveIn == nil || r.ReserveOut == nil || r.ReserveIn.IsZero() || r.ReserveOut.IsZero()
}

// ReserveOracle performs one reserve query per call. It never caches.
type ReserveOracle struct {
	catalog *catalog.Catalog
	caller  chain.Caller
}

func New(cat *catalog.Catalog, caller chain.Caller) *ReserveOracle {
	return &ReserveOracle{catalog: cat, caller: caller}
}

// ReservesFor returns the current reserves of the assetIn/assetOut pool. No
// pool yields (0, 0).
func (o *ReserveOracle) ReservesFor(ctx context.Context, assetIn, assetOut string) (PoolReserve, error) {
	in, ok := o.catalog.Asset(assetIn)
	if !ok {
		return PoolReserve{}, errs.New(errs.AssetNotSupported, errs.Metadata{Asset: assetIn})
	}
	out, ok := o.catalog.Asset(assetOut)
	if !ok {
		return PoolReserve{}, errs.New(errs.AssetNotSupported, errs.Metadata{Asset: assetOut})
	}
	if in.Chain != out.Chain {
		return PoolReserve{}, errs.New(errs.AssetNotSupported, errs.Metadata{
			Asset:  assetOut,
			Chain:  in.Chain,
			Detail: fmt.Sprintf("%s and %s live on different chains", assetIn, assetOut),
		})
	}

	reserveIn, reserveOut, err := o.caller.QueryReserve(ctx, in.Chain, assetIn, assetOut)
	if err != nil {
		return PoolReserve{}, errs.ChainQuery(in.Chain, fmt.Errorf("reserve query %s/%s: %w", assetIn, assetOut, err))
	}
	if reserveIn == nil {
		reserveIn = new(uint256.Int)
	}
	if reserveOut == nil {
		reserveOut = new(uint256.Int)
	}

	return PoolReserve{
		AssetIn:    assetIn,
		AssetOut:   assetOut,
		ReserveIn:  new(uint256.Int).Set(reserveIn),
		ReserveOut: new(uint256.Int).Set(reserveOut),
	}, nil
}
