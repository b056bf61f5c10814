// Package quoter folds a route into per-hop output amounts and the reserve
// snapshots they were computed against.
package quoter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Cogwheel-Validator/spectra-planner/planner/amm"
	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	"github.com/Cogwheel-Validator/spectra-planner/planner/chain"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/Cogwheel-Validator/spectra-planner/planner/oracle"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

var quoterLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	quoterLog = zerolog.New(out).With().Timestamp().Str("component", "quoter").Logger()
}

// Result is the outcome of one quoting pass. Inputs[i] and Outputs[i] are the
// amounts entering and leaving hop i; Reserves[i] is the snapshot hop i was
// priced against.
type Result struct {
	Inputs   []*uint256.Int
	Outputs  []*uint256.Int
	Reserves []oracle.PoolReserve
}

// Final returns the amount leaving the last hop.
func (r Result) Final() *uint256.Int {
	if len(r.Outputs) == 0 {
		return new(uint256.Int)
	}
	return r.Outputs[len(r.Outputs)-1]
}

// Quoter prices routes hop by hop.
type Quoter struct {
	catalog *catalog.Catalog
	oracle  *oracle.ReserveOracle
	direct  chain.DirectQuoter
}

// New returns a Quoter. direct may be nil; it is only consulted for chains
// flagged with DirectQuote.
func New(cat *catalog.Catalog, orc *oracle.ReserveOracle, direct chain.DirectQuoter) *Quoter {
	return &Quoter{catalog: cat, oracle: orc, direct: direct}
}

// Quote walks the route left to right. A single-asset route is returned
// unchanged with no reserves. Any failing hop aborts the whole quote.
func (q *Quoter) Quote(ctx context.Context, route []string, amountIn *uint256.Int) (Result, error) {
	if len(route) == 0 {
		return Result{}, fmt.Errorf("empty route: %w", errs.ErrInvalidIntent)
	}
	if amountIn == nil {
		amountIn = new(uint256.Int)
	}
	if len(route) == 1 {
		return Result{
			Inputs:  []*uint256.Int{new(uint256.Int).Set(amountIn)},
			Outputs: []*uint256.Int{new(uint256.Int).Set(amountIn)},
		}, nil
	}

	hops := len(route) - 1
	res := Result{
		Inputs:   make([]*uint256.Int, 0, hops),
		Outputs:  make([]*uint256.Int, 0, hops),
		Reserves: make([]oracle.PoolReserve, 0, hops),
	}

	in := new(uint256.Int).Set(amountIn)
	for i := 0; i < hops; i++ {
		out, reserve, err := q.hop(ctx, route[i], route[i+1], in)
		if err != nil {
			return Result{}, err
		}
		quoterLog.Debug().
			Int("hop", i).
			Str("assetIn", route[i]).
			Str("assetOut", route[i+1]).
			Str("amountIn", in.Dec()).
			Str("amountOut", out.Dec()).
			Msg("Quoted hop")

		res.Inputs = append(res.Inputs, in)
		res.Outputs = append(res.Outputs, out)
		res.Reserves = append(res.Reserves, reserve)
		in = new(uint256.Int).Set(out)
	}
	return res, nil
}

func (q *Quoter) hop(ctx context.Context, assetIn, assetOut string, amountIn *uint256.Int) (*uint256.Int, oracle.PoolReserve, error) {
	reserve, err := q.oracle.ReservesFor(ctx, assetIn, assetOut)
	if err != nil {
		return nil, oracle.PoolReserve{}, err
	}

	ch, _ := q.catalog.ChainOf(assetIn)
	if ch.DirectQuote && q.direct != nil {
		out, err := q.direct.QuoteExactIn(ctx, ch.Slug, assetIn, assetOut, amountIn)
		if err != nil {
			return nil, oracle.PoolReserve{}, errs.ChainQuery(ch.Slug, fmt.Errorf("direct quote %s/%s: %w", assetIn, assetOut, err))
		}
		if out == nil {
			out = new(uint256.Int)
		}
		return out, reserve, nil
	}

	var feeBps uint32
	if pool, ok := q.catalog.Pool(assetIn, assetOut); ok {
		feeBps = pool.FeeBps
	}
	out, err := amm.AmountOut(amountIn, reserve.ReserveIn, reserve.ReserveOut, feeBps)
	if err != nil {
		return nil, oracle.PoolReserve{}, fmt.Errorf("hop %s/%s: %w", assetIn, assetOut, err)
	}
	return out, reserve, nil
}
