package router

import (
	"context"
	"fmt"

	"github.com/Cogwheel-Validator/spectra-planner/planner/amm"
	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	"github.com/Cogwheel-Validator/spectra-planner/planner/chain"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/Cogwheel-Validator/spectra-planner/planner/fees"
	"github.com/holiman/uint256"
)

// stepCall describes the call a step will make, for fee estimation.
type stepCall struct {
	stepID int
	chain  catalog.Chain
	kind   chain.CallKind
	params map[string]string
	// amount moved by the call; zero means a probe and yields a zero fee.
	amount *uint256.Int
	// inputAsset may stand in for the primary fee asset.
	inputAsset string
	// feeAssets overrides the chain's accepted fee assets.
	feeAssets  []string
	paddingBps uint32
}

// chargeStep estimates the network fee of sc and appends it to the ledger in
// the chosen fee asset.
func (p *Planner) chargeStep(ctx context.Context, ledger *fees.Ledger, sheet *balanceSheet, sc stepCall) error {
	if sc.amount == nil || sc.amount.IsZero() {
		plannerLog.Debug().Int("step", sc.stepID).Msg("Zero amount step, skipping fee estimate")
		return nil
	}

	payer := sheet.address
	if payer == "" {
		payer = sc.chain.ProbeAddress
	}
	params := make(map[string]string, len(sc.params)+2)
	for k, v := range sc.params {
		params[k] = v
	}
	params["amount"] = sc.amount.Dec()
	if params["recipient"] == "" {
		params["recipient"] = sc.chain.ProbeAddress
	}

	call, err := p.caller.BuildCall(ctx, sc.chain.Slug, sc.kind, params)
	if err != nil {
		return errs.ChainQuery(sc.chain.Slug, fmt.Errorf("build %s call: %w", sc.kind, err))
	}
	estimate, err := p.caller.EstimateFee(ctx, call, payer)
	if err != nil {
		return errs.ChainQuery(sc.chain.Slug, fmt.Errorf("estimate %s fee: %w", sc.kind, err))
	}
	fee := estimate.Value
	if fee == nil {
		fee = new(uint256.Int)
	}
	if sc.paddingBps > 0 {
		fee = amm.ScaleBps(fee, sc.paddingBps)
	}

	candidates := sc.feeAssets
	if len(candidates) == 0 {
		candidates = sc.chain.FeeAssets
	}
	if len(candidates) == 0 {
		candidates = []string{sc.chain.NativeAsset}
	}
	primary := candidates[0]

	balances, err := sheet.snapshot(ctx, uniq(primary, sc.inputAsset)...)
	if err != nil {
		return err
	}
	feeAsset := fees.ChooseFeeAsset(candidates, sc.inputAsset, balances)
	if feeAsset != primary {
		converted, err := p.convertFee(ctx, fee, feeAsset, primary)
		if errs.TagOf(err) == errs.ChainQueryFailed {
			return err
		}
		if err != nil {
			plannerLog.Warn().Err(err).
				Str("feeAsset", feeAsset).
				Str("primary", primary).
				Msg("Fee conversion failed, charging the primary fee asset")
			feeAsset = primary
		} else {
			fee = converted
		}
	}

	ledger.Add(fees.Entry{
		StepID:    sc.stepID,
		AssetSlug: feeAsset,
		Amount:    fee,
		Kind:      fees.KindNetwork,
	})
	return nil
}

// convertFee prices fee (in primary) in units of asset using a fresh reserve
// read of the asset/primary pool.
func (p *Planner) convertFee(ctx context.Context, fee *uint256.Int, asset, primary string) (*uint256.Int, error) {
	pool, ok := p.catalog.Pool(asset, primary)
	if !ok {
		return nil, fmt.Errorf("no pool between %s and %s", asset, primary)
	}
	reserve, err := p.oracle.ReservesFor(ctx, asset, primary)
	if err != nil {
		return nil, err
	}
	return fees.ConvertViaPool(fee, reserve, pool.FeeBps)
}

func uniq(slugs ...string) []string {
	out := make([]string, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
