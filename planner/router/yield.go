package router

import (
	"context"
	"fmt"
	"time"

	"github.com/Cogwheel-Validator/spectra-planner/planner/amm"
	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	"github.com/Cogwheel-Validator/spectra-planner/planner/chain"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/Cogwheel-Validator/spectra-planner/planner/fees"
	"github.com/Cogwheel-Validator/spectra-planner/planner/plan"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PlanYield builds the plan for entering a staking or lending pool. The step
// order is: optional conversion or bridge, optional token approval, then the
// mint or bond call.
func (p *Planner) PlanYield(ctx context.Context, intent plan.YieldIntent) (pl *plan.Plan, err error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "PlanYield", trace.WithAttributes(
		attribute.String("pool", intent.Pool),
		attribute.String("asset", intent.Asset),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		p.record(ctx, "yield", start, err)
	}()

	plannerLog.Info().
		Str("pool", intent.Pool).
		Str("asset", intent.Asset).
		Str("amount", amountString(intent.Amount)).
		Str("address", intent.Address).
		Msg("Planning yield entry")

	if intent.Amount == nil || intent.Amount.IsZero() {
		return nil, fmt.Errorf("yield amount must be positive: %w", errs.ErrInvalidIntent)
	}
	yp, ok := p.catalog.YieldPool(intent.Pool)
	if !ok {
		return nil, fmt.Errorf("unknown yield pool %q: %w", intent.Pool, errs.ErrInvalidIntent)
	}
	slippage, err := p.slippage(intent.SlippageBps)
	if err != nil {
		return nil, err
	}

	assetSlug := intent.Asset
	if assetSlug == "" {
		assetSlug = yp.InputAsset
	}
	asset, ok := p.catalog.Asset(assetSlug)
	if !ok {
		return nil, errs.New(errs.AssetNotSupported, errs.Metadata{Asset: assetSlug})
	}
	input, _ := p.catalog.Asset(yp.InputAsset)
	derivative, _ := p.catalog.Asset(yp.DerivativeAsset)
	ch, _ := p.catalog.Chain(yp.Chain)

	pl = p.newPlan(plan.IntentYield, yp.Slug, intent.Address, "", yp.Chain, intent.Amount)
	ledger := &fees.Ledger{}
	sheet := p.newBalanceSheet(intent.Address)

	principal := new(uint256.Int).Set(intent.Amount)
	converted := false
	var bridge *shortfallBridge

	if asset.Slug != yp.InputAsset {
		if asset.Chain != yp.Chain {
			return nil, errs.New(errs.AssetNotSupported, errs.Metadata{
				Asset:  asset.Slug,
				Chain:  yp.Chain,
				Detail: fmt.Sprintf("%s cannot enter %s", asset.Slug, yp.Slug),
			})
		}
		route, err := FindRoute(p.catalog, asset.Slug, yp.InputAsset)
		if err != nil {
			return nil, err
		}
		res, err := p.quoter.Quote(ctx, route, principal)
		if err != nil {
			return nil, err
		}
		id := pl.AppendStep(plan.StepAssetConvert, ch.Slug, map[string]string{
			"asset_in":   asset.Slug,
			"asset_out":  yp.InputAsset,
			"amount_in":  principal.Dec(),
			"amount_out": res.Final().Dec(),
		}, &plan.Amount{Asset: asset.Slug, Amount: principal})
		err = p.chargeStep(ctx, ledger, sheet, stepCall{
			stepID:     id,
			chain:      ch,
			kind:       chain.CallAssetConvert,
			params:     map[string]string{"asset_in": asset.Slug, "asset_out": yp.InputAsset, "recipient": intent.Address},
			amount:     principal,
			inputAsset: asset.Slug,
			feeAssets:  yp.FeeAssets,
		})
		if err != nil {
			return nil, err
		}
		pl.Route = route
		pl.Reserves = res.Reserves
		pl.HopInputs = res.Inputs
		pl.HopOutputs = res.Outputs
		principal = new(uint256.Int).Set(res.Final())
		converted = true
	} else {
		principal, bridge, err = p.bridgeShortfall(ctx, pl, ledger, sheet, input, yp.AltInputAsset, intent.Amount)
		if err != nil {
			return nil, err
		}
		pl.Route = []string{yp.InputAsset, yp.DerivativeAsset}
	}

	if input.Kind == catalog.AssetContractBacked {
		id := pl.AppendStep(plan.StepTokenApproval, ch.Slug, map[string]string{
			"asset":   input.Slug,
			"spender": yp.Slug,
			"amount":  principal.Dec(),
		}, nil)
		err := p.chargeStep(ctx, ledger, sheet, stepCall{
			stepID:     id,
			chain:      ch,
			kind:       chain.CallTokenApproval,
			params:     map[string]string{"asset": input.Slug, "spender": yp.Slug},
			amount:     principal,
			inputAsset: input.Slug,
			feeAssets:  yp.FeeAssets,
		})
		if err != nil {
			return nil, err
		}
	}

	kind, callKind := plan.StepMint, chain.CallMint
	if yp.Type == catalog.YieldNativeStaking {
		kind, callKind = plan.StepBond, chain.CallBond
	}
	// after a conversion the terminal step spends what the conversion yields,
	// which is not held yet
	var terminalPrincipal *plan.Amount
	if !converted {
		terminalPrincipal = &plan.Amount{Asset: input.Slug, Amount: principal}
	}
	id := pl.AppendStep(kind, ch.Slug, map[string]string{
		"pool":       yp.Slug,
		"asset":      input.Slug,
		"derivative": derivative.Slug,
		"amount":     principal.Dec(),
	}, terminalPrincipal)
	err = p.chargeStep(ctx, ledger, sheet, stepCall{
		stepID:     id,
		chain:      ch,
		kind:       callKind,
		params:     map[string]string{"pool": yp.Slug, "asset": input.Slug, "recipient": intent.Address},
		amount:     principal,
		inputAsset: input.Slug,
		feeAssets:  yp.FeeAssets,
	})
	if err != nil {
		return nil, err
	}
	bridge.coverFees(pl, ledger)

	toAmount, err := applyExchangeRate(principal, input, derivative, yp.ExchangeRate)
	if err != nil {
		return nil, err
	}
	quoteFrom := principal
	if converted {
		quoteFrom = intent.Amount
	}

	impacts := make([]decimal.Decimal, 0, len(pl.Reserves))
	for i, r := range pl.Reserves {
		impacts = append(impacts, amm.PriceImpact(pl.HopInputs[i], pl.HopOutputs[i], r.ReserveIn, r.ReserveOut))
	}
	impact := amm.CombineImpact(impacts...)

	pl.Quote = plan.Quote{
		FromAsset:      asset.Slug,
		ToAsset:        derivative.Slug,
		FromAmount:     new(uint256.Int).Set(quoteFrom),
		ToAmount:       toAmount,
		MinReceive:     MinReceive(toAmount, slippage),
		Rate:           amm.Rate(quoteFrom, asset.Decimals, toAmount, derivative.Decimals),
		PriceImpact:    impact,
		IsLowLiquidity: impact.GreaterThanOrEqual(p.lowLiquidityImpact),
		AliveUntil:     pl.CreatedAt.Add(ch.TTL()),
		MinSwap:        yp.MinJoin,
		MinSwapAsset:   input.Slug,
	}
	pl.Fees = ledger.Entries()

	plannerLog.Info().
		Str("plan", pl.ID).
		Int("steps", len(pl.Steps)).
		Str("toAmount", toAmount.Dec()).
		Msg("Yield entry planned")
	return pl, nil
}

// applyExchangeRate converts principal of input into derivative units,
// truncating.
func applyExchangeRate(principal *uint256.Int, input, derivative catalog.Asset, rate decimal.Decimal) (*uint256.Int, error) {
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	out, err := amm.FromDecimal(amm.ToDecimal(principal, input.Decimals).Mul(rate), derivative.Decimals)
	if err != nil {
		return nil, fmt.Errorf("exchange rate for %s: %w", derivative.Slug, err)
	}
	return out, nil
}
