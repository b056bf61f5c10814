package router

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Cogwheel-Validator/spectra-planner/planner/amm"
	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	"github.com/Cogwheel-Validator/spectra-planner/planner/chain"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/Cogwheel-Validator/spectra-planner/planner/fees"
	"github.com/Cogwheel-Validator/spectra-planner/planner/plan"
	"github.com/Cogwheel-Validator/spectra-planner/planner/quoter"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PlanSwap builds the plan for swapping intent.FromAmount of intent.From into
// intent.To. A short From balance is topped up from the pair's alternative
// asset with a bridge step when the payer holds any of it.
func (p *Planner) PlanSwap(ctx context.Context, intent plan.SwapIntent) (pl *plan.Plan, err error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "PlanSwap", trace.WithAttributes(
		attribute.String("from", intent.From),
		attribute.String("to", intent.To),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		p.record(ctx, "swap", start, err)
	}()

	plannerLog.Info().
		Str("from", intent.From).
		Str("to", intent.To).
		Str("amount", amountString(intent.FromAmount)).
		Str("address", intent.Address).
		Msg("Planning swap")

	if intent.FromAmount == nil || intent.FromAmount.IsZero() {
		return nil, fmt.Errorf("swap amount must be positive: %w", errs.ErrInvalidIntent)
	}
	if intent.From == intent.To {
		return nil, fmt.Errorf("cannot swap %s into itself: %w", intent.From, errs.ErrInvalidIntent)
	}
	slippage, err := p.slippage(intent.SlippageBps)
	if err != nil {
		return nil, err
	}

	pair, ok := p.catalog.Pair(intent.From, intent.To)
	if !ok {
		return nil, errs.New(errs.AssetNotSupported, errs.Metadata{
			Asset:  intent.To,
			Detail: fmt.Sprintf("pair %s->%s is not listed", intent.From, intent.To),
		})
	}
	if err := pair.Validate(p.catalog); err != nil {
		return nil, fmt.Errorf("%v: %w", err, errs.ErrInvalidIntent)
	}

	fromAsset, _ := p.catalog.Asset(intent.From)
	toAsset, _ := p.catalog.Asset(intent.To)
	fromChain, _ := p.catalog.Chain(fromAsset.Chain)

	pl = p.newPlan(plan.IntentSwap, intent.From+"->"+intent.To, intent.Address, intent.Recipient, toAsset.Chain, intent.FromAmount)
	ledger := &fees.Ledger{}
	sheet := p.newBalanceSheet(intent.Address)

	if pair.PathKind == catalog.PathXCM {
		if err := p.planTransfer(ctx, pl, ledger, sheet, fromAsset, toAsset, intent.FromAmount); err != nil {
			return nil, err
		}
	} else {
		principal, bridge, err := p.bridgeShortfall(ctx, pl, ledger, sheet, fromAsset, pair.AlternativeAsset, intent.FromAmount)
		if err != nil {
			return nil, err
		}

		route, err := FindRoute(p.catalog, intent.From, intent.To)
		if err != nil {
			return nil, err
		}
		res, err := p.quoter.Quote(ctx, route, principal)
		if err != nil {
			return nil, err
		}

		recipient := intent.Recipient
		if recipient == "" {
			recipient = intent.Address
		}
		if err := p.appendSwapSteps(ctx, pl, ledger, sheet, fromChain, route, res, recipient); err != nil {
			return nil, err
		}
		bridge.coverFees(pl, ledger)
		p.finishQuote(pl, route, res, principal, slippage, fromChain.TTL())
	}

	pl.Quote.MinSwap = pair.MinSwap
	pl.Quote.MinSwapAsset = pair.From
	pl.Quote.MaxSwap = pair.MaxSwap
	pl.Fees = ledger.Entries()

	plannerLog.Info().
		Str("plan", pl.ID).
		Int("steps", len(pl.Steps)).
		Str("toAmount", pl.Quote.ToAmount.Dec()).
		Bool("lowLiquidity", pl.Quote.IsLowLiquidity).
		Msg("Swap planned")
	return pl, nil
}

func (p *Planner) newPlan(kind plan.IntentKind, target, address, recipient, destChain string, requested *uint256.Int) *plan.Plan {
	return &plan.Plan{
		ID:              uuid.NewString(),
		Intent:          kind,
		Target:          target,
		Address:         address,
		Recipient:       recipient,
		DestChain:       destChain,
		RequestedAmount: new(uint256.Int).Set(requested),
		CreatedAt:       p.now(),
	}
}

func (p *Planner) slippage(bps uint32) (uint32, error) {
	if bps == 0 {
		return p.slippageBps, nil
	}
	if bps >= amm.BpsDenominator {
		return 0, fmt.Errorf("slippage %d bps out of range: %w", bps, errs.ErrInvalidIntent)
	}
	return bps, nil
}

// bridgeShortfall prepends a bridge step when the payer holds less than amount
// of target and some alt. It returns the principal left after the inbound fee
// and the bridge, which is nil when none was added.
func (p *Planner) bridgeShortfall(
	ctx context.Context,
	pl *plan.Plan,
	ledger *fees.Ledger,
	sheet *balanceSheet,
	target catalog.Asset,
	alt string,
	amount *uint256.Int,
) (*uint256.Int, *shortfallBridge, error) {
	principal := new(uint256.Int).Set(amount)
	if alt == "" || !sheet.known() {
		return principal, nil, nil
	}
	have, err := sheet.get(ctx, target.Slug)
	if err != nil {
		return nil, nil, err
	}
	if !have.Lt(amount) {
		return principal, nil, nil
	}
	altHave, err := sheet.get(ctx, alt)
	if err != nil {
		return nil, nil, err
	}
	if altHave.IsZero() {
		return principal, nil, nil
	}

	altAsset, _ := p.catalog.Asset(alt)
	altChain, _ := p.catalog.Chain(altAsset.Chain)
	destChain, _ := p.catalog.Chain(target.Chain)

	inbound := inboundFee(destChain)
	if !inbound.Lt(amount) {
		return nil, nil, fmt.Errorf("amount %s does not cover the %s inbound fee %s: %w",
			amount.Dec(), destChain.Slug, inbound.Dec(), errs.ErrInvalidIntent)
	}

	// the settled balance must stay strictly above what the later steps
	// spend, so the top-up carries the existential deposit or one unit
	reserve := uint256.NewInt(1)
	if target.MinAmount != nil && !target.MinAmount.IsZero() {
		reserve.Set(target.MinAmount)
	}
	missing := new(uint256.Int).Sub(amount, have)
	b := &shortfallBridge{
		target:  target,
		alt:     altAsset,
		inbound: inbound,
		topUp:   new(uint256.Int).Add(missing, reserve),
	}
	send := b.send()

	metadata := map[string]string{
		"asset":      alt,
		"dest_chain": target.Chain,
		"dest_asset": target.Slug,
		"descriptor": altAsset.CrossChainDescriptor,
	}
	b.stepID = pl.AppendStep(plan.StepXcmTransfer, altChain.Slug, metadata, &plan.Amount{Asset: alt, Amount: send})
	pl.SetIncoming(b.stepID, plan.Amount{Asset: target.Slug, Amount: b.arriving()})

	plannerLog.Info().
		Str("plan", pl.ID).
		Str("alt", alt).
		Str("target", target.Slug).
		Str("send", send.Dec()).
		Msg("Bridging balance shortfall")

	err = p.chargeStep(ctx, ledger, sheet, stepCall{
		stepID:     b.stepID,
		chain:      altChain,
		kind:       chain.CallXcmTransfer,
		params:     map[string]string{"asset": alt, "dest_chain": target.Chain, "recipient": sheet.address},
		amount:     send,
		inputAsset: alt,
		paddingBps: p.xcmFeePaddingBps,
	})
	if err != nil {
		return nil, nil, err
	}
	if !inbound.IsZero() {
		ledger.Add(fees.Entry{
			StepID:        b.stepID,
			AssetSlug:     target.Slug,
			Amount:        inbound,
			Kind:          fees.KindNetwork,
			FromPrincipal: true,
		})
	}
	return principal.Sub(principal, inbound), b, nil
}

// shortfallBridge is a bridge step added by bridgeShortfall. Its size is
// final only after coverFees has seen every later step's fee.
type shortfallBridge struct {
	stepID  int
	target  catalog.Asset
	alt     catalog.Asset
	inbound *uint256.Int
	// topUp is what the payer needs on the destination before the inbound
	// fee is taken.
	topUp *uint256.Int
}

// send is topUp in alt units, rounded up.
func (b *shortfallBridge) send() *uint256.Int {
	return amm.RescaleUp(b.topUp, b.target.Decimals, b.alt.Decimals)
}

func (b *shortfallBridge) arriving() *uint256.Int {
	out := new(uint256.Int)
	if b.inbound.Lt(b.topUp) {
		out.Sub(b.topUp, b.inbound)
	}
	return out
}

// coverFees grows the bridge by the fees ledger charges in the target asset
// from balance. It is a no-op on a nil bridge.
func (b *shortfallBridge) coverFees(pl *plan.Plan, ledger *fees.Ledger) {
	if b == nil {
		return
	}
	fee, ok := ledger.PayableByAsset()[b.target.Slug]
	if !ok || fee.IsZero() {
		return
	}
	b.topUp.Add(b.topUp, fee)
	pl.Steps[b.stepID].Principal = &plan.Amount{Asset: b.alt.Slug, Amount: b.send()}
	pl.SetIncoming(b.stepID, plan.Amount{Asset: b.target.Slug, Amount: b.arriving()})

	plannerLog.Debug().
		Str("plan", pl.ID).
		Str("fee", fee.Dec()).
		Str("send", pl.Steps[b.stepID].Principal.Amount.Dec()).
		Msg("Bridge grown to cover fees")
}

// planTransfer fills a plan for a pure cross-chain transfer pair.
func (p *Planner) planTransfer(
	ctx context.Context,
	pl *plan.Plan,
	ledger *fees.Ledger,
	sheet *balanceSheet,
	from, to catalog.Asset,
	amount *uint256.Int,
) error {
	srcChain, _ := p.catalog.Chain(from.Chain)
	dstChain, _ := p.catalog.Chain(to.Chain)

	inbound := inboundFee(dstChain)
	delivered := amm.Rescale(amount, from.Decimals, to.Decimals)
	if !inbound.Lt(delivered) {
		return fmt.Errorf("amount %s does not cover the %s inbound fee %s: %w",
			amount.Dec(), dstChain.Slug, inbound.Dec(), errs.ErrInvalidIntent)
	}
	arriving := new(uint256.Int).Sub(delivered, inbound)

	recipient := pl.Recipient
	if recipient == "" {
		recipient = pl.Address
	}
	metadata := map[string]string{
		"asset":      from.Slug,
		"dest_chain": to.Chain,
		"dest_asset": to.Slug,
		"descriptor": from.CrossChainDescriptor,
	}
	id := pl.AppendStep(plan.StepXcmTransfer, srcChain.Slug, metadata, &plan.Amount{Asset: from.Slug, Amount: amount})
	pl.SetIncoming(id, plan.Amount{Asset: to.Slug, Amount: arriving})

	err := p.chargeStep(ctx, ledger, sheet, stepCall{
		stepID:     id,
		chain:      srcChain,
		kind:       chain.CallXcmTransfer,
		params:     map[string]string{"asset": from.Slug, "dest_chain": to.Chain, "recipient": recipient},
		amount:     amount,
		inputAsset: from.Slug,
		paddingBps: p.xcmFeePaddingBps,
	})
	if err != nil {
		return err
	}
	if !inbound.IsZero() {
		ledger.Add(fees.Entry{
			StepID:        id,
			AssetSlug:     to.Slug,
			Amount:        inbound,
			Kind:          fees.KindNetwork,
			FromPrincipal: true,
		})
	}

	pl.Route = []string{from.Slug, to.Slug}
	pl.Quote = plan.Quote{
		FromAsset:   from.Slug,
		ToAsset:     to.Slug,
		FromAmount:  new(uint256.Int).Set(amount),
		ToAmount:    arriving,
		MinReceive:  new(uint256.Int).Set(arriving),
		Rate:        amm.Rate(amount, from.Decimals, arriving, to.Decimals),
		PriceImpact: decimal.Zero,
		AliveUntil:  pl.CreatedAt.Add(srcChain.TTL()),
	}
	return nil
}

// appendSwapSteps adds the swap calls for route, batched or per hop following
// the chain's convention, and records the pools' trade fees.
func (p *Planner) appendSwapSteps(
	ctx context.Context,
	pl *plan.Plan,
	ledger *fees.Ledger,
	sheet *balanceSheet,
	ch catalog.Chain,
	route []string,
	res quoter.Result,
	recipient string,
) error {
	hops := len(res.Reserves)
	hopStep := make([]int, hops)

	if ch.SwapBatching == catalog.BatchingPerHop {
		for i := 0; i < hops; i++ {
			var principal *plan.Amount
			if i == 0 {
				principal = &plan.Amount{Asset: route[0], Amount: res.Inputs[0]}
			}
			metadata := map[string]string{
				"asset_in":   route[i],
				"asset_out":  route[i+1],
				"amount_in":  res.Inputs[i].Dec(),
				"amount_out": res.Outputs[i].Dec(),
				"hop":        strconv.Itoa(i),
			}
			id := pl.AppendStep(plan.StepSwap, ch.Slug, metadata, principal)
			hopStep[i] = id
			err := p.chargeStep(ctx, ledger, sheet, stepCall{
				stepID:     id,
				chain:      ch,
				kind:       chain.CallSwap,
				params:     map[string]string{"asset_in": route[i], "asset_out": route[i+1], "recipient": recipient},
				amount:     res.Inputs[i],
				inputAsset: route[i],
			})
			if err != nil {
				return err
			}
		}
	} else {
		metadata := map[string]string{
			"route":      strings.Join(route, ","),
			"amount_in":  res.Inputs[0].Dec(),
			"amount_out": res.Final().Dec(),
		}
		id := pl.AppendStep(plan.StepSwap, ch.Slug, metadata, &plan.Amount{Asset: route[0], Amount: res.Inputs[0]})
		for i := range hopStep {
			hopStep[i] = id
		}
		err := p.chargeStep(ctx, ledger, sheet, stepCall{
			stepID:     id,
			chain:      ch,
			kind:       chain.CallSwap,
			params:     map[string]string{"route": strings.Join(route, ","), "recipient": recipient},
			amount:     res.Inputs[0],
			inputAsset: route[0],
		})
		if err != nil {
			return err
		}
	}

	if ch.DirectQuote {
		return nil
	}
	for i, r := range res.Reserves {
		pool, ok := p.catalog.Pool(route[i], route[i+1])
		if !ok || pool.FeeBps == 0 {
			continue
		}
		gross, err := amm.AmountOut(res.Inputs[i], r.ReserveIn, r.ReserveOut, 0)
		if err != nil || !res.Outputs[i].Lt(gross) {
			continue
		}
		ledger.Add(fees.Entry{
			StepID:        hopStep[i],
			AssetSlug:     route[i+1],
			Amount:        new(uint256.Int).Sub(gross, res.Outputs[i]),
			Kind:          fees.KindPlatform,
			FromPrincipal: true,
		})
	}
	return nil
}

// finishQuote copies the quoting pass into the plan and derives the quote.
func (p *Planner) finishQuote(pl *plan.Plan, route []string, res quoter.Result, principal *uint256.Int, slippageBps uint32, ttl time.Duration) {
	from, _ := p.catalog.Asset(route[0])
	to, _ := p.catalog.Asset(route[len(route)-1])
	toAmount := new(uint256.Int).Set(res.Final())
	if len(res.Reserves) == 0 {
		toAmount = amm.Rescale(principal, from.Decimals, to.Decimals)
	}

	pl.Route = route
	pl.Reserves = res.Reserves
	if len(res.Reserves) > 0 {
		pl.HopInputs = res.Inputs
		pl.HopOutputs = res.Outputs
	}

	impacts := make([]decimal.Decimal, 0, len(res.Reserves))
	for i, r := range res.Reserves {
		impacts = append(impacts, amm.PriceImpact(res.Inputs[i], res.Outputs[i], r.ReserveIn, r.ReserveOut))
	}
	impact := amm.CombineImpact(impacts...)

	pl.Quote = plan.Quote{
		FromAsset:      from.Slug,
		ToAsset:        to.Slug,
		FromAmount:     new(uint256.Int).Set(principal),
		ToAmount:       toAmount,
		MinReceive:     MinReceive(toAmount, slippageBps),
		Rate:           amm.Rate(principal, from.Decimals, toAmount, to.Decimals),
		PriceImpact:    impact,
		IsLowLiquidity: impact.GreaterThanOrEqual(p.lowLiquidityImpact),
		AliveUntil:     pl.CreatedAt.Add(ttl),
	}
}

func inboundFee(ch catalog.Chain) *uint256.Int {
	if ch.XcmInboundFee == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(ch.XcmInboundFee)
}

func amountString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
