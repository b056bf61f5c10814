// Package validation decides whether a plan can be executed with the payer's
// current balances before anything is signed.
package validation

import (
	"time"

	"github.com/Cogwheel-Validator/spectra-planner/planner/address"
	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/Cogwheel-Validator/spectra-planner/planner/plan"
	"github.com/holiman/uint256"
)

// Input is everything a validation pass depends on besides the plan.
type Input struct {
	// Balances maps asset slug to live balance. Missing assets count as zero.
	Balances map[string]*uint256.Int
	// Settled holds the ids of bridge steps that are confirmed.
	Settled map[int]bool
	Now     time.Time
}

// Engine runs the checks in a fixed order and stops at the first failure. It
// performs no I/O.
type Engine struct {
	catalog *catalog.Catalog
}

func NewEngine(cat *catalog.Catalog) *Engine {
	return &Engine{catalog: cat}
}

type check func(*Engine, *plan.Plan, Input) (*errs.ValidationError, bool)

// stop=true ends the pass; a nil error with stop=true means feasible.
var checks = []check{
	(*Engine).checkExpiry,
	(*Engine).checkFees,
	(*Engine).checkPrincipal,
	(*Engine).checkPendingBridge,
	(*Engine).checkMinimum,
	(*Engine).checkCeiling,
	(*Engine).checkLiquidity,
	(*Engine).checkPoolFloors,
	(*Engine).checkRecipient,
}

// Validate returns nil when the plan is feasible and a *errs.ValidationError
// otherwise.
func (e *Engine) Validate(p *plan.Plan, in Input) error {
	for _, c := range checks {
		if verr, stop := c(e, p, in); stop {
			if verr != nil {
				return verr
			}
			return nil
		}
	}
	return nil
}

func (e *Engine) checkExpiry(p *plan.Plan, in Input) (*errs.ValidationError, bool) {
	if !p.Expired(in.Now) {
		return nil, false
	}
	return errs.New(errs.QuoteExpired, errs.Metadata{
		Detail: "quote expired at " + p.Quote.AliveUntil.UTC().Format(time.RFC3339),
	}), true
}

func (e *Engine) checkFees(p *plan.Plan, in Input) (*errs.ValidationError, bool) {
	ledger := p.Ledger()
	payable := ledger.PayableByAsset()
	incoming := pendingIncoming(p, in.Settled)
	for _, asset := range ledger.Assets() {
		fee, ok := payable[asset]
		if !ok || fee.IsZero() {
			continue
		}
		if available(in, incoming, asset).Gt(fee) {
			continue
		}
		md := e.amountMeta(asset, fee)
		md.FeeCheck = true
		return errs.New(errs.NotEnoughBalance, md), true
	}
	return nil, false
}

func (e *Engine) checkPrincipal(p *plan.Plan, in Input) (*errs.ValidationError, bool) {
	payable := p.Ledger().PayableByAsset()
	incoming := pendingIncoming(p, in.Settled)
	needed := make(map[string]*uint256.Int)
	var order []string
	for _, s := range p.Steps {
		if s.Principal == nil {
			continue
		}
		fee, isFeeAsset := payable[s.Principal.Asset]
		if !isFeeAsset {
			continue
		}
		cur, ok := needed[s.Principal.Asset]
		if !ok {
			cur = new(uint256.Int).Set(fee)
			needed[s.Principal.Asset] = cur
			order = append(order, s.Principal.Asset)
		}
		cur.Add(cur, s.Principal.Amount)
	}
	for _, asset := range order {
		total := needed[asset]
		if available(in, incoming, asset).Gt(total) {
			continue
		}
		return errs.New(errs.NotEnoughBalance, e.amountMeta(asset, total)), true
	}
	return nil, false
}

func (e *Engine) checkPendingBridge(p *plan.Plan, in Input) (*errs.ValidationError, bool) {
	_, pending := p.PendingBridge(in.Settled)
	return nil, pending
}

func (e *Engine) checkMinimum(p *plan.Plan, in Input) (*errs.ValidationError, bool) {
	q := p.Quote
	if q.MinSwap == nil || q.MinSwap.IsZero() {
		return nil, false
	}
	asset := q.MinSwapAsset
	if asset == "" {
		asset = q.FromAsset
	}
	subject := balance(in, asset)
	if asset != q.FromAsset {
		// the floor is on the converted amount, which is not held yet
		subject = p.Delivered(asset)
	}
	if subject.Gt(q.MinSwap) {
		return nil, false
	}
	return errs.New(errs.SwapBelowMinimum, e.amountMeta(asset, q.MinSwap)), true
}

func (e *Engine) checkCeiling(p *plan.Plan, in Input) (*errs.ValidationError, bool) {
	bal := balance(in, p.Quote.FromAsset)
	if p.Quote.FromAmount == nil || p.Quote.FromAmount.Lt(bal) {
		return nil, false
	}
	return errs.New(errs.SwapExceedsAvailable, e.amountMeta(p.Quote.FromAsset, bal)), true
}

func (e *Engine) checkLiquidity(p *plan.Plan, in Input) (*errs.ValidationError, bool) {
	for i, r := range p.Reserves {
		if r.Empty() {
			md := e.chainMeta(r.AssetOut)
			md.Hop = i
			return errs.New(errs.AssetNotSupported, md), true
		}
		if i < len(p.HopInputs) && !p.HopInputs[i].Lt(r.ReserveIn) {
			md := e.amountMeta(r.AssetIn, r.ReserveIn)
			md.Hop = i
			return errs.New(errs.NotEnoughLiquidity, md), true
		}
	}
	return nil, false
}

// checkPoolFloors projects every hop from the captured snapshot on its own;
// hop i+1 does not see hop i's post-trade reserves.
func (e *Engine) checkPoolFloors(p *plan.Plan, in Input) (*errs.ValidationError, bool) {
	for i, r := range p.Reserves {
		if i >= len(p.HopInputs) || i >= len(p.HopOutputs) {
			break
		}
		floorIn, floorOut := e.catalog.Floors(r.AssetIn, r.AssetOut)

		postIn, overflow := new(uint256.Int).AddOverflow(r.ReserveIn, p.HopInputs[i])
		if !overflow && postIn.Lt(floorIn) {
			md := e.amountMeta(r.AssetIn, floorIn)
			md.Hop = i
			return errs.New(errs.PoolBelowExistential, md), true
		}
		if r.ReserveOut.Lt(p.HopOutputs[i]) || new(uint256.Int).Sub(r.ReserveOut, p.HopOutputs[i]).Lt(floorOut) {
			md := e.amountMeta(r.AssetOut, floorOut)
			md.Hop = i
			return errs.New(errs.PoolBelowExistential, md), true
		}
	}
	return nil, false
}

func (e *Engine) checkRecipient(p *plan.Plan, in Input) (*errs.ValidationError, bool) {
	if p.Recipient == "" {
		return nil, true
	}
	ch, ok := e.catalog.Chain(p.DestChain)
	if !ok {
		return nil, true
	}
	if address.Compatible(p.Recipient, ch.Family) {
		return nil, true
	}
	return errs.New(errs.InvalidRecipient, errs.Metadata{
		Chain:     ch.Slug,
		ChainName: ch.Name,
		Detail:    string(ch.Family),
	}), true
}

func (e *Engine) amountMeta(asset string, value *uint256.Int) errs.Metadata {
	md := e.chainMeta(asset)
	md.Amount = &errs.AmountMeta{Value: new(uint256.Int).Set(value)}
	if a, ok := e.catalog.Asset(asset); ok {
		md.Amount.Decimals = a.Decimals
		md.Amount.Symbol = a.Symbol
	}
	return md
}

func (e *Engine) chainMeta(asset string) errs.Metadata {
	md := errs.Metadata{Asset: asset}
	if ch, ok := e.catalog.ChainOf(asset); ok {
		md.Chain = ch.Slug
		md.ChainName = ch.Name
	}
	return md
}

func balance(in Input, asset string) *uint256.Int {
	if v, ok := in.Balances[asset]; ok && v != nil {
		return v
	}
	return new(uint256.Int)
}

// pendingIncoming sums what unsettled bridge steps will deliver, per asset.
func pendingIncoming(p *plan.Plan, settled map[int]bool) map[string]*uint256.Int {
	out := make(map[string]*uint256.Int)
	for _, s := range p.Steps {
		if s.Kind != plan.StepXcmTransfer || s.Incoming == nil || settled[s.ID] {
			continue
		}
		if cur, ok := out[s.Incoming.Asset]; ok {
			cur.Add(cur, s.Incoming.Amount)
		} else {
			out[s.Incoming.Asset] = new(uint256.Int).Set(s.Incoming.Amount)
		}
	}
	return out
}

func available(in Input, incoming map[string]*uint256.Int, asset string) *uint256.Int {
	total := new(uint256.Int).Set(balance(in, asset))
	if v, ok := incoming[asset]; ok {
		total.Add(total, v)
	}
	return total
}
