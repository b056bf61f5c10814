// Package plan holds the output of the planner: an ordered list of steps, the
// fees they charge and the quote they were built for.
package plan

import (
	"time"

	"github.com/Cogwheel-Validator/spectra-planner/planner/fees"
	"github.com/Cogwheel-Validator/spectra-planner/planner/oracle"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// StepKind is the on-chain action of a step.
type StepKind string

const (
	StepXcmTransfer   StepKind = "XCM_TRANSFER"
	StepTokenApproval StepKind = "TOKEN_APPROVAL"
	StepAssetConvert  StepKind = "ASSET_CONVERT"
	StepSwap          StepKind = "SWAP"
	StepMint          StepKind = "MINT"
	StepBond          StepKind = "BOND"
)

// IntentKind says which request a plan answers.
type IntentKind string

const (
	IntentSwap  IntentKind = "SWAP"
	IntentYield IntentKind = "YIELD"
)

// Amount is an amount of one asset.
type Amount struct {
	Asset  string
	Amount *uint256.Int
}

// Step is one on-chain call. Steps are immutable once the plan is returned.
type Step struct {
	ID       int
	Kind     StepKind
	Chain    string
	Metadata map[string]string
	// Principal is what the step takes from the payer's balance, if anything.
	Principal *Amount
	// Incoming is what the step delivers to the payer on another chain. Only
	// bridge steps set it.
	Incoming *Amount
}

// Quote is the user-facing price of a plan.
type Quote struct {
	FromAsset string
	ToAsset   string
	// FromAmount is the principal actually entering the route, after any
	// deduction taken out of it.
	FromAmount     *uint256.Int
	ToAmount       *uint256.Int
	MinReceive     *uint256.Int
	Rate           decimal.Decimal
	PriceImpact    decimal.Decimal
	IsLowLiquidity bool
	AliveUntil     time.Time
	// MinSwap is denominated in MinSwapAsset, or in FromAsset when that is
	// empty. A floor on another asset applies to what the route delivers.
	MinSwap      *uint256.Int
	MinSwapAsset string
	MaxSwap      *uint256.Int
}

// Plan is built by one planning request and owned by its caller afterwards.
type Plan struct {
	ID     string
	Intent IntentKind
	// Target is the pair ("from->to") or yield pool slug the plan was built for.
	Target string
	Steps  []Step
	Fees   []fees.Entry
	Route  []string
	// Reserves, HopInputs and HopOutputs are indexed by hop.
	Reserves   []oracle.PoolReserve
	HopInputs  []*uint256.Int
	HopOutputs []*uint256.Int
	Quote      Quote
	// RequestedAmount is the amount the intent asked for.
	RequestedAmount *uint256.Int
	Address         string
	Recipient       string
	DestChain       string
	CreatedAt       time.Time
}

// AppendStep adds a step and returns its id. Ids start at 0 and follow
// execution order.
func (p *Plan) AppendStep(kind StepKind, chainSlug string, metadata map[string]string, principal *Amount) int {
	id := len(p.Steps)
	if metadata == nil {
		metadata = map[string]string{}
	}
	p.Steps = append(p.Steps, Step{
		ID:        id,
		Kind:      kind,
		Chain:     chainSlug,
		Metadata:  metadata,
		Principal: principal,
	})
	return id
}

// SetIncoming records the amount a bridge step delivers.
func (p *Plan) SetIncoming(stepID int, incoming Amount) {
	p.Steps[stepID].Incoming = &incoming
}

// Expired reports whether the quote is past its lifetime.
func (p *Plan) Expired(now time.Time) bool {
	return now.After(p.Quote.AliveUntil)
}

// Ledger rebuilds a fee ledger from the plan's entries.
func (p *Plan) Ledger() *fees.Ledger {
	return fees.NewLedger(p.Fees...)
}

// PendingBridge returns the first bridge step that is not in settled and is
// followed by other steps.
func (p *Plan) PendingBridge(settled map[int]bool) (Step, bool) {
	for i, s := range p.Steps {
		if s.Kind != StepXcmTransfer || i == len(p.Steps)-1 {
			continue
		}
		if !settled[s.ID] {
			return s, true
		}
	}
	return Step{}, false
}

// Delivered returns what the route hands over in asset, or zero when the
// route does not end in asset.
func (p *Plan) Delivered(asset string) *uint256.Int {
	if len(p.Route) == 0 || p.Route[len(p.Route)-1] != asset || len(p.HopOutputs) == 0 {
		return new(uint256.Int)
	}
	last := p.HopOutputs[len(p.HopOutputs)-1]
	if last == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(last)
}

// Assets returns every asset the plan reads or moves, in first-use order.
func (p *Plan) Assets() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(slug string) {
		if slug != "" && !seen[slug] {
			seen[slug] = true
			out = append(out, slug)
		}
	}
	add(p.Quote.FromAsset)
	for _, s := range p.Steps {
		if s.Principal != nil {
			add(s.Principal.Asset)
		}
		if s.Incoming != nil {
			add(s.Incoming.Asset)
		}
	}
	for _, f := range p.Fees {
		if !f.FromPrincipal {
			add(f.AssetSlug)
		}
	}
	return out
}

// SwapIntent asks to swap FromAmount of From into To.
type SwapIntent struct {
	From        string
	To          string
	FromAmount  *uint256.Int
	SlippageBps uint32
	// Address pays for the plan. Empty means unknown; fees are then
	// estimated against the chain's probe address.
	Address   string
	Recipient string
}

// YieldIntent asks to enter Pool with Amount of Asset. An empty Asset means
// the pool's input asset.
type YieldIntent struct {
	Pool        string
	Asset       string
	Amount      *uint256.Int
	SlippageBps uint32
	Address     string
}
