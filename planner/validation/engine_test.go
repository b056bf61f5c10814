package validation_test

import (
	"testing"
	"time"

	ct "github.com/Cogwheel-Validator/spectra-planner/planner/catalog/catalogtest"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/Cogwheel-Validator/spectra-planner/planner/fees"
	"github.com/Cogwheel-Validator/spectra-planner/planner/oracle"
	"github.com/Cogwheel-Validator/spectra-planner/planner/plan"
	"github.com/Cogwheel-Validator/spectra-planner/planner/validation"
	"github.com/holiman/uint256"
	"github.com/zeebo/assert"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// swapPlan swaps 1 DOT into USDT on HydraDX, paying 0.002 HDX in fees.
func swapPlan() *plan.Plan {
	p := &plan.Plan{
		ID:        "swap",
		Intent:    plan.IntentSwap,
		Address:   ct.SubstrateAddress,
		DestChain: ct.HydraDX,
		CreatedAt: now,
		Route:     []string{ct.HydraDOT, ct.USDT},
		Reserves: []oracle.PoolReserve{{
			AssetIn:    ct.HydraDOT,
			AssetOut:   ct.USDT,
			ReserveIn:  u(100_000_000_000_000),
			ReserveOut: u(70_000_000_000),
		}},
		HopInputs:  []*uint256.Int{u(10_000_000_000)},
		HopOutputs: []*uint256.Int{u(6_978_000)},
		Quote: plan.Quote{
			FromAsset:  ct.HydraDOT,
			ToAsset:    ct.USDT,
			FromAmount: u(10_000_000_000),
			ToAmount:   u(6_978_000),
			MinReceive: u(6_908_220),
			MinSwap:    u(1_000_000_000),
			AliveUntil: now.Add(time.Minute),
		},
		Fees: []fees.Entry{
			{StepID: 0, AssetSlug: ct.HDX, Amount: u(2_000_000_000), Kind: fees.KindNetwork},
			{StepID: 0, AssetSlug: ct.USDT, Amount: u(20_000), Kind: fees.KindPlatform, FromPrincipal: true},
		},
	}
	p.AppendStep(plan.StepSwap, ct.HydraDX, nil, &plan.Amount{Asset: ct.HydraDOT, Amount: u(10_000_000_000)})
	return p
}

// bridgePlan tops up HydraDX DOT from Polkadot before the swap.
func bridgePlan() *plan.Plan {
	p := swapPlan()
	p.Steps = nil
	id := p.AppendStep(plan.StepXcmTransfer, ct.Polkadot, nil, &plan.Amount{Asset: ct.DOT, Amount: u(7_017_540_000)})
	p.SetIncoming(id, plan.Amount{Asset: ct.HydraDOT, Amount: u(6_917_540_000)})
	p.AppendStep(plan.StepSwap, ct.HydraDX, nil, &plan.Amount{Asset: ct.HydraDOT, Amount: u(9_900_000_000)})
	p.Quote.FromAmount = u(9_900_000_000)
	p.Fees = []fees.Entry{
		{StepID: 0, AssetSlug: ct.DOT, Amount: u(120_000_000), Kind: fees.KindNetwork},
		{StepID: 0, AssetSlug: ct.HydraDOT, Amount: u(100_000_000), Kind: fees.KindNetwork, FromPrincipal: true},
		{StepID: 1, AssetSlug: ct.HDX, Amount: u(2_000_000_000), Kind: fees.KindNetwork},
	}
	return p
}

func funded() validation.Input {
	return validation.Input{
		Balances: map[string]*uint256.Int{
			ct.HydraDOT: u(50_000_000_000),
			ct.HDX:      u(10_000_000_000_000),
		},
		Now: now,
	}
}

func verdict(t *testing.T, err error) *errs.ValidationError {
	t.Helper()
	assert.Error(t, err)
	verr, ok := errs.As(err)
	assert.True(t, ok)
	return verr
}

func TestValidate_Feasible(t *testing.T) {
	e := validation.NewEngine(ct.New(t))
	assert.NoError(t, e.Validate(swapPlan(), funded()))
}

func TestValidate_ExpiredFirst(t *testing.T) {
	e := validation.NewEngine(ct.New(t))
	in := validation.Input{Now: now.Add(2 * time.Minute)}

	verr := verdict(t, e.Validate(swapPlan(), in))
	assert.Equal(t, verr.Tag, errs.QuoteExpired)
}

func TestValidate_FeeBalance(t *testing.T) {
	e := validation.NewEngine(ct.New(t))
	in := funded()
	// the balance must stay strictly above the fee
	in.Balances[ct.HDX] = u(2_000_000_000)

	verr := verdict(t, e.Validate(swapPlan(), in))
	assert.Equal(t, verr.Tag, errs.NotEnoughBalance)
	assert.True(t, verr.Metadata.FeeCheck)
	assert.Equal(t, verr.Metadata.Amount.Value.Uint64(), uint64(2_000_000_000))
	assert.Equal(t, verr.Metadata.Amount.Symbol, "HDX")
	assert.Equal(t, verr.Metadata.Amount.Decimals, 12)
	assert.Equal(t, verr.Metadata.ChainName, "HydraDX")
}

func TestValidate_PrincipalPlusFee(t *testing.T) {
	e := validation.NewEngine(ct.New(t))
	p := swapPlan()
	p.Fees = []fees.Entry{{StepID: 0, AssetSlug: ct.HydraDOT, Amount: u(100_000_000), Kind: fees.KindNetwork}}
	in := funded()
	in.Balances[ct.HydraDOT] = u(10_000_000_000)

	verr := verdict(t, e.Validate(p, in))
	assert.Equal(t, verr.Tag, errs.NotEnoughBalance)
	assert.False(t, verr.Metadata.FeeCheck)
	assert.Equal(t, verr.Metadata.Amount.Value.Uint64(), uint64(10_100_000_000))
	assert.Equal(t, verr.Metadata.Asset, ct.HydraDOT)
}

func TestValidate_PendingBridge(t *testing.T) {
	e := validation.NewEngine(ct.New(t))
	in := validation.Input{
		Balances: map[string]*uint256.Int{
			ct.DOT: u(100_000_000_000),
			ct.HDX: u(10_000_000_000_000),
		},
		Now: now,
	}

	// HydraDX DOT has not arrived yet, so the later checks are skipped
	assert.NoError(t, e.Validate(bridgePlan(), in))

	in.Settled = map[int]bool{0: true}
	verr := verdict(t, e.Validate(bridgePlan(), in))
	assert.Equal(t, verr.Tag, errs.SwapBelowMinimum)
}

func TestValidate_PendingBridgeStillChecksFees(t *testing.T) {
	e := validation.NewEngine(ct.New(t))
	in := validation.Input{
		Balances: map[string]*uint256.Int{
			ct.DOT: u(100_000_000),
			ct.HDX: u(10_000_000_000_000),
		},
		Now: now,
	}

	verr := verdict(t, e.Validate(bridgePlan(), in))
	assert.Equal(t, verr.Tag, errs.NotEnoughBalance)
	assert.True(t, verr.Metadata.FeeCheck)
	assert.Equal(t, verr.Metadata.Asset, ct.DOT)
	assert.Equal(t, verr.Metadata.Chain, ct.Polkadot)
}

func TestValidate_IncomingCountsTowardFees(t *testing.T) {
	e := validation.NewEngine(ct.New(t))
	p := bridgePlan()
	// the swap fee is paid in HydraDX DOT that the bridge delivers
	p.Fees[2] = fees.Entry{StepID: 1, AssetSlug: ct.HydraDOT, Amount: u(10_000_000), Kind: fees.KindNetwork}
	in := validation.Input{
		Balances: map[string]*uint256.Int{
			ct.DOT:      u(100_000_000_000),
			ct.HydraDOT: u(3_000_000_000),
		},
		Now: now,
	}
	assert.NoError(t, e.Validate(p, in))
}

func TestValidate_BelowMinimum(t *testing.T) {
	e := validation.NewEngine(ct.New(t))
	p := swapPlan()
	p.Quote.FromAmount = u(500_000_000)
	in := funded()
	in.Balances[ct.HydraDOT] = u(1_000_000_000)

	verr := verdict(t, e.Validate(p, in))
	assert.Equal(t, verr.Tag, errs.SwapBelowMinimum)
	assert.Equal(t, verr.Metadata.Amount.Value.Uint64(), uint64(1_000_000_000))
	assert.Equal(t, verr.Metadata.Amount.Symbol, "DOT")
}

func TestValidate_ExceedsAvailable(t *testing.T) {
	e := validation.NewEngine(ct.New(t))
	in := funded()
	in.Balances[ct.HydraDOT] = u(5_000_000_000)

	verr := verdict(t, e.Validate(swapPlan(), in))
	assert.Equal(t, verr.Tag, errs.SwapExceedsAvailable)
	assert.Equal(t, verr.Metadata.Amount.Value.Uint64(), uint64(5_000_000_000))
}

func TestValidate_Liquidity(t *testing.T) {
	e := validation.NewEngine(ct.New(t))

	p := swapPlan()
	p.Reserves[0].ReserveOut = u(0)
	verr := verdict(t, e.Validate(p, funded()))
	assert.Equal(t, verr.Tag, errs.AssetNotSupported)
	assert.Equal(t, verr.Metadata.Asset, ct.USDT)
	assert.Equal(t, verr.Metadata.Hop, 0)

	p = swapPlan()
	p.Reserves[0].ReserveIn = u(10_000_000_000)
	verr = verdict(t, e.Validate(p, funded()))
	assert.Equal(t, verr.Tag, errs.NotEnoughLiquidity)
	assert.Equal(t, verr.Metadata.Amount.Value.Uint64(), uint64(10_000_000_000))
}

func TestValidate_PoolFloors(t *testing.T) {
	e := validation.NewEngine(ct.New(t))

	// output side would drop under the USDT existential deposit
	p := swapPlan()
	p.HopOutputs[0] = u(70_000_000_000 - 5_000)
	verr := verdict(t, e.Validate(p, funded()))
	assert.Equal(t, verr.Tag, errs.PoolBelowExistential)
	assert.Equal(t, verr.Metadata.Asset, ct.USDT)
	assert.Equal(t, verr.Metadata.Amount.Value.Uint64(), uint64(10_000))

	// input side stays under the pool's own HDX floor
	p = swapPlan()
	p.Reserves[0] = oracle.PoolReserve{
		AssetIn:    ct.HDX,
		AssetOut:   ct.HydraDOT,
		ReserveIn:  u(1_000_000_000_000),
		ReserveOut: u(1_000_000_000_000),
	}
	p.HopInputs[0] = u(1_000_000_000)
	p.HopOutputs[0] = u(900_000_000)
	verr = verdict(t, e.Validate(p, funded()))
	assert.Equal(t, verr.Tag, errs.PoolBelowExistential)
	assert.Equal(t, verr.Metadata.Asset, ct.HDX)
	assert.Equal(t, verr.Metadata.Amount.Value.Uint64(), uint64(5_000_000_000_000))
}

func TestValidate_Recipient(t *testing.T) {
	e := validation.NewEngine(ct.New(t))

	tests := []struct {
		name      string
		recipient string
		dest      string
		ok        bool
	}{
		{"substrate to substrate", ct.SubstrateAddress, ct.HydraDX, true},
		{"bech32 to substrate", "osmo10a3k4hvk37cc4hnxctw4p95fhscd2z6h2rmx0aukc6rm8u9qqx9smfsh7u", ct.HydraDX, true},
		{"hex to substrate", ct.EVMAddress, ct.HydraDX, false},
		{"hex to evm", ct.EVMAddress, ct.Moonbeam, true},
		{"substrate to evm", ct.SubstrateAddress, ct.Moonbeam, false},
		{"garbage", "not-an-address", ct.HydraDX, false},
		{"no recipient", "", ct.HydraDX, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := swapPlan()
			p.Recipient = tt.recipient
			p.DestChain = tt.dest
			err := e.Validate(p, funded())
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			verr := verdict(t, err)
			assert.Equal(t, verr.Tag, errs.InvalidRecipient)
			assert.Equal(t, verr.Metadata.Chain, tt.dest)
		})
	}
}

func TestValidate_SameInputSameVerdict(t *testing.T) {
	e := validation.NewEngine(ct.New(t))
	tests := []struct {
		name  string
		plan  func() *plan.Plan
		in    func() validation.Input
		tag   errs.Tag
		asset string
	}{
		{
			name: "expiry wins over empty balances",
			plan: swapPlan,
			in:   func() validation.Input { return validation.Input{Now: now.Add(time.Hour)} },
			tag:  errs.QuoteExpired,
		},
		{
			name:  "first fee asset in charge order",
			plan:  bridgePlan,
			in:    func() validation.Input { return validation.Input{Balances: map[string]*uint256.Int{}, Now: now} },
			tag:   errs.NotEnoughBalance,
			asset: ct.DOT,
		},
		{
			name: "minimum wins over ceiling",
			plan: swapPlan,
			in: func() validation.Input {
				in := funded()
				in.Balances[ct.HydraDOT] = u(1_000_000_000)
				return in
			},
			tag:   errs.SwapBelowMinimum,
			asset: ct.HydraDOT,
		},
		{
			name: "ceiling wins over liquidity",
			plan: func() *plan.Plan {
				p := swapPlan()
				p.HopInputs = []*uint256.Int{u(200_000_000_000_000)}
				return p
			},
			in: func() validation.Input {
				in := funded()
				in.Balances[ct.HydraDOT] = u(5_000_000_000)
				return in
			},
			tag:   errs.SwapExceedsAvailable,
			asset: ct.HydraDOT,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 100; i++ {
				verr := verdict(t, e.Validate(tt.plan(), tt.in()))
				assert.Equal(t, verr.Tag, tt.tag)
				assert.Equal(t, verr.Metadata.Asset, tt.asset)
			}
		})
	}
}
