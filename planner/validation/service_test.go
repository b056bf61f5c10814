package validation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	ct "github.com/Cogwheel-Validator/spectra-planner/planner/catalog/catalogtest"
	"github.com/Cogwheel-Validator/spectra-planner/planner/chain"
	"github.com/Cogwheel-Validator/spectra-planner/planner/chain/chaintest"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/Cogwheel-Validator/spectra-planner/planner/plan"
	"github.com/Cogwheel-Validator/spectra-planner/planner/router"
	"github.com/Cogwheel-Validator/spectra-planner/planner/validation"
	"github.com/holiman/uint256"
	"github.com/zeebo/assert"
)

func hydraFake() *chaintest.Fake {
	return chaintest.New().
		SetPool(ct.HydraDX, ct.HydraDOT, ct.USDT, 100_000_000_000_000, 70_000_000_000).
		SetPool(ct.HydraDX, ct.HDX, ct.HydraDOT, 500_000_000_000_000_000, 100_000_000_000_000).
		SetFee(chain.CallSwap, 2_000_000_000).
		SetFee(chain.CallXcmTransfer, 100_000_000)
}

func TestService_ValidatesPlannedSwap(t *testing.T) {
	cat := ct.New(t)
	fake := hydraFake().
		SetBalance(ct.SubstrateAddress, ct.HydraDOT, 50_000_000_000).
		SetBalance(ct.SubstrateAddress, ct.HDX, 10_000_000_000_000)
	clock := func() time.Time { return now }

	p := router.NewPlanner(cat, fake, fake, router.WithClock(clock))
	pl, err := p.PlanSwap(context.Background(), plan.SwapIntent{
		From:       ct.HydraDOT,
		To:         ct.USDT,
		FromAmount: u(10_000_000_000),
		Address:    ct.SubstrateAddress,
	})
	assert.NoError(t, err)

	svc := validation.NewService(cat, fake, clock)
	assert.NoError(t, svc.Validate(context.Background(), pl, "", nil))

	// another payer without funds
	err = svc.Validate(context.Background(), pl, "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty", nil)
	assert.Equal(t, errs.TagOf(err), errs.NotEnoughBalance)
}

func TestService_BridgeThenValidate(t *testing.T) {
	cat := ct.New(t)
	fake := hydraFake().
		SetBalance(ct.SubstrateAddress, ct.HydraDOT, 3_000_000_000).
		SetBalance(ct.SubstrateAddress, ct.DOT, 100_000_000_000).
		SetBalance(ct.SubstrateAddress, ct.HDX, 10_000_000_000_000)
	clock := func() time.Time { return now }

	p := router.NewPlanner(cat, fake, fake, router.WithClock(clock))
	pl, err := p.PlanSwap(context.Background(), plan.SwapIntent{
		From:       ct.HydraDOT,
		To:         ct.USDT,
		FromAmount: u(10_000_000_000),
		Address:    ct.SubstrateAddress,
	})
	assert.NoError(t, err)
	assert.Equal(t, pl.Steps[0].Kind, plan.StepXcmTransfer)

	svc := validation.NewService(cat, fake, clock)
	assert.NoError(t, svc.Validate(context.Background(), pl, "", nil))

	// once the bridge lands the topped-up balance carries the swap
	fake.SetBalance(ct.SubstrateAddress, ct.HydraDOT, 3_000_000_000+6_917_540_000)
	assert.NoError(t, svc.Validate(context.Background(), pl, "", map[int]bool{0: true}))
}

func TestService_SettledBridgeWithoutExistentialDeposit(t *testing.T) {
	records := ct.Default()
	records.Asset(ct.HydraDOT).MinAmount = new(uint256.Int)
	cat := records.Build(t)
	fake := hydraFake().
		SetBalance(ct.SubstrateAddress, ct.HydraDOT, 3_000_000_000).
		SetBalance(ct.SubstrateAddress, ct.DOT, 100_000_000_000)
	clock := func() time.Time { return now }

	p := router.NewPlanner(cat, fake, fake, router.WithClock(clock))
	pl, err := p.PlanSwap(context.Background(), plan.SwapIntent{
		From:       ct.HydraDOT,
		To:         ct.USDT,
		FromAmount: u(10_000_000_000),
		Address:    ct.SubstrateAddress,
	})
	assert.NoError(t, err)
	assert.Equal(t, pl.Steps[0].Kind, plan.StepXcmTransfer)

	svc := validation.NewService(cat, fake, clock)
	assert.NoError(t, svc.Validate(context.Background(), pl, "", nil))

	landed := new(uint256.Int).Add(u(3_000_000_000), pl.Steps[0].Incoming.Amount)
	fake.SetBalance(ct.SubstrateAddress, ct.HydraDOT, landed.Uint64())
	assert.NoError(t, svc.Validate(context.Background(), pl, "", map[int]bool{0: true}))
}

func TestService_ExpiredSkipsBalanceReads(t *testing.T) {
	cat := ct.New(t)
	fake := hydraFake()

	p := router.NewPlanner(cat, fake, fake, router.WithClock(func() time.Time { return now }))
	pl, err := p.PlanSwap(context.Background(), plan.SwapIntent{
		From:       ct.HydraDOT,
		To:         ct.USDT,
		FromAmount: u(10_000_000_000),
	})
	assert.NoError(t, err)

	later := func() time.Time { return now.Add(time.Hour) }
	svc := validation.NewService(cat, fake, later)
	err = svc.Validate(context.Background(), pl, ct.SubstrateAddress, nil)
	assert.Equal(t, errs.TagOf(err), errs.QuoteExpired)
	assert.Equal(t, fake.BalanceReads, 0)
}

func TestService_BalanceFailure(t *testing.T) {
	cat := ct.New(t)
	fake := hydraFake()

	p := router.NewPlanner(cat, fake, fake, router.WithClock(func() time.Time { return now }))
	pl, err := p.PlanSwap(context.Background(), plan.SwapIntent{
		From:       ct.HydraDOT,
		To:         ct.USDT,
		FromAmount: u(10_000_000_000),
	})
	assert.NoError(t, err)

	fake.BalanceErr = errors.New("timeout")
	svc := validation.NewService(cat, fake, func() time.Time { return now })
	err = svc.Validate(context.Background(), pl, ct.SubstrateAddress, nil)
	assert.Equal(t, errs.TagOf(err), errs.ChainQueryFailed)
	verr, _ := errs.As(err)
	assert.Equal(t, verr.Metadata.Chain, ct.HydraDX)

	assert.Error(t, svc.Validate(context.Background(), nil, "", nil))
}

func TestService_ConvertedYieldFloorOnDeliveredInput(t *testing.T) {
	cat := ct.New(t)
	fake := hydraFake().
		SetBalance(ct.SubstrateAddress, ct.USDT, 20_000_000_000).
		SetBalance(ct.SubstrateAddress, ct.HDX, 10_000_000_000_000)
	clock := func() time.Time { return now }
	p := router.NewPlanner(cat, fake, fake, router.WithClock(clock))
	svc := validation.NewService(cat, fake, clock)

	// 7000 USDT converts to far more than the 5 DOT join floor
	pl, err := p.PlanYield(context.Background(), plan.YieldIntent{
		Pool:    ct.LiquidStaking,
		Asset:   ct.USDT,
		Amount:  u(7_000_000_000),
		Address: ct.SubstrateAddress,
	})
	assert.NoError(t, err)
	assert.Equal(t, pl.Quote.MinSwapAsset, ct.HydraDOT)
	assert.NoError(t, svc.Validate(context.Background(), pl, "", nil))

	// 30 USDT converts to about 4.27 DOT
	pl, err = p.PlanYield(context.Background(), plan.YieldIntent{
		Pool:    ct.LiquidStaking,
		Asset:   ct.USDT,
		Amount:  u(30_000_000),
		Address: ct.SubstrateAddress,
	})
	assert.NoError(t, err)
	assert.True(t, pl.Delivered(ct.HydraDOT).Lt(u(50_000_000_000)))

	err = svc.Validate(context.Background(), pl, "", nil)
	assert.Equal(t, errs.TagOf(err), errs.SwapBelowMinimum)
	verr, _ := errs.As(err)
	assert.Equal(t, verr.Metadata.Amount.Symbol, "DOT")
	assert.Equal(t, verr.Metadata.Amount.Decimals, 10)
	assert.Equal(t, verr.Metadata.Amount.Value.Uint64(), uint64(50_000_000_000))
}
