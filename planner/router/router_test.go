package router_test

import (
	"testing"
	"time"

	"github.com/Cogwheel-Validator/spectra-planner/planner/amm"
	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	ct "github.com/Cogwheel-Validator/spectra-planner/planner/catalog/catalogtest"
	"github.com/Cogwheel-Validator/spectra-planner/planner/chain"
	"github.com/Cogwheel-Validator/spectra-planner/planner/chain/chaintest"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/Cogwheel-Validator/spectra-planner/planner/router"
	"github.com/holiman/uint256"
	"github.com/zeebo/assert"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

const (
	dotReserve  = 100_000_000_000_000     // 10k DOT
	usdtReserve = 70_000_000_000          // 70k USDT
	hdxReserve  = 500_000_000_000_000_000 // 500k HDX
	vdotReserve = 100_000_000_000_000

	swapFee     = 2_000_000_000
	xcmFee      = 100_000_000
	paddedXcm   = 120_000_000
	mintFee     = 3_000_000_000
	approvalFee = 1_000_000
	bondFee     = 150_000_000
)

func newFake() *chaintest.Fake {
	return chaintest.New().
		SetPool(ct.HydraDX, ct.HydraDOT, ct.USDT, dotReserve, usdtReserve).
		SetPool(ct.HydraDX, ct.HDX, ct.HydraDOT, hdxReserve, dotReserve).
		SetPool(ct.HydraDX, ct.HDX, ct.USDT, hdxReserve, usdtReserve).
		SetPool(ct.HydraDX, ct.VDOT, ct.HDX, vdotReserve, hdxReserve).
		SetFee(chain.CallSwap, swapFee).
		SetFee(chain.CallAssetConvert, swapFee).
		SetFee(chain.CallXcmTransfer, xcmFee).
		SetFee(chain.CallMint, mintFee).
		SetFee(chain.CallTokenApproval, approvalFee).
		SetFee(chain.CallBond, bondFee)
}

func newPlanner(cat *catalog.Catalog, fake *chaintest.Fake, opts ...router.Option) *router.Planner {
	opts = append([]router.Option{router.WithClock(func() time.Time { return now })}, opts...)
	return router.NewPlanner(cat, fake, fake, opts...)
}

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func mustOut(t *testing.T, in, reserveIn, reserveOut uint64, feeBps uint32) *uint256.Int {
	t.Helper()
	out, err := amm.AmountOut(u(in), u(reserveIn), u(reserveOut), feeBps)
	assert.NoError(t, err)
	return out
}

func TestFindRoute(t *testing.T) {
	cat := ct.New(t)

	tests := []struct {
		name     string
		from, to string
		want     []string
	}{
		{"same asset", ct.USDT, ct.USDT, []string{ct.USDT}},
		{"direct pool", ct.HydraDOT, ct.USDT, []string{ct.HydraDOT, ct.USDT}},
		{"direct pool reversed", ct.USDT, ct.HydraDOT, []string{ct.USDT, ct.HydraDOT}},
		{"native hub", ct.VDOT, ct.USDT, []string{ct.VDOT, ct.HDX, ct.USDT}},
		{"native hub into a fee asset", ct.VDOT, ct.HydraDOT, []string{ct.VDOT, ct.HDX, ct.HydraDOT}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, err := router.FindRoute(cat, tt.from, tt.to)
			assert.NoError(t, err)
			assert.Equal(t, len(route), len(tt.want))
			for i := range route {
				assert.Equal(t, route[i], tt.want[i])
			}
		})
	}
}

func TestFindRoute_Unsupported(t *testing.T) {
	cat := ct.New(t)

	for _, pair := range [][2]string{
		{ct.GLMR, ct.XcDOT},
		{ct.DOT, ct.USDT},
		{"hydradx-LOCAL-NOPE", ct.USDT},
		{ct.USDT, "hydradx-LOCAL-NOPE"},
	} {
		_, err := router.FindRoute(cat, pair[0], pair[1])
		assert.Equal(t, errs.TagOf(err), errs.AssetNotSupported)
	}
}

func TestFindRoute_FeeAssetHub(t *testing.T) {
	// the native asset has no pools, so the second fee asset is the hub
	recs := ct.Default()
	recs.Pools = []catalog.Pool{
		{AssetA: ct.VDOT, AssetB: ct.HydraDOT, FeeBps: 30},
		{AssetA: ct.HydraDOT, AssetB: ct.USDT, FeeBps: 30},
	}
	cat := recs.Build(t)

	route, err := router.FindRoute(cat, ct.VDOT, ct.USDT)
	assert.NoError(t, err)
	assert.Equal(t, len(route), 3)
	assert.Equal(t, route[1], ct.HydraDOT)
}

func TestMinReceive(t *testing.T) {
	assert.Equal(t, router.MinReceive(u(1_000_000), 100).Uint64(), uint64(990_000))
	assert.Equal(t, router.MinReceive(u(1_000_000), 0).Uint64(), uint64(1_000_000))
	assert.True(t, router.MinReceive(nil, 100).IsZero())
}
