package fees_test

import (
	"testing"

	"github.com/Cogwheel-Validator/spectra-planner/planner/amm"
	"github.com/Cogwheel-Validator/spectra-planner/planner/fees"
	"github.com/Cogwheel-Validator/spectra-planner/planner/oracle"
	"github.com/holiman/uint256"
	"github.com/zeebo/assert"
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func TestLedger_Aggregates(t *testing.T) {
	l := fees.NewLedger(
		fees.Entry{StepID: 0, AssetSlug: "DOT", Amount: u(100), Kind: fees.KindNetwork},
		fees.Entry{StepID: 1, AssetSlug: "HDX", Amount: u(5), Kind: fees.KindNetwork},
		fees.Entry{StepID: 1, AssetSlug: "USDT", Amount: u(30), Kind: fees.KindPlatform, FromPrincipal: true},
		fees.Entry{StepID: 2, AssetSlug: "DOT", Amount: u(20), Kind: fees.KindNetwork},
		fees.Entry{StepID: 2, AssetSlug: "DOT", Amount: u(7), Kind: fees.KindPlatform, FromPrincipal: true},
	)

	assert.True(t, l.HasAny())

	total := l.TotalByAsset()
	assert.Equal(t, len(total), 3)
	assert.Equal(t, total["DOT"].Uint64(), uint64(127))
	assert.Equal(t, total["USDT"].Uint64(), uint64(30))

	payable := l.PayableByAsset()
	assert.Equal(t, payable["DOT"].Uint64(), uint64(120))
	assert.Equal(t, payable["HDX"].Uint64(), uint64(5))
	_, ok := payable["USDT"]
	assert.False(t, ok)

	byKind := l.TotalByKind()
	assert.Equal(t, byKind["DOT"][fees.KindNetwork].Uint64(), uint64(120))
	assert.Equal(t, byKind["DOT"][fees.KindPlatform].Uint64(), uint64(7))

	assets := l.Assets()
	assert.Equal(t, len(assets), 3)
	assert.Equal(t, assets[0], "DOT")
	assert.Equal(t, assets[1], "HDX")
	assert.Equal(t, assets[2], "USDT")
}

func TestLedger_NeverCrossesAssets(t *testing.T) {
	var l fees.Ledger
	assert.False(t, l.HasAny())

	l.Add(fees.Entry{AssetSlug: "DOT", Amount: u(1)})
	l.Add(fees.Entry{AssetSlug: "KSM", Amount: u(1)})
	total := l.TotalByAsset()
	assert.Equal(t, total["DOT"].Uint64(), uint64(1))
	assert.Equal(t, total["KSM"].Uint64(), uint64(1))
}

func TestLedger_CopiesAmounts(t *testing.T) {
	amount := u(10)
	l := fees.NewLedger(fees.Entry{AssetSlug: "DOT", Amount: amount})
	amount.SetUint64(99)

	entries := l.Entries()
	assert.Equal(t, entries[0].Amount.Uint64(), uint64(10))

	entries[0].Amount.SetUint64(50)
	assert.Equal(t, l.TotalByAsset()["DOT"].Uint64(), uint64(10))

	l.Add(fees.Entry{AssetSlug: "HDX"})
	assert.True(t, l.Entries()[1].Amount.IsZero())
}

func TestChooseFeeAsset(t *testing.T) {
	candidates := []string{"HDX", "DOT", "USDT"}
	tests := []struct {
		name     string
		input    string
		balances map[string]*uint256.Int
		want     string
	}{
		{"primary funded", "DOT", map[string]*uint256.Int{"HDX": u(1), "DOT": u(10)}, "HDX"},
		{"primary empty, input accepted", "DOT", map[string]*uint256.Int{"HDX": u(0), "DOT": u(10)}, "DOT"},
		{"primary empty, input unfunded", "DOT", map[string]*uint256.Int{"DOT": u(0)}, "HDX"},
		{"input not accepted", "vDOT", map[string]*uint256.Int{"vDOT": u(10)}, "HDX"},
		{"input is primary", "HDX", map[string]*uint256.Int{}, "HDX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, fees.ChooseFeeAsset(candidates, tt.input, tt.balances), tt.want)
		})
	}

	assert.Equal(t, fees.ChooseFeeAsset(nil, "DOT", nil), "")
}

func TestConvertViaPool(t *testing.T) {
	// fee is 1_000 HDX units; the user pays in DOT
	reserve := oracle.PoolReserve{
		AssetIn:    "DOT",
		AssetOut:   "HDX",
		ReserveIn:  u(1_000_000),
		ReserveOut: u(50_000_000),
	}
	got, err := fees.ConvertViaPool(u(1_000), reserve, 30)
	assert.NoError(t, err)

	want, err := amm.AmountIn(u(1_000), reserve.ReserveIn, reserve.ReserveOut, 30)
	assert.NoError(t, err)
	assert.Equal(t, got.Uint64(), want.Uint64())

	out, err := amm.AmountOut(got, reserve.ReserveIn, reserve.ReserveOut, 30)
	assert.NoError(t, err)
	assert.False(t, out.Lt(u(1_000)))

	zero, err := fees.ConvertViaPool(new(uint256.Int), reserve, 30)
	assert.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = fees.ConvertViaPool(u(1), oracle.PoolReserve{ReserveIn: u(0), ReserveOut: u(10)}, 30)
	assert.Error(t, err)
}
