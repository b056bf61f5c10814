package presenter_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/Cogwheel-Validator/spectra-planner/planner/presenter"
	"github.com/holiman/uint256"
	"github.com/zeebo/assert"
)

func dot(v uint64) *errs.AmountMeta {
	return &errs.AmountMeta{Value: uint256.NewInt(v), Decimals: 10, Symbol: "DOT"}
}

func TestPresent(t *testing.T) {
	p := presenter.New()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "below minimum",
			err:  errs.New(errs.SwapBelowMinimum, errs.Metadata{Amount: dot(12_345_678_900)}),
			want: "Insufficient balance. You need more than 1.234567 DOT to start swapping. Deposit DOT and try again.",
		},
		{
			name: "below minimum without amount",
			err:  errs.New(errs.SwapBelowMinimum, errs.Metadata{}),
			want: "Insufficient balance. Deposit more and try again.",
		},
		{
			name: "exceeds available",
			err:  errs.New(errs.SwapExceedsAvailable, errs.Metadata{Amount: dot(50_000_000_000)}),
			want: "Amount too high. Lower your amount below 5 DOT and try again",
		},
		{
			name: "fee balance with chain",
			err: errs.New(errs.NotEnoughBalance, errs.Metadata{
				Amount:    &errs.AmountMeta{Value: uint256.NewInt(1), Decimals: 12, Symbol: "HDX"},
				FeeCheck:  true,
				ChainName: "HydraDX",
			}),
			want: "You don't have enough HDX (HydraDX) to pay transaction fee",
		},
		{
			name: "fee balance without symbol",
			err:  errs.New(errs.NotEnoughBalance, errs.Metadata{FeeCheck: true}),
			want: "You don't have enough balance to pay transaction fee",
		},
		{
			name: "principal balance",
			err:  errs.New(errs.NotEnoughBalance, errs.Metadata{Amount: dot(1)}),
			want: "Insufficient balance. Deposit DOT and try again.",
		},
		{
			name: "asset not supported",
			err:  errs.New(errs.AssetNotSupported, errs.Metadata{Asset: "x"}),
			want: "This swap pair is not supported",
		},
		{
			name: "liquidity",
			err:  errs.New(errs.NotEnoughLiquidity, errs.Metadata{}),
			want: "Not enough liquidity in the pool. Lower your amount and try again",
		},
		{
			name: "pool floor",
			err:  errs.New(errs.PoolBelowExistential, errs.Metadata{Amount: dot(17_540_000)}),
			want: "This swap would leave the pool below its minimum of 0.001754 DOT. Lower your amount and try again",
		},
		{
			name: "recipient",
			err:  errs.New(errs.InvalidRecipient, errs.Metadata{Chain: "moonbeam", ChainName: "Moonbeam"}),
			want: "Recipient address is not valid for Moonbeam",
		},
		{
			name: "expired",
			err:  errs.New(errs.QuoteExpired, errs.Metadata{}),
			want: "Quote expired. Refresh the quote and try again",
		},
		{
			name: "chain query",
			err:  errs.ChainQuery("hydradx", errors.New("timeout")),
			want: "No swap quote found. Adjust your amount or try again later. (timeout)",
		},
		{
			name: "wrapped tag",
			err:  fmt.Errorf("planning: %w", errs.New(errs.QuoteExpired, errs.Metadata{})),
			want: "Quote expired. Refresh the quote and try again",
		},
		{
			name: "unknown tag",
			err:  errs.New(errs.Unknown, errs.Metadata{Chain: "polkadot", Detail: "boom"}),
			want: "Undefined error. Check your Internet and polkadot connection or contact support (boom)",
		},
		{
			name: "untagged error",
			err:  errors.New("socket closed"),
			want: "Undefined error. Check your Internet and network connection or contact support (socket closed)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, p.Present(tt.err), tt.want)
		})
	}

	assert.Equal(t, p.Present(nil), "")
}

func TestPresent_EveryTagHasMessage(t *testing.T) {
	var p presenter.Presenter
	for _, tag := range errs.Tags {
		assert.True(t, p.Present(errs.New(tag, errs.Metadata{})) != "")
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, presenter.FormatAmount(uint256.NewInt(12_345_678_901), 10, 6), "1.234567")
	assert.Equal(t, presenter.FormatAmount(uint256.NewInt(10_000_000_000), 10, 6), "1")
	assert.Equal(t, presenter.FormatAmount(uint256.NewInt(5), 0, 6), "5")
	assert.Equal(t, presenter.FormatAmount(uint256.NewInt(15), 1, 0), "1")
	assert.Equal(t, presenter.FormatAmount(nil, 10, 6), "0")
}

func TestPresent_FractionDigits(t *testing.T) {
	err := errs.New(errs.SwapExceedsAvailable, errs.Metadata{Amount: dot(12_345_678_901)})

	whole := &presenter.Presenter{MaxFractionDigits: 0}
	assert.Equal(t, whole.Digits(), 0)
	assert.Equal(t, whole.Present(err), "Amount too high. Lower your amount below 1 DOT and try again")

	two := &presenter.Presenter{MaxFractionDigits: 2}
	assert.Equal(t, two.Present(err), "Amount too high. Lower your amount below 1.23 DOT and try again")

	unset := &presenter.Presenter{MaxFractionDigits: -1}
	assert.Equal(t, unset.Digits(), presenter.DefaultMaxFractionDigits)
	assert.Equal(t, unset.Present(err), "Amount too high. Lower your amount below 1.234567 DOT and try again")
	assert.Equal(t, presenter.New().Digits(), presenter.DefaultMaxFractionDigits)
}

func TestPresent_Idempotent(t *testing.T) {
	p := presenter.New()
	metadata := []errs.Metadata{
		{},
		{Amount: dot(17_540_000)},
		{Amount: dot(1), FeeCheck: true, ChainName: "HydraDX"},
		{Chain: "moonbeam", ChainName: "Moonbeam", Detail: "timeout"},
		{Asset: "x", Amount: &errs.AmountMeta{Value: uint256.NewInt(7)}},
	}
	for _, tag := range errs.Tags {
		for _, md := range metadata {
			err := errs.New(tag, md)
			first := p.Present(err)
			assert.Equal(t, p.Present(err), first)
			assert.Equal(t, p.Present(fmt.Errorf("wrapped: %w", err)), first)
		}
	}
}
