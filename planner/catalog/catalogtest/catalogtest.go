// Package catalogtest builds a small three-chain catalog used across the
// planner tests.
package catalogtest

import (
	"testing"

	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const (
	Polkadot = "polkadot"
	HydraDX  = "hydradx"
	Moonbeam = "moonbeam"

	DOT      = "polkadot-NATIVE-DOT"
	HDX      = "hydradx-NATIVE-HDX"
	HydraDOT = "hydradx-LOCAL-DOT"
	USDT     = "hydradx-LOCAL-USDT"
	VDOT     = "hydradx-LOCAL-vDOT"
	GLMR     = "moonbeam-NATIVE-GLMR"
	XcDOT    = "moonbeam-LOCAL-xcDOT"
	MxcDOT   = "moonbeam-LOCAL-mxcDOT"

	LiquidStaking = "vDOT___liquid_staking___hydradx"
	NativeStaking = "DOT___native_staking___polkadot"
	Lending       = "xcDOT___lending___moonbeam"

	// Alice on the generic substrate prefix.
	SubstrateAddress = "5GrwvaEF5zXb26Fz9rcQpDWS55tcZ6ZWqtbmmDm9q3FgUT9a"
	EVMAddress       = "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"
)

// HydraInboundFee is deducted from every transfer arriving on HydraDX.
const HydraInboundFee = 100_000_000

// Records is the raw input of catalog.New. Tests tweak it before Build.
type Records struct {
	Chains     []catalog.Chain
	Assets     []catalog.Asset
	Pools      []catalog.Pool
	Pairs      []catalog.PairRef
	YieldPools []catalog.YieldPool
}

func amount(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// Default returns the standard records: Polkadot (native DOT), HydraDX
// (batched swaps, HDX primary fee asset, DOT accepted) and Moonbeam (EVM).
func Default() *Records {
	return &Records{
		Chains: []catalog.Chain{
			{
				Slug:         Polkadot,
				Name:         "Polkadot",
				Family:       catalog.FamilySubstrate,
				NativeAsset:  DOT,
				ProbeAddress: SubstrateAddress,
			},
			{
				Slug:          HydraDX,
				Name:          "HydraDX",
				Family:        catalog.FamilySubstrate,
				NativeAsset:   HDX,
				FeeAssets:     []string{HDX, HydraDOT},
				SwapBatching:  catalog.BatchingBatched,
				ProbeAddress:  SubstrateAddress,
				XcmInboundFee: amount(HydraInboundFee),
			},
			{
				Slug:         Moonbeam,
				Name:         "Moonbeam",
				Family:       catalog.FamilyEVM,
				NativeAsset:  GLMR,
				ProbeAddress: EVMAddress,
			},
		},
		Assets: []catalog.Asset{
			{Slug: DOT, Chain: Polkadot, Decimals: 10, Symbol: "DOT", PriceID: "polkadot", Kind: catalog.AssetNative, Group: "DOT", MinAmount: amount(10_000_000_000), CrossChainDescriptor: `{"parents":0,"interior":"Here"}`},
			{Slug: HDX, Chain: HydraDX, Decimals: 12, Symbol: "HDX", PriceID: "hydradx", Kind: catalog.AssetNative, MinAmount: amount(1_000_000_000_000)},
			{Slug: HydraDOT, Chain: HydraDX, Decimals: 10, Symbol: "DOT", PriceID: "polkadot", Kind: catalog.AssetLocal, Group: "DOT", MinAmount: amount(17_540_000)},
			{Slug: USDT, Chain: HydraDX, Decimals: 6, Symbol: "USDT", PriceID: "tether", Kind: catalog.AssetLocal, MinAmount: amount(10_000)},
			{Slug: VDOT, Chain: HydraDX, Decimals: 10, Symbol: "vDOT", Kind: catalog.AssetLocal, MinAmount: amount(10_000_000)},
			{Slug: GLMR, Chain: Moonbeam, Decimals: 18, Symbol: "GLMR", Kind: catalog.AssetNative},
			{Slug: XcDOT, Chain: Moonbeam, Decimals: 10, Symbol: "xcDOT", Kind: catalog.AssetContractBacked, Group: "DOT"},
			{Slug: MxcDOT, Chain: Moonbeam, Decimals: 8, Symbol: "mxcDOT", Kind: catalog.AssetContractBacked},
		},
		Pools: []catalog.Pool{
			{AssetA: HydraDOT, AssetB: USDT, FeeBps: 30},
			{AssetA: HDX, AssetB: HydraDOT, FeeBps: 30, MinReserveA: amount(5_000_000_000_000)},
			{AssetA: HDX, AssetB: USDT, FeeBps: 30},
			{AssetA: VDOT, AssetB: HDX, FeeBps: 30},
		},
		Pairs: []catalog.PairRef{
			{From: HydraDOT, To: USDT, PathKind: catalog.PathSwap, AlternativeAsset: DOT, MinSwap: amount(1_000_000_000)},
			{From: VDOT, To: USDT, PathKind: catalog.PathSwap},
			{From: USDT, To: HydraDOT, PathKind: catalog.PathSwap},
			{From: DOT, To: HydraDOT, PathKind: catalog.PathXCM, MaxSwap: amount(1_000_000_000_000_000)},
		},
		YieldPools: []catalog.YieldPool{
			{
				Slug:            LiquidStaking,
				Chain:           HydraDX,
				Type:            catalog.YieldLiquidStaking,
				InputAsset:      HydraDOT,
				AltInputAsset:   DOT,
				DerivativeAsset: VDOT,
				FeeAssets:       []string{HDX},
				MinJoin:         amount(50_000_000_000),
				ExchangeRate:    decimal.RequireFromString("0.65"),
			},
			{
				Slug:            NativeStaking,
				Chain:           Polkadot,
				Type:            catalog.YieldNativeStaking,
				InputAsset:      DOT,
				DerivativeAsset: DOT,
			},
			{
				Slug:            Lending,
				Chain:           Moonbeam,
				Type:            catalog.YieldLending,
				InputAsset:      XcDOT,
				DerivativeAsset: MxcDOT,
				ExchangeRate:    decimal.RequireFromString("50"),
			},
		},
	}
}

// Chain returns a pointer to the named chain record for in-place edits.
func (r *Records) Chain(slug string) *catalog.Chain {
	for i := range r.Chains {
		if r.Chains[i].Slug == slug {
			return &r.Chains[i]
		}
	}
	return nil
}

// Asset returns a pointer to the named asset record for in-place edits.
func (r *Records) Asset(slug string) *catalog.Asset {
	for i := range r.Assets {
		if r.Assets[i].Slug == slug {
			return &r.Assets[i]
		}
	}
	return nil
}

// Build fails the test when the records do not form a valid catalog.
func (r *Records) Build(t testing.TB) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(r.Chains, r.Assets, r.Pools, r.Pairs, r.YieldPools)
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	return cat
}

// New builds the default catalog.
func New(t testing.TB) *catalog.Catalog {
	t.Helper()
	return Default().Build(t)
}
