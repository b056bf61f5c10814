package catalog

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// AssetKind describes how an asset lives on its chain.
type AssetKind string

const (
	AssetNative         AssetKind = "NATIVE"
	AssetLocal          AssetKind = "LOCAL"
	AssetContractBacked AssetKind = "CONTRACT_BACKED"
)

// Family is the address-format family of a chain.
type Family string

const (
	// FamilySubstrate chains use account-based addresses (SS58 / bech32).
	FamilySubstrate Family = "SUBSTRATE"
	// FamilyEVM chains use contract-style 20-byte hex addresses.
	FamilyEVM Family = "EVM"
)

// Batching says whether a chain executes a multi-hop swap as one call or one
// call per hop.
type Batching string

const (
	BatchingBatched Batching = "BATCHED"
	BatchingPerHop  Batching = "PER_HOP"
)

// PathKind is the transport used between the two assets of a pair.
type PathKind string

const (
	PathXCM  PathKind = "XCM"
	PathSwap PathKind = "SWAP"
)

// YieldType selects the terminal step of a yield entry.
type YieldType string

const (
	YieldLiquidStaking YieldType = "LIQUID_STAKING"
	YieldNativeStaking YieldType = "NATIVE_STAKING"
	YieldLending       YieldType = "LENDING"
)

// DefaultQuoteTTL is used for chains that do not configure their own.
const DefaultQuoteTTL = 60 * time.Second

// Asset is a single token on a single chain.
type Asset struct {
	Slug     string
	Chain    string
	Decimals int
	Symbol   string
	// PriceID is only used by presentation layers.
	PriceID string
	Kind    AssetKind
	// CrossChainDescriptor is an opaque locator handed to the bridge step.
	CrossChainDescriptor string
	// Group ties together the same fungible asset on different chains.
	Group string
	// MinAmount is the existential deposit of the asset.
	MinAmount *uint256.Int
}

// Chain holds the per-chain planning metadata.
type Chain struct {
	Slug        string
	Name        string
	Family      Family
	NativeAsset string
	// FeeAssets lists accepted fee assets, primary first.
	FeeAssets    []string
	DirectQuote  bool
	SwapBatching Batching
	// ProbeAddress stands in for an unknown payer or recipient when
	// estimating fees.
	ProbeAddress string
	QuoteTTL     time.Duration
	// XcmInboundFee is deducted from every transfer arriving on this chain.
	XcmInboundFee *uint256.Int
}

// PrimaryFeeAsset returns the first accepted fee asset, or the native asset.
func (c Chain) PrimaryFeeAsset() string {
	if len(c.FeeAssets) > 0 {
		return c.FeeAssets[0]
	}
	return c.NativeAsset
}

// AcceptsFeeAsset reports whether slug can pay fees on the chain.
func (c Chain) AcceptsFeeAsset(slug string) bool {
	if len(c.FeeAssets) == 0 {
		return slug == c.NativeAsset
	}
	for _, s := range c.FeeAssets {
		if s == slug {
			return true
		}
	}
	return false
}

// TTL returns the quote lifetime on the chain.
func (c Chain) TTL() time.Duration {
	if c.QuoteTTL <= 0 {
		return DefaultQuoteTTL
	}
	return c.QuoteTTL
}

// Pool is the static metadata of an AMM pool. Reserves are never stored.
type Pool struct {
	Chain  string
	AssetA string
	AssetB string
	FeeBps uint32
	// MinReserveA and MinReserveB override the asset existential deposits
	// as the pool floors.
	MinReserveA *uint256.Int
	MinReserveB *uint256.Int
}

// Has reports whether slug is one side of the pool.
func (p Pool) Has(slug string) bool {
	return p.AssetA == slug || p.AssetB == slug
}

// PairRef is a tradable (from, to) combination.
type PairRef struct {
	From     string
	To       string
	PathKind PathKind
	// AlternativeAsset is a same-group asset on another chain that can be
	// bridged in when the From balance is short.
	AlternativeAsset string
	MinSwap          *uint256.Int
	MaxSwap          *uint256.Int
}

// Validate checks the pair against the catalog.
func (p PairRef) Validate(c *Catalog) error {
	if p.From == p.To {
		return fmt.Errorf("pair %s: source and destination are the same asset", p.From)
	}
	from, ok := c.Asset(p.From)
	if !ok {
		return fmt.Errorf("pair %s->%s: unknown asset %s", p.From, p.To, p.From)
	}
	to, ok := c.Asset(p.To)
	if !ok {
		return fmt.Errorf("pair %s->%s: unknown asset %s", p.From, p.To, p.To)
	}
	switch p.PathKind {
	case PathXCM:
		if from.Chain == to.Chain {
			return fmt.Errorf("pair %s->%s: xcm pair on a single chain", p.From, p.To)
		}
	case PathSwap:
		if from.Chain != to.Chain {
			return fmt.Errorf("pair %s->%s: swap pair across chains", p.From, p.To)
		}
	default:
		return fmt.Errorf("pair %s->%s: unknown path kind %q", p.From, p.To, p.PathKind)
	}
	if p.AlternativeAsset != "" {
		alt, ok := c.Asset(p.AlternativeAsset)
		if !ok {
			return fmt.Errorf("pair %s->%s: unknown alternative asset %s", p.From, p.To, p.AlternativeAsset)
		}
		if p.PathKind == PathSwap && (alt.Group == "" || alt.Group != from.Group) {
			return fmt.Errorf("pair %s->%s: alternative asset %s is not in group %q",
				p.From, p.To, p.AlternativeAsset, from.Group)
		}
	}
	return nil
}

// YieldPool is a staking or lending target.
type YieldPool struct {
	Slug            string
	Chain           string
	Type            YieldType
	InputAsset      string
	AltInputAsset   string
	DerivativeAsset string
	FeeAssets       []string
	MinJoin         *uint256.Int
	// ExchangeRate is derivative units per input unit, in major units. Zero
	// means 1.
	ExchangeRate decimal.Decimal
}
