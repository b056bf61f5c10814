package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Cogwheel-Validator/spectra-planner/planner/amm"
	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	"github.com/holiman/uint256"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
)

// CatalogFile is the on-disk catalog. Amounts are base-10 strings in minor
// units so they survive any TOML or JSON number limits.
type CatalogFile struct {
	Chains     []ChainEntry     `toml:"chains" json:"chains"`
	Assets     []AssetEntry     `toml:"assets" json:"assets"`
	Pools      []PoolEntry      `toml:"pools" json:"pools"`
	Pairs      []PairEntry      `toml:"pairs" json:"pairs"`
	YieldPools []YieldPoolEntry `toml:"yield_pools" json:"yield_pools"`
}

type ChainEntry struct {
	Slug          string   `toml:"slug" json:"slug"`
	Name          string   `toml:"name" json:"name"`
	Family        string   `toml:"family" json:"family"`
	NativeAsset   string   `toml:"native_asset" json:"native_asset"`
	FeeAssets     []string `toml:"fee_assets" json:"fee_assets"`
	DirectQuote   bool     `toml:"direct_quote" json:"direct_quote"`
	SwapBatching  string   `toml:"swap_batching" json:"swap_batching"`
	ProbeAddress  string   `toml:"probe_address" json:"probe_address"`
	QuoteTTL      string   `toml:"quote_ttl" json:"quote_ttl"`
	XcmInboundFee string   `toml:"xcm_inbound_fee" json:"xcm_inbound_fee"`
}

type AssetEntry struct {
	Slug                 string `toml:"slug" json:"slug"`
	Chain                string `toml:"chain" json:"chain"`
	Decimals             int    `toml:"decimals" json:"decimals"`
	Symbol               string `toml:"symbol" json:"symbol"`
	PriceID              string `toml:"price_id" json:"price_id"`
	Kind                 string `toml:"kind" json:"kind"`
	CrossChainDescriptor string `toml:"cross_chain_descriptor" json:"cross_chain_descriptor"`
	Group                string `toml:"group" json:"group"`
	MinAmount            string `toml:"min_amount" json:"min_amount"`
}

type PoolEntry struct {
	Chain       string `toml:"chain" json:"chain"`
	AssetA      string `toml:"asset_a" json:"asset_a"`
	AssetB      string `toml:"asset_b" json:"asset_b"`
	FeeBps      uint32 `toml:"fee_bps" json:"fee_bps"`
	MinReserveA string `toml:"min_reserve_a" json:"min_reserve_a"`
	MinReserveB string `toml:"min_reserve_b" json:"min_reserve_b"`
}

type PairEntry struct {
	From             string `toml:"from" json:"from"`
	To               string `toml:"to" json:"to"`
	PathKind         string `toml:"path_kind" json:"path_kind"`
	AlternativeAsset string `toml:"alternative_asset" json:"alternative_asset"`
	MinSwap          string `toml:"min_swap" json:"min_swap"`
	MaxSwap          string `toml:"max_swap" json:"max_swap"`
}

type YieldPoolEntry struct {
	Slug            string   `toml:"slug" json:"slug"`
	Chain           string   `toml:"chain" json:"chain"`
	Type            string   `toml:"type" json:"type"`
	InputAsset      string   `toml:"input_asset" json:"input_asset"`
	AltInputAsset   string   `toml:"alt_input_asset" json:"alt_input_asset"`
	DerivativeAsset string   `toml:"derivative_asset" json:"derivative_asset"`
	FeeAssets       []string `toml:"fee_assets" json:"fee_assets"`
	MinJoin         string   `toml:"min_join" json:"min_join"`
	ExchangeRate    string   `toml:"exchange_rate" json:"exchange_rate"`
}

// CatalogLoader loads catalog files and converts them to catalog types.
type CatalogLoader struct{}

// NewCatalogLoader creates a new catalog loader.
func NewCatalogLoader() *CatalogLoader {
	return &CatalogLoader{}
}

// LoadFromFile reads a .json or .toml catalog file.
func (l *CatalogLoader) LoadFromFile(filePath string) (*catalog.Catalog, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file CatalogFile

	if strings.HasSuffix(filePath, ".json") {
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse JSON catalog: %w", err)
		}
	} else {
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse TOML catalog: %w", err)
		}
	}

	return l.ConvertToCatalog(&file)
}

// ConvertToCatalog validates and indexes a decoded catalog file.
func (l *CatalogLoader) ConvertToCatalog(file *CatalogFile) (*catalog.Catalog, error) {
	if file == nil || len(file.Chains) == 0 {
		return nil, fmt.Errorf("no chains in catalog")
	}

	chains := make([]catalog.Chain, len(file.Chains))
	for i, c := range file.Chains {
		ttl, err := parseDuration(c.QuoteTTL)
		if err != nil {
			return nil, fmt.Errorf("chain %s quote_ttl: %w", c.Slug, err)
		}
		inbound, err := parseAmount(c.XcmInboundFee)
		if err != nil {
			return nil, fmt.Errorf("chain %s xcm_inbound_fee: %w", c.Slug, err)
		}
		chains[i] = catalog.Chain{
			Slug:          c.Slug,
			Name:          c.Name,
			Family:        catalog.Family(strings.ToUpper(c.Family)),
			NativeAsset:   c.NativeAsset,
			FeeAssets:     c.FeeAssets,
			DirectQuote:   c.DirectQuote,
			SwapBatching:  catalog.Batching(strings.ToUpper(c.SwapBatching)),
			ProbeAddress:  c.ProbeAddress,
			QuoteTTL:      ttl,
			XcmInboundFee: inbound,
		}
	}

	assets := make([]catalog.Asset, len(file.Assets))
	for i, a := range file.Assets {
		minAmount, err := parseAmount(a.MinAmount)
		if err != nil {
			return nil, fmt.Errorf("asset %s min_amount: %w", a.Slug, err)
		}
		assets[i] = catalog.Asset{
			Slug:                 a.Slug,
			Chain:                a.Chain,
			Decimals:             a.Decimals,
			Symbol:               a.Symbol,
			PriceID:              a.PriceID,
			Kind:                 catalog.AssetKind(strings.ToUpper(a.Kind)),
			CrossChainDescriptor: a.CrossChainDescriptor,
			Group:                a.Group,
			MinAmount:            minAmount,
		}
	}

	pools := make([]catalog.Pool, len(file.Pools))
	for i, p := range file.Pools {
		minA, err := parseOptional(p.MinReserveA)
		if err != nil {
			return nil, fmt.Errorf("pool %s/%s min_reserve_a: %w", p.AssetA, p.AssetB, err)
		}
		minB, err := parseOptional(p.MinReserveB)
		if err != nil {
			return nil, fmt.Errorf("pool %s/%s min_reserve_b: %w", p.AssetA, p.AssetB, err)
		}
		pools[i] = catalog.Pool{
			Chain:       p.Chain,
			AssetA:      p.AssetA,
			AssetB:      p.AssetB,
			FeeBps:      p.FeeBps,
			MinReserveA: minA,
			MinReserveB: minB,
		}
	}

	pairs := make([]catalog.PairRef, len(file.Pairs))
	for i, p := range file.Pairs {
		minSwap, err := parseOptional(p.MinSwap)
		if err != nil {
			return nil, fmt.Errorf("pair %s->%s min_swap: %w", p.From, p.To, err)
		}
		maxSwap, err := parseOptional(p.MaxSwap)
		if err != nil {
			return nil, fmt.Errorf("pair %s->%s max_swap: %w", p.From, p.To, err)
		}
		kind := catalog.PathKind(strings.ToUpper(p.PathKind))
		if kind == "" {
			kind = catalog.PathSwap
		}
		pairs[i] = catalog.PairRef{
			From:             p.From,
			To:               p.To,
			PathKind:         kind,
			AlternativeAsset: p.AlternativeAsset,
			MinSwap:          minSwap,
			MaxSwap:          maxSwap,
		}
	}

	yieldPools := make([]catalog.YieldPool, len(file.YieldPools))
	for i, y := range file.YieldPools {
		minJoin, err := parseOptional(y.MinJoin)
		if err != nil {
			return nil, fmt.Errorf("yield pool %s min_join: %w", y.Slug, err)
		}
		rate := decimal.Zero
		if y.ExchangeRate != "" {
			rate, err = decimal.NewFromString(y.ExchangeRate)
			if err != nil {
				return nil, fmt.Errorf("yield pool %s exchange_rate: %w", y.Slug, err)
			}
		}
		yieldPools[i] = catalog.YieldPool{
			Slug:            y.Slug,
			Chain:           y.Chain,
			Type:            catalog.YieldType(strings.ToUpper(y.Type)),
			InputAsset:      y.InputAsset,
			AltInputAsset:   y.AltInputAsset,
			DerivativeAsset: y.DerivativeAsset,
			FeeAssets:       y.FeeAssets,
			MinJoin:         minJoin,
			ExchangeRate:    rate,
		}
	}

	return catalog.New(chains, assets, pools, pairs, yieldPools)
}

// parseAmount treats an empty string as zero.
func parseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	return amm.ParseAmount(s)
}

// parseOptional keeps an empty string unset.
func parseOptional(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, nil
	}
	return amm.ParseAmount(s)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
