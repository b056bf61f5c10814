// Package catalog is the read-only asset, chain and pool metadata shared by
// every planning request. A Catalog is built once and replaced wholesale on
// reload; it is never patched in place.
package catalog

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"
)

type pairKey struct {
	a, b string
}

// unordered key so pools resolve in both directions
func poolKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Catalog indexes the static metadata.
type Catalog struct {
	assets     map[string]Asset
	chains     map[string]Chain
	pools      map[pairKey]Pool
	pairs      map[pairKey]PairRef
	yieldPools map[string]YieldPool
}

// New validates the references between the given records and builds the
// indexes.
func New(chains []Chain, assets []Asset, pools []Pool, pairs []PairRef, yieldPools []YieldPool) (*Catalog, error) {
	c := &Catalog{
		assets:     make(map[string]Asset, len(assets)),
		chains:     make(map[string]Chain, len(chains)),
		pools:      make(map[pairKey]Pool, len(pools)),
		pairs:      make(map[pairKey]PairRef, len(pairs)),
		yieldPools: make(map[string]YieldPool, len(yieldPools)),
	}

	for _, ch := range chains {
		if ch.Slug == "" {
			return nil, fmt.Errorf("chain with empty slug")
		}
		if _, dup := c.chains[ch.Slug]; dup {
			return nil, fmt.Errorf("duplicate chain %s", ch.Slug)
		}
		if ch.SwapBatching == "" {
			ch.SwapBatching = BatchingBatched
		}
		if ch.Family == "" {
			ch.Family = FamilySubstrate
		}
		c.chains[ch.Slug] = ch
	}

	for _, a := range assets {
		if a.Slug == "" {
			return nil, fmt.Errorf("asset with empty slug")
		}
		if _, dup := c.assets[a.Slug]; dup {
			return nil, fmt.Errorf("duplicate asset %s", a.Slug)
		}
		if _, ok := c.chains[a.Chain]; !ok {
			return nil, fmt.Errorf("asset %s references unknown chain %s", a.Slug, a.Chain)
		}
		if a.Decimals < 0 {
			return nil, fmt.Errorf("asset %s has negative decimals", a.Slug)
		}
		if a.MinAmount == nil {
			a.MinAmount = new(uint256.Int)
		}
		c.assets[a.Slug] = a
	}

	for slug, ch := range c.chains {
		if ch.NativeAsset != "" {
			if _, ok := c.assets[ch.NativeAsset]; !ok {
				return nil, fmt.Errorf("chain %s references unknown native asset %s", slug, ch.NativeAsset)
			}
		}
		for _, fa := range ch.FeeAssets {
			if _, ok := c.assets[fa]; !ok {
				return nil, fmt.Errorf("chain %s references unknown fee asset %s", slug, fa)
			}
		}
	}

	for _, p := range pools {
		a, okA := c.assets[p.AssetA]
		b, okB := c.assets[p.AssetB]
		if !okA || !okB {
			return nil, fmt.Errorf("pool %s/%s references an unknown asset", p.AssetA, p.AssetB)
		}
		if p.AssetA == p.AssetB {
			return nil, fmt.Errorf("pool %s/%s has identical sides", p.AssetA, p.AssetB)
		}
		if a.Chain != b.Chain {
			return nil, fmt.Errorf("pool %s/%s spans two chains", p.AssetA, p.AssetB)
		}
		if p.Chain == "" {
			p.Chain = a.Chain
		}
		if p.Chain != a.Chain {
			return nil, fmt.Errorf("pool %s/%s is declared on %s but its assets live on %s",
				p.AssetA, p.AssetB, p.Chain, a.Chain)
		}
		if p.FeeBps >= 10_000 {
			return nil, fmt.Errorf("pool %s/%s has fee %d bps", p.AssetA, p.AssetB, p.FeeBps)
		}
		c.pools[poolKey(p.AssetA, p.AssetB)] = p
	}

	for _, pr := range pairs {
		if err := pr.Validate(c); err != nil {
			return nil, err
		}
		c.pairs[pairKey{pr.From, pr.To}] = pr
	}

	for _, yp := range yieldPools {
		if _, ok := c.chains[yp.Chain]; !ok {
			return nil, fmt.Errorf("yield pool %s references unknown chain %s", yp.Slug, yp.Chain)
		}
		for _, slug := range []string{yp.InputAsset, yp.DerivativeAsset} {
			if _, ok := c.assets[slug]; !ok {
				return nil, fmt.Errorf("yield pool %s references unknown asset %q", yp.Slug, slug)
			}
		}
		if yp.AltInputAsset != "" {
			if _, ok := c.assets[yp.AltInputAsset]; !ok {
				return nil, fmt.Errorf("yield pool %s references unknown alternative input %s", yp.Slug, yp.AltInputAsset)
			}
		}
		c.yieldPools[yp.Slug] = yp
	}

	return c, nil
}

func (c *Catalog) Asset(slug string) (Asset, bool) {
	a, ok := c.assets[slug]
	return a, ok
}

func (c *Catalog) Chain(slug string) (Chain, bool) {
	ch, ok := c.chains[slug]
	return ch, ok
}

// ChainOf returns the chain an asset lives on.
func (c *Catalog) ChainOf(assetSlug string) (Chain, bool) {
	a, ok := c.assets[assetSlug]
	if !ok {
		return Chain{}, false
	}
	return c.Chain(a.Chain)
}

// Pool looks up the pool between two assets in either order.
func (c *Catalog) Pool(a, b string) (Pool, bool) {
	p, ok := c.pools[poolKey(a, b)]
	return p, ok
}

func (c *Catalog) Pair(from, to string) (PairRef, bool) {
	p, ok := c.pairs[pairKey{from, to}]
	return p, ok
}

func (c *Catalog) YieldPool(slug string) (YieldPool, bool) {
	yp, ok := c.yieldPools[slug]
	return yp, ok
}

// Floors returns the existential floors of the pool between assetIn and
// assetOut, oriented in trade direction.
func (c *Catalog) Floors(assetIn, assetOut string) (floorIn, floorOut *uint256.Int) {
	floorIn, floorOut = new(uint256.Int), new(uint256.Int)
	if a, ok := c.assets[assetIn]; ok && a.MinAmount != nil {
		floorIn = a.MinAmount
	}
	if a, ok := c.assets[assetOut]; ok && a.MinAmount != nil {
		floorOut = a.MinAmount
	}
	p, ok := c.Pool(assetIn, assetOut)
	if !ok {
		return floorIn, floorOut
	}
	minIn, minOut := p.MinReserveA, p.MinReserveB
	if p.AssetA != assetIn {
		minIn, minOut = minOut, minIn
	}
	if minIn != nil {
		floorIn = minIn
	}
	if minOut != nil {
		floorOut = minOut
	}
	return floorIn, floorOut
}

// Assets returns every asset sorted by slug.
func (c *Catalog) Assets() []Asset {
	out := make([]Asset, 0, len(c.assets))
	for _, a := range c.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// Chains returns every chain sorted by slug.
func (c *Catalog) Chains() []Chain {
	out := make([]Chain, 0, len(c.chains))
	for _, ch := range c.chains {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// Pairs returns every pair sorted by (from, to).
func (c *Catalog) Pairs() []PairRef {
	out := make([]PairRef, 0, len(c.pairs))
	for _, p := range c.pairs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// YieldPools returns every yield pool sorted by slug.
func (c *Catalog) YieldPools() []YieldPool {
	out := make([]YieldPool, 0, len(c.yieldPools))
	for _, yp := range c.yieldPools {
		out = append(out, yp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}
