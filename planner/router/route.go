package router

import (
	"fmt"

	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
)

// FindRoute resolves a single-chain route between two assets. A direct pool
// wins; otherwise the chain's native asset, then its fee assets, are tried as
// a hub. Only catalog pools count; whether they hold liquidity is checked
// later against live reserves.
func FindRoute(cat *catalog.Catalog, from, to string) ([]string, error) {
	if from == to {
		return []string{from}, nil
	}
	fromAsset, ok := cat.Asset(from)
	if !ok {
		return nil, errs.New(errs.AssetNotSupported, errs.Metadata{Asset: from})
	}
	toAsset, ok := cat.Asset(to)
	if !ok {
		return nil, errs.New(errs.AssetNotSupported, errs.Metadata{Asset: to})
	}
	if fromAsset.Chain != toAsset.Chain {
		return nil, errs.New(errs.AssetNotSupported, errs.Metadata{
			Asset:  to,
			Chain:  fromAsset.Chain,
			Detail: fmt.Sprintf("no single-chain route from %s to %s", from, to),
		})
	}

	if _, ok := cat.Pool(from, to); ok {
		return []string{from, to}, nil
	}

	ch, _ := cat.Chain(fromAsset.Chain)
	hubs := append([]string{ch.NativeAsset}, ch.FeeAssets...)
	for _, hub := range hubs {
		if hub == "" || hub == from || hub == to {
			continue
		}
		_, okIn := cat.Pool(from, hub)
		_, okOut := cat.Pool(hub, to)
		if okIn && okOut {
			return []string{from, hub, to}, nil
		}
	}

	return nil, errs.New(errs.AssetNotSupported, errs.Metadata{
		Asset:     to,
		Chain:     ch.Slug,
		ChainName: ch.Name,
		Detail:    fmt.Sprintf("no pool route from %s to %s", from, to),
	})
}
