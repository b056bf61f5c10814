package rpc

import (
	"fmt"
	"strings"

	"github.com/Cogwheel-Validator/spectra-planner/planner/amm"
	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/Cogwheel-Validator/spectra-planner/planner/fees"
	"github.com/Cogwheel-Validator/spectra-planner/planner/models"
	"github.com/Cogwheel-Validator/spectra-planner/planner/plan"
	"github.com/Cogwheel-Validator/spectra-planner/planner/presenter"
	"github.com/holiman/uint256"
)

func amountStr(v *uint256.Int) string {
	if v == nil {
		return ""
	}
	return v.Dec()
}

// planToModel renders p for the wire. Fee totals are labeled with catalog
// symbols and scaled to display units.
func planToModel(p *plan.Plan, cat *catalog.Catalog, maxFraction int) *models.Plan {
	out := &models.Plan{
		ID:              p.ID,
		Intent:          string(p.Intent),
		Target:          p.Target,
		Steps:           make([]*models.Step, 0, len(p.Steps)),
		Fees:            make([]*models.Fee, 0, len(p.Fees)),
		FeeTotals:       []*models.Total{},
		ChargedTotals:   []*models.Total{},
		FeesByKind:      []*models.Total{},
		Hops:            make([]*models.Hop, 0, len(p.HopOutputs)),
		RequestedAmount: amountStr(p.RequestedAmount),
		Address:         p.Address,
		Recipient:       p.Recipient,
		DestChain:       p.DestChain,
		CreatedAt:       p.CreatedAt.UnixMilli(),
	}

	for _, s := range p.Steps {
		step := &models.Step{
			ID:       s.ID,
			Kind:     string(s.Kind),
			Chain:    s.Chain,
			Metadata: s.Metadata,
		}
		if s.Principal != nil {
			step.Principal = &models.AssetAmount{Asset: s.Principal.Asset, Amount: amountStr(s.Principal.Amount)}
		}
		if s.Incoming != nil {
			step.Incoming = &models.AssetAmount{Asset: s.Incoming.Asset, Amount: amountStr(s.Incoming.Amount)}
		}
		out.Steps = append(out.Steps, step)
	}

	for _, f := range p.Fees {
		out.Fees = append(out.Fees, &models.Fee{
			StepID:        f.StepID,
			Asset:         f.AssetSlug,
			Amount:        amountStr(f.Amount),
			Kind:          string(f.Kind),
			FromPrincipal: f.FromPrincipal,
		})
	}

	ledger := p.Ledger()
	out.HasFees = ledger.HasAny()
	payable := ledger.PayableByAsset()
	charged := ledger.TotalByAsset()
	byKind := ledger.TotalByKind()
	for _, slug := range ledger.Assets() {
		if total, ok := payable[slug]; ok {
			out.FeeTotals = append(out.FeeTotals, feeTotal(cat, slug, "", total, maxFraction))
		}
		out.ChargedTotals = append(out.ChargedTotals, feeTotal(cat, slug, "", charged[slug], maxFraction))
		for _, kind := range []fees.Kind{fees.KindNetwork, fees.KindPlatform, fees.KindWallet} {
			if total, ok := byKind[slug][kind]; ok {
				out.FeesByKind = append(out.FeesByKind, feeTotal(cat, slug, kind, total, maxFraction))
			}
		}
	}

	// a single-asset route has no hops
	for i := 0; i+1 < len(p.Route) && i < len(p.HopOutputs); i++ {
		hop := &models.Hop{
			AssetIn:   p.Route[i],
			AssetOut:  p.Route[i+1],
			AmountIn:  amountStr(p.HopInputs[i]),
			AmountOut: amountStr(p.HopOutputs[i]),
		}
		if i < len(p.Reserves) {
			hop.ReserveIn = amountStr(p.Reserves[i].ReserveIn)
			hop.ReserveOut = amountStr(p.Reserves[i].ReserveOut)
		}
		out.Hops = append(out.Hops, hop)
	}

	q := p.Quote
	out.Quote = &models.Quote{
		FromAsset:      q.FromAsset,
		ToAsset:        q.ToAsset,
		FromAmount:     amountStr(q.FromAmount),
		ToAmount:       amountStr(q.ToAmount),
		MinReceive:     amountStr(q.MinReceive),
		Rate:           q.Rate.String(),
		PriceImpact:    q.PriceImpact.String(),
		IsLowLiquidity: q.IsLowLiquidity,
		AliveUntil:     q.AliveUntil.UnixMilli(),
		MinSwap:        amountStr(q.MinSwap),
		MinSwapAsset:   q.MinSwapAsset,
		MaxSwap:        amountStr(q.MaxSwap),
	}
	return out
}

func feeTotal(cat *catalog.Catalog, slug string, kind fees.Kind, total *uint256.Int, maxFraction int) *models.Total {
	return &models.Total{
		Asset:   slug,
		Amount:  total.Dec(),
		Display: displayAmount(cat, slug, total, maxFraction),
		Kind:    string(kind),
	}
}

func displayAmount(cat *catalog.Catalog, slug string, v *uint256.Int, maxFraction int) string {
	a, ok := cat.Asset(slug)
	if !ok {
		return v.Dec()
	}
	return strings.TrimSpace(presenter.FormatAmount(v, a.Decimals, maxFraction) + " " + a.Symbol)
}

func metadataToModel(md errs.Metadata) *models.ErrorMetadata {
	out := &models.ErrorMetadata{
		FeeCheck:  md.FeeCheck,
		Chain:     md.Chain,
		ChainName: md.ChainName,
		Asset:     md.Asset,
		Hop:       md.Hop,
		StepID:    md.StepID,
		Detail:    md.Detail,
	}
	if md.Amount != nil {
		out.Amount = amountStr(md.Amount.Value)
		out.Decimals = md.Amount.Decimals
		out.Symbol = md.Amount.Symbol
	}
	return out
}

func metadataFromModel(m *models.ErrorMetadata) (errs.Metadata, error) {
	if m == nil {
		return errs.Metadata{}, nil
	}
	md := errs.Metadata{
		FeeCheck:  m.FeeCheck,
		Chain:     m.Chain,
		ChainName: m.ChainName,
		Asset:     m.Asset,
		Hop:       m.Hop,
		StepID:    m.StepID,
		Detail:    m.Detail,
	}
	if m.Amount != "" || m.Symbol != "" {
		md.Amount = &errs.AmountMeta{Decimals: m.Decimals, Symbol: m.Symbol}
		if m.Amount != "" {
			v, err := amm.ParseAmount(m.Amount)
			if err != nil {
				return errs.Metadata{}, fmt.Errorf("invalid metadata amount: %w", err)
			}
			md.Amount.Value = v
		}
	}
	return md, nil
}

func parseTag(s string) (errs.Tag, bool) {
	for _, t := range errs.Tags {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

func catalogToModel(cat *catalog.Catalog) *models.CatalogResponse {
	out := &models.CatalogResponse{
		Assets:     []*models.AssetInfo{},
		Pairs:      []*models.PairInfo{},
		YieldPools: []*models.YieldPoolInfo{},
	}
	for _, a := range cat.Assets() {
		out.Assets = append(out.Assets, &models.AssetInfo{
			Slug:      a.Slug,
			Chain:     a.Chain,
			Symbol:    a.Symbol,
			Decimals:  a.Decimals,
			Kind:      string(a.Kind),
			Group:     a.Group,
			MinAmount: amountStr(a.MinAmount),
		})
	}
	for _, p := range cat.Pairs() {
		out.Pairs = append(out.Pairs, &models.PairInfo{
			From:             p.From,
			To:               p.To,
			PathKind:         string(p.PathKind),
			AlternativeAsset: p.AlternativeAsset,
			MinSwap:          amountStr(p.MinSwap),
			MaxSwap:          amountStr(p.MaxSwap),
		})
	}
	for _, y := range cat.YieldPools() {
		out.YieldPools = append(out.YieldPools, &models.YieldPoolInfo{
			Slug:            y.Slug,
			Chain:           y.Chain,
			Type:            string(y.Type),
			InputAsset:      y.InputAsset,
			AltInputAsset:   y.AltInputAsset,
			DerivativeAsset: y.DerivativeAsset,
			MinJoin:         amountStr(y.MinJoin),
			FeeAssets:       y.FeeAssets,
		})
	}
	return out
}
