package validation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	"github.com/Cogwheel-Validator/spectra-planner/planner/chain"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/Cogwheel-Validator/spectra-planner/planner/plan"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var validationLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	validationLog = zerolog.New(out).With().Timestamp().Str("component", "validation").Logger()
}

// Service reads live balances and runs the engine against them.
type Service struct {
	engine   *Engine
	catalog  *catalog.Catalog
	balances chain.BalanceProvider
	now      func() time.Time

	tracer   trace.Tracer
	verdicts metric.Int64Counter
}

// NewService returns a Service. now may be nil for time.Now.
func NewService(cat *catalog.Catalog, balances chain.BalanceProvider, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	s := &Service{
		engine:   NewEngine(cat),
		catalog:  cat,
		balances: balances,
		now:      now,
		tracer:   otel.Tracer("github.com/Cogwheel-Validator/spectra-planner/planner/validation"),
	}
	var err error
	s.verdicts, err = otel.Meter("github.com/Cogwheel-Validator/spectra-planner/planner/validation").
		Int64Counter("planner.validations", metric.WithDescription("Validation verdicts by tag"))
	if err != nil {
		validationLog.Warn().Err(err).Msg("Failed to create validation counter")
	}
	return s
}

// Validate checks p for address. An empty address falls back to the plan's
// payer. Balance read failures are reported as ChainQueryFailed.
func (s *Service) Validate(ctx context.Context, p *plan.Plan, address string, settled map[int]bool) (err error) {
	if p == nil {
		return errors.New("nil plan")
	}
	if address == "" {
		address = p.Address
	}
	ctx, span := s.tracer.Start(ctx, "Validate", trace.WithAttributes(
		attribute.String("plan", p.ID),
		attribute.Int("steps", len(p.Steps)),
	))
	defer func() {
		verdict := "ok"
		if err != nil {
			verdict = string(errs.TagOf(err))
			span.SetAttributes(attribute.String("verdict", verdict))
		}
		span.End()
		if s.verdicts != nil {
			s.verdicts.Add(ctx, 1, metric.WithAttributes(attribute.String("verdict", verdict)))
		}
	}()

	in := Input{
		Balances: make(map[string]*uint256.Int),
		Settled:  settled,
		Now:      s.now(),
	}
	// an expired plan fails regardless of balances, so skip the reads
	if !p.Expired(in.Now) {
		for _, asset := range p.Assets() {
			bal, err := s.balances.LiveBalance(ctx, address, asset)
			if err != nil {
				chainSlug := ""
				if a, ok := s.catalog.Asset(asset); ok {
					chainSlug = a.Chain
				}
				return errs.ChainQuery(chainSlug, fmt.Errorf("balance of %s: %w", asset, err))
			}
			if bal == nil {
				bal = new(uint256.Int)
			}
			in.Balances[asset] = bal
		}
	}

	err = s.engine.Validate(p, in)
	validationLog.Debug().
		Str("plan", p.ID).
		Str("address", address).
		Str("verdict", string(errs.TagOf(err))).
		Msg("Validated plan")
	return err
}

// Engine exposes the pure engine for callers that already hold balances.
func (s *Service) Engine() *Engine {
	return s.engine
}
