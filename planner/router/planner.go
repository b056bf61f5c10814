package router

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	"github.com/Cogwheel-Validator/spectra-planner/planner/chain"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/Cogwheel-Validator/spectra-planner/planner/oracle"
	"github.com/Cogwheel-Validator/spectra-planner/planner/quoter"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var plannerLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	plannerLog = zerolog.New(out).With().Timestamp().Str("component", "planner").Logger()
}

const (
	// DefaultSlippageBps is used when an intent does not carry its own.
	DefaultSlippageBps uint32 = 100
	// DefaultXcmFeePaddingBps pads bridge fee estimates by 20%.
	DefaultXcmFeePaddingBps uint32 = 12_000
)

// DefaultLowLiquidityImpact flags quotes that move the price by 15% or more.
var DefaultLowLiquidityImpact = decimal.RequireFromString("0.15")

// Planner turns swap and yield intents into plans. It holds no per-request
// state and is safe for concurrent use.
type Planner struct {
	catalog  *catalog.Catalog
	caller   chain.Caller
	balances chain.BalanceProvider
	oracle   *oracle.ReserveOracle
	quoter   *quoter.Quoter
	now      func() time.Time

	slippageBps        uint32
	xcmFeePaddingBps   uint32
	lowLiquidityImpact decimal.Decimal

	tracer    trace.Tracer
	planCount metric.Int64Counter
	planTime  metric.Float64Histogram
}

// Option customizes a Planner.
type Option func(*Planner)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// WithSlippageBps sets the slippage used when an intent has none.
func WithSlippageBps(bps uint32) Option {
	return func(p *Planner) { p.slippageBps = bps }
}

// WithXcmFeePaddingBps sets the multiplier applied to bridge fee estimates.
func WithXcmFeePaddingBps(bps uint32) Option {
	return func(p *Planner) { p.xcmFeePaddingBps = bps }
}

// WithLowLiquidityImpact sets the price impact at which a quote is flagged.
func WithLowLiquidityImpact(impact decimal.Decimal) Option {
	return func(p *Planner) { p.lowLiquidityImpact = impact }
}

// NewPlanner wires a planner. When caller also implements chain.DirectQuoter
// it is used for chains flagged with DirectQuote.
func NewPlanner(cat *catalog.Catalog, caller chain.Caller, balances chain.BalanceProvider, opts ...Option) *Planner {
	orc := oracle.New(cat, caller)
	direct, _ := caller.(chain.DirectQuoter)

	p := &Planner{
		catalog:            cat,
		caller:             caller,
		balances:           balances,
		oracle:             orc,
		quoter:             quoter.New(cat, orc, direct),
		now:                time.Now,
		slippageBps:        DefaultSlippageBps,
		xcmFeePaddingBps:   DefaultXcmFeePaddingBps,
		lowLiquidityImpact: DefaultLowLiquidityImpact,
		tracer:             otel.Tracer("github.com/Cogwheel-Validator/spectra-planner/planner/router"),
	}
	for _, opt := range opts {
		opt(p)
	}

	meter := otel.Meter("github.com/Cogwheel-Validator/spectra-planner/planner/router")
	var err error
	p.planCount, err = meter.Int64Counter("planner.plans",
		metric.WithDescription("Plans built, by intent and outcome"))
	if err != nil {
		plannerLog.Warn().Err(err).Msg("Failed to create plan counter")
	}
	p.planTime, err = meter.Float64Histogram("planner.plan.duration",
		metric.WithDescription("Time spent building a plan"),
		metric.WithUnit("s"))
	if err != nil {
		plannerLog.Warn().Err(err).Msg("Failed to create plan duration histogram")
	}
	return p
}

// Catalog returns the catalog the planner was built with.
func (p *Planner) Catalog() *catalog.Catalog {
	return p.catalog
}

func (p *Planner) record(ctx context.Context, intent string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, errs.ErrInvalidIntent):
		outcome = "INVALID_INTENT"
	case err != nil:
		outcome = string(errs.TagOf(err))
	}
	attrs := metric.WithAttributes(
		attribute.String("intent", intent),
		attribute.String("outcome", outcome),
	)
	if p.planCount != nil {
		p.planCount.Add(ctx, 1, attrs)
	}
	if p.planTime != nil {
		p.planTime.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}
