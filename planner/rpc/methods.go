package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Cogwheel-Validator/spectra-planner/planner/amm"
	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	"github.com/Cogwheel-Validator/spectra-planner/planner/chain"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/Cogwheel-Validator/spectra-planner/planner/models"
	"github.com/Cogwheel-Validator/spectra-planner/planner/plan"
	"github.com/Cogwheel-Validator/spectra-planner/planner/presenter"
	"github.com/Cogwheel-Validator/spectra-planner/planner/store"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps request bodies; every request fits in a few hundred bytes.
const maxBodyBytes = 64 << 10

// DefaultPlanTTL keeps a plan around for validation after its quote expired,
// so late validations answer QUOTE_EXPIRED instead of "not found".
const DefaultPlanTTL = 10 * time.Minute

// Planner is the planning surface the server needs.
type Planner interface {
	PlanSwap(ctx context.Context, intent plan.SwapIntent) (*plan.Plan, error)
	PlanYield(ctx context.Context, intent plan.YieldIntent) (*plan.Plan, error)
	Catalog() *catalog.Catalog
}

// Validator checks a stored plan against live balances.
type Validator interface {
	Validate(ctx context.Context, p *plan.Plan, address string, settled map[int]bool) error
}

// PlannerServer implements the HTTP handlers.
type PlannerServer struct {
	planner   Planner
	validator Validator
	presenter *presenter.Presenter
	plans     store.Store
	prices    chain.PriceFeed
	planTTL   time.Duration
	validate  *validator.Validate
}

// NewPlannerServer creates the handler set. prices may be nil, which
// disables /v1/price.
func NewPlannerServer(
	planner Planner,
	v Validator,
	pres *presenter.Presenter,
	plans store.Store,
	prices chain.PriceFeed,
	planTTL time.Duration,
) *PlannerServer {
	if pres == nil {
		pres = presenter.New()
	}
	if planTTL <= 0 {
		planTTL = DefaultPlanTTL
	}
	return &PlannerServer{
		planner:   planner,
		validator: v,
		presenter: pres,
		plans:     plans,
		prices:    prices,
		planTTL:   planTTL,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// PlanSwap handles POST /v1/plan/swap
func (s *PlannerServer) PlanSwap(w http.ResponseWriter, r *http.Request) {
	var req models.SwapPlanRequest
	if !s.decode(w, r, &req) {
		return
	}

	amount, err := amm.ParseAmount(req.FromAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid from_amount: %v", err))
		return
	}

	intent := plan.SwapIntent{
		From:       req.FromAsset,
		To:         req.ToAsset,
		FromAmount: amount,
		Address:    req.Address,
		Recipient:  req.RecipientAddress,
	}
	if req.SlippageBps != nil {
		intent.SlippageBps = *req.SlippageBps
	}

	p, err := s.planner.PlanSwap(r.Context(), intent)
	s.writePlan(w, r, p, err, req.FromAsset, req.ToAsset)
}

// PlanYield handles POST /v1/plan/yield
func (s *PlannerServer) PlanYield(w http.ResponseWriter, r *http.Request) {
	var req models.YieldPlanRequest
	if !s.decode(w, r, &req) {
		return
	}

	amount, err := amm.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid amount: %v", err))
		return
	}

	intent := plan.YieldIntent{
		Pool:    req.PoolSlug,
		Asset:   req.Asset,
		Amount:  amount,
		Address: req.Address,
	}
	if req.SlippageBps != nil {
		intent.SlippageBps = *req.SlippageBps
	}

	p, err := s.planner.PlanYield(r.Context(), intent)
	if err != nil && errors.Is(err, errs.ErrInvalidIntent) {
		if hint := s.planner.Catalog().SuggestYieldPool(req.PoolSlug); hint != "" && hint != req.PoolSlug {
			err = fmt.Errorf("%w (did you mean %q?)", err, hint)
		}
	}
	s.writePlan(w, r, p, err, req.Asset)
}

// writePlan stores a successful plan and maps planning errors to statuses:
// 400 for malformed intents, 502 when a chain could not be queried and 200
// with success=false for every other taxonomy error.
func (s *PlannerServer) writePlan(w http.ResponseWriter, r *http.Request, p *plan.Plan, err error, assets ...string) {
	if err != nil {
		if errors.Is(err, errs.ErrInvalidIntent) {
			writeJSON(w, http.StatusBadRequest, &models.PlanResponse{
				Success:      false,
				ErrorTag:     "INVALID_INTENT",
				ErrorMessage: err.Error(),
			})
			return
		}
		verr, ok := errs.As(err)
		if !ok {
			Logger.Error().Err(err).Str("path", r.URL.Path).Msg("Planning failed")
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		md := verr.Metadata
		if verr.Tag == errs.AssetNotSupported {
			if hint := s.suggestAssets(assets...); hint != "" {
				md.Detail = strings.TrimPrefix(md.Detail+"; "+hint, "; ")
			}
		}
		status := http.StatusOK
		if verr.Tag == errs.ChainQueryFailed {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, &models.PlanResponse{
			Success:      false,
			ErrorTag:     string(verr.Tag),
			ErrorMessage: s.presenter.Present(verr),
			ErrorDetail:  metadataToModel(md),
		})
		return
	}

	if err := s.plans.Put(r.Context(), p, s.planTTL); err != nil {
		Logger.Error().Err(err).Str("plan", p.ID).Msg("Failed to store plan")
		writeError(w, http.StatusInternalServerError, "failed to store plan")
		return
	}

	writeJSON(w, http.StatusOK, &models.PlanResponse{
		Success: true,
		Plan:    planToModel(p, s.planner.Catalog(), s.presenter.Digits()),
	})
}

func (s *PlannerServer) suggestAssets(slugs ...string) string {
	cat := s.planner.Catalog()
	for _, slug := range slugs {
		if slug == "" {
			continue
		}
		if _, ok := cat.Asset(slug); ok {
			continue
		}
		if hint := cat.SuggestAsset(slug); hint != "" {
			return fmt.Sprintf("unknown asset %q, did you mean %q?", slug, hint)
		}
	}
	return ""
}

// Validate handles POST /v1/validate. Verdicts, ChainQueryFailed included,
// are answered with 200 and ok=false.
func (s *PlannerServer) Validate(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateRequest
	if !s.decode(w, r, &req) {
		return
	}

	p, err := s.plans.Get(r.Context(), req.PlanID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "plan not found")
			return
		}
		Logger.Error().Err(err).Str("plan", req.PlanID).Msg("Failed to load plan")
		writeError(w, http.StatusInternalServerError, "failed to load plan")
		return
	}

	settled := make(map[int]bool, len(req.SettledSteps))
	for _, id := range req.SettledSteps {
		settled[id] = true
	}

	resp := &models.ValidateResponse{OK: true, PlanID: p.ID}
	if err := s.validator.Validate(r.Context(), p, req.Address, settled); err != nil {
		resp.OK = false
		resp.ErrorTag = string(errs.TagOf(err))
		resp.ErrorMessage = s.presenter.Present(err)
		if verr, ok := errs.As(err); ok {
			resp.ErrorDetail = metadataToModel(verr.Metadata)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Present handles POST /v1/present
func (s *PlannerServer) Present(w http.ResponseWriter, r *http.Request) {
	var req models.PresentRequest
	if !s.decode(w, r, &req) {
		return
	}

	tag, ok := parseTag(req.Tag)
	if !ok {
		// unknown tags render the generic message
		tag = errs.Unknown
	}
	md, err := metadataFromModel(req.Metadata)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, &models.PresentResponse{
		Message: s.presenter.Present(errs.New(tag, md)),
	})
}

// Catalog handles GET /v1/catalog
func (s *PlannerServer) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalogToModel(s.planner.Catalog()))
}

// Price handles GET /v1/price/{asset}. It is a display helper; planning and
// validation never read prices.
func (s *PlannerServer) Price(w http.ResponseWriter, r *http.Request, assetSlug string) {
	if s.prices == nil {
		writeError(w, http.StatusNotImplemented, "price feed not configured")
		return
	}
	a, ok := s.planner.Catalog().Asset(assetSlug)
	if !ok || a.PriceID == "" {
		writeError(w, http.StatusNotFound, "no price for asset")
		return
	}
	price, err := s.prices.Price(r.Context(), a.PriceID)
	if err != nil {
		Logger.Warn().Err(err).Str("asset", assetSlug).Msg("Price lookup failed")
		writeError(w, http.StatusBadGateway, "price lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"asset":    assetSlug,
		"price_id": a.PriceID,
		"price":    price.String(),
	})
}

// decode reads and validates a JSON body. It writes the 400 itself and
// reports whether the handler may continue.
func (s *PlannerServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		Logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Request validation failed")
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		Logger.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, &models.ErrorResponse{Error: msg})
}
