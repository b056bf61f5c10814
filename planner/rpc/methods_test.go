package rpc_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ct "github.com/Cogwheel-Validator/spectra-planner/planner/catalog/catalogtest"
	"github.com/Cogwheel-Validator/spectra-planner/planner/chain"
	"github.com/Cogwheel-Validator/spectra-planner/planner/chain/chaintest"
	"github.com/Cogwheel-Validator/spectra-planner/planner/models"
	"github.com/Cogwheel-Validator/spectra-planner/planner/router"
	"github.com/Cogwheel-Validator/spectra-planner/planner/rpc"
	"github.com/Cogwheel-Validator/spectra-planner/planner/store"
	"github.com/Cogwheel-Validator/spectra-planner/planner/validation"
	"github.com/go-chi/chi/v5"
	"github.com/zeebo/assert"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type harness struct {
	fake    *chaintest.Fake
	handler http.Handler
}

func newHarness(t *testing.T, withPrices bool) *harness {
	t.Helper()
	cat := ct.New(t)
	fake := chaintest.New().
		SetPool(ct.HydraDX, ct.HydraDOT, ct.USDT, 100_000_000_000_000, 70_000_000_000).
		SetPool(ct.HydraDX, ct.HDX, ct.HydraDOT, 500_000_000_000_000_000, 100_000_000_000_000).
		SetFee(chain.CallSwap, 2_000_000_000).
		SetFee(chain.CallXcmTransfer, 100_000_000).
		SetBalance(ct.SubstrateAddress, ct.HydraDOT, 50_000_000_000).
		SetBalance(ct.SubstrateAddress, ct.HDX, 10_000_000_000_000).
		SetPrice("polkadot", "4.25")
	clock := func() time.Time { return now }

	plans := store.NewMemoryStore(0)
	t.Cleanup(func() { _ = plans.Close() })

	var prices chain.PriceFeed
	if withPrices {
		prices = fake
	}
	srv := rpc.NewPlannerServer(
		router.NewPlanner(cat, fake, fake, router.WithClock(clock)),
		validation.NewService(cat, fake, clock),
		nil,
		plans,
		prices,
		0,
	)
	r := chi.NewRouter()
	srv.Routes(r)
	return &harness{fake: fake, handler: r}
}

func (h *harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) *T {
	t.Helper()
	var out T
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return &out
}

const swapBody = `{"from_asset":"hydradx-LOCAL-DOT","to_asset":"hydradx-LOCAL-USDT","from_amount":"10000000000"}`

func TestPlanSwap_ThenValidate(t *testing.T) {
	h := newHarness(t, false)

	rec := h.do(t, http.MethodPost, "/plan/swap", swapBody)
	assert.Equal(t, rec.Code, http.StatusOK)
	resp := decodeBody[models.PlanResponse](t, rec)
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Plan)
	assert.True(t, resp.Plan.ID != "")
	assert.Equal(t, resp.Plan.Intent, "SWAP")
	assert.Equal(t, len(resp.Plan.Steps), 1)
	assert.Equal(t, resp.Plan.Steps[0].Kind, "SWAP")
	assert.Equal(t, resp.Plan.Quote.FromAmount, "10000000000")

	rec = h.do(t, http.MethodPost, "/validate",
		`{"plan_id":"`+resp.Plan.ID+`","address":"`+ct.SubstrateAddress+`"}`)
	assert.Equal(t, rec.Code, http.StatusOK)
	verdict := decodeBody[models.ValidateResponse](t, rec)
	assert.True(t, verdict.OK)
	assert.Equal(t, verdict.PlanID, resp.Plan.ID)

	// a payer without funds gets a verdict, not a transport error
	rec = h.do(t, http.MethodPost, "/validate",
		`{"plan_id":"`+resp.Plan.ID+`","address":"5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"}`)
	assert.Equal(t, rec.Code, http.StatusOK)
	verdict = decodeBody[models.ValidateResponse](t, rec)
	assert.False(t, verdict.OK)
	assert.Equal(t, verdict.ErrorTag, "NOT_ENOUGH_BALANCE")
	assert.True(t, verdict.ErrorMessage != "")
}

func TestPlanSwap_FeeSummaries(t *testing.T) {
	h := newHarness(t, false)

	rec := h.do(t, http.MethodPost, "/plan/swap", swapBody)
	assert.Equal(t, rec.Code, http.StatusOK)
	p := decodeBody[models.PlanResponse](t, rec).Plan
	assert.True(t, p.HasFees)
	assert.Equal(t, p.Quote.MinSwapAsset, ct.HydraDOT)

	// the platform fee comes out of the output and is not payable
	assert.Equal(t, len(p.FeeTotals), 1)
	assert.Equal(t, p.FeeTotals[0].Asset, ct.HDX)
	assert.Equal(t, p.FeeTotals[0].Amount, "2000000000")
	assert.Equal(t, p.FeeTotals[0].Kind, "")

	assert.Equal(t, len(p.ChargedTotals), 2)
	assert.Equal(t, p.ChargedTotals[0].Asset, ct.HDX)
	assert.Equal(t, p.ChargedTotals[1].Asset, ct.USDT)
	assert.True(t, p.ChargedTotals[1].Amount != "0")

	assert.Equal(t, len(p.FeesByKind), 2)
	assert.Equal(t, p.FeesByKind[0].Asset, ct.HDX)
	assert.Equal(t, p.FeesByKind[0].Kind, "NETWORK")
	assert.Equal(t, p.FeesByKind[1].Asset, ct.USDT)
	assert.Equal(t, p.FeesByKind[1].Kind, "PLATFORM")
	assert.Equal(t, p.FeesByKind[1].Amount, p.ChargedTotals[1].Amount)
}

func TestValidate_UnknownPlan(t *testing.T) {
	h := newHarness(t, false)
	rec := h.do(t, http.MethodPost, "/validate", `{"plan_id":"nope"}`)
	assert.Equal(t, rec.Code, http.StatusNotFound)
}

func TestPlanSwap_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		broken bool
		status int
		tag    string
	}{
		{
			name:   "zero amount",
			body:   `{"from_asset":"hydradx-LOCAL-DOT","to_asset":"hydradx-LOCAL-USDT","from_amount":"0"}`,
			status: http.StatusBadRequest,
			tag:    "INVALID_INTENT",
		},
		{
			name:   "unknown asset",
			body:   `{"from_asset":"hydradx-LOCAL-USDC","to_asset":"hydradx-LOCAL-DOT","from_amount":"1000000"}`,
			status: http.StatusOK,
			tag:    "ASSET_NOT_SUPPORTED",
		},
		{
			name:   "chain unreachable",
			body:   swapBody,
			broken: true,
			status: http.StatusBadGateway,
			tag:    "CHAIN_QUERY_FAILED",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, false)
			if tt.broken {
				h.fake.BuildErr = errors.New("endpoint unreachable")
			}
			rec := h.do(t, http.MethodPost, "/plan/swap", tt.body)
			assert.Equal(t, rec.Code, tt.status)
			resp := decodeBody[models.PlanResponse](t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, resp.ErrorTag, tt.tag)
			assert.True(t, resp.Plan == nil)
		})
	}
}

func TestPlanSwap_MalformedRequests(t *testing.T) {
	h := newHarness(t, false)

	bodies := []string{
		`not json`,
		`{"from_asset":"a","to_asset":"b","from_amount":"1","extra":true}`,
		`{"to_asset":"b","from_amount":"1"}`,
		`{"from_asset":"a","to_asset":"b","from_amount":"ten"}`,
		`{"from_asset":"a","to_asset":"b","from_amount":"1","slippage_bps":20000}`,
	}
	for _, body := range bodies {
		rec := h.do(t, http.MethodPost, "/plan/swap", body)
		assert.Equal(t, rec.Code, http.StatusBadRequest)
		resp := decodeBody[models.ErrorResponse](t, rec)
		assert.True(t, resp.Error != "")
	}
}

func TestPlanYield_UnknownPoolSuggests(t *testing.T) {
	h := newHarness(t, false)
	rec := h.do(t, http.MethodPost, "/plan/yield",
		`{"pool_slug":"vDOT___liquid_stakin___hydradx","amount":"100000000000"}`)
	assert.Equal(t, rec.Code, http.StatusBadRequest)
	resp := decodeBody[models.PlanResponse](t, rec)
	assert.Equal(t, resp.ErrorTag, "INVALID_INTENT")
	assert.True(t, strings.Contains(resp.ErrorMessage, ct.LiquidStaking))
}

func TestPresent(t *testing.T) {
	h := newHarness(t, false)

	rec := h.do(t, http.MethodPost, "/present", `{"tag":"QUOTE_EXPIRED"}`)
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, decodeBody[models.PresentResponse](t, rec).Message,
		"Quote expired. Refresh the quote and try again")

	rec = h.do(t, http.MethodPost, "/present",
		`{"tag":"SWAP_EXCEEDS_AVAILABLE","metadata":{"amount":"50000000000","decimals":10,"symbol":"DOT"}}`)
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, decodeBody[models.PresentResponse](t, rec).Message,
		"Amount too high. Lower your amount below 5 DOT and try again")

	rec = h.do(t, http.MethodPost, "/present", `{"tag":"SOMETHING_ELSE"}`)
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.True(t, strings.HasPrefix(decodeBody[models.PresentResponse](t, rec).Message, "Undefined error."))

	rec = h.do(t, http.MethodPost, "/present", `{"tag":"QUOTE_EXPIRED","metadata":{"amount":"-1"}}`)
	assert.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestCatalog(t *testing.T) {
	h := newHarness(t, false)
	rec := h.do(t, http.MethodGet, "/catalog", "")
	assert.Equal(t, rec.Code, http.StatusOK)
	resp := decodeBody[models.CatalogResponse](t, rec)
	assert.Equal(t, len(resp.Assets), 8)
	assert.Equal(t, len(resp.Pairs), 4)
	assert.Equal(t, len(resp.YieldPools), 3)
}

func TestPrice(t *testing.T) {
	rec := newHarness(t, false).do(t, http.MethodGet, "/price/"+ct.DOT, "")
	assert.Equal(t, rec.Code, http.StatusNotImplemented)

	h := newHarness(t, true)
	rec = h.do(t, http.MethodGet, "/price/"+ct.DOT, "")
	assert.Equal(t, rec.Code, http.StatusOK)
	body := map[string]string{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, body["price"], "4.25")
	assert.Equal(t, body["price_id"], "polkadot")

	rec = h.do(t, http.MethodGet, "/price/unknown-asset", "")
	assert.Equal(t, rec.Code, http.StatusNotFound)

	h.fake.PriceErr = errors.New("feed down")
	rec = h.do(t, http.MethodGet, "/price/"+ct.DOT, "")
	assert.Equal(t, rec.Code, http.StatusBadGateway)
}
