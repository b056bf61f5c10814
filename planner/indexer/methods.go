package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Cogwheel-Validator/spectra-planner/planner/amm"
	"github.com/Cogwheel-Validator/spectra-planner/planner/chain"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	_ chain.Caller          = (*Client)(nil)
	_ chain.DirectQuoter    = (*Client)(nil)
	_ chain.BalanceProvider = (*Client)(nil)
	_ chain.PriceFeed       = (*Client)(nil)
)

type reserveResponse struct {
	ReserveIn  string `json:"reserve_in"`
	ReserveOut string `json:"reserve_out"`
}

type buildCallRequest struct {
	Chain  string            `json:"chain"`
	Kind   chain.CallKind    `json:"kind"`
	Params map[string]string `json:"params"`
}

type buildCallResponse struct {
	Payload string `json:"payload"`
}

type estimateFeeRequest struct {
	Call  chain.Call `json:"call"`
	Payer string     `json:"payer"`
}

type amountResponse struct {
	Value    string `json:"value"`
	Decimals int    `json:"decimals"`
	Symbol   string `json:"symbol"`
}

type balanceResponse struct {
	Free string `json:"free"`
}

type quoteResponse struct {
	AmountOut string `json:"amount_out"`
}

type priceResponse struct {
	Price string `json:"price"`
}

// QueryReserve reads the reserves of the assetIn/assetOut pool. The indexer
// reports a missing pool as zeros; a 404 is treated the same way.
func (c *Client) QueryReserve(ctx context.Context, chainSlug, assetIn, assetOut string) (*uint256.Int, *uint256.Int, error) {
	path := fmt.Sprintf("/pools/reserve?chain=%s&assetIn=%s&assetOut=%s",
		url.QueryEscape(chainSlug), url.QueryEscape(assetIn), url.QueryEscape(assetOut))

	var resp reserveResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		if isNotFound(err) {
			return new(uint256.Int), new(uint256.Int), nil
		}
		return nil, nil, err
	}

	reserveIn, err := parseOptionalAmount(resp.ReserveIn)
	if err != nil {
		return nil, nil, fmt.Errorf("reserve_in: %w", err)
	}
	reserveOut, err := parseOptionalAmount(resp.ReserveOut)
	if err != nil {
		return nil, nil, fmt.Errorf("reserve_out: %w", err)
	}
	return reserveIn, reserveOut, nil
}

// BuildCall asks the indexer to encode a call.
func (c *Client) BuildCall(ctx context.Context, chainSlug string, kind chain.CallKind, params map[string]string) (chain.Call, error) {
	req := buildCallRequest{Chain: chainSlug, Kind: kind, Params: params}
	var resp buildCallResponse
	if err := c.postJSON(ctx, "/calls/build", req, &resp); err != nil {
		return chain.Call{}, err
	}
	if resp.Payload == "" {
		return chain.Call{}, errors.New("indexer returned an empty call payload")
	}
	return chain.Call{Chain: chainSlug, Kind: kind, Params: params, Payload: resp.Payload}, nil
}

// EstimateFee returns the fee of call paid by payer.
func (c *Client) EstimateFee(ctx context.Context, call chain.Call, payer string) (chain.AmountData, error) {
	var resp amountResponse
	if err := c.postJSON(ctx, "/fees/estimate", estimateFeeRequest{Call: call, Payer: payer}, &resp); err != nil {
		return chain.AmountData{}, err
	}
	value, err := amm.ParseAmount(resp.Value)
	if err != nil {
		return chain.AmountData{}, fmt.Errorf("fee value: %w", err)
	}
	return chain.AmountData{Value: value, Decimals: resp.Decimals, Symbol: resp.Symbol}, nil
}

// LiveBalance returns the free balance of asset held by address.
func (c *Client) LiveBalance(ctx context.Context, address, asset string) (*uint256.Int, error) {
	path := fmt.Sprintf("/balances?address=%s&asset=%s", url.QueryEscape(address), url.QueryEscape(asset))
	var resp balanceResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return parseOptionalAmount(resp.Free)
}

// QuoteExactIn uses the chain's own router quote.
func (c *Client) QuoteExactIn(ctx context.Context, chainSlug, assetIn, assetOut string, amountIn *uint256.Int) (*uint256.Int, error) {
	path := fmt.Sprintf("/router/quote?chain=%s&assetIn=%s&assetOut=%s&amountIn=%s",
		url.QueryEscape(chainSlug), url.QueryEscape(assetIn), url.QueryEscape(assetOut), amountIn.Dec())
	var resp quoteResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return parseOptionalAmount(resp.AmountOut)
}

// Price fetches the price of a price id.
func (c *Client) Price(ctx context.Context, priceID string) (decimal.Decimal, error) {
	path := fmt.Sprintf("/token-price?priceId=%s", url.QueryEscape(priceID))
	var resp priceResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return decimal.Decimal{}, err
	}
	if resp.Price == "" {
		return decimal.Decimal{}, fmt.Errorf("token price for %s not found", priceID)
	}
	return decimal.NewFromString(resp.Price)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.doRequestWithFailover(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", path, err)
	}
	body, err := c.doRequestWithFailover(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

func parseOptionalAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	return amm.ParseAmount(s)
}

func isNotFound(err error) bool {
	var herr *httpError
	return errors.As(err, &herr) && herr.status == http.StatusNotFound
}
