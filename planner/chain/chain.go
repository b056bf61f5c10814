// Package chain declares the collaborators the planner talks to: the per-chain
// call builder and fee estimator, the reserve query, live balances and the
// price feed. Implementations live elsewhere (see planner/indexer).
package chain

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// CallKind names the on-chain action a call performs.
type CallKind string

const (
	CallXcmTransfer   CallKind = "XCM_TRANSFER"
	CallTokenApproval CallKind = "TOKEN_APPROVAL"
	CallAssetConvert  CallKind = "ASSET_CONVERT"
	CallSwap          CallKind = "SWAP"
	CallMint          CallKind = "MINT"
	CallBond          CallKind = "BOND"
)

// Call is an opaque, chain-encoded call. The planner never looks inside
// Payload; it only hands the call back to EstimateFee.
type Call struct {
	Chain   string            `json:"chain"`
	Kind    CallKind          `json:"kind"`
	Params  map[string]string `json:"params,omitempty"`
	Payload string            `json:"payload"`
}

// AmountData is an amount together with its display metadata.
type AmountData struct {
	Value    *uint256.Int
	Decimals int
	Symbol   string
}

// Caller builds calls, estimates their fees and reads pool reserves.
type Caller interface {
	// BuildCall encodes a call of the given kind on chainSlug.
	BuildCall(ctx context.Context, chainSlug string, kind CallKind, params map[string]string) (Call, error)
	// EstimateFee returns the network fee the payer would be charged for call,
	// denominated in the chain's primary fee asset.
	EstimateFee(ctx context.Context, call Call, payer string) (AmountData, error)
	// QueryReserve returns the pool reserves oriented (assetIn, assetOut).
	// A missing pool is reported as two zero reserves, not as an error.
	QueryReserve(ctx context.Context, chainSlug, assetIn, assetOut string) (reserveIn, reserveOut *uint256.Int, err error)
}

// DirectQuoter is implemented by callers whose chains expose an authoritative
// exact-in quote primitive.
type DirectQuoter interface {
	QuoteExactIn(ctx context.Context, chainSlug, assetIn, assetOut string, amountIn *uint256.Int) (*uint256.Int, error)
}

// BalanceProvider reads free balances. Results are treated as ground truth
// for one validation pass.
type BalanceProvider interface {
	LiveBalance(ctx context.Context, address, assetSlug string) (*uint256.Int, error)
}

// PriceFeed returns the price of a price id. Only presentation layers use it.
type PriceFeed interface {
	Price(ctx context.Context, priceID string) (decimal.Decimal, error)
}
