package models

// SwapPlanRequest - POST body of /v1/plan/swap
type SwapPlanRequest struct {
	FromAsset        string  `json:"from_asset" validate:"required"`         // e.g., "polkadot-NATIVE-DOT"
	ToAsset          string  `json:"to_asset" validate:"required"`           // e.g., "hydradx-LOCAL-USDT"
	FromAmount       string  `json:"from_amount" validate:"required,number"` // minor units, e.g., "10000000000"
	Address          string  `json:"address,omitempty"`                      // payer, optional for quotes
	RecipientAddress string  `json:"recipient_address,omitempty"`            // defaults to Address
	SlippageBps      *uint32 `json:"slippage_bps,omitempty" validate:"omitempty,lt=10000"`
}

// YieldPlanRequest - POST body of /v1/plan/yield
type YieldPlanRequest struct {
	PoolSlug    string  `json:"pool_slug" validate:"required"`
	Asset       string  `json:"asset,omitempty"` // defaults to the pool input asset
	Amount      string  `json:"amount" validate:"required,number"`
	Address     string  `json:"address,omitempty"`
	SlippageBps *uint32 `json:"slippage_bps,omitempty" validate:"omitempty,lt=10000"`
}

// PlanResponse is returned by both plan endpoints
type PlanResponse struct {
	Success      bool           `json:"success"`
	Plan         *Plan          `json:"plan,omitempty"`
	ErrorTag     string         `json:"error_tag,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	ErrorDetail  *ErrorMetadata `json:"error_detail,omitempty"`
}

// Plan is the wire form of a built plan. Amounts are decimal strings in minor units.
type Plan struct {
	ID              string   `json:"id"`
	Intent          string   `json:"intent"` // SWAP or YIELD
	Target          string   `json:"target"`
	Steps           []*Step  `json:"steps"`
	Fees            []*Fee   `json:"fees"`
	FeeTotals       []*Total `json:"fee_totals"`     // aggregated per asset, from principal excluded
	ChargedTotals   []*Total `json:"charged_totals"` // aggregated per asset, from principal included
	FeesByKind      []*Total `json:"fees_by_kind"`   // per asset and kind
	HasFees         bool     `json:"has_fees"`
	Hops            []*Hop   `json:"hops"`
	Quote           *Quote   `json:"quote"`
	RequestedAmount string   `json:"requested_amount"`
	Address         string   `json:"address,omitempty"`
	Recipient       string   `json:"recipient,omitempty"`
	DestChain       string   `json:"dest_chain,omitempty"`
	CreatedAt       int64    `json:"created_at"` // unix millis
}

// Step is one on-chain call of a plan
type Step struct {
	ID        int               `json:"id"`
	Kind      string            `json:"kind"`
	Chain     string            `json:"chain"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Principal *AssetAmount      `json:"principal,omitempty"`
	Incoming  *AssetAmount      `json:"incoming,omitempty"`
}

// AssetAmount pairs an asset slug with an amount
type AssetAmount struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// Fee is one ledger entry
type Fee struct {
	StepID        int    `json:"step_id"`
	Asset         string `json:"asset"`
	Amount        string `json:"amount"`
	Kind          string `json:"kind"` // NETWORK, PLATFORM or WALLET
	FromPrincipal bool   `json:"from_principal"`
}

// Total is a per-asset fee sum with a human readable rendering
type Total struct {
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
	Display string `json:"display"`        // e.g., "0.0123 DOT"
	Kind    string `json:"kind,omitempty"` // NETWORK, PLATFORM or WALLET; fees_by_kind only
}

// Hop is one pool crossing of the route
type Hop struct {
	AssetIn    string `json:"asset_in"`
	AssetOut   string `json:"asset_out"`
	AmountIn   string `json:"amount_in"`
	AmountOut  string `json:"amount_out"`
	ReserveIn  string `json:"reserve_in,omitempty"`
	ReserveOut string `json:"reserve_out,omitempty"`
}

// Quote is the user facing price of a plan
type Quote struct {
	FromAsset      string `json:"from_asset"`
	ToAsset        string `json:"to_asset"`
	FromAmount     string `json:"from_amount"`
	ToAmount       string `json:"to_amount"`
	MinReceive     string `json:"min_receive"`
	Rate           string `json:"rate"`         // to per from, in display units
	PriceImpact    string `json:"price_impact"` // e.g., "0.02" for 2%
	IsLowLiquidity bool   `json:"is_low_liquidity"`
	AliveUntil     int64  `json:"alive_until"` // unix millis
	MinSwap        string `json:"min_swap,omitempty"`
	MinSwapAsset   string `json:"min_swap_asset,omitempty"`
	MaxSwap        string `json:"max_swap,omitempty"`
}

// ValidateRequest - POST body of /v1/validate
type ValidateRequest struct {
	PlanID       string `json:"plan_id" validate:"required"`
	Address      string `json:"address,omitempty"` // defaults to the plan payer
	SettledSteps []int  `json:"settled_steps,omitempty"`
}

// ValidateResponse carries the verdict. OK false is a normal answer, not a transport error.
type ValidateResponse struct {
	OK           bool           `json:"ok"`
	PlanID       string         `json:"plan_id"`
	ErrorTag     string         `json:"error_tag,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	ErrorDetail  *ErrorMetadata `json:"error_detail,omitempty"`
}

// ErrorMetadata is the wire form of a validation error's metadata
type ErrorMetadata struct {
	Amount    string `json:"amount,omitempty"`
	Decimals  int    `json:"decimals,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
	FeeCheck  bool   `json:"fee_check,omitempty"`
	Chain     string `json:"chain,omitempty"`
	ChainName string `json:"chain_name,omitempty"`
	Asset     string `json:"asset,omitempty"`
	Hop       int    `json:"hop,omitempty"`
	StepID    int    `json:"step_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// PresentRequest - POST body of /v1/present
type PresentRequest struct {
	Tag      string         `json:"tag" validate:"required"`
	Metadata *ErrorMetadata `json:"metadata,omitempty"`
}

// PresentResponse holds the rendered message
type PresentResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is returned for malformed requests and server faults
type ErrorResponse struct {
	Error string `json:"error"`
}

// AssetInfo describes one catalog asset
type AssetInfo struct {
	Slug      string `json:"slug"`
	Chain     string `json:"chain"`
	Symbol    string `json:"symbol"`
	Decimals  int    `json:"decimals"`
	Kind      string `json:"kind"`
	Group     string `json:"group,omitempty"`
	MinAmount string `json:"min_amount"`
}

// PairInfo describes one supported pair
type PairInfo struct {
	From             string `json:"from"`
	To               string `json:"to"`
	PathKind         string `json:"path_kind"`
	AlternativeAsset string `json:"alternative_asset,omitempty"`
	MinSwap          string `json:"min_swap,omitempty"`
	MaxSwap          string `json:"max_swap,omitempty"`
}

// YieldPoolInfo describes one yield pool
type YieldPoolInfo struct {
	Slug            string   `json:"slug"`
	Chain           string   `json:"chain"`
	Type            string   `json:"type"`
	InputAsset      string   `json:"input_asset"`
	AltInputAsset   string   `json:"alt_input_asset,omitempty"`
	DerivativeAsset string   `json:"derivative_asset,omitempty"`
	MinJoin         string   `json:"min_join,omitempty"`
	FeeAssets       []string `json:"fee_assets"`
}

// CatalogResponse lists what the planner can plan for
type CatalogResponse struct {
	Assets     []*AssetInfo     `json:"assets"`
	Pairs      []*PairInfo      `json:"pairs"`
	YieldPools []*YieldPoolInfo `json:"yield_pools"`
}
