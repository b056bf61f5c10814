// Package errs holds the closed error taxonomy shared by the planner, the
// validation engine and the presenter.
package errs

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// Tag identifies one member of the taxonomy.
type Tag string

const (
	ChainQueryFailed     Tag = "CHAIN_QUERY_FAILED"
	AssetNotSupported    Tag = "ASSET_NOT_SUPPORTED"
	NotEnoughLiquidity   Tag = "NOT_ENOUGH_LIQUIDITY"
	PoolBelowExistential Tag = "POOL_BELOW_EXISTENTIAL"
	NotEnoughBalance     Tag = "NOT_ENOUGH_BALANCE"
	SwapBelowMinimum     Tag = "SWAP_BELOW_MINIMUM"
	SwapExceedsAvailable Tag = "SWAP_EXCEEDS_AVAILABLE"
	InvalidRecipient     Tag = "INVALID_RECIPIENT"
	QuoteExpired         Tag = "QUOTE_EXPIRED"
	Unknown              Tag = "UNKNOWN"
)

// Tags lists every member of the taxonomy in declaration order.
var Tags = []Tag{
	ChainQueryFailed,
	AssetNotSupported,
	NotEnoughLiquidity,
	PoolBelowExistential,
	NotEnoughBalance,
	SwapBelowMinimum,
	SwapExceedsAvailable,
	InvalidRecipient,
	QuoteExpired,
	Unknown,
}

// ErrInvalidIntent marks a malformed planning request (zero amount, unknown
// pool, identical pair assets). It is not part of the taxonomy.
var ErrInvalidIntent = errors.New("invalid intent")

// AmountMeta carries an amount in minor units together with what the
// presenter needs to scale and label it.
type AmountMeta struct {
	Value    *uint256.Int `json:"value"`
	Decimals int          `json:"decimals"`
	Symbol   string       `json:"symbol"`
}

// Metadata is the tag-dependent payload of a ValidationError. Every field is
// optional.
type Metadata struct {
	Amount *AmountMeta `json:"amount,omitempty"`
	// FeeCheck is set when NotEnoughBalance was raised for a fee rather than
	// the principal.
	FeeCheck  bool   `json:"fee_check,omitempty"`
	Chain     string `json:"chain,omitempty"`
	ChainName string `json:"chain_name,omitempty"`
	Asset     string `json:"asset,omitempty"`
	Hop       int    `json:"hop,omitempty"`
	StepID    int    `json:"step_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// ValidationError is the tagged union produced by the planner and the
// validation engine.
type ValidationError struct {
	Tag      Tag
	Metadata Metadata
	Cause    error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Tag, e.Cause)
	}
	if e.Metadata.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Tag, e.Metadata.Detail)
	}
	return string(e.Tag)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is matches another *ValidationError by tag so callers can write
// errors.Is(err, &errs.ValidationError{Tag: errs.QuoteExpired}).
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Tag == e.Tag
}

// New builds a ValidationError with the given metadata.
func New(tag Tag, md Metadata) *ValidationError {
	return &ValidationError{Tag: tag, Metadata: md}
}

// ChainQuery wraps a collaborator failure. The cause text is kept as the
// diagnostic detail since ChainQueryFailed may echo it to the user.
func ChainQuery(chain string, cause error) *ValidationError {
	md := Metadata{Chain: chain}
	if cause != nil {
		md.Detail = cause.Error()
	}
	return &ValidationError{Tag: ChainQueryFailed, Metadata: md, Cause: cause}
}

// TagOf returns the tag carried by err, or Unknown when err is not a
// ValidationError. A nil error has no tag.
func TagOf(err error) Tag {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Tag
	}
	return Unknown
}

// As is a shorthand for errors.As with a *ValidationError target.
func As(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
