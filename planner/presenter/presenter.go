// Package presenter turns validation errors into short user-facing sentences.
package presenter

import (
	"fmt"
	"strings"

	"github.com/Cogwheel-Validator/spectra-planner/planner/amm"
	"github.com/Cogwheel-Validator/spectra-planner/planner/errs"
	"github.com/holiman/uint256"
)

// DefaultMaxFractionDigits bounds the fractional digits shown for amounts.
const DefaultMaxFractionDigits = 6

const unknownMessage = "Undefined error. Check your Internet and %s connection or contact support"

// Presenter maps error tags to messages.
type Presenter struct {
	// MaxFractionDigits of 0 shows whole units only. A negative value means
	// DefaultMaxFractionDigits.
	MaxFractionDigits int
}

func New() *Presenter {
	return &Presenter{MaxFractionDigits: DefaultMaxFractionDigits}
}

// Digits is the fraction digit bound amounts are rendered with.
func (p *Presenter) Digits() int {
	if p.MaxFractionDigits < 0 {
		return DefaultMaxFractionDigits
	}
	return p.MaxFractionDigits
}

// FormatAmount renders value/10^decimals truncated to maxFraction digits.
func FormatAmount(value *uint256.Int, decimals, maxFraction int) string {
	if value == nil {
		return "0"
	}
	if maxFraction < 0 {
		maxFraction = 0
	}
	return amm.ToDecimal(value, decimals).Truncate(int32(maxFraction)).String()
}

// Present never fails. A nil error yields an empty string.
func (p *Presenter) Present(err error) string {
	if err == nil {
		return ""
	}
	verr, ok := errs.As(err)
	if !ok {
		return p.unknown("", err.Error())
	}
	md := verr.Metadata

	switch verr.Tag {
	case errs.SwapBelowMinimum:
		if amt, ok := p.amount(md); ok {
			return fmt.Sprintf("Insufficient balance. You need more than %s to start swapping. Deposit %s and try again.",
				amt, md.Amount.Symbol)
		}
		return "Insufficient balance. Deposit more and try again."

	case errs.SwapExceedsAvailable:
		if amt, ok := p.amount(md); ok {
			return fmt.Sprintf("Amount too high. Lower your amount below %s and try again", amt)
		}
		return "Amount too high. Lower your amount and try again"

	case errs.NotEnoughBalance:
		symbol := ""
		if md.Amount != nil {
			symbol = md.Amount.Symbol
		}
		if md.FeeCheck {
			if symbol == "" {
				return "You don't have enough balance to pay transaction fee"
			}
			if name := chainName(md); name != "" {
				return fmt.Sprintf("You don't have enough %s (%s) to pay transaction fee", symbol, name)
			}
			return fmt.Sprintf("You don't have enough %s to pay transaction fee", symbol)
		}
		if symbol == "" {
			return "Insufficient balance. Deposit more and try again."
		}
		return fmt.Sprintf("Insufficient balance. Deposit %s and try again.", symbol)

	case errs.AssetNotSupported:
		return "This swap pair is not supported"

	case errs.NotEnoughLiquidity:
		return "Not enough liquidity in the pool. Lower your amount and try again"

	case errs.PoolBelowExistential:
		if amt, ok := p.amount(md); ok {
			return fmt.Sprintf("This swap would leave the pool below its minimum of %s. Lower your amount and try again", amt)
		}
		return "This swap would leave the pool below its minimum balance. Lower your amount and try again"

	case errs.InvalidRecipient:
		if name := chainName(md); name != "" {
			return fmt.Sprintf("Recipient address is not valid for %s", name)
		}
		return "Recipient address is not valid for the destination chain"

	case errs.QuoteExpired:
		return "Quote expired. Refresh the quote and try again"

	case errs.ChainQueryFailed:
		if md.Detail != "" {
			return "No swap quote found. Adjust your amount or try again later. (" + md.Detail + ")"
		}
		return "No swap quote found. Adjust your amount or try again later."

	default:
		return p.unknown(chainName(md), md.Detail)
	}
}

func (p *Presenter) unknown(chain, detail string) string {
	if chain == "" {
		chain = "network"
	}
	msg := fmt.Sprintf(unknownMessage, chain)
	if detail = strings.TrimSpace(detail); detail != "" {
		msg += " (" + detail + ")"
	}
	return msg
}

// amount formats md.Amount as "<value> <symbol>".
func (p *Presenter) amount(md errs.Metadata) (string, bool) {
	if md.Amount == nil || md.Amount.Value == nil {
		return "", false
	}
	s := FormatAmount(md.Amount.Value, md.Amount.Decimals, p.Digits())
	if md.Amount.Symbol != "" {
		s += " " + md.Amount.Symbol
	}
	return s, true
}

func chainName(md errs.Metadata) string {
	if md.ChainName != "" {
		return md.ChainName
	}
	return md.Chain
}
