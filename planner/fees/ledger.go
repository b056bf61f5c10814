// Package fees accumulates per-step fees across assets that are never
// converted into each other.
package fees

import (
	"github.com/holiman/uint256"
)

// Kind classifies a fee for display.
type Kind string

const (
	KindNetwork  Kind = "NETWORK"
	KindPlatform Kind = "PLATFORM"
	KindWallet   Kind = "WALLET"
)

// Entry is one fee charged by one step.
type Entry struct {
	StepID    int
	AssetSlug string
	Amount    *uint256.Int
	Kind      Kind
	// FromPrincipal entries are taken out of the moved amount and are not
	// paid from a separate balance.
	FromPrincipal bool
}

// Ledger is an append-only list of fee entries. Aggregation happens at read
// time. The zero value is ready to use.
type Ledger struct {
	entries []Entry
}

// NewLedger returns a ledger seeded with entries, in order.
func NewLedger(entries ...Entry) *Ledger {
	l := &Ledger{}
	for _, e := range entries {
		l.Add(e)
	}
	return l
}

// Add appends a copy of e. A nil amount is recorded as zero.
func (l *Ledger) Add(e Entry) {
	if e.Amount == nil {
		e.Amount = new(uint256.Int)
	} else {
		e.Amount = new(uint256.Int).Set(e.Amount)
	}
	l.entries = append(l.entries, e)
}

// Entries returns a copy of the entries in insertion order.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		e.Amount = new(uint256.Int).Set(e.Amount)
		out[i] = e
	}
	return out
}

// HasAny reports whether any fee was charged, including zero amounts.
func (l *Ledger) HasAny() bool {
	return len(l.entries) > 0
}

// TotalByAsset sums every entry per asset.
func (l *Ledger) TotalByAsset() map[string]*uint256.Int {
	return l.sum(func(Entry) bool { return true })
}

// PayableByAsset sums only the entries paid from balance.
func (l *Ledger) PayableByAsset() map[string]*uint256.Int {
	return l.sum(func(e Entry) bool { return !e.FromPrincipal })
}

// TotalByKind sums entries per asset and kind.
func (l *Ledger) TotalByKind() map[string]map[Kind]*uint256.Int {
	out := make(map[string]map[Kind]*uint256.Int)
	for _, e := range l.entries {
		byKind, ok := out[e.AssetSlug]
		if !ok {
			byKind = make(map[Kind]*uint256.Int)
			out[e.AssetSlug] = byKind
		}
		if cur, ok := byKind[e.Kind]; ok {
			cur.Add(cur, e.Amount)
		} else {
			byKind[e.Kind] = new(uint256.Int).Set(e.Amount)
		}
	}
	return out
}

// Assets returns the distinct assets in order of first appearance.
func (l *Ledger) Assets() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range l.entries {
		if !seen[e.AssetSlug] {
			seen[e.AssetSlug] = true
			out = append(out, e.AssetSlug)
		}
	}
	return out
}

func (l *Ledger) sum(keep func(Entry) bool) map[string]*uint256.Int {
	out := make(map[string]*uint256.Int)
	for _, e := range l.entries {
		if !keep(e) {
			continue
		}
		if cur, ok := out[e.AssetSlug]; ok {
			cur.Add(cur, e.Amount)
		} else {
			out[e.AssetSlug] = new(uint256.Int).Set(e.Amount)
		}
	}
	return out
}
