// Package address classifies recipient addresses into chain families.
package address

import (
	"strings"

	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	"github.com/btcsuite/btcutil/base58"
	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
)

// SS58 payloads are a 1 or 2 byte network prefix, a 32 byte public key and a
// 2 byte checksum.
const (
	ss58ShortLen = 35
	ss58LongLen  = 36
)

// FamilyOf returns the family an address belongs to. Hex addresses are
// contract-style; SS58 and bech32 addresses are account-based.
func FamilyOf(addr string) (catalog.Family, bool) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", false
	}
	if common.IsHexAddress(addr) {
		return catalog.FamilyEVM, true
	}
	if isSS58(addr) || isBech32(addr) {
		return catalog.FamilySubstrate, true
	}
	return "", false
}

// Compatible reports whether addr can receive funds on a chain of family f.
func Compatible(addr string, f catalog.Family) bool {
	got, ok := FamilyOf(addr)
	return ok && got == f
}

func isSS58(addr string) bool {
	decoded := base58.Decode(addr)
	return len(decoded) == ss58ShortLen || len(decoded) == ss58LongLen
}

func isBech32(addr string) bool {
	_, data, err := bech32.Decode(addr)
	if err != nil {
		return false
	}
	conv, err := bech32.ConvertBits(data, 5, 8, false)
	return err == nil && len(conv) >= 20
}
