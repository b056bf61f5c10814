package fees

import (
	"fmt"

	"github.com/Cogwheel-Validator/spectra-planner/planner/amm"
	"github.com/Cogwheel-Validator/spectra-planner/planner/oracle"
	"github.com/holiman/uint256"
)

// ChooseFeeAsset picks the asset a step's fee is paid in. The primary
// candidate wins unless its balance is zero and inputAsset is itself an
// accepted candidate with a positive balance.
func ChooseFeeAsset(candidates []string, inputAsset string, balances map[string]*uint256.Int) string {
	if len(candidates) == 0 {
		return ""
	}
	primary := candidates[0]
	if positive(balances[primary]) || inputAsset == primary {
		return primary
	}
	for _, c := range candidates[1:] {
		if c == inputAsset && positive(balances[c]) {
			return c
		}
	}
	return primary
}

// ConvertViaPool converts fee, denominated in reserve.AssetOut, into the
// amount of reserve.AssetIn that buys it from the pool. The result is rounded
// up so the converted fee always covers the original.
func ConvertViaPool(fee *uint256.Int, reserve oracle.PoolReserve, feeBps uint32) (*uint256.Int, error) {
	if fee == nil || fee.IsZero() {
		return new(uint256.Int), nil
	}
	if reserve.Empty() {
		return nil, fmt.Errorf("no liquidity to convert fee from %s to %s", reserve.AssetIn, reserve.AssetOut)
	}
	in, err := amm.AmountIn(fee, reserve.ReserveIn, reserve.ReserveOut, feeBps)
	if err != nil {
		return nil, fmt.Errorf("convert fee %s -> %s: %w", reserve.AssetIn, reserve.AssetOut, err)
	}
	return in, nil
}

func positive(v *uint256.Int) bool {
	return v != nil && !v.IsZero()
}
