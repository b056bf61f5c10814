package router

import (
	"github.com/Cogwheel-Validator/spectra-planner/planner/amm"
	"github.com/holiman/uint256"
)

// MinReceive calculates minimum output with slippage tolerance.
// slippageBps is basis points (e.g., 100 = 1%)
// minReceive = expected * (10000 - slippageBps) / 10000
func MinReceive(expected *uint256.Int, slippageBps uint32) *uint256.Int {
	if expected == nil {
		return new(uint256.Int)
	}
	return amm.ApplyBps(expected, slippageBps)
}
