package buyburn

import "math/big"

// Plan is the allocation decision for one round, computed from observed
// balances and the configured per-round caps. It is a pure value; nothing in
// it mutates state.
type Plan struct {
	// NeedsSecondaryConversion reports whether the round must first convert
	// secondary tokens into the primary token before the target-leg swaps.
	NeedsSecondaryConversion bool
	// PrimaryToUse is the primary amount eligible this round before any
	// secondary-leg conversion tops the balance up.
	PrimaryToUse *big.Int
	// SecondaryToUse is the secondary amount the conversion leg may consume.
	SecondaryToUse *big.Int
}

// planRound computes the round allocation. The secondary leg runs whenever the
// primary balance sits below its cap and any secondary balance exists; both
// amounts are clamped to their caps. Always returns a value, including for the
// zero/zero case.
func planRound(primaryBalance, secondaryBalance, capPrimary, capSecondary *big.Int) Plan {
	plan := Plan{
		PrimaryToUse:   minAmount(primaryBalance, capPrimary),
		SecondaryToUse: minAmount(secondaryBalance, capSecondary),
	}
	plan.NeedsSecondaryConversion = primaryBalance.Cmp(capPrimary) < 0 && secondaryBalance.Sign() > 0
	return plan
}

func minAmount(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

// splitAllocation divides the fee-adjusted primary allocation between the two
// target legs: one tenth to target B, the remainder (including any division
// dust) to target A. The split ratio is a policy constant, not configuration.
func splitAllocation(net *big.Int) (targetA, targetB *big.Int) {
	targetB = new(big.Int).Div(net, big.NewInt(targetShareDenominator))
	targetA = new(big.Int).Sub(net, targetB)
	return targetA, targetB
}
