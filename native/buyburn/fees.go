package buyburn

import "math/big"

// settleFee splits the round allocation into the caller incentive and the net
// amount that proceeds to the target-leg swaps. The fee rounds down and the
// net absorbs the remainder, so net + fee always equals amount exactly.
func settleFee(amount *big.Int, feeBps uint32) (net, fee *big.Int) {
	fee = new(big.Int).Mul(amount, big.NewInt(int64(feeBps)))
	fee.Div(fee, big.NewInt(10_000))
	net = new(big.Int).Sub(amount, fee)
	return net, fee
}
