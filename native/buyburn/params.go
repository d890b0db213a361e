package buyburn

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Incentive fee bounds in basis points.
const (
	MinIncentiveFeeBps = 30
	MaxIncentiveFeeBps = 500
)

// Default configuration applied by NewEngine before any admin override.
const (
	DefaultIncentiveFeeBps = 30
	DefaultInterval        = time.Hour
)

// targetShareDenominator fixes the allocation split between the two target
// legs: one tenth buys target B, the remainder buys target A.
const targetShareDenominator = 10

// Tokens names the four assets a deployment converts between and the swap
// paths connecting them on the external market.
type Tokens struct {
	Primary   string
	Secondary string
	TargetA   string
	TargetB   string

	// Swap paths consumed by the router. Each must start at the source
	// token and end at the destination token; intermediate hops are
	// market-dependent.
	SecondaryToPrimary []string
	PrimaryToTargetA   []string
	PrimaryToTargetB   []string
}

// Normalise canonicalises symbols and defaults absent paths to the direct
// pair.
func (t Tokens) Normalise() (Tokens, error) {
	out := Tokens{
		Primary:   normaliseSymbol(t.Primary),
		Secondary: normaliseSymbol(t.Secondary),
		TargetA:   normaliseSymbol(t.TargetA),
		TargetB:   normaliseSymbol(t.TargetB),
	}
	if out.Primary == "" || out.Secondary == "" || out.TargetA == "" || out.TargetB == "" {
		return out, fmt.Errorf("%w: all four token symbols are required", ErrInvalidConfig)
	}
	out.SecondaryToPrimary = normalisePath(t.SecondaryToPrimary, out.Secondary, out.Primary)
	out.PrimaryToTargetA = normalisePath(t.PrimaryToTargetA, out.Primary, out.TargetA)
	out.PrimaryToTargetB = normalisePath(t.PrimaryToTargetB, out.Primary, out.TargetB)
	for _, path := range [][]string{out.SecondaryToPrimary, out.PrimaryToTargetA, out.PrimaryToTargetB} {
		if len(path) < 2 {
			return out, fmt.Errorf("%w: swap paths need at least two hops", ErrInvalidConfig)
		}
	}
	if out.SecondaryToPrimary[0] != out.Secondary || out.SecondaryToPrimary[len(out.SecondaryToPrimary)-1] != out.Primary {
		return out, fmt.Errorf("%w: secondary path must run secondary to primary", ErrInvalidConfig)
	}
	if out.PrimaryToTargetA[0] != out.Primary || out.PrimaryToTargetA[len(out.PrimaryToTargetA)-1] != out.TargetA {
		return out, fmt.Errorf("%w: target A path must run primary to target A", ErrInvalidConfig)
	}
	if out.PrimaryToTargetB[0] != out.Primary || out.PrimaryToTargetB[len(out.PrimaryToTargetB)-1] != out.TargetB {
		return out, fmt.Errorf("%w: target B path must run primary to target B", ErrInvalidConfig)
	}
	return out, nil
}

// Config carries the runtime knobs every round reads. Amounts are copied on
// the way in and out so callers can never alias engine state.
type Config struct {
	IncentiveFeeBps     uint32
	CapPerSwapPrimary   *big.Int
	CapPerSwapSecondary *big.Int
	Interval            time.Duration
}

// DefaultConfig returns the construction-time defaults with the supplied
// per-round caps.
func DefaultConfig(capPrimary, capSecondary *big.Int) Config {
	cfg := Config{
		IncentiveFeeBps: DefaultIncentiveFeeBps,
		Interval:        DefaultInterval,
	}
	cfg.CapPerSwapPrimary = copyAmount(capPrimary)
	cfg.CapPerSwapSecondary = copyAmount(capSecondary)
	return cfg
}

// Validate verifies every knob is inside its admitted domain.
func (c Config) Validate() error {
	if c.IncentiveFeeBps < MinIncentiveFeeBps || c.IncentiveFeeBps > MaxIncentiveFeeBps {
		return fmt.Errorf("%w: incentive fee %d bps outside [%d, %d]", ErrInvalidConfig, c.IncentiveFeeBps, MinIncentiveFeeBps, MaxIncentiveFeeBps)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.CapPerSwapPrimary == nil || c.CapPerSwapPrimary.Sign() < 0 {
		return fmt.Errorf("%w: primary cap must be set and non-negative", ErrInvalidConfig)
	}
	if c.CapPerSwapSecondary == nil || c.CapPerSwapSecondary.Sign() < 0 {
		return fmt.Errorf("%w: secondary cap must be set and non-negative", ErrInvalidConfig)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	clone := c
	clone.CapPerSwapPrimary = copyAmount(c.CapPerSwapPrimary)
	clone.CapPerSwapSecondary = copyAmount(c.CapPerSwapSecondary)
	return clone
}

func copyAmount(amount *big.Int) *big.Int {
	if amount == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(amount)
}

func normaliseSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func normalisePath(path []string, from, to string) []string {
	if len(path) == 0 {
		return []string{from, to}
	}
	out := make([]string, 0, len(path))
	for _, hop := range path {
		hop = normaliseSymbol(hop)
		if hop == "" {
			continue
		}
		out = append(out, hop)
	}
	return out
}
