package buyburn

import (
	"fmt"
	"math/big"
	"time"
)

// Whitelisted reports whether the address may invoke BuyAndBurn.
func (e *Engine) Whitelisted(addr [20]byte) bool {
	return e.whitelist[addr]
}

// SetWhitelist flips membership for every supplied address. Owner only;
// idempotent per entry; no size limit is enforced here.
func (e *Engine) SetWhitelist(caller [20]byte, addrs [][20]byte, enabled bool) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	for _, addr := range addrs {
		if enabled {
			e.whitelist[addr] = true
		} else {
			delete(e.whitelist, addr)
		}
	}
	return nil
}

// SetIncentiveFeeBps updates the caller incentive fee. Owner only; the value
// must stay within [MinIncentiveFeeBps, MaxIncentiveFeeBps].
func (e *Engine) SetIncentiveFeeBps(caller [20]byte, bps uint32) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if bps < MinIncentiveFeeBps || bps > MaxIncentiveFeeBps {
		return fmt.Errorf("%w: incentive fee %d bps outside [%d, %d]", ErrInvalidConfig, bps, MinIncentiveFeeBps, MaxIncentiveFeeBps)
	}
	e.cfg.IncentiveFeeBps = bps
	return nil
}

// SetInterval updates the minimum spacing between rounds. Owner only; must be
// strictly positive.
func (e *Engine) SetInterval(caller [20]byte, interval time.Duration) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	e.cfg.Interval = interval
	return nil
}

// SetCapPrimary updates the per-round primary conversion cap. Owner only.
func (e *Engine) SetCapPrimary(caller [20]byte, amount *big.Int) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: primary cap must be non-negative", ErrInvalidConfig)
	}
	e.cfg.CapPerSwapPrimary = new(big.Int).Set(amount)
	return nil
}

// SetCapSecondary updates the per-round secondary conversion cap. Owner only.
func (e *Engine) SetCapSecondary(caller [20]byte, amount *big.Int) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: secondary cap must be non-negative", ErrInvalidConfig)
	}
	e.cfg.CapPerSwapSecondary = new(big.Int).Set(amount)
	return nil
}

// Owner returns the current owner.
func (e *Engine) Owner() [20]byte { return e.owner }

// PendingOwner returns the nominated successor, if any.
func (e *Engine) PendingOwner() ([20]byte, bool) { return e.pendingOwner, e.hasPending }

// ProposeOwner nominates a successor. The current owner keeps full authority
// until the successor accepts; re-proposing (including the owner itself)
// replaces the outstanding nomination.
func (e *Engine) ProposeOwner(caller, successor [20]byte) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.pendingOwner = successor
	e.hasPending = true
	return nil
}

// AcceptOwnership transfers authority to the nominated successor.
func (e *Engine) AcceptOwnership(caller [20]byte) error {
	if !e.hasPending || caller != e.pendingOwner {
		return ErrNotPendingOwner
	}
	e.owner = caller
	e.pendingOwner = [20]byte{}
	e.hasPending = false
	return nil
}

func (e *Engine) requireOwner(caller [20]byte) error {
	if caller != e.owner {
		return ErrNotOwner
	}
	return nil
}
