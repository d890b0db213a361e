package buyburn

import (
	"errors"
	"math/big"
	"testing"
	"time"
)

var (
	ownerAddr  = [20]byte{0x01}
	keeperAddr = [20]byte{0x02}
	otherAddr  = [20]byte{0x03}
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	tokens := Tokens{Primary: "PRIM", Secondary: "SECD", TargetA: "TGTA", TargetB: "TGTB"}
	cfg := DefaultConfig(big.NewInt(800_000_000), big.NewInt(2_000_000_000))
	engine, err := NewEngine([20]byte{0xee}, ownerAddr, tokens, cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestWhitelistMutation(t *testing.T) {
	engine := newTestEngine(t)
	if engine.Whitelisted(keeperAddr) {
		t.Fatalf("whitelist must default to empty")
	}
	if err := engine.SetWhitelist(otherAddr, [][20]byte{{0x02}}, true); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected owner-only error, got %v", err)
	}
	if err := engine.SetWhitelist(ownerAddr, [][20]byte{keeperAddr, otherAddr}, true); err != nil {
		t.Fatalf("set whitelist: %v", err)
	}
	if !engine.Whitelisted(keeperAddr) || !engine.Whitelisted(otherAddr) {
		t.Fatalf("expected both addresses whitelisted")
	}
	// Idempotent re-add, then removal.
	if err := engine.SetWhitelist(ownerAddr, [][20]byte{keeperAddr}, true); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if err := engine.SetWhitelist(ownerAddr, [][20]byte{otherAddr}, false); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if engine.Whitelisted(otherAddr) {
		t.Fatalf("expected removal to take effect")
	}
}

func TestSetIncentiveFeeBounds(t *testing.T) {
	engine := newTestEngine(t)
	if err := engine.SetIncentiveFeeBps(ownerAddr, 29); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected 29 bps rejected, got %v", err)
	}
	if err := engine.SetIncentiveFeeBps(ownerAddr, 501); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected 501 bps rejected, got %v", err)
	}
	if err := engine.SetIncentiveFeeBps(ownerAddr, 30); err != nil {
		t.Fatalf("30 bps must be accepted: %v", err)
	}
	if err := engine.SetIncentiveFeeBps(ownerAddr, 500); err != nil {
		t.Fatalf("500 bps must be accepted: %v", err)
	}
	if got := engine.Config().IncentiveFeeBps; got != 500 {
		t.Fatalf("expected fee 500, got %d", got)
	}
}

func TestSetInterval(t *testing.T) {
	engine := newTestEngine(t)
	if err := engine.SetInterval(ownerAddr, 0); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected zero interval rejected, got %v", err)
	}
	if err := engine.SetInterval(ownerAddr, -time.Minute); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected negative interval rejected, got %v", err)
	}
	if err := engine.SetInterval(ownerAddr, 8*time.Hour); err != nil {
		t.Fatalf("set interval: %v", err)
	}
	if got := engine.Config().Interval; got != 8*time.Hour {
		t.Fatalf("expected 8h interval, got %s", got)
	}
}

func TestSetCaps(t *testing.T) {
	engine := newTestEngine(t)
	if err := engine.SetCapPrimary(ownerAddr, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected nil cap rejected, got %v", err)
	}
	if err := engine.SetCapPrimary(ownerAddr, big.NewInt(-1)); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected negative cap rejected, got %v", err)
	}
	if err := engine.SetCapPrimary(ownerAddr, big.NewInt(123)); err != nil {
		t.Fatalf("set primary cap: %v", err)
	}
	if err := engine.SetCapSecondary(ownerAddr, big.NewInt(456)); err != nil {
		t.Fatalf("set secondary cap: %v", err)
	}
	cfg := engine.Config()
	if cfg.CapPerSwapPrimary.Cmp(big.NewInt(123)) != 0 || cfg.CapPerSwapSecondary.Cmp(big.NewInt(456)) != 0 {
		t.Fatalf("unexpected caps %s/%s", cfg.CapPerSwapPrimary, cfg.CapPerSwapSecondary)
	}
}

func TestTwoStepOwnership(t *testing.T) {
	engine := newTestEngine(t)
	if err := engine.ProposeOwner(otherAddr, otherAddr); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected non-owner proposal rejected, got %v", err)
	}
	if err := engine.ProposeOwner(ownerAddr, otherAddr); err != nil {
		t.Fatalf("propose: %v", err)
	}
	// Nomination does not transfer authority.
	if err := engine.SetInterval(otherAddr, time.Hour); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("nominee must not hold authority before accepting, got %v", err)
	}
	if err := engine.AcceptOwnership(keeperAddr); !errors.Is(err, ErrNotPendingOwner) {
		t.Fatalf("expected non-nominee accept rejected, got %v", err)
	}
	// Owner can cancel by re-nominating itself.
	if err := engine.ProposeOwner(ownerAddr, ownerAddr); err != nil {
		t.Fatalf("re-propose: %v", err)
	}
	if err := engine.AcceptOwnership(otherAddr); !errors.Is(err, ErrNotPendingOwner) {
		t.Fatalf("cancelled nominee must not accept, got %v", err)
	}
	if err := engine.ProposeOwner(ownerAddr, otherAddr); err != nil {
		t.Fatalf("propose again: %v", err)
	}
	if err := engine.AcceptOwnership(otherAddr); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if engine.Owner() != otherAddr {
		t.Fatalf("ownership did not transfer")
	}
	if _, pending := engine.PendingOwner(); pending {
		t.Fatalf("pending nomination must clear after acceptance")
	}
	if err := engine.SetInterval(ownerAddr, time.Hour); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("previous owner must lose authority, got %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tokens := Tokens{Primary: "PRIM", Secondary: "SECD", TargetA: "TGTA", TargetB: "TGTB"}
	cfg := DefaultConfig(big.NewInt(1), big.NewInt(1))
	cfg.IncentiveFeeBps = 29
	if _, err := NewEngine([20]byte{0xee}, ownerAddr, tokens, cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected construction-time validation, got %v", err)
	}
	bad := Tokens{Primary: "PRIM", Secondary: "SECD", TargetA: "TGTA", TargetB: "TGTB",
		SecondaryToPrimary: []string{"PRIM", "SECD"}}
	if _, err := NewEngine([20]byte{0xee}, ownerAddr, bad, DefaultConfig(big.NewInt(1), big.NewInt(1))); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected path direction validation, got %v", err)
	}
}
