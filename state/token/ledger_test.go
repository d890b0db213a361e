package token

import (
	"errors"
	"math/big"
	"testing"
)

var (
	alice    = [20]byte{0x01}
	bob      = [20]byte{0x02}
	treasury = [20]byte{0xff}
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ledger := NewLedger()
	if err := ledger.Register(Token{Symbol: "PLAIN"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := ledger.Register(Token{Symbol: "TAXED", TransferTaxBps: 400, TaxCollector: treasury}); err != nil {
		t.Fatalf("register: %v", err)
	}
	return ledger
}

func TestTransferPlain(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Mint("PLAIN", alice, big.NewInt(1000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	received, err := ledger.Transfer("PLAIN", alice, bob, big.NewInt(300))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if received.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("expected full delivery, got %s", received)
	}
	bal, _ := ledger.BalanceOf("PLAIN", bob)
	if bal.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("unexpected recipient balance %s", bal)
	}
}

func TestTransferAppliesTax(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Mint("TAXED", alice, big.NewInt(10000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	received, err := ledger.Transfer("TAXED", alice, bob, big.NewInt(10000))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if received.Cmp(big.NewInt(9600)) != 0 {
		t.Fatalf("expected 9600 after 400 bps tax, got %s", received)
	}
	collectorBal, _ := ledger.BalanceOf("TAXED", treasury)
	if collectorBal.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("expected collector to hold tax, got %s", collectorBal)
	}
	senderBal, _ := ledger.BalanceOf("TAXED", alice)
	if senderBal.Sign() != 0 {
		t.Fatalf("sender should be fully debited, got %s", senderBal)
	}
}

func TestTransferInsufficientBalance(t *testing.T) {
	ledger := newTestLedger(t)
	if _, err := ledger.Transfer("PLAIN", alice, bob, big.NewInt(1)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestBurnReducesSupply(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Mint("PLAIN", alice, big.NewInt(500)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Burn("PLAIN", alice, big.NewInt(200)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	supply, _ := ledger.TotalSupply("PLAIN")
	if supply.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("expected supply 300, got %s", supply)
	}
	if err := ledger.Burn("PLAIN", alice, big.NewInt(0)); err != nil {
		t.Fatalf("burning zero should be a no-op: %v", err)
	}
}

func TestSnapshotRevert(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Mint("PLAIN", alice, big.NewInt(1000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	snap := ledger.Snapshot()
	if _, err := ledger.Transfer("PLAIN", alice, bob, big.NewInt(600)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := ledger.Burn("PLAIN", bob, big.NewInt(100)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	ledger.RevertToSnapshot(snap)
	aliceBal, _ := ledger.BalanceOf("PLAIN", alice)
	if aliceBal.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected revert to restore alice, got %s", aliceBal)
	}
	bobBal, _ := ledger.BalanceOf("PLAIN", bob)
	if bobBal.Sign() != 0 {
		t.Fatalf("expected revert to clear bob, got %s", bobBal)
	}
	supply, _ := ledger.TotalSupply("PLAIN")
	if supply.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected supply restored, got %s", supply)
	}
}

func TestSnapshotDiscardCommits(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Mint("PLAIN", alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	snap := ledger.Snapshot()
	if _, err := ledger.Transfer("PLAIN", alice, bob, big.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	ledger.DiscardSnapshot(snap)
	ledger.RevertToSnapshot(snap)
	bobBal, _ := ledger.BalanceOf("PLAIN", bob)
	if bobBal.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("discarded snapshot must not revert, got %s", bobBal)
	}
}

func TestUnknownToken(t *testing.T) {
	ledger := newTestLedger(t)
	if _, err := ledger.BalanceOf("NOPE", alice); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected unknown token, got %v", err)
	}
}
