package token

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrUnknownToken indicates the requested symbol has not been registered.
	ErrUnknownToken = errors.New("token: unknown token")
	// ErrInsufficientBalance indicates the debit side cannot cover the transfer.
	ErrInsufficientBalance = errors.New("token: insufficient balance")
)

// Token describes a registered asset. TransferTaxBps models fee-on-transfer
// behaviour: when non-zero, every transfer delivers less than the nominal
// amount and routes the difference to TaxCollector.
type Token struct {
	Symbol         string
	TransferTaxBps uint32
	TaxCollector   [20]byte
}

type account struct {
	balances map[[20]byte]*big.Int
	supply   *big.Int
}

func newAccount() *account {
	return &account{balances: make(map[[20]byte]*big.Int), supply: big.NewInt(0)}
}

func (a *account) clone() *account {
	clone := &account{balances: make(map[[20]byte]*big.Int, len(a.balances)), supply: new(big.Int).Set(a.supply)}
	for addr, bal := range a.balances {
		clone.balances[addr] = new(big.Int).Set(bal)
	}
	return clone
}

// Ledger tracks balances and total supply per registered token. Snapshot and
// RevertToSnapshot give callers an atomic unit of work: take a snapshot before
// a multi-step mutation and revert on any failure so no partial state commits.
type Ledger struct {
	tokens    map[string]Token
	accounts  map[string]*account
	snapshots []map[string]*account
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		tokens:   make(map[string]Token),
		accounts: make(map[string]*account),
	}
}

// Register adds a token definition. Re-registering an existing symbol fails.
func (l *Ledger) Register(tok Token) error {
	symbol := normaliseSymbol(tok.Symbol)
	if symbol == "" {
		return fmt.Errorf("token: symbol required")
	}
	if tok.TransferTaxBps > 10000 {
		return fmt.Errorf("token: transfer tax must not exceed 10000 bps")
	}
	if _, exists := l.tokens[symbol]; exists {
		return fmt.Errorf("token: %s already registered", symbol)
	}
	tok.Symbol = symbol
	l.tokens[symbol] = tok
	l.accounts[symbol] = newAccount()
	return nil
}

// Mint credits freshly issued tokens to the supplied address.
func (l *Ledger) Mint(symbol string, addr [20]byte, amount *big.Int) error {
	acct, err := l.account(symbol)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("token: mint amount must be non-negative")
	}
	if amount.Sign() == 0 {
		return nil
	}
	acct.credit(addr, amount)
	acct.supply.Add(acct.supply, amount)
	return nil
}

// BalanceOf returns a defensive copy of the address balance.
func (l *Ledger) BalanceOf(symbol string, addr [20]byte) (*big.Int, error) {
	acct, err := l.account(symbol)
	if err != nil {
		return nil, err
	}
	if bal, ok := acct.balances[addr]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

// TotalSupply returns the outstanding supply of the token.
func (l *Ledger) TotalSupply(symbol string) (*big.Int, error) {
	acct, err := l.account(symbol)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(acct.supply), nil
}

// Transfer moves amount from one address to another, applying the token's
// transfer tax if configured. The sender is debited the full nominal amount;
// the returned value is what the recipient actually received, which callers
// must use instead of the nominal amount for downstream accounting.
func (l *Ledger) Transfer(symbol string, from, to [20]byte, amount *big.Int) (*big.Int, error) {
	acct, err := l.account(symbol)
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("token: transfer amount must be non-negative")
	}
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	balance := acct.balances[from]
	if balance == nil || balance.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientBalance, symbol)
	}
	tok := l.tokens[normaliseSymbol(symbol)]
	received := new(big.Int).Set(amount)
	var tax *big.Int
	if tok.TransferTaxBps > 0 && from != tok.TaxCollector && to != tok.TaxCollector {
		tax = new(big.Int).Mul(amount, big.NewInt(int64(tok.TransferTaxBps)))
		tax.Div(tax, big.NewInt(10000))
		received.Sub(received, tax)
	}
	acct.debit(from, amount)
	acct.credit(to, received)
	if tax != nil && tax.Sign() > 0 {
		acct.credit(tok.TaxCollector, tax)
	}
	return received, nil
}

// Burn destroys amount held by the address, reducing total supply. Burning
// zero is a no-op.
func (l *Ledger) Burn(symbol string, addr [20]byte, amount *big.Int) error {
	acct, err := l.account(symbol)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("token: burn amount must be non-negative")
	}
	if amount.Sign() == 0 {
		return nil
	}
	balance := acct.balances[addr]
	if balance == nil || balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientBalance, symbol)
	}
	acct.debit(addr, amount)
	acct.supply.Sub(acct.supply, amount)
	return nil
}

// Snapshot records the current balances and returns an identifier for
// RevertToSnapshot. Snapshots nest; reverting to an id discards every later
// snapshot as well.
func (l *Ledger) Snapshot() int {
	copyAccounts := make(map[string]*account, len(l.accounts))
	for symbol, acct := range l.accounts {
		copyAccounts[symbol] = acct.clone()
	}
	l.snapshots = append(l.snapshots, copyAccounts)
	return len(l.snapshots) - 1
}

// RevertToSnapshot restores the ledger to the state captured by Snapshot.
// An out-of-range id is ignored.
func (l *Ledger) RevertToSnapshot(id int) {
	if id < 0 || id >= len(l.snapshots) {
		return
	}
	l.accounts = l.snapshots[id]
	l.snapshots = l.snapshots[:id]
}

// DiscardSnapshot drops the snapshot without reverting, committing the
// mutations made since it was taken.
func (l *Ledger) DiscardSnapshot(id int) {
	if id < 0 || id >= len(l.snapshots) {
		return
	}
	l.snapshots = l.snapshots[:id]
}

func (l *Ledger) account(symbol string) (*account, error) {
	acct, ok := l.accounts[normaliseSymbol(symbol)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, symbol)
	}
	return acct, nil
}

func (a *account) credit(addr [20]byte, amount *big.Int) {
	if bal, ok := a.balances[addr]; ok {
		bal.Add(bal, amount)
		return
	}
	a.balances[addr] = new(big.Int).Set(amount)
}

func (a *account) debit(addr [20]byte, amount *big.Int) {
	a.balances[addr].Sub(a.balances[addr], amount)
}

func normaliseSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
