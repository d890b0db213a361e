package amm

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"furnace/state/token"
)

var (
	// ErrUnknownPair indicates no pool exists for a hop of the requested path.
	ErrUnknownPair = errors.New("amm: unknown pair")
	// ErrSlippage indicates the realized output fell below the caller minimum.
	ErrSlippage = errors.New("amm: output below minimum")
	// ErrExpired indicates the swap deadline had already passed.
	ErrExpired = errors.New("amm: deadline expired")
	// ErrBadPath indicates the path has fewer than two symbols or repeats one.
	ErrBadPath = errors.New("amm: invalid path")
)

// Pool is a constant-product pair. Reserves live in the token ledger under the
// pool's own address so fee-on-transfer tokens behave the same way they do for
// any other holder.
type Pool struct {
	TokenA string
	TokenB string
	FeeBps uint32
	addr   [20]byte
}

// Market routes path-based swaps across registered pools, settling against the
// shared token ledger. It implements the quote/swap-exact-in surface the
// buy-and-burn router consumes.
type Market struct {
	ledger *token.Ledger
	pools  map[string]*Pool
	nowFn  func() time.Time
}

// NewMarket constructs a market over the supplied ledger.
func NewMarket(ledger *token.Ledger) *Market {
	return &Market{
		ledger: ledger,
		pools:  make(map[string]*Pool),
		nowFn:  time.Now,
	}
}

// SetClock overrides the deadline clock, primarily for deterministic testing.
func (m *Market) SetClock(now func() time.Time) {
	if m == nil || now == nil {
		return
	}
	m.nowFn = now
}

// AddPool registers a pair and seeds its reserves by minting both sides to the
// pool address. Pools are keyed by the unordered symbol pair.
func (m *Market) AddPool(tokenA, tokenB string, reserveA, reserveB *big.Int, feeBps uint32, addr [20]byte) error {
	a := strings.ToUpper(strings.TrimSpace(tokenA))
	b := strings.ToUpper(strings.TrimSpace(tokenB))
	if a == "" || b == "" || a == b {
		return fmt.Errorf("amm: pool requires two distinct tokens")
	}
	if feeBps >= 10000 {
		return fmt.Errorf("amm: pool fee must be below 10000 bps")
	}
	key := pairKey(a, b)
	if _, exists := m.pools[key]; exists {
		return fmt.Errorf("amm: pool %s already registered", key)
	}
	if err := m.ledger.Mint(a, addr, reserveA); err != nil {
		return err
	}
	if err := m.ledger.Mint(b, addr, reserveB); err != nil {
		return err
	}
	m.pools[key] = &Pool{TokenA: a, TokenB: b, FeeBps: feeBps, addr: addr}
	return nil
}

// Quote walks the path and returns the output a swap of amountIn would yield
// against current reserves. It ignores transfer taxes on the hop tokens, so a
// fee-on-transfer token can realize less than quoted.
func (m *Market) Quote(amountIn *big.Int, path []string) (*big.Int, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	amount := new(big.Int).Set(amountIn)
	for i := 0; i+1 < len(path); i++ {
		pool, err := m.pool(path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		reserveIn, reserveOut, err := m.reserves(pool, path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		amount, err = amountOut(amount, reserveIn, reserveOut, pool.FeeBps)
		if err != nil {
			return nil, err
		}
	}
	return amount, nil
}

// SwapExactIn executes the path for the trader, hop by hop. Each hop transfers
// the input to the pool address, measures what the pool actually received, and
// pays out against the constant-product curve. The returned amount is what the
// trader's balance actually grew by, which is below the curve output when the
// final token taxes transfers. Falling below minOut fails the swap.
func (m *Market) SwapExactIn(trader [20]byte, amountIn, minOut *big.Int, path []string, deadline time.Time) (*big.Int, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if !deadline.IsZero() && m.nowFn().After(deadline) {
		return nil, ErrExpired
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amm: swap amount must be positive")
	}
	amount := new(big.Int).Set(amountIn)
	for i := 0; i+1 < len(path); i++ {
		pool, err := m.pool(path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		reserveIn, reserveOut, err := m.reserves(pool, path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		received, err := m.ledger.Transfer(path[i], trader, pool.addr, amount)
		if err != nil {
			return nil, err
		}
		out, err := amountOut(received, reserveIn, reserveOut, pool.FeeBps)
		if err != nil {
			return nil, err
		}
		amount, err = m.ledger.Transfer(path[i+1], pool.addr, trader, out)
		if err != nil {
			return nil, err
		}
	}
	if minOut != nil && minOut.Sign() > 0 && amount.Cmp(minOut) < 0 {
		return nil, fmt.Errorf("%w: got %s want %s", ErrSlippage, amount, minOut)
	}
	return amount, nil
}

func (m *Market) pool(a, b string) (*Pool, error) {
	pool, ok := m.pools[pairKey(strings.ToUpper(a), strings.ToUpper(b))]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownPair, a, b)
	}
	return pool, nil
}

func (m *Market) reserves(pool *Pool, symbolIn, symbolOut string) (*big.Int, *big.Int, error) {
	reserveIn, err := m.ledger.BalanceOf(symbolIn, pool.addr)
	if err != nil {
		return nil, nil, err
	}
	reserveOut, err := m.ledger.BalanceOf(symbolOut, pool.addr)
	if err != nil {
		return nil, nil, err
	}
	return reserveIn, reserveOut, nil
}

// amountOut prices an input against x*y=k with the pool fee deducted from the
// input side: out = (in*(10000-fee)*reserveOut) / (reserveIn*10000 + in*(10000-fee)).
func amountOut(amountIn, reserveIn, reserveOut *big.Int, feeBps uint32) (*big.Int, error) {
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, fmt.Errorf("amm: pool has no liquidity")
	}
	in, overflow := uint256.FromBig(amountIn)
	if overflow {
		return nil, fmt.Errorf("amm: amount overflows")
	}
	rIn, overflow := uint256.FromBig(reserveIn)
	if overflow {
		return nil, fmt.Errorf("amm: reserve overflows")
	}
	rOut, overflow := uint256.FromBig(reserveOut)
	if overflow {
		return nil, fmt.Errorf("amm: reserve overflows")
	}
	inWithFee := new(uint256.Int).Mul(in, uint256.NewInt(uint64(10000-feeBps)))
	numerator := new(uint256.Int).Mul(inWithFee, rOut)
	denominator := new(uint256.Int).Mul(rIn, uint256.NewInt(10000))
	denominator.Add(denominator, inWithFee)
	if denominator.IsZero() {
		return big.NewInt(0), nil
	}
	out := new(uint256.Int).Div(numerator, denominator)
	return out.ToBig(), nil
}

func validatePath(path []string) error {
	if len(path) < 2 {
		return ErrBadPath
	}
	for i := 0; i+1 < len(path); i++ {
		if strings.EqualFold(path[i], path[i+1]) {
			return ErrBadPath
		}
	}
	return nil
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "/" + b
}
