package buyburn

import (
	"fmt"
	"math/big"
	"time"

	"furnace/core/events"
	"furnace/observability/metrics"
)

// TokenState exposes the balance mutations the engine performs, together with
// the snapshot hooks that make a round atomic. Transfer returns the amount the
// recipient actually received so fee-on-transfer tokens are accounted for by
// realized, not nominal, amounts.
type TokenState interface {
	BalanceOf(symbol string, addr [20]byte) (*big.Int, error)
	Transfer(symbol string, from, to [20]byte, amount *big.Int) (*big.Int, error)
	Burn(symbol string, addr [20]byte, amount *big.Int) error
	Snapshot() int
	RevertToSnapshot(id int)
	DiscardSnapshot(id int)
}

// Market is the external automated-market-maker surface the router consumes.
// SwapExactIn returns the realized output credited to the trader, which may be
// below a prior Quote when a hop token taxes transfers.
type Market interface {
	Quote(amountIn *big.Int, path []string) (*big.Int, error)
	SwapExactIn(trader [20]byte, amountIn, minOut *big.Int, path []string, deadline time.Time) (*big.Int, error)
}

// Round stages used to label failures for metrics.
const (
	stageWiring       = "wiring"
	stageAuthorize    = "authorize"
	stageCooldown     = "cooldown"
	stagePlanning     = "planning"
	stageSecondaryLeg = "secondary_leg"
	stageAllocation   = "allocation"
	stageFee          = "fee"
	stageTargetLegA   = "target_leg_a"
	stageTargetLegB   = "target_leg_b"
	stageBurn         = "burn"
	stageCommit       = "commit"
)

// Engine is the buy-and-burn state machine. It accumulates the primary and
// secondary tokens at its own address, converts them into the two target
// tokens on a cooldown schedule, pays the invoking caller an incentive fee,
// and burns everything the swaps yielded. Every round is all-or-nothing: a
// failure at any stage reverts the clock stamp and all balance mutations.
type Engine struct {
	state   TokenState
	market  Market
	rounds  *Ledger
	emitter events.Emitter
	nowFn   func() time.Time

	addr         [20]byte
	tokens       Tokens
	cfg          Config
	owner        [20]byte
	pendingOwner [20]byte
	hasPending   bool
	whitelist    map[[20]byte]bool

	lastBuyBurn time.Time
	roundSeq    uint64
}

// RoundPreview is the read-only projection of the next round's allocation.
type RoundPreview struct {
	NeedsSecondaryConversion bool
	PrimaryAmount            *big.Int
	SecondaryAmount          *big.Int
	NextEligibleAt           time.Time
}

// NewEngine constructs an engine operating the supplied treasury address,
// owned by owner, over the given token wiring and configuration.
func NewEngine(addr, owner [20]byte, tokens Tokens, cfg Config) (*Engine, error) {
	normalised, err := tokens.Normalise()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		emitter:   events.NoopEmitter{},
		nowFn:     func() time.Time { return time.Now().UTC() },
		addr:      addr,
		tokens:    normalised,
		cfg:       cfg.Clone(),
		owner:     owner,
		whitelist: make(map[[20]byte]bool),
	}, nil
}

// SetState wires the engine to the token state backend.
func (e *Engine) SetState(state TokenState) { e.state = state }

// SetMarket wires the engine to the external market used for conversions.
func (e *Engine) SetMarket(market Market) { e.market = market }

// SetRoundLedger configures the optional persisted audit trail of rounds.
func (e *Engine) SetRoundLedger(ledger *Ledger) { e.rounds = ledger }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. Nil restores the default UTC clock.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if now == nil {
		e.nowFn = func() time.Time { return time.Now().UTC() }
		return
	}
	e.nowFn = now
}

// Address returns the engine's treasury address.
func (e *Engine) Address() [20]byte { return e.addr }

// Config returns a deep copy of the current configuration.
func (e *Engine) Config() Config { return e.cfg.Clone() }

// LastBuyBurn returns the timestamp of the last committed round.
func (e *Engine) LastBuyBurn() time.Time { return e.lastBuyBurn }

// BuyAndBurn executes one round: authorization, cooldown, planning, the
// conditional secondary-leg conversion, fee settlement, the two target-leg
// swaps, and the final burns. minTargetAOut and minTargetBOut guard the two
// target legs (zero disables the check); minPrimaryOut guards the secondary
// leg when it runs; deadline is passed through to every market call.
func (e *Engine) BuyAndBurn(caller [20]byte, minTargetAOut, minTargetBOut, minPrimaryOut *big.Int, deadline time.Time) error {
	if e.state == nil || e.market == nil {
		metrics.BuyBurn().RoundFailed(stageWiring)
		return fmt.Errorf("buyburn: engine not wired")
	}
	if !e.whitelist[caller] {
		metrics.BuyBurn().RoundFailed(stageAuthorize)
		return ErrUnauthorized
	}
	now := e.nowFn()
	if !e.lastBuyBurn.IsZero() && now.Before(e.lastBuyBurn.Add(e.cfg.Interval)) {
		metrics.BuyBurn().RoundFailed(stageCooldown)
		return fmt.Errorf("%w: eligible at %s", ErrTooSoon, e.lastBuyBurn.Add(e.cfg.Interval).UTC().Format(time.RFC3339))
	}

	// Arm the clock before executing; the snapshot below makes the whole
	// round one atomic unit, so a later failure rolls this back too.
	prevStamp := e.lastBuyBurn
	e.lastBuyBurn = now
	snap := e.state.Snapshot()

	record, stage, err := e.runRound(caller, now, minTargetAOut, minTargetBOut, minPrimaryOut, deadline)
	if err != nil {
		e.state.RevertToSnapshot(snap)
		e.lastBuyBurn = prevStamp
		metrics.BuyBurn().RoundFailed(stage)
		return err
	}
	e.state.DiscardSnapshot(snap)
	e.roundSeq = record.Seq
	m := metrics.BuyBurn()
	m.RoundCompleted()
	m.Burned(e.tokens.TargetA, record.TargetABurned)
	m.Burned(e.tokens.TargetB, record.TargetBBurned)
	m.FeePaid(record.FeePaid)
	e.emitter.Emit(events.BuyBurnRoundCompleted{})
	return nil
}

func (e *Engine) runRound(caller [20]byte, now time.Time, minTargetAOut, minTargetBOut, minPrimaryOut *big.Int, deadline time.Time) (*RoundRecord, string, error) {
	primaryBal, err := e.state.BalanceOf(e.tokens.Primary, e.addr)
	if err != nil {
		return nil, stagePlanning, err
	}
	secondaryBal, err := e.state.BalanceOf(e.tokens.Secondary, e.addr)
	if err != nil {
		return nil, stagePlanning, err
	}
	plan := planRound(primaryBal, secondaryBal, e.cfg.CapPerSwapPrimary, e.cfg.CapPerSwapSecondary)

	secondaryIn := big.NewInt(0)
	secondaryLegRan := false
	if plan.NeedsSecondaryConversion && plan.SecondaryToUse.Sign() > 0 {
		if _, err := e.market.SwapExactIn(e.addr, plan.SecondaryToUse, minPrimaryOut, e.tokens.SecondaryToPrimary, deadline); err != nil {
			return nil, stageSecondaryLeg, fmt.Errorf("buyburn: secondary conversion: %w", err)
		}
		secondaryIn = plan.SecondaryToUse
		secondaryLegRan = true
	}

	// The allocation decision uses the realized balance after the secondary
	// leg, never a pre-computed quote.
	usable, err := e.state.BalanceOf(e.tokens.Primary, e.addr)
	if err != nil {
		return nil, stageAllocation, err
	}
	alloc := plan.PrimaryToUse
	if secondaryLegRan {
		// The conversion is assumed to have filled the cap. When a taxed
		// transfer leaves the balance short, the target-leg swap below
		// fails rather than silently clamping the round.
		alloc = copyAmount(e.cfg.CapPerSwapPrimary)
	}
	if usable.Sign() == 0 || alloc.Sign() == 0 {
		return nil, stageAllocation, ErrNoAllocation
	}

	net, fee := settleFee(alloc, e.cfg.IncentiveFeeBps)
	if fee.Sign() > 0 {
		// The payment itself may be taxed by the primary token; the
		// shortfall is the caller's to bear.
		if _, err := e.state.Transfer(e.tokens.Primary, e.addr, caller, fee); err != nil {
			return nil, stageFee, fmt.Errorf("buyburn: incentive fee: %w", err)
		}
	}

	targetAAmount, targetBAmount := splitAllocation(net)
	if targetAAmount.Sign() > 0 {
		if _, err := e.market.SwapExactIn(e.addr, targetAAmount, minTargetAOut, e.tokens.PrimaryToTargetA, deadline); err != nil {
			return nil, stageTargetLegA, fmt.Errorf("buyburn: target A conversion: %w", err)
		}
	}
	if targetBAmount.Sign() > 0 {
		if _, err := e.market.SwapExactIn(e.addr, targetBAmount, minTargetBOut, e.tokens.PrimaryToTargetB, deadline); err != nil {
			return nil, stageTargetLegB, fmt.Errorf("buyburn: target B conversion: %w", err)
		}
	}

	burnedA, err := e.burnAll(e.tokens.TargetA)
	if err != nil {
		return nil, stageBurn, err
	}
	burnedB, err := e.burnAll(e.tokens.TargetB)
	if err != nil {
		return nil, stageBurn, err
	}

	record := &RoundRecord{
		Seq:           e.roundSeq + 1,
		Caller:        caller,
		ExecutedAt:    now.Unix(),
		PrimaryIn:     alloc,
		SecondaryIn:   secondaryIn,
		FeePaid:       fee,
		TargetABurned: burnedA,
		TargetBBurned: burnedB,
	}
	if e.rounds != nil {
		if err := e.rounds.Append(record); err != nil {
			return nil, stageCommit, fmt.Errorf("buyburn: record round: %w", err)
		}
	}
	return record, "", nil
}

// burnAll destroys the engine's entire balance of the token. Zero balance is a
// no-op.
func (e *Engine) burnAll(symbol string) (*big.Int, error) {
	balance, err := e.state.BalanceOf(symbol, e.addr)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return balance, nil
	}
	if err := e.state.Burn(symbol, e.addr, balance); err != nil {
		return nil, fmt.Errorf("buyburn: burn %s: %w", symbol, err)
	}
	return balance, nil
}

// RoundPreview projects the next round's allocation from current balances and
// configuration without mutating anything.
func (e *Engine) RoundPreview() (RoundPreview, error) {
	if e.state == nil {
		return RoundPreview{}, fmt.Errorf("buyburn: engine not wired")
	}
	primaryBal, err := e.state.BalanceOf(e.tokens.Primary, e.addr)
	if err != nil {
		return RoundPreview{}, err
	}
	secondaryBal, err := e.state.BalanceOf(e.tokens.Secondary, e.addr)
	if err != nil {
		return RoundPreview{}, err
	}
	plan := planRound(primaryBal, secondaryBal, e.cfg.CapPerSwapPrimary, e.cfg.CapPerSwapSecondary)
	preview := RoundPreview{
		NeedsSecondaryConversion: plan.NeedsSecondaryConversion,
		PrimaryAmount:            plan.PrimaryToUse,
		SecondaryAmount:          plan.SecondaryToUse,
	}
	if !e.lastBuyBurn.IsZero() {
		preview.NextEligibleAt = e.lastBuyBurn.Add(e.cfg.Interval)
	}
	return preview, nil
}
