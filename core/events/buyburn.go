package events

const (
	// TypeBuyBurnRoundCompleted is emitted once per successful buy-and-burn
	// round. It carries no payload; round details live in the round ledger.
	TypeBuyBurnRoundCompleted = "buyburn.round_completed"
	// TypeBuyBurnActivated is a reserved activation signal. No engine state
	// transition emits it in this version; it exists so downstream consumers
	// can subscribe ahead of the activation flow landing.
	TypeBuyBurnActivated = "buyburn.activated"
)

// BuyBurnRoundCompleted signals that a round ran to completion and committed.
type BuyBurnRoundCompleted struct{}

func (BuyBurnRoundCompleted) EventType() string { return TypeBuyBurnRoundCompleted }

// BuyBurnActivated is the reserved one-time activation signal.
type BuyBurnActivated struct{}

func (BuyBurnActivated) EventType() string { return TypeBuyBurnActivated }
