package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// BuyBurnMetrics aggregates round-level counters for the buy-and-burn engine.
// Token amounts are exported as floats; precision loss is acceptable for
// monitoring, the round ledger keeps the exact values.
type BuyBurnMetrics struct {
	roundsCompleted prometheus.Counter
	roundsFailed    *prometheus.CounterVec
	burnedTotal     *prometheus.CounterVec
	feesPaidTotal   prometheus.Counter
}

var (
	buyBurnOnce     sync.Once
	buyBurnRegistry *BuyBurnMetrics
)

// BuyBurn returns the process-wide buy-and-burn metric set, registering it on
// first use.
func BuyBurn() *BuyBurnMetrics {
	buyBurnOnce.Do(func() {
		buyBurnRegistry = &BuyBurnMetrics{
			roundsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "buyburn_rounds_completed_total",
				Help: "Count of buy-and-burn rounds that committed.",
			}),
			roundsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "buyburn_rounds_failed_total",
				Help: "Count of failed round attempts by stage.",
			}, []string{"stage"}),
			burnedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "buyburn_burned_total",
				Help: "Cumulative tokens burned by symbol.",
			}, []string{"token"}),
			feesPaidTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "buyburn_fees_paid_total",
				Help: "Cumulative incentive fees paid to callers.",
			}),
		}
		prometheus.MustRegister(
			buyBurnRegistry.roundsCompleted,
			buyBurnRegistry.roundsFailed,
			buyBurnRegistry.burnedTotal,
			buyBurnRegistry.feesPaidTotal,
		)
	})
	return buyBurnRegistry
}

// RoundCompleted records one committed round.
func (m *BuyBurnMetrics) RoundCompleted() {
	m.roundsCompleted.Inc()
}

// RoundFailed records a failed round attempt at the given stage.
func (m *BuyBurnMetrics) RoundFailed(stage string) {
	m.roundsFailed.WithLabelValues(stage).Inc()
}

// Burned adds the burned amount for the token.
func (m *BuyBurnMetrics) Burned(token string, amount *big.Int) {
	m.burnedTotal.WithLabelValues(token).Add(amountToFloat(amount))
}

// FeePaid adds the incentive fee paid out of a round.
func (m *BuyBurnMetrics) FeePaid(amount *big.Int) {
	m.feesPaidTotal.Add(amountToFloat(amount))
}

func amountToFloat(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	return value
}
