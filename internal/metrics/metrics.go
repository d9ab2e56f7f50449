package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the terminal
type Metrics struct {
	PINChecks      *prometheus.CounterVec
	CardsRetained  prometheus.Counter
	Transactions   *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
	RetainedCards  prometheus.Gauge
}

// New creates and registers all metrics on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PINChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atm_pin_checks_total",
			Help: "Total number of PIN checks by outcome",
		}, []string{"outcome"}),
		CardsRetained: factory.NewCounter(prometheus.CounterOpts{
			Name: "atm_cards_retained_total",
			Help: "Total number of cards retained after repeated PIN failures",
		}),
		Transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atm_transactions_total",
			Help: "Total number of transactions by kind and status",
		}, []string{"kind", "status"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "atm_active_sessions",
			Help: "Current number of open terminal sessions",
		}),
		RetainedCards: factory.NewGauge(prometheus.GaugeOpts{
			Name: "atm_retained_cards",
			Help: "Current number of cards held by the terminal",
		}),
	}
}

func (m *Metrics) ObservePINCheck(outcome string) {
	m.PINChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementCardsRetained() {
	m.CardsRetained.Inc()
}

func (m *Metrics) ObserveTransaction(kind, status string) {
	m.Transactions.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

func (m *Metrics) SetRetainedCards(count int) {
	m.RetainedCards.Set(float64(count))
}
