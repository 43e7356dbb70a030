package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the client shell's auth counters.
type Metrics struct {
	ExchangesTotal      *prometheus.CounterVec
	GuardDecisionsTotal *prometheus.CounterVec
	RefreshTicksTotal   *prometheus.CounterVec
	WhoAmICallsTotal    prometheus.Counter
}

// New registers the metrics against the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ExchangesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campuspass_auth_exchanges_total",
			Help: "Credential exchanges with the backend gateway by path and outcome",
		}, []string{"path", "outcome"}),
		GuardDecisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campuspass_guard_decisions_total",
			Help: "Route guard decisions by requirement and outcome",
		}, []string{"requirement", "decision"}),
		RefreshTicksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campuspass_session_refresh_ticks_total",
			Help: "Background session refresh attempts by outcome",
		}, []string{"outcome"}),
		WhoAmICallsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "campuspass_whoami_calls_total",
			Help: "Backend who-am-I calls actually issued after de-duplication",
		}),
	}
}

func (m *Metrics) ObserveExchange(path, outcome string) {
	m.ExchangesTotal.WithLabelValues(path, outcome).Inc()
}

func (m *Metrics) ObserveGuardDecision(requirement, decision string) {
	m.GuardDecisionsTotal.WithLabelValues(requirement, decision).Inc()
}

func (m *Metrics) ObserveRefreshTick(outcome string) {
	m.RefreshTicksTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveWhoAmICall() {
	m.WhoAmICallsTotal.Inc()
}
