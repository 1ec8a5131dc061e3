package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the bot collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	updates  *prometheus.CounterVec
	routes   *prometheus.CounterVec
	gate     *prometheus.CounterVec
	searches *prometheus.CounterVec
	fanout   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kinobot_updates_total",
			Help: "Incoming Telegram updates by kind.",
		}, []string{"kind"}),
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kinobot_routes_total",
			Help: "Handlers selected by the router.",
		}, []string{"route"}),
		gate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kinobot_gate_checks_total",
			Help: "Subscription gate checks by result.",
		}, []string{"result"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kinobot_searches_total",
			Help: "Catalog searches by result.",
		}, []string{"result"}),
		fanout: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kinobot_fanout_deliveries_total",
			Help: "Per-recipient fan-out deliveries.",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(m.updates, m.routes, m.gate, m.searches, m.fanout)
	return m
}

func (m *Metrics) Update(kind string) {
	if m != nil {
		m.updates.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) Route(name string) {
	if m != nil {
		m.routes.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) Gate(passed bool) {
	if m != nil {
		m.gate.WithLabelValues(result(passed, "subscribed", "blocked")).Inc()
	}
}

func (m *Metrics) Search(hit bool) {
	if m != nil {
		m.searches.WithLabelValues(result(hit, "hit", "miss")).Inc()
	}
}

func (m *Metrics) Delivery(kind string, ok bool) {
	if m != nil {
		m.fanout.WithLabelValues(kind, result(ok, "sent", "skipped")).Inc()
	}
}

func result(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
