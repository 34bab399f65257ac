package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters/histograms for the messaging and contract flows.
type Metrics struct {
	webhookTotal      *prometheus.CounterVec
	outboundTotal     *prometheus.CounterVec
	webhookLatency    *prometheus.HistogramVec
	signaturesTotal   *prometheus.CounterVec
	broadcastJobTotal *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flow",
			Subsystem: "messaging",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound Evolution API webhooks",
		}, []string{"event_type", "status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flow",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Total outbound WhatsApp sends",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flow",
			Subsystem: "messaging",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of Evolution webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
		signaturesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flow",
			Subsystem: "contracts",
			Name:      "signatures_total",
			Help:      "Total captured contract signatures",
		}, []string{"signer_type"}),
		broadcastJobTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flow",
			Subsystem: "broadcast",
			Name:      "jobs_total",
			Help:      "Broadcast job outcomes",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.webhookTotal, m.outboundTotal, m.webhookLatency, m.signaturesTotal, m.broadcastJobTotal)
	return m
}

func (m *Metrics) ObserveWebhook(eventType, status string) {
	if m == nil {
		return
	}
	m.webhookTotal.WithLabelValues(eventType, status).Inc()
}

func (m *Metrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveWebhookLatency(eventType string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(eventType).Observe(seconds)
}

func (m *Metrics) ObserveSignature(signerType string) {
	if m == nil {
		return
	}
	m.signaturesTotal.WithLabelValues(signerType).Inc()
}

func (m *Metrics) ObserveBroadcastJob(outcome string) {
	if m == nil {
		return
	}
	m.broadcastJobTotal.WithLabelValues(outcome).Inc()
}
