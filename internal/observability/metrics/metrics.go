package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics exposes counters/histograms for the message pipeline.
type BotMetrics struct {
	messagesTotal   *prometheus.CounterVec
	ordersExtracted prometheus.Counter
	ordersConfirmed prometheus.Counter
	sweepCycles     prometheus.Counter
	sweepDispatched prometheus.Counter
	llmLatency      *prometheus.HistogramVec
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordersbot",
			Subsystem: "conversation",
			Name:      "messages_total",
			Help:      "Inbound messages processed, by resulting action",
		}, []string{"action"}),
		ordersExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ordersbot",
			Subsystem: "conversation",
			Name:      "orders_extracted_total",
			Help:      "Order summaries sent for customer confirmation",
		}),
		ordersConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ordersbot",
			Subsystem: "conversation",
			Name:      "orders_confirmed_total",
			Help:      "Confirmed orders escalated to an account manager",
		}),
		sweepCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ordersbot",
			Subsystem: "sweep",
			Name:      "cycles_total",
			Help:      "Unattended-message sweep cycles completed",
		}),
		sweepDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ordersbot",
			Subsystem: "sweep",
			Name:      "dispatched_total",
			Help:      "Unattended messages re-entered through the pipeline",
		}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ordersbot",
			Subsystem: "llm",
			Name:      "request_seconds",
			Help:      "Latency of LLM completions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.messagesTotal, m.ordersExtracted, m.ordersConfirmed,
		m.sweepCycles, m.sweepDispatched, m.llmLatency,
	)
	return m
}

func (m *BotMetrics) ObserveMessage(action string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(action).Inc()
}

func (m *BotMetrics) ObserveOrderExtracted() {
	if m == nil {
		return
	}
	m.ordersExtracted.Inc()
}

func (m *BotMetrics) ObserveOrderConfirmed() {
	if m == nil {
		return
	}
	m.ordersConfirmed.Inc()
}

func (m *BotMetrics) ObserveSweepCycle(dispatched int) {
	if m == nil {
		return
	}
	m.sweepCycles.Inc()
	m.sweepDispatched.Add(float64(dispatched))
}

func (m *BotMetrics) ObserveLLMRequest(status string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(status).Observe(seconds)
}
