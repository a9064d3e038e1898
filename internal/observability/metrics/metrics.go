package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "nexuscrux"

// IntakeMetrics exposes counters/histograms for contact submissions.
type IntakeMetrics struct {
	submissionsTotal   *prometheus.CounterVec
	statusUpdatesTotal *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "Contact submissions by kind and outcome",
		}, []string{"kind", "outcome"}),
		statusUpdatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "status_updates_total",
			Help:      "Operator status changes by kind and new status",
		}, []string{"kind", "status"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "notifications_total",
			Help:      "Sales inbox notifications by kind and outcome",
		}, []string{"kind", "outcome"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "request_duration_seconds",
			Help:      "Latency of intake handlers",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.statusUpdatesTotal, m.notificationsTotal, m.requestLatency)
	return m
}

func (m *IntakeMetrics) ObserveSubmission(kind, outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *IntakeMetrics) ObserveStatusUpdate(kind, status string) {
	if m == nil {
		return
	}
	m.statusUpdatesTotal.WithLabelValues(kind, status).Inc()
}

func (m *IntakeMetrics) ObserveNotification(kind, outcome string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *IntakeMetrics) ObserveLatency(kind, operation string, seconds float64) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(kind, operation).Observe(seconds)
}

// SubscriptionMetrics tracks the Stripe signup bridge.
type SubscriptionMetrics struct {
	subscriptionsTotal  *prometheus.CounterVec
	mirrorFailuresTotal *prometheus.CounterVec
	processorLatency    *prometheus.HistogramVec
}

func NewSubscriptionMetrics(reg prometheus.Registerer) *SubscriptionMetrics {
	m := &SubscriptionMetrics{
		subscriptionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscriptions",
			Name:      "total",
			Help:      "Subscription signups by outcome",
		}, []string{"outcome"}),
		mirrorFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscriptions",
			Name:      "mirror_failures_total",
			Help:      "Local mirror writes that failed after Stripe succeeded",
		}, []string{"step"}),
		processorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "subscriptions",
			Name:      "processor_duration_seconds",
			Help:      "Latency of Stripe API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.subscriptionsTotal, m.mirrorFailuresTotal, m.processorLatency)
	return m
}

func (m *SubscriptionMetrics) ObserveSubscription(outcome string) {
	if m == nil {
		return
	}
	m.subscriptionsTotal.WithLabelValues(outcome).Inc()
}

func (m *SubscriptionMetrics) ObserveMirrorFailure(step string) {
	if m == nil {
		return
	}
	m.mirrorFailuresTotal.WithLabelValues(step).Inc()
}

func (m *SubscriptionMetrics) ObserveProcessorLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.processorLatency.WithLabelValues(operation).Observe(seconds)
}
