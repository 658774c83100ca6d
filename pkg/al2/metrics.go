package al2

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics prometheus метрики адаптационного уровня.
// Один экземпляр разделяется всеми каналами сессии, каналы различаются меткой.
// Nil *Metrics допустим и ничего не делает.
type Metrics struct {
	framesAccepted  *prometheus.CounterVec
	framesDiscarded *prometheus.CounterVec
	pdusQueued      *prometheus.CounterVec
	pdusRejected    *prometheus.CounterVec
	pdusCompleted   *prometheus.CounterVec
	bytesReceived   *prometheus.CounterVec
	bytesSent       *prometheus.CounterVec
}

// NewMetrics создает и регистрирует метрики в reg.
// При reg == nil метрики создаются без регистрации.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	const subsystem = "al2"

	return &Metrics{
		framesAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_accepted_total",
			Help:      "Number of AL2 fragments that passed the CRC check",
		}, []string{"channel"}),
		framesDiscarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_discarded_total",
			Help:      "Number of AL2 fragments discarded by the receiver",
		}, []string{"channel", "reason"}),
		pdusQueued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pdus_queued_total",
			Help:      "Number of AL2 PDUs queued for transmission",
		}, []string{"channel"}),
		pdusRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pdus_rejected_total",
			Help:      "Number of AL2 PDUs rejected by the sender",
		}, []string{"channel"}),
		pdusCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pdus_completed_total",
			Help:      "Number of AL2 PDUs fully transmitted by the multiplex",
		}, []string{"channel"}),
		bytesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "payload_bytes_received_total",
			Help:      "Payload bytes of accepted AL2 fragments",
		}, []string{"channel"}),
		bytesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "payload_bytes_sent_total",
			Help:      "Payload bytes of queued AL2 PDUs",
		}, []string{"channel"}),
	}
}

func (m *Metrics) accepted(channel string, payload int) {
	if m == nil {
		return
	}
	m.framesAccepted.WithLabelValues(channel).Inc()
	m.bytesReceived.WithLabelValues(channel).Add(float64(payload))
}

func (m *Metrics) discarded(channel string, reason DiscardReason) {
	if m == nil {
		return
	}
	m.framesDiscarded.WithLabelValues(channel, string(reason)).Inc()
}

func (m *Metrics) queued(channel string, payload int) {
	if m == nil {
		return
	}
	m.pdusQueued.WithLabelValues(channel).Inc()
	m.bytesSent.WithLabelValues(channel).Add(float64(payload))
}

func (m *Metrics) rejected(channel string) {
	if m == nil {
		return
	}
	m.pdusRejected.WithLabelValues(channel).Inc()
}

func (m *Metrics) completed(channel string) {
	if m == nil {
		return
	}
	m.pdusCompleted.WithLabelValues(channel).Inc()
}
