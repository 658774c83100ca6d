package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Направления потока через шлюз
const (
	DirectionToRTP  = "to_rtp"  // от сессии H.324M к телефонной стороне
	DirectionToH324 = "to_h324" // от телефонной стороны к сессии
)

// Metrics prometheus метрики шлюза. Nil *Metrics ничего не делает.
type Metrics struct {
	frames  *prometheus.CounterVec
	dropped *prometheus.CounterVec
	digits  *prometheus.CounterVec
	running prometheus.Gauge
}

// NewMetrics создает и регистрирует метрики шлюза в reg
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	const subsystem = "gateway"

	return &Metrics{
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_total",
			Help:      "Number of media frames forwarded by the gateway",
		}, []string{"direction", "media"}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_dropped_total",
			Help:      "Number of media frames dropped by the gateway",
		}, []string{"direction", "reason"}),
		digits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dtmf_digits_total",
			Help:      "Number of user input digits relayed as telephone-event",
		}, []string{"direction"}),
		running: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bridges_running",
			Help:      "Number of bridges in running state",
		}),
	}
}

func (m *Metrics) frame(direction, media string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(direction, media).Inc()
}

func (m *Metrics) drop(direction, reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(direction, reason).Inc()
}

func (m *Metrics) digit(direction string) {
	if m == nil {
		return
	}
	m.digits.WithLabelValues(direction).Inc()
}

func (m *Metrics) bridgeStarted() {
	if m == nil {
		return
	}
	m.running.Inc()
}

func (m *Metrics) bridgeStopped() {
	if m == nil {
		return
	}
	m.running.Dec()
}
