package al2

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "h324m")

	tx := NewSender(false, WithMetrics(m, "audio"), WithMaxQueue(1))
	rx := NewReceiver(false, WithMetrics(m, "audio"))

	require.NoError(t, tx.SendPDU([]byte{1, 2, 3}))
	require.Error(t, tx.SendPDU([]byte{4}))

	pdu, _ := tx.PeekNextPDU()
	_, _ = rx.Write(pdu.Bytes())
	rx.OnClosingFlag()
	tx.OnPDUCompleted()

	_, _ = rx.Write([]byte{0x01, 0x02})
	rx.OnClosingFlag()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.pdusQueued.WithLabelValues("audio")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pdusRejected.WithLabelValues("audio")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pdusCompleted.WithLabelValues("audio")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.framesAccepted.WithLabelValues("audio")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.bytesReceived.WithLabelValues("audio")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.framesDiscarded.WithLabelValues("audio", string(DiscardCRC))))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.accepted("x", 1)
		m.discarded("x", DiscardShort)
		m.queued("x", 1)
		m.rejected("x")
		m.completed("x")
	})
}
