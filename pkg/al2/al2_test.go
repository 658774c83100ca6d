package al2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/h324m/pkg/crc8"
)

// deliver передает головной PDU отправителя в приемник так, как это делает
// подуровень мультиплекса: по октету и закрывающий флаг
func deliver(t *testing.T, tx *Sender, rx *Receiver) bool {
	t.Helper()
	pdu, ok := tx.PeekNextPDU()
	require.True(t, ok, "очередь отправителя пуста")
	for _, b := range pdu.Bytes() {
		rx.Feed(b)
	}
	tx.OnPDUCompleted()
	return rx.OnClosingFlag()
}

func TestRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x00},
		{0x01, 0x02, 0x03},
		[]byte("AMR speech frame"),
		make([]byte, 300),
	}

	for _, useSN := range []bool{false, true} {
		for _, payload := range payloads {
			tx := NewSender(useSN)
			rx := NewReceiver(useSN)

			require.NoError(t, tx.SendPDU(payload))
			assert.True(t, deliver(t, tx, rx), "useSN=%v len=%d", useSN, len(payload))

			require.Equal(t, 1, rx.Len())
			sdu, ok := rx.PeekFrame()
			require.True(t, ok)
			assert.Equal(t, len(payload), sdu.Len())
			if len(payload) > 0 {
				assert.Equal(t, payload, sdu.Bytes())
			}
			assert.Equal(t, 0, rx.PopFrame())
		}
	}
}

func TestPDULayout(t *testing.T) {
	payload := []byte{0x10, 0x20, 0x30}

	t.Run("без порядкового номера", func(t *testing.T) {
		tx := NewSender(false)
		require.NoError(t, tx.SendPDU(payload))
		pdu, ok := tx.PeekNextPDU()
		require.True(t, ok)
		assert.Equal(t, []byte{0x10, 0x20, 0x30, crc8.Checksum(payload)}, pdu.Bytes())
	})

	t.Run("с порядковым номером", func(t *testing.T) {
		tx := NewSender(true)
		require.NoError(t, tx.SendPDU(payload))
		pdu, ok := tx.PeekNextPDU()
		require.True(t, ok)
		withSN := []byte{0x00, 0x10, 0x20, 0x30}
		assert.Equal(t, append(withSN, crc8.Checksum(withSN)), pdu.Bytes())
	})
}

func TestSingleBitCorruptionRejected(t *testing.T) {
	payload := []byte("video elementary unit")

	for _, useSN := range []bool{false, true} {
		tx := NewSender(useSN)
		require.NoError(t, tx.SendPDU(payload))
		pdu, _ := tx.PeekNextPDU()
		original := pdu.Clone().Bytes()

		rx := NewReceiver(useSN)
		for i := range original {
			for bit := 0; bit < 8; bit++ {
				corrupted := append([]byte{}, original...)
				corrupted[i] ^= 1 << bit
				_, _ = rx.Write(corrupted)
				assert.False(t, rx.OnClosingFlag(), "useSN=%v байт %d бит %d", useSN, i, bit)
				assert.Equal(t, 0, rx.Len())
				assert.Equal(t, 0, rx.Pending(), "буфер накопления должен очищаться")
			}
		}
		assert.Equal(t, uint64(len(original)*8), rx.Stats().CRCErrors)

		// Исходный PDU после серии ошибок по-прежнему принимается
		_, _ = rx.Write(original)
		assert.True(t, rx.OnClosingFlag())
		assert.Equal(t, 1, rx.Len())
	}
}

func TestSequenceNumbers(t *testing.T) {
	tx := NewSender(true)

	var prev byte
	for i := 0; i < 300; i++ {
		require.NoError(t, tx.SendPDU([]byte{byte(i)}))
		pdu, ok := tx.PeekNextPDU()
		require.True(t, ok)
		sn := pdu.Bytes()[0]
		if i > 0 {
			assert.Equal(t, prev+1, sn, "PDU %d", i)
		}
		prev = sn
		tx.OnPDUCompleted()
	}
	// 300 mod 256
	assert.Equal(t, byte(44), tx.NextSequenceNumber())
}

func TestSequenceNumberNotUsedWithoutSN(t *testing.T) {
	tx := NewSender(false)
	require.NoError(t, tx.SendPDU([]byte{0xAA}))
	require.NoError(t, tx.SendPDU([]byte{0xAA}))

	first, _ := tx.PeekNextPDU()
	firstBytes := first.Clone().Bytes()
	tx.OnPDUCompleted()
	second, _ := tx.PeekNextPDU()

	assert.Equal(t, firstBytes, second.Bytes())
	assert.Equal(t, byte(0), tx.NextSequenceNumber())
}

func TestReceiverShortFragments(t *testing.T) {
	tests := []struct {
		name     string
		useSN    bool
		fragment []byte
		accepted bool
	}{
		{"пустой фрагмент", false, nil, false},
		{"пустой фрагмент с SN", true, nil, false},
		{"только CRC", false, []byte{0x00}, true},
		{"один байт с SN", true, []byte{0x00}, false},
		{"SN и CRC", true, []byte{0x05, crc8.Checksum([]byte{0x05})}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rx := NewReceiver(tt.useSN)
			_, _ = rx.Write(tt.fragment)
			assert.Equal(t, tt.accepted, rx.OnClosingFlag())
			assert.Equal(t, 0, rx.Pending())
			if tt.accepted {
				sdu, ok := rx.PeekFrame()
				require.True(t, ok)
				assert.Equal(t, 0, sdu.Len())
			} else {
				assert.Equal(t, 0, rx.Len())
			}
		})
	}
}

func TestReceiverOrderAndDrain(t *testing.T) {
	tx := NewSender(true)
	rx := NewReceiver(true)

	for i := 0; i < 5; i++ {
		require.NoError(t, tx.SendPDU([]byte{byte(i), byte(i * 2)}))
	}
	for tx.Len() > 0 {
		deliver(t, tx, rx)
	}

	require.Equal(t, 5, rx.Len())
	for i := 0; i < 5; i++ {
		sdu, ok := rx.PeekFrame()
		require.True(t, ok)
		assert.Equal(t, []byte{byte(i), byte(i * 2)}, sdu.Bytes())
		assert.Equal(t, 4-i, rx.PopFrame())
	}

	_, ok := rx.PeekFrame()
	assert.False(t, ok)
	assert.Equal(t, 0, rx.PopFrame())
}

func TestPeekIsIdempotent(t *testing.T) {
	tx := NewSender(false)
	rx := NewReceiver(false)
	require.NoError(t, tx.SendPDU([]byte{1}))
	require.NoError(t, tx.SendPDU([]byte{2}))

	first, _ := tx.PeekNextPDU()
	for i := 0; i < 10; i++ {
		pdu, ok := tx.PeekNextPDU()
		require.True(t, ok)
		assert.Equal(t, first.Bytes(), pdu.Bytes())
		assert.Equal(t, 2, tx.Len())
	}

	deliver(t, tx, rx)
	deliver(t, tx, rx)
	front, _ := rx.PeekFrame()
	for i := 0; i < 10; i++ {
		sdu, ok := rx.PeekFrame()
		require.True(t, ok)
		assert.Equal(t, front.Bytes(), sdu.Bytes())
		assert.Equal(t, 2, rx.Len())
	}
}

func TestOnPDUCompletedOnEmptyQueue(t *testing.T) {
	tx := NewSender(false)
	assert.NotPanics(t, tx.OnPDUCompleted)
	assert.Equal(t, uint64(0), tx.Stats().Completed)
}

func TestSenderQueueLimit(t *testing.T) {
	tx := NewSender(true, WithMaxQueue(2))

	require.NoError(t, tx.SendPDU([]byte{1}))
	require.NoError(t, tx.SendPDU([]byte{2}))

	err := tx.SendPDU([]byte{3})
	require.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 2, tx.Len())
	// Отклоненный PDU не расходует порядковый номер
	assert.Equal(t, byte(2), tx.NextSequenceNumber())

	tx.OnPDUCompleted()
	require.NoError(t, tx.SendPDU([]byte{3}))

	stats := tx.Stats()
	assert.Equal(t, uint64(3), stats.Queued)
	assert.Equal(t, uint64(1), stats.Rejected)
	assert.Equal(t, uint64(1), stats.Completed)
}

func TestMaxSDUSize(t *testing.T) {
	tx := NewSender(false, WithMaxSDUSize(4))
	require.ErrorIs(t, tx.SendPDU(make([]byte, 5)), ErrPayloadTooLarge)
	require.NoError(t, tx.SendPDU(make([]byte, 4)))

	rx := NewReceiver(false, WithMaxSDUSize(4))
	pdu, _ := tx.PeekNextPDU()
	_, _ = rx.Write(pdu.Bytes())
	assert.True(t, rx.OnClosingFlag())

	big := make([]byte, 5)
	_, _ = rx.Write(append(big, crc8.Checksum(big)))
	assert.False(t, rx.OnClosingFlag())
	assert.Equal(t, uint64(1), rx.Stats().Oversized)
	assert.Equal(t, 0, rx.Pending())
}

func TestReceiverQueueLimit(t *testing.T) {
	rx := NewReceiver(false, WithMaxQueue(1))
	frag := []byte{0x01, crc8.Checksum([]byte{0x01})}

	_, _ = rx.Write(frag)
	assert.True(t, rx.OnClosingFlag())
	_, _ = rx.Write(frag)
	assert.False(t, rx.OnClosingFlag())

	assert.Equal(t, 1, rx.Len())
	assert.Equal(t, uint64(1), rx.Stats().Dropped)
}

func TestFifoCompaction(t *testing.T) {
	var q fifo[int]
	for i := 0; i < 100; i++ {
		q.push(i)
	}
	for i := 0; i < 70; i++ {
		v, ok := q.front()
		require.True(t, ok)
		require.Equal(t, i, v)
		q.pop()
	}
	assert.Equal(t, 30, q.len())
	v, _ := q.front()
	assert.Equal(t, 70, v)

	q.push(100)
	assert.Equal(t, 31, q.len())
}
