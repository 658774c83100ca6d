package al2

import (
	"fmt"
	"log/slog"

	"github.com/arzzra/h324m/pkg/crc8"
)

// SenderStats счетчики исходящих PDU
type SenderStats struct {
	Queued    uint64
	Rejected  uint64
	Completed uint64
}

// Sender собирает исходящие PDU логического канала и держит их в очереди
// до подтверждения передачи подуровнем мультиплекса.
type Sender struct {
	useSN bool
	sn    byte
	opts  options

	frames fifo[SDU]
	stats  SenderStats
}

// NewSender создает отправитель AL2
func NewSender(useSN bool, opts ...Option) *Sender {
	o := defaultOptions("al2_sender")
	for _, opt := range opts {
		opt(&o)
	}
	return &Sender{
		useSN: useSN,
		opts:  o,
	}
}

// UseSN возвращает true, если канал использует порядковые номера
func (s *Sender) UseSN() bool {
	return s.useSN
}

// SendPDU собирает PDU [порядковый номер] + payload + CRC и ставит его в
// хвост очереди. При ошибке порядковый номер не расходуется.
func (s *Sender) SendPDU(payload []byte) error {
	if s.opts.maxSDUSize > 0 && len(payload) > s.opts.maxSDUSize {
		s.reject()
		return fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), s.opts.maxSDUSize)
	}
	if s.opts.maxQueue > 0 && s.frames.len() >= s.opts.maxQueue {
		s.reject()
		return fmt.Errorf("%w: %d PDU", ErrQueueFull, s.frames.len())
	}

	size := len(payload) + 1
	if s.useSN {
		size++
	}
	sdu := SDU{data: make([]byte, 0, size)}

	if s.useSN {
		sdu.Push(s.sn)
		s.sn++ // переполнение byte дает нужный перенос по модулю 256
	}
	sdu.PushBytes(payload)
	sdu.Push(crc8.Checksum(sdu.Bytes()))

	s.frames.push(sdu)
	s.stats.Queued++
	s.opts.metrics.queued(s.opts.channel, len(payload))

	s.opts.logger.Debug("AL2 PDU в очереди",
		slog.String("channel", s.opts.channel),
		slog.Int("len", sdu.Len()),
		slog.Int("queue", s.frames.len()))

	return nil
}

// PeekNextPDU возвращает PDU в голове очереди без удаления
func (s *Sender) PeekNextPDU() (SDU, bool) {
	return s.frames.front()
}

// OnPDUCompleted сообщает, что головной PDU полностью передан.
// На пустой очереди ничего не делает.
func (s *Sender) OnPDUCompleted() {
	if s.frames.len() == 0 {
		return
	}
	s.frames.pop()
	s.stats.Completed++
	s.opts.metrics.completed(s.opts.channel)
}

// Len возвращает количество PDU, ожидающих передачи
func (s *Sender) Len() int {
	return s.frames.len()
}

// NextSequenceNumber возвращает порядковый номер, который получит следующий PDU
func (s *Sender) NextSequenceNumber() byte {
	return s.sn
}

// Stats возвращает копию счетчиков
func (s *Sender) Stats() SenderStats {
	return s.stats
}

func (s *Sender) reject() {
	s.stats.Rejected++
	s.opts.metrics.rejected(s.opts.channel)
}
