package al2

import (
	"log/slog"

	"github.com/arzzra/h324m/pkg/crc8"
)

// ReceiverStats счетчики принятых и отброшенных фрагментов
type ReceiverStats struct {
	Accepted  uint64
	CRCErrors uint64
	Short     uint64
	Oversized uint64
	Dropped   uint64 // отброшены из-за переполнения очереди
}

// Receiver принимает октеты одного логического канала и превращает
// фрагменты между флагами в проверенные SDU.
type Receiver struct {
	useSN bool
	opts  options

	sdu      SDU // буфер накопления текущего фрагмента
	overflow bool
	frames   fifo[SDU]
	stats    ReceiverStats
}

// NewReceiver создает приемник AL2. useSN определяет, содержит ли каждый
// фрагмент однобайтовый порядковый номер перед полезной нагрузкой.
func NewReceiver(useSN bool, opts ...Option) *Receiver {
	o := defaultOptions("al2_receiver")
	for _, opt := range opts {
		opt(&o)
	}
	return &Receiver{
		useSN: useSN,
		opts:  o,
	}
}

// UseSN возвращает true, если канал использует порядковые номера
func (r *Receiver) UseSN() bool {
	return r.useSN
}

// Feed добавляет один октет фрагмента. Проверки не выполняются.
func (r *Receiver) Feed(b byte) {
	if r.opts.maxSDUSize > 0 && r.sdu.Len() >= r.opts.maxSDUSize+r.overhead() {
		// Дальше не копим, фрагмент будет отброшен на флаге
		r.overflow = true
		return
	}
	r.sdu.Push(b)
}

// Write добавляет последовательность октетов, эквивалентно Feed для каждого.
// Всегда возвращает len(p), nil.
func (r *Receiver) Write(p []byte) (int, error) {
	for _, b := range p {
		r.Feed(b)
	}
	return len(p), nil
}

// OnClosingFlag завершает текущий фрагмент: проверяет CRC и при успехе
// ставит SDU без порядкового номера и CRC в очередь.
// Буфер накопления очищается в любом случае. Возвращает true, если фрейм принят.
func (r *Receiver) OnClosingFlag() bool {
	defer r.reset()

	data := r.sdu.Bytes()
	n := len(data)

	if r.overflow {
		r.discard(DiscardOversized, n)
		return false
	}

	// Должно хватать на порядковый номер и CRC
	if n < r.overhead() {
		r.discard(DiscardShort, n)
		return false
	}

	// CRC считается по всем байтам кроме последнего и сравнивается с последним
	if crc8.Checksum(data[:n-1]) != data[n-1] {
		r.discard(DiscardCRC, n)
		return false
	}

	if r.opts.maxQueue > 0 && r.frames.len() >= r.opts.maxQueue {
		r.discard(DiscardQueueFull, n)
		return false
	}

	start := 0
	if r.useSN {
		start = 1
	}
	frame := NewSDU(data[start : n-1])
	r.frames.push(frame)
	r.stats.Accepted++
	r.opts.metrics.accepted(r.opts.channel, frame.Len())

	r.opts.logger.Debug("AL2 фрейм принят",
		slog.String("channel", r.opts.channel),
		slog.Int("len", frame.Len()),
		slog.Int("queue", r.frames.len()))

	return true
}

// PeekFrame возвращает первый SDU очереди без удаления
func (r *Receiver) PeekFrame() (SDU, bool) {
	return r.frames.front()
}

// PopFrame удаляет первый SDU и возвращает новую длину очереди (0 - пусто)
func (r *Receiver) PopFrame() int {
	return r.frames.pop()
}

// Len возвращает количество SDU в очереди
func (r *Receiver) Len() int {
	return r.frames.len()
}

// Pending возвращает количество октетов текущего незавершенного фрагмента
func (r *Receiver) Pending() int {
	return r.sdu.Len()
}

// Stats возвращает копию счетчиков
func (r *Receiver) Stats() ReceiverStats {
	return r.stats
}

func (r *Receiver) overhead() int {
	if r.useSN {
		return 2
	}
	return 1
}

func (r *Receiver) discard(reason DiscardReason, n int) {
	switch reason {
	case DiscardShort:
		r.stats.Short++
	case DiscardCRC:
		r.stats.CRCErrors++
	case DiscardOversized:
		r.stats.Oversized++
	case DiscardQueueFull:
		r.stats.Dropped++
	}
	r.opts.metrics.discarded(r.opts.channel, reason)

	r.opts.logger.Debug("AL2 фрагмент отброшен",
		slog.String("channel", r.opts.channel),
		slog.String("reason", string(reason)),
		slog.Int("len", n))
}

func (r *Receiver) reset() {
	r.sdu.Clean()
	r.overflow = false
}
