package gateway

import (
	"fmt"
	"log/slog"

	"github.com/arzzra/h324m/pkg/al2"
	"github.com/arzzra/h324m/pkg/h324media"
)

// loopbackChannel логический канал: отправитель и приемник AL2,
// соединенные напрямую вместо подуровня мультиплекса
type loopbackChannel struct {
	mediaType h324media.MediaType
	codec     h324media.Codec
	tx        *al2.Sender
	rx        *al2.Receiver
}

// pump передает все PDU из очереди отправителя в приемник октет за октетом
func (ch *loopbackChannel) pump() int {
	n := 0
	for pdu, ok := ch.tx.PeekNextPDU(); ok; pdu, ok = ch.tx.PeekNextPDU() {
		for _, b := range pdu.Bytes() {
			ch.rx.Feed(b)
		}
		ch.rx.OnClosingFlag()
		ch.tx.OnPDUCompleted()
		n++
	}
	return n
}

// LoopbackSession сессия H.324M внутри процесса: все отправленное
// возвращается обратно через AL2. Замыкаются оба канала, аудио и видео,
// а не только видео, как в тестовом шлюзе h324m_loopback стека H.324M.
// Не потокобезопасна.
type LoopbackSession struct {
	audio  *loopbackChannel
	video  *loopbackChannel
	input  []string
	logger *slog.Logger
}

// NewLoopbackSession создает сессию с каналами audio и video.
// metrics может быть nil.
func NewLoopbackSession(cfg Config, metrics *al2.Metrics, logger *slog.Logger) *LoopbackSession {
	if logger == nil {
		logger = slog.Default()
	}

	channel := func(name string, mediaType h324media.MediaType, codec h324media.Codec, useSN bool) *loopbackChannel {
		opts := []al2.Option{
			al2.WithLogger(logger.With(slog.String("component", "al2"))),
			al2.WithMetrics(metrics, name),
			al2.WithMaxQueue(cfg.MaxQueue),
			al2.WithMaxSDUSize(cfg.MaxSDUSize),
		}
		return &loopbackChannel{
			mediaType: mediaType,
			codec:     codec,
			tx:        al2.NewSender(useSN, opts...),
			rx:        al2.NewReceiver(useSN, opts...),
		}
	}

	return &LoopbackSession{
		audio:  channel("audio", h324media.MediaAudio, h324media.CodecAMR, cfg.AudioUseSN),
		video:  channel("video", h324media.MediaVideo, h324media.CodecH263, cfg.VideoUseSN),
		logger: logger.With(slog.String("component", "loopback_session")),
	}
}

// GetFrame возвращает принятую единицу; аудио обслуживается первым.
// Возвращаются единицы обоих каналов, включая AMR.
func (s *LoopbackSession) GetFrame() (h324media.Frame, bool) {
	for _, ch := range []*loopbackChannel{s.audio, s.video} {
		sdu, ok := ch.rx.PeekFrame()
		if !ok {
			continue
		}
		f := h324media.NewFrame(ch.mediaType, ch.codec, sdu.Bytes())
		ch.rx.PopFrame()
		return f, true
	}
	return h324media.Frame{}, false
}

// SendFrame ставит единицу в очередь отправителя канала ее типа
func (s *LoopbackSession) SendFrame(f h324media.Frame) error {
	ch, err := s.channel(f)
	if err != nil {
		return err
	}
	if err := ch.tx.SendPDU(f.Data); err != nil {
		return fmt.Errorf("канал %s: %w", f.Type, err)
	}
	return nil
}

// GetUserInput возвращает ранее отправленный ввод в порядке отправки
func (s *LoopbackSession) GetUserInput() (string, bool) {
	if len(s.input) == 0 {
		return "", false
	}
	input := s.input[0]
	s.input = s.input[1:]
	return input, true
}

// SendUserInput ставит ввод в очередь возврата
func (s *LoopbackSession) SendUserInput(input string) error {
	if input == "" {
		return fmt.Errorf("%w: пустая строка", ErrInvalidUserInput)
	}
	s.input = append(s.input, input)
	s.logger.Debug("пользовательский ввод", slog.String("input", input))
	return nil
}

// Pump выполняет роль подуровня мультиплекса: переносит все PDU
// отправителей в приемники. Возвращает число перенесенных PDU.
func (s *LoopbackSession) Pump() int {
	return s.audio.pump() + s.video.pump()
}

// Stats возвращает счетчики приемника и отправителя канала
func (s *LoopbackSession) Stats(mediaType h324media.MediaType) (al2.ReceiverStats, al2.SenderStats) {
	ch := s.audio
	if mediaType == h324media.MediaVideo {
		ch = s.video
	}
	return ch.rx.Stats(), ch.tx.Stats()
}

func (s *LoopbackSession) channel(f h324media.Frame) (*loopbackChannel, error) {
	var ch *loopbackChannel
	switch f.Type {
	case h324media.MediaAudio:
		ch = s.audio
	case h324media.MediaVideo:
		ch = s.video
	default:
		return nil, h324media.ErrUnsupportedFormat
	}
	if f.Codec != ch.codec {
		return nil, fmt.Errorf("%w: %s в канале %s", h324media.ErrCodecMismatch, f.Codec, f.Type)
	}
	return ch, nil
}
