package gateway

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"github.com/pion/rtp"

	"github.com/arzzra/h324m/pkg/h324media"
)

// rtpStream состояние исходящего RTP потока одного типа медиа
type rtpStream struct {
	ssrc      uint32
	sequencer rtp.Sequencer
	timestamp uint32
	started   bool
}

func newRTPStream() *rtpStream {
	return &rtpStream{
		ssrc:      randomUint32(),
		sequencer: rtp.NewRandomSequencer(),
		timestamp: randomUint32(),
	}
}

// Framer преобразует телефонные фреймы в RTP пакеты и обратно.
// Время исходящих потоков продвигается на Samples каждого фрейма:
// для аудио после отправки, для видео в начале каждой картинки.
type Framer struct {
	cfg   Config
	audio *rtpStream
	video *rtpStream

	// последние принятые временные метки для вычисления Samples
	lastIn map[uint8]uint32
}

// NewFramer создает Framer со случайными SSRC, номерами и метками времени
func NewFramer(cfg Config) *Framer {
	return &Framer{
		cfg:    cfg,
		audio:  newRTPStream(),
		video:  newRTPStream(),
		lastIn: make(map[uint8]uint32),
	}
}

// SetConfig обновляет сопоставление payload types, например после ApplyAnswer
func (f *Framer) SetConfig(cfg Config) {
	f.cfg = cfg
}

// AudioSSRC возвращает SSRC исходящего аудио потока
func (f *Framer) AudioSSRC() uint32 {
	return f.audio.ssrc
}

// AudioTimestamp возвращает текущую метку времени аудио потока.
// События telephone-event используют шкалу времени аудио.
func (f *Framer) AudioTimestamp() uint32 {
	return f.audio.timestamp
}

// AdvanceAudio сдвигает время аудио потока на samples отсчетов
func (f *Framer) AdvanceAudio(samples uint32) {
	f.audio.timestamp += samples
}

// Marshal собирает RTP пакет из телефонного фрейма
func (f *Framer) Marshal(tf h324media.TelephonyFrame) (*rtp.Packet, error) {
	pt, err := f.payloadType(tf)
	if err != nil {
		return nil, err
	}

	stream := f.audio
	if tf.Type == h324media.MediaVideo {
		stream = f.video
		if tf.Marker && stream.started {
			stream.timestamp += tf.Samples
		}
	}
	stream.started = true

	packet := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         tf.Marker,
			PayloadType:    pt,
			SequenceNumber: stream.sequencer.NextSequenceNumber(),
			Timestamp:      stream.timestamp,
			SSRC:           stream.ssrc,
		},
		Payload: tf.Payload,
	}

	if tf.Type == h324media.MediaAudio {
		stream.timestamp += tf.Samples
	}

	if size := packet.MarshalSize(); size > f.cfg.MTU {
		return nil, fmt.Errorf("RTP пакет %d байт превышает MTU %d", size, f.cfg.MTU)
	}
	return packet, nil
}

// Unmarshal извлекает телефонный фрейм из RTP пакета. Samples равен
// разности меток времени с предыдущим пакетом того же payload type.
func (f *Framer) Unmarshal(packet *rtp.Packet) (h324media.TelephonyFrame, error) {
	tf := h324media.TelephonyFrame{
		Payload: packet.Payload,
		Marker:  packet.Marker,
	}

	switch packet.PayloadType {
	case f.cfg.AMRPayloadType:
		tf.Type, tf.Format = h324media.MediaAudio, h324media.FormatAMR
	case f.cfg.H263PlusPayloadType:
		tf.Type, tf.Format = h324media.MediaVideo, h324media.FormatH263Plus
	case f.cfg.H263PayloadType:
		tf.Type, tf.Format = h324media.MediaVideo, h324media.FormatH263
	default:
		return tf, fmt.Errorf("%w: %d", ErrUnknownPayloadType, packet.PayloadType)
	}

	if last, ok := f.lastIn[packet.PayloadType]; ok {
		tf.Samples = packet.Timestamp - last
	}
	f.lastIn[packet.PayloadType] = packet.Timestamp

	return tf, nil
}

func (f *Framer) payloadType(tf h324media.TelephonyFrame) (uint8, error) {
	switch {
	case tf.Type == h324media.MediaAudio && tf.Format == h324media.FormatAMR:
		return f.cfg.AMRPayloadType, nil
	case tf.Type == h324media.MediaVideo && tf.Format == h324media.FormatH263Plus:
		return f.cfg.H263PlusPayloadType, nil
	case tf.Type == h324media.MediaVideo && tf.Format == h324media.FormatH263:
		return f.cfg.H263PayloadType, nil
	}
	return 0, fmt.Errorf("%w: %s/%s", h324media.ErrUnsupportedFormat, tf.Type, tf.Format)
}

// randomUint32 берет 32 случайных бита из UUID версии 4
func randomUint32() uint32 {
	id := uuid.New()
	return binary.BigEndian.Uint32(id[:4])
}
