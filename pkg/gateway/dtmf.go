package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/pion/rtp"
)

// DTMFDigit событие telephone-event RFC 4733 (0-15)
type DTMFDigit uint8

// dtmfSymbols символы событий 0-15 в порядке кодов RFC 4733
const dtmfSymbols = "0123456789*#ABCD"

func (d DTMFDigit) String() string {
	if int(d) < len(dtmfSymbols) {
		return dtmfSymbols[d : d+1]
	}
	return "?"
}

// ParseDTMFDigit преобразует символ в событие; строчные a-d допустимы
func ParseDTMFDigit(r rune) (DTMFDigit, bool) {
	i := strings.IndexRune(dtmfSymbols, r)
	if i < 0 && r >= 'a' && r <= 'd' {
		i = strings.IndexRune(dtmfSymbols, r-'a'+'A')
	}
	if i < 0 {
		return 0, false
	}
	return DTMFDigit(i), true
}

// ParseDTMFString преобразует пользовательский ввод в последовательность событий
func ParseDTMFString(s string) ([]DTMFDigit, error) {
	digits := make([]DTMFDigit, 0, len(s))
	for i, r := range s {
		d, ok := ParseDTMFDigit(r)
		if !ok {
			return nil, fmt.Errorf("%w: символ %q в позиции %d", ErrInvalidUserInput, r, i)
		}
		digits = append(digits, d)
	}
	return digits, nil
}

// DTMFEvent одно событие telephone-event
type DTMFEvent struct {
	Digit     DTMFDigit
	Duration  time.Duration
	Volume    uint8  // -dBm0, 0..63
	Timestamp uint32 // RTP timestamp начала события
}

// dtmfPayload полезная нагрузка RFC 4733:
//
//	 0                   1                   2                   3
//	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|     event     |E|R| volume    |          duration             |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
type dtmfPayload struct {
	event    uint8
	end      bool
	volume   uint8
	duration uint16
}

const dtmfPayloadLen = 4

func (p dtmfPayload) marshal() []byte {
	data := make([]byte, dtmfPayloadLen)
	data[0] = p.event
	if p.end {
		data[1] |= 0x80
	}
	data[1] |= p.volume & 0x3F
	data[2] = byte(p.duration >> 8)
	data[3] = byte(p.duration)
	return data
}

func unmarshalDTMFPayload(data []byte) (dtmfPayload, error) {
	if len(data) < dtmfPayloadLen {
		return dtmfPayload{}, fmt.Errorf("%w: telephone-event %d байт", ErrMalformedPacket, len(data))
	}
	return dtmfPayload{
		event:    data[0],
		end:      data[1]&0x80 != 0,
		volume:   data[1] & 0x3F,
		duration: uint16(data[2])<<8 | uint16(data[3]),
	}, nil
}

// dtmfClockRate частота telephone-event по умолчанию
const dtmfClockRate = 8000

// dtmfRepeats число повторов начальных и конечных пакетов события
const dtmfRepeats = 3

// DTMFSender формирует пакеты telephone-event на шкале времени аудио потока
type DTMFSender struct {
	payloadType uint8
	clockRate   uint32
	ssrc        uint32
	sequencer   rtp.Sequencer
}

// NewDTMFSender создает отправитель событий. ssrc совпадает с SSRC аудио
// потока, так как события передаются в той же RTP сессии.
func NewDTMFSender(payloadType uint8, clockRate uint32, ssrc uint32) *DTMFSender {
	if clockRate == 0 {
		clockRate = dtmfClockRate
	}
	return &DTMFSender{
		payloadType: payloadType,
		clockRate:   clockRate,
		ssrc:        ssrc,
		sequencer:   rtp.NewRandomSequencer(),
	}
}

// SetPayloadType меняет payload type исходящих событий
func (s *DTMFSender) SetPayloadType(pt uint8) {
	s.payloadType = pt
}

// GeneratePackets возвращает пакеты одного события: три начальных
// (маркер на первом) и три конечных с битом E
func (s *DTMFSender) GeneratePackets(event DTMFEvent) ([]*rtp.Packet, error) {
	if event.Duration <= 0 {
		return nil, fmt.Errorf("длительность DTMF должна быть положительной")
	}
	if event.Digit > 15 {
		return nil, fmt.Errorf("%w: событие %d", ErrInvalidUserInput, event.Digit)
	}

	samples := uint64(event.Duration.Seconds() * float64(s.clockRate))
	if samples > 0xFFFF {
		samples = 0xFFFF
	}
	payload := dtmfPayload{
		event:    uint8(event.Digit),
		volume:   min(event.Volume, 63),
		duration: uint16(samples),
	}

	packets := make([]*rtp.Packet, 0, 2*dtmfRepeats)
	for i := 0; i < 2*dtmfRepeats; i++ {
		payload.end = i >= dtmfRepeats
		packets = append(packets, &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         i == 0,
				PayloadType:    s.payloadType,
				SequenceNumber: s.sequencer.NextSequenceNumber(),
				Timestamp:      event.Timestamp,
				SSRC:           s.ssrc,
			},
			Payload: payload.marshal(),
		})
	}
	return packets, nil
}

// DTMFReceiver распознает события telephone-event. Callback вызывается
// один раз на новое событие, не дожидаясь его окончания.
type DTMFReceiver struct {
	payloadType uint8
	clockRate   uint32
	onDigit     func(DTMFEvent)

	seen      bool
	active    bool
	lastDigit DTMFDigit
	lastTS    uint32
}

// NewDTMFReceiver создает приемник событий
func NewDTMFReceiver(payloadType uint8, clockRate uint32) *DTMFReceiver {
	if clockRate == 0 {
		clockRate = dtmfClockRate
	}
	return &DTMFReceiver{
		payloadType: payloadType,
		clockRate:   clockRate,
	}
}

// SetCallback задает обработчик новых событий
func (r *DTMFReceiver) SetCallback(callback func(DTMFEvent)) {
	r.onDigit = callback
}

// Active возвращает true, пока текущее событие не завершено пакетом с битом E
func (r *DTMFReceiver) Active() bool {
	return r.active
}

// SetPayloadType меняет ожидаемый payload type
func (r *DTMFReceiver) SetPayloadType(pt uint8) {
	r.payloadType = pt
}

// ProcessPacket обрабатывает пакет. Возвращает false, если пакет не
// является telephone-event.
func (r *DTMFReceiver) ProcessPacket(packet *rtp.Packet) (bool, error) {
	if packet.PayloadType != r.payloadType {
		return false, nil
	}

	payload, err := unmarshalDTMFPayload(packet.Payload)
	if err != nil {
		return true, err
	}
	if payload.event > 15 {
		// События тонов и сигналов линии не относятся к пользовательскому вводу
		return true, nil
	}

	// Событие определяется кодом и меткой времени начала; повторы и
	// конечные пакеты того же события callback не вызывают
	digit := DTMFDigit(payload.event)
	if r.seen && r.lastDigit == digit && r.lastTS == packet.Timestamp {
		if payload.end {
			r.active = false
		}
		return true, nil
	}

	r.seen = true
	r.active = !payload.end
	r.lastDigit = digit
	r.lastTS = packet.Timestamp

	if r.onDigit != nil {
		r.onDigit(DTMFEvent{
			Digit:     digit,
			Duration:  time.Duration(payload.duration) * time.Second / time.Duration(r.clockRate),
			Volume:    payload.volume,
			Timestamp: packet.Timestamp,
		})
	}
	return true, nil
}
