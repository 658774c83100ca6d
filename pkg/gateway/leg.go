package gateway

import (
	"context"

	"github.com/pion/rtp"
)

// Leg RTP нога телефонной стороны
type Leg interface {
	// ReadRTP блокируется до прихода пакета или отмены ctx.
	// Ошибка, обернутая в ErrMalformedPacket, не означает закрытия ноги.
	ReadRTP(ctx context.Context) (*rtp.Packet, error)

	// WriteRTP отправляет пакет удаленной стороне
	WriteRTP(packet *rtp.Packet) error

	Close() error
}
