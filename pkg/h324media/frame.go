package h324media

import "fmt"

// MediaType тип медиа потока
type MediaType int

const (
	MediaAudio MediaType = iota + 1
	MediaVideo
)

func (t MediaType) String() string {
	switch t {
	case MediaAudio:
		return "audio"
	case MediaVideo:
		return "video"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Codec кодек элементарной единицы на стороне H.324M
type Codec int

const (
	CodecAMR Codec = iota + 1
	CodecH263
)

func (c Codec) String() string {
	switch c {
	case CodecAMR:
		return "AMR"
	case CodecH263:
		return "H263"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// Format формат полезной нагрузки на телефонной стороне
type Format int

const (
	FormatAMR      Format = iota + 1 // RFC 4867 octet-aligned
	FormatH263                       // RFC 2190
	FormatH263Plus                   // RFC 4629 (H263-1998)
)

func (f Format) String() string {
	switch f {
	case FormatAMR:
		return "AMR"
	case FormatH263:
		return "H263"
	case FormatH263Plus:
		return "H263-1998"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// Frame элементарная медиа единица, которую переносит AL2.
// Frame владеет своими байтами и не ссылается на память исходного фрейма.
type Frame struct {
	Type  MediaType
	Codec Codec
	Data  []byte
}

// NewFrame создает Frame с копией data
func NewFrame(mediaType MediaType, codec Codec, data []byte) Frame {
	buf := make([]byte, len(data))
	copy(buf, data)
	return Frame{Type: mediaType, Codec: codec, Data: buf}
}

// TelephonyFrame фрейм телефонной стороны шлюза
type TelephonyFrame struct {
	Type    MediaType
	Format  Format
	Payload []byte

	// Samples длительность фрейма в отсчетах тактовой частоты формата
	Samples uint32

	// Marker граница кадра (начало картинки для видео)
	Marker bool
}
