package h324media

const (
	// VideoSamplesPerTR число отсчетов на один шаг temporal reference
	VideoSamplesPerTR = 1000

	rfc2190HeaderLen = 4
)

// H263PlusHeader заголовок полезной нагрузки RFC 4629:
//
//	 0                   1
//	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|   RR    |P|V|   PLEN    |PEBIT|
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
type H263PlusHeader struct {
	P     bool  // начало картинки, два нулевых байта PSC опущены
	V     bool  // присутствует байт VRC
	PLEN  uint8 // длина дополнительного заголовка картинки
	PEBIT uint8
}

// ParseH263PlusHeader разбирает первые два байта полезной нагрузки
func ParseH263PlusHeader(data []byte) (H263PlusHeader, error) {
	if len(data) < 2 {
		return H263PlusHeader{}, newMediaError(ErrorCodeTruncated,
			map[string]interface{}{"length": len(data)},
			"заголовок H.263+ требует 2 байта, получено %d", len(data))
	}
	return H263PlusHeader{
		P:     data[0]&0x04 != 0,
		V:     data[0]&0x02 != 0,
		PLEN:  (data[0]&0x01)<<5 | data[1]>>3,
		PEBIT: data[1] & 0x07,
	}, nil
}

// Len возвращает полный размер заголовка вместе с VRC и extra header
func (h H263PlusHeader) Len() int {
	n := 2 + int(h.PLEN)
	if h.V {
		n++
	}
	return n
}

// IsPictureStart проверяет, начинается ли единица со стартового кода картинки
func IsPictureStart(unit []byte) bool {
	return len(unit) >= 2 && unit[0] == 0 && unit[1] == 0
}

// TemporalReference извлекает 8-битный TR из заголовка картинки H.263.
// После 22-битного PSC два младших бита третьего байта и шесть старших
// бит четвертого образуют TR.
func TemporalReference(unit []byte) (uint8, bool) {
	if len(unit) < 4 || !IsPictureStart(unit) {
		return 0, false
	}
	return (unit[2]&0x03)<<6 | unit[3]>>2, true
}
