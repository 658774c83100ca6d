package h324media

// Packetizer разбивает один телефонный фрейм на элементарные единицы.
// Это конечная последовательность без перезапуска: после исчерпания Next
// всегда возвращает false. Исходный фрейм не модифицируется.
type Packetizer struct {
	mediaType MediaType
	codec     Codec
	data      []byte

	// AMR: записи TOC и курсор по речевым данным
	toc    []byte
	offset int

	num int // выдано единиц
	max int // ожидается единиц
}

// NewPacketizer проверяет заголовки фрейма и подготавливает выдачу единиц.
// Некорректный фрейм отвергается целиком, ни одной единицы не выдается.
func NewPacketizer(f TelephonyFrame) (*Packetizer, error) {
	switch f.Type {
	case MediaAudio:
		if f.Format != FormatAMR {
			return nil, unsupported(f)
		}
		return newAMRPacketizer(f.Payload)
	case MediaVideo:
		switch f.Format {
		case FormatH263:
			return newH263Packetizer(f.Payload)
		case FormatH263Plus:
			return newH263PlusPacketizer(f.Payload)
		}
	}
	return nil, unsupported(f)
}

// Packetize возвращает все единицы фрейма
func Packetize(f TelephonyFrame) ([]Frame, error) {
	p, err := NewPacketizer(f)
	if err != nil {
		return nil, err
	}
	units := make([]Frame, 0, p.Count())
	for unit, ok := p.Next(); ok; unit, ok = p.Next() {
		units = append(units, unit)
	}
	return units, nil
}

// Count возвращает общее число единиц фрейма
func (p *Packetizer) Count() int {
	return p.max
}

// Remaining возвращает число еще не выданных единиц
func (p *Packetizer) Remaining() int {
	return p.max - p.num
}

// Next возвращает следующую элементарную единицу
func (p *Packetizer) Next() (Frame, bool) {
	if p.num >= p.max {
		return Frame{}, false
	}
	idx := p.num
	p.num++

	if p.mediaType == MediaVideo {
		return Frame{Type: MediaVideo, Codec: p.codec, Data: p.data}, true
	}

	// Единица AMR: восстановленный заголовок и речевые данные режима
	mode := amrMode(p.toc[idx])
	size := amrBlockSize[mode]
	unit := make([]byte, size+1)
	unit[0] = amrUnitHeader(mode)
	copy(unit[1:], p.data[p.offset:p.offset+size])
	p.offset += size

	return Frame{Type: MediaAudio, Codec: p.codec, Data: unit}, true
}

// newAMRPacketizer разбирает полезную нагрузку RFC 4867 octet-aligned:
// CMR, записи TOC до первой без бита F, затем речевые данные подряд
func newAMRPacketizer(payload []byte) (*Packetizer, error) {
	// Байт 0 - CMR, записи TOC начинаются с байта 1
	last := 1
	for last < len(payload) && payload[last]&amrFollowBit != 0 {
		last++
	}
	if last >= len(payload) {
		return nil, newMediaError(ErrorCodeTOCOverrun,
			map[string]interface{}{"length": len(payload)},
			"TOC AMR не завершен в пределах фрейма длиной %d", len(payload))
	}

	toc := make([]byte, last)
	copy(toc, payload[1:last+1])

	speech := payload[last+1:]
	total := 0
	for i, entry := range toc {
		mode := amrMode(entry)
		size, ok := AMRBlockSize(mode)
		if !ok {
			return nil, newMediaError(ErrorCodeInvalidAMRMode,
				map[string]interface{}{"entry": i, "mode": mode},
				"запись TOC %d: режим %d не используется", i, mode)
		}
		total += size
	}
	if total > len(speech) {
		return nil, newMediaError(ErrorCodeTruncated,
			map[string]interface{}{"expected": total, "actual": len(speech)},
			"речевые данные AMR: ожидалось %d байт, получено %d", total, len(speech))
	}

	return &Packetizer{
		mediaType: MediaAudio,
		codec:     CodecAMR,
		data:      speech,
		toc:       toc,
		max:       len(toc),
	}, nil
}

// newH263Packetizer отбрасывает заголовок RFC 2190 режима A
func newH263Packetizer(payload []byte) (*Packetizer, error) {
	if len(payload) < rfc2190HeaderLen {
		return nil, newMediaError(ErrorCodeTruncated,
			map[string]interface{}{"length": len(payload)},
			"заголовок RFC 2190 требует %d байта, получено %d", rfc2190HeaderLen, len(payload))
	}
	return &Packetizer{
		mediaType: MediaVideo,
		codec:     CodecH263,
		data:      cloneBytes(payload[rfc2190HeaderLen:]),
		max:       1,
	}, nil
}

// newH263PlusPacketizer разбирает заголовок RFC 4629 и при P=1
// восстанавливает нулевые байты стартового кода картинки
func newH263PlusPacketizer(payload []byte) (*Packetizer, error) {
	hdr, err := ParseH263PlusHeader(payload)
	if err != nil {
		return nil, err
	}
	skip := hdr.Len()
	if skip > len(payload) {
		return nil, newMediaError(ErrorCodeInvalidH263Header,
			map[string]interface{}{"header": skip, "length": len(payload), "plen": hdr.PLEN, "v": hdr.V},
			"заголовок H.263+ длиной %d превышает фрейм длиной %d", skip, len(payload))
	}

	body := payload[skip:]
	var unit []byte
	if hdr.P {
		unit = make([]byte, len(body)+2)
		copy(unit[2:], body)
	} else {
		unit = cloneBytes(body)
	}

	return &Packetizer{
		mediaType: MediaVideo,
		codec:     CodecH263,
		data:      unit,
		max:       1,
	}, nil
}

func unsupported(f TelephonyFrame) *MediaError {
	return newMediaError(ErrorCodeUnsupportedFormat,
		map[string]interface{}{"type": f.Type.String(), "format": f.Format.String()},
		"формат %s для %s не поддерживается", f.Format, f.Type)
}

func cloneBytes(p []byte) []byte {
	out := make([]byte, len(p))
	copy(out, p)
	return out
}
