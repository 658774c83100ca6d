package h324media

// VideoTimeReference состояние восстановления времени видео одной сессии:
// последний temporal reference и вычисленная длительность кадра в отсчетах
type VideoTimeReference struct {
	TR      uint8
	Samples uint32
}

// Update учитывает новый temporal reference и возвращает число отсчетов,
// прошедших с предыдущего кадра. Разность берется по модулю 256.
func (v *VideoTimeReference) Update(tr uint8) uint32 {
	v.Samples = uint32(tr-v.TR) * VideoSamplesPerTR
	v.TR = tr
	return v.Samples
}

// Depacketizer собирает телефонные фреймы из элементарных единиц
type Depacketizer struct {
	vtr *VideoTimeReference
}

// NewDepacketizer создает Depacketizer поверх состояния сессии vtr.
// При vtr == nil создается собственное состояние.
func NewDepacketizer(vtr *VideoTimeReference) *Depacketizer {
	if vtr == nil {
		vtr = &VideoTimeReference{}
	}
	return &Depacketizer{vtr: vtr}
}

// TimeReference возвращает состояние времени видео
func (d *Depacketizer) TimeReference() *VideoTimeReference {
	return d.vtr
}

// Depacketize превращает элементарную единицу в телефонный фрейм
func (d *Depacketizer) Depacketize(f Frame) (TelephonyFrame, error) {
	switch f.Type {
	case MediaAudio:
		return d.audio(f)
	case MediaVideo:
		return d.video(f)
	}
	return TelephonyFrame{}, newMediaError(ErrorCodeUnsupportedFormat,
		map[string]interface{}{"type": f.Type.String()},
		"тип медиа %s не поддерживается", f.Type)
}

// audio: [CMR, TOC, речевые данные]. Первый байт единицы - ее заголовок,
// из него берется режим для байта TOC.
func (d *Depacketizer) audio(f Frame) (TelephonyFrame, error) {
	if f.Codec != CodecAMR {
		return TelephonyFrame{}, codecMismatch(f)
	}
	if len(f.Data) == 0 {
		return TelephonyFrame{}, newMediaError(ErrorCodeTruncated, nil, "пустая единица AMR")
	}
	mode := amrMode(f.Data[0])
	if _, ok := AMRBlockSize(mode); !ok {
		return TelephonyFrame{}, newMediaError(ErrorCodeInvalidAMRMode,
			map[string]interface{}{"mode": mode},
			"режим AMR %d не используется", mode)
	}

	payload := make([]byte, len(f.Data)+1)
	payload[0] = AMRCMRNoRequest
	payload[1] = f.Data[0]&amrModeMask | amrQualityBit
	copy(payload[2:], f.Data[1:])

	return TelephonyFrame{
		Type:    MediaAudio,
		Format:  FormatAMR,
		Payload: payload,
		Samples: AMRSamplesPerFrame,
	}, nil
}

// video: полезная нагрузка RFC 4629. Начало картинки передается с P=1 без
// двух нулевых байт PSC и обновляет время; продолжение - с P=0.
func (d *Depacketizer) video(f Frame) (TelephonyFrame, error) {
	if f.Codec != CodecH263 {
		return TelephonyFrame{}, codecMismatch(f)
	}

	if IsPictureStart(f.Data) {
		tr, ok := TemporalReference(f.Data)
		if !ok {
			return TelephonyFrame{}, newMediaError(ErrorCodeTruncated,
				map[string]interface{}{"length": len(f.Data)},
				"заголовок картинки H.263 обрезан: %d байт", len(f.Data))
		}
		samples := d.vtr.Update(tr)

		payload := make([]byte, len(f.Data))
		payload[0] = 0x04
		copy(payload[2:], f.Data[2:])

		return TelephonyFrame{
			Type:    MediaVideo,
			Format:  FormatH263Plus,
			Payload: payload,
			Samples: samples,
			Marker:  true,
		}, nil
	}

	payload := make([]byte, len(f.Data)+2)
	copy(payload[2:], f.Data)

	return TelephonyFrame{
		Type:    MediaVideo,
		Format:  FormatH263Plus,
		Payload: payload,
		Samples: d.vtr.Samples,
	}, nil
}

func codecMismatch(f Frame) *MediaError {
	return newMediaError(ErrorCodeCodecMismatch,
		map[string]interface{}{"type": f.Type.String(), "codec": f.Codec.String()},
		"кодек %s недопустим для %s", f.Codec, f.Type)
}
