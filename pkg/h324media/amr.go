package h324media

const (
	// AMRSamplesPerFrame длительность одного речевого фрейма AMR (20 мс при 8 кГц)
	AMRSamplesPerFrame = 160

	// AMRCMRNoRequest байт CMR "без запроса смены режима"
	AMRCMRNoRequest = 0xF0

	// AMRModeSID режим комфортного шума
	AMRModeSID = 8

	amrFollowBit  = 0x80 // F: за записью TOC следует еще одна
	amrQualityBit = 0x04 // Q: фрейм не поврежден
	amrModeMask   = 0x78 // FT в байте TOC
)

// Длина речевых данных по режиму AMR; -1 для зарезервированных режимов
var amrBlockSize = [16]int{12, 13, 15, 17, 19, 20, 26, 31, 5, -1, -1, -1, -1, -1, -1, -1}

// AMRBlockSize возвращает длину речевых данных для режима mode.
// Для режимов 9-15 возвращает false.
func AMRBlockSize(mode uint8) (int, bool) {
	if mode > 15 {
		return 0, false
	}
	size := amrBlockSize[mode]
	return size, size >= 0
}

// amrMode извлекает FT из байта TOC или заголовка единицы
func amrMode(b byte) uint8 {
	return (b >> 3) & 0x0f
}

// amrUnitHeader байт заголовка элементарной единицы AMR: режим и Q=1
func amrUnitHeader(mode uint8) byte {
	return mode<<3 | amrQualityBit
}
