// Package h324media переупаковывает сжатые медиа данные между телефонной
// стороной шлюза (RTP полезные нагрузки AMR и H.263) и элементарными
// единицами, которые переносит адаптационный уровень H.223.
//
// Перекодирования и декодирования нет: пакет только разбирает и собирает
// заголовки полезных нагрузок.
//
// # Исходящее направление
//
// Packetizer разбивает один телефонный фрейм на элементарные единицы:
//
//   - AMR (RFC 4867, octet-aligned): по одной единице на запись TOC,
//     каждая единица начинается с восстановленного байта заголовка
//   - H.263 (RFC 2190, режим A): 4-байтовый заголовок отбрасывается
//   - H.263+ (RFC 4629): разбирается заголовок P|V|PLEN|PEBIT, при P=1
//     восстанавливаются два нулевых байта стартового кода картинки
//
// # Входящее направление
//
// Depacketizer собирает телефонный фрейм из элементарной единицы. Для видео
// длительность фрейма в отсчетах восстанавливается по temporal reference
// заголовка картинки H.263, поэтому состояние VideoTimeReference хранится
// отдельно для каждой сессии и обновляется строго в порядке прихода.
//
//	vtr := &h324media.VideoTimeReference{}
//	depak := h324media.NewDepacketizer(vtr)
//	tf, err := depak.Depacketize(unit)
//
// Типы пакета не потокобезопасны и принадлежат одной сессии.
package h324media
