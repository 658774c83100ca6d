// Package al2 реализует адаптационный уровень 2 (AL2) мультиплекса H.223.
//
// AL2 оформляет данные одного логического канала: необязательный однобайтовый
// порядковый номер, полезная нагрузка и завершающий байт CRC-8.
//
// # Компоненты
//
//   - SDU - владеющий байтовый буфер, единица обмена с подуровнем мультиплекса
//   - Receiver - накапливает октеты фрагмента между флагами и проверяет CRC
//   - Sender - собирает исходящие PDU с порядковым номером и CRC
//
// # Модель использования
//
// Подуровень мультиплекса вызывает Receiver.Feed для каждого октета канала и
// ровно один Receiver.OnClosingFlag на закрывающий флаг. Корректные фрагменты
// попадают в очередь, откуда их забирают PeekFrame/PopFrame:
//
//	rx := al2.NewReceiver(false)
//	for _, b := range fragment {
//	    rx.Feed(b)
//	}
//	rx.OnClosingFlag()
//	for sdu, ok := rx.PeekFrame(); ok; sdu, ok = rx.PeekFrame() {
//	    handle(sdu.Bytes())
//	    rx.PopFrame()
//	}
//
// Исходящая сторона симметрична: Sender.SendPDU ставит PDU в очередь,
// мультиплекс читает PeekNextPDU и по окончании передачи вызывает
// OnPDUCompleted.
//
// # Потокобезопасность
//
// Receiver и Sender принадлежат одной сессии и не защищены мьютексами.
// Все вызовы должны выполняться последовательно в порядке прихода октетов.
package al2
