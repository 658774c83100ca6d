package al2

import "errors"

var (
	// ErrQueueFull очередь исходящих PDU достигла настроенного предела
	ErrQueueFull = errors.New("al2: очередь PDU переполнена")

	// ErrPayloadTooLarge полезная нагрузка превышает максимальный размер SDU
	ErrPayloadTooLarge = errors.New("al2: полезная нагрузка превышает максимальный размер SDU")
)

// DiscardReason причина отбрасывания принятого фрагмента
type DiscardReason string

const (
	DiscardShort     DiscardReason = "short"
	DiscardCRC       DiscardReason = "crc"
	DiscardOversized DiscardReason = "oversized"
	DiscardQueueFull DiscardReason = "queue_full"
)
