package gateway

import "errors"

var (
	// ErrLegClosed нога закрыта
	ErrLegClosed = errors.New("gateway: RTP нога закрыта")

	// ErrNoRemoteAddr удаленный адрес ноги еще не известен
	ErrNoRemoteAddr = errors.New("gateway: удаленный адрес не установлен")

	// ErrMalformedPacket принятый пакет не является корректным RTP
	ErrMalformedPacket = errors.New("gateway: некорректный RTP пакет")

	// ErrUnknownPayloadType payload type не сопоставлен ни одному формату
	ErrUnknownPayloadType = errors.New("gateway: неизвестный payload type")

	// ErrInvalidUserInput пользовательский ввод содержит недопустимые символы
	ErrInvalidUserInput = errors.New("gateway: недопустимый пользовательский ввод")
)
