package h324media

import (
	"errors"
	"fmt"
)

// MediaErrorCode типизированные коды ошибок разбора медиа заголовков
type MediaErrorCode int

const (
	ErrorCodeUnsupportedFormat MediaErrorCode = iota + 2000
	ErrorCodeCodecMismatch
	ErrorCodeTruncated
	ErrorCodeTOCOverrun
	ErrorCodeInvalidAMRMode
	ErrorCodeInvalidH263Header
)

// String возвращает строковое представление кода ошибки
func (code MediaErrorCode) String() string {
	switch code {
	case ErrorCodeUnsupportedFormat:
		return "UnsupportedFormat"
	case ErrorCodeCodecMismatch:
		return "CodecMismatch"
	case ErrorCodeTruncated:
		return "Truncated"
	case ErrorCodeTOCOverrun:
		return "TOCOverrun"
	case ErrorCodeInvalidAMRMode:
		return "InvalidAMRMode"
	case ErrorCodeInvalidH263Header:
		return "InvalidH263Header"
	default:
		return fmt.Sprintf("Unknown(%d)", int(code))
	}
}

// MediaError ошибка разбора или сборки медиа единицы.
// Сравнение через errors.Is выполняется по коду, поэтому переменные
// ErrXxx пакета можно использовать как эталоны.
type MediaError struct {
	Code    MediaErrorCode
	Message string
	Context map[string]interface{}
}

// Error реализует интерфейс error
func (e *MediaError) Error() string {
	return fmt.Sprintf("[h324media:%s] %s", e.Code, e.Message)
}

// Is поддерживает errors.Is, сравнивая ошибки по коду
func (e *MediaError) Is(target error) bool {
	if t, ok := target.(*MediaError); ok {
		return e.Code == t.Code
	}
	return false
}

// GetContext возвращает значение из контекста ошибки по ключу
func (e *MediaError) GetContext(key string) interface{} {
	if e.Context == nil {
		return nil
	}
	return e.Context[key]
}

var (
	ErrUnsupportedFormat = &MediaError{Code: ErrorCodeUnsupportedFormat, Message: "неподдерживаемый формат"}
	ErrCodecMismatch     = &MediaError{Code: ErrorCodeCodecMismatch, Message: "кодек не соответствует типу медиа"}
	ErrTruncated         = &MediaError{Code: ErrorCodeTruncated, Message: "фрейм обрезан"}
	ErrTOCOverrun        = &MediaError{Code: ErrorCodeTOCOverrun, Message: "TOC выходит за границу фрейма"}
	ErrInvalidAMRMode    = &MediaError{Code: ErrorCodeInvalidAMRMode, Message: "недопустимый режим AMR"}
	ErrInvalidH263Header = &MediaError{Code: ErrorCodeInvalidH263Header, Message: "некорректный заголовок H.263"}
)

func newMediaError(code MediaErrorCode, context map[string]interface{}, format string, args ...interface{}) *MediaError {
	return &MediaError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Context: context,
	}
}

// HasErrorCode проверяет, содержит ли цепочка ошибок указанный код
func HasErrorCode(err error, code MediaErrorCode) bool {
	var mediaErr *MediaError
	if errors.As(err, &mediaErr) {
		return mediaErr.Code == code
	}
	return false
}
