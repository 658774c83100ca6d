package gateway

import (
	"fmt"
	"log/slog"
	"time"
)

// DSCP значения для QoS согласно RFC 4594
const (
	DSCPExpeditedForwarding = 46 // EF для интерактивного аудио
	DSCPAssuredForwarding   = 34 // AF41 для видео
)

// Config параметры шлюза
type Config struct {
	// RTP payload types телефонной стороны
	AMRPayloadType      uint8 // AMR/8000, RFC 4867 octet-aligned
	H263PlusPayloadType uint8 // H263-1998/90000, RFC 4629
	H263PayloadType     uint8 // H263/90000, RFC 2190
	DTMFPayloadType     uint8 // telephone-event/8000, RFC 4733

	AudioClockRate uint32
	VideoClockRate uint32

	// AL2 логических каналов
	AudioUseSN bool
	VideoUseSN bool
	MaxQueue   int // предел очередей AL2 (0 - без ограничения)
	MaxSDUSize int // предел размера SDU (0 - без ограничения)

	// RTP нога
	MTU         int           // максимальный размер RTP пакета
	DSCP        int           // DSCP маркировка (0 - не устанавливать)
	RecvBuffer  int           // SO_RCVBUF (0 - системный)
	SendBuffer  int           // SO_SNDBUF (0 - системный)
	ReadTimeout time.Duration // шаг ожидания чтения сокета

	// Пользовательский ввод
	DTMFDuration time.Duration
	DTMFVolume   uint8 // -dBm0, 0..63

	// Цикл обработки
	PollInterval time.Duration // период опроса сессии

	SessionName      string
	MetricsNamespace string
	LogLevel         string // "debug", "info", "warn", "error"
}

// DefaultConfig возвращает конфигурацию по умолчанию:
// динамические payload types 96/97/101, статический 34 для H.263,
// порядковые номера AL2 только в видеоканале.
func DefaultConfig() Config {
	return Config{
		AMRPayloadType:      96,
		H263PlusPayloadType: 97,
		H263PayloadType:     34,
		DTMFPayloadType:     101,

		AudioClockRate: 8000,
		VideoClockRate: 90000,

		AudioUseSN: false,
		VideoUseSN: true,
		MaxQueue:   256,
		MaxSDUSize: 4096,

		MTU:         1500,
		DSCP:        DSCPExpeditedForwarding,
		RecvBuffer:  65535,
		SendBuffer:  65535,
		ReadTimeout: 100 * time.Millisecond,

		DTMFDuration: 100 * time.Millisecond,
		DTMFVolume:   10,

		PollInterval: 10 * time.Millisecond,

		SessionName:      "H.324M Gateway",
		MetricsNamespace: "h324m",
		LogLevel:         "info",
	}
}

// Validate проверяет корректность конфигурации
func (c Config) Validate() error {
	pts := map[uint8]string{}
	for _, pt := range []struct {
		name  string
		value uint8
	}{
		{"AMRPayloadType", c.AMRPayloadType},
		{"H263PlusPayloadType", c.H263PlusPayloadType},
		{"H263PayloadType", c.H263PayloadType},
		{"DTMFPayloadType", c.DTMFPayloadType},
	} {
		if pt.value > 127 {
			return fmt.Errorf("%s должен быть в диапазоне 0-127, получено %d", pt.name, pt.value)
		}
		if other, ok := pts[pt.value]; ok {
			return fmt.Errorf("%s совпадает с %s: %d", pt.name, other, pt.value)
		}
		pts[pt.value] = pt.name
	}

	if c.AudioClockRate == 0 || c.VideoClockRate == 0 {
		return fmt.Errorf("тактовая частота должна быть больше 0")
	}

	if c.MaxQueue < 0 {
		return fmt.Errorf("MaxQueue не может быть отрицательным")
	}
	if c.MaxSDUSize < 0 {
		return fmt.Errorf("MaxSDUSize не может быть отрицательным")
	}

	// RTP заголовок (12) и хотя бы один байт полезной нагрузки
	if c.MTU <= 12 {
		return fmt.Errorf("MTU слишком мал: %d", c.MTU)
	}
	if c.DSCP < 0 || c.DSCP > 63 {
		return fmt.Errorf("DSCP должен быть в диапазоне 0-63")
	}
	if c.RecvBuffer < 0 || c.SendBuffer < 0 {
		return fmt.Errorf("размер буфера сокета не может быть отрицательным")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("ReadTimeout должен быть больше 0")
	}

	if c.DTMFDuration <= 0 {
		return fmt.Errorf("DTMFDuration должна быть положительной")
	}
	if c.DTMFVolume > 63 {
		return fmt.Errorf("DTMFVolume должен быть в диапазоне 0-63")
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("PollInterval должен быть больше 0")
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// ParseLogLevel преобразует строковый уровень логирования в slog.Level.
// Пустая строка означает info.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("неизвестный уровень логирования %q: %w", s, err)
	}
	return level, nil
}
