package al2

import "log/slog"

// Option настраивает Receiver или Sender
type Option func(*options)

type options struct {
	logger     *slog.Logger
	metrics    *Metrics
	channel    string
	maxQueue   int
	maxSDUSize int
}

func defaultOptions(component string) options {
	return options{
		logger:  slog.Default().With(slog.String("component", component)),
		channel: "default",
	}
}

// WithLogger задает логгер вместо slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics подключает prometheus метрики с меткой логического канала
func WithMetrics(m *Metrics, channel string) Option {
	return func(o *options) {
		o.metrics = m
		if channel != "" {
			o.channel = channel
		}
	}
}

// WithMaxQueue ограничивает длину очереди (0 - без ограничений).
// Для Sender переполнение возвращается ошибкой ErrQueueFull,
// для Receiver новый фрейм отбрасывается.
func WithMaxQueue(n int) Option {
	return func(o *options) {
		o.maxQueue = n
	}
}

// WithMaxSDUSize ограничивает размер полезной нагрузки SDU (0 - без ограничений)
func WithMaxSDUSize(n int) Option {
	return func(o *options) {
		o.maxSDUSize = n
	}
}
