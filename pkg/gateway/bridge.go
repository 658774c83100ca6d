package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/pion/rtp"
	"github.com/pion/sdp/v3"
	"golang.org/x/sync/errgroup"

	"github.com/arzzra/h324m/pkg/h324media"
)

// Состояния Bridge
const (
	StateIdle    = "idle"
	StateRunning = "running"
	StateStopped = "stopped"
)

const (
	eventStart = "start"
	eventStop  = "stop"
)

// inboundPacket пакет, прочитанный из ноги
type inboundPacket struct {
	packet *rtp.Packet
	leg    Leg
}

// BridgeOption настраивает Bridge
type BridgeOption func(*Bridge)

// WithBridgeLogger задает логгер
func WithBridgeLogger(logger *slog.Logger) BridgeOption {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBridgeMetrics подключает метрики шлюза
func WithBridgeMetrics(m *Metrics) BridgeOption {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// WithVideoLeg выделяет видео в отдельную ногу. По умолчанию аудио,
// видео и telephone-event разделяют одну ногу и различаются payload type.
func WithVideoLeg(leg Leg) BridgeOption {
	return func(b *Bridge) {
		b.videoLeg = leg
	}
}

// Bridge переносит медиа и пользовательский ввод между сессией H.324M
// и RTP ногой. Сессия, депакетизатор и состояние времени видео
// используются только из горутины обработки.
type Bridge struct {
	id   string
	cfg  Config
	base Config // конфигурация из NewBridge, основа для SDP ответов

	session  Session
	audioLeg Leg
	videoLeg Leg

	framer *Framer
	depack *h324media.Depacketizer
	dtmfTx *DTMFSender
	dtmfRx *DTMFReceiver

	logger  *slog.Logger
	metrics *Metrics

	state *fsm.FSM

	stopOnce sync.Once
	stopCh   chan struct{}

	reconfigMu sync.Mutex
	reconfig   chan Config
}

// NewBridge создает Bridge в состоянии idle
func NewBridge(cfg Config, session Session, leg Leg, opts ...BridgeOption) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация: %w", err)
	}
	if session == nil || leg == nil {
		return nil, fmt.Errorf("сессия и нога обязательны")
	}

	b := &Bridge{
		id:       uuid.NewString(),
		cfg:      cfg,
		base:     cfg,
		session:  session,
		audioLeg: leg,
		framer:   NewFramer(cfg),
		depack:   h324media.NewDepacketizer(nil),
		logger:   slog.Default(),
		stopCh:   make(chan struct{}),
		reconfig: make(chan Config, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(slog.String("component", "bridge"), slog.String("bridge_id", b.id))

	b.dtmfTx = NewDTMFSender(cfg.DTMFPayloadType, cfg.AudioClockRate, b.framer.AudioSSRC())
	b.dtmfRx = NewDTMFReceiver(cfg.DTMFPayloadType, cfg.AudioClockRate)
	b.dtmfRx.SetCallback(b.onDigit)

	b.state = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventStart, Src: []string{StateIdle}, Dst: StateRunning},
			{Name: eventStop, Src: []string{StateIdle, StateRunning}, Dst: StateStopped},
		},
		fsm.Callbacks{
			"enter_" + StateRunning: func(ctx context.Context, e *fsm.Event) {
				b.metrics.bridgeStarted()
				b.logger.Info("мост запущен")
			},
			"leave_" + StateRunning: func(ctx context.Context, e *fsm.Event) {
				b.metrics.bridgeStopped()
			},
			"enter_" + StateStopped: func(ctx context.Context, e *fsm.Event) {
				b.logger.Info("мост остановлен", slog.String("from", e.Src))
			},
		},
	)

	return b, nil
}

// ID возвращает идентификатор моста
func (b *Bridge) ID() string {
	return b.id
}

// State возвращает текущее состояние: idle, running или stopped
func (b *Bridge) State() string {
	return b.state.Current()
}

// Run запускает чтение ноги и цикл обработки и блокируется до Stop,
// отмены ctx или ошибки ноги. Мост запускается один раз.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.state.Event(ctx, eventStart); err != nil {
		return fmt.Errorf("запуск моста в состоянии %s: %w", b.State(), err)
	}
	defer b.state.Event(context.Background(), eventStop)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	packets := make(chan inboundPacket, 64)

	for _, leg := range b.legs() {
		leg := leg
		g.Go(func() error {
			return b.readLoop(gctx, leg, packets)
		})
	}
	g.Go(func() error {
		// Завершение цикла обработки останавливает чтение
		defer cancel()
		return b.processLoop(gctx, packets)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop останавливает работающий мост; мост в состоянии idle сразу
// переходит в stopped. Повторный вызов ничего не делает.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
		if b.state.Is(StateIdle) {
			b.state.Event(context.Background(), eventStop)
		}
	})
}

// ApplyAnswer сопоставляет payload types по SDP ответу удаленной стороны.
// Допускается в любом состоянии; работающий мост применяет новые
// значения в цикле обработки, idle мост при запуске. Адреса ног не
// меняются, их задает вызывающий по MediaAddr.
func (b *Bridge) ApplyAnswer(answer *sdp.SessionDescription) error {
	cfg, err := ApplyAnswer(b.base, answer)
	if err != nil {
		return err
	}

	b.reconfigMu.Lock()
	defer b.reconfigMu.Unlock()

	// Непримененный предыдущий ответ заменяется
	select {
	case <-b.reconfig:
	default:
	}
	b.reconfig <- cfg
	return nil
}

// applyConfig вызывается только из цикла обработки
func (b *Bridge) applyConfig(cfg Config) {
	b.cfg = cfg
	b.framer.SetConfig(cfg)
	b.dtmfTx.SetPayloadType(cfg.DTMFPayloadType)
	b.dtmfRx.SetPayloadType(cfg.DTMFPayloadType)

	b.logger.Info("payload types обновлены по SDP ответу",
		slog.Int("amr", int(cfg.AMRPayloadType)),
		slog.Int("h263plus", int(cfg.H263PlusPayloadType)),
		slog.Int("h263", int(cfg.H263PayloadType)),
		slog.Int("dtmf", int(cfg.DTMFPayloadType)))
}

func (b *Bridge) legs() []Leg {
	if b.videoLeg == nil || b.videoLeg == b.audioLeg {
		return []Leg{b.audioLeg}
	}
	return []Leg{b.audioLeg, b.videoLeg}
}

func (b *Bridge) legFor(mediaType h324media.MediaType) Leg {
	if mediaType == h324media.MediaVideo && b.videoLeg != nil {
		return b.videoLeg
	}
	return b.audioLeg
}

// readLoop единственная горутина, обращающаяся к ноге на чтение
func (b *Bridge) readLoop(ctx context.Context, leg Leg, out chan<- inboundPacket) error {
	for {
		packet, err := leg.ReadRTP(ctx)
		if err != nil {
			if errors.Is(err, ErrMalformedPacket) {
				b.metrics.drop(DirectionToH324, "malformed_rtp")
				b.logger.Debug("некорректный RTP пакет", slog.String("error", err.Error()))
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("чтение RTP: %w", err)
		}

		select {
		case out <- inboundPacket{packet: packet, leg: leg}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// processLoop единственный владелец сессии и объектов ядра
func (b *Bridge) processLoop(ctx context.Context, packets <-chan inboundPacket) error {
	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	// Ответ, принятый до запуска, действует с первого пакета
	select {
	case cfg := <-b.reconfig:
		b.applyConfig(cfg)
	default:
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.stopCh:
			return nil
		case cfg := <-b.reconfig:
			b.applyConfig(cfg)
		case in := <-packets:
			b.handleRTP(in.packet)
		case <-ticker.C:
			b.pollSession()
		}
	}
}

// handleRTP направляет пакет телефонной стороны в сессию
func (b *Bridge) handleRTP(packet *rtp.Packet) {
	if ok, err := b.dtmfRx.ProcessPacket(packet); ok {
		if err != nil {
			b.metrics.drop(DirectionToH324, "malformed_dtmf")
			b.logger.Debug("некорректный telephone-event", slog.String("error", err.Error()))
		}
		return
	}

	tf, err := b.framer.Unmarshal(packet)
	if err != nil {
		b.metrics.drop(DirectionToH324, "payload_type")
		b.logger.Debug("пакет отброшен",
			slog.Int("payload_type", int(packet.PayloadType)),
			slog.String("error", err.Error()))
		return
	}

	units, err := h324media.Packetize(tf)
	if err != nil {
		b.metrics.drop(DirectionToH324, dropReason(err))
		b.logger.Debug("фрейм не пакетизирован",
			slog.String("media", tf.Type.String()),
			slog.String("format", tf.Format.String()),
			slog.String("error", err.Error()))
		return
	}

	for _, unit := range units {
		if err := b.session.SendFrame(unit); err != nil {
			b.metrics.drop(DirectionToH324, "session")
			b.logger.Warn("единица не передана в сессию",
				slog.String("media", unit.Type.String()),
				slog.String("error", err.Error()))
			continue
		}
		b.metrics.frame(DirectionToH324, unit.Type.String())
	}
}

// pollSession забирает из сессии единицы и пользовательский ввод
func (b *Bridge) pollSession() {
	if p, ok := b.session.(Pumper); ok {
		p.Pump()
	}

	for f, ok := b.session.GetFrame(); ok; f, ok = b.session.GetFrame() {
		b.forwardFrame(f)
	}

	for input, ok := b.session.GetUserInput(); ok; input, ok = b.session.GetUserInput() {
		b.forwardUserInput(input)
	}
}

func (b *Bridge) forwardFrame(f h324media.Frame) {
	tf, err := b.depack.Depacketize(f)
	if err != nil {
		b.metrics.drop(DirectionToRTP, dropReason(err))
		b.logger.Debug("единица не депакетизирована",
			slog.String("media", f.Type.String()),
			slog.String("error", err.Error()))
		return
	}

	packet, err := b.framer.Marshal(tf)
	if err != nil {
		b.metrics.drop(DirectionToRTP, "framer")
		b.logger.Debug("RTP пакет не собран", slog.String("error", err.Error()))
		return
	}

	if err := b.legFor(tf.Type).WriteRTP(packet); err != nil {
		b.metrics.drop(DirectionToRTP, "write")
		b.logger.Warn("ошибка отправки RTP", slog.String("error", err.Error()))
		return
	}
	b.metrics.frame(DirectionToRTP, tf.Type.String())
}

func (b *Bridge) forwardUserInput(input string) {
	digits, err := ParseDTMFString(input)
	if err != nil {
		b.metrics.drop(DirectionToRTP, "user_input")
		b.logger.Warn("пользовательский ввод отброшен", slog.String("error", err.Error()))
		return
	}

	samples := uint32(b.cfg.DTMFDuration.Seconds() * float64(b.cfg.AudioClockRate))
	for _, digit := range digits {
		packets, err := b.dtmfTx.GeneratePackets(DTMFEvent{
			Digit:     digit,
			Duration:  b.cfg.DTMFDuration,
			Volume:    b.cfg.DTMFVolume,
			Timestamp: b.framer.AudioTimestamp(),
		})
		if err != nil {
			b.logger.Warn("пакеты DTMF не созданы", slog.String("error", err.Error()))
			continue
		}
		// Следующее событие начинается после окончания текущего
		b.framer.AdvanceAudio(samples)

		for _, packet := range packets {
			if err := b.audioLeg.WriteRTP(packet); err != nil {
				b.metrics.drop(DirectionToRTP, "write")
				b.logger.Warn("ошибка отправки DTMF", slog.String("error", err.Error()))
				break
			}
		}
		b.metrics.digit(DirectionToRTP)
		b.logger.Debug("DTMF отправлен", slog.String("digit", digit.String()))
	}
}

func (b *Bridge) onDigit(event DTMFEvent) {
	if err := b.session.SendUserInput(event.Digit.String()); err != nil {
		b.logger.Warn("пользовательский ввод не передан в сессию", slog.String("error", err.Error()))
		return
	}
	b.metrics.digit(DirectionToH324)
	b.logger.Debug("DTMF принят", slog.String("digit", event.Digit.String()))
}

// dropReason метка причины отбрасывания по коду ошибки медиа
func dropReason(err error) string {
	var mediaErr *h324media.MediaError
	if errors.As(err, &mediaErr) {
		return mediaErr.Code.String()
	}
	return "error"
}
