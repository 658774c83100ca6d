package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/pion/rtp"
)

const rtpHeaderLen = 12

// maxDatagram наибольшая полезная нагрузка UDP; буфер чтения такого
// размера не обрезает датаграммы длиннее MTU
const maxDatagram = 65535

// UDPLegConfig параметры UDP ноги
type UDPLegConfig struct {
	LocalAddr  string // адрес прослушивания, например "0.0.0.0:5004"
	RemoteAddr string // адрес удаленной стороны; пусто - по первому пакету

	MTU         int
	DSCP        int
	RecvBuffer  int
	SendBuffer  int
	ReadTimeout time.Duration

	Logger *slog.Logger // nil - slog.Default()
}

// UDPLegConfigFrom берет параметры сокета из конфигурации шлюза
func UDPLegConfigFrom(cfg Config, localAddr, remoteAddr string) UDPLegConfig {
	return UDPLegConfig{
		LocalAddr:   localAddr,
		RemoteAddr:  remoteAddr,
		MTU:         cfg.MTU,
		DSCP:        cfg.DSCP,
		RecvBuffer:  cfg.RecvBuffer,
		SendBuffer:  cfg.SendBuffer,
		ReadTimeout: cfg.ReadTimeout,
	}
}

// UDPLeg RTP нога поверх UDP. Удаленный адрес, если не задан,
// устанавливается по первому принятому пакету.
type UDPLeg struct {
	conn       *net.UDPConn
	remoteAddr *net.UDPAddr
	config     UDPLegConfig

	// readBuf принадлежит единственному читателю ноги
	readBuf []byte

	active bool
	mutex  sync.RWMutex
}

// NewUDPLeg открывает UDP сокет и применяет параметры QoS и буферов
func NewUDPLeg(config UDPLegConfig) (*UDPLeg, error) {
	if config.MTU <= rtpHeaderLen {
		config.MTU = 1500
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 100 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	localAddr, err := net.ResolveUDPAddr("udp", config.LocalAddr)
	if err != nil {
		return nil, fmt.Errorf("ошибка разрешения локального адреса: %w", err)
	}

	conn, err := net.ListenUDP("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания UDP соединения: %w", err)
	}

	if err := setSockOpts(conn, config); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ошибка настройки сокета: %w", err)
	}

	leg := &UDPLeg{
		conn:    conn,
		config:  config,
		readBuf: make([]byte, maxDatagram),
		active:  true,
	}

	if config.RemoteAddr != "" {
		if err := leg.SetRemoteAddr(config.RemoteAddr); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return leg, nil
}

// ReadRTP читает следующий RTP пакет. Сокет опрашивается с шагом
// ReadTimeout, чтобы отмена ctx была замечена. Датаграмма длиннее MTU
// отклоняется целиком.
func (l *UDPLeg) ReadRTP(ctx context.Context) (*rtp.Packet, error) {
	buffer := l.readBuf

	for {
		l.mutex.RLock()
		active := l.active
		l.mutex.RUnlock()
		if !active {
			return nil, ErrLegClosed
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		l.conn.SetReadDeadline(time.Now().Add(l.config.ReadTimeout))
		n, addr, err := l.conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil, ErrLegClosed
			}
			return nil, fmt.Errorf("ошибка чтения UDP: %w", err)
		}

		if n < rtpHeaderLen {
			return nil, fmt.Errorf("%w: %d байт", ErrMalformedPacket, n)
		}
		if n > l.config.MTU {
			return nil, fmt.Errorf("%w: датаграмма %d байт превышает MTU %d", ErrMalformedPacket, n, l.config.MTU)
		}

		// Полезная нагрузка ссылается на копию, буфер чтения переиспользуется
		data := make([]byte, n)
		copy(data, buffer[:n])

		packet := &rtp.Packet{}
		if err := packet.Unmarshal(data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPacket, err)
		}
		if packet.Version != 2 {
			return nil, fmt.Errorf("%w: версия %d", ErrMalformedPacket, packet.Version)
		}

		l.mutex.Lock()
		if l.remoteAddr == nil {
			l.remoteAddr = addr
		}
		l.mutex.Unlock()

		return packet, nil
	}
}

// WriteRTP сериализует и отправляет пакет
func (l *UDPLeg) WriteRTP(packet *rtp.Packet) error {
	l.mutex.RLock()
	active := l.active
	remoteAddr := l.remoteAddr
	l.mutex.RUnlock()

	if !active {
		return ErrLegClosed
	}
	if remoteAddr == nil {
		return ErrNoRemoteAddr
	}

	data, err := packet.Marshal()
	if err != nil {
		return fmt.Errorf("ошибка маршалинга RTP пакета: %w", err)
	}
	if len(data) > l.config.MTU {
		return fmt.Errorf("RTP пакет %d байт превышает MTU %d", len(data), l.config.MTU)
	}

	if _, err := l.conn.WriteToUDP(data, remoteAddr); err != nil {
		return fmt.Errorf("ошибка записи UDP: %w", err)
	}
	return nil
}

// LocalAddr возвращает локальный адрес сокета
func (l *UDPLeg) LocalAddr() *net.UDPAddr {
	return l.conn.LocalAddr().(*net.UDPAddr)
}

// RemoteAddr возвращает удаленный адрес или nil
func (l *UDPLeg) RemoteAddr() *net.UDPAddr {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.remoteAddr
}

// SetRemoteAddr устанавливает удаленный адрес, например из SDP ответа
func (l *UDPLeg) SetRemoteAddr(addr string) error {
	remoteAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("ошибка разрешения удаленного адреса: %w", err)
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.remoteAddr = remoteAddr
	return nil
}

// Close закрывает сокет. Повторный вызов ничего не делает.
func (l *UDPLeg) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if !l.active {
		return nil
	}
	l.active = false
	return l.conn.Close()
}

// setSockOpts применяет платформенные настройки сокета. Отказ в
// маркировке DSCP не мешает работе ноги и только логируется.
func setSockOpts(conn *net.UDPConn, config UDPLegConfig) error {
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("не удалось получить системный сокет: %w", err)
	}

	var qosErr, sockErr error
	err = rawConn.Control(func(fd uintptr) {
		qosErr, sockErr = applySockOpts(int(fd), config)
	})
	if err != nil {
		return fmt.Errorf("ошибка управления сокетом: %w", err)
	}
	if qosErr != nil {
		config.Logger.Debug("QoS сокета не применен",
			slog.String("local", conn.LocalAddr().String()),
			slog.Int("dscp", config.DSCP),
			slog.String("error", qosErr.Error()))
	}
	return sockErr
}
