//go:build linux

package gateway

import (
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// applySockOpts задает буферы, DSCP и приоритет сокета (Linux).
// Ошибки буферов фатальны; ошибки QoS возвращаются в qosErr.
func applySockOpts(fd int, config UDPLegConfig) (qosErr error, err error) {
	if config.RecvBuffer > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, config.RecvBuffer); err != nil {
			return nil, fmt.Errorf("SO_RCVBUF (%d): %w", config.RecvBuffer, err)
		}
	}
	if config.SendBuffer > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, config.SendBuffer); err != nil {
			return nil, fmt.Errorf("SO_SNDBUF (%d): %w", config.SendBuffer, err)
		}
	}

	if config.DSCP > 0 {
		// DSCP в старших 6 битах TOS; в контейнерах может быть запрещено
		tos := config.DSCP << 2

		// Сокет IPv4 не знает IPV6_TCLASS и наоборот, поэтому ошибка
		// только если не принят ни один из вариантов
		tosErr := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TOS, tos)
		tclassErr := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_TCLASS, tos)
		if tosErr != nil && tclassErr != nil {
			qosErr = multierr.Append(qosErr, fmt.Errorf("IP_TOS (%d): %w", tos, tosErr))
			qosErr = multierr.Append(qosErr, fmt.Errorf("IPV6_TCLASS (%d): %w", tos, tclassErr))
		}

		// 6 - наивысший приоритет без CAP_NET_ADMIN
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_PRIORITY, 6); err != nil {
			qosErr = multierr.Append(qosErr, fmt.Errorf("SO_PRIORITY (6): %w", err))
		}
	}

	return qosErr, nil
}
