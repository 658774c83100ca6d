//go:build !linux

package gateway

// applySockOpts на других платформах оставляет системные настройки
func applySockOpts(fd int, config UDPLegConfig) (qosErr error, err error) {
	return nil, nil
}
