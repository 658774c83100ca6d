//go:build linux

package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplySockOptsReportsQoSErrors(t *testing.T) {
	// Недействительный дескриптор: каждый setsockopt завершается ошибкой
	qosErr, err := applySockOpts(-1, UDPLegConfig{DSCP: 46})
	assert.NoError(t, err)
	assert.ErrorContains(t, qosErr, "IP_TOS (184)")
	assert.ErrorContains(t, qosErr, "IPV6_TCLASS (184)")
	assert.ErrorContains(t, qosErr, "SO_PRIORITY")

	// Ошибка буферов фатальна
	qosErr, err = applySockOpts(-1, UDPLegConfig{RecvBuffer: 4096, DSCP: 46})
	assert.ErrorContains(t, err, "SO_RCVBUF")
	assert.NoError(t, qosErr)

	// Без DSCP QoS не трогается
	qosErr, err = applySockOpts(-1, UDPLegConfig{})
	assert.NoError(t, err)
	assert.NoError(t, qosErr)
}
