package gateway

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, uint8(96), cfg.AMRPayloadType)
	assert.Equal(t, uint8(97), cfg.H263PlusPayloadType)
	assert.Equal(t, uint8(34), cfg.H263PayloadType)
	assert.Equal(t, uint8(101), cfg.DTMFPayloadType)
	assert.False(t, cfg.AudioUseSN)
	assert.True(t, cfg.VideoUseSN)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"payload type вне диапазона", func(c *Config) { c.AMRPayloadType = 128 }},
		{"повтор payload type", func(c *Config) { c.DTMFPayloadType = c.AMRPayloadType }},
		{"нулевая частота аудио", func(c *Config) { c.AudioClockRate = 0 }},
		{"отрицательная очередь", func(c *Config) { c.MaxQueue = -1 }},
		{"отрицательный SDU", func(c *Config) { c.MaxSDUSize = -1 }},
		{"маленький MTU", func(c *Config) { c.MTU = 12 }},
		{"DSCP вне диапазона", func(c *Config) { c.DSCP = 64 }},
		{"отрицательный буфер", func(c *Config) { c.RecvBuffer = -1 }},
		{"нулевой таймаут чтения", func(c *Config) { c.ReadTimeout = 0 }},
		{"нулевая длительность DTMF", func(c *Config) { c.DTMFDuration = 0 }},
		{"громкость DTMF", func(c *Config) { c.DTMFVolume = 64 }},
		{"нулевой период опроса", func(c *Config) { c.PollInterval = 0 }},
		{"неизвестный уровень логов", func(c *Config) { c.LogLevel = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("loud")
	assert.Error(t, err)
}
