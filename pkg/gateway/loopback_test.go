package gateway

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/h324m/pkg/al2"
	"github.com/arzzra/h324m/pkg/h324media"
)

func TestLoopbackSessionEchoesFrames(t *testing.T) {
	s := NewLoopbackSession(DefaultConfig(), nil, nil)

	audio := h324media.NewFrame(h324media.MediaAudio, h324media.CodecAMR, []byte{0x04, 1, 2, 3})
	video := h324media.NewFrame(h324media.MediaVideo, h324media.CodecH263, []byte{0, 0, 0x80, 0x14})

	require.NoError(t, s.SendFrame(video))
	require.NoError(t, s.SendFrame(audio))

	// До Pump ничего не принято
	_, ok := s.GetFrame()
	assert.False(t, ok)

	assert.Equal(t, 2, s.Pump())

	// Аудио обслуживается первым
	got, ok := s.GetFrame()
	require.True(t, ok)
	assert.Equal(t, audio, got)

	got, ok = s.GetFrame()
	require.True(t, ok)
	assert.Equal(t, video, got)

	_, ok = s.GetFrame()
	assert.False(t, ok)

	rx, tx := s.Stats(h324media.MediaVideo)
	assert.Equal(t, uint64(1), rx.Accepted)
	assert.Equal(t, uint64(1), tx.Completed)
}

func TestLoopbackSessionRejects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxQueue = 1
	s := NewLoopbackSession(cfg, nil, nil)

	err := s.SendFrame(h324media.NewFrame(h324media.MediaAudio, h324media.CodecH263, []byte{1}))
	assert.True(t, errors.Is(err, h324media.ErrCodecMismatch))

	err = s.SendFrame(h324media.Frame{Type: h324media.MediaType(5)})
	assert.True(t, errors.Is(err, h324media.ErrUnsupportedFormat))

	require.NoError(t, s.SendFrame(h324media.NewFrame(h324media.MediaAudio, h324media.CodecAMR, []byte{0x04})))
	err = s.SendFrame(h324media.NewFrame(h324media.MediaAudio, h324media.CodecAMR, []byte{0x04}))
	assert.True(t, errors.Is(err, al2.ErrQueueFull))
}

func TestLoopbackSessionUserInput(t *testing.T) {
	s := NewLoopbackSession(DefaultConfig(), nil, nil)

	assert.True(t, errors.Is(s.SendUserInput(""), ErrInvalidUserInput))
	require.NoError(t, s.SendUserInput("1"))
	require.NoError(t, s.SendUserInput("#"))

	in, ok := s.GetUserInput()
	require.True(t, ok)
	assert.Equal(t, "1", in)
	in, ok = s.GetUserInput()
	require.True(t, ok)
	assert.Equal(t, "#", in)
	_, ok = s.GetUserInput()
	assert.False(t, ok)
}

func TestLoopbackSessionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := al2.NewMetrics(reg, "test")
	s := NewLoopbackSession(DefaultConfig(), m, nil)

	require.NoError(t, s.SendFrame(h324media.NewFrame(h324media.MediaVideo, h324media.CodecH263, []byte{1, 2, 3})))
	s.Pump()

	count, err := testutil.GatherAndCount(reg, "test_al2_frames_accepted_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
