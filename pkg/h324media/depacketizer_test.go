package h324media

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pictureStart собирает начало картинки H.263 с заданным temporal reference
func pictureStart(tr uint8, body ...byte) []byte {
	unit := []byte{0x00, 0x00, 0x80 | tr>>6, (tr & 0x3F) << 2}
	return append(unit, body...)
}

func TestTemporalReference(t *testing.T) {
	for _, tr := range []uint8{0, 1, 5, 63, 64, 250, 255} {
		got, ok := TemporalReference(pictureStart(tr))
		require.True(t, ok)
		assert.Equal(t, tr, got)
	}

	_, ok := TemporalReference([]byte{0x00, 0x00, 0x80})
	assert.False(t, ok)
	_, ok = TemporalReference([]byte{0x00, 0x01, 0x80, 0x00})
	assert.False(t, ok)
}

func TestDepacketizeAudio(t *testing.T) {
	speech := seqBytes(0x10, 13)
	d := NewDepacketizer(nil)

	tf, err := d.Depacketize(NewFrame(MediaAudio, CodecAMR, append([]byte{0x0C}, speech...)))
	require.NoError(t, err)

	assert.Equal(t, MediaAudio, tf.Type)
	assert.Equal(t, FormatAMR, tf.Format)
	assert.Equal(t, uint32(AMRSamplesPerFrame), tf.Samples)
	assert.False(t, tf.Marker)
	assert.Equal(t, append([]byte{0xF0, 0x0C}, speech...), tf.Payload)
}

func TestDepacketizeAudioRejects(t *testing.T) {
	d := NewDepacketizer(nil)

	_, err := d.Depacketize(NewFrame(MediaAudio, CodecH263, []byte{0x0C, 0x00}))
	assert.True(t, errors.Is(err, ErrCodecMismatch))

	_, err = d.Depacketize(NewFrame(MediaAudio, CodecAMR, nil))
	assert.True(t, errors.Is(err, ErrTruncated))

	_, err = d.Depacketize(NewFrame(MediaAudio, CodecAMR, []byte{0x4C, 0x00}))
	assert.True(t, errors.Is(err, ErrInvalidAMRMode))

	_, err = d.Depacketize(Frame{Type: MediaType(9)})
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestDepacketizeVideoTemporalReference(t *testing.T) {
	vtr := &VideoTimeReference{}
	d := NewDepacketizer(vtr)

	steps := []struct {
		tr      uint8
		samples uint32
	}{
		{5, 5 * VideoSamplesPerTR},
		{250, 245 * VideoSamplesPerTR}, // рост
		{5, 11 * VideoSamplesPerTR},    // переход через 255
	}

	for _, step := range steps {
		unit := pictureStart(step.tr, 0xAA, 0xBB)
		tf, err := d.Depacketize(NewFrame(MediaVideo, CodecH263, unit))
		require.NoError(t, err)

		assert.True(t, tf.Marker)
		assert.Equal(t, FormatH263Plus, tf.Format)
		assert.Equal(t, step.samples, tf.Samples, "TR=%d", step.tr)
		assert.Greater(t, tf.Samples, uint32(0))
		assert.Equal(t, step.tr, vtr.TR)

		// Два нулевых байта PSC заменены заголовком RFC 4629 с P=1
		require.Len(t, tf.Payload, len(unit))
		assert.Equal(t, []byte{0x04, 0x00}, tf.Payload[:2])
		assert.Equal(t, unit[2:], tf.Payload[2:])
	}
}

func TestDepacketizeVideoContinuation(t *testing.T) {
	vtr := &VideoTimeReference{}
	d := NewDepacketizer(vtr)

	_, err := d.Depacketize(NewFrame(MediaVideo, CodecH263, pictureStart(3)))
	require.NoError(t, err)

	tf, err := d.Depacketize(NewFrame(MediaVideo, CodecH263, []byte{0x12, 0x34}))
	require.NoError(t, err)
	assert.False(t, tf.Marker)
	assert.Equal(t, []byte{0x00, 0x00, 0x12, 0x34}, tf.Payload)
	assert.Equal(t, uint32(3*VideoSamplesPerTR), tf.Samples)
	assert.Equal(t, uint8(3), vtr.TR, "продолжение не меняет TR")
}

func TestDepacketizeVideoRejects(t *testing.T) {
	d := NewDepacketizer(nil)

	_, err := d.Depacketize(NewFrame(MediaVideo, CodecAMR, pictureStart(1)))
	assert.True(t, errors.Is(err, ErrCodecMismatch))

	_, err = d.Depacketize(NewFrame(MediaVideo, CodecH263, []byte{0x00, 0x00, 0x80}))
	assert.True(t, errors.Is(err, ErrTruncated))
	assert.Equal(t, uint8(0), d.TimeReference().TR)
}

func TestSessionsAreIndependent(t *testing.T) {
	a := NewDepacketizer(nil)
	b := NewDepacketizer(nil)

	_, err := a.Depacketize(NewFrame(MediaVideo, CodecH263, pictureStart(100)))
	require.NoError(t, err)

	tf, err := b.Depacketize(NewFrame(MediaVideo, CodecH263, pictureStart(10)))
	require.NoError(t, err)
	assert.Equal(t, uint32(10*VideoSamplesPerTR), tf.Samples)
	assert.Equal(t, uint8(100), a.TimeReference().TR)
}

func TestAudioRoundTrip(t *testing.T) {
	// Однофреймовая полезная нагрузка RFC 4867 возвращается без изменений
	speech := seqBytes(0x20, 31) // режим 7
	payload := amrPayload([]byte{0x3C}, speech)

	units, err := Packetize(TelephonyFrame{Type: MediaAudio, Format: FormatAMR, Payload: payload})
	require.NoError(t, err)
	require.Len(t, units, 1)

	tf, err := NewDepacketizer(nil).Depacketize(units[0])
	require.NoError(t, err)
	assert.Equal(t, payload, tf.Payload)
}

func TestVideoRoundTrip(t *testing.T) {
	// Начало картинки H.263+ с P=1 проходит пакетизатор и депакетизатор без изменений
	payload := []byte{0x04, 0x00, 0x80, 0x14, 0x01, 0x02, 0x03}

	units, err := Packetize(TelephonyFrame{Type: MediaVideo, Format: FormatH263Plus, Payload: payload})
	require.NoError(t, err)
	require.Len(t, units, 1)

	tf, err := NewDepacketizer(nil).Depacketize(units[0])
	require.NoError(t, err)
	assert.Equal(t, payload, tf.Payload)
	assert.True(t, tf.Marker)
	assert.Equal(t, uint32(5*VideoSamplesPerTR), tf.Samples)
}

func TestMediaErrorFormatting(t *testing.T) {
	_, err := Packetize(TelephonyFrame{Type: MediaAudio, Format: FormatAMR, Payload: []byte{0xF0}})
	require.Error(t, err)

	var mediaErr *MediaError
	require.True(t, errors.As(err, &mediaErr))
	assert.Equal(t, ErrorCodeTOCOverrun, mediaErr.Code)
	assert.Equal(t, 1, mediaErr.GetContext("length"))
	assert.Nil(t, mediaErr.GetContext("missing"))
	assert.Contains(t, err.Error(), "TOCOverrun")
	assert.False(t, errors.Is(err, ErrTruncated))
}
