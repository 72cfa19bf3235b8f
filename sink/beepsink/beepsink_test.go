// SPDX-License-Identifier: EPL-2.0

package beepsink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/playbx/internal/audiotest"
	"github.com/ik5/playbx/playback"
)

func TestStreamerMonoToStereo(t *testing.T) {
	t.Parallel()

	s := newStreamer(audiotest.NewConstantSource(44100, 1, 3, 0.25))

	samples := make([][2]float64, 8)
	n, ok := s.Stream(samples)
	assert.Equal(t, 3, n)
	assert.True(t, ok)
	for _, f := range samples[:n] {
		assert.Equal(t, [2]float64{0.25, 0.25}, f)
	}

	n, ok = s.Stream(samples)
	assert.Zero(t, n)
	assert.False(t, ok)
	assert.NoError(t, s.Err())
}

func TestStreamerKeepsStereoSides(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(44100, 2, 10, func(_ int, ch int) float32 {
		if ch == 0 {
			return -0.5
		}
		return 0.5
	})
	s := newStreamer(src)

	samples := make([][2]float64, 4)
	n, ok := s.Stream(samples)
	assert.Equal(t, 4, n)
	assert.True(t, ok)
	assert.Equal(t, [2]float64{-0.5, 0.5}, samples[2])
}

func TestOpenAfterCloseIsDeviceError(t *testing.T) {
	t.Parallel()

	s := &Sink{rate: 44100, closed: true}

	_, err := s.Open(audiotest.NewSilentSource(44100, 2, 10))
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, err, playback.ErrDevice)
}
