// SPDX-License-Identifier: EPL-2.0

package memsink_test

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/playbx/internal/audiotest"
	"github.com/ik5/playbx/playback"
	"github.com/ik5/playbx/sink/memsink"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestClockFollowsRenderedAudio(t *testing.T) {
	t.Parallel()

	s := memsink.New(1000, 2, epoch)
	assert.Equal(t, epoch, s.Now())

	n, err := s.ReadSamples(make([]float32, 200))
	require.NoError(t, err)
	assert.Equal(t, 200, n)
	assert.Equal(t, epoch.Add(100*time.Millisecond), s.Now())

	s.Advance(time.Second)
	assert.Equal(t, epoch.Add(1100*time.Millisecond), s.Now())

	_, err = s.ReadSamples(make([]float32, 3))
	require.Error(t, err)
}

func TestMixesAndDropsEndedVoices(t *testing.T) {
	t.Parallel()

	s := memsink.New(100, 1, epoch)

	_, err := s.Open(audiotest.NewConstantSource(100, 1, 10, 0.25))
	require.NoError(t, err)
	_, err = s.Open(audiotest.NewConstantSource(100, 1, 100, 0.5))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Voices())

	out := make([]float32, 20)
	_, err = s.ReadSamples(out)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, out[5], 1e-6)
	assert.InDelta(t, 0.5, out[15], 1e-6)
	assert.Equal(t, 1, s.Voices())
	assert.Equal(t, 2, s.Opened())
}

func TestStopSilencesVoice(t *testing.T) {
	t.Parallel()

	s := memsink.New(100, 1, epoch)

	v, err := s.Open(audiotest.NewConstantSource(100, 1, 100, 0.5))
	require.NoError(t, err)
	require.NoError(t, v.Stop())
	assert.Equal(t, 0, s.Voices())

	out := make([]float32, 10)
	_, err = s.ReadSamples(out)
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 10), out)
}

func TestFailAndClose(t *testing.T) {
	t.Parallel()

	s := memsink.New(100, 1, epoch)
	lost := errors.New("device lost")

	s.Fail(lost)
	_, err := s.Open(audiotest.NewSilentSource(100, 1, 10))
	require.ErrorIs(t, err, lost)

	s.Fail(nil)
	_, err = s.Open(audiotest.NewSilentSource(100, 1, 10))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	_, err = s.Open(audiotest.NewSilentSource(100, 1, 10))
	require.ErrorIs(t, err, memsink.ErrClosed)
	require.ErrorIs(t, err, playback.ErrDevice)

	_, err = s.ReadSamples(make([]float32, 10))
	require.ErrorIs(t, err, io.EOF)
}
