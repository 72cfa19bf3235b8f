// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"io"
	"sync/atomic"

	"github.com/ik5/playbx/audio"
)

// Sink is an audio output device that mixes any number of concurrent
// voices. Sinks must be safe for concurrent use.
type Sink interface {
	// SampleRate and Channels describe the format voices are rendered in.
	SampleRate() int
	Channels() int
	// Open starts playing src on a new voice. src is already converted to
	// the sink's format and ends with io.EOF.
	Open(src audio.Source) (Voice, error)
}

// Voice is one stream playing on a Sink.
type Voice interface {
	// Stop silences the voice immediately and releases it.
	Stop() error
}

// stream is the per-instance source handed to a Sink. Stopping it makes the
// next read report io.EOF, so output ends even if the sink keeps reading.
type stream struct {
	src     audio.Source
	stopped atomic.Bool
}

func (s *stream) SampleRate() int { return s.src.SampleRate() }
func (s *stream) Channels() int   { return s.src.Channels() }
func (s *stream) BufSize() int    { return s.src.BufSize() }
func (s *stream) Close() error    { return s.src.Close() }

func (s *stream) stop() { s.stopped.Store(true) }

func (s *stream) ReadSamples(dst []float32) (int, error) {
	if s.stopped.Load() {
		return 0, io.EOF
	}
	return s.src.ReadSamples(dst)
}

// newStream builds the render chain for one instance:
// buffer reader → pitch resampler → channel mapper → fade → gain.
func newStream(buf *audio.Buffer, settings Settings, rate, channels int) (*stream, error) {
	reader := buf.NewReader(settings.Repeat)

	resampled, err := audio.NewPitchResampler(reader, rate, settings.Pitch)
	if err != nil {
		return nil, err
	}

	var src audio.Source
	src, err = audio.NewChannelMapper(resampled, channels)
	if err != nil {
		return nil, err
	}

	if settings.FadeIn > 0 {
		src = audio.NewFade(src, settings.FadeIn)
	}
	if settings.Volume != 1 {
		src = audio.NewGain(src, float32(settings.Volume))
	}

	return &stream{src: src}, nil
}
