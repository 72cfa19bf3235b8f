// SPDX-License-Identifier: EPL-2.0

// Package memsink is an in-process playback.Sink. Nothing is sent to
// hardware: voices are mixed only when the caller renders, and the sink's
// clock advances by exactly the amount of audio rendered. That makes it
// suitable for offline rendering and for deterministic tests.
package memsink

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/ik5/playbx/audio"
	"github.com/ik5/playbx/playback"
)

var ErrClosed = fmt.Errorf("%w: memsink: sink closed", playback.ErrDevice)

// Sink mixes voices into interleaved float32 frames on demand. It
// implements playback.Sink, playback.Clock and audio.Source.
type Sink struct {
	mu sync.Mutex

	rate     int
	channels int
	epoch    time.Time
	frames   int64

	voices  []*voice
	opened  int
	failure error
	closed  bool
	tmp     []float32
}

type voice struct {
	sink    *Sink
	src     audio.Source
	stopped bool
}

// New creates a sink; its clock starts at epoch.
func New(rate, channels int, epoch time.Time) *Sink {
	return &Sink{
		rate:     rate,
		channels: channels,
		epoch:    epoch,
	}
}

func (s *Sink) SampleRate() int { return s.rate }
func (s *Sink) Channels() int   { return s.channels }
func (s *Sink) BufSize() int    { return 4096 }

// Open adds src to the mix.
func (s *Sink) Open(src audio.Source) (playback.Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.failure != nil {
		return nil, s.failure
	}

	v := &voice{sink: s, src: src}
	s.voices = append(s.voices, v)
	s.opened++

	return v, nil
}

// Fail makes every following Open return err, simulating a lost device.
// A nil err restores the sink.
func (s *Sink) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

// Voices is the number of voices currently mixed.
func (s *Sink) Voices() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, v := range s.voices {
		if !v.stopped {
			n++
		}
	}
	return n
}

// Opened is the number of voices opened over the sink's lifetime.
func (s *Sink) Opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// Now is epoch plus the duration of audio rendered so far.
func (s *Sink) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch.Add(audio.FramesToDuration(int(s.frames), s.rate))
}

// ReadSamples mixes the next len(dst)/channels frames of every voice into
// dst and advances the clock. It never reports io.EOF while the sink is
// open: silence is still audio.
func (s *Sink) ReadSamples(dst []float32) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, io.EOF
	}
	if len(dst)%s.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	clear(dst)
	if cap(s.tmp) < len(dst) {
		s.tmp = make([]float32, len(dst))
	}
	tmp := s.tmp[:len(dst)]

	alive := s.voices[:0]
	for _, v := range s.voices {
		if v.stopped {
			continue
		}
		done := v.mix(dst, tmp)
		if !done {
			alive = append(alive, v)
		}
	}
	clear(s.voices[len(alive):])
	s.voices = alive

	s.frames += int64(len(dst) / s.channels)

	return len(dst), nil
}

// Advance renders and discards d worth of audio.
func (s *Sink) Advance(d time.Duration) {
	frames := audio.DurationToFrames(d, s.rate)
	buf := make([]float32, 256*s.channels)
	for frames > 0 {
		n := min(frames, 256)
		_, _ = s.ReadSamples(buf[:n*s.channels])
		frames -= n
	}
}

// Close stops all voices. The sink's clock keeps its value.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.voices {
		v.stopped = true
	}
	s.voices = nil
	s.closed = true

	return nil
}

// mix adds the voice's next samples to dst. It reports whether the voice
// has ended.
func (v *voice) mix(dst, tmp []float32) bool {
	filled := 0
	for filled < len(tmp) {
		n, err := v.src.ReadSamples(tmp[filled:])
		filled += n
		if err != nil {
			break
		}
		if n == 0 {
			return false
		}
	}

	for i := range filled {
		dst[i] += tmp[i]
	}

	return filled < len(tmp)
}

func (v *voice) Stop() error {
	v.sink.mu.Lock()
	defer v.sink.mu.Unlock()

	v.stopped = true
	v.sink.voices = slices.DeleteFunc(v.sink.voices, func(o *voice) bool { return o == v })

	return nil
}
