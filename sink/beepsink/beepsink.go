// SPDX-License-Identifier: EPL-2.0

// Package beepsink plays voices through the faiface/beep speaker. The
// speaker is stereo and process-wide; each voice is a beep.Ctrl on its
// mixer.
package beepsink

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"go.uber.org/zap"

	"github.com/ik5/playbx/audio"
	"github.com/ik5/playbx/playback"
)

var ErrClosed = fmt.Errorf("%w: beepsink: sink closed", playback.ErrDevice)

// Sink is a stereo playback.Sink on the beep speaker.
type Sink struct {
	rate beep.SampleRate
	log  *zap.Logger

	mu     sync.Mutex
	ctrls  map[*beep.Ctrl]struct{}
	closed bool
}

// New initializes the speaker at rate with a buffer of the given length.
func New(rate int, buffer time.Duration, log *zap.Logger) (*Sink, error) {
	if rate <= 0 {
		return nil, audio.ErrInvalidSampleRate
	}
	if buffer <= 0 {
		buffer = 100 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}

	sr := beep.SampleRate(rate)
	if err := speaker.Init(sr, sr.N(buffer)); err != nil {
		return nil, fmt.Errorf("%w: initializing speaker: %w", playback.ErrDevice, err)
	}
	log.Info("audio device ready",
		zap.String("backend", "beep"),
		zap.Int("sample_rate", rate),
		zap.Duration("buffer", buffer))

	return &Sink{
		rate:  sr,
		log:   log,
		ctrls: make(map[*beep.Ctrl]struct{}),
	}, nil
}

func (s *Sink) SampleRate() int { return int(s.rate) }
func (s *Sink) Channels() int   { return 2 }

func (s *Sink) Open(src audio.Source) (playback.Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	ctrl := &beep.Ctrl{Streamer: newStreamer(src)}
	s.ctrls[ctrl] = struct{}{}
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() { s.forget(ctrl) })))

	return &voice{sink: s, ctrl: ctrl}, nil
}

// Close silences every voice and clears the speaker.
func (s *Sink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.ctrls = nil
	s.mu.Unlock()

	speaker.Clear()

	return nil
}

func (s *Sink) forget(ctrl *beep.Ctrl) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ctrls, ctrl)
}

type voice struct {
	sink *Sink
	ctrl *beep.Ctrl
}

// Stop detaches the voice's streamer; the speaker drops it on its next pass.
func (v *voice) Stop() error {
	speaker.Lock()
	v.ctrl.Streamer = nil
	speaker.Unlock()

	v.sink.forget(v.ctrl)

	return nil
}

// streamer adapts an audio.Source to beep's stereo float64 frames. Mono is
// copied to both sides; extra channels are ignored.
type streamer struct {
	src audio.Source
	ch  int
	buf []float32
	err error
}

func newStreamer(src audio.Source) *streamer {
	return &streamer{src: src, ch: src.Channels()}
}

func (s *streamer) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}

	need := len(samples) * s.ch
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}
	buf := s.buf[:need]

	n, err := s.src.ReadSamples(buf)
	frames := n / s.ch
	for f := range frames {
		left := buf[f*s.ch]
		right := left
		if s.ch > 1 {
			right = buf[f*s.ch+1]
		}
		samples[f] = [2]float64{float64(left), float64(right)}
	}

	switch {
	case err == io.EOF:
		s.err = io.EOF
	case err != nil:
		s.err = err
	}

	return frames, frames > 0 || s.err == nil
}

func (s *streamer) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
