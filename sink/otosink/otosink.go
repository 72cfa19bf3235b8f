// SPDX-License-Identifier: EPL-2.0

// Package otosink plays voices on the system audio device through
// ebitengine/oto. Every voice gets its own oto player; oto mixes them.
package otosink

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/ik5/playbx/audio"
	"github.com/ik5/playbx/playback"
	"github.com/ik5/playbx/utils"
)

var (
	// ErrContextExists is returned when a second sink is created: oto allows
	// one context per process.
	ErrContextExists = fmt.Errorf("%w: otosink: audio context already created", playback.ErrDevice)
	ErrClosed        = fmt.Errorf("%w: otosink: sink closed", playback.ErrDevice)
)

var (
	ctxMu   sync.Mutex
	ctxUsed bool
)

type Options struct {
	SampleRate int
	Channels   int
	// Buffer is the device buffer length. Zero lets oto pick.
	Buffer time.Duration
	Logger *zap.Logger
}

// Sink is a playback.Sink backed by an oto context.
type Sink struct {
	ctx      *oto.Context
	rate     int
	channels int
	log      *zap.Logger

	mu      sync.Mutex
	players map[*voice]struct{}
	closed  bool
}

// New opens the audio device and waits until it is ready.
func New(opts Options) (*Sink, error) {
	if opts.SampleRate <= 0 {
		return nil, audio.ErrInvalidSampleRate
	}
	if opts.Channels <= 0 {
		return nil, audio.ErrInvalidChannels
	}

	ctxMu.Lock()
	defer ctxMu.Unlock()
	if ctxUsed {
		return nil, ErrContextExists
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   opts.SampleRate,
		ChannelCount: opts.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   opts.Buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: opening oto context: %w", playback.ErrDevice, err)
	}
	<-ready
	ctxUsed = true

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("audio device ready",
		zap.String("backend", "oto"),
		zap.Int("sample_rate", opts.SampleRate),
		zap.Int("channels", opts.Channels))

	return &Sink{
		ctx:      ctx,
		rate:     opts.SampleRate,
		channels: opts.Channels,
		log:      log,
		players:  make(map[*voice]struct{}),
	}, nil
}

func (s *Sink) SampleRate() int { return s.rate }
func (s *Sink) Channels() int   { return s.channels }

// Open starts a new oto player reading src.
func (s *Sink) Open(src audio.Source) (playback.Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if err := s.ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", playback.ErrDevice, err)
	}

	v := &voice{sink: s, player: s.ctx.NewPlayer(newPCMReader(src))}
	s.players[v] = struct{}{}
	v.player.Play()

	return v, nil
}

// Close stops every voice. The oto context itself lives until the process
// exits.
func (s *Sink) Close() error {
	s.mu.Lock()
	players := s.players
	s.players = nil
	s.closed = true
	s.mu.Unlock()

	var errs []error
	for v := range players {
		errs = append(errs, v.close())
	}

	return errors.Join(errs...)
}

type voice struct {
	sink   *Sink
	player *oto.Player
	once   sync.Once
	err    error
}

func (v *voice) Stop() error {
	v.sink.mu.Lock()
	delete(v.sink.players, v)
	v.sink.mu.Unlock()

	return v.close()
}

func (v *voice) close() error {
	v.once.Do(func() {
		v.player.Pause()
		if err := v.player.Close(); err != nil {
			v.err = fmt.Errorf("closing oto player: %w", err)
			v.sink.log.Warn("closing player failed", zap.Error(err))
		}
	})
	return v.err
}

// pcmReader encodes an audio.Source as signed 16-bit little-endian PCM.
type pcmReader struct {
	src   audio.Source
	frame int // bytes per frame
	buf   []float32
}

func newPCMReader(src audio.Source) *pcmReader {
	return &pcmReader{
		src:   src,
		frame: 2 * src.Channels(),
	}
}

func (r *pcmReader) Read(p []byte) (int, error) {
	frames := len(p) / r.frame
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}

	need := frames * r.frame / 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	buf := r.buf[:need]

	n, err := r.src.ReadSamples(buf)
	for i, s := range buf[:n] {
		binary.LittleEndian.PutUint16(p[2*i:], uint16(utils.Float32ToInt16(s)))
	}

	return 2 * n, err
}
