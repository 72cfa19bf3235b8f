// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ik5/playbx/audio"
	"go.uber.org/zap"
)

// instance is the state behind a Handle. All fields are guarded by the
// owning engine's mutex.
type instance struct {
	id       uuid.UUID
	mode     Mode
	settings Settings
	length   time.Duration // wall time of one pass at settings.Pitch

	state     State
	createdAt time.Time
	startedAt time.Time
	endedAt   time.Time

	stream   *stream
	voice    Voice
	err      error
	released bool
}

// Engine plays one decoded sound. Every play call starts an independent
// instance sharing the same read-only samples.
//
// Owned and queued instances form the engine's primary line: at most one of
// them is audible at a time, and queued ones start in order as their
// predecessors end. Detached instances run beside the line.
//
// State advances from the engine's Clock whenever the engine or one of its
// handles is used; frame loops call Update once per tick so queued playback
// starts promptly.
type Engine struct {
	mu sync.Mutex

	buf     *audio.Buffer
	sink    Sink
	clock   Clock
	log     *zap.Logger
	restart bool

	settings Settings
	live     map[uuid.UUID]*instance
	line     []*instance
	last     *instance // latest instance started on the line
	closed   bool
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger sets the logger for device failures and instance lifecycle
// events. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithClock replaces the wall clock that drives instance state. Offline
// renders pass their sink so state follows the audio actually mixed.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithRestart controls what Play does while the line is audible: restart
// in place (the default) or fail with ErrAlreadyPlaying.
func WithRestart(allow bool) Option {
	return func(e *Engine) { e.restart = allow }
}

// WithSettings sets the engine's initial settings in place of
// DefaultSettings. They are validated by New.
func WithSettings(s Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// New creates an engine for buf. A nil sink is allowed; every play call then
// fails with ErrDevice.
func New(buf *audio.Buffer, sink Sink, opts ...Option) (*Engine, error) {
	if buf == nil {
		return nil, ErrNilBuffer
	}

	e := &Engine{
		buf:      buf,
		sink:     sink,
		clock:    systemClock{},
		log:      zap.NewNop(),
		restart:  true,
		settings: DefaultSettings(),
		live:     make(map[uuid.UUID]*instance),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.settings.Validate(); err != nil {
		return nil, err
	}

	return e, nil
}

// Buffer returns the shared samples. Callers must not modify them.
func (e *Engine) Buffer() *audio.Buffer { return e.buf }

// Duration is the length of the sound at its natural pitch.
func (e *Engine) Duration() time.Duration { return e.buf.Duration() }

// SetPitch sets the pitch for instances started afterwards.
func (e *Engine) SetPitch(m float64) error {
	return e.update(func(s *Settings) { s.Pitch = m })
}

// SetFadeIn sets the fade-in for instances started afterwards.
func (e *Engine) SetFadeIn(d time.Duration) error {
	return e.update(func(s *Settings) { s.FadeIn = d })
}

// SetVolume sets the gain for instances started afterwards.
func (e *Engine) SetVolume(v float64) error {
	return e.update(func(s *Settings) { s.Volume = v })
}

// SetRepeat sets looping for instances started afterwards.
func (e *Engine) SetRepeat(repeat bool) {
	_ = e.update(func(s *Settings) { s.Repeat = repeat })
}

func (e *Engine) update(fn func(*Settings)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.settings
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	e.settings = next

	return nil
}

func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

func (e *Engine) Pitch() float64        { return e.Settings().Pitch }
func (e *Engine) FadeIn() time.Duration { return e.Settings().FadeIn }
func (e *Engine) Repeat() bool          { return e.Settings().Repeat }
func (e *Engine) Volume() float64       { return e.Settings().Volume }

// Play starts an owned instance on the line. If the line is audible it is
// restarted, or ErrAlreadyPlaying is returned when restarts are disabled.
func (e *Engine) Play() (*Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now, err := e.prepare()
	if err != nil {
		return nil, err
	}

	if e.lineBusy() {
		if !e.restart {
			return nil, ErrAlreadyPlaying
		}
		e.stopLine(now)
	}

	inst := e.newInstance(ModeOwned, now)
	if err := e.start(inst, now); err != nil {
		return nil, err
	}
	e.line = []*instance{inst}

	h := &Handle{e: e, inst: inst}
	runtime.AddCleanup(h, e.release, inst)

	return h, nil
}

// PlayDetached starts an instance that keeps playing independently of its
// handle.
func (e *Engine) PlayDetached() (*Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now, err := e.prepare()
	if err != nil {
		return nil, err
	}

	inst := e.newInstance(ModeDetached, now)
	if err := e.start(inst, now); err != nil {
		return nil, err
	}

	return &Handle{e: e, inst: inst}, nil
}

// PlayLater queues an instance behind the line. It starts right away when
// the line is idle.
func (e *Engine) PlayLater() (*Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now, err := e.prepare()
	if err != nil {
		return nil, err
	}

	inst := e.newInstance(ModeQueued, now)
	if e.lineBusy() {
		e.live[inst.id] = inst
		e.line = append(e.line, inst)
		e.log.Debug("playback queued",
			zap.Stringer("id", inst.id),
			zap.Int("position", len(e.line)-1))

		return &Handle{e: e, inst: inst}, nil
	}

	if err := e.start(inst, now); err != nil {
		return nil, err
	}
	e.line = []*instance{inst}

	return &Handle{e: e, inst: inst}, nil
}

// Stop ends the current and all queued instances of the line. Detached
// instances keep playing.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.advance(now)
	e.stopLine(now)
}

// StopAll ends every live instance, detached ones included.
func (e *Engine) StopAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopAll(e.clock.Now())
}

// Playing reports whether an instance of the line is audible. Only owned
// and queued instances are on the line: detached instances are not
// reflected here, use their Handle.Playing instead.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.advance(e.clock.Now())
	return len(e.line) > 0 && e.line[0].state == StatePlaying
}

// Elapsed is the elapsed time of the most recently started line instance.
// Detached instances never count; use Handle.Elapsed for those.
func (e *Engine) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.advance(now)
	if e.last == nil {
		return 0
	}
	return e.last.elapsed(now)
}

// Update advances every instance to the clock's current time: it finishes
// instances that ran out, releases their voices and starts queued ones.
func (e *Engine) Update() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.advance(e.clock.Now())
}

// Active counts instances that are pending or playing.
func (e *Engine) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.advance(e.clock.Now())
	return len(e.live)
}

// Close stops everything. Later play calls fail with ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.stopAll(e.clock.Now())
	e.closed = true

	return nil
}

func (e *Engine) prepare() (time.Time, error) {
	if e.closed {
		return time.Time{}, ErrClosed
	}
	if e.sink == nil {
		return time.Time{}, fmt.Errorf("%w: no sink configured", ErrDevice)
	}

	now := e.clock.Now()
	e.advance(now)

	return now, nil
}

func (e *Engine) newInstance(mode Mode, now time.Time) *instance {
	s := e.settings
	return &instance{
		id:        uuid.New(),
		mode:      mode,
		settings:  s,
		length:    time.Duration(float64(e.buf.Duration()) / s.Pitch),
		state:     StatePending,
		createdAt: now,
	}
}

func (e *Engine) start(inst *instance, now time.Time) error {
	rate, channels := e.sink.SampleRate(), e.sink.Channels()
	if rate <= 0 || channels <= 0 {
		return fmt.Errorf("%w: invalid format %d Hz / %d channels", ErrDevice, rate, channels)
	}

	st, err := newStream(e.buf, inst.settings, rate, channels)
	if err != nil {
		return fmt.Errorf("building stream: %w", err)
	}

	voice, err := e.sink.Open(st)
	if err != nil {
		e.log.Error("opening voice failed",
			zap.Stringer("id", inst.id),
			zap.Stringer("mode", inst.mode),
			zap.Error(err))
		if !errors.Is(err, ErrDevice) {
			err = fmt.Errorf("%w: %w", ErrDevice, err)
		}
		return err
	}

	inst.stream = st
	inst.voice = voice
	inst.state = StatePlaying
	inst.startedAt = now
	e.live[inst.id] = inst
	if inst.mode != ModeDetached {
		e.last = inst
	}

	e.log.Debug("playback started",
		zap.Stringer("id", inst.id),
		zap.Stringer("mode", inst.mode),
		zap.Float64("pitch", inst.settings.Pitch),
		zap.Duration("fade_in", inst.settings.FadeIn),
		zap.Bool("repeat", inst.settings.Repeat))

	return nil
}

// end moves inst into a terminal state at time at and releases its voice.
func (e *Engine) end(inst *instance, state State, at time.Time) {
	if inst.state.Ended() {
		return
	}

	inst.state = state
	inst.endedAt = at
	delete(e.live, inst.id)

	if inst.stream != nil {
		inst.stream.stop()
	}
	if inst.voice != nil {
		if err := inst.voice.Stop(); err != nil {
			e.log.Warn("stopping voice failed", zap.Stringer("id", inst.id), zap.Error(err))
		}
	}

	e.log.Debug("playback ended",
		zap.Stringer("id", inst.id),
		zap.Stringer("mode", inst.mode),
		zap.Stringer("state", state))
}

// advance finishes instances whose last pass ended by now, then starts the
// next queued instance if the line head has ended.
func (e *Engine) advance(now time.Time) {
	for _, inst := range e.live {
		if inst.state != StatePlaying || inst.settings.Repeat {
			continue
		}
		if finish := inst.startedAt.Add(inst.length); !now.Before(finish) {
			e.end(inst, StateFinished, finish)
		}
	}

	e.promote(now)
}

func (e *Engine) promote(now time.Time) {
	for len(e.line) > 0 {
		head := e.line[0]
		switch head.state {
		case StatePlaying:
			return
		case StatePending:
			if e.sink == nil {
				return
			}
			if err := e.start(head, now); err != nil {
				head.err = err
				e.end(head, StateStopped, now)
				e.line = e.line[1:]
				continue
			}
			return
		default:
			if len(e.line) == 1 {
				// keep the ended head so Playing reports false cheaply
				return
			}
			e.line = e.line[1:]
		}
	}
}

func (e *Engine) lineBusy() bool {
	for _, inst := range e.line {
		if !inst.state.Ended() {
			return true
		}
	}
	return false
}

func (e *Engine) stopLine(now time.Time) {
	for _, inst := range e.line {
		e.end(inst, StateStopped, now)
	}
	e.line = nil
}

func (e *Engine) stopAll(now time.Time) {
	for _, inst := range e.live {
		e.end(inst, StateStopped, now)
	}
	e.line = nil
}

// release runs when an owned handle is closed or garbage collected.
func (e *Engine) release(inst *instance) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if inst.released {
		return
	}
	inst.released = true

	now := e.clock.Now()
	e.advance(now)
	if inst.mode == ModeOwned && !inst.state.Ended() {
		e.end(inst, StateStopped, now)
		e.promote(now)
	}
}

func (inst *instance) elapsed(now time.Time) time.Duration {
	switch {
	case inst.startedAt.IsZero():
		return 0
	case inst.state.Ended():
		return inst.endedAt.Sub(inst.startedAt)
	default:
		return now.Sub(inst.startedAt)
	}
}
