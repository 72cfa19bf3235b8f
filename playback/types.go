// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"fmt"
	"math"
	"time"
)

// Mode is the lifetime policy of a playback instance, fixed at creation.
type Mode int

const (
	// ModeOwned playback stops when its Handle is closed or collected.
	ModeOwned Mode = iota
	// ModeDetached playback runs until it finishes or is stopped,
	// regardless of what happens to its Handle.
	ModeDetached
	// ModeQueued playback waits for the engine's previous queued or owned
	// instance to end, then runs like a detached one.
	ModeQueued
)

func (m Mode) String() string {
	switch m {
	case ModeOwned:
		return "owned"
	case ModeDetached:
		return "detached"
	case ModeQueued:
		return "queued"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// State of a playback instance. Instances move Pending → Playing →
// Finished or Stopped, never backwards.
type State int

const (
	StatePending State = iota
	StatePlaying
	StateFinished
	StateStopped
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Ended reports whether s is terminal.
func (s State) Ended() bool { return s == StateFinished || s == StateStopped }

// Settings configure one playback instance. An engine keeps a current set
// that is copied into every instance it starts.
type Settings struct {
	// Pitch scales playback speed and frequency; 2 plays an octave higher
	// in half the time.
	Pitch float64
	// FadeIn is the length of the linear ramp from silence at start. A ramp
	// longer than the sound never reaches full volume.
	FadeIn time.Duration
	// Repeat loops the sound until it is stopped.
	Repeat bool
	// Volume is a linear gain, 1 being unchanged.
	Volume float64
}

// DefaultSettings plays at normal speed and full volume, without fade-in or
// repeat.
func DefaultSettings() Settings {
	return Settings{Pitch: 1, Volume: 1}
}

// Validate reports the first out of range field, wrapped in the matching
// Err sentinel.
func (s Settings) Validate() error {
	if !(s.Pitch > 0) || math.IsInf(s.Pitch, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidPitch, s.Pitch)
	}
	if s.FadeIn < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFade, s.FadeIn)
	}
	if !(s.Volume >= 0) || math.IsInf(s.Volume, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidVolume, s.Volume)
	}
	return nil
}

// Clock supplies the engine's notion of now. Elapsed times are differences
// between Clock readings, so the clock must be monotonic.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
