// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrDevice is returned when no output device is available or the device
	// refused a new voice.
	ErrDevice = errors.New("audio output device unavailable")

	// ErrState is returned for operations that are invalid in the current
	// state of a handle or engine.
	ErrState = errors.New("invalid playback state")

	ErrAlreadyPlaying = fmt.Errorf("%w: already playing", ErrState)
	ErrClosed         = fmt.Errorf("%w: engine closed", ErrState)

	ErrNilBuffer     = errors.New("nil sample buffer")
	ErrInvalidPitch  = errors.New("pitch must be a positive finite number")
	ErrInvalidFade   = errors.New("fade-in duration must not be negative")
	ErrInvalidVolume = errors.New("volume must be a non-negative finite number")
)
