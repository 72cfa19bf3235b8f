// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Handle controls one playback instance. For ModeOwned instances the handle
// is the owner: closing it, or dropping the last reference to it, stops
// playback. Detached and queued instances ignore Close.
type Handle struct {
	e    *Engine
	inst *instance
}

func (h *Handle) ID() uuid.UUID      { return h.inst.id }
func (h *Handle) Mode() Mode         { return h.inst.mode }
func (h *Handle) Settings() Settings { return h.inst.settings }

// Length is the wall time of one pass at the instance's pitch.
func (h *Handle) Length() time.Duration { return h.inst.length }

// State advances the engine and reports the instance state.
func (h *Handle) State() State {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()

	h.e.advance(h.e.clock.Now())
	return h.inst.state
}

// Playing reports whether the instance is audible.
func (h *Handle) Playing() bool { return h.State() == StatePlaying }

// Elapsed is the wall time since playback started. It is zero while pending
// and frozen once the instance has ended.
func (h *Handle) Elapsed() time.Duration {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()

	now := h.e.clock.Now()
	h.e.advance(now)
	return h.inst.elapsed(now)
}

// Position is the playback position within the sound: elapsed time scaled
// by pitch, wrapped when repeating and capped at the sound's length
// otherwise.
func (h *Handle) Position() time.Duration {
	elapsed := h.Elapsed()
	total := h.e.buf.Duration()
	pos := time.Duration(float64(elapsed) * h.inst.settings.Pitch)

	switch {
	case total <= 0:
		return 0
	case h.inst.settings.Repeat:
		return pos % total
	default:
		return min(pos, total)
	}
}

// StartedAt is the clock time playback started, or zero while pending.
func (h *Handle) StartedAt() time.Time {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()

	h.e.advance(h.e.clock.Now())
	return h.inst.startedAt
}

// EndedAt is the clock time the instance finished or was stopped, or zero.
func (h *Handle) EndedAt() time.Time {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()

	h.e.advance(h.e.clock.Now())
	return h.inst.endedAt
}

// Err reports why a queued instance could not start, if it could not.
func (h *Handle) Err() error {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()

	return h.inst.err
}

// Stop ends the instance immediately. Stopping a pending queued instance
// removes it from the queue. Stopping an ended instance fails with ErrState.
func (h *Handle) Stop() error {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()

	now := h.e.clock.Now()
	h.e.advance(now)
	if h.inst.state.Ended() {
		return fmt.Errorf("%w: instance %s already %s", ErrState, h.inst.id, h.inst.state)
	}

	h.e.end(h.inst, StateStopped, now)
	h.e.promote(now)

	return nil
}

// Close releases the handle. Owned playback stops; other modes continue.
// Close is idempotent.
func (h *Handle) Close() error {
	h.e.release(h.inst)
	return nil
}
