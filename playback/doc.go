// SPDX-License-Identifier: EPL-2.0

// Package playback plays a decoded sound as any number of concurrent,
// independently configured instances.
//
// An Engine owns one audio.Buffer and an output Sink. Each play call copies
// the engine's current Settings (pitch, fade-in, repeat, volume) into a new
// instance and returns a Handle for it:
//
//	engine, _ := playback.New(buf, sink)
//
//	engine.PlayDetached()     // fire and forget
//
//	engine.SetPitch(2)
//	h, _ := engine.Play()     // owned: stops when h is closed or collected
//	defer h.Close()
//
//	engine.PlayLater()        // waits for the previous line instance
//
// # Lifetimes
//
// Every instance has exactly one Mode:
//
//   - ModeOwned playback stops when its handle is closed or garbage collected.
//   - ModeDetached playback runs to completion regardless of its handle.
//   - ModeQueued playback starts once the preceding owned or queued instance
//     on the same engine has ended, so queued sounds never overlap.
//
// # States
//
// Instances move Pending → Playing → Finished or Stopped. Repeating
// instances never finish on their own. Elapsed time comes from the engine's
// Clock and freezes once an instance ends.
//
// # Frame loops
//
// All engine state changes happen on calls into the engine. A frame loop
// calls Update once per tick; queued instances start on the first call that
// observes their predecessor's end.
//
// # Errors
//
// Play calls fail with an error wrapping ErrDevice when there is no sink or
// the sink cannot open a voice. ErrState covers stopping an ended instance,
// playing on a closed engine and, when restarts are disabled, playing while
// the line is audible (ErrAlreadyPlaying).
package playback
