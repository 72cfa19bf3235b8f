// SPDX-License-Identifier: EPL-2.0

// Package loading provides Loading, a poll-based placeholder for a value
// that is produced on a background goroutine.
//
// A frame loop requests a slow resource, such as a decoded sound, and keeps
// running while it is produced. Once per frame it calls Poll; the first poll
// after the producer finishes turns the Loading into Ready or Failed, and
// that outcome never changes afterwards:
//
//	sound := loading.Request(ctx, func(ctx context.Context) (*audio.Buffer, error) {
//	    return library.Decode(ctx, "sound.ogg")
//	})
//
//	// every frame
//	if _, err := sound.Poll(); err != nil {
//	    return err // wraps loading.ErrLoad
//	}
//	if buf, ok := sound.Result(); ok {
//	    // use buf
//	}
//
// Poll never blocks; a pending Loading is the normal state, not an error.
// Failures are terminal: to retry, issue a new Request.
//
// Discarding a Loading before it resolves cancels the producer's context.
// The producer may still finish; its result is dropped without leaking the
// goroutine.
package loading
