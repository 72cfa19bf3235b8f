// SPDX-License-Identifier: EPL-2.0

package loading

import "errors"

var (
	// ErrLoad wraps every failure reported by a Loading.
	ErrLoad = errors.New("resource load failed")

	ErrDiscarded = errors.New("loading discarded")
	ErrPanic     = errors.New("producer panicked")
	ErrNilResult = errors.New("producer failed without an error")
)
