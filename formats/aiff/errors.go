// SPDX-License-Identifier: EPL-2.0

package aiff

import "errors"

var (
	ErrNotAiffFile         = errors.New("not an AIFF file")
	ErrUnsupportedBitDepth = errors.New("unsupported AIFF bit depth")

	// ErrBadLayout is returned when the COMM chunk has no channels or no
	// sample rate.
	ErrBadLayout = errors.New("bad AIFF layout")
)
