// SPDX-License-Identifier: EPL-2.0

// Package utils holds the sample math shared by decoders, the resampler and
// the output devices.
package utils

// Float32ToInt16 converts a float sample to 16-bit PCM. Values outside
// [-1, 1] are clipped; the scale is 32767 so both ends stay symmetric.
func Float32ToInt16(x float32) int16 {
	x = min(max(x, -1), 1)
	return int16(x * 32767)
}

// IntToFloat32 normalizes a signed integer PCM sample of the given bit depth
// into [-1, 1]. Unknown depths are treated as 16-bit.
func IntToFloat32(v int, bitDepth int) float32 {
	var full float32
	switch bitDepth {
	case 8:
		full = 1 << 7
	case 24:
		full = 1 << 23
	case 32:
		full = 1 << 31
	default:
		full = 1 << 15
	}

	return float32(v) / full
}

// CubicInterpolate evaluates the Catmull-Rom spline through y0..y3 at x,
// the fractional position between y1 (x=0) and y2 (x=1).
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	b := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	c := 0.5 * (y2 - y0)

	return ((a*x+b)*x+c)*x + y1
}
