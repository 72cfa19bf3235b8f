// SPDX-License-Identifier: EPL-2.0

package vorbis_test

import (
	"fmt"

	"github.com/ik5/playbx"
)

func Example_registry() {
	dec, ok := playbx.DefaultRegistry().Get("ogg")
	fmt.Printf("%T %v\n", dec, ok)
	// Output:
	// vorbis.Decoder true
}
