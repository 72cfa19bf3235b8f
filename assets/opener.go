// SPDX-License-Identifier: EPL-2.0

package assets

import (
	"io"
	"io/fs"
	"os"
)

// Opener resolves an asset id to its encoded bytes.
type Opener interface {
	Open(id string) (io.ReadCloser, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(id string) (io.ReadCloser, error)

func (f OpenerFunc) Open(id string) (io.ReadCloser, error) { return f(id) }

// FSOpener opens ids as slash-separated paths in fsys.
func FSOpener(fsys fs.FS) Opener {
	return OpenerFunc(func(id string) (io.ReadCloser, error) {
		return fsys.Open(id)
	})
}

// DirOpener opens ids relative to root. Ids that escape root are rejected.
func DirOpener(root string) Opener {
	return FSOpener(os.DirFS(root))
}
