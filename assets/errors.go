// SPDX-License-Identifier: EPL-2.0

package assets

import "errors"

var (
	ErrNotFound      = errors.New("asset not found")
	ErrUnknownFormat = errors.New("unknown asset format")
	ErrEmptyID       = errors.New("empty asset id")
)
