//go:build !linux

package linkmap

import "errors"

var errUnsupportedPlatform = errors.New("reading the module chain is only supported on linux")

// Memory returns the memory of the process and a function releasing it.
func (p Process) Memory() (Memory, func() error, error) {
	return nil, nil, errUnsupportedPlatform
}
