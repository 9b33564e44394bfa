//go:build !linux

package procmaps

import "errors"

// Load reads the mappings of pid from the proc filesystem mounted at
// mountPoint. PID 0 is the running process.
func Load(mountPoint string, pid int) (*Table, error) {
	return nil, errors.New("process mappings are only available on linux")
}
