//go:build linux

package linkmap

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// ProcessMemory reads another process's memory with process_vm_readv(2),
// falling back to /proc/<pid>/mem where the syscall is not permitted.
type ProcessMemory struct {
	pid  int
	file *os.File
}

func NewProcessMemory(pid int) *ProcessMemory {
	return &ProcessMemory{pid: pid}
}

func (m *ProcessMemory) ReadMemory(addr uint64, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	local := []unix.Iovec{{Base: &p[0]}}
	local[0].SetLen(len(p))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(p)}}

	n, err := unix.ProcessVMReadv(m.pid, local, remote, 0)
	switch {
	case err == nil && n == len(p):
		return nil
	case err == nil:
		return fmt.Errorf("%w: short read of %d/%d bytes", ErrFault, n, len(p))
	case errors.Is(err, unix.EFAULT):
		return ErrFault
	case errors.Is(err, unix.ENOSYS), errors.Is(err, unix.EPERM):
		return m.readFile(addr, p)
	default:
		return err
	}
}

func (m *ProcessMemory) readFile(addr uint64, p []byte) error {
	if m.file == nil {
		f, err := os.Open(fmt.Sprintf("/proc/%d/mem", m.pid))
		if err != nil {
			return err
		}
		m.file = f
	}
	_, err := m.file.ReadAt(p, int64(addr))
	if errors.Is(err, io.EOF) || errors.Is(err, unix.EIO) {
		return ErrFault
	}
	return err
}

func (m *ProcessMemory) Close() error {
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

// Memory returns the memory of the process and a function releasing it.
func (p Process) Memory() (Memory, func() error, error) {
	if p.Self() {
		return SelfMemory{}, func() error { return nil }, nil
	}
	m := NewProcessMemory(p.PID)
	return m, m.Close, nil
}
