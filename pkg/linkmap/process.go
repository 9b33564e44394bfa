package linkmap

import (
	"debug/elf"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Process is a target whose module chain is to be walked. PID 0 is the
// running process.
type Process struct {
	PID    int
	Layout Layout
	// Entry is the link-time entry point of the executable.
	Entry uint64
}

// Self reports whether p is the running process.
func (p Process) Self() bool {
	return p.PID == 0 || p.PID == os.Getpid()
}

// Path returns a path below the process's /proc directory.
func (p Process) Path(elem ...string) string {
	dir := "self"
	if p.PID != 0 {
		dir = strconv.Itoa(p.PID)
	}
	return filepath.Join(append([]string{"/proc", dir}, elem...)...)
}

// InspectProcess reads the executable header of the process to learn its
// layout.
func InspectProcess(pid int) (Process, error) {
	p := Process{PID: pid}
	f, err := elf.Open(p.Path("exe"))
	if err != nil {
		return Process{}, fmt.Errorf("opening executable of pid %d: %w", pid, err)
	}
	defer f.Close()

	p.Layout, err = NewLayout(f.Class, f.ByteOrder)
	if err != nil {
		return Process{}, err
	}
	if p.Self() && p.Layout.Class != NativeLayout().Class {
		return Process{}, fmt.Errorf("executable class %v does not match the running process", f.Class)
	}
	p.Entry = f.Entry
	return p, nil
}

// Auxv reads the auxiliary vector of the process.
func (p Process) Auxv() (Auxv, error) {
	b, err := os.ReadFile(p.Path("auxv"))
	if err != nil {
		return nil, err
	}
	return ParseAuxv(b, p.Layout), nil
}

// Locate finds r_debug in the process.
func (p Process) Locate(mem Memory) (uint64, error) {
	auxv, err := p.Auxv()
	if err != nil {
		return 0, fmt.Errorf("reading auxiliary vector: %w", err)
	}
	return Locate(NewReader(mem, p.Layout), auxv, p.Entry)
}
