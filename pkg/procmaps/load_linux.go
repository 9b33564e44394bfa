//go:build linux

package procmaps

import (
	"fmt"

	"github.com/prometheus/procfs"
)

// Load reads the mappings of pid from the proc filesystem mounted at
// mountPoint. PID 0 is the running process.
func Load(mountPoint string, pid int) (*Table, error) {
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, err
	}
	var proc procfs.Proc
	if pid == 0 {
		proc, err = fs.Self()
	} else {
		proc, err = fs.Proc(pid)
	}
	if err != nil {
		return nil, err
	}
	maps, err := proc.ProcMaps()
	if err != nil {
		return nil, fmt.Errorf("reading mappings of pid %d: %w", proc.PID, err)
	}
	return NewTable(convert(maps)), nil
}

func convert(maps []*procfs.ProcMap) []Mapping {
	res := make([]Mapping, 0, len(maps))
	for _, m := range maps {
		res = append(res, Mapping{
			Start:    uint64(m.StartAddr),
			End:      uint64(m.EndAddr),
			Perms:    perms(m.Perms),
			Offset:   m.Offset,
			Pathname: m.Pathname,
		})
	}
	return res
}

func perms(p *procfs.ProcMapPermissions) string {
	if p == nil {
		return "----"
	}
	b := []byte("----")
	if p.Read {
		b[0] = 'r'
	}
	if p.Write {
		b[1] = 'w'
	}
	if p.Execute {
		b[2] = 'x'
	}
	if p.Shared {
		b[3] = 's'
	} else if p.Private {
		b[3] = 'p'
	}
	return string(b)
}
