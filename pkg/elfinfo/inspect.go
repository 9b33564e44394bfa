package elfinfo

import (
	"errors"
	"path"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dynwalk/pkg/linkmap"
)

// ErrNoBackingFile is returned for modules that are not loaded from a file,
// such as the vDSO.
var ErrNoBackingFile = errors.New("module has no backing file")

// Info is what was learned about a module from its file on disk.
type Info struct {
	FilePath string
	BuildID  BuildID
	// DynamicVaddr is the link-time address of the dynamic section, if the
	// file has one.
	DynamicVaddr    uint64
	HasDynamicVaddr bool
}

// DynamicMatches reports whether m's dynamic section is where the file says it
// is once the load bias is applied.
func (i Info) DynamicMatches(m linkmap.Module) bool {
	return i.HasDynamicVaddr && m.Bias+i.DynamicVaddr == m.Dynamic
}

// Inspector opens the files backing the modules of a process, through the
// process's root so that containerized targets resolve correctly.
type Inspector struct {
	logger log.Logger
	proc   linkmap.Process
}

func NewInspector(logger log.Logger, proc linkmap.Process) *Inspector {
	return &Inspector{logger: logger, proc: proc}
}

// FilePath returns the path to open for m.
func (in *Inspector) FilePath(m linkmap.Module) (string, error) {
	if m.Path == "" {
		return in.proc.Path("exe"), nil
	}
	if !strings.HasPrefix(m.Path, "/") {
		return "", ErrNoBackingFile
	}
	return path.Join(in.proc.Path("root"), m.Path), nil
}

func (in *Inspector) Inspect(m linkmap.Module) (Info, error) {
	fpath, err := in.FilePath(m)
	if err != nil {
		return Info{}, err
	}
	me, err := NewMMapedElfFile(fpath)
	if err != nil {
		return Info{}, err
	}
	defer me.Close()

	info := Info{FilePath: fpath}
	info.DynamicVaddr, info.HasDynamicVaddr = me.DynamicVaddr()
	info.BuildID, err = me.BuildID()
	if err != nil && err != ErrNoBuildIDSection {
		level.Debug(in.logger).Log("msg", "reading build id failed", "file", fpath, "err", err)
	}
	return info, nil
}
