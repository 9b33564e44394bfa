// Package elfinfo reads identifying information from the on-disk objects
// backing loaded modules.
package elfinfo

import (
	"bytes"
	"debug/elf"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// MMapedElfFile is an ELF file mapped into memory. Only headers are parsed up
// front; section contents are sliced out of the mapping on demand.
type MMapedElfFile struct {
	elf.FileHeader
	Sections []elf.SectionHeader
	Progs    []elf.ProgHeader

	fpath    string
	mmaped   mmap.MMap
	openFile *os.File
}

func NewMMapedElfFile(fpath string) (*MMapedElfFile, error) {
	res := &MMapedElfFile{
		fpath: fpath,
	}
	if err := res.open(); err != nil {
		return nil, err
	}
	elfFile, err := elf.NewFile(bytes.NewReader(res.mmaped))
	if err != nil {
		res.Close()
		return nil, err
	}
	progs := make([]elf.ProgHeader, 0, len(elfFile.Progs))
	sections := make([]elf.SectionHeader, 0, len(elfFile.Sections))
	for i := range elfFile.Progs {
		progs = append(progs, elfFile.Progs[i].ProgHeader)
	}
	for i := range elfFile.Sections {
		sections = append(sections, elfFile.Sections[i].SectionHeader)
	}
	res.FileHeader = elfFile.FileHeader
	res.Progs = progs
	res.Sections = sections
	return res, nil
}

func (f *MMapedElfFile) FilePath() string {
	return f.fpath
}

func (f *MMapedElfFile) Section(name string) *elf.SectionHeader {
	for i := range f.Sections {
		s := &f.Sections[i]
		if s.Name == name {
			return s
		}
	}
	return nil
}

func (f *MMapedElfFile) SectionData(s *elf.SectionHeader) ([]byte, error) {
	if f.mmaped == nil {
		return nil, fmt.Errorf("elf file %s is closed", f.fpath)
	}
	from := s.Offset
	to := s.Offset + s.FileSize
	if from > uint64(len(f.mmaped)) || to > uint64(len(f.mmaped)) {
		return nil, fmt.Errorf("section oob %s %v", f.fpath, s)
	}
	return f.mmaped[from:to], nil
}

// DynamicVaddr returns the link-time address of the PT_DYNAMIC segment.
func (f *MMapedElfFile) DynamicVaddr() (uint64, bool) {
	for _, p := range f.Progs {
		if p.Type == elf.PT_DYNAMIC {
			return p.Vaddr, true
		}
	}
	return 0, false
}

func (f *MMapedElfFile) open() error {
	fd, err := os.OpenFile(f.fpath, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("open elf file %s %w", f.fpath, err)
	}
	mmaped, err := mmap.Map(fd, mmap.RDONLY, 0)
	if err != nil {
		fd.Close()
		return fmt.Errorf("mmap elf file %s %w", f.fpath, err)
	}
	f.openFile = fd
	f.mmaped = mmaped
	return nil
}

func (f *MMapedElfFile) Close() {
	if f.mmaped != nil {
		f.mmaped.Unmap()
		f.mmaped = nil
	}
	if f.openFile != nil {
		f.openFile.Close()
		f.openFile = nil
	}
}
