package linkmap

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrNoProgramHeaders = errors.New("auxiliary vector has no program headers")
	ErrNotDynamic       = errors.New("executable has no dynamic section")
	ErrNoDebug          = errors.New("dynamic linker did not publish r_debug (no DT_DEBUG)")
)

type progHeader struct {
	Type  elf.ProgType
	Vaddr uint64
}

func (r *Reader) readProgHeaders(addr uint64, count, size int) ([]progHeader, error) {
	b, err := r.read(addr, count*size)
	if err != nil {
		return nil, err
	}
	headers := make([]progHeader, 0, count)
	for i := 0; i < count; i++ {
		rd := bytes.NewReader(b[i*size : (i+1)*size])
		switch r.layout.Class {
		case elf.ELFCLASS32:
			var p elf.Prog32
			if err := binary.Read(rd, r.layout.ByteOrder, &p); err != nil {
				return nil, err
			}
			headers = append(headers, progHeader{Type: elf.ProgType(p.Type), Vaddr: uint64(p.Vaddr)})
		default:
			var p elf.Prog64
			if err := binary.Read(rd, r.layout.ByteOrder, &p); err != nil {
				return nil, err
			}
			headers = append(headers, progHeader{Type: elf.ProgType(p.Type), Vaddr: p.Vaddr})
		}
	}
	return headers, nil
}

// Locate finds the address of r_debug in a process, given its auxiliary vector
// and the link-time entry point of its executable.
//
// The executable's load bias comes from PT_PHDR, or from the runtime entry
// point when there is no PT_PHDR. The linker stores the r_debug address in
// the DT_DEBUG entry of the executable's dynamic section.
func Locate(r *Reader, auxv Auxv, exeEntry uint64) (uint64, error) {
	phdr, phnum := auxv[AtPhdr], int(auxv[AtPhnum])
	if phdr == 0 || phnum == 0 {
		return 0, ErrNoProgramHeaders
	}
	phent := int(auxv[AtPhent])
	if phent == 0 {
		phent = binary.Size(elf.Prog64{})
		if r.layout.Class == elf.ELFCLASS32 {
			phent = binary.Size(elf.Prog32{})
		}
	}
	headers, err := r.readProgHeaders(phdr, phnum, phent)
	if err != nil {
		return 0, fmt.Errorf("reading program headers: %w", err)
	}

	var (
		bias       uint64
		biasFound  bool
		dynVaddr   uint64
		hasDynamic bool
	)
	for _, p := range headers {
		switch p.Type {
		case elf.PT_PHDR:
			bias, biasFound = phdr-p.Vaddr, true
		case elf.PT_DYNAMIC:
			dynVaddr, hasDynamic = p.Vaddr, true
		}
	}
	if !hasDynamic {
		return 0, ErrNotDynamic
	}
	if !biasFound && exeEntry != 0 && auxv[AtEntry] != 0 {
		bias = auxv[AtEntry] - exeEntry
	}

	entries := r.Entries(bias + dynVaddr)
	for entries.Next() {
		e := entries.Value()
		if e.Tag == int64(elf.DT_DEBUG) {
			if e.Raw == 0 {
				return 0, ErrNoDebug
			}
			return e.Raw, nil
		}
	}
	if err := entries.Err(); err != nil {
		return 0, fmt.Errorf("walking executable dynamic section: %w", err)
	}
	return 0, ErrNoDebug
}
