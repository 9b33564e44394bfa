// Package linkmap reads the dynamic linker's debug interface (r_debug and the
// link_map chain) out of a process's memory.
package linkmap

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"

	"github.com/grafana/dynwalk/pkg/dynamic"
)

// maxCString bounds the length of strings read from target memory.
const maxCString = 4096

var (
	// ErrStringTooLong is returned when no NUL byte is found within maxCString
	// bytes.
	ErrStringTooLong = errors.New("string exceeds maximum length")
	// ErrFault is returned by memories that detect reads of unmapped addresses.
	ErrFault = errors.New("bad address")
)

// Memory gives read access to the address space of a target process.
type Memory interface {
	// ReadMemory fills p with the bytes starting at addr. It either reads all
	// of p or returns an error.
	ReadMemory(addr uint64, p []byte) error
}

// SelfMemory reads the memory of the running process through raw pointers.
// Reading an unmapped address faults the process.
type SelfMemory struct{}

func (SelfMemory) ReadMemory(addr uint64, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), len(p))
	copy(p, src)
	return nil
}

// Layout describes how the target lays out linker structures: its ELF class
// and byte order.
type Layout struct {
	Class     elf.Class
	ByteOrder binary.ByteOrder
}

// NativeLayout returns the layout of the running process.
func NativeLayout() Layout {
	class := elf.ELFCLASS64
	if dynamic.NativePointerBits == 32 {
		class = elf.ELFCLASS32
	}
	return Layout{Class: class, ByteOrder: binary.NativeEndian}
}

// NewLayout validates class and returns the corresponding layout.
func NewLayout(class elf.Class, order binary.ByteOrder) (Layout, error) {
	if class != elf.ELFCLASS32 && class != elf.ELFCLASS64 {
		return Layout{}, fmt.Errorf("%w: class %v", dynamic.ErrUnsupportedWidth, class)
	}
	return Layout{Class: class, ByteOrder: order}, nil
}

// WordSize is the size of an address in bytes.
func (l Layout) WordSize() int {
	if l.Class == elf.ELFCLASS32 {
		return 4
	}
	return 8
}

// Bits is the size of an address in bits.
func (l Layout) Bits() int {
	return l.WordSize() * 8
}

// DynSize is the size of one ElfW(Dyn) record.
func (l Layout) DynSize() int {
	return 2 * l.WordSize()
}

// Resolver returns the pointer resolver matching the layout's width.
func (l Layout) Resolver() dynamic.PointerResolver {
	r, err := dynamic.NewPointerResolver(l.Bits())
	if err != nil {
		panic(err)
	}
	return r
}

func (l Layout) word(b []byte) uint64 {
	if l.WordSize() == 4 {
		return uint64(l.ByteOrder.Uint32(b))
	}
	return l.ByteOrder.Uint64(b)
}

func (l Layout) putWord(b []byte, v uint64) {
	if l.WordSize() == 4 {
		l.ByteOrder.PutUint32(b, uint32(v))
		return
	}
	l.ByteOrder.PutUint64(b, v)
}

// Reader decodes linker structures out of a Memory.
type Reader struct {
	mem    Memory
	layout Layout
}

func NewReader(mem Memory, layout Layout) *Reader {
	return &Reader{mem: mem, layout: layout}
}

func (r *Reader) Layout() Layout {
	return r.layout
}

func (r *Reader) read(addr uint64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := r.mem.ReadMemory(addr, buf); err != nil {
		return nil, fmt.Errorf("read %d bytes at %#x: %w", n, addr, err)
	}
	return buf, nil
}

// ReadWord reads one address-sized word.
func (r *Reader) ReadWord(addr uint64) (uint64, error) {
	b, err := r.read(addr, r.layout.WordSize())
	if err != nil {
		return 0, err
	}
	return r.layout.word(b), nil
}

// ReadUint32 reads an Elf_Word.
func (r *Reader) ReadUint32(addr uint64) (uint32, error) {
	b, err := r.read(addr, 4)
	if err != nil {
		return 0, err
	}
	return r.layout.ByteOrder.Uint32(b), nil
}

// ReadCString reads a NUL-terminated string. It reads in 64 byte aligned
// chunks and drops to single bytes when a chunk runs off the end of the
// mapped memory.
func (r *Reader) ReadCString(addr uint64) (string, error) {
	const chunk = 64
	var sb []byte
	for len(sb) < maxCString {
		n := chunk - int(addr%chunk)
		b, err := r.read(addr, n)
		if err != nil {
			return r.readCStringBytewise(addr, sb)
		}
		if i := bytes.IndexByte(b, 0); i >= 0 {
			return string(append(sb, b[:i]...)), nil
		}
		sb = append(sb, b...)
		addr += uint64(n)
	}
	return "", fmt.Errorf("%w at %#x", ErrStringTooLong, addr)
}

func (r *Reader) readCStringBytewise(addr uint64, sb []byte) (string, error) {
	b := make([]byte, 1)
	for len(sb) < maxCString {
		if err := r.mem.ReadMemory(addr, b); err != nil {
			return "", fmt.Errorf("read string at %#x: %w", addr, err)
		}
		if b[0] == 0 {
			return string(sb), nil
		}
		sb = append(sb, b[0])
		addr++
	}
	return "", fmt.Errorf("%w at %#x", ErrStringTooLong, addr)
}

// ReadEntry reads the ElfW(Dyn) record at addr.
func (r *Reader) ReadEntry(addr uint64) (dynamic.Entry, error) {
	b, err := r.read(addr, r.layout.DynSize())
	if err != nil {
		return dynamic.Entry{}, err
	}
	w := r.layout.WordSize()
	var tag int64
	if w == 4 {
		tag = int64(int32(r.layout.ByteOrder.Uint32(b)))
	} else {
		tag = int64(r.layout.ByteOrder.Uint64(b))
	}
	return dynamic.Entry{
		Addr: addr,
		Tag:  tag,
		Raw:  r.layout.word(b[w:]),
	}, nil
}
