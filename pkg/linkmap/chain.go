package linkmap

import (
	"fmt"

	"github.com/grafana/dynwalk/pkg/dynamic"
)

// State is r_state of struct r_debug.
type State int32

const (
	StateConsistent State = iota
	StateAdd
	StateDelete
)

func (s State) String() string {
	switch s {
	case StateConsistent:
		return "consistent"
	case StateAdd:
		return "add"
	case StateDelete:
		return "delete"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Debug is the dynamic linker's struct r_debug, the head of the module chain.
type Debug struct {
	Addr    uint64
	Version int32
	// Map is the address of the first link_map.
	Map uint64
	// Brk is the function the linker calls around every change to the chain.
	Brk    uint64
	State  State
	LdBase uint64
}

// Module is a struct link_map: one loaded object.
type Module struct {
	// Addr is the address of the link_map itself.
	Addr uint64
	// Bias is l_addr, the difference between link-time and runtime addresses.
	Bias     uint64
	NameAddr uint64
	// Path is l_name. It is empty for the main executable.
	Path    string
	Dynamic uint64
	Next    uint64
	Prev    uint64
}

// LoadBias implements dynamic.Module.
func (m Module) LoadBias() uint64 {
	return m.Bias
}

// ReadDebug decodes the struct r_debug at addr.
func (r *Reader) ReadDebug(addr uint64) (Debug, error) {
	w := r.layout.WordSize()
	b, err := r.read(addr, 5*w)
	if err != nil {
		return Debug{}, err
	}
	order := r.layout.ByteOrder
	return Debug{
		Addr:    addr,
		Version: int32(order.Uint32(b)),
		Map:     r.layout.word(b[w:]),
		Brk:     r.layout.word(b[2*w:]),
		State:   State(int32(order.Uint32(b[3*w:]))),
		LdBase:  r.layout.word(b[4*w:]),
	}, nil
}

// ReadModule decodes the public part of the struct link_map at addr.
func (r *Reader) ReadModule(addr uint64) (Module, error) {
	w := r.layout.WordSize()
	b, err := r.read(addr, 5*w)
	if err != nil {
		return Module{}, err
	}
	m := Module{
		Addr:     addr,
		Bias:     r.layout.word(b),
		NameAddr: r.layout.word(b[w:]),
		Dynamic:  r.layout.word(b[2*w:]),
		Next:     r.layout.word(b[3*w:]),
		Prev:     r.layout.word(b[4*w:]),
	}
	if m.NameAddr != 0 {
		m.Path, err = r.ReadCString(m.NameAddr)
		if err != nil {
			return Module{}, fmt.Errorf("reading l_name of link_map at %#x: %w", addr, err)
		}
	}
	return m, nil
}

// Modules walks the chain starting at the link_map at first until a null
// l_next.
func (r *Reader) Modules(first uint64) *Cursor[Module] {
	return Sequence[Module]{
		Read: r.ReadModule,
		Next: func(_ uint64, m Module) uint64 { return m.Next },
		End:  func(addr uint64) bool { return addr == 0 },
	}.From(first)
}

// Entries walks the dynamic array starting at addr until the DT_NULL entry.
func (r *Reader) Entries(addr uint64) *Cursor[dynamic.Entry] {
	stride := uint64(r.layout.DynSize())
	return Sequence[dynamic.Entry]{
		Read:       r.ReadEntry,
		Next:       func(addr uint64, _ dynamic.Entry) uint64 { return addr + stride },
		Terminator: dynamic.Entry.Terminal,
	}.From(addr)
}
